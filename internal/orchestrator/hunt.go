package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/ta-nexus/internal/contact"
)

// RunHunt looks for a deliverable email and builds the sourcing links. It
// is independent of RunAnalysis and does not feed the risk aggregation.
func (o *Orchestrator) RunHunt(ctx context.Context, req HuntRequest) HuntReport {
	found := contact.Report{OutreachMethod: contact.OutreachLinkedIn}
	if o.contacts != nil {
		found = o.contacts.Discover(ctx, req.CompanyDomain, req.FirstName, req.LastName)
	}

	report := HuntReport{
		SniperURL: contact.BooleanURL(contact.SearchParams{
			JobTitle: req.JobTitle,
			Skills:   req.Skills,
			Location: req.Location,
		}),
		LinkedInURL:    contact.LinkedInURL(req.JobTitle, req.Skills),
		EmailFound:     found.Find.Email,
		EmailVerified:  found.Verify != nil && found.Verify.Verified,
		OutreachMethod: found.OutreachMethod,
		OutreachStatus: HuntLinkedInFallback,
	}
	if found.OutreachReady {
		report.OutreachStatus = HuntReady
	}

	o.logger.Info("hunt complete",
		zap.String("domain", req.CompanyDomain),
		zap.String("outreach_method", report.OutreachMethod),
		zap.String("outreach_status", report.OutreachStatus),
	)

	return report
}
