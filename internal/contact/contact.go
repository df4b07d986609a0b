// Package contact finds and verifies a candidate's professional email and
// builds sourcing links when no deliverable address exists.
package contact

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/ta-nexus/internal/logger"
)

const (
	OutreachEmail    = "email"
	OutreachLinkedIn = "linkedin_sniper"

	StatusValid   = "valid"
	StatusInvalid = "invalid"
	StatusUnknown = "unknown"
)

type FindResult struct {
	Email      string `json:"email" yaml:"email"`
	Confidence int    `json:"confidence" yaml:"confidence"`
	FirstName  string `json:"first_name" yaml:"first_name"`
	LastName   string `json:"last_name" yaml:"last_name"`
	Position   string `json:"position" yaml:"position"`
	Twitter    string `json:"twitter" yaml:"twitter"`
	LinkedIn   string `json:"linkedin" yaml:"linkedin"`
	Found      bool   `json:"found" yaml:"found"`
}

type VerifyResult struct {
	Email      string `json:"email" yaml:"email"`
	Verified   bool   `json:"verified" yaml:"verified"`
	SMTPCheck  bool   `json:"smtp_check" yaml:"smtp_check"`
	MXFound    bool   `json:"mx_found" yaml:"mx_found"`
	Disposable bool   `json:"disposable" yaml:"disposable"`
	Score      int    `json:"score" yaml:"score"`
	Status     string `json:"status" yaml:"status"`
}

type Finder interface {
	Find(ctx context.Context, domain, firstName, lastName string) FindResult
}

type Verifier interface {
	Verify(ctx context.Context, email string) VerifyResult
}

// Report is the outcome of the find then verify pipeline.
type Report struct {
	Find           FindResult    `json:"find" yaml:"find"`
	Verify         *VerifyResult `json:"verify,omitempty" yaml:"verify,omitempty"`
	OutreachReady  bool          `json:"outreach_ready" yaml:"outreach_ready"`
	OutreachMethod string        `json:"outreach_method" yaml:"outreach_method"`
}

type Discovery struct {
	finder   Finder
	verifier Verifier
	logger   *zap.Logger
}

func NewDiscovery(finder Finder, verifier Verifier, log *zap.Logger) *Discovery {
	return &Discovery{finder: finder, verifier: verifier, logger: logger.Component(log, "contact")}
}

// Discover looks up the email and only recommends email outreach when the
// address was both found and verified. Everything else goes to LinkedIn.
func (d *Discovery) Discover(ctx context.Context, domain, firstName, lastName string) Report {
	report := Report{OutreachMethod: OutreachLinkedIn}

	if d.finder == nil || domain == "" {
		return report
	}

	report.Find = d.finder.Find(ctx, domain, firstName, lastName)
	if !report.Find.Found || d.verifier == nil {
		d.logger.Debug("no deliverable email, falling back to linkedin", zap.String("domain", domain))
		return report
	}

	verify := d.verifier.Verify(ctx, report.Find.Email)
	report.Verify = &verify
	if verify.Verified {
		report.OutreachReady = true
		report.OutreachMethod = OutreachEmail
	}

	d.logger.Debug("contact discovered",
		zap.String("domain", domain),
		zap.String("status", verify.Status),
		zap.String("outreach", report.OutreachMethod),
	)

	return report
}
