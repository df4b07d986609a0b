package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/ta-nexus/internal/contact"
	"github.com/spigell/ta-nexus/internal/orchestrator"
)

type huntOutput struct {
	orchestrator.HuntReport `yaml:",inline"`

	BooleanQuery string            `json:"boolean_query" yaml:"boolean_query"`
	Outreach     *contact.Outreach `json:"outreach,omitempty" yaml:"outreach,omitempty"`
}

var huntCmd = &cobra.Command{
	Use:   "hunt",
	Short: "Find a deliverable email and build sourcing links for a role",
	Run: func(cmd *cobra.Command, _ []string) {
		hunt(cmd)
	},
}

func init() {
	rootCmd.AddCommand(huntCmd)

	huntCmd.Flags().StringP("title", "t", "", "job title to source for")
	huntCmd.Flags().String("domain", "", "company domain for the email lookup")
	huntCmd.Flags().String("first-name", "", "first name of the person to reach")
	huntCmd.Flags().String("last-name", "", "last name of the person to reach")
	huntCmd.Flags().StringP("location", "l", "", "location for the boolean search")
	huntCmd.Flags().StringSlice("skills", nil, "skills to include in the searches")
	huntCmd.Flags().String("experience", "", "years of experience for the boolean search")
	huntCmd.Flags().StringSlice("exclude", nil, "terms to exclude from the boolean search")
	huntCmd.Flags().String("company", "", "hiring company for the outreach templates")
	huntCmd.Flags().String("recruiter", "", "recruiter signing the outreach templates")
	huntCmd.Flags().StringP("format", "o", FormatJSON, "output format: json or yaml")

	huntCmd.MarkFlagRequired("title")
}

func hunt(cmd *cobra.Command) {
	flags := cmd.Flags()
	title, _ := flags.GetString("title")
	domain, _ := flags.GetString("domain")
	first, _ := flags.GetString("first-name")
	last, _ := flags.GetString("last-name")
	location, _ := flags.GetString("location")
	skills, _ := flags.GetStringSlice("skills")
	experience, _ := flags.GetString("experience")
	exclude, _ := flags.GetStringSlice("exclude")
	company, _ := flags.GetString("company")
	recruiter, _ := flags.GetString("recruiter")
	format, _ := flags.GetString("format")

	rt := setup(context.Background(), "hunt")

	orch := orchestrator.New(orchestrator.Deps{Contacts: rt.contacts()},
		orchestrator.Options{Thresholds: rt.config.Thresholds.Analysis}, rt.logger)

	out := huntOutput{
		HuntReport: orch.RunHunt(rt.ctx, orchestrator.HuntRequest{
			JobTitle:      title,
			CompanyDomain: domain,
			FirstName:     first,
			LastName:      last,
			Location:      location,
			Skills:        skills,
		}),
		BooleanQuery: contact.BooleanQuery(contact.SearchParams{
			JobTitle:        title,
			Skills:          skills,
			Location:        location,
			YearsExperience: experience,
			Exclude:         exclude,
		}),
	}

	if first != "" && company != "" {
		outreach := contact.OutreachTemplate(first, title, company, recruiter)
		out.Outreach = &outreach
	}

	if err := writeOutput(os.Stdout, format, out); err != nil {
		rt.logger.Fatal("printing the hunt report", zap.Error(err))
	}
}
