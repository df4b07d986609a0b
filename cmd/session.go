package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/ta-nexus/internal/logger"
	"github.com/spigell/ta-nexus/internal/risk"
	"github.com/spigell/ta-nexus/internal/screening"
	"github.com/spigell/ta-nexus/internal/store"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage candidate screening sessions",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Save the candidate and open a screening session with generated questions",
	Run: func(cmd *cobra.Command, _ []string) {
		file, _ := cmd.Flags().GetString("file")

		rt := setup(context.Background(), "session create")

		var in sessionInput
		if err := readInput(file, &in); err != nil {
			rt.logger.Fatal("reading the candidate", zap.Error(err))
		}

		repo := rt.store()
		defer repo.Close()

		if err := repo.UpsertCandidate(rt.ctx, &in.Candidate); err != nil {
			rt.logger.Fatal("saving the candidate", zap.Error(err))
		}

		job := in.job()
		gap := risk.CalculateSkillGap(job.RequiredSkills, in.Candidate.Skills)

		svc := rt.screening(repo)
		sess, err := svc.CreateSession(rt.ctx, screening.SessionRequest{
			CandidateID:    in.Candidate.ID,
			JobID:          job.ID,
			JobDescription: jobDescription(job.Title, job.Description),
			Questions:      in.Questions,
			SkillGaps:      gap.Missing,
		})
		if err != nil {
			rt.logger.Fatal("creating the session", zap.Error(err))
		}

		rt.logger.Info("screening link ready",
			append(logger.SessionFields(sess.ID, sess.CandidateID),
				zap.String("url", svc.URL(sess)),
			)...,
		)

		format, _ := cmd.Flags().GetString("format")
		if err := writeOutput(os.Stdout, format, sess); err != nil {
			rt.logger.Fatal("printing the session", zap.Error(err))
		}
	},
}

var sessionScoreCmd = &cobra.Command{
	Use:   "score SESSION_ID",
	Short: "Score the answers submitted for a session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")

		rt := setup(context.Background(), "session score")

		var in answersInput
		if err := readInput(file, &in); err != nil {
			rt.logger.Fatal("reading the answers", zap.Error(err))
		}

		repo := rt.store()
		defer repo.Close()

		outcome, err := rt.screening(repo).Score(rt.ctx, args[0], in.Answers)
		if err != nil {
			rt.logger.Fatal("scoring the session", zap.String(logger.FieldSessionID, args[0]), zap.Error(err))
		}

		format, _ := cmd.Flags().GetString("format")
		if err := writeOutput(os.Stdout, format, outcome); err != nil {
			rt.logger.Fatal("printing the outcome", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)

	for _, c := range []*cobra.Command{sessionCreateCmd, sessionScoreCmd} {
		c.Flags().StringP("file", "f", "", "input file in yaml or json, - for stdin")
		c.Flags().StringP("format", "o", FormatJSON, "output format: json or yaml")
		sessionCmd.AddCommand(c)
	}
}

func (r *runtime) screening(repo store.Repository) *screening.Service {
	oracle := r.oracle()

	return screening.New(screening.Deps{
		Repo:      repo,
		Evaluator: r.pipeline(oracle),
		Oracle:    oracle,
		Notifier:  r.notifier(),
	}, r.config.Screening, r.logger)
}

func jobDescription(title, description string) string {
	switch {
	case title == "":
		return description
	case description == "":
		return title
	default:
		return title + "\n\n" + description
	}
}
