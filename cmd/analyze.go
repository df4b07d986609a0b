package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/ta-nexus/internal/candidate"
	"github.com/spigell/ta-nexus/internal/logger"
	"github.com/spigell/ta-nexus/internal/notify"
	"github.com/spigell/ta-nexus/internal/orchestrator"
)

const (
	PromptPrint         = "Print report"
	PromptSaveCandidate = "Save candidate to the store"
	PromptDumpToFile    = "Dump report to file"
	PromptExit          = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptPrint, PromptSaveCandidate, PromptDumpToFile, PromptExit},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the strategic, intelligence and market analysis for a candidate",
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("file", "f", "", "candidate and job file in yaml or json, - for stdin")
	analyzeCmd.Flags().StringP("format", "o", FormatJSON, "report format: json or yaml")
	analyzeCmd.Flags().BoolP("auto-approve", "y", false, "print the report and exit without asking")
	analyzeCmd.Flags().Bool("save", false, "save the candidate to the store before the analysis")
}

func analyze(cmd *cobra.Command) {
	rt := setup(context.Background(), "analyze")
	format, _ := cmd.Flags().GetString("format")

	var in analysisInput
	file, _ := cmd.Flags().GetString("file")
	if err := readInput(file, &in); err != nil {
		rt.logger.Fatal("reading the candidate", zap.Error(err))
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		if err := rt.saveCandidate(&in.Candidate); err != nil {
			rt.logger.Fatal("saving the candidate", zap.Error(err))
		}
	}

	orch := rt.orchestrator(rt.oracle())
	report := orch.RunAnalysis(rt.ctx, in.Candidate, in.job(), in.ask())

	rt.logger.Info("analysis complete",
		zap.String("candidate", report.CandidateName),
		zap.String("decision", string(report.Decision)),
		zap.Int("composite_risk", report.CompositeRisk),
		zap.Bool("red_flash", report.RedFlash),
	)

	if report.RedFlash {
		rt.alert(in.Candidate, report)
	}

	if auto, _ := cmd.Flags().GetBool("auto-approve"); auto {
		if err := writeOutput(os.Stdout, format, report); err != nil {
			rt.logger.Fatal("printing the report", zap.Error(err))
		}
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			rt.logger.Fatal("exiting", zap.Error(err))
		}

		if err := rt.handleAction(action, format, &in.Candidate, report); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			rt.logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func (r *runtime) handleAction(action, format string, profile *candidate.Profile, report orchestrator.Report) error {
	switch action {
	case PromptPrint:
		return writeOutput(os.Stdout, format, report)
	case PromptSaveCandidate:
		return r.saveCandidate(profile)
	case PromptDumpToFile:
		filename, err := dumpToTmpFile(format, report)
		if err != nil {
			return fmt.Errorf("dump report to file: %w", err)
		}
		r.logger.Info("dumping report to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		r.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func (r *runtime) saveCandidate(profile *candidate.Profile) error {
	repo := r.store()
	defer repo.Close()

	if err := repo.UpsertCandidate(r.ctx, profile); err != nil {
		return err
	}

	r.logger.Info("candidate saved", zap.String(logger.FieldCandidateID, profile.ID))
	return nil
}

func (r *runtime) alert(profile candidate.Profile, report orchestrator.Report) {
	reasons := []string{
		fmt.Sprintf("composite risk %d/100", report.CompositeRisk),
		"strategic: " + report.Strategic.Alignment,
	}
	if report.Market.FinancialAlert {
		reasons = append(reasons, report.Market.Summary)
	}

	alert := notify.Alert{
		CandidateID:   profile.ID,
		CandidateName: report.CandidateName,
		Source:        "analysis",
		Score:         report.Intelligence.Score,
		Decision:      string(report.Decision),
		Reasons:       reasons,
	}

	if err := r.notifier().RedFlash(r.ctx, alert); err != nil {
		r.logger.Warn("red flash notification failed", zap.Error(err))
	}
}
