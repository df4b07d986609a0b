package cmd

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/ta-nexus/internal/logger"
	"github.com/spigell/ta-nexus/internal/risk"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score screening answers with the two pass evaluation pipeline",
	Run: func(cmd *cobra.Command, _ []string) {
		file, _ := cmd.Flags().GetString("file")
		format, _ := cmd.Flags().GetString("format")

		rt := setup(context.Background(), "evaluate")

		var in evaluationInput
		if err := readInput(file, &in); err != nil {
			rt.logger.Fatal("reading the answers", zap.Error(err))
		}

		sessionID := in.SessionID
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		result := rt.pipeline(rt.oracle()).Evaluate(rt.ctx, sessionID, in.Pairs, in.JobDescription)

		rt.logger.Info("evaluation complete",
			zap.String(logger.FieldSessionID, sessionID),
			zap.Int("total_score", result.TotalScore),
			zap.String("recommendation", string(result.Recommendation)),
			zap.Bool("validated", result.Validated),
		)

		if err := writeOutput(os.Stdout, format, result); err != nil {
			rt.logger.Fatal("printing the result", zap.Error(err))
		}
	},
}

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Build the four dimension risk matrix without calling any model",
	Run: func(cmd *cobra.Command, _ []string) {
		file, _ := cmd.Flags().GetString("file")
		format, _ := cmd.Flags().GetString("format")

		rt := setup(context.Background(), "risk")

		var in risk.Input
		if err := readInput(file, &in); err != nil {
			rt.logger.Fatal("reading the risk input", zap.Error(err))
		}

		matrix := risk.Build(in)

		rt.logger.Info("risk matrix built",
			zap.Float64("aggregate", matrix.AggregateRiskScore),
			zap.String("color", string(matrix.RiskColor)),
			zap.Bool("red_flash", matrix.RedFlashRequired),
		)

		if err := writeOutput(os.Stdout, format, matrix); err != nil {
			rt.logger.Fatal("printing the matrix", zap.Error(err))
		}
	},
}

func init() {
	for _, c := range []*cobra.Command{evaluateCmd, riskCmd} {
		c.Flags().StringP("file", "f", "", "input file in yaml or json, - for stdin")
		c.Flags().StringP("format", "o", FormatJSON, "output format: json or yaml")
		rootCmd.AddCommand(c)
	}
}
