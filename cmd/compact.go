package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/ta-nexus/internal/logger"
	"github.com/spigell/ta-nexus/internal/memory"
	"github.com/spigell/ta-nexus/internal/store"
)

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Compress a long session context into a summary and key facts",
	Run: func(cmd *cobra.Command, _ []string) {
		compact(cmd)
	},
}

func init() {
	rootCmd.AddCommand(compactCmd)

	compactCmd.Flags().StringP("file", "f", "", "text file with the session context, - for stdin")
	compactCmd.Flags().StringP("session", "s", "", "session key the snapshot belongs to")
	compactCmd.Flags().StringP("format", "o", FormatJSON, "output format: json or yaml")
	compactCmd.Flags().Bool("persist", false, "compact only above the threshold and save the snapshot")
	compactCmd.Flags().Bool("latest", false, "print the latest saved snapshot as prompt context")
}

func compact(cmd *cobra.Command) {
	sessionKey, _ := cmd.Flags().GetString("session")
	format, _ := cmd.Flags().GetString("format")
	persist, _ := cmd.Flags().GetBool("persist")
	latest, _ := cmd.Flags().GetBool("latest")

	rt := setup(context.Background(), "compact")
	fields := []zap.Field{zap.String(logger.FieldSessionID, sessionKey)}

	var repo store.Repository
	if persist || latest {
		if sessionKey == "" {
			rt.logger.Fatal("session key is required to persist snapshots", zap.String("hint", "use --session"))
		}
		repo = rt.store()
		defer repo.Close()
	}

	if latest {
		snap, err := memory.New(nil, repo, rt.config.Memory, rt.logger).Latest(rt.ctx, sessionKey)
		if err != nil {
			rt.logger.Fatal("getting the latest snapshot", append(fields, zap.Error(err))...)
		}
		fmt.Print(memory.RebuildContext(snap))
		return
	}

	file, _ := cmd.Flags().GetString("file")
	text, err := readFile(file)
	if err != nil {
		rt.logger.Fatal("reading the context", zap.Error(err))
	}

	compactor := memory.New(rt.oracle(), repo, rt.config.Memory, rt.logger)

	var snap memory.Snapshot
	if persist {
		var compacted bool
		snap, compacted, err = compactor.CompactIfNeeded(rt.ctx, sessionKey, string(text))
		if err != nil {
			rt.logger.Fatal("compacting the context", append(fields, zap.Error(err))...)
		}
		if !compacted {
			rt.logger.Info("context is below the threshold, nothing to compact",
				append(fields, zap.Float64("estimated_tokens", memory.EstimateTokens(string(text))))...,
			)
			return
		}
	} else {
		snap = compactor.Compact(rt.ctx, sessionKey, string(text))
	}

	if err := writeOutput(os.Stdout, format, snap); err != nil {
		rt.logger.Fatal("printing the snapshot", zap.Error(err))
	}
}
