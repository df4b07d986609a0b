package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/ta-nexus/internal/reminder"
)

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Send follow-up reminders for high scoring candidates",
	Run: func(cmd *cobra.Command, _ []string) {
		once, _ := cmd.Flags().GetBool("once")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt := setup(ctx, "reminders")

		repo := rt.store()
		defer repo.Close()

		dispatcher, err := reminder.New(repo, rt.notifier(), rt.config.Reminders, rt.logger)
		if err != nil {
			rt.logger.Fatal("creating the dispatcher", zap.Error(err))
		}

		if once {
			sent, err := dispatcher.DispatchDue(ctx)
			if err != nil {
				rt.logger.Error("some reminders were not delivered", zap.Int("sent", sent), zap.Error(err))
				return
			}
			rt.logger.Info("reminders dispatched", zap.Int("sent", sent))
			return
		}

		if err := dispatcher.Run(ctx); err != nil {
			rt.logger.Fatal("running the dispatcher", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(remindersCmd)

	remindersCmd.Flags().Bool("once", false, "dispatch due reminders once and exit")
}
