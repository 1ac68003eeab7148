package main

import (
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/session"
	"github.com/signalsfoundry/orrery/internal/tui"
)

func newTUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Explore the solar system in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The alternate screen owns stdout; errors reach the user through
			// the returned error instead.
			log := logging.Noop()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			cfg, base, err := loadSessionConfig(ctx, log)
			if err != nil {
				return err
			}
			sess, err := session.New(ctx, base)
			if err != nil {
				return err
			}
			defer sess.Close()

			interval, _ := cmd.Flags().GetDuration("redraw-interval")
			if interval <= 0 {
				interval = cfg.FrameInterval
			}
			return tui.Run(ctx, sess, interval)
		},
	}
	cmd.Flags().Duration("redraw-interval", time.Second/30, "time between redraws")
	return cmd
}
