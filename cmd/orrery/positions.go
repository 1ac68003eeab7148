package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/orrery/core"
	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/session"
)

func newPositionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "positions",
		Short: "Print where each planet sits for the configured time offset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.NewFromEnv()
			_, base, err := loadSessionConfig(cmd.Context(), log)
			if err != nil {
				return err
			}
			placements, err := core.PlaceBodies(base.Offset, base.Bodies)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), session.FormatPositionTable(placements))
			return err
		},
	}
}
