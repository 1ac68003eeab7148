// Command orrery serves the frozen-orbit solar system viewer: a gRPC
// ViewerService, a WebSocket bridge for browser renderers and a terminal
// renderer, all over the same orbit model and focus controller.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/signalsfoundry/orrery/internal/config"
	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/observability"
	"github.com/signalsfoundry/orrery/internal/session"
	"github.com/signalsfoundry/orrery/model"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "orrery",
		Short:         "Frozen-orbit solar system viewer",
		Long:          "Orrery places the Sun and eight planets on circular orbits for a given day offset and lets renderers focus the camera on any of them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default .orrery.toml in the working or home directory)")
	pf.String("days", "", "days elapsed since the reference date (ORRERY_DAYS)")
	pf.String("date", "", "calendar date to place the planets at, e.g. 2024-01-10")
	pf.String("epoch", "", "reference date for --date (default J2000)")
	pf.String("form-data", "", "JSON file holding {\"daysDifference\": N}")
	pf.String("catalog", "", "TOML body catalog (default: built-in)")
	for _, name := range []string{"days", "date", "epoch", "form-data", "catalog"} {
		_ = viper.BindPFlag(flagKey(name), pf.Lookup(name))
	}

	root.AddCommand(newServeCmd(), newPositionsCmd(), newTUICmd())
	return root
}

// flagKey maps a flag name to its viper key.
func flagKey(name string) string { return strings.ReplaceAll(name, "-", "_") }

func initConfig(cmd *cobra.Command) error {
	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".orrery")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// loadSessionConfig resolves configuration and the startup preconditions
// every command shares: the time offset and the body catalog.
func loadSessionConfig(ctx context.Context, log logging.Logger) (config.Config, session.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, session.Config{}, err
	}
	offset, err := cfg.TimeOffset()
	if err != nil {
		log.Error(ctx, "invalid time offset", logging.Err(err))
		return config.Config{}, session.Config{}, err
	}
	bodies, err := cfg.Bodies()
	if err != nil {
		log.Error(ctx, "invalid body catalog", logging.Err(err))
		return config.Config{}, session.Config{}, err
	}
	return cfg, session.Config{
		Offset:             offset,
		Bodies:             bodies,
		TransitionDuration: cfg.TransitionDuration,
		Log:                log,
	}, nil
}

// withCollectors returns a copy of base for a new session. Each session
// owns its bodies, so the catalog is cloned.
func withCollectors(base session.Config, scene *observability.SceneCollector, viewer *observability.ViewerCollector) session.Config {
	cfg := base
	cfg.Bodies = cloneBodies(base.Bodies)
	cfg.Scene = scene
	cfg.Metrics = viewer
	return cfg
}

func cloneBodies(bodies []*model.CelestialBody) []*model.CelestialBody {
	if bodies == nil {
		return nil
	}
	out := make([]*model.CelestialBody, len(bodies))
	for i, b := range bodies {
		out[i] = b.Clone()
	}
	return out
}
