// Command hierarchyctl runs the hierarchy jobs once from the command line:
// rotation, single-bucket rebuilds, re-slicing, validation, odds sync, action
// slices and inspection of the Redis index mirror.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/enkday/prizepicks-data-mirror/internal/app"
	"github.com/enkday/prizepicks-data-mirror/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	dataDir string
	verbose bool

	// application is built once per invocation by the root command
	application *app.App
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hierarchyctl",
		Short:         "Maintain the PrizePicks day-bucket hierarchy",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(cmd)

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}

			application, err = app.New(cfg, nil)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if application == nil {
				return nil
			}
			return application.Close()
		},
	}

	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "override DATA_DIR")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		rotateCmd(),
		rebuildCmd(),
		sliceCmd(),
		validateCmd(),
		syncOddsCmd(),
		actionSlicesCmd(),
		cacheIndexCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogger writes human-readable logs to the command's stderr
func setupLogger(cmd *cobra.Command) {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        cmd.ErrOrStderr(),
		TimeFormat: time.RFC3339,
	})

	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if parsed, err := zerolog.ParseLevel(lvl); err == nil {
			level = parsed
		}
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.DefaultContextLogger = &log.Logger
}
