package main

import (
	"fmt"

	"github.com/limaJavier/coursesched/internal/config"
	"github.com/limaJavier/coursesched/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type cli struct {
	configPath string
	config     *config.Config
	logger     zerolog.Logger
	exitCode   int
}

func newRootCmd() (*cobra.Command, *cli) {
	app := &cli{logger: zerolog.Nop()}
	root := &cobra.Command{
		Use:           "coursesched",
		Short:         "Course to time-slot scheduling through integer programming",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(app.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			app.config = cfg
			app.logger = logger.NewWithWriter(cmd.ErrOrStderr(), cmd.Name(), cfg.Logging)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "configuration file (yaml or json)")

	root.AddCommand(newSolveCmd(app), newExportCmd(app), newValidateCmd(app))
	return root, app
}

// overrideSolver applies the command line backend and strategy on top of the loaded configuration
func (app *cli) overrideSolver(backend, strategy string) error {
	if backend != "" {
		app.config.Solver.Backend = backend
	}
	if strategy != "" {
		app.config.Strategy.Kind = strategy
	}
	return app.config.Validate()
}
