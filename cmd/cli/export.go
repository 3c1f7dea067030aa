package main

import (
	"fmt"
	"io"
	"os"

	"github.com/limaJavier/coursesched/pkg/model"
	"github.com/spf13/cobra"
)

func newExportCmd(app *cli) *cobra.Command {
	var (
		inputPath string
		outPath   string
		strategy  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the model of a problem file in CPLEX LP format",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.overrideSolver("", strategy); err != nil {
				return err
			}
			return app.export(cmd.OutOrStdout(), inputPath, outPath)
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to the problem file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "file where the model is written; standard output when empty")
	cmd.Flags().StringVar(&strategy, "strategy", "", "formulation overriding the configuration: auto, binary or continuous")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (app *cli) export(stdout io.Writer, inputPath, outPath string) error {
	problem, err := model.InputFromJson(inputPath)
	if err != nil {
		return fmt.Errorf("cannot parse input file: %w", err)
	}
	app.config.Scores.Apply(&problem)

	// Formulating needs no solver
	scheduler := model.NewScheduler(nil,
		model.WithStrategy(app.config.Strategy.Resolve(problem)),
		model.WithLogger(app.logger),
	)
	formulated, err := scheduler.Formulate(problem)
	if err != nil {
		return err
	}
	app.logger.Info().
		Str("program", formulated.Program.Name).
		Int("variables", len(formulated.Program.Variables)).
		Int("constraints", len(formulated.Program.Constraints)).
		Msg("model formulated")

	if outPath == "" {
		_, err = fmt.Fprint(stdout, formulated.Program.ToLP())
		return err
	}
	return os.WriteFile(outPath, []byte(formulated.Program.ToLP()), 0666)
}

