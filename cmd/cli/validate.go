package main

import (
	"fmt"
	"io"

	"github.com/limaJavier/coursesched/pkg/model"
	"github.com/spf13/cobra"
)

func newValidateCmd(app *cli) *cobra.Command {
	var inputPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a problem file and report courses that cannot be placed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.validate(cmd.OutOrStdout(), inputPath)
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to the problem file")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (app *cli) validate(stdout io.Writer, inputPath string) error {
	problem, err := model.InputFromJson(inputPath)
	if err != nil {
		return fmt.Errorf("cannot parse input file: %w", err)
	}
	app.config.Scores.Apply(&problem)

	scheduler := model.NewScheduler(nil,
		model.WithStrategy(app.config.Strategy.Resolve(problem)),
		model.WithLogger(app.logger),
	)
	formulated, err := scheduler.Formulate(problem)
	if err != nil {
		return err
	}
	unmatched, err := model.Diagnose(formulated)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Courses: %v\n", formulated.Courses())
	fmt.Fprintf(stdout, "Slots: %v\n", formulated.Slots())
	fmt.Fprintf(stdout, "Strategy: %v\n", formulated.Strategy.Name())
	fmt.Fprintf(stdout, "Variables: %v\n", len(formulated.Program.Variables))
	fmt.Fprintf(stdout, "Constraints: %v\n", len(formulated.Program.Constraints))
	fmt.Fprintf(stdout, "Score matrix total: %v\n", formulated.Scores.Total())
	fmt.Fprintf(stdout, "Ignored preferences: %v\n", len(formulated.Scores.Ignored()))
	fmt.Fprintf(stdout, "Ignored conflicts: %v\n", len(formulated.Policy.Ignored()))

	if len(unmatched) > 0 {
		fmt.Fprintln(stdout, &model.InfeasibleError{Unmatched: unmatched})
		app.exitCode = exitInfeasible
	}
	return nil
}
