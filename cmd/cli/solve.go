package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/limaJavier/coursesched/internal/metrics"
	"github.com/limaJavier/coursesched/pkg/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type scheduledCourse struct {
	Course     uint64    `json:"course"`
	CourseName string    `json:"courseName"`
	Slot       uint64    `json:"slot"`
	SlotName   string    `json:"slotName"`
	Day        *uint64   `json:"day,omitempty"`
	Period     *uint64   `json:"period,omitempty"`
	Score      float64   `json:"score"`
	Preferred  bool      `json:"preferred"`
	Magnitudes []float64 `json:"magnitudes,omitempty"`
}

type scheduleOutput struct {
	RunID    string            `json:"runId"`
	Strategy string            `json:"strategy"`
	Score    float64           `json:"score"`
	Courses  []scheduledCourse `json:"courses"`
}

func newSolveCmd(app *cli) *cobra.Command {
	var (
		inputPath string
		outPath   string
		backend   string
		strategy  string
		matrix    bool
	)
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Build the optimal schedule of a problem file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.overrideSolver(backend, strategy); err != nil {
				return err
			}
			return app.solve(cmd.OutOrStdout(), inputPath, outPath, matrix)
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to the problem file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "file where the schedule is written; standard output when empty")
	cmd.Flags().StringVar(&backend, "backend", "", "solver backend overriding the configuration: gini, simplex or cbc")
	cmd.Flags().StringVar(&strategy, "strategy", "", "formulation overriding the configuration: auto, binary or continuous")
	cmd.Flags().BoolVar(&matrix, "matrix", false, "print the initial and the optimized course×slot matrices")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (app *cli) solve(stdout io.Writer, inputPath, outPath string, printMatrix bool) error {
	problem, err := model.InputFromJson(inputPath)
	if err != nil {
		return fmt.Errorf("cannot parse input file: %w", err)
	}
	app.config.Scores.Apply(&problem)

	solver, err := app.config.Solver.NewSolver()
	if err != nil {
		return err
	}
	options := []model.Option{
		model.WithStrategy(app.config.Strategy.Resolve(problem)),
		model.WithLogger(app.logger),
	}

	if textfile := app.config.Metrics.Textfile; textfile != "" {
		registry := prometheus.NewRegistry()
		sink, err := metrics.NewPromSinkWithRegistry(registry)
		if err != nil {
			return err
		}
		options = append(options, model.WithMetrics(sink))
		defer func() {
			if err := prometheus.WriteToTextfile(textfile, registry); err != nil {
				app.logger.Error().Err(err).Str("path", textfile).Msg("cannot write metrics")
			}
		}()
	}
	scheduler := model.NewScheduler(solver, options...)

	if printMatrix {
		formulated, err := scheduler.Formulate(problem)
		if err != nil {
			return err
		}
		writeMatrix(stdout, "Initial matrix", problem, formulated.StartMatrix())
	}

	//** Build schedule
	solution, err := scheduler.Build(problem)
	if errors.Is(err, model.ErrInfeasible) {
		fmt.Fprintln(stdout, err)
		app.exitCode = exitInfeasible
		return nil
	} else if err != nil {
		return fmt.Errorf("an error occurred during schedule construction: %w", err)
	}

	//** Verify schedule correctness
	if !scheduler.Verify(solution, problem) {
		app.logger.Error().Str("run", solution.RunID).Msg("schedule failed verification")
		app.exitCode = exitVerifyFailed
		return nil
	}

	if printMatrix {
		writeMatrix(stdout, "Optimized matrix", problem, solution.Matrix(problem))
	}

	output, err := json.MarshalIndent(newScheduleOutput(solution, problem), "", "  ")
	if err != nil {
		return fmt.Errorf("an error occurred while building output json: %w", err)
	}

	// Write into the standard output when no out file is given
	if outPath == "" {
		fmt.Fprintln(stdout, string(output))
	} else if err := os.WriteFile(outPath, output, 0666); err != nil {
		return fmt.Errorf("an error occurred while writing to the output file: %w", err)
	}

	app.exitCode = exitOptimal
	return nil
}

func newScheduleOutput(solution model.Solution, problem model.Problem) scheduleOutput {
	return scheduleOutput{
		RunID:    solution.RunID,
		Strategy: solution.Strategy,
		Score:    solution.Score,
		Courses: lo.Map(solution.Assignments, func(assignment model.Assignment, _ int) scheduledCourse {
			slot := problem.Slots[assignment.Slot]
			course := scheduledCourse{
				Course:     assignment.Course,
				CourseName: problem.Courses[assignment.Course].Name,
				Slot:       assignment.Slot,
				SlotName:   slot.Name,
				Score:      assignment.Score,
				Preferred:  assignment.Preferred,
				Magnitudes: assignment.Magnitudes,
			}
			if problem.DayDecomposed() {
				day, period := model.NewSlotIndexer(problem.Days, problem.Periods).DayPeriod(slot.Id)
				course.Day, course.Period = lo.ToPtr(day), lo.ToPtr(period)
			}
			return course
		}),
	}
}

func writeMatrix(w io.Writer, title string, problem model.Problem, matrix [][]float64) {
	fmt.Fprintf(w, "%v:\n", title)
	table := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(table, "\t")
	for _, slot := range problem.Slots {
		fmt.Fprintf(table, "%v\t", slot.Id)
	}
	fmt.Fprintln(table)
	for course, row := range matrix {
		fmt.Fprintf(table, "%v\t", problem.Courses[course].Name)
		for _, value := range row {
			fmt.Fprintf(table, "%g\t", value)
		}
		fmt.Fprintln(table)
	}
	table.Flush()
}
