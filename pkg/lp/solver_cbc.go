package lp

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

type cbcSolver struct {
	path    string
	options options
}

// NewCbcSolver returns a solver backed by the COIN-OR CBC executable found at path (or on PATH when path is empty)
func NewCbcSolver(path string, opts ...Option) Solver {
	if path == "" {
		path = "cbc"
	}
	return &cbcSolver{path: path, options: newOptions(opts)}
}

func (solver *cbcSolver) Name() string {
	return "cbc"
}

func (solver *cbcSolver) Solve(program Program) (Solution, error) {
	if err := program.Validate(); err != nil {
		return failed(err)
	}

	directory, err := os.MkdirTemp("", "coursesched-cbc-")
	if err != nil {
		return failed(fmt.Errorf("cannot create working directory: %w", err))
	}
	defer os.RemoveAll(directory)

	modelFile := filepath.Join(directory, "model.lp")
	solutionFile := filepath.Join(directory, "solution.txt")
	if err := os.WriteFile(modelFile, []byte(program.ToLP()), 0666); err != nil {
		return failed(fmt.Errorf("cannot write model file: %w", err))
	}

	arguments := []string{modelFile}
	if solver.options.timeLimit > 0 {
		arguments = append(arguments, "sec", strconv.FormatFloat(solver.options.timeLimit.Seconds(), 'f', -1, 64))
	}
	if solver.options.nodeLimit > 0 {
		arguments = append(arguments, "maxNodes", strconv.Itoa(solver.options.nodeLimit))
	}
	arguments = append(arguments, "solve", "solu", solutionFile)

	cmd := exec.Command(solver.path, arguments...)
	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return failed(fmt.Errorf("an error occurred during cbc execution: %v : %v", err.Error(), stderr.String()))
	}

	output, err := os.ReadFile(solutionFile)
	if err != nil {
		return failed(fmt.Errorf("cbc did not produce a solution file: %w : %v", err, stdOut.String()))
	}

	status, values, err := parseCbcSolution(string(output), program)
	if err != nil {
		return failed(err)
	}
	switch status {
	case Infeasible:
		return infeasible()
	case Error:
		return failed(ErrLimitReached)
	}
	return Solution{
		Status:    Optimal,
		Values:    values,
		Objective: program.Evaluate(values),
	}, nil
}
