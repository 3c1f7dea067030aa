package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/limaJavier/coursesched/internal/config"
	"github.com/limaJavier/coursesched/internal/logger"
	"github.com/limaJavier/coursesched/pkg/model"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

const (
	MB float32 = 1024 * 1024
)

type ResultType int

const (
	solved ResultType = iota
	infeasible
	unverified
)

var resultTypes = map[ResultType]string{
	solved:     "solved",
	infeasible: "infeasible",
	unverified: "unverified",
}

var (
	executablePath  string
	problemsPath    string
	resultsPath     string
	problemsByShape int
	seed            uint64
	backends        []string
	strategies      []string

	log zerolog.Logger
)

var shapes = []ProblemShape{
	{Courses: 5, Slots: 5, ConflictDensity: 0.1, PreferenceRate: 1},
	{Courses: 10, Slots: 12, ConflictDensity: 0.15, PreferenceRate: 0.8, RestrictionRate: 0.2, RestrictionLength: 4},
	{Courses: 20, Slots: 25, ConflictDensity: 0.1, PreferenceRate: 0.7, RestrictionRate: 0.2, RestrictionLength: 6},
	{Courses: 12, Days: 5, Periods: 4, ConflictDensity: 0.2, PreferenceRate: 0.9},
	{Courses: 30, Days: 5, Periods: 6, ConflictDensity: 0.1, PreferenceRate: 0.8, RestrictionRate: 0.1, RestrictionLength: 10},
}

type TestMetadata struct {
	Name        string
	Courses     int
	Slots       int
	Conflicts   int
	Preferences int
	Restricted  int
}

type BenchmarkResult struct {
	Backend       string
	Strategy      string
	Test          TestMetadata
	Duration      int64
	Memory        float32
	CpuPercentage int64
	Result        ResultType
}

var rootCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Measure every backend and strategy of the scheduling CLI on generated problems",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&executablePath, "executable", "../../bin/coursesched", "scheduling CLI to measure")
	rootCmd.Flags().StringVar(&problemsPath, "problems", "../../test/out/generated/", "directory for the generated problems")
	rootCmd.Flags().StringVar(&resultsPath, "results", "benchmark_results.csv", "CSV report")
	rootCmd.Flags().IntVar(&problemsByShape, "count", 3, "problems generated for every shape")
	rootCmd.Flags().Uint64Var(&seed, "seed", 1, "generator seed")
	rootCmd.Flags().StringSliceVar(&backends, "backends", []string{config.BackendGini, config.BackendSimplex}, "backends to measure")
	rootCmd.Flags().StringSliceVar(&strategies, "strategies", []string{config.StrategyAuto, config.StrategyContinuous}, "strategies to measure")
}

func main() {
	log = logger.New("benchmark", config.LoggingConfig{Level: "info", Format: "console"})
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	tests, err := getTests()
	if err != nil {
		return err
	}
	results := make([]BenchmarkResult, 0, len(tests)*len(backends)*len(strategies))

	for _, test := range tests {
		for _, strategy := range strategies {
			for _, backend := range backends {
				// Gini only handles binary programs
				if backend == config.BackendGini && strategy == config.StrategyContinuous {
					continue
				}
				log.Info().Str("test", test.Name).Str("strategy", strategy).Str("backend", backend).Msg("benchmarking")

				duration, maxMemory, cpuPercentage, result, err := measure(backend, strategy, test.Name)
				if err != nil {
					return err
				}

				results = append(results, BenchmarkResult{
					Backend:       backend,
					Strategy:      strategy,
					Test:          test,
					Duration:      duration,
					Memory:        maxMemory,
					CpuPercentage: cpuPercentage,
					Result:        result,
				})
			}
		}
	}

	return toCsv(results)
}

func getTests() ([]TestMetadata, error) {
	paths, err := writeProblems(problemsPath, shapes, problemsByShape, seed)
	if err != nil {
		return nil, fmt.Errorf("cannot generate problems: %w", err)
	}

	tests := make([]TestMetadata, 0, len(paths))
	for _, path := range paths {
		input, err := model.InputFromJson(path)
		if err != nil {
			return nil, fmt.Errorf("cannot parse input file: %w", err)
		}

		tests = append(tests, TestMetadata{
			Name:        path,
			Courses:     len(input.Courses),
			Slots:       len(input.Slots),
			Conflicts:   len(input.Conflicts),
			Preferences: len(input.Preferences),
			Restricted:  len(input.AllowedSlots),
		})
	}
	return tests, nil
}

func measure(backend, strategy, testFile string) (duration int64, maxMemory float32, cpuPercentage int64, result ResultType, err error) {
	cmd := exec.Command("/usr/bin/time", "-v", executablePath, "solve", "--backend", backend, "--strategy", strategy, "--input", testFile)

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stdErr bytes.Buffer
	cmd.Stderr = &stdErr

	_ = cmd.Run()
	switch cmd.ProcessState.ExitCode() {
	case 10:
		result = solved
	case 20:
		result = infeasible
	case 15:
		result = unverified
	default:
		return 0, 0, 0, 0, fmt.Errorf("an error occurred during the execution of %v at test \"%v\" using strategy \"%v\" and backend \"%v\": %v", executablePath, testFile, strategy, backend, stdErr.String())
	}

	splits := strings.Split(stdErr.String(), "\n")
	getLine := func(substr string) (string, error) {
		line, ok := lo.Find(splits, func(line string) bool {
			return strings.Contains(strings.ToLower(line), substr)
		})
		if !ok {
			return "", fmt.Errorf("substring \"%v\" could not be found", substr)
		}
		return line, nil
	}

	lines := make([]string, 3)
	for i, substr := range []string{"wall clock", "maximum resident set size", "percent of cpu"} {
		if lines[i], err = getLine(substr); err != nil {
			return 0, 0, 0, 0, err
		}
	}
	if duration, err = parseDurationLine(lines[0]); err != nil {
		return 0, 0, 0, 0, err
	}
	if maxMemory, err = parseMemoryLine(lines[1]); err != nil {
		return 0, 0, 0, 0, err
	}
	if cpuPercentage, err = parseCpuPercentageLine(lines[2]); err != nil {
		return 0, 0, 0, 0, err
	}
	return duration, maxMemory, cpuPercentage, result, nil
}

func toCsv(results []BenchmarkResult) error {
	file, err := os.Create(resultsPath)
	if err != nil {
		return fmt.Errorf("cannot create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Backend", "Strategy", "Test", "Courses", "Slots", "Conflicts", "Preferences", "Restricted", "Duration(ms)", "Memory(MB)", "CPU(%)", "Result"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("cannot write CSV header: %w", err)
	}

	for _, result := range results {
		record := []string{
			result.Backend,
			result.Strategy,
			result.Test.Name,
			fmt.Sprintf("%d", result.Test.Courses),
			fmt.Sprintf("%d", result.Test.Slots),
			fmt.Sprintf("%d", result.Test.Conflicts),
			fmt.Sprintf("%d", result.Test.Preferences),
			fmt.Sprintf("%d", result.Test.Restricted),
			fmt.Sprintf("%d", result.Duration),
			fmt.Sprintf("%.1f", result.Memory),
			fmt.Sprintf("%d", result.CpuPercentage),
			resultTypes[result.Result],
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("cannot write CSV record: %w", err)
		}
	}
	return nil
}

func parseDurationLine(line string) (int64, error) {
	_, durationStr, ok := strings.Cut(line, "(h:mm:ss or m:ss): ")
	if !ok {
		return 0, fmt.Errorf("unexpected wall clock line: %v", line)
	}
	return parseDuration(strings.TrimSpace(durationStr))
}

// parseDuration converts GNU time's h:mm:ss.cc or m:ss.cc into milliseconds
func parseDuration(durationStr string) (int64, error) {
	parts := strings.Split(durationStr, ":")
	secondsParts := strings.Split(parts[len(parts)-1], ".")
	if len(parts) < 2 || len(parts) > 3 || len(secondsParts) != 2 {
		return 0, fmt.Errorf("unexpected duration format: %v", durationStr)
	}

	// Hours, minutes, seconds and hundredths of seconds, padded with a zero hour for m:ss
	fields := append(lo.Ternary(len(parts) == 2, []string{"0"}, []string{}), parts[:len(parts)-1]...)
	fields = append(fields, secondsParts...)
	values := make([]int64, len(fields))
	for i, field := range fields {
		value, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("unexpected duration format: %v", durationStr)
		}
		values[i] = value
	}
	return (values[0]*3600+values[1]*60+values[2])*1000 + values[3]*10, nil
}

func parseMemoryLine(line string) (float32, error) {
	_, memoryStr, _ := strings.Cut(line, ": ")
	kilobytes, err := strconv.ParseFloat(strings.TrimSpace(memoryStr), 32)
	if err != nil {
		return 0, fmt.Errorf("unexpected memory line: %v", line)
	}
	return float32(kilobytes) * 1024 / MB, nil
}

func parseCpuPercentageLine(line string) (int64, error) {
	_, percentageStr, _ := strings.Cut(line, ": ")
	percentage, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimSpace(percentageStr), "%"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected cpu line: %v", line)
	}
	return percentage, nil
}
