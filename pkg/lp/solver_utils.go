package lp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// parseCbcSolution reads a CBC solution file. The header line carries the status and every following line lists
// "index name value reducedCost" for a variable with a non-zero value.
func parseCbcSolution(output string, program Program) (Status, []float64, error) {
	lines := lo.Filter(strings.Split(output, "\n"), func(line string, _ int) bool {
		return len(strings.TrimSpace(line)) > 0
	})
	if len(lines) == 0 {
		return Error, nil, fmt.Errorf("empty cbc solution")
	}

	header := strings.ToLower(strings.TrimSpace(lines[0]))
	switch {
	case strings.HasPrefix(header, "optimal"):
	case strings.Contains(header, "infeasible"):
		return Infeasible, nil, nil
	case strings.HasPrefix(header, "stopped"):
		return Error, nil, nil
	case strings.HasPrefix(header, "unbounded"):
		return Error, nil, ErrUnbounded
	default:
		return Error, nil, fmt.Errorf("unrecognized cbc status %q", lines[0])
	}

	positions := make(map[string]int, len(program.Variables))
	for i, variable := range program.Variables {
		positions[lo.Ternary(variable.Name != "", variable.Name, fmt.Sprintf("v%d", i))] = i
	}

	values := make([]float64, len(program.Variables))
	for _, line := range lines[1:] {
		// Infeasible rows are flagged with leading asterisks
		fields := strings.Fields(strings.TrimLeft(strings.TrimSpace(line), "*"))
		if len(fields) < 3 {
			return Error, nil, fmt.Errorf("malformed cbc solution line %q", line)
		}
		position, ok := positions[fields[1]]
		if !ok {
			return Error, nil, fmt.Errorf("cbc reported unknown variable %q", fields[1])
		}
		value, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Error, nil, fmt.Errorf("invalid value in cbc solution: %w", err)
		}
		values[position] = value
	}
	return Optimal, values, nil
}
