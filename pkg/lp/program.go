package lp

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
)

type VariableKind int

const (
	Continuous VariableKind = iota
	Binary
)

func (kind VariableKind) String() string {
	switch kind {
	case Binary:
		return "binary"
	case Continuous:
		return "continuous"
	}
	return fmt.Sprintf("kind(%d)", int(kind))
}

type Sense int

const (
	LessEqual Sense = iota
	Equal
	GreaterEqual
)

func (sense Sense) String() string {
	switch sense {
	case LessEqual:
		return "<="
	case Equal:
		return "="
	case GreaterEqual:
		return ">="
	}
	return "?"
}

// Variable is bounded below by zero. Upper is ignored for binaries and may be +Inf otherwise.
type Variable struct {
	Name  string
	Kind  VariableKind
	Upper float64
}

type Term struct {
	Variable    int
	Coefficient float64
}

type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Program is a linear program over non-negative variables, optionally with binary variables.
type Program struct {
	Name        string
	Variables   []Variable
	Constraints []Constraint
	Objective   []float64 // One coefficient per variable
	Maximize    bool
	Start       []float64 // Optional warm-start values, one per variable
}

var ErrMalformedProgram = errors.New("malformed program")

// Validate checks that every term references a declared variable and that the objective has the right length
func (program Program) Validate() error {
	if len(program.Objective) != len(program.Variables) {
		return fmt.Errorf("%w: objective has %d coefficients for %d variables", ErrMalformedProgram, len(program.Objective), len(program.Variables))
	}
	if program.Start != nil && len(program.Start) != len(program.Variables) {
		return fmt.Errorf("%w: start has %d values for %d variables", ErrMalformedProgram, len(program.Start), len(program.Variables))
	}
	for i, variable := range program.Variables {
		if variable.Kind == Continuous && (variable.Upper < 0 || math.IsNaN(variable.Upper)) {
			return fmt.Errorf("%w: variable %q has invalid upper bound %v", ErrMalformedProgram, variable.Name, variable.Upper)
		}
		if math.IsNaN(program.Objective[i]) || math.IsInf(program.Objective[i], 0) {
			return fmt.Errorf("%w: variable %q has invalid objective coefficient", ErrMalformedProgram, variable.Name)
		}
	}
	for _, constraint := range program.Constraints {
		for _, term := range constraint.Terms {
			if term.Variable < 0 || term.Variable >= len(program.Variables) {
				return fmt.Errorf("%w: constraint %q references variable %d", ErrMalformedProgram, constraint.Name, term.Variable)
			}
		}
		if math.IsNaN(constraint.RHS) || math.IsInf(constraint.RHS, 0) {
			return fmt.Errorf("%w: constraint %q has invalid right-hand side", ErrMalformedProgram, constraint.Name)
		}
	}
	return nil
}

// UpperBound returns the effective upper bound of a variable
func (program Program) UpperBound(variable int) float64 {
	if program.Variables[variable].Kind == Binary {
		return 1
	}
	return program.Variables[variable].Upper
}

func (program Program) Evaluate(values []float64) float64 {
	total := 0.0
	for i, coefficient := range program.Objective {
		total += coefficient * values[i]
	}
	return total
}

// Feasible reports whether values satisfy bounds, integrality and every constraint within tolerance
func (program Program) Feasible(values []float64, tolerance float64) bool {
	if len(values) != len(program.Variables) {
		return false
	}
	for i, value := range values {
		if value < -tolerance || value > program.UpperBound(i)+tolerance {
			return false
		}
		if program.Variables[i].Kind == Binary && math.Abs(value-math.Round(value)) > tolerance {
			return false
		}
	}
	for _, constraint := range program.Constraints {
		lhs := 0.0
		for _, term := range constraint.Terms {
			lhs += term.Coefficient * values[term.Variable]
		}
		switch constraint.Sense {
		case LessEqual:
			if lhs > constraint.RHS+tolerance {
				return false
			}
		case GreaterEqual:
			if lhs < constraint.RHS-tolerance {
				return false
			}
		case Equal:
			if math.Abs(lhs-constraint.RHS) > tolerance {
				return false
			}
		}
	}
	return true
}

// Binary reports whether every variable of the program is binary
func (program Program) Binary() bool {
	for _, variable := range program.Variables {
		if variable.Kind != Binary {
			return false
		}
	}
	return true
}

// ToLP renders the program in CPLEX LP format
func (program Program) ToLP() string {
	var builder strings.Builder

	name := func(variable int) string {
		if program.Variables[variable].Name != "" {
			return program.Variables[variable].Name
		}
		return fmt.Sprintf("v%d", variable)
	}

	if program.Name != "" {
		fmt.Fprintf(&builder, "\\ %v\n", program.Name)
	}
	if program.Maximize {
		builder.WriteString("Maximize\n")
	} else {
		builder.WriteString("Minimize\n")
	}

	objective := make([]Term, 0, len(program.Objective))
	for i, coefficient := range program.Objective {
		if coefficient != 0 {
			objective = append(objective, Term{Variable: i, Coefficient: coefficient})
		}
	}
	builder.WriteString(" obj:")
	writeTerms(&builder, objective, name)
	builder.WriteString("\n")

	builder.WriteString("Subject To\n")
	for i, constraint := range program.Constraints {
		constraintName := constraint.Name
		if constraintName == "" {
			constraintName = fmt.Sprintf("c%d", i)
		}
		fmt.Fprintf(&builder, " %v:", constraintName)
		writeTerms(&builder, constraint.Terms, name)
		fmt.Fprintf(&builder, " %v %v\n", constraint.Sense, formatNumber(constraint.RHS))
	}

	builder.WriteString("Bounds\n")
	for i, variable := range program.Variables {
		if variable.Kind == Binary {
			continue
		}
		if math.IsInf(variable.Upper, 1) {
			fmt.Fprintf(&builder, " %v >= 0\n", name(i))
		} else {
			fmt.Fprintf(&builder, " 0 <= %v <= %v\n", name(i), formatNumber(variable.Upper))
		}
	}

	if lo.SomeBy(program.Variables, func(variable Variable) bool { return variable.Kind == Binary }) {
		builder.WriteString("Binaries\n")
		for i, variable := range program.Variables {
			if variable.Kind == Binary {
				fmt.Fprintf(&builder, " %v\n", name(i))
			}
		}
	}
	builder.WriteString("End\n")

	return builder.String()
}

func writeTerms(builder *strings.Builder, terms []Term, name func(int) string) {
	if len(terms) == 0 {
		builder.WriteString(" 0")
		return
	}
	for i, term := range terms {
		coefficient := term.Coefficient
		sign := "+"
		if coefficient < 0 {
			sign = "-"
			coefficient = -coefficient
		}
		if i == 0 && sign == "+" {
			fmt.Fprintf(builder, " %v %v", formatNumber(coefficient), name(term.Variable))
		} else {
			fmt.Fprintf(builder, " %v %v %v", sign, formatNumber(coefficient), name(term.Variable))
		}
	}
}

func formatNumber(value float64) string {
	return fmt.Sprintf("%g", value)
}
