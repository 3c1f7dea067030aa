package lp

import (
	"fmt"
	"math"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// Largest literal multiset a single constraint may expand to
const maxExpandedLiterals = 1 << 16

// Largest objective weight sum, after dividing by the common divisor, that is compiled into a sorting network
const maxObjectiveLiterals = 1 << 14

// Sets of at most this many literals use pairwise at-most-one clauses instead of a sorting network
const pairwiseThreshold = 16

type giniSolver struct {
	options options
}

// NewGiniSolver returns a solver for pure binary programs with integral coefficients. Constraints are compiled into
// clauses and sorting-network cardinality constraints and the objective is optimized by binary search over a
// cardinality bound on the objective network.
func NewGiniSolver(opts ...Option) Solver {
	return &giniSolver{options: newOptions(opts)}
}

func (solver *giniSolver) Name() string {
	return "gini"
}

func (solver *giniSolver) Solve(program Program) (Solution, error) {
	// The limit covers encoding as well as search
	var deadline time.Time
	if solver.options.timeLimit > 0 {
		deadline = time.Now().Add(solver.options.timeLimit)
	}

	if err := program.Validate(); err != nil {
		return failed(err)
	}
	if !program.Binary() {
		return failed(fmt.Errorf("%w: gini handles binary variables only", ErrUnsupported))
	}

	circuit := logic.NewC()
	literals := make([]z.Lit, len(program.Variables))
	for i := range literals {
		literals[i] = circuit.Lit()
	}

	//** Encode constraints
	clauses := make([][]z.Lit, 0, len(program.Constraints))
	for _, constraint := range program.Constraints {
		encoded, satisfiable, err := encodeConstraint(circuit, constraint, literals)
		if err != nil {
			return failed(err)
		} else if !satisfiable {
			return infeasible()
		}
		clauses = append(clauses, encoded...)
	}

	//** Encode objective
	objective, err := objectiveLiterals(program, literals)
	if err != nil {
		return failed(err)
	}
	var objectiveSort *logic.CardSort
	if len(objective) > 0 {
		objectiveSort = circuit.CardSort(objective)
	}

	g := gini.New()
	circuit.ToCnf(g)
	for _, clause := range clauses {
		for _, literal := range clause {
			g.Add(literal)
		}
		g.Add(0)
	}

	//** Optimize
	result := solver.solve(g, deadline)
	if result == -1 {
		return infeasible()
	} else if result == 0 {
		return failed(ErrLimitReached)
	}

	// reached is always attained by values and nothing above upper is satisfiable
	values := modelValues(g, literals)
	reached, upper := countTrue(g, objective), len(objective)
	for objectiveSort != nil && reached < upper {
		target := reached + (upper-reached+1)/2
		g.Assume(objectiveSort.Geq(target))
		result = solver.solve(g, deadline)
		if result == -1 {
			upper = target - 1
			continue
		} else if result == 0 {
			return failed(ErrLimitReached)
		}
		values = modelValues(g, literals)
		reached = countTrue(g, objective)
	}

	return Solution{
		Status:    Optimal,
		Values:    values,
		Objective: program.Evaluate(values),
	}, nil
}

func (solver *giniSolver) solve(g *gini.Gini, deadline time.Time) int {
	if deadline.IsZero() {
		return g.Solve()
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return 0
	}
	return g.Try(remaining)
}

// encodeConstraint turns a linear constraint over binaries into clauses. The returned flag is false when the
// constraint can never be satisfied.
func encodeConstraint(circuit *logic.C, constraint Constraint, literals []z.Lit) ([][]z.Lit, bool, error) {
	multiset, shift, err := expandTerms(constraint.Terms, literals)
	if err != nil {
		return nil, false, fmt.Errorf("constraint %q: %w", constraint.Name, err)
	}

	// Σ coefficient·x = Σ multiset + shift, so the bound moves by the shift
	rhs := constraint.RHS - float64(shift)
	switch constraint.Sense {
	case LessEqual:
		clauses, satisfiable := atMost(circuit, multiset, int(math.Floor(rhs+feasibilityTolerance)))
		return clauses, satisfiable, nil
	case GreaterEqual:
		clauses, satisfiable := atLeast(circuit, multiset, int(math.Ceil(rhs-feasibilityTolerance)))
		return clauses, satisfiable, nil
	default:
		if !integral(rhs) {
			return nil, false, nil
		}
		bound := int(math.Round(rhs))
		upper, satisfiable := atMost(circuit, multiset, bound)
		if !satisfiable {
			return nil, false, nil
		}
		lower, satisfiable := atLeast(circuit, multiset, bound)
		if !satisfiable {
			return nil, false, nil
		}
		return append(upper, lower...), true, nil
	}
}

// expandTerms replicates every literal by the magnitude of its coefficient. Negative coefficients use the negated
// literal, since -k·x = k·¬x - k.
func expandTerms(terms []Term, literals []z.Lit) ([]z.Lit, int, error) {
	multiset := make([]z.Lit, 0, len(terms))
	shift := 0
	for _, term := range terms {
		if !integral(term.Coefficient) {
			return nil, 0, fmt.Errorf("%w: non-integral coefficient %v", ErrUnsupported, term.Coefficient)
		}
		weight := int(math.Round(term.Coefficient))
		literal := literals[term.Variable]
		if weight < 0 {
			literal = literal.Not()
			shift += weight
			weight = -weight
		}
		if len(multiset)+weight > maxExpandedLiterals {
			return nil, 0, fmt.Errorf("%w: coefficients too large", ErrUnsupported)
		}
		for range weight {
			multiset = append(multiset, literal)
		}
	}
	return multiset, shift, nil
}

func atMost(circuit *logic.C, multiset []z.Lit, bound int) ([][]z.Lit, bool) {
	switch {
	case bound < 0:
		return nil, false
	case bound >= len(multiset):
		return nil, true
	case bound == 0:
		clauses := make([][]z.Lit, 0, len(multiset))
		for _, literal := range multiset {
			clauses = append(clauses, []z.Lit{literal.Not()})
		}
		return clauses, true
	case bound == 1 && len(multiset) <= pairwiseThreshold:
		clauses := make([][]z.Lit, 0, len(multiset)*(len(multiset)-1)/2)
		for i := range len(multiset) - 1 {
			for j := i + 1; j < len(multiset); j++ {
				clauses = append(clauses, []z.Lit{multiset[i].Not(), multiset[j].Not()})
			}
		}
		return clauses, true
	}
	return [][]z.Lit{{circuit.CardSort(multiset).Leq(bound)}}, true
}

func atLeast(circuit *logic.C, multiset []z.Lit, bound int) ([][]z.Lit, bool) {
	switch {
	case bound <= 0:
		return nil, true
	case bound > len(multiset):
		return nil, false
	case bound == 1:
		clause := make([]z.Lit, len(multiset))
		copy(clause, multiset)
		return [][]z.Lit{clause}, true
	case bound == len(multiset):
		clauses := make([][]z.Lit, 0, len(multiset))
		for _, literal := range multiset {
			clauses = append(clauses, []z.Lit{literal})
		}
		return clauses, true
	}
	return [][]z.Lit{{circuit.CardSort(multiset).Geq(bound)}}, true
}

// objectiveLiterals expresses the objective, oriented for maximization, as a multiset of literals whose true count
// is an affine function of the objective value. Weights are divided by their greatest common divisor first.
func objectiveLiterals(program Program, literals []z.Lit) ([]z.Lit, error) {
	terms := make([]Term, 0, len(program.Objective))
	divisor := 0
	for i, coefficient := range program.Objective {
		if !program.Maximize {
			coefficient = -coefficient
		}
		if coefficient == 0 {
			continue
		}
		if !integral(coefficient) {
			return nil, fmt.Errorf("objective: %w: non-integral coefficient %v", ErrUnsupported, coefficient)
		}
		divisor = gcd(divisor, int(math.Abs(math.Round(coefficient))))
		terms = append(terms, Term{Variable: i, Coefficient: coefficient})
	}

	weight := 0
	for i := range terms {
		terms[i].Coefficient = math.Round(terms[i].Coefficient) / float64(divisor)
		weight += int(math.Abs(terms[i].Coefficient))
	}
	if weight > maxObjectiveLiterals {
		return nil, fmt.Errorf("objective: %w: weights sum to %d units, at most %d supported", ErrUnsupported, weight, maxObjectiveLiterals)
	}

	multiset, _, err := expandTerms(terms, literals)
	if err != nil {
		return nil, fmt.Errorf("objective: %w", err)
	}
	return multiset, nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func modelValues(g *gini.Gini, literals []z.Lit) []float64 {
	values := make([]float64, len(literals))
	for i, literal := range literals {
		if literalValue(g, literal) {
			values[i] = 1
		}
	}
	return values
}

func countTrue(g *gini.Gini, multiset []z.Lit) int {
	count := 0
	for _, literal := range multiset {
		if literalValue(g, literal) {
			count++
		}
	}
	return count
}

// Variables that never reached the solver are unconstrained and read as false
func literalValue(g *gini.Gini, literal z.Lit) bool {
	if literal.Var() > g.MaxVar() {
		return !literal.IsPos()
	}
	return g.Value(literal)
}

func integral(value float64) bool {
	return math.Abs(value-math.Round(value)) <= feasibilityTolerance
}
