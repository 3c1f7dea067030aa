package lp

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	convexlp "gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	simplexTolerance = 1e-9
	pruneTolerance   = 1e-6
)

// relaxationSolve minimizes cᵀx subject to Ax = b, x >= 0. Tests replace it to observe or break the relaxation.
var relaxationSolve = func(c []float64, A mat.Matrix, b []float64) (float64, []float64, error) {
	return convexlp.Simplex(c, A, b, simplexTolerance, nil)
}

type simplexSolver struct {
	options options
}

// NewSimplexSolver returns a solver for mixed binary programs. Relaxations are solved with the simplex method and
// integrality of binary variables is enforced by depth-first branch and bound.
func NewSimplexSolver(opts ...Option) Solver {
	return &simplexSolver{options: newOptions(opts)}
}

func (solver *simplexSolver) Name() string {
	return "simplex"
}

type relaxationStatus int

const (
	relaxationOptimal relaxationStatus = iota
	relaxationInfeasible
	relaxationUnbounded
)

func (solver *simplexSolver) Solve(program Program) (Solution, error) {
	if err := program.Validate(); err != nil {
		return failed(err)
	}

	var deadline time.Time
	if solver.options.timeLimit > 0 {
		deadline = time.Now().Add(solver.options.timeLimit)
	}

	// Nodes are explored depth first, trying x = 1 before x = 0 on the branching variable
	root := make([]float64, len(program.Variables))
	for i := range root {
		root[i] = math.NaN()
	}
	stack := [][]float64{root}

	var incumbent []float64
	best := math.Inf(-1)
	explored := 0

	for len(stack) > 0 {
		fixed := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		explored++
		if solver.options.nodeLimit > 0 && explored > solver.options.nodeLimit {
			return failed(ErrLimitReached)
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return failed(ErrLimitReached)
		}

		status, values, err := relax(program, fixed, deadline)
		if err != nil {
			return failed(err)
		}
		switch status {
		case relaxationInfeasible:
			continue
		case relaxationUnbounded:
			if explored == 1 {
				return failed(ErrUnbounded)
			}
			continue
		}

		bound := oriented(program, program.Evaluate(values))
		if incumbent != nil && bound <= best+pruneTolerance {
			continue
		}

		branch := mostFractional(program, values)
		if branch < 0 {
			incumbent, best = roundSolution(program, values), bound
			continue
		}

		down, up := cloneFixed(fixed), cloneFixed(fixed)
		down[branch], up[branch] = 0, 1
		stack = append(stack, down, up)
	}

	if incumbent == nil {
		return infeasible()
	}
	return Solution{
		Status:    Optimal,
		Values:    incumbent,
		Objective: program.Evaluate(incumbent),
	}, nil
}

// relax solves the linear relaxation of program with the given variables fixed (NaN entries are free). A zero
// deadline waits for the simplex however long it takes.
func relax(program Program, fixed []float64, deadline time.Time) (relaxationStatus, []float64, error) {
	values := make([]float64, len(program.Variables))
	copy(values, fixed)

	rows, status := presolve(program, values)
	if status != relaxationOptimal {
		return status, nil, nil
	}

	//** Collect free columns
	cost := make([]float64, 0, len(values))
	columns := make(map[int]int)
	referenced := make(map[int]bool)
	for _, row := range rows {
		for _, term := range row.Terms {
			referenced[term.Variable] = true
		}
	}
	for i, value := range values {
		if !math.IsNaN(value) {
			continue
		}
		coefficient := program.Objective[i]
		if program.Maximize {
			coefficient = -coefficient
		}
		if !referenced[i] && math.IsInf(program.UpperBound(i), 1) {
			// Unconstrained from above: either it drives the objective to infinity or it stays at zero
			if coefficient < 0 {
				return relaxationUnbounded, nil, nil
			}
			values[i] = 0
			continue
		}
		columns[i] = len(cost)
		cost = append(cost, coefficient)
	}
	if len(columns) == 0 {
		return relaxationOptimal, values, nil
	}

	//** Build standard form: slack or surplus per inequality row and one bounding row per upper bound no row implies
	structural := len(cost)
	implied := impliedBounds(program, rows)
	bounded := make([]int, 0, len(columns))
	for variable := range values {
		if _, ok := columns[variable]; ok && !implied[variable] && !math.IsInf(program.UpperBound(variable), 1) {
			bounded = append(bounded, variable)
		}
	}
	slacks := len(bounded)
	for _, row := range rows {
		if row.Sense != Equal {
			slacks++
		}
	}
	m, n := len(rows)+len(bounded), structural+slacks
	if m > n {
		return 0, nil, fmt.Errorf("%w: %d rows over %d columns after presolve", ErrUnsupported, m, n)
	}
	for range slacks {
		cost = append(cost, 0)
	}

	A := mat.NewDense(m, n, nil)
	b := make([]float64, m)
	slack := structural
	for r, row := range rows {
		for _, term := range row.Terms {
			A.Set(r, columns[term.Variable], A.At(r, columns[term.Variable])+term.Coefficient)
		}
		switch row.Sense {
		case LessEqual:
			A.Set(r, slack, 1)
			slack++
		case GreaterEqual:
			A.Set(r, slack, -1)
			slack++
		}
		b[r] = row.RHS
		if b[r] < 0 {
			for j := range n {
				A.Set(r, j, -A.At(r, j))
			}
			b[r] = -b[r]
		}
	}
	for k, variable := range bounded {
		r := len(rows) + k
		A.Set(r, columns[variable], 1)
		A.Set(r, slack, 1)
		slack++
		b[r] = program.UpperBound(variable)
	}

	x, err := solveRelaxation(cost, A, b, deadline)
	if errors.Is(err, convexlp.ErrInfeasible) {
		return relaxationInfeasible, nil, nil
	} else if errors.Is(err, convexlp.ErrUnbounded) {
		return relaxationUnbounded, nil, nil
	} else if err != nil {
		return 0, nil, fmt.Errorf("simplex relaxation: %w", err)
	}

	for variable, column := range columns {
		values[variable] = math.Min(math.Max(x[column], 0), program.UpperBound(variable))
	}
	return relaxationOptimal, values, nil
}

// solveRelaxation gives up on the simplex once the deadline passes. The abandoned call keeps running until gonum
// returns and its result is dropped.
func solveRelaxation(c []float64, A mat.Matrix, b []float64, deadline time.Time) ([]float64, error) {
	solve := relaxationSolve
	if deadline.IsZero() {
		_, x, err := solve(c, A, b)
		return x, err
	}

	type outcome struct {
		x   []float64
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		_, x, err := solve(c, A, b)
		done <- outcome{x: x, err: err}
	}()

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case result := <-done:
		return result.x, result.err
	case <-timer.C:
		return nil, ErrLimitReached
	}
}

// impliedBounds marks the variables whose upper bound already follows from a row over non-negative coefficients,
// such as x ≤ 1 from Σx = 1
func impliedBounds(program Program, rows []Constraint) map[int]bool {
	implied := make(map[int]bool)
	for _, row := range rows {
		if row.Sense == GreaterEqual {
			continue
		}
		positive := true
		for _, term := range row.Terms {
			positive = positive && term.Coefficient > 0
		}
		if !positive {
			continue
		}
		for _, term := range row.Terms {
			if row.RHS/term.Coefficient <= program.UpperBound(term.Variable)+feasibilityTolerance {
				implied[term.Variable] = true
			}
		}
	}
	return implied
}

// presolve substitutes fixed variables, fixes variables forced by singleton equalities or by rows whose right-hand
// side leaves no room, and drops rows with nothing left to decide. It returns the remaining rows over free variables.
func presolve(program Program, values []float64) ([]Constraint, relaxationStatus) {
	active := make([]bool, len(program.Constraints))
	for i := range active {
		active[i] = true
	}

	for {
		changed := false
		for i, constraint := range program.Constraints {
			if !active[i] {
				continue
			}
			row := reduce(constraint, values)

			if len(row.Terms) == 0 {
				if !satisfied(0, row.Sense, row.RHS) {
					return nil, relaxationInfeasible
				}
				active[i], changed = false, true
				continue
			}

			if len(row.Terms) == 1 && row.Sense == Equal {
				term := row.Terms[0]
				value := row.RHS / term.Coefficient
				if value < -feasibilityTolerance || value > program.UpperBound(term.Variable)+feasibilityTolerance {
					return nil, relaxationInfeasible
				}
				if program.Variables[term.Variable].Kind == Binary && !integral(value) {
					return nil, relaxationInfeasible
				}
				values[term.Variable] = math.Min(math.Max(value, 0), program.UpperBound(term.Variable))
				active[i], changed = false, true
				continue
			}

			if forcing(row) {
				if math.Abs(row.RHS) > feasibilityTolerance {
					return nil, relaxationInfeasible
				}
				for _, term := range row.Terms {
					values[term.Variable] = 0
				}
				active[i], changed = false, true
			}
		}
		if !changed {
			break
		}
	}

	rows := make([]Constraint, 0, len(program.Constraints))
	for i, constraint := range program.Constraints {
		if active[i] {
			rows = append(rows, reduce(constraint, values))
		}
	}
	return rows, relaxationOptimal
}

// reduce merges duplicate terms and moves fixed variables into the right-hand side
func reduce(constraint Constraint, values []float64) Constraint {
	coefficients := make(map[int]float64, len(constraint.Terms))
	order := make([]int, 0, len(constraint.Terms))
	rhs := constraint.RHS
	for _, term := range constraint.Terms {
		if value := values[term.Variable]; !math.IsNaN(value) {
			rhs -= term.Coefficient * value
			continue
		}
		if _, ok := coefficients[term.Variable]; !ok {
			order = append(order, term.Variable)
		}
		coefficients[term.Variable] += term.Coefficient
	}

	terms := make([]Term, 0, len(order))
	for _, variable := range order {
		if coefficients[variable] != 0 {
			terms = append(terms, Term{Variable: variable, Coefficient: coefficients[variable]})
		}
	}
	return Constraint{Name: constraint.Name, Terms: terms, Sense: constraint.Sense, RHS: rhs}
}

// forcing reports whether a row over non-negative variables can only hold with every variable at zero
func forcing(row Constraint) bool {
	positive, negative := true, true
	for _, term := range row.Terms {
		positive = positive && term.Coefficient > 0
		negative = negative && term.Coefficient < 0
	}
	switch row.Sense {
	case LessEqual:
		return positive && row.RHS <= feasibilityTolerance
	case GreaterEqual:
		return negative && row.RHS >= -feasibilityTolerance
	default:
		return (positive || negative) && math.Abs(row.RHS) <= feasibilityTolerance
	}
}

func satisfied(lhs float64, sense Sense, rhs float64) bool {
	switch sense {
	case LessEqual:
		return lhs <= rhs+feasibilityTolerance
	case GreaterEqual:
		return lhs >= rhs-feasibilityTolerance
	default:
		return math.Abs(lhs-rhs) <= feasibilityTolerance
	}
}

// mostFractional picks the binary variable farthest from integrality, the lowest index on ties, or -1
func mostFractional(program Program, values []float64) int {
	branch, distance := -1, integralityTolerance
	for i, value := range values {
		if program.Variables[i].Kind != Binary {
			continue
		}
		if d := math.Abs(value - math.Round(value)); d > distance {
			branch, distance = i, d
		}
	}
	return branch
}

func roundSolution(program Program, values []float64) []float64 {
	rounded := make([]float64, len(values))
	for i, value := range values {
		if program.Variables[i].Kind == Binary {
			rounded[i] = math.Round(value)
		} else {
			rounded[i] = value
		}
	}
	return rounded
}

func oriented(program Program, objective float64) float64 {
	if program.Maximize {
		return objective
	}
	return -objective
}

func cloneFixed(fixed []float64) []float64 {
	clone := make([]float64, len(fixed))
	copy(clone, fixed)
	return clone
}
