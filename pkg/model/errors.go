package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidIndex = errors.New("invalid index")
	ErrInfeasible   = errors.New("model is infeasible")
	ErrSolver       = errors.New("solver failure")
)

// IndexError reports a course or slot reference outside the declared range
type IndexError struct {
	Context string
	Index   uint64
	Limit   uint64
}

func (err *IndexError) Error() string {
	return fmt.Sprintf("%v: index %d is out of range [0, %d)", err.Context, err.Index, err.Limit)
}

func (err *IndexError) Unwrap() error {
	return ErrInvalidIndex
}

// InfeasibleError carries the courses that could not be given a slot of their own, when that is known
type InfeasibleError struct {
	Unmatched []uint64
}

func (err *InfeasibleError) Error() string {
	if len(err.Unmatched) == 0 {
		return ErrInfeasible.Error()
	}
	return fmt.Sprintf("%v: courses %v cannot be placed in distinct allowed slots", ErrInfeasible, err.Unmatched)
}

func (err *InfeasibleError) Unwrap() error {
	return ErrInfeasible
}
