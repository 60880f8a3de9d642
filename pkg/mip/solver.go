package mip

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Status is the outcome reported by a solver
type Status int

const (
	NotSolved Status = iota
	Optimal
	Infeasible
	Unbounded
	Undefined
)

func (s Status) String() string {
	switch s {
	case NotSolved:
		return "Not Solved"
	case Optimal:
		return "Optimal"
	case Infeasible:
		return "Infeasible"
	case Unbounded:
		return "Unbounded"
	default:
		return "Undefined"
	}
}

// Solution holds the solver status and, when Optimal, a value for every variable
type Solution struct {
	Status    Status
	Objective float64
	Values    map[VarID]float64

	// Nodes is the number of search nodes explored, when the backend reports it
	Nodes   int
	Elapsed time.Duration
}

// Value returns the solved value of v (0 when absent)
func (s *Solution) Value(v VarID) float64 {
	if s == nil || s.Values == nil {
		return 0
	}
	return s.Values[v]
}

// Solver solves a Model once. Implementations keep no state between calls.
type Solver interface {
	Name() string
	Solve(ctx context.Context, model *Model) (*Solution, error)
}

// ErrSolverUnavailable is matched by SolverUnavailableError
var ErrSolverUnavailable = errors.New("solver unavailable")

// SolverUnavailableError reports that the backend could not be invoked at all
type SolverUnavailableError struct {
	Backend string
	Err     error
}

func (e *SolverUnavailableError) Error() string {
	return fmt.Sprintf("solver %q unavailable: %v", e.Backend, e.Err)
}

func (e *SolverUnavailableError) Unwrap() error {
	return e.Err
}

func (e *SolverUnavailableError) Is(target error) bool {
	return target == ErrSolverUnavailable
}
