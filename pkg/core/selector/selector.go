package selector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kkdraganov/LAPATOS/pkg/core/model"
	"github.com/kkdraganov/LAPATOS/pkg/mip"
)

// SolveObserver is notified after every solve attempt that returned a solution
type SolveObserver interface {
	ObserveSolve(backend string, solution *mip.Solution)
}

// Selector runs the build, solve and decode pipeline
type Selector struct {
	solver     mip.Solver
	capacities Capacities
	logger     *zap.Logger
	observer   SolveObserver
	timeLimit  time.Duration
}

// Result is the outcome of a successful selection
type Result struct {
	Grid      *model.SelectionGrid
	Status    mip.Status
	Objective float64
	Summary   string
	Nodes     int
	Elapsed   time.Duration
}

// New creates a Selector. observer may be nil.
func New(solver mip.Solver, caps Capacities, logger *zap.Logger, observer SolveObserver) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{
		solver:     solver,
		capacities: caps,
		logger:     logger,
		observer:   observer,
	}
}

// WithTimeLimit bounds each solve by d. The limit applies to the solver call
// only, so callers can keep using their context after Select returns.
func (s *Selector) WithTimeLimit(d time.Duration) *Selector {
	s.timeLimit = d
	return s
}

// Select assigns members of the table to rounds.
// Errors are returned unmodified: MalformedInputError before the model is
// built, SolverUnavailableError from the backend, InfeasibleModelError for any
// non-optimal status.
func (s *Selector) Select(ctx context.Context, table *model.PreferenceTable) (*Result, error) {
	s.logger.Debug("Building selection model",
		zap.Int("members", table.Size()),
		zap.Int("rounds", s.capacities.Rounds),
		zap.Int("rounds_per_member", s.capacities.RoundsPerMember),
		zap.Int("members_per_round", s.capacities.MembersPerRound))

	build, err := BuildModel(table, s.capacities)
	if err != nil {
		return nil, err
	}

	summary := build.Model.Summary()
	s.logger.Debug("Model built", zap.String("summary", summary))

	if slots := table.Size() * s.capacities.RoundsPerMember; slots < s.capacities.RequiredSlots() {
		s.logger.Warn("Roster too small to fill every round",
			zap.Int("available_slots", slots),
			zap.Int("required_slots", s.capacities.RequiredSlots()))
	}

	s.logger.Info("Solving selection model", zap.String("solver", s.solver.Name()))
	solveCtx := ctx
	if s.timeLimit > 0 {
		var cancel context.CancelFunc
		solveCtx, cancel = context.WithTimeout(ctx, s.timeLimit)
		defer cancel()
	}

	solution, err := s.solver.Solve(solveCtx, build.Model)
	if err != nil {
		return nil, err
	}
	if s.observer != nil {
		s.observer.ObserveSolve(s.solver.Name(), solution)
	}

	s.logger.Info("Solver finished",
		zap.String("status", solution.Status.String()),
		zap.Float64("objective", solution.Objective),
		zap.Int("nodes", solution.Nodes),
		zap.Duration("elapsed", solution.Elapsed))

	if solution.Status != mip.Optimal {
		return nil, &InfeasibleModelError{Status: solution.Status}
	}

	if violated := build.Model.Violations(solution.Values, assignedTol); len(violated) > 0 {
		return nil, fmt.Errorf("solver returned a solution violating %d constraints (first: %s)", len(violated), violated[0])
	}

	grid, err := Decode(build, solution, table)
	if err != nil {
		return nil, err
	}

	return &Result{
		Grid:      grid,
		Status:    solution.Status,
		Objective: solution.Objective,
		Summary:   summary,
		Nodes:     solution.Nodes,
		Elapsed:   solution.Elapsed,
	}, nil
}
