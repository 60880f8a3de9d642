package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kkdraganov/LAPATOS/pkg/core/model"
	"github.com/kkdraganov/LAPATOS/pkg/db"
)

// HistoryStore defines the database operations needed to read past runs
type HistoryStore interface {
	GetSelectionRuns(ctx context.Context) ([]db.SelectionRun, error)
	GetSelectionRun(ctx context.Context, id string) (*db.SelectionRun, error)
	GetAssignments(ctx context.Context, runID string) ([]db.Assignment, error)
}

// RunDetails is a stored run with its grid rebuilt from the assignments
type RunDetails struct {
	Run  *db.SelectionRun
	Grid *model.SelectionGrid
}

// ListRuns returns the most recent stored runs, newest first. limit <= 0 returns all.
func ListRuns(ctx context.Context, store HistoryStore, logger *zap.Logger, limit int) ([]db.SelectionRun, error) {
	runs, err := store.GetSelectionRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch selection runs: %w", err)
	}

	logger.Debug("Fetched selection runs", zap.Int("count", len(runs)))

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// GetRun loads a stored run and rebuilds its selection grid
func GetRun(ctx context.Context, store HistoryStore, logger *zap.Logger, id string) (*RunDetails, error) {
	run, err := store.GetSelectionRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch selection run: %w", err)
	}

	assignments, err := store.GetAssignments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignments: %w", err)
	}

	logger.Debug("Fetched assignments", zap.String("run_id", id), zap.Int("count", len(assignments)))

	grid, err := rebuildGrid(run, assignments)
	if err != nil {
		return nil, err
	}

	return &RunDetails{Run: run, Grid: grid}, nil
}

// rebuildGrid lays members out in stored order with every round unassigned,
// then marks each stored assignment
func rebuildGrid(run *db.SelectionRun, assignments []db.Assignment) (*model.SelectionGrid, error) {
	rounds := len(run.Topics)
	grid := &model.SelectionGrid{
		Topics: append([]string(nil), run.Topics...),
		Rows:   make([]model.SelectionRow, len(run.Members)),
	}

	rowByMember := make(map[string]int, len(run.Members))
	for i, member := range run.Members {
		marks := make([]model.Mark, rounds)
		for r := range marks {
			marks[r] = model.NotAssigned
		}
		grid.Rows[i] = model.SelectionRow{Member: member, Marks: marks}
		rowByMember[member] = i
	}

	for _, a := range assignments {
		i, ok := rowByMember[a.Member]
		if !ok {
			return nil, fmt.Errorf("assignment for unknown member %q in run %s", a.Member, run.ID)
		}
		if a.RoundIndex < 0 || a.RoundIndex >= rounds {
			return nil, fmt.Errorf("assignment round %d out of range in run %s", a.RoundIndex, run.ID)
		}
		grid.Rows[i].Marks[a.RoundIndex] = model.Assigned
	}

	return grid, nil
}
