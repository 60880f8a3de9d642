package db

import "context"

// SelectionStore defines the database operations on selection runs
type SelectionStore interface {
	InsertSelectionRun(ctx context.Context, run *SelectionRun, assignments []Assignment) error
	GetSelectionRuns(ctx context.Context) ([]SelectionRun, error)
	GetSelectionRun(ctx context.Context, id string) (*SelectionRun, error)
	GetAssignments(ctx context.Context, runID string) ([]Assignment, error)
}
