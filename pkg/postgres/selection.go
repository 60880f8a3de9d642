package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kkdraganov/LAPATOS/pkg/db"
)

const selectRunColumns = `
	SELECT id, created_at, source, backend, status, objective,
	       rounds, rounds_per_member, members_per_round, topics, members, round_dates
	FROM selection_run
`

// InsertSelectionRun stores a run and its assignments in one transaction
func (d *DB) InsertSelectionRun(ctx context.Context, run *db.SelectionRun, assignments []db.Assignment) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	roundDates := run.RoundDates
	if roundDates == nil {
		roundDates = []time.Time{}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO selection_run (id, created_at, source, backend, status, objective,
			rounds, rounds_per_member, members_per_round, topics, members, round_dates)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, run.ID, run.CreatedAt.UTC(), run.Source, run.Backend, run.Status, run.Objective,
		run.Rounds, run.RoundsPerMember, run.MembersPerRound, run.Topics, run.Members, roundDates)
	if err != nil {
		return fmt.Errorf("failed to insert selection run: %w", err)
	}

	if len(assignments) > 0 {
		batch := &pgx.Batch{}
		for _, a := range assignments {
			batch.Queue(`
				INSERT INTO assignment (run_id, member, round_index, topic, round_date)
				VALUES ($1, $2, $3, $4, $5)
			`, a.RunID, a.Member, a.RoundIndex, a.Topic, a.RoundDate)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert assignments: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetSelectionRuns retrieves all runs, newest first
func (d *DB) GetSelectionRuns(ctx context.Context) ([]db.SelectionRun, error) {
	rows, err := d.pool.Query(ctx, selectRunColumns+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query selection runs: %w", err)
	}
	defer rows.Close()

	var runs []db.SelectionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating selection runs: %w", err)
	}

	return runs, nil
}

// GetSelectionRun retrieves one run; db.ErrRunNotFound when the id is unknown
func (d *DB) GetSelectionRun(ctx context.Context, id string) (*db.SelectionRun, error) {
	run, err := scanRun(d.pool.QueryRow(ctx, selectRunColumns+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", db.ErrRunNotFound, id)
	}
	return run, err
}

// GetAssignments retrieves the assignments of a run ordered by member then round
func (d *DB) GetAssignments(ctx context.Context, runID string) ([]db.Assignment, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT run_id, member, round_index, topic, round_date
		FROM assignment
		WHERE run_id = $1
		ORDER BY member, round_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []db.Assignment
	for rows.Next() {
		var a db.Assignment
		if err := rows.Scan(&a.RunID, &a.Member, &a.RoundIndex, &a.Topic, &a.RoundDate); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}

	return assignments, nil
}

func scanRun(row pgx.Row) (*db.SelectionRun, error) {
	var r db.SelectionRun
	err := row.Scan(&r.ID, &r.CreatedAt, &r.Source, &r.Backend, &r.Status, &r.Objective,
		&r.Rounds, &r.RoundsPerMember, &r.MembersPerRound, &r.Topics, &r.Members, &r.RoundDates)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan selection run: %w", err)
	}
	return &r, nil
}
