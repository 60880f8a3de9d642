package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kkdraganov/LAPATOS/pkg/core/model"
	"github.com/kkdraganov/LAPATOS/pkg/db"
)

type mockHistoryStore struct {
	runs        []db.SelectionRun
	assignments map[string][]db.Assignment
	err         error
}

func (m *mockHistoryStore) GetSelectionRuns(ctx context.Context) ([]db.SelectionRun, error) {
	return m.runs, m.err
}

func (m *mockHistoryStore) GetSelectionRun(ctx context.Context, id string) (*db.SelectionRun, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.runs {
		if m.runs[i].ID == id {
			return &m.runs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", db.ErrRunNotFound, id)
}

func (m *mockHistoryStore) GetAssignments(ctx context.Context, runID string) ([]db.Assignment, error) {
	return m.assignments[runID], nil
}

func historyStore() *mockHistoryStore {
	created := time.Date(2023, 11, 1, 18, 0, 0, 0, time.UTC)
	return &mockHistoryStore{
		runs: []db.SelectionRun{
			{ID: "run-3", CreatedAt: created.Add(2 * time.Hour), Status: "Optimal", Topics: []string{"A", "B"}, Members: []string{"Ada", "Ben"}},
			{ID: "run-2", CreatedAt: created.Add(time.Hour), Status: "Infeasible"},
			{ID: "run-1", CreatedAt: created, Status: "Optimal"},
		},
		assignments: map[string][]db.Assignment{
			"run-3": {
				{RunID: "run-3", Member: "Ben", RoundIndex: 0, Topic: "A"},
				{RunID: "run-3", Member: "Ben", RoundIndex: 1, Topic: "B"},
			},
		},
	}
}

func TestListRuns(t *testing.T) {
	store := historyStore()

	runs, err := ListRuns(context.Background(), store, zap.NewNop(), 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-3", runs[0].ID)
	assert.Equal(t, "run-2", runs[1].ID)

	runs, err = ListRuns(context.Background(), store, zap.NewNop(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestListRuns_StoreError(t *testing.T) {
	store := &mockHistoryStore{err: errors.New("boom")}

	_, err := ListRuns(context.Background(), store, zap.NewNop(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch selection runs")
}

func TestGetRun_RebuildsGrid(t *testing.T) {
	details, err := GetRun(context.Background(), historyStore(), zap.NewNop(), "run-3")
	require.NoError(t, err)

	assert.Equal(t, "run-3", details.Run.ID)
	expected := &model.SelectionGrid{
		Topics: []string{"A", "B"},
		Rows: []model.SelectionRow{
			{Member: "Ada", Marks: []model.Mark{model.NotAssigned, model.NotAssigned}},
			{Member: "Ben", Marks: []model.Mark{model.Assigned, model.Assigned}},
		},
	}
	if diff := cmp.Diff(expected, details.Grid); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	_, err := GetRun(context.Background(), historyStore(), zap.NewNop(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrRunNotFound))
}

func TestGetRun_InconsistentAssignments(t *testing.T) {
	store := historyStore()
	store.assignments["run-3"] = append(store.assignments["run-3"], db.Assignment{RunID: "run-3", Member: "Cy", RoundIndex: 0})

	_, err := GetRun(context.Background(), store, zap.NewNop(), "run-3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown member "Cy"`)

	store = historyStore()
	store.assignments["run-3"][0].RoundIndex = 5
	_, err = GetRun(context.Background(), store, zap.NewNop(), "run-3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}
