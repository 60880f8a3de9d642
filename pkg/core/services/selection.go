package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kkdraganov/LAPATOS/internal/config"
	"github.com/kkdraganov/LAPATOS/pkg/clients/sheetsclient"
	"github.com/kkdraganov/LAPATOS/pkg/core/model"
	"github.com/kkdraganov/LAPATOS/pkg/core/selector"
	"github.com/kkdraganov/LAPATOS/pkg/db"
	"github.com/kkdraganov/LAPATOS/pkg/preferences"
)

// RosterSelector solves a preference table into a selection grid
type RosterSelector interface {
	Select(ctx context.Context, table *model.PreferenceTable) (*selector.Result, error)
}

// SheetsClient defines the sheets operations used by a selection run
type SheetsClient interface {
	ListPreferences(spreadsheetID, tab string, opts preferences.Options) (*model.PreferenceTable, error)
	PublishSelection(spreadsheetID string, selection *sheetsclient.PublishedSelection) (string, error)
}

// SelectionRunStore defines the database operations needed to record a run
type SelectionRunStore interface {
	InsertSelectionRun(ctx context.Context, run *db.SelectionRun, assignments []db.Assignment) error
}

// RunSelectionOptions override the configured paths and toggle the optional steps
type RunSelectionOptions struct {
	InputFile  string
	OutputFile string
	FromSheet  bool
	Publish    bool
	// DryRun solves and returns the grid without writing, storing or publishing it
	DryRun bool
}

// RunSelectionResult is what a selection run produced
type RunSelectionResult struct {
	RunID        string
	CreatedAt    time.Time
	Source       string
	Table        *model.PreferenceTable
	Selection    *selector.Result
	RoundDates   []time.Time
	OutputFile   string
	PublishedTab string
	Stored       bool
}

var now = time.Now

// RunSelection loads preferences, solves the selection and delivers it: CSV
// output, then the store and the published sheet when those are configured.
// store and sheets may be nil.
func RunSelection(
	ctx context.Context,
	sel RosterSelector,
	store SelectionRunStore,
	sheets SheetsClient,
	cfg *config.Config,
	logger *zap.Logger,
	opts RunSelectionOptions,
) (*RunSelectionResult, error) {
	result := &RunSelectionResult{
		RunID:     uuid.NewString(),
		CreatedAt: now().UTC(),
	}
	logger = logger.With(zap.String("run_id", result.RunID))

	roundDates, err := RoundDates(cfg.RoundSchedule, cfg.Capacities.Rounds)
	if err != nil {
		return nil, err
	}
	result.RoundDates = roundDates

	table, source, err := loadPreferences(sheets, cfg, opts)
	if err != nil {
		return nil, err
	}
	result.Table = table
	result.Source = source
	logger.Info("Loaded preferences",
		zap.String("source", source),
		zap.Int("members", table.Size()),
		zap.Strings("topics", table.Topics))

	selection, err := sel.Select(ctx, table)
	if err != nil {
		var infeasible *selector.InfeasibleModelError
		if errors.As(err, &infeasible) && store != nil && !opts.DryRun {
			run := newSelectionRun(result, cfg, infeasible.Status.String(), 0)
			if storeErr := store.InsertSelectionRun(ctx, run, nil); storeErr != nil {
				logger.Warn("Failed to record infeasible run", zap.Error(storeErr))
			}
		}
		return nil, err
	}
	result.Selection = selection

	if opts.DryRun {
		logger.Info("Dry run, selection not written")
		return result, nil
	}

	outputFile := opts.OutputFile
	if outputFile == "" {
		outputFile = cfg.OutputFile
	}
	if err := preferences.WriteSelectionCSV(outputFile, selection.Grid, table.IdentifierColumn); err != nil {
		return nil, fmt.Errorf("failed to write selection: %w", err)
	}
	result.OutputFile = outputFile
	logger.Info("Selection written", zap.String("file", outputFile))

	if store != nil {
		run := newSelectionRun(result, cfg, selection.Status.String(), selection.Objective)
		if err := store.InsertSelectionRun(ctx, run, assignmentsFor(result.RunID, selection.Grid, roundDates)); err != nil {
			return nil, fmt.Errorf("failed to store selection run: %w", err)
		}
		result.Stored = true
	}

	if opts.Publish {
		if sheets == nil || cfg.Sheets == nil || cfg.Sheets.SelectionSheetID == "" {
			return nil, fmt.Errorf("publishing requires sheets.selectionSheetID in the config")
		}
		tab, err := sheets.PublishSelection(cfg.Sheets.SelectionSheetID, &sheetsclient.PublishedSelection{
			RunID:            result.RunID,
			CreatedAt:        result.CreatedAt,
			Objective:        selection.Objective,
			IdentifierColumn: table.IdentifierColumn,
			Grid:             selection.Grid,
			RoundDates:       roundDates,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to publish selection: %w", err)
		}
		result.PublishedTab = tab
	}

	return result, nil
}

func loadPreferences(sheets SheetsClient, cfg *config.Config, opts RunSelectionOptions) (*model.PreferenceTable, string, error) {
	parseOpts := preferences.Options{
		IdentifierColumn: cfg.IdentifierColumn,
		FirstNameColumn:  cfg.FirstNameColumn,
		LastNameColumn:   cfg.LastNameColumn,
		Rounds:           cfg.Capacities.Rounds,
	}

	if opts.FromSheet {
		if sheets == nil || cfg.Sheets == nil || cfg.Sheets.PreferencesSheetID == "" {
			return nil, "", fmt.Errorf("reading from a sheet requires sheets.preferencesSheetID in the config")
		}
		source := fmt.Sprintf("sheets:%s/%s", cfg.Sheets.PreferencesSheetID, cfg.Sheets.PreferencesTab)
		table, err := sheets.ListPreferences(cfg.Sheets.PreferencesSheetID, cfg.Sheets.PreferencesTab, parseOpts)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load preferences from %s: %w", source, err)
		}
		return table, source, nil
	}

	inputFile := opts.InputFile
	if inputFile == "" {
		inputFile = cfg.InputFile
	}
	table, err := preferences.ReadCSV(inputFile, parseOpts)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load preferences from %s: %w", inputFile, err)
	}
	return table, inputFile, nil
}

func newSelectionRun(result *RunSelectionResult, cfg *config.Config, status string, objective float64) *db.SelectionRun {
	rounds := cfg.Capacities.Rounds
	topics := result.Table.Topics
	if len(topics) > rounds {
		topics = topics[:rounds]
	}

	members := make([]string, len(result.Table.Members))
	for i, m := range result.Table.Members {
		members[i] = m.Name
	}

	return &db.SelectionRun{
		ID:              result.RunID,
		CreatedAt:       result.CreatedAt,
		Source:          result.Source,
		Backend:         cfg.Solver.Backend,
		Status:          status,
		Objective:       objective,
		Rounds:          rounds,
		RoundsPerMember: cfg.Capacities.RoundsPerMember,
		MembersPerRound: cfg.Capacities.MembersPerRound,
		Topics:          topics,
		Members:         members,
		RoundDates:      result.RoundDates,
	}
}

func assignmentsFor(runID string, grid *model.SelectionGrid, roundDates []time.Time) []db.Assignment {
	var assignments []db.Assignment
	for _, row := range grid.Rows {
		for _, r := range row.Rounds() {
			a := db.Assignment{
				RunID:      runID,
				Member:     row.Member,
				RoundIndex: r,
				Topic:      grid.Topics[r],
			}
			if r < len(roundDates) {
				date := roundDates[r]
				a.RoundDate = &date
			}
			assignments = append(assignments, a)
		}
	}
	return assignments
}
