package sheetsclient

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kkdraganov/LAPATOS/pkg/core/model"
)

// roundDateLayout matches the date format used in published tab headers
const roundDateLayout = "Mon Jan 02 2006"

// PublishedSelection is a solved grid plus the run details shown above it
type PublishedSelection struct {
	RunID            string
	CreatedAt        time.Time
	Objective        float64
	IdentifierColumn string
	Grid             *model.SelectionGrid
	// RoundDates is optional; when set it has one date per topic
	RoundDates []time.Time
}

// PublishSelection writes the selection to a tab named after the run date.
// The tab is created when missing and overwritten otherwise. Returns the tab title.
func (c *Client) PublishSelection(spreadsheetID string, selection *PublishedSelection) (string, error) {
	title := selectionTabTitle(selection)
	tabRange := fmt.Sprintf("'%s'", title)

	exists, err := c.HasSheet(spreadsheetID, title)
	if err != nil {
		return "", err
	}

	if exists {
		if err := c.ClearValues(spreadsheetID, tabRange); err != nil {
			return "", fmt.Errorf("failed to clear existing tab: %w", err)
		}
	} else {
		if _, err := c.CreateSheet(spreadsheetID, title); err != nil {
			return "", fmt.Errorf("failed to create tab: %w", err)
		}
	}

	if err := c.UpdateValues(spreadsheetID, tabRange+"!A1", selectionValues(selection)); err != nil {
		return "", fmt.Errorf("failed to write selection: %w", err)
	}

	c.logger.Info("Published selection",
		zap.String("spreadsheet_id", spreadsheetID),
		zap.String("tab", title),
		zap.Int("members", len(selection.Grid.Rows)))

	return title, nil
}

func selectionTabTitle(selection *PublishedSelection) string {
	return fmt.Sprintf("Selection %s", selection.CreatedAt.Format("2006-01-02 15:04"))
}

// selectionValues lays out the run details, a blank row, the header and one row per member
func selectionValues(selection *PublishedSelection) [][]interface{} {
	identifier := selection.IdentifierColumn
	if identifier == "" {
		identifier = model.DefaultIdentifierColumn
	}
	header, rows := selection.Grid.Records(identifier)

	if len(selection.RoundDates) == len(selection.Grid.Topics) {
		for r, date := range selection.RoundDates {
			header[r+1] = fmt.Sprintf("%s (%s)", header[r+1], date.Format(roundDateLayout))
		}
	}

	values := [][]interface{}{
		{"Run", selection.RunID, "Objective", selection.Objective},
		{},
		toRow(header),
	}
	for _, row := range rows {
		values = append(values, toRow(row))
	}
	return values
}

func toRow(cells []string) []interface{} {
	row := make([]interface{}, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}
