package sheetsclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kkdraganov/LAPATOS/pkg/core/model"
	"github.com/kkdraganov/LAPATOS/pkg/preferences"
)

// ListPreferences reads a preference table from a form responses tab.
// The first row is the header; cells are parsed the same way as CSV input.
func (c *Client) ListPreferences(spreadsheetID, tab string, opts preferences.Options) (*model.PreferenceTable, error) {
	values, err := c.GetValues(spreadsheetID, tab)
	if err != nil {
		return nil, fmt.Errorf("failed to get preference data: %w", err)
	}

	c.logger.Debug("Fetched preference rows", zap.String("tab", tab), zap.Int("rows", len(values)))

	return parsePreferenceValues(values, opts)
}

func parsePreferenceValues(values [][]interface{}, opts preferences.Options) (*model.PreferenceTable, error) {
	if len(values) == 0 {
		return nil, &model.MalformedInputError{Row: -1, Reason: "spreadsheet is empty"}
	}

	rows := make([][]string, 0, len(values)-1)
	for _, row := range values[1:] {
		rows = append(rows, cellStrings(row))
	}

	return preferences.Parse(cellStrings(values[0]), rows, opts)
}

// cellStrings formats API cell values; unformatted numbers arrive as float64
func cellStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		switch v := cell.(type) {
		case nil:
			out[i] = ""
		case string:
			out[i] = v
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}
