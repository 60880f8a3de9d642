package preferences

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kkdraganov/LAPATOS/pkg/core/model"
)

// Options controls how a header and its rows become a PreferenceTable
type Options struct {
	// IdentifierColumn names the member column. Defaults to model.DefaultIdentifierColumn.
	IdentifierColumn string
	// FirstNameColumn and LastNameColumn are joined into the identifier when
	// the identifier column is absent. Both columns are dropped from the topics.
	FirstNameColumn string
	LastNameColumn  string
	// Rounds is the number of leading topic columns parsed as scores
	Rounds int
}

func (o Options) identifier() string {
	if o.IdentifierColumn == "" {
		return model.DefaultIdentifierColumn
	}
	return o.IdentifierColumn
}

// Parse builds a PreferenceTable from a header row and data rows.
// Every column other than the identifier (and the first/last name columns) is
// a topic; the first opts.Rounds topics carry numeric scores. Blank rows are skipped.
func Parse(header []string, rows [][]string, opts Options) (*model.PreferenceTable, error) {
	if len(header) == 0 {
		return nil, &model.MalformedInputError{Row: -1, Reason: "missing header row"}
	}

	header = trimAll(header)
	idCol := opts.identifier()

	idIdx := indexOf(header, idCol)
	firstIdx := indexOf(header, opts.FirstNameColumn)
	lastIdx := indexOf(header, opts.LastNameColumn)

	if idIdx < 0 && (firstIdx < 0 || lastIdx < 0) {
		return nil, &model.MalformedInputError{
			Row:    -1,
			Reason: fmt.Sprintf("missing identifier column %q", idCol),
		}
	}

	var topicIdx []int
	var topics []string
	for c, name := range header {
		if c == idIdx || c == firstIdx || c == lastIdx {
			continue
		}
		topicIdx = append(topicIdx, c)
		topics = append(topics, name)
	}

	if len(topics) < opts.Rounds {
		return nil, &model.MalformedInputError{
			Row:    -1,
			Reason: fmt.Sprintf("expected %d round columns, found %d", opts.Rounds, len(topics)),
		}
	}

	table := &model.PreferenceTable{
		IdentifierColumn: idCol,
		Topics:           topics,
	}

	for _, raw := range rows {
		record := trimAll(raw)
		if isBlank(record) {
			continue
		}
		row := len(table.Members)

		name := cell(record, idIdx)
		if idIdx < 0 {
			name = strings.TrimSpace(cell(record, firstIdx) + " " + cell(record, lastIdx))
		}

		scores := make([]float64, opts.Rounds)
		for r := 0; r < opts.Rounds; r++ {
			value := cell(record, topicIdx[r])
			if value == "" {
				return nil, &model.MalformedInputError{
					Row:    row,
					Member: name,
					Reason: fmt.Sprintf("missing score for %q", topics[r]),
				}
			}
			score, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, &model.MalformedInputError{
					Row:    row,
					Member: name,
					Reason: fmt.Sprintf("score %q for %q is not a number", value, topics[r]),
				}
			}
			scores[r] = score
		}

		table.Members = append(table.Members, model.Member{Name: name, Scores: scores})
	}

	return table, nil
}

func indexOf(header []string, name string) int {
	if name == "" {
		return -1
	}
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func isBlank(record []string) bool {
	for _, v := range record {
		if v != "" {
			return false
		}
	}
	return true
}
