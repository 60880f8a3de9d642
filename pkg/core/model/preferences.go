package model

import (
	"errors"
	"fmt"
	"math"
)

// DefaultIdentifierColumn is the member identifier column header
const DefaultIdentifierColumn = "Name"

// Member is one roster row: a unique name and a score per round
type Member struct {
	Name   string
	Scores []float64
}

// PreferenceTable is the in-memory roster, rows in input order.
// Topics are the score column headers in their original order and double as
// round labels.
type PreferenceTable struct {
	IdentifierColumn string
	Topics           []string
	Members          []Member
}

// Size returns the number of members
func (t *PreferenceTable) Size() int {
	return len(t.Members)
}

// Score returns the score of member i for round r
func (t *PreferenceTable) Score(i, r int) float64 {
	return t.Members[i].Scores[r]
}

// Validate checks the table exposes an identifier and exactly `rounds` scores per member
func (t *PreferenceTable) Validate(rounds int) error {
	if len(t.Topics) < rounds {
		return &MalformedInputError{
			Row:    -1,
			Reason: fmt.Sprintf("expected %d round columns, found %d", rounds, len(t.Topics)),
		}
	}

	seen := make(map[string]int, len(t.Members))
	for i, m := range t.Members {
		if m.Name == "" {
			return &MalformedInputError{Row: i, Reason: "missing member identifier"}
		}
		if prev, ok := seen[m.Name]; ok {
			return &MalformedInputError{
				Row:    i,
				Member: m.Name,
				Reason: fmt.Sprintf("duplicate member identifier (first seen in row %d)", prev),
			}
		}
		seen[m.Name] = i

		if len(m.Scores) != rounds {
			return &MalformedInputError{
				Row:    i,
				Member: m.Name,
				Reason: fmt.Sprintf("expected %d scores, found %d", rounds, len(m.Scores)),
			}
		}
		for r, s := range m.Scores {
			if math.IsNaN(s) || math.IsInf(s, 0) {
				return &MalformedInputError{
					Row:    i,
					Member: m.Name,
					Reason: fmt.Sprintf("score for %q is not a finite number", t.Topics[r]),
				}
			}
		}
	}

	return nil
}

// ErrMalformedInput is matched by MalformedInputError
var ErrMalformedInput = errors.New("malformed input")

// MalformedInputError reports a preference table missing required columns or values.
// Row is -1 when the problem is not specific to a row.
type MalformedInputError struct {
	Row    int
	Member string
	Reason string
}

func (e *MalformedInputError) Error() string {
	switch {
	case e.Row < 0:
		return fmt.Sprintf("malformed input: %s", e.Reason)
	case e.Member != "":
		return fmt.Sprintf("malformed input: row %d (%s): %s", e.Row, e.Member, e.Reason)
	default:
		return fmt.Sprintf("malformed input: row %d: %s", e.Row, e.Reason)
	}
}

func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}
