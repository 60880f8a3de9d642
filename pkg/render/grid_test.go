package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kkdraganov/LAPATOS/pkg/core/model"
)

func sampleGrid() *model.SelectionGrid {
	return &model.SelectionGrid{
		Topics: []string{"Opening", "Rebuttal"},
		Rows: []model.SelectionRow{
			{Member: "Ada Lovelace", Marks: []model.Mark{model.Assigned, model.Assigned}},
			{Member: "Alan Turing", Marks: []model.Mark{model.Assigned, model.NotAssigned}},
			{Member: "Grace Hopper", Marks: []model.Mark{model.NotAssigned, model.NotAssigned}},
		},
	}
}

func TestGrid_ContainsEveryMemberAndTopic(t *testing.T) {
	out := Grid(sampleGrid(), Options{})

	for _, want := range []string{"Name", "Opening", "Rebuttal", "Ada Lovelace", "Alan Turing", "Grace Hopper"} {
		assert.Contains(t, out, want)
	}
	assert.Equal(t, 3, strings.Count(out, string(model.Assigned)))
}

func TestGrid_RoundDates(t *testing.T) {
	dates := []time.Time{
		time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 11, 8, 0, 0, 0, 0, time.UTC),
	}

	out := Grid(sampleGrid(), Options{IdentifierColumn: "Member", RoundDates: dates})

	assert.Contains(t, out, "Member")
	assert.Contains(t, out, "Nov 01")
	assert.Contains(t, out, "Nov 08")
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "2 of 3 members selected | Opening: 2, Rebuttal: 1", Summary(sampleGrid()))
}
