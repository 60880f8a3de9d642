package selector

import (
	"fmt"
	"math"

	"github.com/kkdraganov/LAPATOS/pkg/core/model"
	"github.com/kkdraganov/LAPATOS/pkg/mip"
)

// assignedTol absorbs floating point noise from external solvers
const assignedTol = 1e-6

// Decode turns an optimal solution into the selection grid.
// Every member of the table gets a row, including members assigned to no
// round; helper variables are ignored.
func Decode(build *Build, solution *mip.Solution, table *model.PreferenceTable) (*model.SelectionGrid, error) {
	if solution == nil || solution.Status != mip.Optimal {
		status := mip.Undefined
		if solution != nil {
			status = solution.Status
		}
		return nil, &InfeasibleModelError{Status: status}
	}
	if len(build.Assignments) != table.Size() {
		return nil, fmt.Errorf("model was built for %d members, table has %d", len(build.Assignments), table.Size())
	}

	rounds := build.Capacities.Rounds
	grid := &model.SelectionGrid{
		Topics: make([]string, rounds),
		Rows:   make([]model.SelectionRow, table.Size()),
	}
	copy(grid.Topics, table.Topics[:rounds])

	for i, member := range table.Members {
		marks := make([]model.Mark, rounds)
		for r := range marks {
			marks[r] = model.NotAssigned
		}
		grid.Rows[i] = model.SelectionRow{Member: member.Name, Marks: marks}
	}

	for key, v := range build.Keys() {
		if isAssigned(solution.Value(v)) {
			grid.Rows[key.Member].Marks[key.Round] = model.Assigned
		}
	}

	return grid, nil
}

func isAssigned(value float64) bool {
	return math.Abs(value-1) <= assignedTol
}
