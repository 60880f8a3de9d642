package model

// Mark is the cell value of a selection grid
type Mark string

const (
	Assigned    Mark = "X"
	NotAssigned Mark = "-"
)

// SelectionRow holds one member's marks, one per round in topic order
type SelectionRow struct {
	Member string
	Marks  []Mark
}

// Rounds returns the indices of the rounds the member is assigned to
func (r SelectionRow) Rounds() []int {
	var rounds []int
	for i, m := range r.Marks {
		if m == Assigned {
			rounds = append(rounds, i)
		}
	}
	return rounds
}

// SelectionGrid is the solved assignment: rows are members in input order,
// columns are rounds labeled by Topics
type SelectionGrid struct {
	Topics []string
	Rows   []SelectionRow
}

// Row returns the row for the given member
func (g *SelectionGrid) Row(member string) (SelectionRow, bool) {
	for _, row := range g.Rows {
		if row.Member == member {
			return row, true
		}
	}
	return SelectionRow{}, false
}

// RoundCount returns how many members are assigned to round r
func (g *SelectionGrid) RoundCount(r int) int {
	count := 0
	for _, row := range g.Rows {
		if row.Marks[r] == Assigned {
			count++
		}
	}
	return count
}

// RoundMembers returns the members assigned to round r, in row order
func (g *SelectionGrid) RoundMembers(r int) []string {
	var members []string
	for _, row := range g.Rows {
		if row.Marks[r] == Assigned {
			members = append(members, row.Member)
		}
	}
	return members
}

// Transpose returns the grid with rounds as rows: the first column holds the
// topic, the remaining columns one mark per member. The returned header starts
// with headerLabel followed by member names.
func (g *SelectionGrid) Transpose(headerLabel string) (header []string, rows [][]string) {
	header = make([]string, 0, len(g.Rows)+1)
	header = append(header, headerLabel)
	for _, row := range g.Rows {
		header = append(header, row.Member)
	}

	rows = make([][]string, len(g.Topics))
	for r, topic := range g.Topics {
		line := make([]string, 0, len(g.Rows)+1)
		line = append(line, topic)
		for _, row := range g.Rows {
			line = append(line, string(row.Marks[r]))
		}
		rows[r] = line
	}
	return header, rows
}

// Records returns the grid as member rows under a header of identifierColumn
// followed by the topics, ready for tabular output
func (g *SelectionGrid) Records(identifierColumn string) (header []string, rows [][]string) {
	header = make([]string, 0, len(g.Topics)+1)
	header = append(header, identifierColumn)
	header = append(header, g.Topics...)

	rows = make([][]string, len(g.Rows))
	for i, row := range g.Rows {
		line := make([]string, 0, len(row.Marks)+1)
		line = append(line, row.Member)
		for _, m := range row.Marks {
			line = append(line, string(m))
		}
		rows[i] = line
	}
	return header, rows
}
