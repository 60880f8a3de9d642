package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/kkdraganov/LAPATOS/pkg/core/model"
)

const roundDateLayout = "Jan 02"

var (
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true).Padding(0, 1)
	memberStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")).Padding(0, 1)
	assignedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true).Padding(0, 1).Align(lipgloss.Center)
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999")).Padding(0, 1).Align(lipgloss.Center)
	borderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	summaryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
)

// Options tweaks the rendered grid
type Options struct {
	IdentifierColumn string
	// RoundDates, when it has one entry per topic, is shown under each topic
	RoundDates []time.Time
}

// Grid renders the selection as a bordered table, members as rows and rounds
// as columns, followed by a per-round head count
func Grid(grid *model.SelectionGrid, opts Options) string {
	identifier := opts.IdentifierColumn
	if identifier == "" {
		identifier = model.DefaultIdentifierColumn
	}
	header, rows := grid.Records(identifier)

	if len(opts.RoundDates) == len(grid.Topics) {
		for r, date := range opts.RoundDates {
			header[r+1] = header[r+1] + "\n" + date.Format(roundDateLayout)
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(header...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return memberStyle
			case row >= 0 && row < len(rows) && col < len(rows[row]) && rows[row][col] == string(model.Assigned):
				return assignedStyle
			default:
				return emptyStyle
			}
		})

	return lipgloss.JoinVertical(lipgloss.Left, t.String(), summaryStyle.Render(Summary(grid)))
}

// Summary lists how many members each round holds and how many members were selected
func Summary(grid *model.SelectionGrid) string {
	counts := make([]string, len(grid.Topics))
	for r, topic := range grid.Topics {
		counts[r] = fmt.Sprintf("%s: %d", topic, grid.RoundCount(r))
	}

	selected := 0
	for _, row := range grid.Rows {
		if len(row.Rounds()) > 0 {
			selected++
		}
	}

	return fmt.Sprintf("%d of %d members selected | %s", selected, len(grid.Rows), strings.Join(counts, ", "))
}
