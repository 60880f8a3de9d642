package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kkdraganov/LAPATOS/pkg/core/services"
	"github.com/kkdraganov/LAPATOS/pkg/db"
	"github.com/kkdraganov/LAPATOS/pkg/render"
)

// HistoryCmd creates the history command
func HistoryCmd(app *AppContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored selection runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.RequireStore()
			if err != nil {
				return err
			}

			runs, err := services.ListRuns(app.Ctx, store, app.Logger, limit)
			if err != nil {
				return err
			}

			if len(runs) == 0 {
				fmt.Println("No selection runs stored yet.")
				return nil
			}

			fmt.Printf("\n%d selection runs:\n\n", len(runs))
			for _, run := range runs {
				fmt.Println(formatRunLine(run))
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 for all)")

	return cmd
}

// ShowCmd creates the show command
func ShowCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run_id>",
		Short: "Print the selection grid of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.RequireStore()
			if err != nil {
				return err
			}

			details, err := services.GetRun(app.Ctx, store, app.Logger, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\n%s\n\n", formatRunLine(*details.Run))
			fmt.Println(render.Grid(details.Grid, render.Options{
				IdentifierColumn: app.Cfg.IdentifierColumn,
				RoundDates:       details.Run.RoundDates,
			}))
			fmt.Println()

			return nil
		},
	}
}

func formatRunLine(run db.SelectionRun) string {
	line := fmt.Sprintf("%s  %s  %-10s %-11s objective %-8g %d members, %d rounds (%d each, %d per round)",
		run.ID,
		run.CreatedAt.Local().Format("2006-01-02 15:04"),
		run.Backend,
		run.Status,
		run.Objective,
		len(run.Members),
		run.Rounds,
		run.RoundsPerMember,
		run.MembersPerRound,
	)
	if run.Source != "" {
		line += "  [" + run.Source + "]"
	}
	return strings.TrimRight(line, " ")
}
