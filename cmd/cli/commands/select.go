package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kkdraganov/LAPATOS/pkg/core/selector"
	"github.com/kkdraganov/LAPATOS/pkg/core/services"
	"github.com/kkdraganov/LAPATOS/pkg/render"
)

// SelectCmd creates the select command
func SelectCmd(app *AppContext) *cobra.Command {
	var opts services.RunSelectionOptions

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Assign members to rounds from their preference scores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			solver, err := NewSolver(app.Cfg.Solver, app.Logger)
			if err != nil {
				return err
			}

			var observer selector.SolveObserver
			if app.Metrics != nil {
				observer = app.Metrics
			}

			caps := app.Cfg.Capacities
			sel := selector.New(solver, selector.Capacities{
				Rounds:          caps.Rounds,
				RoundsPerMember: caps.RoundsPerMember,
				MembersPerRound: caps.MembersPerRound,
			}, app.Logger, observer).WithTimeLimit(solveTimeLimit(app.Cfg.Solver))

			var sheets services.SheetsClient
			if opts.FromSheet || opts.Publish {
				client, err := app.SheetsClient()
				if err != nil {
					return err
				}
				sheets = client
			}

			var store services.SelectionRunStore
			if app.Store != nil {
				store = app.Store
			}

			result, err := services.RunSelection(app.Ctx, sel, store, sheets, app.Cfg, app.Logger, opts)
			writeMetrics(app)
			if err != nil {
				return err
			}

			if app.Verbose {
				fmt.Printf("\n%s\n", result.Selection.Summary)
				fmt.Printf("Status: %s\n", result.Selection.Status)
				fmt.Printf("Objective: %g\n", result.Selection.Objective)
				fmt.Printf("Nodes: %d, elapsed: %s\n", result.Selection.Nodes, result.Selection.Elapsed)
			}

			fmt.Println()
			fmt.Println(render.Grid(result.Selection.Grid, render.Options{
				IdentifierColumn: result.Table.IdentifierColumn,
				RoundDates:       result.RoundDates,
			}))
			fmt.Println()

			fmt.Printf("Run ID: %s\n", result.RunID)
			if result.OutputFile != "" {
				fmt.Printf("Written to: %s\n", result.OutputFile)
			}
			if result.Stored {
				fmt.Println("Stored in database")
			}
			if result.PublishedTab != "" {
				fmt.Printf("Published to tab: %s\n", result.PublishedTab)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&opts.InputFile, "i", "", "Input preferences CSV (default from config)")
	cmd.Flags().StringVar(&opts.OutputFile, "o", "", "Output selection CSV (default from config)")
	cmd.Flags().BoolVar(&opts.FromSheet, "sheet", false, "Read preferences from the configured Google Sheet")
	cmd.Flags().BoolVar(&opts.Publish, "publish", false, "Publish the selection to the configured Google Sheet")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Solve and print without writing, storing or publishing")

	return cmd
}

func writeMetrics(app *AppContext) {
	if app.Metrics == nil || app.Cfg.MetricsFile == "" {
		return
	}
	if err := app.Metrics.WriteTextfile(app.Cfg.MetricsFile); err != nil {
		app.Logger.Warn("Failed to write metrics", zap.Error(err))
	}
}
