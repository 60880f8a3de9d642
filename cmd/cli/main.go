package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kkdraganov/LAPATOS/cmd/cli/commands"
	"github.com/kkdraganov/LAPATOS/internal/config"
	"github.com/kkdraganov/LAPATOS/pkg/metrics"
	"github.com/kkdraganov/LAPATOS/pkg/postgres"
	"github.com/kkdraganov/LAPATOS/pkg/utils/logging"
)

var (
	env        string
	verbose    bool
	clearFirst bool
	app        = &commands.AppContext{}
	database   *postgres.DB
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the lapatos command tree around the shared app context
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lapatos",
		Short: "LAPATOS - Select members for topic rounds from preference scores",
		Long: `A CLI tool that reads members' preference scores for each topic and solves
a small integer program choosing which members take part in which rounds.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if clearFirst {
				if err := commands.ClearTerminal(); err != nil {
					fmt.Fprintf(os.Stderr, "failed to clear terminal: %v\n", err)
				}
			}
			return initApp(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if database != nil {
				database.Close()
			}
			if app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (selects lapatos_config.<env>.yaml, lapatos_oauth.<env>.json and the log prefix)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print the model summary, solver status and debug logs")
	rootCmd.PersistentFlags().BoolVarP(&clearFirst, "clear", "c", false, "Clear the terminal before running")

	rootCmd.AddCommand(commands.SelectCmd(app))
	rootCmd.AddCommand(commands.HistoryCmd(app))
	rootCmd.AddCommand(commands.ShowCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	return rootCmd
}

// initApp sets up logger, config, metrics and the optional database
func initApp(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	app.Ctx = ctx
	app.Env = env
	app.Verbose = verbose

	logPrefix := env
	if logPrefix == "" {
		logPrefix = "lapatos"
	}

	var err error
	app.Logger, err = logging.InitLogger(logPrefix, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		app.Logger.Info("No config file found, using defaults")
		app.Cfg = config.Defaults()
	case err != nil:
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully",
		zap.String("backend", app.Cfg.Solver.Backend),
		zap.Int("rounds", app.Cfg.Capacities.Rounds))

	app.Metrics, err = metrics.NewSolverMetrics(nil)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	if app.Cfg.DatabaseURL != "" {
		app.Logger.Info("Connecting to database")
		database, err = postgres.NewDB(ctx, app.Cfg.DatabaseURL, app.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.Store = database
		app.Logger.Info("Database initialized successfully")
	}

	return nil
}
