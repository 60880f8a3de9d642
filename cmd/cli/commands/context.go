package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kkdraganov/LAPATOS/internal/config"
	"github.com/kkdraganov/LAPATOS/pkg/clients/sheetsclient"
	"github.com/kkdraganov/LAPATOS/pkg/db"
	"github.com/kkdraganov/LAPATOS/pkg/metrics"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg     *config.Config
	Env     string
	Verbose bool
	Store   db.SelectionStore // nil when no databaseURL is configured
	Metrics *metrics.SolverMetrics
	Logger  *zap.Logger
	Ctx     context.Context

	sheets *sheetsclient.Client
}

// SheetsClient returns the Sheets client, authorizing on first use so that
// commands which never touch Sheets skip the OAuth flow
func (a *AppContext) SheetsClient() (*sheetsclient.Client, error) {
	if a.sheets != nil {
		return a.sheets, nil
	}

	oauthCfg, err := config.LoadOAuthClientWithEnv(a.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
	}

	a.Logger.Info("Initializing sheets client")
	client, err := sheetsclient.NewClient(a.Ctx, oauthCfg, a.Env, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	a.sheets = client
	return client, nil
}

// RequireStore returns the store or an error naming the missing setting
func (a *AppContext) RequireStore() (db.SelectionStore, error) {
	if a.Store == nil {
		return nil, fmt.Errorf("no database configured: set databaseURL in the config")
	}
	return a.Store, nil
}
