package commands

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kkdraganov/LAPATOS/internal/config"
	"github.com/kkdraganov/LAPATOS/pkg/mip"
	"github.com/kkdraganov/LAPATOS/pkg/mip/branchbound"
	"github.com/kkdraganov/LAPATOS/pkg/mip/cbc"
)

// NewSolver builds the MIP backend named in the config
func NewSolver(cfg config.SolverConfig, logger *zap.Logger) (mip.Solver, error) {
	switch cfg.Backend {
	case config.BackendBranchBound, "":
		return branchbound.New(branchbound.WithNodeLimit(cfg.NodeLimit)), nil
	case config.BackendCBC:
		return cbc.New(cfg.CBCPath,
			cbc.WithTimeLimit(cfg.TimeLimit),
			cbc.WithThreads(cfg.Threads),
			cbc.WithLogger(logger),
		), nil
	default:
		return nil, fmt.Errorf("unknown solver backend %q", cfg.Backend)
	}
}

// solveTimeLimit is the limit the selector applies around the in-process
// search. CBC enforces its own limit, so it gets none.
func solveTimeLimit(cfg config.SolverConfig) time.Duration {
	if cfg.Backend == config.BackendCBC {
		return 0
	}
	return cfg.TimeLimit
}
