package cbc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kkdraganov/LAPATOS/pkg/mip"
)

// DefaultPath is the executable looked up on PATH when none is configured
const DefaultPath = "cbc"

// Solver runs the COIN-OR CBC executable on an LP file
type Solver struct {
	path      string
	timeLimit time.Duration
	threads   int
	logger    *zap.Logger
}

// Option configures a Solver
type Option func(*Solver)

// WithTimeLimit passes a wall-clock limit to CBC ("sec")
func WithTimeLimit(d time.Duration) Option {
	return func(s *Solver) { s.timeLimit = d }
}

// WithThreads sets the number of CBC threads
func WithThreads(n int) Option {
	return func(s *Solver) { s.threads = n }
}

// WithLogger sets the logger used for solver output
func WithLogger(logger *zap.Logger) Option {
	return func(s *Solver) { s.logger = logger }
}

// New creates a CBC solver. An empty path means DefaultPath.
func New(path string, opts ...Option) *Solver {
	if path == "" {
		path = DefaultPath
	}
	s := &Solver{
		path:   path,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Solver) Name() string {
	return "cbc"
}

// Solve writes the model to a temporary directory, runs CBC on it and reads
// back the solution file
func (s *Solver) Solve(ctx context.Context, model *mip.Model) (*mip.Solution, error) {
	bin, err := exec.LookPath(s.path)
	if err != nil {
		return nil, &mip.SolverUnavailableError{Backend: s.Name(), Err: err}
	}

	dir, err := os.MkdirTemp("", "lapatos-cbc-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}
	defer os.RemoveAll(dir)

	lpPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "model.sol")

	if err := writeLPFile(lpPath, model); err != nil {
		return nil, err
	}

	args := s.buildArgs(lpPath, solPath)
	s.logger.Debug("Running cbc", zap.String("binary", bin), zap.Strings("args", args))

	start := time.Now()
	cmd := exec.CommandContext(ctx, bin, args...)
	output, runErr := cmd.CombinedOutput()
	elapsed := time.Since(start)

	if runErr != nil {
		if ctx.Err() != nil {
			return &mip.Solution{Status: mip.NotSolved, Elapsed: elapsed}, nil
		}
		var execErr *exec.Error
		if errors.As(runErr, &execErr) {
			return nil, &mip.SolverUnavailableError{Backend: s.Name(), Err: runErr}
		}
		return nil, fmt.Errorf("cbc failed: %w\n%s", runErr, output)
	}
	s.logger.Debug("cbc finished", zap.Duration("elapsed", elapsed), zap.Int("output_bytes", len(output)))

	f, err := os.Open(solPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cbc solution file: %w", err)
	}
	defer f.Close()

	solution, err := ReadSolution(f, model)
	if err != nil {
		return nil, err
	}
	solution.Elapsed = elapsed

	return solution, nil
}

func (s *Solver) buildArgs(lpPath, solPath string) []string {
	args := []string{lpPath}
	if s.timeLimit > 0 {
		args = append(args, "-sec", strconv.Itoa(int(math.Ceil(s.timeLimit.Seconds()))))
	}
	if s.threads > 0 {
		args = append(args, "-threads", strconv.Itoa(s.threads))
	}
	return append(args, "-branch", "-printingOptions", "all", "-solution", solPath)
}

func writeLPFile(path string, model *mip.Model) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create lp file: %w", err)
	}
	if err := WriteLP(f, model); err != nil {
		f.Close()
		return fmt.Errorf("failed to write lp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close lp file: %w", err)
	}
	return nil
}

// ReadSolution parses a CBC solution file.
// The first line carries the status and objective value; each following line
// is "<index> <name> <value> <reduced cost>", optionally prefixed with "**"
// when the value is infeasible.
func ReadSolution(r io.Reader, model *mip.Model) (*mip.Solution, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read cbc solution: %w", err)
		}
		return nil, fmt.Errorf("cbc solution file is empty")
	}

	header := strings.TrimSpace(scanner.Text())
	solution := &mip.Solution{
		Status: parseStatus(header),
		Values: make(map[mip.VarID]float64, model.NumVars()),
	}

	if i := strings.Index(header, "objective value"); i >= 0 {
		fields := strings.Fields(header[i+len("objective value"):])
		if len(fields) > 0 {
			if v, err := strconv.ParseFloat(fields[0], 64); err == nil {
				solution.Objective = v
			}
		}
	}

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 0 && fields[0] == "**" {
			fields = fields[1:]
		}
		if len(fields) < 3 {
			continue
		}

		id, ok := model.VarByName(fields[1])
		if !ok {
			continue
		}
		value, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s in cbc solution: %w", fields[1], err)
		}
		solution.Values[id] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cbc solution: %w", err)
	}

	return solution, nil
}

func parseStatus(header string) mip.Status {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return mip.Undefined
	}
	switch fields[0] {
	case "Optimal":
		return mip.Optimal
	case "Infeasible", "Integer":
		return mip.Infeasible
	case "Unbounded":
		return mip.Unbounded
	case "Stopped":
		return mip.NotSolved
	default:
		return mip.Undefined
	}
}
