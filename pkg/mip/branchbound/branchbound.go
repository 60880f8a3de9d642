package branchbound

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/kkdraganov/LAPATOS/pkg/mip"
)

const (
	// DefaultNodeLimit bounds the search; hitting it yields mip.NotSolved
	DefaultNodeLimit = 2_000_000

	feasTol  = 1e-6
	boundTol = 1e-9
)

const (
	unfixed int8 = -1
)

// Solver is an exact depth-first branch-and-bound solver for pure binary programs.
// Each node runs bound propagation over the linear rows and, unless disabled,
// solves the LP relaxation of the remaining free variables to prune the search.
type Solver struct {
	nodeLimit  int
	relaxation bool
}

// Option configures a Solver
type Option func(*Solver)

// WithNodeLimit sets the maximum number of explored nodes
func WithNodeLimit(limit int) Option {
	return func(s *Solver) {
		if limit > 0 {
			s.nodeLimit = limit
		}
	}
}

// WithoutRelaxation disables LP bounding, leaving propagation-only search
func WithoutRelaxation() Option {
	return func(s *Solver) {
		s.relaxation = false
	}
}

// New creates a branch-and-bound solver
func New(opts ...Option) *Solver {
	s := &Solver{
		nodeLimit:  DefaultNodeLimit,
		relaxation: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Solver) Name() string {
	return "branchbound"
}

// Solve searches for a provably optimal assignment.
// A context deadline or the node limit stops the search with status NotSolved.
func (s *Solver) Solve(ctx context.Context, model *mip.Model) (*mip.Solution, error) {
	start := time.Now()

	sr := newSearch(ctx, model, s.nodeLimit, s.relaxation)
	root := make([]int8, sr.n)
	for i := range root {
		root[i] = unfixed
	}
	sr.explore(root)

	solution := &mip.Solution{
		Nodes:   sr.nodes,
		Elapsed: time.Since(start),
	}

	switch {
	case sr.aborted:
		solution.Status = mip.NotSolved
	case sr.best == nil:
		solution.Status = mip.Infeasible
	default:
		solution.Status = mip.Optimal
		solution.Values = make(map[mip.VarID]float64, sr.n)
		for j, v := range sr.best {
			solution.Values[mip.VarID(j)] = float64(v)
		}
		solution.Objective = model.Evaluate(solution.Values)
	}

	return solution, nil
}

// row is a constraint in dense-index form
type row struct {
	idx  []int
	coef []float64
	op   mip.Op
	rhs  float64
}

type search struct {
	ctx   context.Context
	model *mip.Model

	n    int
	obj  []float64 // objective in maximisation form
	rows []row

	// integralObj is set when every objective coefficient is a whole number
	integralObj bool

	relaxation bool
	nodeLimit  int
	nodes      int
	aborted    bool

	best    []int8
	bestObj float64
}

func newSearch(ctx context.Context, model *mip.Model, nodeLimit int, relaxation bool) *search {
	n := model.NumVars()
	sr := &search{
		ctx:        ctx,
		model:      model,
		n:          n,
		obj:        make([]float64, n),
		relaxation: relaxation,
		nodeLimit:  nodeLimit,
	}

	sign := 1.0
	if model.Sense() == mip.Minimize {
		sign = -1
	}
	for _, t := range model.Objective() {
		sr.obj[t.Var] += sign * t.Coef
	}
	sr.integralObj = true
	for _, v := range sr.obj {
		if v != math.Trunc(v) {
			sr.integralObj = false
			break
		}
	}

	for _, c := range model.Constraints() {
		r := row{op: c.Op, rhs: c.RHS}
		for _, t := range c.Terms {
			if t.Coef == 0 {
				continue
			}
			r.idx = append(r.idx, int(t.Var))
			r.coef = append(r.coef, t.Coef)
		}
		sr.rows = append(sr.rows, r)
	}

	return sr
}

func (sr *search) explore(fixed []int8) {
	if sr.aborted {
		return
	}

	sr.nodes++
	if sr.nodes > sr.nodeLimit {
		sr.aborted = true
		return
	}
	if sr.ctx.Err() != nil {
		sr.aborted = true
		return
	}

	if !sr.propagate(fixed) {
		return
	}

	free := sr.freeVars(fixed)
	if len(free) == 0 {
		sr.consider(fixed)
		return
	}

	bound, point, feasible := sr.bound(fixed, free)
	if !feasible {
		return
	}
	if sr.best != nil && bound <= sr.bestObj+boundTol {
		return
	}

	// An integral relaxation optimum is optimal for the whole subtree
	if point != nil && integral(point, free) {
		candidate := slices.Clone(fixed)
		for _, j := range free {
			candidate[j] = int8(math.Round(point[j]))
		}
		if sr.satisfies(candidate) {
			sr.consider(candidate)
			return
		}
	}

	j, first := pickBranch(free, point)
	for _, v := range [2]int8{first, 1 - first} {
		child := slices.Clone(fixed)
		child[j] = v
		sr.explore(child)
	}
}

// propagate fixes variables implied by row activity bounds.
// Returns false when some row can no longer be satisfied.
func (sr *search) propagate(fixed []int8) bool {
	for changed := true; changed; {
		changed = false
		for _, r := range sr.rows {
			var fixedSum, minFree, maxFree float64
			for k, j := range r.idx {
				a := r.coef[k]
				switch fixed[j] {
				case 1:
					fixedSum += a
				case unfixed:
					if a > 0 {
						maxFree += a
					} else {
						minFree += a
					}
				}
			}

			lo := fixedSum + minFree
			hi := fixedSum + maxFree
			checkUpper := r.op != mip.GreaterEqual
			checkLower := r.op != mip.LessEqual

			if checkUpper && lo > r.rhs+feasTol {
				return false
			}
			if checkLower && hi < r.rhs-feasTol {
				return false
			}

			// lo and hi go stale as variables are fixed below, which only
			// makes the tests weaker; the next pass recomputes them.
			for k, j := range r.idx {
				if fixed[j] != unfixed {
					continue
				}
				a := r.coef[k]
				abs := math.Abs(a)
				switch {
				case checkUpper && lo+abs > r.rhs+feasTol:
					if a > 0 {
						fixed[j] = 0
					} else {
						fixed[j] = 1
					}
					changed = true
				case checkLower && hi-abs < r.rhs-feasTol:
					if a > 0 {
						fixed[j] = 1
					} else {
						fixed[j] = 0
					}
					changed = true
				}
			}
		}
	}
	return true
}

func (sr *search) freeVars(fixed []int8) []int {
	var free []int
	for j, v := range fixed {
		if v == unfixed {
			free = append(free, j)
		}
	}
	return free
}

func (sr *search) objective(assignment []int8) float64 {
	total := 0.0
	for j, v := range assignment {
		if v == 1 {
			total += sr.obj[j]
		}
	}
	return total
}

func (sr *search) satisfies(assignment []int8) bool {
	for _, r := range sr.rows {
		lhs := 0.0
		for k, j := range r.idx {
			if assignment[j] == 1 {
				lhs += r.coef[k]
			}
		}
		if !rowHolds(r.op, lhs, r.rhs) {
			return false
		}
	}
	return true
}

// consider records a complete assignment as incumbent if it improves on the
// current one. Ties keep the earlier incumbent so the search is deterministic.
func (sr *search) consider(assignment []int8) {
	if !sr.satisfies(assignment) {
		return
	}
	value := sr.objective(assignment)
	if sr.best == nil || value > sr.bestObj+boundTol {
		sr.best = slices.Clone(assignment)
		sr.bestObj = value
	}
}

func rowHolds(op mip.Op, lhs, rhs float64) bool {
	switch op {
	case mip.LessEqual:
		return lhs <= rhs+feasTol
	case mip.GreaterEqual:
		return lhs >= rhs-feasTol
	default:
		return math.Abs(lhs-rhs) <= feasTol
	}
}

func integral(point []float64, free []int) bool {
	for _, j := range free {
		v := point[j]
		if math.Abs(v-math.Round(v)) > feasTol {
			return false
		}
	}
	return true
}

// pickBranch returns the most fractional free variable and the value to try
// first. Without a relaxation point it takes the first free variable, trying 1.
func pickBranch(free []int, point []float64) (int, int8) {
	if point == nil {
		return free[0], 1
	}

	best := free[0]
	bestDist := -1.0
	for _, j := range free {
		v := point[j]
		dist := math.Min(v, 1-v)
		if dist > bestDist+feasTol {
			best = j
			bestDist = dist
		}
	}

	if point[best] >= 0.5 {
		return best, 1
	}
	return best, 0
}
