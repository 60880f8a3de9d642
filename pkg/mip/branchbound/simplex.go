package branchbound

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	pivotTol = 1e-9
	costTol  = 1e-9

	// blandAfter is the number of consecutive degenerate pivots after which
	// entering and leaving choices fall back to Bland's rule
	blandAfter = 50

	// pivotCtxInterval is how many pivots run between context checks
	pivotCtxInterval = 32
)

var (
	errIterationLimit = errors.New("branchbound: simplex iteration limit reached")
	errUnbounded      = errors.New("branchbound: relaxation is unbounded")
)

// lpProblem is the relaxation at one node:
// maximise c·x subject to eq·x = eqRHS, le·x <= leRHS, 0 <= x <= upper.
type lpProblem struct {
	c     []float64
	eq    [][]float64
	eqRHS []float64
	le    [][]float64
	leRHS []float64
	upper []float64
}

// tableau is a dense bounded-variable simplex tableau. Columns are the
// structural variables, then one slack per le row, then the artificials.
// Nonbasic variables sit at their lower bound 0 or, when atUpper, at upper.
type tableau struct {
	t       *mat.Dense // B⁻¹A
	beta    []float64  // values of the basic variables, by row
	d       []float64  // reduced costs
	cost    []float64
	upper   []float64
	basis   []int
	pos     []int // row of a basic column, -1 when nonbasic
	atUpper []bool

	artStart int
}

// solve runs both simplex phases. It returns lp.ErrInfeasible when phase one
// cannot drive the artificials to zero.
func (p *lpProblem) solve(ctx context.Context) (float64, []float64, error) {
	tb := newTableau(p)
	limit := 20*(len(tb.basis)+len(tb.cost)) + 100

	if tb.artStart < len(tb.cost) {
		for j := range tb.cost {
			tb.cost[j] = 0
			if j >= tb.artStart {
				tb.cost[j] = -1
			}
		}
		tb.resetReducedCosts()
		if err := tb.optimise(ctx, limit); err != nil {
			return 0, nil, err
		}

		infeasibility := 0.0
		for i, j := range tb.basis {
			if j >= tb.artStart {
				infeasibility += tb.beta[i]
			}
		}
		if infeasibility > feasTol {
			return 0, nil, lp.ErrInfeasible
		}

		// Artificials are pinned to zero for phase two; basic ones leave on
		// the first pivot that touches their row.
		for j := tb.artStart; j < len(tb.cost); j++ {
			tb.upper[j] = 0
		}
	}

	for j := range tb.cost {
		tb.cost[j] = 0
	}
	copy(tb.cost, p.c)
	tb.resetReducedCosts()
	if err := tb.optimise(ctx, limit); err != nil {
		return 0, nil, err
	}

	x := make([]float64, len(p.c))
	value := 0.0
	for j := range x {
		x[j] = tb.value(j)
		value += p.c[j] * x[j]
	}
	return value, x, nil
}

func newTableau(p *lpProblem) *tableau {
	nf := len(p.c)
	nle := len(p.le)
	m := len(p.eq) + nle

	// Every equality row and every le row with a negative right hand side
	// starts on an artificial
	nart := len(p.eq)
	for _, b := range p.leRHS {
		if b < 0 {
			nart++
		}
	}

	cols := nf + nle + nart
	tb := &tableau{
		t:        mat.NewDense(max(m, 1), max(cols, 1), nil),
		beta:     make([]float64, m),
		d:        make([]float64, cols),
		cost:     make([]float64, cols),
		upper:    make([]float64, cols),
		basis:    make([]int, m),
		pos:      make([]int, cols),
		atUpper:  make([]bool, cols),
		artStart: nf + nle,
	}
	for j := range tb.pos {
		tb.pos[j] = -1
	}
	copy(tb.upper, p.upper)
	for j := nf; j < cols; j++ {
		tb.upper[j] = math.Inf(1)
	}

	art := tb.artStart
	setRow := func(i int, coefs []float64, rhs float64, slack int) {
		row := tb.t.RawRowView(i)
		copy(row, coefs)
		if slack >= 0 {
			row[slack] = 1
		}
		if slack >= 0 && rhs >= 0 {
			tb.beta[i] = rhs
			tb.basis[i] = slack
			tb.pos[slack] = i
			return
		}
		// Scale the row so the artificial enters with coefficient +1 and a
		// non-negative value
		sign := 1.0
		if rhs < 0 {
			sign = -1
		}
		floats.Scale(sign, row[:art])
		row[art] = 1
		tb.beta[i] = sign * rhs
		tb.basis[i] = art
		tb.pos[art] = i
		art++
	}

	for i, coefs := range p.eq {
		setRow(i, coefs, p.eqRHS[i], -1)
	}
	for l, coefs := range p.le {
		setRow(len(p.eq)+l, coefs, p.leRHS[l], nf+l)
	}

	return tb
}

func (tb *tableau) resetReducedCosts() {
	copy(tb.d, tb.cost)
	for i, j := range tb.basis {
		if cb := tb.cost[j]; cb != 0 {
			floats.AddScaled(tb.d, -cb, tb.t.RawRowView(i)[:len(tb.d)])
		}
	}
}

func (tb *tableau) value(j int) float64 {
	var v float64
	switch {
	case tb.pos[j] >= 0:
		v = tb.beta[tb.pos[j]]
	case tb.atUpper[j]:
		v = tb.upper[j]
	}
	return math.Min(math.Max(v, 0), tb.upper[j])
}

func (tb *tableau) optimise(ctx context.Context, limit int) error {
	degenerate := 0
	for iter := 0; ; iter++ {
		if iter >= limit {
			return errIterationLimit
		}
		if iter%pivotCtxInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		bland := degenerate > blandAfter
		q, dir := tb.entering(bland)
		if q < 0 {
			return nil
		}

		step, leave := tb.ratio(q, dir, bland)
		if math.IsInf(step, 1) {
			return errUnbounded
		}
		if step < pivotTol {
			degenerate++
		} else {
			degenerate = 0
		}
		tb.move(q, dir, step, leave)
	}
}

// entering picks the nonbasic column with the most attractive reduced cost,
// or the lowest eligible index under Bland's rule. dir is +1 when the
// variable rises from its lower bound and -1 when it falls from its upper.
func (tb *tableau) entering(bland bool) (int, float64) {
	best, bestDir, bestScore := -1, 0.0, 0.0
	for j, dj := range tb.d {
		if tb.pos[j] >= 0 || tb.upper[j] == 0 {
			continue
		}
		var dir, score float64
		switch {
		case !tb.atUpper[j] && dj > costTol:
			dir, score = 1, dj
		case tb.atUpper[j] && dj < -costTol:
			dir, score = -1, -dj
		default:
			continue
		}
		if bland {
			return j, dir
		}
		if score > bestScore {
			best, bestDir, bestScore = j, dir, score
		}
	}
	return best, bestDir
}

// ratio returns how far column q can move and the row whose basic variable
// blocks it, or -1 when q reaches its own opposite bound first.
func (tb *tableau) ratio(q int, dir float64, bland bool) (float64, int) {
	step, leave := tb.upper[q], -1
	for i := range tb.beta {
		alpha := dir * tb.t.At(i, q)
		var limit float64
		switch {
		case alpha > pivotTol:
			limit = tb.beta[i] / alpha
		case alpha < -pivotTol:
			ub := tb.upper[tb.basis[i]]
			if math.IsInf(ub, 1) {
				continue
			}
			limit = (ub - tb.beta[i]) / -alpha
		default:
			continue
		}
		limit = math.Max(limit, 0)

		switch {
		case limit < step-pivotTol:
			step, leave = limit, i
		case limit <= step+pivotTol && leave >= 0 && bland && tb.basis[i] < tb.basis[leave]:
			step, leave = limit, i
		}
	}
	return step, leave
}

func (tb *tableau) move(q int, dir, step float64, leave int) {
	if step > 0 {
		for i := range tb.beta {
			tb.beta[i] -= dir * step * tb.t.At(i, q)
		}
	}

	if leave < 0 {
		tb.atUpper[q] = !tb.atUpper[q]
		return
	}

	out := tb.basis[leave]
	tb.atUpper[out] = dir*tb.t.At(leave, q) < 0

	start := 0.0
	if tb.atUpper[q] {
		start = tb.upper[q]
	}
	tb.beta[leave] = start + dir*step
	tb.atUpper[q] = false

	tb.pivot(leave, q)
	tb.basis[leave] = q
	tb.pos[out] = -1
	tb.pos[q] = leave
}

func (tb *tableau) pivot(r, q int) {
	cols := len(tb.d)
	rowR := tb.t.RawRowView(r)[:cols]
	floats.Scale(1/rowR[q], rowR)

	for i := range tb.beta {
		if i == r {
			continue
		}
		row := tb.t.RawRowView(i)[:cols]
		if f := row[q]; f != 0 {
			floats.AddScaled(row, -f, rowR)
		}
	}
	if f := tb.d[q]; f != 0 {
		floats.AddScaled(tb.d, -f, rowR)
	}
}

// solveStandardForm hands the relaxation to gonum's dense simplex. Bounds
// become slack columns (x + u = upper) rather than extra inequality rows, and
// linearly dependent equality rows are dropped first since lp.Simplex needs
// full row rank.
func (p *lpProblem) solveStandardForm() (float64, []float64, error) {
	nf := len(p.c)
	nle := len(p.le)
	keep, dropped := independentRows(p.eq)

	rows := len(keep) + nle + nf
	cols := nf + nle + nf
	a := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	c := make([]float64, cols)
	for k, v := range p.c {
		c[k] = -v
	}

	r := 0
	for _, idx := range keep {
		copy(a.RawRowView(r), p.eq[idx])
		b[r] = p.eqRHS[idx]
		r++
	}
	for l, coefs := range p.le {
		copy(a.RawRowView(r), coefs)
		a.Set(r, nf+l, 1)
		b[r] = p.leRHS[l]
		r++
	}
	for k := 0; k < nf; k++ {
		a.Set(r, k, 1)
		a.Set(r, nf+nle+k, 1)
		b[r] = p.upper[k]
		r++
	}

	optF, optX, err := lp.Simplex(c, a, b, simplexTol, nil)
	if err != nil {
		return 0, nil, err
	}
	x := optX[:nf]

	// A dependent row that the optimum violates is inconsistent with the
	// rows kept, so the relaxation is infeasible
	for _, idx := range dropped {
		if math.Abs(floats.Dot(p.eq[idx], x)-p.eqRHS[idx]) > feasTol {
			return 0, nil, lp.ErrInfeasible
		}
	}

	return -optF, x, nil
}
