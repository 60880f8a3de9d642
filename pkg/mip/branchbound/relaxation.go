package branchbound

import (
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kkdraganov/LAPATOS/pkg/mip"
)

const (
	simplexTol = 1e-9
	rankTol    = 1e-9
)

// bound returns an upper bound on the objective reachable from fixed.
// point is the relaxation optimum indexed like fixed, or nil when the LP could
// not be solved; feasible is false when the LP proves infeasibility or the
// search context is done.
func (sr *search) bound(fixed []int8, free []int) (float64, []float64, bool) {
	fixedObj := sr.objective(fixed)

	// Trivial bound: every free variable with a positive coefficient set to 1
	trivial := fixedObj
	for _, j := range free {
		if sr.obj[j] > 0 {
			trivial += sr.obj[j]
		}
	}

	if !sr.relaxation {
		return sr.roundBound(trivial), nil, true
	}

	value, point, err := sr.solveRelaxation(fixed, free)
	if err != nil && sr.ctx.Err() != nil {
		sr.aborted = true
		return 0, nil, false
	}
	if errors.Is(err, lp.ErrInfeasible) {
		return 0, nil, false
	}
	if err != nil {
		// Numerical trouble in the simplex; keep searching on the trivial bound
		return sr.roundBound(trivial), nil, true
	}

	return sr.roundBound(math.Min(trivial, fixedObj+value)), point, true
}

// roundBound floors the bound when every objective coefficient is integral,
// since no assignment can then score a fraction
func (sr *search) roundBound(b float64) float64 {
	if !sr.integralObj {
		return b
	}
	return math.Floor(b + feasTol)
}

// solveRelaxation maximises the objective over the free variables relaxed to
// [0, 1], with fixed variables substituted into the right hand sides.
func (sr *search) solveRelaxation(fixed []int8, free []int) (float64, []float64, error) {
	p := sr.relaxationProblem(fixed, free)

	value, x, err := p.solve(sr.ctx)
	if errors.Is(err, errIterationLimit) {
		value, x, err = p.solveStandardForm()
	}
	if err != nil {
		return 0, nil, err
	}

	point := make([]float64, sr.n)
	for k, j := range free {
		point[j] = x[k]
	}
	return value, point, nil
}

func (sr *search) relaxationProblem(fixed []int8, free []int) *lpProblem {
	nf := len(free)
	col := make(map[int]int, nf)
	for k, j := range free {
		col[j] = k
	}

	p := &lpProblem{
		c:     make([]float64, nf),
		upper: make([]float64, nf),
	}
	for k, j := range free {
		p.c[k] = sr.obj[j]
		p.upper[k] = 1
	}

	for _, r := range sr.rows {
		coefs := make([]float64, nf)
		rhs := r.rhs
		nonZero := false
		for k, j := range r.idx {
			switch fixed[j] {
			case 1:
				rhs -= r.coef[k]
			case unfixed:
				coefs[col[j]] += r.coef[k]
				nonZero = true
			}
		}
		// Rows without free variables were already checked by propagation
		if !nonZero {
			continue
		}

		switch r.op {
		case mip.Equal:
			p.eq = append(p.eq, coefs)
			p.eqRHS = append(p.eqRHS, rhs)
		case mip.LessEqual:
			p.le = append(p.le, coefs)
			p.leRHS = append(p.leRHS, rhs)
		case mip.GreaterEqual:
			floats.Scale(-1, coefs)
			p.le = append(p.le, coefs)
			p.leRHS = append(p.leRHS, -rhs)
		}
	}

	return p
}

// independentRows selects a maximal linearly independent subset of rows, in
// order, with one Gram-Schmidt pass over the stacked matrix.
func independentRows(rows [][]float64) (keep, dropped []int) {
	var basis [][]float64
	for i, r := range rows {
		v := slices.Clone(r)
		// Orthogonalising twice keeps the residual accurate in floating point
		for range 2 {
			for _, q := range basis {
				floats.AddScaled(v, -floats.Dot(v, q), q)
			}
		}

		norm := floats.Norm(v, 2)
		if norm <= rankTol*math.Max(1, floats.Norm(r, 2)) {
			dropped = append(dropped, i)
			continue
		}
		floats.Scale(1/norm, v)
		basis = append(basis, v)
		keep = append(keep, i)
	}
	return keep, dropped
}
