package branchbound

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

func TestLPProblem_SolveMatchesStandardForm(t *testing.T) {
	tests := []struct {
		name  string
		p     *lpProblem
		value float64
	}{
		{
			name: "budget",
			p: &lpProblem{
				c:     []float64{5, 4, 3},
				le:    [][]float64{{1, 1, 1}},
				leRHS: []float64{2},
				upper: []float64{1, 1, 1},
			},
			value: 9,
		},
		{
			name: "fractional equality",
			p: &lpProblem{
				c:     []float64{3, 2},
				eq:    [][]float64{{1, 1}},
				eqRHS: []float64{1.5},
				upper: []float64{1, 1},
			},
			value: 4,
		},
		{
			name: "negative right hand side",
			p: &lpProblem{
				c:     []float64{-2, -3},
				le:    [][]float64{{-1, -1}},
				leRHS: []float64{-1},
				upper: []float64{1, 1},
			},
			value: -2,
		},
		{
			name: "dependent equalities",
			p: &lpProblem{
				c:     []float64{1, 2, 0},
				eq:    [][]float64{{1, 1, 0}, {2, 2, 0}, {0, 1, 1}},
				eqRHS: []float64{1, 2, 1},
				upper: []float64{1, 1, 1},
			},
			value: 2,
		},
		{
			name: "cardinality choice",
			p: &lpProblem{
				c:     []float64{3, 2, -10, 0},
				eq:    [][]float64{{1, 1, 1, -2}},
				eqRHS: []float64{0},
				upper: []float64{1, 1, 1, 1},
			},
			value: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, x, err := tt.p.solve(context.Background())
			require.NoError(t, err)
			assert.InDelta(t, tt.value, value, 1e-9)
			require.Len(t, x, len(tt.p.c))
			for k, v := range x {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, tt.p.upper[k])
			}

			gonumValue, _, err := tt.p.solveStandardForm()
			require.NoError(t, err)
			assert.InDelta(t, gonumValue, value, 1e-6)
		})
	}
}

func TestLPProblem_Infeasible(t *testing.T) {
	tests := []struct {
		name string
		p    *lpProblem
	}{
		{
			name: "out of bounds",
			p: &lpProblem{
				c:     []float64{1, 1},
				eq:    [][]float64{{1, 1}},
				eqRHS: []float64{3},
				upper: []float64{1, 1},
			},
		},
		{
			name: "inconsistent dependent rows",
			p: &lpProblem{
				c:     []float64{1, 1},
				eq:    [][]float64{{1, 1}, {2, 2}},
				eqRHS: []float64{1, 3},
				upper: []float64{1, 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.p.solve(context.Background())
			assert.True(t, errors.Is(err, lp.ErrInfeasible), "got %v", err)

			_, _, err = tt.p.solveStandardForm()
			assert.Error(t, err)
		})
	}
}

func TestLPProblem_HonoursCancelledContext(t *testing.T) {
	p := &lpProblem{
		c:     []float64{1, 1},
		le:    [][]float64{{1, 1}},
		leRHS: []float64{1},
		upper: []float64{1, 1},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := p.solve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
