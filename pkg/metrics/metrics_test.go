package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkdraganov/LAPATOS/pkg/mip"
)

func TestSolverMetrics_ObserveSolve(t *testing.T) {
	m, err := NewSolverMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.ObserveSolve("branchbound", &mip.Solution{Status: mip.Optimal, Objective: 30, Nodes: 12, Elapsed: 20 * time.Millisecond})
	m.ObserveSolve("branchbound", &mip.Solution{Status: mip.Infeasible, Nodes: 3, Elapsed: time.Millisecond})
	m.ObserveSolve("branchbound", nil)

	expected := `
# HELP lapatos_solves_total Solver invocations by backend and final status
# TYPE lapatos_solves_total counter
lapatos_solves_total{backend="branchbound",status="Infeasible"} 1
lapatos_solves_total{backend="branchbound",status="Optimal"} 1
`
	assert.NoError(t, testutil.CollectAndCompare(m.solves, strings.NewReader(expected)))

	// Infeasible solves leave the last objective untouched
	assert.Equal(t, 30.0, testutil.ToFloat64(m.objective.WithLabelValues("branchbound")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.nodes.WithLabelValues("branchbound")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestNewSolverMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewSolverMetrics(reg)
	require.NoError(t, err)
	second, err := NewSolverMetrics(reg)
	require.NoError(t, err)

	first.ObserveSolve("cbc", &mip.Solution{Status: mip.Optimal, Objective: 1})
	assert.Equal(t, 1.0, testutil.ToFloat64(second.solves.WithLabelValues("cbc", "Optimal")))
}

func TestSolverMetrics_WriteTextfile(t *testing.T) {
	m, err := NewSolverMetrics(nil)
	require.NoError(t, err)
	m.ObserveSolve("cbc", &mip.Solution{Status: mip.Optimal, Objective: 7.5, Elapsed: time.Second})

	path := filepath.Join(t.TempDir(), "textfile", "lapatos.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `lapatos_objective_value{backend="cbc"} 7.5`)
	assert.Contains(t, string(data), `lapatos_solve_duration_seconds_count{backend="cbc"} 1`)
}
