package selector

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kkdraganov/LAPATOS/pkg/core/model"
	"github.com/kkdraganov/LAPATOS/pkg/mip"
	"github.com/kkdraganov/LAPATOS/pkg/mip/branchbound"
)

// stubSolver returns whatever solve produces for the model
type stubSolver struct {
	solve func(m *mip.Model) (*mip.Solution, error)
	calls int
}

func (s *stubSolver) Name() string { return "stub" }

func (s *stubSolver) Solve(ctx context.Context, m *mip.Model) (*mip.Solution, error) {
	s.calls++
	return s.solve(m)
}

// recordingObserver captures observed solves
type recordingObserver struct {
	backends []string
	statuses []mip.Status
}

func (o *recordingObserver) ObserveSolve(backend string, solution *mip.Solution) {
	o.backends = append(o.backends, backend)
	o.statuses = append(o.statuses, solution.Status)
}

func tableFromScores(scores [][]float64, topics ...string) *model.PreferenceTable {
	table := &model.PreferenceTable{Topics: topics}
	for i, row := range scores {
		table.Members = append(table.Members, model.Member{
			Name:   fmt.Sprintf("Member %d", i+1),
			Scores: row,
		})
	}
	return table
}

func uniformScores(members, rounds int, value float64) [][]float64 {
	scores := make([][]float64, members)
	for i := range scores {
		scores[i] = make([]float64, rounds)
		for r := range scores[i] {
			scores[i][r] = value
		}
	}
	return scores
}

var sixTopics = []string{"Opening", "Rebuttal", "Crossfire", "Summary", "Final Focus", "Impromptu"}

func TestSelect_UndersizedRosterIsInfeasible(t *testing.T) {
	// 5 members x 3 rounds = 15 slots, but 6 rounds x 5 members = 30 are required
	table := tableFromScores([][]float64{
		{9, 1, 1, 1, 1, 1},
		{1, 9, 1, 1, 1, 1},
		{1, 1, 9, 1, 1, 1},
		{1, 1, 1, 9, 1, 1},
		{1, 1, 1, 1, 9, 1},
	}, sixTopics...)

	observer := &recordingObserver{}
	s := New(branchbound.New(), DefaultCapacities(), zap.NewNop(), observer)

	result, err := s.Select(context.Background(), table)

	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInfeasibleModel))
	var infeasible *InfeasibleModelError
	require.ErrorAs(t, err, &infeasible)
	assert.Equal(t, mip.Infeasible, infeasible.Status)
	assert.Equal(t, []mip.Status{mip.Infeasible}, observer.statuses)
}

func TestSelect_ExactlyFilledRoster(t *testing.T) {
	// 10 members x 3 rounds = 30 = 6 rounds x 5 members
	table := tableFromScores(uniformScores(10, 6, 1), sixTopics...)
	caps := DefaultCapacities()

	result, err := New(branchbound.New(), caps, zap.NewNop(), nil).Select(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, mip.Optimal, result.Status)
	assert.InDelta(t, 30.0, result.Objective, 1e-9)
	assert.Equal(t, sixTopics, result.Grid.Topics)
	require.Len(t, result.Grid.Rows, 10)

	for _, row := range result.Grid.Rows {
		assert.Len(t, row.Rounds(), caps.RoundsPerMember, "member %s", row.Member)
	}
	for r := range sixTopics {
		assert.Equal(t, caps.MembersPerRound, result.Grid.RoundCount(r), "round %d", r)
	}
}

func TestSelect_InvariantsWithSurplusMembers(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	scores := make([][]float64, 12)
	for i := range scores {
		scores[i] = make([]float64, 6)
		for r := range scores[i] {
			scores[i][r] = float64(rng.Intn(10))
		}
	}
	table := tableFromScores(scores, sixTopics...)
	caps := DefaultCapacities()

	result, err := New(branchbound.New(), caps, zap.NewNop(), nil).Select(context.Background(), table)
	require.NoError(t, err)

	// Every member appears, with 0 or 3 rounds
	require.Len(t, result.Grid.Rows, 12)
	participants := 0
	for i, row := range result.Grid.Rows {
		assert.Equal(t, table.Members[i].Name, row.Member)
		count := len(row.Rounds())
		assert.Contains(t, []int{0, caps.RoundsPerMember}, count, "member %s", row.Member)
		if count > 0 {
			participants++
		}
	}
	assert.Equal(t, 10, participants)

	for r := range sixTopics {
		assert.Equal(t, caps.MembersPerRound, result.Grid.RoundCount(r), "round %d", r)
	}

	// The reported objective is the sum of the selected scores
	total := 0.0
	for i, row := range result.Grid.Rows {
		for _, r := range row.Rounds() {
			total += table.Score(i, r)
		}
	}
	assert.InDelta(t, total, result.Objective, 1e-9)
}

// bruteForceBest enumerates every assignment satisfying both constraint
// families and returns the best objective, or false when none exists
func bruteForceBest(table *model.PreferenceTable, caps Capacities) (float64, bool) {
	// Candidate round sets per member: empty, or any RoundsPerMember-subset
	var options [][]int
	options = append(options, nil)
	for mask := 0; mask < 1<<caps.Rounds; mask++ {
		var rounds []int
		for r := 0; r < caps.Rounds; r++ {
			if mask&(1<<r) != 0 {
				rounds = append(rounds, r)
			}
		}
		if len(rounds) == caps.RoundsPerMember {
			options = append(options, rounds)
		}
	}

	best, found := 0.0, false
	counts := make([]int, caps.Rounds)
	var walk func(i int, value float64)
	walk = func(i int, value float64) {
		if i == table.Size() {
			for _, c := range counts {
				if c != caps.MembersPerRound {
					return
				}
			}
			if !found || value > best {
				best, found = value, true
			}
			return
		}
		for _, option := range options {
			gain := 0.0
			for _, r := range option {
				counts[r]++
				gain += table.Score(i, r)
			}
			walk(i+1, value+gain)
			for _, r := range option {
				counts[r]--
			}
		}
	}
	walk(0, 0)

	return best, found
}

func TestSelect_MatchesBruteForce(t *testing.T) {
	caps := Capacities{Rounds: 3, RoundsPerMember: 2, MembersPerRound: 2}
	topics := []string{"A", "B", "C"}

	for seed := int64(1); seed <= 6; seed++ {
		t.Run(fmt.Sprintf("seed_%d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			scores := make([][]float64, 5)
			for i := range scores {
				scores[i] = make([]float64, caps.Rounds)
				for r := range scores[i] {
					scores[i][r] = float64(rng.Intn(21) - 5)
				}
			}
			table := tableFromScores(scores, topics...)

			expected, feasible := bruteForceBest(table, caps)
			require.True(t, feasible)

			result, err := New(branchbound.New(), caps, zap.NewNop(), nil).Select(context.Background(), table)
			require.NoError(t, err)
			assert.InDelta(t, expected, result.Objective, 1e-9)

			propagationOnly, err := New(branchbound.New(branchbound.WithoutRelaxation()), caps, zap.NewNop(), nil).Select(context.Background(), table)
			require.NoError(t, err)
			assert.InDelta(t, expected, propagationOnly.Objective, 1e-9)
		})
	}
}

func TestSelect_Deterministic(t *testing.T) {
	table := tableFromScores(uniformScores(10, 6, 2), sixTopics...)
	s := New(branchbound.New(), DefaultCapacities(), zap.NewNop(), nil)

	first, err := s.Select(context.Background(), table)
	require.NoError(t, err)
	second, err := s.Select(context.Background(), table)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Grid, second.Grid); diff != "" {
		t.Errorf("grids differ between runs (-first +second):\n%s", diff)
	}
}

func TestSelect_LabelsFollowInputColumnOrder(t *testing.T) {
	topics := []string{"Zeta", "Alpha", "Mu"}
	table := tableFromScores([][]float64{
		{0, 0, 5},
		{5, 0, 0},
		{0, 5, 0},
	}, topics...)
	caps := Capacities{Rounds: 3, RoundsPerMember: 1, MembersPerRound: 1}

	result, err := New(branchbound.New(), caps, zap.NewNop(), nil).Select(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, topics, result.Grid.Topics)
	assert.Equal(t, []string{"Member 2"}, result.Grid.RoundMembers(0))
	assert.Equal(t, []string{"Member 3"}, result.Grid.RoundMembers(1))
	assert.Equal(t, []string{"Member 1"}, result.Grid.RoundMembers(2))
}

func TestSelect_StubSolverDecodesUnassignedMembers(t *testing.T) {
	table := tableFromScores([][]float64{{1, 0}, {0, 1}, {0, 0}}, "First", "Second")
	caps := Capacities{Rounds: 2, RoundsPerMember: 1, MembersPerRound: 1}

	stub := &stubSolver{solve: func(m *mip.Model) (*mip.Solution, error) {
		values := make(map[mip.VarID]float64)
		for _, name := range []string{"x_0_0", "x_1_1", "h_0", "h_1"} {
			id, ok := m.VarByName(name)
			require.True(t, ok, name)
			values[id] = 1
		}
		return &mip.Solution{Status: mip.Optimal, Objective: 2, Values: values}, nil
	}}

	result, err := New(stub, caps, nil, nil).Select(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 1, stub.calls)
	require.Len(t, result.Grid.Rows, 3)
	row, ok := result.Grid.Row("Member 3")
	require.True(t, ok)
	assert.Equal(t, []model.Mark{model.NotAssigned, model.NotAssigned}, row.Marks)
}

func TestSelect_NonOptimalStatuses(t *testing.T) {
	table := tableFromScores([][]float64{{1, 0}, {0, 1}}, "First", "Second")
	caps := Capacities{Rounds: 2, RoundsPerMember: 1, MembersPerRound: 1}

	for _, status := range []mip.Status{mip.Unbounded, mip.NotSolved, mip.Undefined} {
		t.Run(status.String(), func(t *testing.T) {
			stub := &stubSolver{solve: func(m *mip.Model) (*mip.Solution, error) {
				return &mip.Solution{Status: status}, nil
			}}
			observer := &recordingObserver{}

			result, err := New(stub, caps, zap.NewNop(), observer).Select(context.Background(), table)

			assert.Nil(t, result)
			var infeasible *InfeasibleModelError
			require.ErrorAs(t, err, &infeasible)
			assert.Equal(t, status, infeasible.Status)
			assert.Equal(t, []string{"stub"}, observer.backends)
		})
	}
}

func TestSelect_SolverUnavailablePropagates(t *testing.T) {
	table := tableFromScores([][]float64{{1, 0}, {0, 1}}, "First", "Second")
	unavailable := &mip.SolverUnavailableError{Backend: "cbc", Err: errors.New("not found")}
	stub := &stubSolver{solve: func(m *mip.Model) (*mip.Solution, error) {
		return nil, unavailable
	}}
	observer := &recordingObserver{}

	_, err := New(stub, Capacities{Rounds: 2, RoundsPerMember: 1, MembersPerRound: 1}, zap.NewNop(), observer).
		Select(context.Background(), table)

	assert.Same(t, unavailable, err)
	assert.True(t, errors.Is(err, mip.ErrSolverUnavailable))
	assert.Empty(t, observer.backends)
}

func TestSelect_MalformedInputSkipsSolver(t *testing.T) {
	table := tableFromScores([][]float64{{1, 0}, {0}}, "First", "Second")
	stub := &stubSolver{solve: func(m *mip.Model) (*mip.Solution, error) {
		t.Fatal("solver must not run on malformed input")
		return nil, nil
	}}

	_, err := New(stub, Capacities{Rounds: 2, RoundsPerMember: 1, MembersPerRound: 1}, zap.NewNop(), nil).
		Select(context.Background(), table)

	assert.True(t, errors.Is(err, model.ErrMalformedInput))
	assert.Equal(t, 0, stub.calls)
}

func TestSelect_RejectsInconsistentSolution(t *testing.T) {
	table := tableFromScores([][]float64{{1, 0}, {0, 1}}, "First", "Second")
	stub := &stubSolver{solve: func(m *mip.Model) (*mip.Solution, error) {
		// Claims optimality with nothing assigned, breaking every capacity row
		return &mip.Solution{Status: mip.Optimal, Values: map[mip.VarID]float64{}}, nil
	}}

	_, err := New(stub, Capacities{Rounds: 2, RoundsPerMember: 1, MembersPerRound: 1}, zap.NewNop(), nil).
		Select(context.Background(), table)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "capacity_0")
}

func TestSelect_RealisticRosterSolvesPromptly(t *testing.T) {
	caps := DefaultCapacities()

	for _, members := range []int{20, 30} {
		t.Run(fmt.Sprintf("%d_members", members), func(t *testing.T) {
			rng := rand.New(rand.NewSource(int64(members)))
			scores := make([][]float64, members)
			for i := range scores {
				scores[i] = make([]float64, caps.Rounds)
				for r := range scores[i] {
					scores[i][r] = float64(rng.Intn(10) + 1)
				}
			}
			table := tableFromScores(scores, sixTopics...)

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			start := time.Now()
			result, err := New(branchbound.New(), caps, zap.NewNop(), nil).Select(ctx, table)
			require.NoError(t, err, "no optimum within %s", time.Since(start))

			assert.Equal(t, mip.Optimal, result.Status)
			for r := range sixTopics {
				assert.Equal(t, caps.MembersPerRound, result.Grid.RoundCount(r), "round %d", r)
			}
			for _, row := range result.Grid.Rows {
				n := len(row.Rounds())
				assert.True(t, n == 0 || n == caps.RoundsPerMember, "member %s has %d rounds", row.Member, n)
			}
			t.Logf("%d members: objective %g, %d nodes, %s", members, result.Objective, result.Nodes, result.Elapsed)
		})
	}
}

func TestSelect_TimeLimitScopedToSolve(t *testing.T) {
	var solveDeadline time.Time
	var hasDeadline bool
	solver := &stubSolver{}
	solver.solve = func(m *mip.Model) (*mip.Solution, error) {
		return &mip.Solution{Status: mip.NotSolved}, nil
	}
	capture := solverFunc(func(ctx context.Context, m *mip.Model) (*mip.Solution, error) {
		solveDeadline, hasDeadline = ctx.Deadline()
		return solver.Solve(ctx, m)
	})

	caps := Capacities{Rounds: 2, RoundsPerMember: 1, MembersPerRound: 1}
	table := tableFromScores([][]float64{{1, 2}, {2, 1}}, "A", "B")
	ctx := context.Background()

	start := time.Now()
	_, err := New(capture, caps, zap.NewNop(), nil).WithTimeLimit(time.Minute).Select(ctx, table)
	assert.ErrorIs(t, err, ErrInfeasibleModel)

	require.True(t, hasDeadline)
	assert.WithinDuration(t, start.Add(time.Minute), solveDeadline, 5*time.Second)
	_, callerHasDeadline := ctx.Deadline()
	assert.False(t, callerHasDeadline)
	assert.Equal(t, 1, solver.calls)
}

func TestSelect_NoTimeLimitLeavesContextUnbounded(t *testing.T) {
	var hasDeadline bool
	capture := solverFunc(func(ctx context.Context, m *mip.Model) (*mip.Solution, error) {
		_, hasDeadline = ctx.Deadline()
		return branchbound.New().Solve(ctx, m)
	})

	caps := Capacities{Rounds: 2, RoundsPerMember: 1, MembersPerRound: 1}
	table := tableFromScores([][]float64{{1, 2}, {2, 1}}, "A", "B")

	result, err := New(capture, caps, zap.NewNop(), nil).Select(context.Background(), table)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, result.Objective, 1e-9)
	assert.False(t, hasDeadline)
}

// solverFunc adapts a function to mip.Solver
type solverFunc func(ctx context.Context, m *mip.Model) (*mip.Solution, error)

func (f solverFunc) Name() string { return "func" }

func (f solverFunc) Solve(ctx context.Context, m *mip.Model) (*mip.Solution, error) {
	return f(ctx, m)
}
