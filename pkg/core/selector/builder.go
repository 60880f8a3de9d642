package selector

import (
	"fmt"

	"github.com/kkdraganov/LAPATOS/pkg/core/model"
	"github.com/kkdraganov/LAPATOS/pkg/mip"
)

// modelName names the built program in solver output
const modelName = "LAPATOS"

// AssignmentKey identifies an assignment variable by member row and 0-indexed round
type AssignmentKey struct {
	Member int
	Round  int
}

// Build is a constructed model together with the variable handles needed to decode it
type Build struct {
	Model      *mip.Model
	Capacities Capacities

	// Assignments[i][r] is the variable for member i in round r
	Assignments [][]mip.VarID

	// Helpers[i] is 1 when member i participates
	Helpers []mip.VarID
}

// Keys returns every assignment variable keyed by (member, round)
func (b *Build) Keys() map[AssignmentKey]mip.VarID {
	keys := make(map[AssignmentKey]mip.VarID, len(b.Assignments)*b.Capacities.Rounds)
	for i, row := range b.Assignments {
		for r, v := range row {
			keys[AssignmentKey{Member: i, Round: r}] = v
		}
	}
	return keys
}

// BuildModel constructs the integer program for the table:
//
//	maximize   sum_i sum_r x[i][r] * score[i][r]
//	subject to sum_r x[i][r] = RoundsPerMember * h[i]   for every member i
//	           sum_i x[i][r] = MembersPerRound          for every round r
//
// with x and h binary. Feasibility is left to the solver.
func BuildModel(table *model.PreferenceTable, caps Capacities) (*Build, error) {
	if err := caps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid capacities: %w", err)
	}
	if err := table.Validate(caps.Rounds); err != nil {
		return nil, err
	}

	size := table.Size()
	m := mip.NewModel(modelName, mip.Maximize)
	b := &Build{
		Model:       m,
		Capacities:  caps,
		Assignments: make([][]mip.VarID, size),
		Helpers:     make([]mip.VarID, size),
	}

	// Assignment variables and objective
	for i := 0; i < size; i++ {
		b.Assignments[i] = make([]mip.VarID, caps.Rounds)
		for r := 0; r < caps.Rounds; r++ {
			v := m.AddBinary(fmt.Sprintf("x_%d_%d", i, r))
			b.Assignments[i][r] = v
			m.AddObjectiveTerm(v, table.Score(i, r))
		}
	}

	// Helper variables
	for i := 0; i < size; i++ {
		b.Helpers[i] = m.AddBinary(fmt.Sprintf("h_%d", i))
	}

	// Each member gets either RoundsPerMember rounds or none
	for i := 0; i < size; i++ {
		terms := make([]mip.Term, caps.Rounds)
		for r := 0; r < caps.Rounds; r++ {
			terms[r] = mip.Term{Var: b.Assignments[i][r], Coef: 1}
		}
		m.AddCardinalityChoice(fmt.Sprintf("participation_%d", i), terms, float64(caps.RoundsPerMember), b.Helpers[i])
	}

	// Each round holds exactly MembersPerRound members
	for r := 0; r < caps.Rounds; r++ {
		terms := make([]mip.Term, size)
		for i := 0; i < size; i++ {
			terms[i] = mip.Term{Var: b.Assignments[i][r], Coef: 1}
		}
		m.AddConstraint(fmt.Sprintf("capacity_%d", r), terms, mip.Equal, float64(caps.MembersPerRound))
	}

	return b, nil
}
