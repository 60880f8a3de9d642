package selector

import "fmt"

// Capacities are the cycle parameters the model is built from
type Capacities struct {
	// Rounds is the number of rounds in the cycle
	Rounds int

	// RoundsPerMember is the number of rounds a participating member is given.
	// A member is assigned either exactly this many rounds or none.
	RoundsPerMember int

	// MembersPerRound is the exact number of members every round must hold
	MembersPerRound int
}

// DefaultCapacities returns the standard cycle: 6 rounds, 3 per member, 5 per round
func DefaultCapacities() Capacities {
	return Capacities{
		Rounds:          6,
		RoundsPerMember: 3,
		MembersPerRound: 5,
	}
}

// Validate checks all capacities are positive and consistent
func (c Capacities) Validate() error {
	if c.Rounds <= 0 {
		return fmt.Errorf("rounds must be positive, got %d", c.Rounds)
	}
	if c.RoundsPerMember <= 0 {
		return fmt.Errorf("rounds per member must be positive, got %d", c.RoundsPerMember)
	}
	if c.RoundsPerMember > c.Rounds {
		return fmt.Errorf("rounds per member (%d) exceeds rounds (%d)", c.RoundsPerMember, c.Rounds)
	}
	if c.MembersPerRound <= 0 {
		return fmt.Errorf("members per round must be positive, got %d", c.MembersPerRound)
	}
	return nil
}

// RequiredSlots is the number of assignments every feasible solution contains
func (c Capacities) RequiredSlots() int {
	return c.Rounds * c.MembersPerRound
}
