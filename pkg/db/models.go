package db

import "time"

// Run statuses
const (
	RunStatusOptimal    = "Optimal"
	RunStatusInfeasible = "Infeasible"
)

// SelectionRun is one solved (or attempted) selection
type SelectionRun struct {
	ID              string
	CreatedAt       time.Time
	Source          string // input file path or sheet reference
	Backend         string
	Status          string
	Objective       float64
	Rounds          int
	RoundsPerMember int
	MembersPerRound int
	Topics          []string
	Members         []string
	// RoundDates is empty when no round schedule is configured
	RoundDates []time.Time
}

// Assignment places one member in one round of a run
type Assignment struct {
	RunID      string
	Member     string
	RoundIndex int
	Topic      string
	RoundDate  *time.Time
}
