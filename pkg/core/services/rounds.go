package services

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// RoundDates returns the first `rounds` occurrences of an RRULE schedule.
// An empty schedule yields no dates.
func RoundDates(schedule string, rounds int) ([]time.Time, error) {
	if schedule == "" {
		return nil, nil
	}

	rule, err := rrule.StrToRRule(schedule)
	if err != nil {
		return nil, fmt.Errorf("failed to parse round schedule: %w", err)
	}

	dates := make([]time.Time, 0, rounds)
	next := rule.Iterator()
	for len(dates) < rounds {
		date, ok := next()
		if !ok {
			return nil, fmt.Errorf("round schedule yields %d dates, need %d", len(dates), rounds)
		}
		dates = append(dates, date)
	}

	return dates, nil
}
