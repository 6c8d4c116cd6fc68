package policy_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campuslib/lending-service/lending/internal/policy"
)

func TestFine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		daysHeld int
		want     int
	}{
		{name: "same day", daysHeld: 0, want: 0},
		{name: "within period", daysHeld: 3, want: 0},
		{name: "due date boundary", daysHeld: 7, want: 0},
		{name: "one day late", daysHeld: 8, want: 10},
		{name: "three days late", daysHeld: 10, want: 30},
		{name: "a month late", daysHeld: 37, want: 300},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, policy.Fine(tt.daysHeld))
		})
	}
}

func TestFine_monotonic(t *testing.T) {
	t.Parallel()
	prev := 0
	for days := 0; days <= 60; days++ {
		fine := policy.Fine(days)
		require.GreaterOrEqual(t, fine, prev)
		require.Zero(t, fine%policy.FinePerDay)
		prev = fine
	}
}

func TestDaysBetween(t *testing.T) {
	t.Parallel()

	issue := time.Date(2024, 3, 1, 23, 45, 0, 0, time.UTC)

	// Calendar difference, not elapsed hours.
	require.Equal(t, 1, policy.DaysBetween(issue, time.Date(2024, 3, 2, 0, 15, 0, 0, time.UTC)))
	require.Equal(t, 0, policy.DaysBetween(issue, issue))
	require.Equal(t, 10, policy.DaysBetween(issue, time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)))
}

func TestDueDate(t *testing.T) {
	t.Parallel()

	issue := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), policy.DueDate(issue))
}
