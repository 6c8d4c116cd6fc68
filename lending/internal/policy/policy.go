package policy

import (
	"time"
)

// Loan policy constants. Fixed, not runtime-configurable.
const (
	MaxIssueDays = 7
	FinePerDay   = 10
)

// DaysBetween is the whole calendar-day difference between two instants,
// by date truncation rather than elapsed time. Returning at 09:00 a book
// issued yesterday at 23:00 counts as one day held.
func DaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

func DueDate(issueDate time.Time) time.Time {
	return issueDate.AddDate(0, 0, MaxIssueDays)
}

// Fine charges FinePerDay for every day held beyond MaxIssueDays.
// Both the return path and the fine preview go through here, so the
// amount previewed on day N always equals the amount charged on day N.
func Fine(daysHeld int) int {
	if daysHeld > MaxIssueDays {
		return (daysHeld - MaxIssueDays) * FinePerDay
	}
	return 0
}
