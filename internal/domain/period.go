package domain

import (
	"fmt"
	"time"
)

// PeriodWindow is the half-open [Start, End) interval for one YYYY-MM month.
// Dated datasets are filtered by the interval; payroll is declared monthly and
// is matched on the Month token instead.
type PeriodWindow struct {
	Month string
	Start time.Time
	End   time.Time
}

// NewPeriodWindow derives the window from a YYYY-MM month token.
func NewPeriodWindow(month string) (PeriodWindow, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return PeriodWindow{}, fmt.Errorf("invalid period %q, expected YYYY-MM: %w", month, err)
	}
	return PeriodWindow{
		Month: month,
		Start: start,
		End:   start.AddDate(0, 1, 0),
	}, nil
}

// Contains reports whether t falls inside [Start, End).
func (w PeriodWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
