// Package calendar builds the 6×7 month grid of a venue calendar, attaches
// availability flags and bookings to it and classifies every cell. The grid
// functions are pure; View adds month navigation over a Fetcher with a guard
// against out-of-order responses.
package calendar

import (
	"fmt"
	"time"

	"github.com/iliyamo/venue-calendar/internal/model"
)

// Month identifies a calendar month. The zero value is not meaningful; build
// months with NewMonth, MonthOf or ParseMonth so the fields are normalized.
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth normalizes year and month through time.Date, so NewMonth(2025, 13)
// is January 2026 and NewMonth(2025, 0) is December 2024.
func NewMonth(year int, month time.Month) Month {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Month{Year: t.Year(), Month: t.Month()}
}

// FromZeroBased builds a month from the zero-based month index (0 = January)
// used by the browser calendar.
func FromZeroBased(year, month int) Month {
	return NewMonth(year, time.Month(month+1))
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	return MonthOf(t), nil
}

// First returns midnight UTC of the first day of the month.
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Add moves n months forward (or backward for negative n).
func (m Month) Add(n int) Month {
	return NewMonth(m.Year, m.Month+time.Month(n))
}

// Next is the following month.
func (m Month) Next() Month { return m.Add(1) }

// Prev is the preceding month.
func (m Month) Prev() Month { return m.Add(-1) }

// Days returns the number of days in the month.
func (m Month) Days() int {
	return m.First().AddDate(0, 1, -1).Day()
}

// Range returns the first and last ISO dates of the month, the window a
// month view requests from the availability endpoint.
func (m Month) Range() (start, end string) {
	first := m.First()
	return first.Format(model.DateLayout), first.AddDate(0, 1, -1).Format(model.DateLayout)
}

// Grid is shorthand for MonthGrid(m.Year, m.Month).
func (m Month) Grid() []model.CalendarDay {
	return MonthGrid(m.Year, m.Month)
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}
