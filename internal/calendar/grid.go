package calendar

import (
	"time"

	"github.com/iliyamo/venue-calendar/internal/model"
)

const (
	// GridCells is the fixed size of a month grid: six weeks of seven days.
	GridCells = 42
	// WeekStart is the weekday of the first grid column.
	WeekStart = time.Sunday
)

// MonthGrid returns the 42 cells of the month view for year/month.
//
// The grid opens with the trailing days of the previous month needed to
// reach the first weekday, continues with every day of the month and is
// padded with leading days of the next month. Only days of the requested
// month have IsCurrentMonth set. Month lengths, leap years and year rollover
// all come from time.Date arithmetic.
func MonthGrid(year int, month time.Month) []model.CalendarDay {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	lead := (int(first.Weekday()) - int(WeekStart) + 7) % 7
	start := first.AddDate(0, 0, -lead)

	days := make([]model.CalendarDay, GridCells)
	for i := range days {
		d := start.AddDate(0, 0, i)
		days[i] = model.CalendarDay{
			Date:           d.Format(model.DateLayout),
			IsCurrentMonth: d.Year() == first.Year() && d.Month() == first.Month(),
			Bookings:       []model.BookingRecord{},
		}
	}
	return days
}
