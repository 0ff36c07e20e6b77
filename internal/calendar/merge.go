package calendar

import "github.com/iliyamo/venue-calendar/internal/model"

// Merge attaches availability and bookings to the current-month cells of
// grid and returns the populated copy. grid and the record slices are left
// untouched.
//
// Availability is looked up by date; if the input holds two records for the
// same date the later one wins. Bookings are grouped by the date portion of
// BookingDate in input order. Cells outside the month stay empty.
func Merge(grid []model.CalendarDay, availability []model.AvailabilityRecord, bookings []model.BookingRecord) []model.CalendarDay {
	byDate := make(map[string]model.AvailabilityRecord, len(availability))
	for _, a := range availability {
		byDate[DatePart(a.Date)] = a
	}
	booked := make(map[string][]model.BookingRecord)
	for _, b := range bookings {
		k := DatePart(b.BookingDate)
		booked[k] = append(booked[k], b)
	}

	out := make([]model.CalendarDay, len(grid))
	for i, d := range grid {
		cell := model.CalendarDay{
			Date:           d.Date,
			IsCurrentMonth: d.IsCurrentMonth,
			Bookings:       []model.BookingRecord{},
		}
		if d.IsCurrentMonth {
			if a, ok := byDate[d.Date]; ok {
				cell.Availability = &a
			}
			cell.Bookings = append(cell.Bookings, booked[d.Date]...)
		}
		out[i] = cell
	}
	return out
}

// DatePart strips any time-of-day suffix from an ISO date or timestamp
// ("2025-03-15 18:00:00", "2025-03-15T18:00:00Z") and returns the YYYY-MM-DD
// prefix. Shorter strings are returned as is.
func DatePart(s string) string {
	if len(s) > len(model.DateLayout) {
		return s[:len(model.DateLayout)]
	}
	return s
}
