package model

// CalendarDay is one cell of a month grid. It is built fresh for every month
// view and never persisted.
type CalendarDay struct {
	Date           string              `json:"date"`
	IsCurrentMonth bool                `json:"is_current_month"`
	Availability   *AvailabilityRecord `json:"availability,omitempty"`
	Bookings       []BookingRecord     `json:"bookings"`
}
