package calendar

import "github.com/iliyamo/venue-calendar/internal/model"

// Status is the display category of a calendar cell.
type Status string

const (
	StatusDisabled    Status = "disabled"
	StatusBooked      Status = "booked"
	StatusUnavailable Status = "unavailable"
	StatusAvailable   Status = "available"
	StatusUnset       Status = "unset"
)

// Classify derives the status of a cell. A booking outranks any manual
// availability flag.
func Classify(d model.CalendarDay) Status {
	switch {
	case !d.IsCurrentMonth:
		return StatusDisabled
	case len(d.Bookings) > 0:
		return StatusBooked
	case d.Availability != nil && !d.Availability.IsAvailable:
		return StatusUnavailable
	case d.Availability != nil:
		return StatusAvailable
	default:
		return StatusUnset
	}
}
