package model

// DateLayout is the ISO calendar date format used on the wire and as the
// lookup key for per-day records.
const DateLayout = "2006-01-02"

// AvailabilityRecord is the manual availability flag of one venue on one day.
// The backend keeps at most one record per (venue, date) pair.
//
// Fields:
//  VenueID           – venue the flag applies to.
//  Date              – ISO date (YYYY-MM-DD).
//  IsAvailable       – whether the venue accepts reservations that day.
//  UnavailableReason – optional free text shown when IsAvailable is false.
//  AvailableFrom     – optional opening time (HH:MM[:SS]).
//  AvailableUntil    – optional closing time (HH:MM[:SS]).
type AvailabilityRecord struct {
	VenueID           uint64 `json:"venue_id" validate:"required"`
	Date              string `json:"date" validate:"required,isodate"`
	IsAvailable       bool   `json:"is_available"`
	UnavailableReason string `json:"unavailable_reason,omitempty" validate:"max=255"`
	AvailableFrom     string `json:"available_from,omitempty" validate:"omitempty,clock"`
	AvailableUntil    string `json:"available_until,omitempty" validate:"omitempty,clock"`
}

// BookingRecord is a reservation of a venue for a date and time range.
// BookingDate always holds the date portion only once a record has passed
// through a parsing boundary (repository scan or apiclient decode).
type BookingRecord struct {
	ID            uint64 `json:"id" validate:"required"`
	BookingNumber string `json:"booking_number"`
	VenueID       uint64 `json:"venue_id" validate:"required"`
	BookingDate   string `json:"booking_date" validate:"required,isodate"`
	StartTime     string `json:"start_time,omitempty" validate:"omitempty,clock"`
	EndTime       string `json:"end_time,omitempty" validate:"omitempty,clock"`
	Status        string `json:"status"`
	ClientName    string `json:"client_name,omitempty"`
}

// Booking statuses as stored by the backend.
const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
)

// MonthData is the payload of one venue-availability read: every record of
// the requested range, already normalized.
type MonthData struct {
	Availability []AvailabilityRecord `json:"availability"`
	Bookings     []BookingRecord      `json:"bookings"`
}
