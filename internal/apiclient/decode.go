package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/iliyamo/venue-calendar/internal/model"
	"github.com/iliyamo/venue-calendar/internal/validation"
)

// maxEnvelopeDepth bounds how many {"data": ...} wrappers are peeled.
const maxEnvelopeDepth = 3

// unwrapData peels {"data": ...} envelopes off raw. Objects without a data
// key and non-objects are returned unchanged.
func unwrapData(raw []byte) []byte {
	for i := 0; i < maxEnvelopeDepth; i++ {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(raw, &env); err != nil {
			return raw
		}
		inner, ok := env["data"]
		if !ok {
			return raw
		}
		raw = inner
	}
	return raw
}

// decodeList decodes an array that may itself be wrapped in a data envelope.
// A missing or null list is empty.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = unwrapData(raw)
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// flexID accepts 12, "12" or null.
type flexID uint64

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		*f = flexID(n)
		return nil
	}
	// ids serialized as 12.0
	fl, err := strconv.ParseFloat(s, 64)
	if err != nil || fl < 0 {
		return fmt.Errorf("invalid id %s", b)
	}
	*f = flexID(fl)
	return nil
}

// flexBool accepts true/false, 0/1 and their quoted forms.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	switch strings.ToLower(strings.Trim(strings.TrimSpace(string(b)), `"`)) {
	case "true", "1":
		*f = true
	case "false", "0", "", "null":
		*f = false
	default:
		return fmt.Errorf("invalid boolean %s", b)
	}
	return nil
}

// flexString accepts strings, numbers and null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	t := bytes.TrimSpace(b)
	if bytes.Equal(t, []byte("null")) {
		*f = ""
		return nil
	}
	if len(t) > 0 && t[0] == '"' {
		var s string
		if err := json.Unmarshal(t, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(t)
	return nil
}

type wireAvailability struct {
	VenueID           flexID     `json:"venue_id"`
	Date              flexString `json:"date"`
	IsAvailable       flexBool   `json:"is_available"`
	UnavailableReason flexString `json:"unavailable_reason"`
	AvailableFrom     flexString `json:"available_from"`
	AvailableUntil    flexString `json:"available_until"`
}

type wireBooking struct {
	ID            flexID     `json:"id"`
	BookingNumber flexString `json:"booking_number"`
	VenueID       flexID     `json:"venue_id"`
	BookingDate   flexString `json:"booking_date"`
	StartTime     flexString `json:"start_time"`
	EndTime       flexString `json:"end_time"`
	Status        flexString `json:"status"`
	ClientName    flexString `json:"client_name"`
	Client        *struct {
		Name flexString `json:"name"`
	} `json:"client"`
}

// normalizeDate keeps the YYYY-MM-DD prefix of a date or timestamp.
func normalizeDate(s flexString) string {
	d := strings.TrimSpace(string(s))
	if len(d) > len(model.DateLayout) {
		d = d[:len(model.DateLayout)]
	}
	return d
}

// normalizeClock drops fractional seconds ("18:00:00.000000").
func normalizeClock(s flexString) string {
	t := strings.TrimSpace(string(s))
	if len(t) > 8 && t[2] == ':' && t[5] == ':' {
		t = t[:8]
	}
	return t
}

func (w wireAvailability) record(venueID uint64) model.AvailabilityRecord {
	r := model.AvailabilityRecord{
		VenueID:           uint64(w.VenueID),
		Date:              normalizeDate(w.Date),
		IsAvailable:       bool(w.IsAvailable),
		UnavailableReason: strings.TrimSpace(string(w.UnavailableReason)),
		AvailableFrom:     normalizeClock(w.AvailableFrom),
		AvailableUntil:    normalizeClock(w.AvailableUntil),
	}
	if r.VenueID == 0 {
		r.VenueID = venueID
	}
	return r
}

func (w wireBooking) record(venueID uint64) model.BookingRecord {
	r := model.BookingRecord{
		ID:            uint64(w.ID),
		BookingNumber: strings.TrimSpace(string(w.BookingNumber)),
		VenueID:       uint64(w.VenueID),
		BookingDate:   normalizeDate(w.BookingDate),
		StartTime:     normalizeClock(w.StartTime),
		EndTime:       normalizeClock(w.EndTime),
		Status:        strings.ToUpper(strings.TrimSpace(string(w.Status))),
		ClientName:    strings.TrimSpace(string(w.ClientName)),
	}
	if r.ClientName == "" && w.Client != nil {
		r.ClientName = strings.TrimSpace(string(w.Client.Name))
	}
	if r.VenueID == 0 {
		r.VenueID = venueID
	}
	return r
}

// decodeMonthData turns a venue-availability response body into validated
// records for venueID. Records that fail validation or belong to another
// venue are skipped and reported through warn.
func decodeMonthData(body []byte, venueID uint64, warn func(format string, args ...interface{})) (model.MonthData, error) {
	var payload struct {
		Availability json.RawMessage `json:"availability"`
		Bookings     json.RawMessage `json:"bookings"`
	}
	if err := json.Unmarshal(unwrapData(body), &payload); err != nil {
		return model.MonthData{}, fmt.Errorf("venue availability: %w", ErrBadResponse)
	}
	avail, err := decodeList[wireAvailability](payload.Availability)
	if err != nil {
		return model.MonthData{}, fmt.Errorf("venue availability: availability: %w", ErrBadResponse)
	}
	bookings, err := decodeList[wireBooking](payload.Bookings)
	if err != nil {
		return model.MonthData{}, fmt.Errorf("venue availability: bookings: %w", ErrBadResponse)
	}

	out := model.MonthData{
		Availability: make([]model.AvailabilityRecord, 0, len(avail)),
		Bookings:     make([]model.BookingRecord, 0, len(bookings)),
	}
	for i, w := range avail {
		r := w.record(venueID)
		if r.VenueID != venueID {
			warn("availability[%d]: venue %d in response for venue %d, skipped", i, r.VenueID, venueID)
			continue
		}
		if err := validation.Struct(r); err != nil {
			warn("availability[%d]: %v, skipped", i, err)
			continue
		}
		out.Availability = append(out.Availability, r)
	}
	for i, w := range bookings {
		r := w.record(venueID)
		if r.VenueID != venueID {
			warn("bookings[%d]: venue %d in response for venue %d, skipped", i, r.VenueID, venueID)
			continue
		}
		if err := validation.Struct(r); err != nil {
			warn("bookings[%d]: %v, skipped", i, err)
			continue
		}
		out.Bookings = append(out.Bookings, r)
	}
	return out, nil
}
