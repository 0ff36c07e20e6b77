package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iliyamo/venue-calendar/internal/model"
	"github.com/iliyamo/venue-calendar/internal/validation"
)

// SetAvailabilityRequest upserts the availability of one venue on one day.
type SetAvailabilityRequest struct {
	VenueID           uint64 `json:"venue_id" validate:"required"`
	Date              string `json:"date" validate:"required,isodate"`
	IsAvailable       bool   `json:"is_available"`
	UnavailableReason string `json:"unavailable_reason,omitempty" validate:"max=255"`
	AvailableFrom     string `json:"available_from,omitempty" validate:"omitempty,clock"`
	AvailableUntil    string `json:"available_until,omitempty" validate:"omitempty,clock"`
}

// BulkAvailabilityRequest upserts the same flag on every day of a range.
type BulkAvailabilityRequest struct {
	VenueID           uint64 `json:"venue_id" validate:"required"`
	StartDate         string `json:"start_date" validate:"required,isodate"`
	EndDate           string `json:"end_date" validate:"required,isodate"`
	IsAvailable       bool   `json:"is_available"`
	UnavailableReason string `json:"unavailable_reason,omitempty" validate:"max=255"`
}

// VenueAvailability reads the availability flags and bookings of a venue
// between start and end (inclusive ISO dates). The response is normalized
// before it is returned; see decodeMonthData.
func (c *Client) VenueAvailability(ctx context.Context, venueID uint64, start, end string) (model.MonthData, error) {
	q := url.Values{}
	q.Set("venue_id", strconv.FormatUint(venueID, 10))
	q.Set("start_date", start)
	q.Set("end_date", end)
	body, err := c.do(ctx, call{method: http.MethodGet, path: "/venue-availability", query: q})
	if err != nil {
		return model.MonthData{}, err
	}
	return decodeMonthData(body, venueID, c.logger.Warnf)
}

// FetchMonth implements calendar.Fetcher.
func (c *Client) FetchMonth(ctx context.Context, venueID uint64, start, end string) (model.MonthData, error) {
	return c.VenueAvailability(ctx, venueID, start, end)
}

// SetAvailability upserts one day and returns the stored record.
func (c *Client) SetAvailability(ctx context.Context, req SetAvailabilityRequest) (model.AvailabilityRecord, error) {
	if err := validation.Struct(req); err != nil {
		return model.AvailabilityRecord{}, fmt.Errorf("set availability: %w", err)
	}
	body, err := c.do(ctx, call{method: http.MethodPost, path: "/venue-availability", body: req})
	if err != nil {
		return model.AvailabilityRecord{}, err
	}
	var w wireAvailability
	if err := json.Unmarshal(unwrapData(body), &w); err != nil {
		return model.AvailabilityRecord{}, fmt.Errorf("set availability: %w", ErrBadResponse)
	}
	rec := w.record(req.VenueID)
	if rec.Date == "" {
		rec.Date = req.Date
	}
	return rec, nil
}

// SetBulkAvailability upserts every day from StartDate to EndDate and
// returns how many days the backend wrote.
func (c *Client) SetBulkAvailability(ctx context.Context, req BulkAvailabilityRequest) (int, error) {
	if err := validation.Struct(req); err != nil {
		return 0, fmt.Errorf("set bulk availability: %w", err)
	}
	if req.EndDate < req.StartDate {
		return 0, fmt.Errorf("set bulk availability: end_date %s before start_date %s", req.EndDate, req.StartDate)
	}
	body, err := c.do(ctx, call{method: http.MethodPost, path: "/venue-availability/bulk", body: req})
	if err != nil {
		return 0, err
	}
	var r struct {
		Updated flexID `json:"updated"`
	}
	if err := json.Unmarshal(unwrapData(body), &r); err != nil {
		return 0, fmt.Errorf("set bulk availability: %w", ErrBadResponse)
	}
	return int(r.Updated), nil
}
