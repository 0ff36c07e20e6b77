package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-calendar/internal/middleware"
	"github.com/iliyamo/venue-calendar/internal/model"
	"github.com/iliyamo/venue-calendar/internal/queue"
	"github.com/iliyamo/venue-calendar/internal/repository"
)

// MaxRangeDays caps the span of a read or bulk write.
const MaxRangeDays = 366

// AvailabilityStore is implemented by *repository.AvailabilityRepo.
type AvailabilityStore interface {
	ListRange(ctx context.Context, venueID uint64, start, end string) ([]model.AvailabilityRecord, error)
	Upsert(ctx context.Context, rec model.AvailabilityRecord) error
	UpsertRange(ctx context.Context, venueID uint64, start, end string, isAvailable bool, reason string) (int, error)
}

// BookingLister is implemented by *repository.BookingRepo.
type BookingLister interface {
	ListRange(ctx context.Context, venueID uint64, start, end string) ([]model.BookingRecord, error)
}

// VenueChecker is implemented by *repository.VenueRepo.
type VenueChecker interface {
	Exists(ctx context.Context, id uint64) error
}

// EventPublisher is implemented by *service.Publisher.
type EventPublisher interface {
	PublishAvailabilityChanged(ctx context.Context, ev queue.AvailabilityChangedEvent) error
}

// CacheInvalidator is implemented by *middleware.ResponseCache.
type CacheInvalidator interface {
	InvalidateVenue(ctx context.Context, venueID uint64) error
}

// AvailabilityHandler serves the venue availability endpoints.
type AvailabilityHandler struct {
	Availability AvailabilityStore
	Bookings     BookingLister
	Venues       VenueChecker
	Events       EventPublisher   // optional
	Cache        CacheInvalidator // optional
	Now          func() time.Time
}

// NewAvailabilityHandler wires the handler; events and cache may be nil.
func NewAvailabilityHandler(a AvailabilityStore, b BookingLister, v VenueChecker, events EventPublisher, cache CacheInvalidator) *AvailabilityHandler {
	if a == nil || b == nil || v == nil {
		panic("nil repository passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Availability: a, Bookings: b, Venues: v, Events: events, Cache: cache, Now: time.Now}
}

type setAvailabilityReq struct {
	VenueID           uint64 `json:"venue_id" validate:"required"`
	Date              string `json:"date" validate:"required,isodate"`
	IsAvailable       *bool  `json:"is_available" validate:"required"`
	UnavailableReason string `json:"unavailable_reason" validate:"max=255"`
	AvailableFrom     string `json:"available_from" validate:"omitempty,clock"`
	AvailableUntil    string `json:"available_until" validate:"omitempty,clock"`
}

type bulkAvailabilityReq struct {
	VenueID           uint64 `json:"venue_id" validate:"required"`
	StartDate         string `json:"start_date" validate:"required,isodate"`
	EndDate           string `json:"end_date" validate:"required,isodate"`
	IsAvailable       *bool  `json:"is_available" validate:"required"`
	UnavailableReason string `json:"unavailable_reason" validate:"max=255"`
}

// dateSpan checks an inclusive ISO date range and returns its length in days.
func dateSpan(start, end string) (int, string) {
	from, err := time.Parse(model.DateLayout, start)
	if err != nil {
		return 0, "start_date must be YYYY-MM-DD"
	}
	to, err := time.Parse(model.DateLayout, end)
	if err != nil {
		return 0, "end_date must be YYYY-MM-DD"
	}
	if to.Before(from) {
		return 0, "end_date must not be before start_date"
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days > MaxRangeDays {
		return 0, "date range must not exceed 366 days"
	}
	return days, ""
}

// List handles GET /api/venue-availability?venue_id=&start_date=&end_date=
// and returns {data: {availability: [...], bookings: [...]}}.
func (h *AvailabilityHandler) List(c echo.Context) error {
	venueID, ok := parseVenueID(c.QueryParam("venue_id"))
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "venue_id must be a positive integer")
	}
	start, end := c.QueryParam("start_date"), c.QueryParam("end_date")
	if start == "" || end == "" {
		return errorJSON(c, http.StatusBadRequest, "start_date and end_date are required")
	}
	if _, msg := dateSpan(start, end); msg != "" {
		return errorJSON(c, http.StatusBadRequest, msg)
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	data, err := h.monthData(ctx, venueID, start, end)
	if errors.Is(err, repository.ErrVenueNotFound) {
		return errorJSON(c, http.StatusNotFound, "venue not found")
	}
	if err != nil {
		c.Logger().Errorf("list availability venue=%d: %v", venueID, err)
		return errorJSON(c, http.StatusInternalServerError, "query failed")
	}
	return dataJSON(c, http.StatusOK, data)
}

// monthData loads both record kinds of a venue for a range.
func (h *AvailabilityHandler) monthData(ctx context.Context, venueID uint64, start, end string) (model.MonthData, error) {
	if err := h.Venues.Exists(ctx, venueID); err != nil {
		return model.MonthData{}, err
	}
	avail, err := h.Availability.ListRange(ctx, venueID, start, end)
	if err != nil {
		return model.MonthData{}, err
	}
	bookings, err := h.Bookings.ListRange(ctx, venueID, start, end)
	if err != nil {
		return model.MonthData{}, err
	}
	return model.MonthData{Availability: avail, Bookings: bookings}, nil
}

// Set handles POST /api/venue-availability and upserts one day.
// An available day keeps no reason; a closed day keeps no time window.
func (h *AvailabilityHandler) Set(c echo.Context) error {
	var req setAvailabilityReq
	if msg := bindValid(c, &req); msg != "" {
		return errorJSON(c, http.StatusBadRequest, msg)
	}
	rec := model.AvailabilityRecord{
		VenueID:     req.VenueID,
		Date:        req.Date,
		IsAvailable: *req.IsAvailable,
	}
	if rec.IsAvailable {
		if (req.AvailableFrom == "") != (req.AvailableUntil == "") {
			return errorJSON(c, http.StatusBadRequest, "available_from and available_until must be given together")
		}
		if req.AvailableFrom != "" && clockSeconds(req.AvailableFrom) >= clockSeconds(req.AvailableUntil) {
			return errorJSON(c, http.StatusBadRequest, "available_from must be before available_until")
		}
		rec.AvailableFrom, rec.AvailableUntil = req.AvailableFrom, req.AvailableUntil
	} else {
		rec.UnavailableReason = req.UnavailableReason
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Venues.Exists(ctx, rec.VenueID); err != nil {
		return h.writeError(c, rec.VenueID, err)
	}
	if err := h.Availability.Upsert(ctx, rec); err != nil {
		return h.writeError(c, rec.VenueID, err)
	}
	h.changed(c, queue.AvailabilityChangedEvent{
		VenueID: rec.VenueID, Start: rec.Date, End: rec.Date, Days: 1,
		IsAvailable: rec.IsAvailable, Reason: rec.UnavailableReason,
	})
	return dataJSON(c, http.StatusOK, rec)
}

// SetBulk handles POST /api/venue-availability/bulk and writes the same flag
// on every day of the range, returning {data: {updated: n}}.
func (h *AvailabilityHandler) SetBulk(c echo.Context) error {
	var req bulkAvailabilityReq
	if msg := bindValid(c, &req); msg != "" {
		return errorJSON(c, http.StatusBadRequest, msg)
	}
	days, msg := dateSpan(req.StartDate, req.EndDate)
	if msg != "" {
		return errorJSON(c, http.StatusBadRequest, msg)
	}
	reason := req.UnavailableReason
	if *req.IsAvailable {
		reason = ""
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Venues.Exists(ctx, req.VenueID); err != nil {
		return h.writeError(c, req.VenueID, err)
	}
	n, err := h.Availability.UpsertRange(ctx, req.VenueID, req.StartDate, req.EndDate, *req.IsAvailable, reason)
	if err != nil {
		return h.writeError(c, req.VenueID, err)
	}
	if n != days {
		c.Logger().Warnf("bulk availability venue=%d: wrote %d of %d days", req.VenueID, n, days)
	}
	h.changed(c, queue.AvailabilityChangedEvent{
		VenueID: req.VenueID, Start: req.StartDate, End: req.EndDate, Days: n,
		IsAvailable: *req.IsAvailable, Reason: reason,
	})
	return dataJSON(c, http.StatusOK, echo.Map{"updated": n})
}

func (h *AvailabilityHandler) writeError(c echo.Context, venueID uint64, err error) error {
	switch {
	case errors.Is(err, repository.ErrVenueNotFound):
		return errorJSON(c, http.StatusNotFound, "venue not found")
	case errors.Is(err, repository.ErrInvalidRange):
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	c.Logger().Errorf("write availability venue=%d: %v", venueID, err)
	return errorJSON(c, http.StatusInternalServerError, "save failed")
}

// changed runs after a successful write: cached reads of the venue are
// dropped before the response goes out, and the event is published in the
// background.
func (h *AvailabilityHandler) changed(c echo.Context, ev queue.AvailabilityChangedEvent) {
	ctx := context.WithoutCancel(c.Request().Context())
	if h.Cache != nil {
		if err := h.Cache.InvalidateVenue(ctx, ev.VenueID); err != nil {
			c.Logger().Errorf("invalidate cache venue=%d: %v", ev.VenueID, err)
		}
	}
	if h.Events == nil {
		return
	}
	ev.ChangedBy, _ = middleware.UserID(c)
	ev.Role = middleware.Role(c)
	ev.ChangedAt = h.Now().UTC().Format(time.RFC3339)
	logger := c.Logger()
	go func() {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := h.Events.PublishAvailabilityChanged(pctx, ev); err != nil {
			logger.Warnf("publish availability.changed venue=%d: %v", ev.VenueID, err)
		}
	}()
}

// clockSeconds converts a validated HH:MM[:SS] string to seconds after midnight.
func clockSeconds(s string) int {
	n := int(s[0]-'0')*36000 + int(s[1]-'0')*3600 + int(s[3]-'0')*600 + int(s[4]-'0')*60
	if len(s) == 8 {
		n += int(s[6]-'0')*10 + int(s[7]-'0')
	}
	return n
}
