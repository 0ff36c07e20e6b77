package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-calendar/internal/calendar"
	"github.com/iliyamo/venue-calendar/internal/model"
	"github.com/iliyamo/venue-calendar/internal/repository"
)

type calendarCell struct {
	model.CalendarDay
	Status calendar.Status `json:"status"`
}

type calendarResp struct {
	VenueID uint64         `json:"venue_id"`
	Month   string         `json:"month"`
	Days    []calendarCell `json:"days"`
}

// Month handles GET /api/venues/:id/calendar?month=YYYY-MM. It returns the
// 42-cell grid of the month with availability, bookings and the status of
// each cell. Without ?month the current month is served.
func (h *AvailabilityHandler) Month(c echo.Context) error {
	venueID, ok := parseVenueID(c.Param("id"))
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid venue id")
	}
	m := calendar.MonthOf(h.Now())
	if raw := c.QueryParam("month"); raw != "" {
		parsed, err := calendar.ParseMonth(raw)
		if err != nil {
			return errorJSON(c, http.StatusBadRequest, "month must be YYYY-MM")
		}
		m = parsed
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	start, end := m.Range()
	data, err := h.monthData(ctx, venueID, start, end)
	if errors.Is(err, repository.ErrVenueNotFound) {
		return errorJSON(c, http.StatusNotFound, "venue not found")
	}
	if err != nil {
		c.Logger().Errorf("calendar venue=%d month=%s: %v", venueID, m, err)
		return errorJSON(c, http.StatusInternalServerError, "query failed")
	}

	days := calendar.Merge(m.Grid(), data.Availability, data.Bookings)
	cells := make([]calendarCell, len(days))
	for i, d := range days {
		cells[i] = calendarCell{CalendarDay: d, Status: calendar.Classify(d)}
	}
	return dataJSON(c, http.StatusOK, calendarResp{VenueID: venueID, Month: m.String(), Days: cells})
}
