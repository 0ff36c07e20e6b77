package router

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-calendar/internal/config"
	"github.com/iliyamo/venue-calendar/internal/handler"
	"github.com/iliyamo/venue-calendar/internal/model"
	"github.com/iliyamo/venue-calendar/internal/utils"
)

type memRepo struct{}

func (memRepo) ListRange(context.Context, uint64, string, string) ([]model.AvailabilityRecord, error) {
	return []model.AvailabilityRecord{}, nil
}
func (memRepo) Upsert(context.Context, model.AvailabilityRecord) error { return nil }
func (memRepo) UpsertRange(context.Context, uint64, string, string, bool, string) (int, error) {
	return 1, nil
}
func (memRepo) Exists(context.Context, uint64) error { return nil }

type noBookings struct{}

func (noBookings) ListRange(context.Context, uint64, string, string) ([]model.BookingRecord, error) {
	return []model.BookingRecord{}, nil
}

type noUsers struct{}

func (noUsers) Create(context.Context, string, string, string, int) (uint64, error) { return 0, sql.ErrConnDone }
func (noUsers) GetByEmail(context.Context, string) (model.User, error)           { return model.User{}, sql.ErrNoRows }
func (noUsers) GetByID(context.Context, uint64) (model.User, error)              { return model.User{}, sql.ErrNoRows }

type noTokens struct{}

func (noTokens) StoreRefresh(context.Context, uint64, string, time.Time) error { return nil }
func (noTokens) ValidateRefresh(context.Context, string) (uint64, error)       { return 0, sql.ErrNoRows }
func (noTokens) RevokeByHash(context.Context, string) (bool, error)            { return false, nil }
func (noTokens) RevokeAllForUser(context.Context, uint64) error                { return nil }

func newTestServer() *echo.Echo {
	e := New(Deps{
		JWTSecret:    "k",
		Auth:         handler.NewAuthHandler(config.Config{JWTSecret: "k"}, noUsers{}, noTokens{}),
		Availability: handler.NewAvailabilityHandler(memRepo{}, noBookings{}, memRepo{}, nil, nil),
	})
	e.Logger.SetOutput(&strings.Builder{})
	return e
}

func request(e *echo.Echo, method, target, body, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if role != "" {
		tok, _ := utils.NewAccessToken("k", 1, role, 5)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoleMatrix(t *testing.T) {
	c := qt.New(t)
	e := newTestServer()
	read := "/api/venue-availability?venue_id=1&start_date=2025-02-01&end_date=2025-02-28"
	write := `{"venue_id":1,"date":"2025-02-03","is_available":true}`

	for _, tc := range []struct {
		role              string
		readCode, setCode int
	}{
		{"", http.StatusUnauthorized, http.StatusUnauthorized},
		{model.RoleClient, http.StatusOK, http.StatusForbidden},
		{model.RoleStaff, http.StatusOK, http.StatusOK},
		{model.RoleAdmin, http.StatusOK, http.StatusOK},
		{"OWNER", http.StatusForbidden, http.StatusForbidden},
	} {
		c.Check(request(e, http.MethodGet, read, "", tc.role).Code, qt.Equals, tc.readCode, qt.Commentf("read %q", tc.role))
		c.Check(request(e, http.MethodPost, "/api/venue-availability", write, tc.role).Code, qt.Equals, tc.setCode, qt.Commentf("set %q", tc.role))
		c.Check(request(e, http.MethodPost, "/api/venue-availability/bulk",
			`{"venue_id":1,"start_date":"2025-02-03","end_date":"2025-02-03","is_available":true}`, tc.role).Code,
			qt.Equals, tc.setCode, qt.Commentf("bulk %q", tc.role))
	}
}

func TestPublicRoutesAndRequestID(t *testing.T) {
	c := qt.New(t)
	e := newTestServer()
	rec := request(e, http.MethodGet, "/healthz", "", "")
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	c.Assert(rec.Header().Get(echo.HeaderXRequestID), qt.HasLen, 36)

	c.Assert(request(e, http.MethodPost, "/api/auth/login", `{"email":"a@b.test","password":"x"}`, "").Code, qt.Equals, http.StatusUnauthorized)
	c.Assert(request(e, http.MethodGet, "/api/venues/1/calendar?month=2025-02", "", model.RoleClient).Code, qt.Equals, http.StatusOK)
}
