package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/labstack/gommon/log"
)

func quietLogger() *log.Logger {
	l := log.New("apiclient-test")
	l.SetOutput(io.Discard)
	return l
}

func newTestClient(c *qt.C, h http.Handler, hook func()) *Client {
	srv := httptest.NewServer(h)
	c.Cleanup(srv.Close)
	cl, err := New(Options{
		BaseURL:        srv.URL + "/api",
		Timeout:        2 * time.Second,
		RetryMax:       2,
		RetryWaitMin:   time.Millisecond,
		RetryWaitMax:   2 * time.Millisecond,
		Logger:         quietLogger(),
		OnUnauthorized: hook,
	})
	c.Assert(err, qt.IsNil)
	return cl
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	c := qt.New(t)
	_, err := New(Options{})
	c.Assert(err, qt.ErrorMatches, "apiclient: base url required")
	_, err = New(Options{BaseURL: "not a url"})
	c.Assert(err, qt.ErrorMatches, `apiclient: invalid base url "not a url"`)
}

func TestLoginStoresTokensAndAttachesBearer(t *testing.T) {
	c := qt.New(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "planner@example.com" || body["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"user":    map[string]any{"id": 5, "email": "planner@example.com", "role": "STAFF"},
			"access":  map[string]any{"token": "acc-1", "expires": time.Now().Add(time.Hour)},
			"refresh": map[string]any{"token": "ref-1", "expires": time.Now().Add(24 * time.Hour)},
		})
	})
	mux.HandleFunc("/api/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer acc-1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user_id": 5, "role": "STAFF"})
	})
	var hooked int32
	cl := newTestClient(c, mux, func() { atomic.AddInt32(&hooked, 1) })
	ctx := context.Background()

	_, err := cl.Login(ctx, "planner@example.com", "wrong")
	c.Assert(errors.Is(err, ErrUnauthorized), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, "api: 401 invalid credentials")
	c.Assert(atomic.LoadInt32(&hooked), qt.Equals, int32(0))

	s, err := cl.Login(ctx, "planner@example.com", "secret")
	c.Assert(err, qt.IsNil)
	c.Assert(s.User.Role, qt.Equals, "STAFF")
	c.Assert(cl.Authenticated(), qt.IsTrue)

	id, err := cl.Me(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.Equals, Identity{UserID: 5, Role: "STAFF"})
}

func TestUnauthorizedRefreshesOnce(t *testing.T) {
	c := qt.New(t)
	var refreshes int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh-access", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshes, 1)
		writeJSON(w, http.StatusOK, map[string]any{"access": map[string]any{"token": "fresh"}})
	})
	mux.HandleFunc("/api/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user_id": "9", "role": "ADMIN"})
	})
	cl := newTestClient(c, mux, func() { c.Error("unexpected unauthorized hook") })
	cl.SetTokens("expired", "ref")

	id, err := cl.Me(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(id.UserID, qt.Equals, uint64(9))
	c.Assert(atomic.LoadInt32(&refreshes), qt.Equals, int32(1))
	access, refresh := cl.tokens()
	c.Assert(access, qt.Equals, "fresh")
	c.Assert(refresh, qt.Equals, "ref")
}

func TestUnauthorizedClearsSessionAndFiresHook(t *testing.T) {
	c := qt.New(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh-access", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid refresh"})
	})
	mux.HandleFunc("/api/venue-availability", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
	})
	var hooked int32
	cl := newTestClient(c, mux, func() { atomic.AddInt32(&hooked, 1) })
	cl.SetTokens("expired", "revoked")

	_, err := cl.VenueAvailability(context.Background(), 1, "2025-03-01", "2025-03-31")
	c.Assert(errors.Is(err, ErrUnauthorized), qt.IsTrue)
	var apiErr *APIError
	c.Assert(errors.As(err, &apiErr), qt.IsTrue)
	c.Assert(apiErr.Status, qt.Equals, http.StatusUnauthorized)
	c.Assert(atomic.LoadInt32(&hooked), qt.Equals, int32(1))
	c.Assert(cl.Authenticated(), qt.IsFalse)
}

func TestRetriesServerErrors(t *testing.T) {
	c := qt.New(t)
	var hits int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"availability": []any{}, "bookings": []any{}}})
	})
	cl := newTestClient(c, h, nil)
	data, err := cl.VenueAvailability(context.Background(), 1, "2025-03-01", "2025-03-31")
	c.Assert(err, qt.IsNil)
	c.Assert(data.Availability, qt.HasLen, 0)
	c.Assert(atomic.LoadInt32(&hits), qt.Equals, int32(2))
}

func TestPersistentServerErrorSurfacesStatus(t *testing.T) {
	c := qt.New(t)
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database error"})
	})
	cl := newTestClient(c, h, nil)
	_, err := cl.VenueAvailability(context.Background(), 1, "2025-03-01", "2025-03-31")
	var apiErr *APIError
	c.Assert(errors.As(err, &apiErr), qt.IsTrue)
	c.Assert(apiErr.Status, qt.Equals, http.StatusInternalServerError)
	c.Assert(apiErr.Message, qt.Equals, "database error")
}

func TestVenueAvailabilitySendsRangeQuery(t *testing.T) {
	c := qt.New(t)
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.Check(r.URL.Path, qt.Equals, "/api/venue-availability")
		c.Check(r.URL.Query().Get("venue_id"), qt.Equals, "4")
		c.Check(r.URL.Query().Get("start_date"), qt.Equals, "2025-02-01")
		c.Check(r.URL.Query().Get("end_date"), qt.Equals, "2025-02-28")
		c.Check(r.Header.Get("Authorization"), qt.Equals, "Bearer tok")
		_, _ = io.WriteString(w, `{"data":{"data":{
			"availability":[{"venue_id":"4","date":"2025-02-03T00:00:00.000000Z","is_available":0,"unavailable_reason":"private event"}],
			"bookings":{"data":[{"id":17,"booking_number":"WO-0017","venue_id":4,"booking_date":"2025-02-14 00:00:00","start_time":"16:00:00.000000","end_time":"22:00","status":"confirmed","client":{"name":"Rina & Dimas"}}]}
		}}}`)
	})
	cl := newTestClient(c, h, nil)
	cl.SetTokens("tok", "")

	data, err := cl.FetchMonth(context.Background(), 4, "2025-02-01", "2025-02-28")
	c.Assert(err, qt.IsNil)
	c.Assert(data.Availability, qt.HasLen, 1)
	c.Assert(data.Availability[0].Date, qt.Equals, "2025-02-03")
	c.Assert(data.Availability[0].IsAvailable, qt.IsFalse)
	c.Assert(data.Bookings, qt.HasLen, 1)
	b := data.Bookings[0]
	c.Assert(b.BookingDate, qt.Equals, "2025-02-14")
	c.Assert(b.StartTime, qt.Equals, "16:00:00")
	c.Assert(b.Status, qt.Equals, "CONFIRMED")
	c.Assert(b.ClientName, qt.Equals, "Rina & Dimas")
}

func TestSetAvailabilityValidatesBeforeSending(t *testing.T) {
	c := qt.New(t)
	var hits int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		c.Check(body["is_available"], qt.Equals, false)
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"venue_id": 2, "date": "2025-05-01", "is_available": false, "unavailable_reason": "renovation",
		}})
	})
	cl := newTestClient(c, h, nil)
	ctx := context.Background()

	_, err := cl.SetAvailability(ctx, SetAvailabilityRequest{VenueID: 2, Date: "01/05/2025"})
	c.Assert(err, qt.ErrorMatches, "set availability: .*isodate.*")
	c.Assert(atomic.LoadInt32(&hits), qt.Equals, int32(0))

	rec, err := cl.SetAvailability(ctx, SetAvailabilityRequest{VenueID: 2, Date: "2025-05-01", UnavailableReason: "renovation"})
	c.Assert(err, qt.IsNil)
	c.Assert(rec.UnavailableReason, qt.Equals, "renovation")
	c.Assert(atomic.LoadInt32(&hits), qt.Equals, int32(1))
}

func TestSetBulkAvailability(t *testing.T) {
	c := qt.New(t)
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.Check(r.URL.Path, qt.Equals, "/api/venue-availability/bulk")
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"updated": 7}})
	})
	cl := newTestClient(c, h, nil)
	ctx := context.Background()

	n, err := cl.SetBulkAvailability(ctx, BulkAvailabilityRequest{VenueID: 2, StartDate: "2025-05-01", EndDate: "2025-05-07"})
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 7)

	_, err = cl.SetBulkAvailability(ctx, BulkAvailabilityRequest{VenueID: 2, StartDate: "2025-05-07", EndDate: "2025-05-01"})
	c.Assert(err, qt.ErrorMatches, "set bulk availability: end_date 2025-05-01 before start_date 2025-05-07")
}

func TestLogoutClearsSessionEvenOnFailure(t *testing.T) {
	c := qt.New(t)
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "logout failed"})
	})
	cl := newTestClient(c, h, nil)
	cl.SetTokens("a", "r")
	c.Assert(cl.Logout(context.Background()), qt.IsNotNil)
	c.Assert(cl.Authenticated(), qt.IsFalse)
}
