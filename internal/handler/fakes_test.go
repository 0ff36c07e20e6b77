package handler

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-calendar/internal/model"
	"github.com/iliyamo/venue-calendar/internal/queue"
	"github.com/iliyamo/venue-calendar/internal/repository"
	"github.com/iliyamo/venue-calendar/internal/utils"
	"github.com/iliyamo/venue-calendar/internal/validation"
)

type fakeStore struct {
	mu       sync.Mutex
	venues   map[uint64]bool
	days     map[uint64]map[string]model.AvailabilityRecord
	bookings []model.BookingRecord
}

func newFakeStore(venues ...uint64) *fakeStore {
	s := &fakeStore{venues: map[uint64]bool{}, days: map[uint64]map[string]model.AvailabilityRecord{}}
	for _, v := range venues {
		s.venues[v] = true
	}
	return s
}

func (s *fakeStore) Exists(_ context.Context, id uint64) error {
	if !s.venues[id] {
		return repository.ErrVenueNotFound
	}
	return nil
}

func (s *fakeStore) ListRange(_ context.Context, venueID uint64, start, end string) ([]model.AvailabilityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.AvailabilityRecord{}
	for d, rec := range s.days[venueID] {
		if d >= start && d <= end {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (s *fakeStore) Upsert(_ context.Context, rec model.AvailabilityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.days[rec.VenueID] == nil {
		s.days[rec.VenueID] = map[string]model.AvailabilityRecord{}
	}
	s.days[rec.VenueID][rec.Date] = rec
	return nil
}

func (s *fakeStore) UpsertRange(ctx context.Context, venueID uint64, start, end string, isAvailable bool, reason string) (int, error) {
	from, _ := time.Parse(model.DateLayout, start)
	to, _ := time.Parse(model.DateLayout, end)
	n := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		_ = s.Upsert(ctx, model.AvailabilityRecord{VenueID: venueID, Date: d.Format(model.DateLayout), IsAvailable: isAvailable, UnavailableReason: reason})
		n++
	}
	return n, nil
}

type fakeBookings struct{ list []model.BookingRecord }

func (b fakeBookings) ListRange(_ context.Context, venueID uint64, start, end string) ([]model.BookingRecord, error) {
	out := []model.BookingRecord{}
	for _, bk := range b.list {
		if bk.VenueID == venueID && bk.BookingDate >= start && bk.BookingDate <= end {
			out = append(out, bk)
		}
	}
	return out, nil
}

type fakeEvents struct{ ch chan queue.AvailabilityChangedEvent }

func (f fakeEvents) PublishAvailabilityChanged(_ context.Context, ev queue.AvailabilityChangedEvent) error {
	f.ch <- ev
	return nil
}

type fakeCache struct {
	mu          sync.Mutex
	invalidated []uint64
}

func (f *fakeCache) InvalidateVenue(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, id)
	return nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[uint64]model.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{users: map[uint64]model.User{}} }

func (f *fakeUsers) Create(_ context.Context, email, password, role string, _ int) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, 4)
	if err != nil {
		return 0, err
	}
	id := uint64(len(f.users) + 1)
	f.users[id] = model.User{ID: id, Email: email, PasswordHash: hash, Role: role, IsActive: true}
	return id, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == strings.ToLower(strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

type fakeTokens struct {
	mu     sync.Mutex
	owner  map[string]uint64
	revoke map[string]bool
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{owner: map[string]uint64{}, revoke: map[string]bool{}}
}

func (f *fakeTokens) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owner[hash] = userID
	return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.owner[hash]
	if !ok || f.revoke[hash] {
		return 0, sql.ErrNoRows
	}
	return id, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.owner[hash]; !ok || f.revoke[hash] {
		return false, nil
	}
	f.revoke[hash] = true
	return true, nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, id := range f.owner {
		if id == userID {
			f.revoke[h] = true
		}
	}
	return nil
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validation.EchoValidator{}
	return e
}

func do(e *echo.Echo, method, target, body string, hdr ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

