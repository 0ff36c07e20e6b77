package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/venue-calendar/internal/model"
)

// ErrStale is returned by View.Navigate when a newer navigation was issued
// while the fetch was in flight. The response has been discarded and the
// caller should not report it.
var ErrStale = errors.New("calendar: stale month response discarded")

// DefaultFetchTimeout bounds a single month fetch when NewView is given a
// non-positive timeout.
const DefaultFetchTimeout = 15 * time.Second

// Fetcher loads the availability and bookings of a venue between two ISO
// dates (inclusive).
type Fetcher interface {
	FetchMonth(ctx context.Context, venueID uint64, start, end string) (model.MonthData, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, venueID uint64, start, end string) (model.MonthData, error)

// FetchMonth implements Fetcher.
func (f FetcherFunc) FetchMonth(ctx context.Context, venueID uint64, start, end string) (model.MonthData, error) {
	return f(ctx, venueID, start, end)
}

// Snapshot is the rendered state of a View.
type Snapshot struct {
	Month  Month               // month the days belong to
	Days   []model.CalendarDay // 42 merged cells, nil before the first successful load
	Loaded bool
}

// View is the month view of one venue. Every navigation re-fetches; only the
// response of the most recent navigation is ever applied, and a failed fetch
// keeps the previously rendered month.
type View struct {
	fetcher Fetcher
	venueID uint64
	timeout time.Duration

	mu       sync.Mutex
	seq      uint64
	selected Month
	shown    Month
	days     []model.CalendarDay
	cancel   context.CancelFunc
}

// NewView returns a view of venueID positioned on initial. Nothing is fetched
// until Navigate, Reload, Next or Prev is called.
func NewView(f Fetcher, venueID uint64, initial Month, timeout time.Duration) *View {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &View{
		fetcher:  f,
		venueID:  venueID,
		timeout:  timeout,
		selected: NewMonth(initial.Year, initial.Month),
	}
}

// Navigate selects m and loads it. Any fetch still running for an earlier
// navigation is cancelled, and if its response arrives anyway it is dropped.
func (v *View) Navigate(ctx context.Context, m Month) error {
	m = NewMonth(m.Year, m.Month)
	seq, fctx, cancel := v.begin(ctx, m)
	return v.load(fctx, cancel, seq, m)
}

// NavigateAsync is Navigate with the fetch running in the background. The
// navigation is ordered at call time, so of several calls only the response
// of the last one is applied. The channel receives the result and is closed.
func (v *View) NavigateAsync(ctx context.Context, m Month) <-chan error {
	m = NewMonth(m.Year, m.Month)
	seq, fctx, cancel := v.begin(ctx, m)
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- v.load(fctx, cancel, seq, m)
	}()
	return done
}

func (v *View) begin(ctx context.Context, m Month) (uint64, context.Context, context.CancelFunc) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq++
	v.selected = m
	if v.cancel != nil {
		v.cancel()
	}
	fctx, cancel := context.WithTimeout(ctx, v.timeout)
	v.cancel = cancel
	return v.seq, fctx, cancel
}

func (v *View) load(ctx context.Context, cancel context.CancelFunc, seq uint64, m Month) error {
	start, end := m.Range()
	data, err := v.fetcher.FetchMonth(ctx, v.venueID, start, end)

	v.mu.Lock()
	defer v.mu.Unlock()
	cancel()
	if seq != v.seq {
		return ErrStale
	}
	v.cancel = nil
	if err != nil {
		return fmt.Errorf("load %s: %w", m, err)
	}
	v.days = Merge(m.Grid(), data.Availability, data.Bookings)
	v.shown = m
	return nil
}

// Reload fetches the selected month again, typically after a write.
func (v *View) Reload(ctx context.Context) error {
	return v.Navigate(ctx, v.Selected())
}

// Next moves to the month after the selected one.
func (v *View) Next(ctx context.Context) error {
	return v.Navigate(ctx, v.Selected().Next())
}

// Prev moves to the month before the selected one.
func (v *View) Prev(ctx context.Context) error {
	return v.Navigate(ctx, v.Selected().Prev())
}

// Selected returns the month of the latest navigation, loaded or not.
func (v *View) Selected() Month {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected
}

// VenueID returns the venue the view was built for.
func (v *View) VenueID() uint64 { return v.venueID }

// Snapshot returns a copy of the last successfully loaded month.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.days == nil {
		return Snapshot{Month: v.selected}
	}
	days := make([]model.CalendarDay, len(v.days))
	copy(days, v.days)
	return Snapshot{Month: v.shown, Days: days, Loaded: true}
}
