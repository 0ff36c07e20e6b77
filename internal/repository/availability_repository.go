package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/venue-calendar/internal/model"
)

// AvailabilityRepo manages persistence for per-day venue availability.
// The venue_availability table holds at most one row per (venue_id, date)
// through a unique key, and writes are upserts against that key.
type AvailabilityRepo struct {
	db *sql.DB
}

// NewAvailabilityRepo constructs an AvailabilityRepo with the given DB handle.
func NewAvailabilityRepo(db *sql.DB) *AvailabilityRepo {
	return &AvailabilityRepo{db: db}
}

// ListRange returns the availability rows of a venue between start and end
// (inclusive ISO dates), ordered by date.
func (r *AvailabilityRepo) ListRange(ctx context.Context, venueID uint64, start, end string) ([]model.AvailabilityRecord, error) {
	const q = `SELECT venue_id, date, is_available, unavailable_reason, available_from, available_until
               FROM venue_availability
               WHERE venue_id = ? AND date BETWEEN ? AND ?
               ORDER BY date ASC`
	rows, err := r.db.QueryContext(ctx, q, venueID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.AvailabilityRecord{}
	for rows.Next() {
		var (
			rec                 model.AvailabilityRecord
			date                time.Time
			reason, from, until sql.NullString
		)
		if err := rows.Scan(&rec.VenueID, &date, &rec.IsAvailable, &reason, &from, &until); err != nil {
			return nil, err
		}
		rec.Date = date.Format(model.DateLayout)
		rec.UnavailableReason = reason.String
		rec.AvailableFrom = from.String
		rec.AvailableUntil = until.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Upsert inserts or replaces the row of rec.VenueID on rec.Date. Empty
// optional strings are stored as NULL.
func (r *AvailabilityRepo) Upsert(ctx context.Context, rec model.AvailabilityRecord) error {
	const q = `INSERT INTO venue_availability (venue_id, date, is_available, unavailable_reason, available_from, available_until)
               VALUES (?, ?, ?, ?, ?, ?)
               ON DUPLICATE KEY UPDATE
                 is_available = VALUES(is_available),
                 unavailable_reason = VALUES(unavailable_reason),
                 available_from = VALUES(available_from),
                 available_until = VALUES(available_until)`
	_, err := r.db.ExecContext(ctx, q,
		rec.VenueID, rec.Date, rec.IsAvailable,
		nullString(rec.UnavailableReason), nullString(rec.AvailableFrom), nullString(rec.AvailableUntil))
	if mysqlErrNumber(err) == mysqlNoReferencedRow {
		return ErrVenueNotFound
	}
	return err
}

// UpsertRange writes the same flag for every day from start to end
// (inclusive) in one transaction and returns the number of days written.
// Existing time windows are left as they are.
func (r *AvailabilityRepo) UpsertRange(ctx context.Context, venueID uint64, start, end string, isAvailable bool, reason string) (int, error) {
	from, err := time.Parse(model.DateLayout, start)
	if err != nil {
		return 0, fmt.Errorf("%w: start %q", ErrInvalidRange, start)
	}
	to, err := time.Parse(model.DateLayout, end)
	if err != nil {
		return 0, fmt.Errorf("%w: end %q", ErrInvalidRange, end)
	}
	if to.Before(from) {
		return 0, fmt.Errorf("%w: %s after %s", ErrInvalidRange, start, end)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO venue_availability (venue_id, date, is_available, unavailable_reason)
               VALUES (?, ?, ?, ?)
               ON DUPLICATE KEY UPDATE
                 is_available = VALUES(is_available),
                 unavailable_reason = VALUES(unavailable_reason)`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	n := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if _, err := stmt.ExecContext(ctx, venueID, d.Format(model.DateLayout), isAvailable, nullString(reason)); err != nil {
			if mysqlErrNumber(err) == mysqlNoReferencedRow {
				return 0, ErrVenueNotFound
			}
			return 0, fmt.Errorf("upsert %s: %w", d.Format(model.DateLayout), err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
