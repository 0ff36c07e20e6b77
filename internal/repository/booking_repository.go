package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/venue-calendar/internal/model"
)

// BookingRepo reads venue bookings. Bookings are created and managed by the
// order flow; the calendar only lists them.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo with the given DB handle.
func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// ListRange returns the bookings of a venue dated between start and end
// (inclusive), skipping cancelled ones, ordered by date and start time.
func (r *BookingRepo) ListRange(ctx context.Context, venueID uint64, start, end string) ([]model.BookingRecord, error) {
	const q = `SELECT id, booking_number, venue_id, booking_date, start_time, end_time, status, client_name
               FROM bookings
               WHERE venue_id = ? AND booking_date BETWEEN ? AND ? AND status <> ?
               ORDER BY booking_date ASC, start_time ASC`
	rows, err := r.db.QueryContext(ctx, q, venueID, start, end, model.BookingCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.BookingRecord{}
	for rows.Next() {
		var (
			b                          model.BookingRecord
			date                       time.Time
			startTime, endTime, client sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.BookingNumber, &b.VenueID, &date, &startTime, &endTime, &b.Status, &client); err != nil {
			return nil, err
		}
		b.BookingDate = date.Format(model.DateLayout)
		b.StartTime = startTime.String
		b.EndTime = endTime.String
		b.ClientName = client.String
		out = append(out, b)
	}
	return out, rows.Err()
}
