package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	qt "github.com/frankban/quicktest"

	"github.com/iliyamo/venue-calendar/internal/model"
)

func TestBookingListRangeSkipsCancelled(t *testing.T) {
	c := qt.New(t)
	db, mock := newMock(c)
	rows := sqlmock.NewRows([]string{"id", "booking_number", "venue_id", "booking_date", "start_time", "end_time", "status", "client_name"}).
		AddRow(11, "BK-0011", 3, day("2025-02-14"), "10:00:00", "12:00:00", "CONFIRMED", "Rina").
		AddRow(12, "BK-0012", 3, day("2025-02-14"), nil, nil, "PENDING", nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings")).
		WithArgs(uint64(3), "2025-02-01", "2025-02-28", model.BookingCancelled).
		WillReturnRows(rows)

	got, err := NewBookingRepo(db).ListRange(context.Background(), 3, "2025-02-01", "2025-02-28")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, []model.BookingRecord{
		{ID: 11, BookingNumber: "BK-0011", VenueID: 3, BookingDate: "2025-02-14", StartTime: "10:00:00", EndTime: "12:00:00", Status: "CONFIRMED", ClientName: "Rina"},
		{ID: 12, BookingNumber: "BK-0012", VenueID: 3, BookingDate: "2025-02-14", Status: "PENDING"},
	})
}
