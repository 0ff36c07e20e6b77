package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/iliyamo/venue-calendar/internal/calendar"
	"github.com/iliyamo/venue-calendar/internal/model"
)

func february() (calendar.Month, []model.CalendarDay) {
	m := calendar.NewMonth(2025, time.February)
	days := calendar.Merge(m.Grid(),
		[]model.AvailabilityRecord{
			{VenueID: 1, Date: "2025-02-04", IsAvailable: false, UnavailableReason: "maintenance"},
			{VenueID: 1, Date: "2025-02-05", IsAvailable: true, AvailableFrom: "10:00", AvailableUntil: "18:00"},
		},
		[]model.BookingRecord{
			{ID: 7, BookingNumber: "BK-7", VenueID: 1, BookingDate: "2025-02-03", StartTime: "18:00", EndTime: "22:00", Status: model.BookingConfirmed, ClientName: "Ada"},
		})
	return m, days
}

func TestCell(t *testing.T) {
	c := qt.New(t)
	_, days := february()
	byDate := map[string]model.CalendarDay{}
	for _, d := range days {
		byDate[d.Date] = d
	}
	c.Assert(Cell(byDate["2025-01-26"]), qt.Equals, "(26)")
	c.Assert(Cell(byDate["2025-02-01"]), qt.Equals, "1")
	c.Assert(Cell(byDate["2025-02-03"]), qt.Equals, "3*")
	c.Assert(Cell(byDate["2025-02-04"]), qt.Equals, "4x")
	c.Assert(Cell(byDate["2025-02-05"]), qt.Equals, "5+")
	c.Assert(Cell(byDate["2025-03-08"]), qt.Equals, "(8)")
}

func TestMonthTable(t *testing.T) {
	c := qt.New(t)
	m, days := february()
	var buf bytes.Buffer
	c.Assert(Month(&buf, m, days), qt.IsNil)
	out := buf.String()

	c.Assert(strings.HasPrefix(out, "February 2025\n"), qt.IsTrue)
	c.Assert(out, qt.Contains, "Sun")
	c.Assert(out, qt.Contains, "Sat")
	c.Assert(out, qt.Contains, "3*")
	c.Assert(strings.HasSuffix(out, Legend+"\n"), qt.IsTrue)

	rows := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "|") {
			rows++
		}
	}
	// header plus six weeks
	c.Assert(rows, qt.Equals, 7)
}

func TestDetails(t *testing.T) {
	c := qt.New(t)
	_, days := february()
	var buf bytes.Buffer
	c.Assert(Details(&buf, days), qt.IsNil)
	c.Assert(buf.String(), qt.Equals, ""+
		"2025-02-03  booking BK-7 18:00-22:00 Ada (CONFIRMED)\n"+
		"2025-02-04  closed: maintenance\n"+
		"2025-02-05  open 10:00-18:00\n")
}
