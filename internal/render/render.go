// Package render draws month grids as plain-text tables for the calendar CLI.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/iliyamo/venue-calendar/internal/calendar"
	"github.com/iliyamo/venue-calendar/internal/model"
)

var weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var markers = map[calendar.Status]string{
	calendar.StatusBooked:      "*",
	calendar.StatusUnavailable: "x",
	calendar.StatusAvailable:   "+",
	calendar.StatusUnset:       "",
}

// Legend explains the cell markers printed by Month.
const Legend = "(n) other month   n+ available   nx unavailable   n* booked   n unset"

// Cell is the text of one grid cell: the day number followed by the status
// marker. Days outside the month are shown in parentheses.
func Cell(d model.CalendarDay) string {
	n := strings.TrimLeft(d.Date[len(d.Date)-2:], "0")
	st := calendar.Classify(d)
	if st == calendar.StatusDisabled {
		return "(" + n + ")"
	}
	return n + markers[st]
}

// Month writes a titled 6x7 table of days followed by the legend. days is
// expected to be a merged grid of calendar.GridCells cells; a short slice
// leaves the last row incomplete.
func Month(w io.Writer, month calendar.Month, days []model.CalendarDay) error {
	if _, err := fmt.Fprintf(w, "%s %d\n", month.Month, month.Year); err != nil {
		return err
	}
	t := tablewriter.NewWriter(w)
	t.SetHeader(weekdays)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	t.SetAlignment(tablewriter.ALIGN_RIGHT)

	row := make([]string, 0, len(weekdays))
	for _, d := range days {
		row = append(row, Cell(d))
		if len(row) == len(weekdays) {
			t.Append(row)
			row = make([]string, 0, len(weekdays))
		}
	}
	if len(row) > 0 {
		for len(row) < len(weekdays) {
			row = append(row, "")
		}
		t.Append(row)
	}
	t.Render()
	_, err := fmt.Fprintln(w, Legend)
	return err
}

// Details lists every day of the month that carries a reason, a time window
// or bookings, one line per item.
func Details(w io.Writer, days []model.CalendarDay) error {
	for _, d := range days {
		if !d.IsCurrentMonth {
			continue
		}
		if a := d.Availability; a != nil {
			switch {
			case !a.IsAvailable && a.UnavailableReason != "":
				if _, err := fmt.Fprintf(w, "%s  closed: %s\n", d.Date, a.UnavailableReason); err != nil {
					return err
				}
			case a.IsAvailable && (a.AvailableFrom != "" || a.AvailableUntil != ""):
				if _, err := fmt.Fprintf(w, "%s  open %s-%s\n", d.Date, a.AvailableFrom, a.AvailableUntil); err != nil {
					return err
				}
			}
		}
		for _, b := range d.Bookings {
			who := b.ClientName
			if who == "" {
				who = "-"
			}
			if _, err := fmt.Fprintf(w, "%s  booking %s %s-%s %s (%s)\n",
				d.Date, bookingLabel(b), b.StartTime, b.EndTime, who, b.Status); err != nil {
				return err
			}
		}
	}
	return nil
}

func bookingLabel(b model.BookingRecord) string {
	if b.BookingNumber != "" {
		return b.BookingNumber
	}
	return fmt.Sprintf("#%d", b.ID)
}
