package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/venue-calendar/internal/calendar"
	"github.com/iliyamo/venue-calendar/internal/render"
)

func (a *app) showCmd() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the month grid of a venue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := monthFlag(month)
			if err != nil {
				return err
			}
			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			defer c.Logout(cmd.Context())

			v := calendar.NewView(c, a.venueID, m, a.cfg.Timeout)
			if err := v.Reload(cmd.Context()); err != nil {
				return err
			}
			return printSnapshot(cmd.OutOrStdout(), v.Snapshot())
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month to show as YYYY-MM (default current month)")
	return cmd
}

// monthFlag parses a --month value; empty means the current month.
func monthFlag(s string) (calendar.Month, error) {
	if s == "" {
		return calendar.MonthOf(time.Now()), nil
	}
	return calendar.ParseMonth(s)
}

func printSnapshot(w io.Writer, snap calendar.Snapshot) error {
	if !snap.Loaded {
		_, err := fmt.Fprintf(w, "%s not loaded\n", snap.Month)
		return err
	}
	if err := render.Month(w, snap.Month, snap.Days); err != nil {
		return err
	}
	return render.Details(w, snap.Days)
}
