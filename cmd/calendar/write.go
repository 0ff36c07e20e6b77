package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/venue-calendar/internal/apiclient"
)

func (a *app) setCmd() *cobra.Command {
	var (
		req    apiclient.SetAvailabilityRequest
		closed bool
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the availability of one day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.editor(cmd)
			if err != nil {
				return err
			}
			defer c.Logout(cmd.Context())
			req.VenueID = a.venueID
			req.IsAvailable = !closed
			rec, err := c.SetAvailability(cmd.Context(), req)
			if err != nil {
				return err
			}
			state := "available"
			if !rec.IsAvailable {
				state = "unavailable"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "venue %d %s: %s\n", rec.VenueID, rec.Date, state)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Date, "date", "", "day to set as YYYY-MM-DD")
	f.BoolVar(&closed, "closed", false, "mark the day unavailable")
	f.StringVar(&req.UnavailableReason, "reason", "", "reason shown for an unavailable day")
	f.StringVar(&req.AvailableFrom, "from", "", "opening time HH:MM")
	f.StringVar(&req.AvailableUntil, "until", "", "closing time HH:MM")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func (a *app) blockCmd() *cobra.Command {
	var (
		req  apiclient.BulkAvailabilityRequest
		open bool
	)
	cmd := &cobra.Command{
		Use:   "block",
		Short: "Set the availability of a range of days",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !open && req.UnavailableReason == "" {
				return errors.New("--reason is required when blocking days")
			}
			c, err := a.editor(cmd)
			if err != nil {
				return err
			}
			defer c.Logout(cmd.Context())
			req.VenueID = a.venueID
			req.IsAvailable = open
			n, err := c.SetBulkAvailability(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "venue %d: %d days updated\n", req.VenueID, n)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.StartDate, "from", "", "first day YYYY-MM-DD")
	f.StringVar(&req.EndDate, "to", "", "last day YYYY-MM-DD")
	f.StringVar(&req.UnavailableReason, "reason", "", "reason shown on blocked days")
	f.BoolVar(&open, "open", false, "reopen the range instead of blocking it")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
