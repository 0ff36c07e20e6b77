// Command calendar is the operator console of the venue calendar API. It
// logs in, shows and browses the month grid of a venue and edits its
// availability.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/iliyamo/venue-calendar/internal/apiclient"
	"github.com/iliyamo/venue-calendar/internal/config"
	"github.com/iliyamo/venue-calendar/internal/model"
)

// app holds the settings shared by every subcommand.
type app struct {
	cfg     config.ClientConfig
	venueID uint64
	role    string // role of the logged in account
	logger  *log.Logger
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "read .env: %v\n", err)
	}
	if err := newRootCmd(config.LoadClient()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg config.ClientConfig) *cobra.Command {
	a := &app{cfg: cfg, logger: log.New("calendar")}
	a.logger.SetLevel(log.WARN)

	root := &cobra.Command{
		Use:           "calendar",
		Short:         "Inspect and edit venue availability",
		SilenceUsage:  true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfg.BaseURL, "api-url", cfg.BaseURL, "base url of the API, including /api")
	pf.StringVar(&a.cfg.Email, "email", cfg.Email, "login email")
	pf.StringVar(&a.cfg.Password, "password", cfg.Password, "login password")
	pf.DurationVar(&a.cfg.Timeout, "timeout", cfg.Timeout, "per request timeout")
	pf.IntVar(&a.cfg.Retries, "retries", cfg.Retries, "retries on transport errors and 5xx")
	pf.Uint64Var(&a.venueID, "venue", 0, "venue id")

	root.AddCommand(a.showCmd(), a.browseCmd(), a.setCmd(), a.blockCmd())
	return root
}

// client builds an API client and logs in with the configured credentials.
func (a *app) client(cmd *cobra.Command) (*apiclient.Client, error) {
	if a.venueID == 0 {
		return nil, errors.New("--venue is required")
	}
	if a.cfg.Email == "" || a.cfg.Password == "" {
		return nil, errors.New("credentials missing: set --email/--password or CALENDAR_EMAIL/CALENDAR_PASSWORD")
	}
	retries := a.cfg.Retries
	if retries == 0 {
		retries = -1
	}
	c, err := apiclient.New(apiclient.Options{
		BaseURL:  a.cfg.BaseURL,
		Timeout:  a.cfg.Timeout,
		RetryMax: retries,
		Logger:   a.logger,
		OnUnauthorized: func() {
			fmt.Fprintln(cmd.ErrOrStderr(), "session expired, log in again")
		},
	})
	if err != nil {
		return nil, err
	}
	s, err := c.Login(cmd.Context(), a.cfg.Email, a.cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	a.role = s.User.Role
	return c, nil
}

// editor is client for commands that write availability.
func (a *app) editor(cmd *cobra.Command) (*apiclient.Client, error) {
	c, err := a.client(cmd)
	if err != nil {
		return nil, err
	}
	if !model.CanManageCalendar(a.role) {
		_ = c.Logout(cmd.Context())
		return nil, fmt.Errorf("role %s cannot edit availability", a.role)
	}
	return c, nil
}
