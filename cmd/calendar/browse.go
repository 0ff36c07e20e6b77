package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/iliyamo/venue-calendar/internal/calendar"
)

const browseHelp = "n next, p previous, r reload, g YYYY-MM jump, q quit"

func (a *app) browseCmd() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Navigate the month grid interactively",
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
			return browse(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "first month as YYYY-MM (default current month)")
	return cmd
}

// browse reads navigation commands from in and prints every month that
// finishes loading. Loads run in the background so input is never blocked;
// responses overtaken by a later navigation are dropped silently.
func browse(ctx context.Context, in io.Reader, out io.Writer, v *calendar.View) error {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	target := v.Selected()
	load := func(m calendar.Month) {
		done := v.NavigateAsync(ctx, m)
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := <-done
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, calendar.ErrStale):
			case err != nil:
				fmt.Fprintf(out, "error: %v\n", err)
			default:
				if err := printSnapshot(out, v.Snapshot()); err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
				}
			}
		}()
	}

	fmt.Fprintln(out, browseHelp)
	load(target)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "n":
			target = target.Next()
		case "p":
			target = target.Prev()
		case "r":
		case "g":
			if len(fields) != 2 {
				printLocked(&mu, out, "usage: g YYYY-MM")
				continue
			}
			m, err := calendar.ParseMonth(fields[1])
			if err != nil {
				printLocked(&mu, out, err.Error())
				continue
			}
			target = m
		case "q":
			wg.Wait()
			return nil
		default:
			printLocked(&mu, out, browseHelp)
			continue
		}
		load(target)
	}
	wg.Wait()
	return sc.Err()
}

func printLocked(mu *sync.Mutex, w io.Writer, msg string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(w, msg)
}
