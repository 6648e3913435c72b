package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"tweetpulse/internal/jobs"
	"tweetpulse/internal/output"
	"tweetpulse/internal/report"
)

const clearScreen = "\033[H\033[2J"

func (a *app) watchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the report on an interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval < time.Second {
				return errors.Newf("interval must be at least 1s, got %s", interval)
			}
			r, err := a.reporter(cmd.Context())
			if err != nil {
				return err
			}
			sink := func(_ context.Context, s report.Snapshot) error {
				if a.flagJSON {
					return a.writeJSON(s)
				}
				if !output.IsNoColor() {
					fmt.Fprint(a.out, clearScreen)
				}
				fmt.Fprint(a.out, output.Snapshot(s))
				fmt.Fprintf(a.out, " %s\n", output.StyleMuted.Render(fmt.Sprintf("refreshing every %s, ctrl-c to stop", interval)))
				return nil
			}
			err = jobs.RunRefreshLoop(cmd.Context(), r, a.snapshotOptions(0, 0), interval, sink)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "Refresh interval")
	return cmd
}
