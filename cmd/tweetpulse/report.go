package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tweetpulse/internal/analytics"
	"tweetpulse/internal/cmdlog"
	"tweetpulse/internal/output"
	"tweetpulse/internal/theme"
)

func (a *app) reportCmd() *cobra.Command {
	var days, limit int
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show every report section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmdlog.Run("report", func() error {
				r, err := a.reporter(cmd.Context())
				if err != nil {
					return err
				}
				s := r.Snapshot(cmd.Context(), a.snapshotOptions(days, limit))
				if a.flagJSON {
					return a.writeJSON(s)
				}
				theme.PrintBanner(a.out, !output.IsNoColor())
				fmt.Fprint(a.out, output.Snapshot(s))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Days in the time series (default from config)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Leaderboard size (default from config)")
	return cmd
}

func (a *app) seriesCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "series",
		Short: "Show daily engagement counts, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmdlog.Run("series", func() error {
				r, err := a.reporter(cmd.Context())
				if err != nil {
					return err
				}
				o := r.EngagementTimeSeries(cmd.Context(), a.snapshotOptions(days, 0).WindowDays)
				if a.flagJSON {
					return a.writeJSON(o)
				}
				fmt.Fprint(a.out, output.Series(o))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Days in the series (default from config)")
	return cmd
}

func (a *app) leaderboardCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:       "leaderboard <celebrity|user>",
		Short:     "Rank celebrities or users by engagement count",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(analytics.Celebrity), string(analytics.User)},
		RunE: func(cmd *cobra.Command, args []string) error {
			dim, err := analytics.ParseDimension(args[0])
			if err != nil {
				return err
			}
			return cmdlog.Run("leaderboard", func() error {
				r, err := a.reporter(cmd.Context())
				if err != nil {
					return err
				}
				o := r.Leaderboard(cmd.Context(), dim, a.snapshotOptions(0, limit).LeaderboardLimit)
				if a.flagJSON {
					return a.writeJSON(o)
				}
				title := "Top celebrities"
				if dim == analytics.User {
					title = "Top users"
				}
				fmt.Fprint(a.out, output.Leaderboard(title, o))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Entries to show (default from config)")
	return cmd
}

func (a *app) compareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare",
		Short: "Compare initial-run and rerun successes per bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmdlog.Run("compare", func() error {
				r, err := a.reporter(cmd.Context())
				if err != nil {
					return err
				}
				o := r.RunComparison(cmd.Context())
				if a.flagJSON {
					return a.writeJSON(map[string]any{"comparison": o, "deltas": o.Value.Deltas()})
				}
				fmt.Fprint(a.out, output.Comparison(o))
				return nil
			})
		},
	}
}
