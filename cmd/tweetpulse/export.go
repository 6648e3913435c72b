package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"tweetpulse/internal/cmdlog"
	"tweetpulse/internal/export"
	"tweetpulse/internal/publish"
)

func (a *app) exportCmd() *cobra.Command {
	var (
		out       string
		doPublish bool
		days      int
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the report as an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmdlog.Run("export", func() error {
				r, err := a.reporter(cmd.Context())
				if err != nil {
					return err
				}
				s := r.Snapshot(cmd.Context(), a.snapshotOptions(days, limit))
				var buf bytes.Buffer
				if err := export.WriteWorkbook(&buf, s); err != nil {
					return err
				}
				if out == "" {
					out = fmt.Sprintf("tweetpulse-%s.xlsx", s.GeneratedAt.Format("20060102-150405"))
				}
				if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
					return errors.Wrapf(err, "write %s", out)
				}
				fmt.Fprintln(a.out, "Workbook written to:", out)
				if s.Degraded() {
					fmt.Fprintln(a.errOut, "warning: some sections are unavailable and were exported as defaults")
				}
				if !doPublish {
					return nil
				}
				u, err := publish.NewS3Uploader(cmd.Context(), a.cfg.Publish)
				if err != nil {
					return err
				}
				loc, err := u.Upload(cmd.Context(), publish.Key(a.cfg.Publish.Prefix, s.GeneratedAt, s.RunID), buf.Bytes(), export.ContentType)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Published to:", loc)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default tweetpulse-<timestamp>.xlsx)")
	cmd.Flags().BoolVar(&doPublish, "publish", false, "Also upload to the configured S3 bucket")
	cmd.Flags().IntVar(&days, "days", 0, "Days in the time series (default from config)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Leaderboard size (default from config)")
	return cmd
}
