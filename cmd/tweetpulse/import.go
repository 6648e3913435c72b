package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"tweetpulse/internal/cmdlog"
	"tweetpulse/internal/ingest"
	"tweetpulse/internal/model"
	"tweetpulse/internal/store/backend"
)

func (a *app) importCmd() *cobra.Command {
	var batch int
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Load a JSON or JSON-lines export into the configured store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdlog.Run("import", func() error {
				if err := a.cfg.Validate(); err != nil {
					return err
				}
				var (
					in   io.Reader = os.Stdin
					size int64     = -1
				)
				if args[0] != "-" {
					f, err := os.Open(args[0])
					if err != nil {
						return errors.Wrapf(err, "open %s", args[0])
					}
					defer f.Close()
					if st, err := f.Stat(); err == nil {
						size = st.Size()
					}
					in = f
				}
				s, w, err := backend.OpenWriter(cmd.Context(), a.cfg.Store)
				if err != nil {
					return err
				}
				defer s.Close()

				opts := ingest.Options{BatchSize: batch, Size: size}
				if f, ok := a.errOut.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
					opts.Progress = f
				}
				res, err := ingest.Import(cmd.Context(), w, in, opts)
				if err != nil {
					return err
				}
				if a.flagJSON {
					first, last := res.Span()
					return a.writeJSON(map[string]any{"inserted": res.Inserted, "skipped": res.Skipped, "undated": res.Undated, "first_day": first, "last_day": last})
				}
				fmt.Fprintf(a.out, "Imported %d documents (%d skipped)\n", res.Inserted, res.Skipped)
				if res.Undated > 0 {
					fmt.Fprintf(a.errOut, "warning: %d documents have no date and will not appear in the time series\n", res.Undated)
				}
				if first, last := res.Span(); !first.IsZero() {
					fmt.Fprintf(a.out, "Dated %s to %s across %d days\n", first.Format(model.DayLayout), last.Format(model.DayLayout), len(res.PerDay))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&batch, "batch", ingest.DefaultBatchSize, "Documents per insert")
	return cmd
}
