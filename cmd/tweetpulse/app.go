package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"tweetpulse/internal/analytics"
	"tweetpulse/internal/config"
	"tweetpulse/internal/logging"
	"tweetpulse/internal/output"
	"tweetpulse/internal/report"
	"tweetpulse/internal/store"
	"tweetpulse/internal/store/backend"
	"tweetpulse/internal/telemetry"
)

const defaultConfigPath = "./tweetpulse.yaml"

// app holds global flags and what PersistentPreRunE prepared.
type app struct {
	out, errOut io.Writer

	flagConfig  string
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool

	cfg      config.Config
	shutdown func(context.Context) error
	closers  []func() error
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tweetpulse",
		Short: "Engagement analytics for X automation runs",
		Long: `tweetpulse reads the action events an X automation bot records
(likes, retweets, comments, their results and reruns) and reports totals,
success ratio, a daily series, top celebrities and users, and how much the
rerun pass recovered.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.prepare,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.flagConfig, "config", defaultConfigPath, "Config file path")
	pf.BoolVar(&a.flagNoColor, "no-color", false, "Disable colored output")
	pf.BoolVar(&a.flagJSON, "json", false, "Output as JSON")
	pf.BoolVar(&a.flagVerbose, "verbose", false, "Enable debug logging")

	root.AddCommand(
		a.initCmd(),
		a.reportCmd(),
		a.seriesCmd(),
		a.leaderboardCmd(),
		a.compareCmd(),
		a.watchCmd(),
		a.serveCmd(),
		a.exportCmd(),
		a.importCmd(),
	)
	return root
}

func (a *app) execute(ctx context.Context, args []string) error {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	err := root.ExecuteContext(ctx)
	for i := len(a.closers) - 1; i >= 0; i-- {
		if cerr := a.closers[i](); cerr != nil {
			slog.Warn("close", "error", cerr.Error())
		}
	}
	if a.shutdown != nil {
		if serr := a.shutdown(context.Background()); serr != nil {
			slog.Warn("telemetry shutdown", "error", serr.Error())
		}
	}
	return err
}

// prepare loads .env and config, then sets up logging, color and tracing.
func (a *app) prepare(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(a.flagConfig)
	if err != nil {
		return err
	}
	if a.flagVerbose {
		cfg.Log.Level = "debug"
	}
	logging.Setup(cfg.Log)
	a.cfg = cfg

	if f, ok := a.out.(*os.File); ok {
		output.AutoColor(f)
	}
	if a.flagNoColor {
		output.SetNoColor(true)
	}

	a.shutdown, err = telemetry.Setup(cmd.Context(), cfg.Telemetry)
	if err != nil {
		slog.Warn("tracing disabled", "error", err.Error())
	}
	return nil
}

// openStore opens the configured store. An unreachable store is replaced
// by one that reconnects on the next read, so reports degrade until the
// store comes back instead of aborting.
func (a *app) openStore(ctx context.Context) (store.EventStore, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	s, err := backend.Open(ctx, a.cfg.Store)
	if err != nil {
		if !store.IsUnavailable(err) {
			return nil, err
		}
		slog.WarnContext(ctx, "event store unavailable, reporting defaults until it reconnects", "driver", a.cfg.Store.Driver, "error", err.Error())
		s = backend.NewLazy(a.cfg.Store)
	}
	a.closers = append(a.closers, s.Close)
	return s, nil
}

func (a *app) reporter(ctx context.Context) (*report.Reporter, error) {
	s, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	return report.New(analytics.New(s)), nil
}

func (a *app) snapshotOptions(days, limit int) report.SnapshotOptions {
	o := report.SnapshotOptions{WindowDays: a.cfg.Report.WindowDays, LeaderboardLimit: a.cfg.Report.LeaderboardLimit}
	if days > 0 {
		o.WindowDays = days
	}
	if limit > 0 {
		o.LeaderboardLimit = limit
	}
	return o
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "encode json")
}
