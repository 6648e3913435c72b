// Package ingest loads exported action-event documents into a writable store.
// Input is either a JSON array or JSON lines as produced by mongoexport;
// extended-JSON wrappers ($date, $oid, $numberLong) are unwrapped.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/schollz/progressbar/v3"

	"tweetpulse/internal/analytics"
	"tweetpulse/internal/model"
	"tweetpulse/internal/store"
)

const DefaultBatchSize = 500

// Options tunes an import.
type Options struct {
	BatchSize int
	// Progress receives a progress bar when set.
	Progress  io.Writer
	// Size is the input length in bytes; -1 renders a spinner.
	Size      int64
}

// Result summarizes an import.
type Result struct {
	Inserted int
	Skipped  int
	// Undated documents are stored but never appear in a time series.
	Undated  int
	// PerDay counts imported documents by UTC day.
	PerDay   map[time.Time]int64
}

// Span returns the first and last day seen, zero when no document is dated.
func (r Result) Span() (first, last time.Time) {
	days := analytics.SortedDays(r.PerDay)
	if len(days) == 0 {
		return time.Time{}, time.Time{}
	}
	return days[0], days[len(days)-1]
}

type importer struct {
	w     store.Writer
	batch []model.Document
	size  int
	res   Result
}

func (im *importer) add(ctx context.Context, d model.Document) error {
	if model.EventFromDocument(d).Date.IsZero() {
		im.res.Undated++
	}
	im.batch = append(im.batch, d)
	if len(im.batch) >= im.size {
		return im.flush(ctx)
	}
	return nil
}

func (im *importer) flush(ctx context.Context) error {
	if len(im.batch) == 0 {
		return nil
	}
	if err := im.w.Insert(ctx, im.batch...); err != nil {
		return errors.Wrapf(err, "insert batch after %d documents", im.res.Inserted)
	}
	for day, n := range analytics.DailyCounts(im.batch) {
		im.res.PerDay[day] += n
	}
	im.res.Inserted += len(im.batch)
	im.batch = im.batch[:0]
	return nil
}

// Import streams documents from r into w in batches. Malformed JSON lines
// are skipped and counted; a malformed JSON array aborts.
func Import(ctx context.Context, w store.Writer, r io.Reader, opts Options) (Result, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Progress != nil {
		bar := newBar(opts.Progress, opts.Size)
		defer func() { _ = bar.Finish() }()
		pr := progressbar.NewReader(r, bar)
		r = &pr
	}
	im := &importer{w: w, size: opts.BatchSize, res: Result{PerDay: map[time.Time]int64{}}}

	br := bufio.NewReaderSize(r, 64*1024)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return im.res, nil
	}
	if err != nil {
		return im.res, errors.Wrap(err, "read input")
	}
	if first == '[' {
		err = im.readArray(ctx, br)
	} else {
		err = im.readLines(ctx, br)
	}
	if err != nil {
		return im.res, err
	}
	return im.res, im.flush(ctx)
}

func newBar(w io.Writer, size int64) *progressbar.ProgressBar {
	if size == 0 {
		size = -1
	}
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("importing"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

func (im *importer) readArray(ctx context.Context, r io.Reader) error {
	dec := json.NewDecoder(r)
	if _, err := dec.Token(); err != nil {
		return errors.Wrap(err, "read array start")
	}
	for dec.More() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			return errors.Wrapf(err, "decode array element %d", im.res.Inserted+len(im.batch)+im.res.Skipped)
		}
		if err := im.add(ctx, Normalize(raw)); err != nil {
			return err
		}
	}
	return nil
}

func (im *importer) readLines(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var raw map[string]any
		if err := json.Unmarshal(line, &raw); err != nil || raw == nil {
			im.res.Skipped++
			continue
		}
		if err := im.add(ctx, Normalize(raw)); err != nil {
			return err
		}
	}
	return errors.Wrap(sc.Err(), "scan input")
}
