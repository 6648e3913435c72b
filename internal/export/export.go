// Package export writes report snapshots as xlsx workbooks.
package export

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"

	"tweetpulse/internal/analytics"
	"tweetpulse/internal/output"
	"tweetpulse/internal/report"
)

// Sheet names.
const (
	SheetSummary     = "Summary"
	SheetTimeSeries  = "Time Series"
	SheetCelebrities = "Celebrities"
	SheetUsers       = "Users"
	SheetOverall     = "Analysis Overall"
)

// Rows of the Analysis Overall sheet. Initial counts sit in D7:D9 and rerun
// counts in D12:D14, one row per bucket in analytics.Buckets order.
const (
	overallInitialRow = 7
	overallRerunRow   = 12
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type workbook struct {
	f    *excelize.File
	bold int
	pct  int
}

// WriteWorkbook renders s as a workbook and writes it to w.
func WriteWorkbook(w io.Writer, s report.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	wb := &workbook{f: f}
	var err error
	if wb.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return errors.Wrap(err, "header style")
	}
	fmtPct := "0.0"
	if wb.pct, err = f.NewStyle(&excelize.Style{CustomNumFmt: &fmtPct}); err != nil {
		return errors.Wrap(err, "percent style")
	}
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return errors.Wrap(err, "rename default sheet")
	}
	for _, name := range []string{SheetTimeSeries, SheetCelebrities, SheetUsers, SheetOverall} {
		if _, err := f.NewSheet(name); err != nil {
			return errors.Wrapf(err, "add sheet %s", name)
		}
	}

	steps := []struct {
		name string
		fn   func(report.Snapshot) error
	}{
		{SheetSummary, wb.summary},
		{SheetTimeSeries, wb.series},
		{SheetCelebrities, func(s report.Snapshot) error { return wb.leaderboard(SheetCelebrities, "Celebrity", s.Celebrities) }},
		{SheetUsers, func(s report.Snapshot) error { return wb.leaderboard(SheetUsers, "User", s.Users) }},
		{SheetOverall, wb.overall},
	}
	for _, st := range steps {
		if err := st.fn(s); err != nil {
			return errors.Wrapf(err, "write sheet %s", st.name)
		}
	}
	f.SetActiveSheet(0)
	return errors.Wrap(f.Write(w), "write workbook")
}

// row writes values left to right starting at column A.
func (wb *workbook) row(sheet string, r int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, r)
	if err != nil {
		return err
	}
	return wb.f.SetSheetRow(sheet, cell, &values)
}

func (wb *workbook) header(sheet string, r int, titles ...any) error {
	if err := wb.row(sheet, r, titles...); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, r)
	last, _ := excelize.CoordinatesToCellName(len(titles), r)
	return wb.f.SetCellStyle(sheet, first, last, wb.bold)
}

func (wb *workbook) unavailable(sheet string, r int, reason string) error {
	return wb.row(sheet, r, "unavailable", reason)
}

func (wb *workbook) summary(s report.Snapshot) error {
	sh := SheetSummary
	if err := wb.header(sh, 1, "Metric", "Value", "Status"); err != nil {
		return err
	}
	status := func(degraded bool, reason string) string {
		if degraded {
			return "unavailable: " + reason
		}
		return "ok"
	}
	rows := [][]any{
		{"Run ID", s.RunID, ""},
		{"Generated at", s.GeneratedAt.Format("2006-01-02 15:04:05 MST"), ""},
		{"Total engagements", s.Total.Value, status(s.Total.Degraded, s.Total.Reason())},
		{"Successful engagements", s.Successful.Value, status(s.Successful.Degraded, s.Successful.Reason())},
		{"Success ratio (%)", s.Ratio.Value, status(s.Ratio.Degraded, s.Ratio.Reason())},
	}
	for i, r := range rows {
		if err := wb.row(sh, i+2, r...); err != nil {
			return err
		}
	}
	if err := wb.f.SetCellStyle(sh, "B6", "B6", wb.pct); err != nil {
		return err
	}
	return wb.f.SetColWidth(sh, "A", "C", 26)
}

func (wb *workbook) series(s report.Snapshot) error {
	sh := SheetTimeSeries
	if err := wb.header(sh, 1, "Date", "Engagements"); err != nil {
		return err
	}
	if s.Series.Degraded {
		return wb.unavailable(sh, 2, s.Series.Reason())
	}
	for i, d := range s.Series.Value {
		if err := wb.row(sh, i+2, d.Day(), d.Count); err != nil {
			return err
		}
	}
	return wb.f.SetColWidth(sh, "A", "B", 14)
}

func (wb *workbook) leaderboard(sh, label string, o report.Outcome[[]analytics.LeaderEntry]) error {
	if err := wb.header(sh, 1, "Rank", label, "Engagements"); err != nil {
		return err
	}
	if o.Degraded {
		return wb.unavailable(sh, 2, o.Reason())
	}
	for i, e := range o.Value {
		if err := wb.row(sh, i+2, i+1, output.ActorLabel(e.Actor), e.Count); err != nil {
			return err
		}
	}
	return wb.f.SetColWidth(sh, "B", "B", 28)
}

func (wb *workbook) overall(s report.Snapshot) error {
	sh := SheetOverall
	if err := wb.f.SetCellValue(sh, "B2", "Initial run vs rerun"); err != nil {
		return err
	}
	if s.Comparison.Degraded {
		if err := wb.f.SetCellValue(sh, "B3", "unavailable: "+s.Comparison.Reason()); err != nil {
			return err
		}
	}
	cmp := s.Comparison.Value
	sections := []struct {
		title  string
		first  int
		counts analytics.BucketCounts
	}{
		{"Initial run", overallInitialRow, cmp.Initial},
		{"Rerun", overallRerunRow, cmp.Rerun},
	}
	for _, sec := range sections {
		if err := wb.f.SetCellValue(sh, cellName(3, sec.first-1), sec.title); err != nil {
			return err
		}
		if err := wb.f.SetCellStyle(sh, cellName(3, sec.first-1), cellName(4, sec.first-1), wb.bold); err != nil {
			return err
		}
		if err := wb.f.SetCellValue(sh, cellName(4, sec.first-1), "Successful"); err != nil {
			return err
		}
		for i, b := range analytics.Buckets {
			r := sec.first + i
			if err := wb.f.SetCellValue(sh, cellName(3, r), string(b)); err != nil {
				return err
			}
			if err := wb.f.SetCellValue(sh, cellName(4, r), sec.counts.Get(b)); err != nil {
				return err
			}
		}
	}
	// Change column next to the rerun block, computed by the spreadsheet.
	if err := wb.f.SetCellValue(sh, cellName(5, overallRerunRow-1), "Change (%)"); err != nil {
		return err
	}
	for i := range analytics.Buckets {
		initial := cellName(4, overallInitialRow+i)
		rerun := cellName(4, overallRerunRow+i)
		target := cellName(5, overallRerunRow+i)
		formula := "IF(" + initial + "=0,0,(" + rerun + "-" + initial + ")/" + initial + "*100)"
		if err := wb.f.SetCellFormula(sh, target, formula); err != nil {
			return err
		}
		if err := wb.f.SetCellStyle(sh, target, target, wb.pct); err != nil {
			return err
		}
	}
	return wb.f.SetColWidth(sh, "C", "E", 14)
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
