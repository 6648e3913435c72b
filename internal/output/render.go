package output

import (
	"fmt"
	"strings"

	"tweetpulse/internal/analytics"
	"tweetpulse/internal/report"
	"tweetpulse/internal/util"
)

const (
	barWidth      = 30
	maxActorWidth = 32
)

// Section returns a styled header with a rule underneath.
func Section(title string) string {
	return fmt.Sprintf("\n %s\n %s\n", StyleHeader.Render(title), StyleMuted.Render(strings.Repeat("─", 48)))
}

func unavailable[T any](o report.Outcome[T]) string {
	return StyleError.Render("unavailable: " + o.Reason())
}

func metricLine(label, value string) string {
	return " " + StyleLabel.Render(label) + StyleValue.Render(value) + "\n"
}

// Summary renders the totals block.
func Summary(total, successful report.Outcome[int64], ratio report.Outcome[float64]) string {
	var sb strings.Builder
	sb.WriteString(Section("Engagement summary"))
	for _, m := range []struct {
		label string
		o     report.Outcome[int64]
	}{{"Total engagements", total}, {"Successful", successful}} {
		if m.o.Degraded {
			sb.WriteString(metricLine(m.label, "-") + "   " + unavailable(m.o) + "\n")
			continue
		}
		sb.WriteString(metricLine(m.label, fmt.Sprintf("%d", m.o.Value)))
	}
	if ratio.Degraded {
		sb.WriteString(metricLine("Success ratio", "-") + "   " + unavailable(ratio) + "\n")
	} else {
		sb.WriteString(" " + StyleLabel.Render("Success ratio") + RatioBar(ratio.Value, 20) + "\n")
	}
	return sb.String()
}

// RatioBar renders a 0-100 percentage as a bar.
func RatioBar(pct float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := min(max(int(pct/100*float64(width)), 0), width)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	style := StyleError
	switch {
	case pct >= 70:
		style = StyleSuccess
	case pct >= 40:
		style = StyleWarning
	}
	return style.Render(bar) + " " + StyleBold.Render(fmt.Sprintf("%.1f%%", pct))
}

// Series renders one bar per day scaled to the busiest day.
func Series(o report.Outcome[[]analytics.DayCount]) string {
	var sb strings.Builder
	sb.WriteString(Section("Daily engagements"))
	if o.Degraded {
		sb.WriteString(" " + unavailable(o) + "\n")
		return sb.String()
	}
	var peak int64
	for _, d := range o.Value {
		peak = max(peak, d.Count)
	}
	for _, d := range o.Value {
		n := 0
		if peak > 0 {
			n = int(d.Count * barWidth / peak)
		}
		if d.Count > 0 && n == 0 {
			n = 1
		}
		fmt.Fprintf(&sb, " %s  %s %d\n", StyleMuted.Render(d.Day()), StyleSuccess.Render(strings.Repeat("▇", n)), d.Count)
	}
	return sb.String()
}

// ActorLabel formats a leaderboard key on one line; a missing actor shows
// as "(none)".
func ActorLabel(v any) string {
	if v == nil {
		return "(none)"
	}
	return util.NormalizeWhitespace(fmt.Sprint(v))
}

// Leaderboard renders a ranked table.
func Leaderboard(title string, o report.Outcome[[]analytics.LeaderEntry]) string {
	var sb strings.Builder
	sb.WriteString(Section(title))
	if o.Degraded {
		sb.WriteString(" " + unavailable(o) + "\n")
		return sb.String()
	}
	if len(o.Value) == 0 {
		sb.WriteString(" " + StyleMuted.Render("no engagements recorded") + "\n")
		return sb.String()
	}
	t := NewTable("#", "Actor", "Engagements")
	for i, e := range o.Value {
		t.AddRow(fmt.Sprintf("%d", i+1), util.Truncate(ActorLabel(e.Actor), maxActorWidth), fmt.Sprintf("%d", e.Count))
	}
	sb.WriteString(t.Render())
	return sb.String()
}

// Delta renders a percentage change with a direction arrow.
func Delta(pct float64) string {
	switch {
	case pct > 0:
		return StyleSuccess.Render(fmt.Sprintf("↑ %.1f%%", pct))
	case pct < 0:
		return StyleError.Render(fmt.Sprintf("↓ %.1f%%", -pct))
	}
	return StyleMuted.Render("─ 0.0%")
}

// Comparison renders initial vs rerun counts per bucket.
func Comparison(o report.Outcome[analytics.Comparison]) string {
	var sb strings.Builder
	sb.WriteString(Section("Initial run vs rerun"))
	if o.Degraded {
		sb.WriteString(" " + unavailable(o) + "\n")
		return sb.String()
	}
	deltas := o.Value.Deltas()
	t := NewTable("Bucket", "Initial", "Rerun", "Change")
	for _, b := range analytics.Buckets {
		t.AddRow(string(b), fmt.Sprintf("%d", o.Value.Initial.Get(b)), fmt.Sprintf("%d", o.Value.Rerun.Get(b)), Delta(deltas[b]))
	}
	sb.WriteString(t.Render())
	return sb.String()
}

// Snapshot renders every section.
func Snapshot(s report.Snapshot) string {
	var sb strings.Builder
	sb.WriteString(Summary(s.Total, s.Successful, s.Ratio))
	sb.WriteString(Series(s.Series))
	sb.WriteString(Leaderboard("Top celebrities", s.Celebrities))
	sb.WriteString(Leaderboard("Top users", s.Users))
	sb.WriteString(Comparison(s.Comparison))
	fmt.Fprintf(&sb, "\n %s\n", StyleMuted.Render(fmt.Sprintf("run %s at %s", s.RunID, s.GeneratedAt.Format("2006-01-02 15:04:05 MST"))))
	if s.Degraded() {
		sb.WriteString(" " + StyleWarning.Render("some sections fell back to defaults; check the store connection") + "\n")
	}
	return sb.String()
}
