package theme

import (
	"fmt"
	"io"
)

// Banner returns the CLI banner; color adds ANSI escapes.
func Banner(color bool) string {
	cyan, magenta, yellow, reset := "\033[36m", "\033[35m", "\033[33m", "\033[0m"
	if !color {
		cyan, magenta, yellow, reset = "", "", "", ""
	}
	return "" +
		"  ◆◇◆   " + magenta + "TWEETPULSE" + reset + "   ◆◇◆\n" +
		cyan + "   ▁▂▃▅▆▇█▇▆▅▃▂▁▂▃▅▇█▇▅▃▂▁\n" + reset +
		yellow + "   ─────────────────────────\n" + reset +
		"   engagement analytics for X automation runs\n"
}

// PrintBanner writes the banner to w.
func PrintBanner(w io.Writer, color bool) {
	fmt.Fprint(w, Banner(color))
}
