package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"                   _         _           _",
	"  _ __   __ _ _ __| | ____ _| | __ _ ___| |__",
	" | '_ \\ / _` | '__| |/ / _` | |/ _` / __| '_ \\",
	" | |_) | (_| | |  |   < (_| | | (_| \\__ \\ | | |",
	" | .__/ \\__,_|_|  |_|\\_\\__,_|_|\\__,_|___/_| |_|",
	" |_|",
}

// Sky to lime, one color per line.
var bannerColors = []string{"#38bdf8", "#22d3ee", "#2dd4bf", "#34d399", "#4ade80", "#a3e635"}

// PrintBanner writes the parkdash banner and version to w.
// Colors follow the terminal behind w and are dropped when w is not a terminal.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)

	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(out.Color(bannerColors[i%len(bannerColors)])))
	}
	fmt.Fprintf(w, "  %s\n\n", out.String("v"+strings.TrimSpace(version)).Faint())
}
