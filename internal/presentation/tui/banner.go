package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"                       _ _           _   ", "#34d399"},
	{"   ___  _ __ ___  _ __ (_) |__   ___ | |_ ", "#2dd4bf"},
	{"  / _ \\| '_ ` _ \\| '_ \\| | '_ \\ / _ \\| __|", "#22d3ee"},
	{" | (_) | | | | | | | | | | |_) | (_) | |_ ", "#38bdf8"},
	{"  \\___/|_| |_| |_|_| |_|_|_.__/ \\___/ \\__|", "#60a5fa"},
}

// PrintBanner writes the omnibot banner, colored for the terminal's profile.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
