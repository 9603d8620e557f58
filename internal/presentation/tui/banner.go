package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Swimlane ASCII banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  ___          _           _", "#818cf8"},
		{" / __|_ __ __ (_)_ __  ___| |__ _ _ _  ___", "#a78bfa"},
		{" \\__ \\ V  V / | | '  \\|___| / _` | ' \\/ -_)", "#c084fc"},
		{" |___/\\_/\\_/  |_|_|_|_|   |_\\__,_|_||_\\___|", "#e879f9"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
