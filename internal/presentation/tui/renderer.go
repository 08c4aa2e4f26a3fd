package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// When styled is false, or glamour cannot start, text passes through unchanged.
func NewRenderer(styled bool) func(string) (string, error) {
	plain := func(s string) (string, error) { return s, nil }
	if !styled {
		return plain
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return plain
	}
	return r.Render
}
