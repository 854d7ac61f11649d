package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/charmbracelet/glamour"
)

const defaultWidth = 80

// NewRenderer returns a function that renders markdown for the terminal,
// wrapped at width. The style follows the terminal background.
func NewRenderer(width int) (func(string) (string, error), error) {
	if width <= 0 {
		width = defaultWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return r.Render, nil
}

// SliceStatus is one row of the dashboard summary.
type SliceStatus struct {
	Name string
	domain.Status
}

// Summary builds the markdown dashboard summary: one table row per slice.
func Summary(title string, slices []SliceStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if len(slices) == 0 {
		b.WriteString("_No slices loaded._\n")
		return b.String()
	}

	b.WriteString("| slice | state | message |\n|---|---|---|\n")
	for _, s := range slices {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", s.Name, stateWord(s.Status), escapeCell(s.Message))
	}
	return b.String()
}

func stateWord(s domain.Status) string {
	switch {
	case s.Pending:
		return "⏳ loading"
	case s.Error:
		return "❌ error"
	default:
		return "✅ ok"
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(StripControl(s), "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
