package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"multiviral/internal/core/markup"
)

// Styles decides how rendered text looks. The zero value prints plain text.
type Styles struct {
	Enabled  bool
	Heading  [4]lipgloss.Style // indexed by heading level
	Strong   lipgloss.Style
	Emphasis lipgloss.Style
	Accent   lipgloss.Style
	Success  lipgloss.Style
	Failure  lipgloss.Style
	Muted    lipgloss.Style
}

// TerminalStyles returns the styles used on an interactive terminal.
func TerminalStyles() Styles {
	return Styles{
		Enabled: true,
		Heading: [4]lipgloss.Style{
			{},
			lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("#c084fc")),
			lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00d4ff")),
			lipgloss.NewStyle().Bold(true),
		},
		Strong:   lipgloss.NewStyle().Bold(true),
		Emphasis: lipgloss.NewStyle().Italic(true),
		Accent:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00d4ff")),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("#34d399")),
		Failure:  lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171")),
		Muted:    lipgloss.NewStyle().Faint(true),
	}
}

func (s Styles) render(style lipgloss.Style, text string) string {
	if !s.Enabled || text == "" {
		return text
	}
	return style.Render(text)
}

// Spans renders inline spans. Span text is printed as is, never re-parsed.
func (s Styles) Spans(spans []markup.Span) string {
	var b strings.Builder
	for _, sp := range spans {
		switch sp.Kind {
		case markup.SpanStrong:
			b.WriteString(s.render(s.Strong, sp.Text))
		case markup.SpanEmphasis:
			b.WriteString(s.render(s.Emphasis, sp.Text))
		default:
			b.WriteString(sp.Text)
		}
	}
	return b.String()
}

// Markup writes nodes to w, one block per paragraph separated by blank lines.
func Markup(w io.Writer, nodes []markup.Node, s Styles) error {
	for i, n := range nodes {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := writeNode(w, n, s); err != nil {
			return err
		}
	}
	return nil
}

func writeNode(w io.Writer, n markup.Node, s Styles) error {
	switch n.Kind {
	case markup.NodeHeading:
		text := s.Spans(n.Text)
		if s.Enabled {
			text = s.Heading[n.Level].Render(text)
		} else {
			text = strings.Repeat("#", n.Level) + " " + text
		}
		_, err := fmt.Fprintln(w, text)
		return err
	case markup.NodeList:
		for i, item := range n.Items {
			bullet := "•"
			if n.Ordered {
				bullet = fmt.Sprintf("%d.", i+1)
			}
			if _, err := fmt.Fprintf(w, "  %s %s\n", bullet, s.Spans(item)); err != nil {
				return err
			}
		}
		return nil
	default:
		_, err := fmt.Fprintln(w, s.Spans(n.Text))
		return err
	}
}
