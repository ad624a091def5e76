package view

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"multiviral/internal/core/domain"
	"multiviral/internal/core/markup"
)

// Section selects which artifact to display.
type Section string

const (
	SectionAll     Section = "all"
	SectionClips   Section = "clips"
	SectionThread  Section = "thread"
	SectionArticle Section = "article"
)

// ParseSection validates a section name.
func ParseSection(s string) (Section, error) {
	switch Section(s) {
	case SectionAll, SectionClips, SectionThread, SectionArticle:
		return Section(s), nil
	case "":
		return SectionAll, nil
	}
	return "", fmt.Errorf("unknown section %q: must be all, clips, thread or article", s)
}

const titleWidth = 48

// Results writes the selected artifacts.
func Results(w io.Writer, a *domain.Artifacts, section Section, s Styles) error {
	var b strings.Builder
	if section == SectionAll || section == SectionClips {
		writeClips(&b, a.Clips, s)
	}
	if section == SectionAll || section == SectionThread {
		writeThread(&b, a.Thread, s)
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	if section == SectionAll || section == SectionArticle {
		return Article(w, a.Article, s)
	}
	return nil
}

func writeClips(b *strings.Builder, clips []domain.Clip, s Styles) {
	fmt.Fprintf(b, "%s (%d)\n", s.render(s.Heading[2], "Clip candidates"), len(clips))
	for i, c := range clips {
		rank := fmt.Sprintf("#%d", i+1)
		span := c.StartTime + " ~ " + c.EndTime
		fmt.Fprintf(b, "  %s  %s  %s\n",
			padRight(s.render(s.Accent, rank), runewidth.StringWidth(rank), 4),
			span,
			runewidth.Truncate(c.Title, titleWidth, "…"))
		if c.Reason != "" {
			fmt.Fprintf(b, "        %s %s\n", s.render(s.Muted, "why it spreads:"), c.Reason)
		}
	}
	b.WriteString("\n")
}

func writeThread(b *strings.Builder, posts []string, s Styles) {
	fmt.Fprintf(b, "%s (%d)\n", s.render(s.Heading[2], "Thread"), len(posts))
	for i, post := range posts {
		fmt.Fprintf(b, "  %s %s\n", s.render(s.Accent, fmt.Sprintf("%d/%d", i+1, len(posts))), indent(post, "      "))
	}
	b.WriteString("\n")
}

// Article writes the article heading line and the rendered document.
func Article(w io.Writer, article string, s Styles) error {
	p := message.NewPrinter(language.English)
	header := p.Sprintf("Article (about %d characters)", utf8.RuneCountInString(article))
	if _, err := fmt.Fprintf(w, "%s\n\n", s.render(s.Heading[2], header)); err != nil {
		return err
	}
	return Markup(w, markup.Parse(article), s)
}

// padRight pads text (whose visible width is width) with spaces up to total columns.
func padRight(text string, width, total int) string {
	if width >= total {
		return text
	}
	return text + strings.Repeat(" ", total-width)
}

func indent(text, prefix string) string {
	return strings.ReplaceAll(text, "\n", "\n"+prefix)
}
