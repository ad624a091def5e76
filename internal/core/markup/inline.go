package markup

import (
	"regexp"
	"strings"
)

// SpanKind identifies how a run of inline text is emphasised.
type SpanKind int

const (
	SpanPlain SpanKind = iota
	SpanStrong
	SpanEmphasis
)

// Span is a run of literal text with a single emphasis kind.
// Text is never interpreted as markup again.
type Span struct {
	Kind SpanKind
	Text string
}

var (
	strongPattern   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	emphasisPattern = regexp.MustCompile(`\*(.+?)\*`)
)

// Inline splits text into spans. Strong markers are matched first so that
// "**x**" is not read as two emphasis markers; emphasis is then matched in the
// remaining plain runs. Unbalanced asterisks stay in the plain text.
func Inline(text string) []Span {
	var spans []Span
	last := 0
	for _, m := range strongPattern.FindAllStringSubmatchIndex(text, -1) {
		spans = appendEmphasis(spans, text[last:m[0]])
		spans = append(spans, Span{Kind: SpanStrong, Text: text[m[2]:m[3]]})
		last = m[1]
	}
	return appendEmphasis(spans, text[last:])
}

func appendEmphasis(spans []Span, text string) []Span {
	last := 0
	for _, m := range emphasisPattern.FindAllStringSubmatchIndex(text, -1) {
		spans = appendPlain(spans, text[last:m[0]])
		spans = append(spans, Span{Kind: SpanEmphasis, Text: text[m[2]:m[3]]})
		last = m[1]
	}
	return appendPlain(spans, text[last:])
}

func appendPlain(spans []Span, text string) []Span {
	if text == "" {
		return spans
	}
	return append(spans, Span{Kind: SpanPlain, Text: text})
}

// PlainText concatenates the text of spans without any markers.
func PlainText(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}
