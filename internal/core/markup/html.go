package markup

import (
	"fmt"
	"html"
	"strings"
)

// HTML renders nodes as an HTML fragment. All text is escaped; the only tags
// produced are the block tags and <strong>/<em> for spans.
func HTML(nodes []Node) string {
	var b strings.Builder
	for _, n := range nodes {
		switch n.Kind {
		case NodeHeading:
			fmt.Fprintf(&b, "<h%d>%s</h%d>\n", n.Level, htmlSpans(n.Text), n.Level)
		case NodeList:
			tag := "ul"
			if n.Ordered {
				tag = "ol"
			}
			fmt.Fprintf(&b, "<%s>\n", tag)
			for _, item := range n.Items {
				fmt.Fprintf(&b, "<li>%s</li>\n", htmlSpans(item))
			}
			fmt.Fprintf(&b, "</%s>\n", tag)
		case NodeParagraph:
			fmt.Fprintf(&b, "<p>%s</p>\n", htmlSpans(n.Text))
		}
	}
	return b.String()
}

func htmlSpans(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		text := html.EscapeString(s.Text)
		switch s.Kind {
		case SpanStrong:
			b.WriteString("<strong>" + text + "</strong>")
		case SpanEmphasis:
			b.WriteString("<em>" + text + "</em>")
		default:
			b.WriteString(text)
		}
	}
	return b.String()
}
