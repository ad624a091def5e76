// Package markup turns the small structured-text dialect used for generated
// articles into a flat sequence of typed nodes.
//
// Recognised blocks are headings (#, ##, ###), list items ("- ", "* ", "1. ")
// and paragraphs. Inline text supports **strong** and *emphasis* only.
// Parsing never fails: anything unrecognised is kept as literal text.
package markup

import (
	"regexp"
	"strings"
	"unicode"
)

// NodeKind identifies the block type of a Node.
type NodeKind int

const (
	NodeHeading NodeKind = iota
	NodeList
	NodeParagraph
)

func (k NodeKind) String() string {
	switch k {
	case NodeHeading:
		return "heading"
	case NodeList:
		return "list"
	case NodeParagraph:
		return "paragraph"
	default:
		return "unknown"
	}
}

// Node is one displayable block.
type Node struct {
	Kind NodeKind

	// Level is 1, 2 or 3 for headings and 0 otherwise.
	Level int

	// Ordered is set for lists whose first item was numbered.
	Ordered bool

	// Text holds the content of headings and paragraphs.
	Text []Span

	// Items holds the content of list items.
	Items [][]Span
}

var (
	orderedItem   = regexp.MustCompile(`^\d+\.[\s\p{Zs}]+(.*)`)
	unorderedItem = regexp.MustCompile(`^[-*][\s\p{Zs}]+(.*)`)
)

var headingMarkers = []struct {
	prefix string
	level  int
}{
	{"### ", 3},
	{"## ", 2},
	{"# ", 1},
}

// Parse converts src into nodes. Identical input always yields identical output.
func Parse(src string) []Node {
	var (
		nodes []Node
		list  *Node
	)

	flush := func() {
		if list != nil {
			nodes = append(nodes, *list)
			list = nil
		}
	}

	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)

		if item, ordered, ok := listItem(trimmed); ok {
			if list == nil {
				list = &Node{Kind: NodeList, Ordered: ordered}
			}
			list.Items = append(list.Items, Inline(item))
			continue
		}

		flush()

		if level, text, ok := heading(trimmed); ok {
			nodes = append(nodes, Node{Kind: NodeHeading, Level: level, Text: Inline(text)})
			continue
		}
		if trimmed == "" {
			continue
		}
		nodes = append(nodes, Node{Kind: NodeParagraph, Text: Inline(trimmed)})
	}
	flush()

	return nodes
}

func listItem(line string) (string, bool, bool) {
	if m := orderedItem.FindStringSubmatch(line); m != nil {
		return m[1], true, true
	}
	if m := unorderedItem.FindStringSubmatch(line); m != nil {
		return m[1], false, true
	}
	return "", false, false
}

func heading(line string) (int, string, bool) {
	for _, h := range headingMarkers {
		if strings.HasPrefix(line, h.prefix) {
			return h.level, line[len(h.prefix):], true
		}
	}
	return 0, "", false
}
