// Package chapter slices an extracted article body into reader-sized
// chapters. Short bodies pass through untouched; long ones are divided at
// top-level second-level headings when the document has them, or by element
// count when it does not.
package chapter

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/offprint/offprint/internal/sanitize"
)

// Chapter is one spine entry of the packaged document.
type Chapter struct {
	Index    int
	Title    string
	BodyHTML string
}

const (
	// splitThresholdRunes is the plain-text length below which a body is
	// kept as a single chapter.
	splitThresholdRunes = 15000

	// minElementsPerChapter is how many top-level elements a chapter
	// accumulates before the count-based splitter may close it.
	minElementsPerChapter = 50
)

var blockLike = map[atom.Atom]bool{
	atom.P:          true,
	atom.Div:        true,
	atom.Blockquote: true,
	atom.Ul:         true,
	atom.Ol:         true,
	atom.Table:      true,
}

// Split divides bodyHTML into at least one chapter. Indices are 0-based and
// contiguous, and the chapters together carry every top-level node of the
// input exactly once.
func Split(bodyHTML, title string) []Chapter {
	single := []Chapter{{Index: 0, Title: title, BodyHTML: bodyHTML}}
	if sanitize.TextLength(bodyHTML) < splitThresholdRunes {
		return single
	}

	nodes := topLevelNodes(bodyHTML)
	if len(nodes) == 0 {
		return single
	}

	chapters := splitByHeadings(nodes, title)
	if len(chapters) <= 1 {
		chapters = splitByCount(nodes, title)
	}
	if len(chapters) <= 1 {
		return single
	}
	return chapters
}

// splitByHeadings cuts the node list at top-level h2 elements. It needs at
// least two headings to produce anything; content ahead of the first heading
// becomes a preamble chapter when it has visible text.
func splitByHeadings(nodes []*html.Node, title string) []Chapter {
	h2count := 0
	for _, n := range nodes {
		if isElement(n, atom.H2) {
			h2count++
		}
	}
	if h2count < 2 {
		return nil
	}

	var chapters []Chapter
	appendChapter := func(segment []*html.Node, chapterTitle string) {
		chapters = append(chapters, Chapter{
			Index:    len(chapters),
			Title:    chapterTitle,
			BodyHTML: renderNodes(segment),
		})
	}

	first := 0
	for first < len(nodes) && !isElement(nodes[first], atom.H2) {
		first++
	}
	if preamble := nodes[:first]; segmentText(preamble) != "" {
		appendChapter(preamble, title)
	}

	start := first
	for i := first + 1; i <= len(nodes); i++ {
		if i < len(nodes) && !isElement(nodes[i], atom.H2) {
			continue
		}
		heading := nodeText(nodes[start])
		if heading == "" {
			heading = fmt.Sprintf("Part %d", len(chapters)+1)
		}
		appendChapter(nodes[start:i], heading)
		start = i
	}
	return chapters
}

// splitByCount accumulates top-level nodes and closes a chapter once at
// least minElementsPerChapter elements are in it and the last one is a
// block-like tag, so a chapter never ends mid-run of headings or inline
// leftovers.
func splitByCount(nodes []*html.Node, title string) []Chapter {
	var chapters []Chapter
	var current []*html.Node
	elements := 0

	closeChapter := func() {
		if len(current) == 0 {
			return
		}
		chapterTitle := title
		if len(chapters) > 0 {
			chapterTitle = fmt.Sprintf("%s — Part %d", title, len(chapters)+1)
		}
		chapters = append(chapters, Chapter{
			Index:    len(chapters),
			Title:    chapterTitle,
			BodyHTML: renderNodes(current),
		})
		current = nil
		elements = 0
	}

	for _, n := range nodes {
		current = append(current, n)
		if n.Type != html.ElementNode {
			continue
		}
		elements++
		if elements >= minElementsPerChapter && blockLike[n.DataAtom] {
			closeChapter()
		}
	}
	closeChapter()
	return chapters
}

// topLevelNodes parses a body fragment and returns its direct children,
// text nodes included so nothing is lost when the segments are reassembled.
func topLevelNodes(fragment string) []*html.Node {
	doc, err := html.Parse(strings.NewReader("<html><body>" + fragment + "</body></html>"))
	if err != nil {
		return nil
	}
	body := findBody(doc)
	if body == nil {
		return nil
	}
	var nodes []*html.Node
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		nodes = append(nodes, c)
	}
	return nodes
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func isElement(n *html.Node, a atom.Atom) bool {
	return n.Type == html.ElementNode && n.DataAtom == a
}

func renderNodes(nodes []*html.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		_ = html.Render(&b, n)
	}
	return b.String()
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func segmentText(nodes []*html.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(nodeText(n))
	}
	return strings.TrimSpace(b.String())
}
