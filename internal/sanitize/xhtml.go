package sanitize

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// voidElements must be written self-closing in XHTML; an explicit end tag is
// invalid for them under XML parsing rules.
var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Source: true, atom.Wbr: true,
}

// ToXHTML re-serializes a markup fragment as strict XML-compatible XHTML:
// text and attribute values escaped, void elements self-closed, every other
// tag explicitly closed, comments dropped. EPUB readers parse content files
// with an XML parser and reject anything looser.
func ToXHTML(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		// Unparseable input degrades to escaped text, which is still
		// well-formed when embedded in an XHTML body.
		return html.EscapeString(fragment)
	}
	body := findBody(doc)
	if body == nil {
		return ""
	}
	var b strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		renderXHTML(&b, c)
	}
	return b.String()
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findBody(c); found != nil {
			return found
		}
	}
	return nil
}

func renderXHTML(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(html.EscapeString(n.Data))
	case html.ElementNode:
		b.WriteByte('<')
		b.WriteString(n.Data)
		for _, a := range n.Attr {
			b.WriteByte(' ')
			if a.Namespace != "" {
				b.WriteString(a.Namespace)
				b.WriteByte(':')
			}
			b.WriteString(a.Key)
			b.WriteString(`="`)
			b.WriteString(html.EscapeString(a.Val))
			b.WriteByte('"')
		}
		if voidElements[n.DataAtom] && n.FirstChild == nil {
			b.WriteString("/>")
			return
		}
		b.WriteByte('>')
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			renderXHTML(b, c)
		}
		b.WriteString("</")
		b.WriteString(n.Data)
		b.WriteByte('>')
	}
	// Comments and doctypes are dropped: XML comments have stricter content
	// rules than HTML ones and carry nothing a reader needs.
}

// blockBreakTags produce a line break during plain-text extraction so that
// measured text keeps paragraph boundaries instead of running together.
var blockBreakTags = map[atom.Atom]bool{
	atom.P: true, atom.Br: true, atom.Div: true, atom.Section: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Li: true, atom.Tr: true,
	atom.Blockquote: true, atom.Hr: true, atom.Pre: true,
}

// skipTextTags contribute no readable text; their raw content is ignored.
var skipTextTags = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
}

// PlainText strips all markup from a fragment and returns its readable text
// with block boundaries as single newlines and whitespace runs collapsed.
// Whitespace between inline elements survives as a single space; none is
// invented where the source had no separation.
func PlainText(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skipDepth := 0
	atBreak := true
	pendingSpace := false

	breakLine := func() {
		if !atBreak {
			b.WriteByte('\n')
			atBreak = true
		}
		pendingSpace = false
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			// Tokenizing a string only ever ends with io.EOF.
			return strings.TrimSpace(b.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if skipTextTags[a] {
				skipDepth++
				continue
			}
			if skipDepth == 0 && blockBreakTags[a] {
				breakLine()
			}
		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if skipDepth == 0 && blockBreakTags[atom.Lookup(name)] {
				breakLine()
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if skipTextTags[a] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if skipDepth == 0 && blockBreakTags[a] {
				breakLine()
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			raw := string(z.Text())
			fields := strings.Fields(raw)
			if len(fields) == 0 {
				// All-whitespace token between inline elements still
				// separates the words around it.
				if !atBreak && raw != "" {
					pendingSpace = true
				}
				continue
			}
			if !atBreak && (pendingSpace || isSpace(raw[0])) {
				b.WriteByte(' ')
			}
			b.WriteString(strings.Join(fields, " "))
			pendingSpace = isSpace(raw[len(raw)-1])
			atBreak = false
		}
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// TextLength measures a fragment's plain text in runes. Thresholds in the
// extraction pipeline count characters, not bytes, so multi-byte scripts are
// measured fairly.
func TextLength(fragment string) int {
	return utf8.RuneCountInString(PlainText(fragment))
}
