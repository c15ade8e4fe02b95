// Package sanitize reduces arbitrary page markup to the restricted XHTML
// subset that constrained e-reader devices render reliably: no scripting, no
// styling hooks, no media, no forms, and no hyperlinks.
package sanitize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrInvalidHTML is returned when the input markup cannot be parsed into a
// tree at all. Sanitization of anything parseable always succeeds.
var ErrInvalidHTML = errors.New("invalid html")

// removedTags are elements dropped together with all descendants. The set
// covers scripting, styling, embedded media, forms and structural chrome.
// Output is text-only, so image-bearing elements go as well.
var removedTags = []string{
	"script", "noscript",
	"style", "link",
	"img", "picture", "figure", "figcaption", "svg", "canvas",
	"video", "audio", "iframe", "embed", "object",
	"form", "input", "button", "select", "textarea", "label",
	"nav", "footer", "aside", "header",
}

// chromeMarkers are substrings matched against raw class and id attribute
// values. An element carrying any of them is non-article chrome (sharing
// widgets, comment threads, related-content rails, ads, popups) and is
// removed with its descendants. Matching is case-sensitive containment.
var chromeMarkers = []string{
	"share", "social", "comment", "related", "sidebar", "widget",
	"advert", "sponsor", "promo", "banner", "popup", "newsletter",
	"cookie", "breadcrumb",
}

// Sanitize parses raw markup, strips everything outside the allowed subset
// and returns the inner markup of the document body. A document without a
// body root (framesets, mostly) yields an empty string.
func Sanitize(raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidHTML, err)
	}

	doc.Find(strings.Join(removedTags, ", ")).Remove()

	doc.Find("[class],[id]").Each(func(_ int, s *goquery.Selection) {
		if hasChromeMarker(s.AttrOr("class", "")) || hasChromeMarker(s.AttrOr("id", "")) {
			s.Remove()
		}
	})

	// Drop every attribute except href on anchors. Anchors are unwrapped
	// right after, so no attribute survives into the output; the href is
	// kept through this pass to preserve the documented order of steps.
	for _, n := range doc.Find("*").Nodes {
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			if n.DataAtom == atom.A && a.Namespace == "" && a.Key == "href" {
				kept = append(kept, a)
			}
		}
		n.Attr = kept
	}

	// E-reader navigation stumbles over hyperlinks; keep the anchor text
	// inline and discard the wrapper element.
	for _, n := range doc.Find("a").Nodes {
		unwrap(n)
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		return "", nil
	}
	inner, err := body.Html()
	if err != nil {
		return "", fmt.Errorf("render body: %w", err)
	}
	return inner, nil
}

func hasChromeMarker(attr string) bool {
	if attr == "" {
		return false
	}
	for _, m := range chromeMarkers {
		if strings.Contains(attr, m) {
			return true
		}
	}
	return false
}

// unwrap hoists n's children into n's place and removes n.
func unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
		c = next
	}
	parent.RemoveChild(n)
}
