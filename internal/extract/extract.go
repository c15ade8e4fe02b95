// Package extract locates the main readable content of a generic web page
// using layered heuristics: known article-container selectors first, then
// text-density scoring, then the whole document body as a last resort.
package extract

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/offprint/offprint/internal/lang"
	"github.com/offprint/offprint/internal/sanitize"
)

// Content is the common result shape every extraction strategy produces.
// BodyHTML is a sanitized, XML-strict XHTML fragment holding only the inner
// body markup. An empty Author means the page did not declare one.
type Content struct {
	Title       string
	Author      string
	Description string
	Language    string
	BodyHTML    string
}

// DefaultMinContentChars is the minimum plain-text size, in runes, below
// which a candidate is considered boilerplate rather than an article.
const DefaultMinContentChars = 400

// containerSelectors are tried in priority order before any scoring happens.
// Semantic roles first, then the class and id names publishing platforms
// conventionally use for the article body.
var containerSelectors = []string{
	"article",
	"main",
	`[role="main"]`,
	"#content",
	".content",
	".post-content",
	".entry-content",
	".article-content",
	".article-body",
	".post-body",
	".story-body",
	"#main-content",
}

// Extractor finds and cleans the main content of a raw HTML page. The zero
// value is usable and applies the default threshold and an "en" language
// fallback.
type Extractor struct {
	// MinContentChars overrides the acceptance threshold when positive.
	MinContentChars int
	// FallbackLanguage is used when the markup declares no language, for
	// example from a Content-Language response header. Empty means "en".
	FallbackLanguage string
}

// Extract returns the page's main content, or (nil, nil) when no candidate
// region carries enough text to be an article. That nil result is the signal
// to try the next extraction strategy; only an unparseable page is an error.
func (e *Extractor) Extract(rawHTML []byte) (*Content, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sanitize.ErrInvalidHTML, err)
	}

	sel := e.selectBody(doc)
	if sel == nil {
		return nil, nil
	}
	inner, err := sel.Html()
	if err != nil {
		return nil, fmt.Errorf("render candidate: %w", err)
	}
	clean, err := sanitize.Sanitize(inner)
	if err != nil {
		return nil, err
	}
	// What looked like an article may have been mostly chrome; measure
	// again after sanitization before accepting.
	if sanitize.TextLength(clean) < e.minChars() {
		return nil, nil
	}

	return &Content{
		Title:       e.title(doc),
		Author:      e.author(doc),
		Description: e.description(doc),
		Language:    e.language(doc),
		BodyHTML:    sanitize.ToXHTML(clean),
	}, nil
}

// selectBody picks the most article-like region of the document, or nil when
// nothing meets the content threshold.
func (e *Extractor) selectBody(doc *goquery.Document) *goquery.Selection {
	min := e.minChars()

	for _, selector := range containerSelectors {
		var winner *goquery.Selection
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if textRunes(s.Text()) >= min {
				winner = s
				return false
			}
			return true
		})
		if winner != nil {
			return winner
		}
	}

	// Density scan over generic block and table-cell containers. Paragraph
	// children weigh heavily because article bodies are paragraph-dense
	// while chrome containers are link-dense.
	var best *goquery.Selection
	bestScore := 0
	doc.Find("div, section, td").Each(func(_ int, s *goquery.Selection) {
		textLen := textRunes(s.Text())
		paras := s.ChildrenFiltered("p").Length()
		if textLen < min || paras < 2 {
			return
		}
		score := textLen + 100*paras
		// Strictly greater only: on a tie the candidate found first in
		// document order keeps winning.
		if score > bestScore {
			best, bestScore = s, score
		}
	})
	if best != nil {
		return best
	}

	if body := doc.Find("body").First(); body.Length() > 0 && textRunes(body.Text()) >= min {
		return body
	}
	return nil
}

func (e *Extractor) title(doc *goquery.Document) string {
	if v, ok := metaContent(doc, `meta[property="og:title"]`); ok {
		return v
	}
	if v, ok := metaContent(doc, `meta[name="title"]`); ok {
		return v
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return stripSiteSuffix(t)
	}
	if h := strings.TrimSpace(doc.Find("h1").First().Text()); h != "" {
		return h
	}
	return "Untitled"
}

// siteSuffixSeparators are the separators publishers put between an article
// title and the site name in the document title.
var siteSuffixSeparators = []string{" | ", " - ", " — ", " :: ", " » "}

// stripSiteSuffix removes a trailing " | Site" style suffix from a document
// title. The rightmost separator occurrence is the cut point, and the prefix
// is kept only when it is long enough to still be a plausible title.
func stripSiteSuffix(title string) string {
	cut := -1
	for _, sep := range siteSuffixSeparators {
		if i := strings.LastIndex(title, sep); i > cut {
			cut = i
		}
	}
	if cut <= 0 {
		return title
	}
	prefix := strings.TrimSpace(title[:cut])
	if utf8.RuneCountInString(prefix) > 10 {
		return prefix
	}
	return title
}

func (e *Extractor) author(doc *goquery.Document) string {
	if v, ok := metaContent(doc, `meta[name="author"]`); ok {
		return v
	}
	if v, ok := metaContent(doc, `meta[property="article:author"]`); ok {
		return v
	}
	if v, ok := metaContent(doc, `meta[name="article:author"]`); ok {
		return v
	}
	for _, selector := range []string{`[rel="author"]`, ".author, .byline", `[itemprop="author"]`} {
		if v := strings.TrimSpace(doc.Find(selector).First().Text()); v != "" {
			return v
		}
	}
	return ""
}

func (e *Extractor) description(doc *goquery.Document) string {
	if v, ok := metaContent(doc, `meta[property="og:description"]`); ok {
		return v
	}
	if v, ok := metaContent(doc, `meta[name="description"]`); ok {
		return v
	}
	return ""
}

func (e *Extractor) language(doc *goquery.Document) string {
	return lang.Primary(doc.Find("html").AttrOr("lang", ""), e.fallbackLanguage())
}

func metaContent(doc *goquery.Document, selector string) (string, bool) {
	v := strings.TrimSpace(doc.Find(selector).First().AttrOr("content", ""))
	return v, v != ""
}

func (e *Extractor) minChars() int {
	if e.MinContentChars > 0 {
		return e.MinContentChars
	}
	return DefaultMinContentChars
}

func (e *Extractor) fallbackLanguage() string {
	if e.FallbackLanguage != "" {
		return e.FallbackLanguage
	}
	return "en"
}

// textRunes measures visible text in runes with whitespace runs collapsed,
// matching how sanitized fragments are measured.
func textRunes(s string) int {
	return utf8.RuneCountInString(strings.Join(strings.Fields(s), " "))
}
