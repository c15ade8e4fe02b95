// Package readable is the last-resort extraction strategy. It hands the raw
// page to a readability engine and normalizes whatever comes back into the
// shared extraction shape, applying the same sanitization and minimum-content
// rules as the heuristic path.
package readable

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/offprint/offprint/internal/extract"
	"github.com/offprint/offprint/internal/lang"
	"github.com/offprint/offprint/internal/sanitize"
)

// ErrRenderTimeout indicates the readability engine did not finish within the
// configured deadline. Unlike an engine failure, which is a recoverable
// "no content" outcome, a timeout is surfaced so the caller can report it.
var ErrRenderTimeout = errors.New("readability engine timed out")

// DefaultTimeout bounds a single engine run.
const DefaultTimeout = 30 * time.Second

// Result is the raw structured output of a readability engine run.
type Result struct {
	Title       string
	Content     string
	TextContent string
	Byline      string
	Excerpt     string
}

// Engine runs a readability algorithm over a full HTML document. The baseURL
// seeds relative-link resolution. Implementations must honor ctx cancellation
// and release any per-run resources on every exit path.
type Engine interface {
	RenderAndExtract(ctx context.Context, html string, baseURL *url.URL) (*Result, error)
}

// ReadabilityEngine is the default Engine, backed by go-readability. The run
// happens in its own goroutine so that deadline expiry abandons the work
// instead of blocking the caller; the abandoned result is discarded.
type ReadabilityEngine struct{}

func (ReadabilityEngine) RenderAndExtract(ctx context.Context, html string, baseURL *url.URL) (*Result, error) {
	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		article, err := readability.FromReader(strings.NewReader(html), baseURL)
		if err != nil {
			done <- outcome{err: err}
			return
		}
		done <- outcome{res: &Result{
			Title:       article.Title,
			Content:     article.Content,
			TextContent: article.TextContent,
			Byline:      article.Byline,
			Excerpt:     article.Excerpt,
		}}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		return out.res, out.err
	}
}

// Extractor drives an Engine and filters its output. The zero value uses the
// go-readability engine, a 30 second timeout and the shared content
// thresholds.
type Extractor struct {
	// Engine overrides the readability backend. Nil selects
	// ReadabilityEngine.
	Engine Engine

	// Timeout bounds a single extraction. Zero or negative selects
	// DefaultTimeout.
	Timeout time.Duration

	// MinContentChars is the minimum plain-text length, in runes, for the
	// result to count as usable. Zero selects the shared default.
	MinContentChars int

	// FallbackLanguage is used when the source document declares no
	// language. Empty means "en".
	FallbackLanguage string
}

// Extract runs the engine over rawHTML and maps a usable result onto the
// shared content shape. A nil, nil return means the engine produced nothing
// worth keeping; ErrRenderTimeout is returned when the engine exceeds the
// deadline.
func (e *Extractor) Extract(ctx context.Context, rawHTML string, baseURL *url.URL) (*extract.Content, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	res, err := e.engine().RenderAndExtract(ctx, rawHTML, baseURL)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return nil, fmt.Errorf("%w after %s", ErrRenderTimeout, e.timeout())
		case errors.Is(err, context.Canceled):
			return nil, err
		default:
			// The engine could not make sense of the page. That is the
			// expected failure mode of a last-resort strategy, not an
			// error worth surfacing.
			return nil, nil
		}
	}
	if res == nil || textRunes(res.TextContent) < e.minChars() {
		return nil, nil
	}

	clean, err := sanitize.Sanitize(res.Content)
	if err != nil {
		return nil, fmt.Errorf("sanitize rendered content: %w", err)
	}
	if sanitize.TextLength(clean) < e.minChars() {
		return nil, nil
	}

	title := strings.TrimSpace(res.Title)
	if title == "" {
		title = "Untitled"
	}
	return &extract.Content{
		Title:       title,
		Author:      strings.TrimSpace(res.Byline),
		Description: strings.TrimSpace(res.Excerpt),
		Language:    lang.Primary(htmlLang(rawHTML), e.fallbackLanguage()),
		BodyHTML:    sanitize.ToXHTML(clean),
	}, nil
}

func (e *Extractor) engine() Engine {
	if e.Engine != nil {
		return e.Engine
	}
	return ReadabilityEngine{}
}

func (e *Extractor) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return DefaultTimeout
}

func (e *Extractor) minChars() int {
	if e.MinContentChars > 0 {
		return e.MinContentChars
	}
	return extract.DefaultMinContentChars
}

func (e *Extractor) fallbackLanguage() string {
	if e.FallbackLanguage != "" {
		return e.FallbackLanguage
	}
	return "en"
}

// htmlLang reads the lang attribute from the source document's root element.
// The readability engine strips the root, so the declared language has to be
// recovered from the original markup.
func htmlLang(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("html").First().AttrOr("lang", ""))
}

func textRunes(s string) int {
	return utf8.RuneCountInString(strings.Join(strings.Fields(s), " "))
}
