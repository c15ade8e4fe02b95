// Package social extracts individual posts from supported social platforms
// through a companion read API, covering both long-form articles with
// rich-text blocks and plain short posts.
package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/offprint/offprint/internal/extract"
	"github.com/offprint/offprint/internal/lang"
)

// ErrRemoteFetch indicates the read API could not be reached or returned an
// unusable response. Content-level rejections (empty or link-only posts,
// articles below the minimum length) return nil without an error instead.
var ErrRemoteFetch = errors.New("social API request failed")

// DefaultAPIBase is the read API used when no override is configured.
const DefaultAPIBase = "https://api.fxtwitter.com"

const (
	// minPostRunes is the minimum rendered plain-text length for a
	// long-form article to count as usable.
	minPostRunes = 200

	// maxDescriptionRunes caps the derived description.
	maxDescriptionRunes = 200

	// maxResponseBytes caps how much of an API response is read.
	maxResponseBytes = 4 << 20
)

var postHosts = map[string]struct{}{
	"twitter.com":        {},
	"www.twitter.com":    {},
	"mobile.twitter.com": {},
	"x.com":              {},
	"www.x.com":          {},
}

// CanHandle reports whether u points at an individual post on a supported
// host. The path must have the three-segment /{user}/status/{id} shape.
func CanHandle(u *url.URL) bool {
	if u == nil {
		return false
	}
	if _, ok := postHosts[strings.ToLower(u.Hostname())]; !ok {
		return false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	return len(parts) == 3 && parts[0] != "" && parts[1] == "status" && parts[2] != ""
}

// Extractor fetches posts from the read API. The zero value uses
// DefaultAPIBase and a client with a 30 second timeout.
type Extractor struct {
	// APIBase overrides the read API endpoint, scheme and host only.
	APIBase string

	// HTTPClient overrides the HTTP client used for API requests.
	HTTPClient *http.Client

	// UserAgent is sent with API requests when non-empty.
	UserAgent string
}

type apiResponse struct {
	Tweet *apiTweet `json:"tweet"`
}

type apiTweet struct {
	Text    string      `json:"text"`
	RawText *apiRawText `json:"raw_text"`
	Lang    string      `json:"lang"`
	Author  *apiAuthor  `json:"author"`
	Article *apiArticle `json:"article"`
}

type apiRawText struct {
	Text string `json:"text"`
}

type apiAuthor struct {
	Name       string `json:"name"`
	ScreenName string `json:"screen_name"`
}

type apiArticle struct {
	Title       string      `json:"title"`
	PreviewText string      `json:"preview_text"`
	Content     *apiContent `json:"content"`
}

type apiContent struct {
	Blocks []apiBlock `json:"blocks"`
}

type apiBlock struct {
	Type              string          `json:"type"`
	Text              string          `json:"text"`
	InlineStyleRanges []apiStyleRange `json:"inlineStyleRanges"`
}

type apiStyleRange struct {
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	Style  string `json:"style"`
}

// Extract resolves u through the read API and renders the post. It returns
// nil, nil when the post carries no usable body; transport failures, non-2xx
// statuses and undecodable payloads wrap ErrRemoteFetch.
func (e *Extractor) Extract(ctx context.Context, u *url.URL) (*extract.Content, error) {
	endpoint := strings.TrimRight(e.apiBase(), "/") + u.EscapedPath()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrRemoteFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	if e.UserAgent != "" {
		req.Header.Set("User-Agent", e.UserAgent)
	}

	resp, err := e.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %s for %s", ErrRemoteFetch, resp.Status, endpoint)
	}

	var payload apiResponse
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrRemoteFetch, err)
	}
	if payload.Tweet == nil {
		return nil, fmt.Errorf("%w: response carries no post", ErrRemoteFetch)
	}

	if payload.Tweet.Article != nil {
		return longForm(payload.Tweet)
	}
	return shortForm(payload.Tweet)
}

func (e *Extractor) apiBase() string {
	if e.APIBase != "" {
		return e.APIBase
	}
	return DefaultAPIBase
}

func (e *Extractor) client() *http.Client {
	if e.HTTPClient != nil {
		return e.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// longForm renders a rich-text article. Articles whose rendered plain text
// is shorter than minPostRunes are rejected.
func longForm(tweet *apiTweet) (*extract.Content, error) {
	art := tweet.Article
	var blocks []apiBlock
	if art.Content != nil {
		blocks = art.Content.Blocks
	}
	body, textLen := renderBlocks(blocks)
	if textLen < minPostRunes {
		return nil, nil
	}

	title := strings.TrimSpace(art.Title)
	if title == "" {
		title = postTitle(tweet)
	}
	return &extract.Content{
		Title:       title,
		Author:      authorName(tweet),
		Description: firstRunes(strings.TrimSpace(art.PreviewText), maxDescriptionRunes),
		Language:    lang.Primary(tweet.Lang, "en"),
		BodyHTML:    body,
	}, nil
}

// shortForm renders a plain post as one paragraph per non-blank line.
// Empty and link-only posts carry no body and are rejected.
func shortForm(tweet *apiTweet) (*extract.Content, error) {
	text := tweet.Text
	if tweet.RawText != nil && strings.TrimSpace(tweet.RawText.Text) != "" {
		text = tweet.RawText.Text
	}
	text = strings.TrimSpace(text)
	if text == "" || linkOnly(text) {
		return nil, nil
	}

	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</p>")
	}

	return &extract.Content{
		Title:       postTitle(tweet),
		Author:      authorName(tweet),
		Description: firstRunes(text, maxDescriptionRunes),
		Language:    lang.Primary(tweet.Lang, "en"),
		BodyHTML:    b.String(),
	}, nil
}

// linkOnly reports whether s is a single http(s) URL with no surrounding
// prose.
func linkOnly(s string) bool {
	fields := strings.Fields(s)
	if len(fields) != 1 {
		return false
	}
	return strings.HasPrefix(fields[0], "http://") || strings.HasPrefix(fields[0], "https://")
}

func postTitle(tweet *apiTweet) string {
	if name := authorName(tweet); name != "" {
		return name + " on X"
	}
	return "Post on X"
}

func authorName(tweet *apiTweet) string {
	if tweet.Author == nil {
		return ""
	}
	if name := strings.TrimSpace(tweet.Author.Name); name != "" {
		return name
	}
	if tweet.Author.ScreenName != "" {
		return "@" + tweet.Author.ScreenName
	}
	return ""
}

func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
