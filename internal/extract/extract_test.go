package extract

import (
	"strings"
	"testing"
)

const sampleText = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua."

func TestExtract_AcceptsSubstantialArticle(t *testing.T) {
	html := `<!doctype html>
	<html lang="en">
	<head><title>Tuning Article</title></head>
	<body>
		<nav>ignore this</nav>
		<article>
			<p>` + sampleText + `</p>
			<p>` + sampleText + `</p>
			<p>` + sampleText + `</p>
			<p>` + sampleText + `</p>
		</article>
	</body></html>`

	e := &Extractor{}
	c, err := e.Extract([]byte(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c == nil {
		t.Fatalf("expected content, got nil")
	}
	if c.Title != "Tuning Article" {
		t.Fatalf("expected title %q, got %q", "Tuning Article", c.Title)
	}
	if !strings.Contains(c.BodyHTML, "Lorem ipsum") {
		t.Fatalf("expected article text in body, got %q", c.BodyHTML)
	}
	if strings.Contains(c.BodyHTML, "ignore this") {
		t.Fatalf("did not expect nav text in body")
	}
}

func TestExtract_RejectsThinPage(t *testing.T) {
	html := `<html><head><title>Thin</title></head><body><article><p>` + sampleText + `</p><p>` + sampleText + `</p></article></body></html>`
	e := &Extractor{}
	c, err := e.Extract([]byte(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != nil {
		t.Fatalf("expected nil for content below threshold, got %+v", c)
	}
}

func TestExtract_PrefersOpenGraphTitle(t *testing.T) {
	html := `<html><head>
		<title>Doc Title | Site</title>
		<meta property="og:title" content="Social Preview Title"/>
	</head><body><article>` + paragraphs(4) + `</article></body></html>`
	e := &Extractor{}
	c, err := e.Extract([]byte(html))
	if err != nil || c == nil {
		t.Fatalf("expected content, got %v / %v", c, err)
	}
	if c.Title != "Social Preview Title" {
		t.Fatalf("expected og:title to win, got %q", c.Title)
	}
}

func TestStripSiteSuffix(t *testing.T) {
	cases := []struct{ in, want string }{
		{"How to Tune Garbage Collection | Example News", "How to Tune Garbage Collection"},
		{"Faster Builds - Engineering — Acme", "Faster Builds - Engineering"},
		{"Understanding Raft :: Distributed Weekly", "Understanding Raft"},
		{"Release Notes » Vendor Blog", "Release Notes"},
		// Prefix of 10 or fewer characters keeps the full title.
		{"Hi | Very Long Site Name Here", "Hi | Very Long Site Name Here"},
		{"No separators here", "No separators here"},
	}
	for _, tc := range cases {
		if got := stripSiteSuffix(tc.in); got != tc.want {
			t.Fatalf("stripSiteSuffix(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExtract_AuthorMetaBeatsByline(t *testing.T) {
	html := `<html><head><meta name="author" content="Jane Writer"/></head>
	<body><article><div class="byline">Someone Else</div>` + paragraphs(4) + `</article></body></html>`
	e := &Extractor{}
	c, err := e.Extract([]byte(html))
	if err != nil || c == nil {
		t.Fatalf("expected content, got %v / %v", c, err)
	}
	if c.Author != "Jane Writer" {
		t.Fatalf("expected meta author, got %q", c.Author)
	}
}

func TestExtract_BylineClassWhenNoMeta(t *testing.T) {
	html := `<html><head><title>T</title></head>
	<body><article><span class="byline">Field Reporter</span>` + paragraphs(4) + `</article></body></html>`
	e := &Extractor{}
	c, err := e.Extract([]byte(html))
	if err != nil || c == nil {
		t.Fatalf("expected content, got %v / %v", c, err)
	}
	if c.Author != "Field Reporter" {
		t.Fatalf("expected byline author, got %q", c.Author)
	}
}

func TestExtract_NoAuthorIsEmpty(t *testing.T) {
	html := `<html><head><title>T</title></head><body><article>` + paragraphs(4) + `</article></body></html>`
	e := &Extractor{}
	c, err := e.Extract([]byte(html))
	if err != nil || c == nil {
		t.Fatalf("expected content, got %v / %v", c, err)
	}
	if c.Author != "" {
		t.Fatalf("expected empty author, got %q", c.Author)
	}
}

func TestExtract_DescriptionPrefersOpenGraph(t *testing.T) {
	html := `<html><head>
		<meta name="description" content="generic description"/>
		<meta property="og:description" content="social description"/>
	</head><body><article>` + paragraphs(4) + `</article></body></html>`
	e := &Extractor{}
	c, err := e.Extract([]byte(html))
	if err != nil || c == nil {
		t.Fatalf("expected content, got %v / %v", c, err)
	}
	if c.Description != "social description" {
		t.Fatalf("expected og:description to win, got %q", c.Description)
	}
}

func TestExtract_DensityPicksParagraphDenseContainer(t *testing.T) {
	// Neither div matches a known container selector, so density scoring
	// decides. The second div scores higher on paragraph count.
	html := `<html><body>
		<div><p>` + sampleText + sampleText + `</p><p>` + sampleText + sampleText + ` alpha</p></div>
		<div><p>` + sampleText + `</p><p>` + sampleText + `</p><p>` + sampleText + `</p><p>` + sampleText + `</p><p>` + sampleText + ` omega</p></div>
	</body></html>`
	e := &Extractor{}
	c, err := e.Extract([]byte(html))
	if err != nil || c == nil {
		t.Fatalf("expected content, got %v / %v", c, err)
	}
	if !strings.Contains(c.BodyHTML, "omega") {
		t.Fatalf("expected paragraph-dense div to win, got %q", c.BodyHTML)
	}
	if strings.Contains(c.BodyHTML, "alpha") {
		t.Fatalf("did not expect losing div content in body")
	}
}

func TestExtract_DensityTieKeepsFirstCandidate(t *testing.T) {
	// Identical structure and text length produce identical scores; the
	// candidate earlier in document order must win.
	html := `<html><body>
		<div>` + paragraphs(4) + `<p>alpha</p></div>
		<div>` + paragraphs(4) + `<p>omega</p></div>
	</body></html>`
	e := &Extractor{}
	c, err := e.Extract([]byte(html))
	if err != nil || c == nil {
		t.Fatalf("expected content, got %v / %v", c, err)
	}
	if !strings.Contains(c.BodyHTML, "alpha") {
		t.Fatalf("expected first candidate to win the tie, got %q", c.BodyHTML)
	}
}

func TestExtract_FallsBackToDocumentBody(t *testing.T) {
	// Paragraphs sit directly under body: no container selector matches
	// and there is no div/section/td to score.
	html := `<html><body>` + paragraphs(4) + `</body></html>`
	e := &Extractor{}
	c, err := e.Extract([]byte(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c == nil {
		t.Fatalf("expected body fallback to produce content")
	}
	if !strings.Contains(c.BodyHTML, "Lorem ipsum") {
		t.Fatalf("expected body text, got %q", c.BodyHTML)
	}
}

func TestExtract_RejectsWhenSanitizationGutsCandidate(t *testing.T) {
	// The article passes the raw measurement only because of form chrome;
	// after sanitization the remaining text is far below the threshold.
	html := `<html><body><article>
		<p>Short real text.</p>
		<form>` + paragraphs(4) + `</form>
	</article></body></html>`
	e := &Extractor{}
	c, err := e.Extract([]byte(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != nil {
		t.Fatalf("expected nil after post-sanitization re-measure, got %+v", c)
	}
}

func TestExtract_LanguagePrimarySubtag(t *testing.T) {
	html := `<html lang="fi-FI"><body><article>` + paragraphs(4) + `</article></body></html>`
	e := &Extractor{}
	c, err := e.Extract([]byte(html))
	if err != nil || c == nil {
		t.Fatalf("expected content, got %v / %v", c, err)
	}
	if c.Language != "fi" {
		t.Fatalf("expected primary subtag fi, got %q", c.Language)
	}
}

func TestExtract_LanguageFallbackWhenUndeclared(t *testing.T) {
	html := `<html><body><article>` + paragraphs(4) + `</article></body></html>`

	e := &Extractor{}
	c, err := e.Extract([]byte(html))
	if err != nil || c == nil {
		t.Fatalf("expected content, got %v / %v", c, err)
	}
	if c.Language != "en" {
		t.Fatalf("expected default en, got %q", c.Language)
	}

	e = &Extractor{FallbackLanguage: "sv"}
	c, err = e.Extract([]byte(html))
	if err != nil || c == nil {
		t.Fatalf("expected content, got %v / %v", c, err)
	}
	if c.Language != "sv" {
		t.Fatalf("expected configured fallback sv, got %q", c.Language)
	}
}

func TestExtract_UntitledPlaceholder(t *testing.T) {
	html := `<html><body><article>` + paragraphs(4) + `</article></body></html>`
	e := &Extractor{}
	c, err := e.Extract([]byte(html))
	if err != nil || c == nil {
		t.Fatalf("expected content, got %v / %v", c, err)
	}
	if c.Title != "Untitled" {
		t.Fatalf("expected placeholder title, got %q", c.Title)
	}
}

// paragraphs builds n paragraphs of sample text, enough to clear the content
// threshold at n >= 4.
func paragraphs(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("<p>")
		b.WriteString(sampleText)
		b.WriteString("</p>")
	}
	return b.String()
}
