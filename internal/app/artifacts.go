package app

import (
	"regexp"
	"strings"
)

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// slugify turns an article title into a safe filename stem.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "page"
	}
	return s
}

// defaultOutputPath derives the EPUB filename from the article title when the
// user gave no explicit output path.
func defaultOutputPath(title string) string {
	return slugify(title) + ".epub"
}
