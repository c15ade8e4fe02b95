package app

import "time"

// Config holds runtime configuration for a single conversion run.
type Config struct {
	// URL of the page or post to convert.
	URL string
	// OutputPath for the EPUB; empty derives a name from the article title.
	OutputPath string
	// PDFPath enables an optional PDF companion alongside the EPUB.
	PDFPath string

	// Fetching
	UserAgent      string
	RequestTimeout time.Duration

	// SocialAPIBase overrides the read-API endpoint for post URLs.
	SocialAPIBase string

	// LanguageHint forces the metadata language when pages declare none.
	LanguageHint string

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	// Behavior
	Verbose bool
}
