package app

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/offprint/offprint/internal/cache"
	"github.com/offprint/offprint/internal/chapter"
	"github.com/offprint/offprint/internal/epub"
	"github.com/offprint/offprint/internal/extract"
	"github.com/offprint/offprint/internal/fetch"
	"github.com/offprint/offprint/internal/readable"
	"github.com/offprint/offprint/internal/social"
)

// ErrInsufficientContent is returned when every extraction strategy for the
// requested URL comes back empty. Per the exit code policy, the CLI maps this
// condition to its own exit code so scripts can tell "nothing to read" apart
// from hard failures.
var ErrInsufficientContent = fmt.Errorf("insufficient content")

const defaultRequestTimeout = 20 * time.Second

type App struct {
	cfg       Config
	httpCache *cache.HTTPCache
	fetcher   *fetch.Client
	social    *social.Extractor
}

func New(cfg Config) *App {
	a := &App{cfg: cfg}
	if cfg.CacheDir != "" {
		// Apply cache invalidation controls; failures here should not
		// prevent the run itself.
		if cfg.CacheClear {
			_ = cache.ClearDir(cfg.CacheDir)
		}
		if cfg.CacheMaxAge > 0 {
			_, _ = cache.PurgeHTTPCacheByAge(cfg.CacheDir, cfg.CacheMaxAge)
		}
		a.httpCache = &cache.HTTPCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	httpClient := newPooledHTTPClient()
	a.fetcher = &fetch.Client{
		HTTPClient:        httpClient,
		UserAgent:         a.userAgent(),
		MaxAttempts:       2,
		PerRequestTimeout: a.requestTimeout(),
		Cache:             a.httpCache,
		RedirectMaxHops:   5,
		BypassCache:       cfg.CacheMaxAge == 0 && cfg.CacheClear, // bypass when user forces clear
	}
	a.social = &social.Extractor{
		APIBase:    cfg.SocialAPIBase,
		HTTPClient: httpClient,
		UserAgent:  a.userAgent(),
	}
	return a
}

func (a *App) Close() {
	// nothing yet
}

// Run converts the configured URL into an EPUB file, plus an optional PDF
// companion. It returns ErrInsufficientContent when no strategy produced a
// readable article.
func (a *App) Run(ctx context.Context) error {
	u, err := url.Parse(strings.TrimSpace(a.cfg.URL))
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}

	content, sourceURL, err := a.extract(ctx, u)
	if err != nil {
		return err
	}
	if content == nil {
		log.Warn().Str("url", u.String()).Msg("no strategy produced readable content")
		return ErrInsufficientContent
	}

	chapters := chapter.Split(content.BodyHTML, content.Title)
	meta := epub.Metadata{
		Title:       content.Title,
		Author:      content.Author,
		Language:    content.Language,
		SourceURL:   sourceURL,
		Description: content.Description,
	}
	book, err := epub.Build(chapters, meta)
	if err != nil {
		return fmt.Errorf("package epub: %w", err)
	}

	outPath := strings.TrimSpace(a.cfg.OutputPath)
	if outPath == "" {
		outPath = defaultOutputPath(content.Title)
	}
	if err := os.WriteFile(outPath, book, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("out", outPath).Str("title", content.Title).Int("chapters", len(chapters)).Msg("wrote epub")

	if pdfPath := strings.TrimSpace(a.cfg.PDFPath); pdfPath != "" {
		if err := writeChapterPDF(chapters, meta, pdfPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("out", pdfPath).Msg("wrote pdf companion")
	}
	return nil
}

// extract runs the strategy chain for u. Social post URLs go to the read-API
// extractor alone; everything else is fetched once and handed to the
// heuristic extractor, then to the readability fallback. A nil content with
// nil error means every applicable strategy declined the page.
func (a *App) extract(ctx context.Context, u *url.URL) (*extract.Content, string, error) {
	if social.CanHandle(u) {
		log.Debug().Str("url", u.String()).Msg("recognized social post URL")
		content, err := a.social.Extract(ctx, u)
		if err != nil {
			return nil, "", fmt.Errorf("social extract: %w", err)
		}
		if content == nil {
			log.Warn().Str("url", u.String()).Msg("post has no substantial text")
		}
		return content, u.String(), nil
	}

	res, err := a.fetcher.Get(ctx, u.String())
	if err != nil {
		return nil, "", fmt.Errorf("fetch page: %w", err)
	}
	sourceURL := u.String()
	if res.FinalURL != nil {
		sourceURL = res.FinalURL.String()
	}
	fallbackLang := pickNonEmpty(a.cfg.LanguageHint, res.DeclaredLanguage)

	heuristic := &extract.Extractor{FallbackLanguage: fallbackLang}
	content, err := heuristic.Extract(res.HTML)
	if err != nil {
		return nil, "", fmt.Errorf("heuristic extract: %w", err)
	}
	if content != nil {
		return content, sourceURL, nil
	}
	log.Warn().Str("url", sourceURL).Msg("heuristic extraction found no article; trying readability render")

	renderer := &readable.Extractor{FallbackLanguage: fallbackLang}
	content, err = renderer.Extract(ctx, string(res.HTML), res.FinalURL)
	if err != nil {
		return nil, "", fmt.Errorf("readability extract: %w", err)
	}
	if content == nil {
		log.Warn().Str("url", sourceURL).Msg("readability render produced no substantial content")
	}
	return content, sourceURL, nil
}

func (a *App) userAgent() string {
	return pickNonEmpty(a.cfg.UserAgent, "offprint/1.0 (+https://github.com/offprint/offprint)")
}

func (a *App) requestTimeout() time.Duration {
	if a.cfg.RequestTimeout > 0 {
		return a.cfg.RequestTimeout
	}
	return defaultRequestTimeout
}

func pickNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}
