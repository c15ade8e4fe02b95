package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/offprint/offprint/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		pageURL     string
		outputPath  string
		pdfPath     string
		userAgent   string
		timeout     time.Duration
		socialAPI   string
		language    string
		cacheDir    string
		cacheMaxAge time.Duration
		cacheClear  bool
		cacheStrict bool
		configPath  string
		envPath     string
		verbose     bool
		showVersion bool
	)

	flag.StringVar(&pageURL, "url", "", "URL of the page or post to convert")
	flag.StringVar(&outputPath, "o", "", "Path for the EPUB output (default: derived from the article title)")
	flag.StringVar(&pdfPath, "pdf", "", "Optional path for a PDF companion")
	flag.StringVar(&userAgent, "ua", "", "Custom User-Agent for outgoing requests")
	flag.DurationVar(&timeout, "timeout", 0, "Per-request fetch timeout (e.g. 10s); 0 uses the default")
	flag.StringVar(&socialAPI, "social.api", os.Getenv("SOCIAL_API_URL"), "Base URL of the post read-API")
	flag.StringVar(&language, "lang", "", "Language for metadata when pages declare none, e.g. 'en' or 'fi'")
	flag.StringVar(&cacheDir, "cache.dir", "", "Cache directory for fetched pages; empty disables caching")
	flag.DurationVar(&cacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	flag.BoolVar(&cacheClear, "cache.clear", false, "Clear cache directory before run")
	flag.BoolVar(&cacheStrict, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	flag.StringVar(&configPath, "config", "", "Path to YAML/JSON config file")
	flag.StringVar(&envPath, "env", "", "Path to dotenv file to load before reading env")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("offprint %s (%s, %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		return
	}

	// Positional URL is accepted as a convenience: offprint <url>
	if pageURL == "" && flag.NArg() > 0 {
		pageURL = flag.Arg(0)
	}

	cfg := app.Config{
		URL:              pageURL,
		OutputPath:       outputPath,
		PDFPath:          pdfPath,
		UserAgent:        userAgent,
		RequestTimeout:   timeout,
		SocialAPIBase:    socialAPI,
		LanguageHint:     language,
		CacheDir:         cacheDir,
		CacheMaxAge:      cacheMaxAge,
		CacheClear:       cacheClear,
		CacheStrictPerms: cacheStrict,
		Verbose:          verbose,
	}

	// Precedence: flags, then config file, then environment.
	if envPath != "" {
		if err := app.LoadEnvFiles(envPath); err != nil {
			log.Error().Err(err).Str("path", envPath).Msg("load dotenv failed")
			os.Exit(1)
		}
	}
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("load config failed")
			os.Exit(1)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvToConfig(&cfg)

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		// Exit code policy: 2 when no strategy produced readable content,
		// 1 for hard failures.
		if errors.Is(err, app.ErrInsufficientContent) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(cfg app.Config) error {
	a := app.New(cfg)
	defer a.Close()
	return a.Run(context.Background())
}
