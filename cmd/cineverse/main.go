package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/cineverse/internal/batcher"
	"github.com/mmcdole/cineverse/internal/cache"
	"github.com/mmcdole/cineverse/internal/config"
	"github.com/mmcdole/cineverse/internal/domain"
	"github.com/mmcdole/cineverse/internal/log"
	"github.com/mmcdole/cineverse/internal/service"
	"github.com/mmcdole/cineverse/internal/store"
	"github.com/mmcdole/cineverse/internal/tmdb"
	"github.com/mmcdole/cineverse/internal/tui"
	"github.com/mmcdole/cineverse/internal/watchlist"
	"github.com/redis/go-redis/v9"
)

// Version is set at build time via -ldflags
var Version = "dev"

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                        \r"

type flags struct {
	export     string
	importFrom string
	clearCache bool
}

func main() {
	var (
		showVersion bool
		f           flags
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&f.export, "export", "", "write the watchlist as JSON to `path` (a file, a directory, or - for stdout) and exit")
	flag.StringVar(&f.importFrom, "import", "", "merge a watchlist export from `file` and exit")
	flag.BoolVar(&f.clearCache, "clear-cache", false, "drop cached API responses and genre lists, then exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("cineverse %s\n", Version)
		return
	}

	if err := run(f); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(f flags) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := log.SetupLogger(log.Options{
		File:       cfg.Logging.File,
		Level:      cfg.Logging.Level,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	} else {
		defer closer.Close()
	}
	slog.SetDefault(logger)
	logger.Info("starting cineverse", "version", Version)

	db, err := store.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open data store: %w", err)
	}
	defer db.Close()
	if !db.Persistent() {
		logger.Warn("no data directory configured, watchlist will not be saved")
	}

	notices := make(chan domain.Notice, 16)
	wl := watchlist.New(db,
		watchlist.WithGenres(tmdb.GenreMap),
		watchlist.WithNotifier(tui.NewChannelNotifier(notices)),
		watchlist.WithLogger(logger),
	)

	switch {
	case f.export != "":
		return exportWatchlist(wl, f.export)
	case f.importFrom != "":
		return importWatchlist(wl, f.importFrom)
	}

	responses, closeCache := openCache(cfg.Cache, logger)
	defer closeCache()

	if f.clearCache {
		if err := responses.Clear(context.Background()); err != nil {
			return fmt.Errorf("failed to clear response cache: %w", err)
		}
		if err := db.ClearGenres(); err != nil {
			return fmt.Errorf("failed to clear genres: %w", err)
		}
		fmt.Println("✓ Cache cleared")
		return nil
	}

	if cfg.TMDB.ImageBaseURL != "" {
		tmdb.ImageBaseURL = cfg.TMDB.ImageBaseURL
	}

	fetcher := tmdb.NewHTTPFetcher(cfg.TMDB.Timeout, logger)
	queue := batcher.New(fetcher, batcher.Options{
		BatchSize: cfg.Batcher.BatchSize,
		CoolDown:  cfg.Batcher.CoolDown,
		Cache:     responses,
		Logger:    logger,
	})
	client := tmdb.NewClient(cfg.TMDB.BaseURL, cfg.TMDB.APIKey, queue, logger)

	if !cfg.IsConfigured() {
		if err := runSetupFlow(cfg, client, logger); err != nil {
			return err
		}
	}

	browse := service.NewBrowseService(client, db, logger)
	browse.SetTrendingWindow(cfg.UI.TrendingWindow)

	category, ok := service.ParseCategory(cfg.UI.DefaultCategory)
	if !ok {
		logger.Warn("unknown default category, using popular movies", "category", cfg.UI.DefaultCategory)
		category = service.CategoryPopularMovies
	}

	updates := make(chan []domain.WatchlistEntry, 4)
	sub := wl.Subscribe(tui.WatchlistObserver(updates))
	defer wl.Unsubscribe(sub)

	model := tui.NewModel(browse, wl, tui.Options{
		DefaultCategory:  category,
		Notices:          notices,
		WatchlistUpdates: updates,
		Logger:           logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}

	stats := queue.Stats()
	logger.Info("shutting down",
		"batches", stats.Batches,
		"fetches", stats.Fetches,
		"cache_hits", stats.CacheHits,
		"coalesced", stats.Coalesced,
		"failures", stats.Failures,
	)
	return nil
}

// openCache returns the Redis cache when an address is configured and
// reachable, and the in-memory cache otherwise.
func openCache(cfg config.CacheConfig, logger *slog.Logger) (domain.ResponseCache, func()) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(), func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	rc := cache.NewRedis(rdb, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, caching in memory", "addr", cfg.RedisAddr, "error", err)
		rdb.Close()
		return cache.NewMemory(), func() {}
	}

	logger.Info("caching responses in redis", "addr", cfg.RedisAddr)
	return rc, func() { rdb.Close() }
}
