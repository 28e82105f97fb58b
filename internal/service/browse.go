// Package service coordinates catalog browsing on top of the metadata client.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmcdole/cineverse/internal/domain"
	"github.com/mmcdole/cineverse/internal/search"
	"github.com/mmcdole/cineverse/internal/tmdb"
)

// Category is a browsable list on the home screen
type Category string

const (
	CategoryPopularMovies  Category = "popular_movies"
	CategoryPopularTV      Category = "popular_tv"
	CategoryTopRatedMovies Category = "top_rated_movies"
	CategoryTopRatedTV     Category = "top_rated_tv"
	CategoryUpcoming       Category = "upcoming"
	CategoryNowPlaying     Category = "now_playing"
	CategoryTrending       Category = "trending"
	CategoryAnime          Category = "anime"
)

// Categories lists every category in tab order
var Categories = []Category{
	CategoryPopularMovies,
	CategoryPopularTV,
	CategoryTrending,
	CategoryTopRatedMovies,
	CategoryTopRatedTV,
	CategoryUpcoming,
	CategoryNowPlaying,
	CategoryAnime,
}

// Title returns the tab label
func (c Category) Title() string {
	switch c {
	case CategoryPopularMovies:
		return "Popular Movies"
	case CategoryPopularTV:
		return "Popular TV"
	case CategoryTopRatedMovies:
		return "Top Rated Movies"
	case CategoryTopRatedTV:
		return "Top Rated TV"
	case CategoryUpcoming:
		return "Upcoming"
	case CategoryNowPlaying:
		return "Now Playing"
	case CategoryTrending:
		return "Trending"
	case CategoryAnime:
		return "Anime"
	default:
		return string(c)
	}
}

// ParseCategory resolves a configured category id
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == strings.ToLower(strings.TrimSpace(s)) {
			return c, true
		}
	}
	return "", false
}

// Catalog is the subset of the metadata client the service consumes
type Catalog interface {
	PopularMovies(ctx context.Context, page int) (*domain.Page, error)
	PopularTV(ctx context.Context, page int) (*domain.Page, error)
	Trending(ctx context.Context, mediaType string, window tmdb.TimeWindow, page int) (*domain.Page, error)
	SearchMulti(ctx context.Context, query string, page int) (*domain.Page, error)
	DiscoverMovies(ctx context.Context, genreID, page int, sortBy string) (*domain.Page, error)
	DiscoverTV(ctx context.Context, genreID, page int, sortBy string) (*domain.Page, error)
	Anime(ctx context.Context, page int, sortBy string) (*domain.Page, error)
	TopRatedMovies(ctx context.Context, page int) (*domain.Page, error)
	TopRatedTV(ctx context.Context, page int) (*domain.Page, error)
	UpcomingMovies(ctx context.Context, page int) (*domain.Page, error)
	NowPlayingMovies(ctx context.Context, page int) (*domain.Page, error)
	Genres(ctx context.Context, kind domain.MediaKind) ([]domain.Genre, error)
	Details(ctx context.Context, kind domain.MediaKind, id int64) (*domain.Details, error)
	DetailsBatch(ctx context.Context, items []domain.Media) ([]*domain.Details, []error)
}

// BrowseService loads catalog pages, search results, details and genres
type BrowseService struct {
	catalog Catalog
	genres  domain.GenreStore
	window  tmdb.TimeWindow
	logger  *slog.Logger
}

// NewBrowseService creates a browse service. genres may be nil.
func NewBrowseService(catalog Catalog, genres domain.GenreStore, logger *slog.Logger) *BrowseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowseService{
		catalog: catalog,
		genres:  genres,
		window:  tmdb.WindowWeek,
		logger:  logger,
	}
}

// SetTrendingWindow selects "day" or "week" for the trending category.
// Any other value is ignored.
func (s *BrowseService) SetTrendingWindow(window string) {
	switch tmdb.TimeWindow(window) {
	case tmdb.WindowDay, tmdb.WindowWeek:
		s.window = tmdb.TimeWindow(window)
	}
}

// TrendingWindow returns the active trending window
func (s *BrowseService) TrendingWindow() tmdb.TimeWindow {
	return s.window
}

// LoadCategory loads one page of a category
func (s *BrowseService) LoadCategory(ctx context.Context, cat Category, page int) (*domain.Page, error) {
	if page < 1 {
		page = 1
	}
	s.logger.Debug("loading category", "category", cat, "page", page)

	var (
		p   *domain.Page
		err error
	)
	switch cat {
	case CategoryPopularMovies:
		p, err = s.catalog.PopularMovies(ctx, page)
	case CategoryPopularTV:
		p, err = s.catalog.PopularTV(ctx, page)
	case CategoryTopRatedMovies:
		p, err = s.catalog.TopRatedMovies(ctx, page)
	case CategoryTopRatedTV:
		p, err = s.catalog.TopRatedTV(ctx, page)
	case CategoryUpcoming:
		p, err = s.catalog.UpcomingMovies(ctx, page)
	case CategoryNowPlaying:
		p, err = s.catalog.NowPlayingMovies(ctx, page)
	case CategoryTrending:
		p, err = s.catalog.Trending(ctx, "all", s.window, page)
	case CategoryAnime:
		p, err = s.catalog.Anime(ctx, page, tmdb.DefaultSort)
	default:
		return nil, fmt.Errorf("unknown category %q", cat)
	}
	if err != nil {
		s.logger.Error("failed to load category", "category", cat, "page", page, "error", err)
		return nil, err
	}
	return p, nil
}

// LoadCategoryPages loads up to maxPages pages of a category and concatenates
// them. onProgress may be nil.
func (s *BrowseService) LoadCategoryPages(ctx context.Context, cat Category, maxPages int, onProgress func(loaded, total int)) (*domain.Page, error) {
	return fetchPages(ctx, func(ctx context.Context, page int) (*domain.Page, error) {
		return s.LoadCategory(ctx, cat, page)
	}, maxPages, onProgress)
}

// Discover lists titles of one kind in a named genre. An empty genre lists
// the whole kind; an empty sort name means popularity.
func (s *BrowseService) Discover(ctx context.Context, kind domain.MediaKind, genre, sortName string, page int) (*domain.Page, error) {
	genreID := 0
	if strings.TrimSpace(genre) != "" {
		id, ok := tmdb.LookupGenre(genre)
		if !ok {
			return nil, fmt.Errorf("unknown genre %q", genre)
		}
		genreID = id
	}

	sortBy := tmdb.DefaultSort
	if sortName != "" {
		v, ok := tmdb.SortOptions[sortName]
		if !ok {
			return nil, fmt.Errorf("unknown sort option %q", sortName)
		}
		sortBy = v
	}
	if page < 1 {
		page = 1
	}

	switch kind {
	case domain.KindMovie:
		return s.catalog.DiscoverMovies(ctx, genreID, page, sortBy)
	case domain.KindTV:
		return s.catalog.DiscoverTV(ctx, genreID, page, sortBy)
	default:
		return nil, fmt.Errorf("cannot discover media kind %q", kind)
	}
}

// Search runs a multi search and re-ranks the page against the query.
// People and other non-title results are dropped.
func (s *BrowseService) Search(ctx context.Context, query string, page int) (*domain.Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &domain.Page{Number: 1}, nil
	}
	if page < 1 {
		page = 1
	}

	p, err := s.catalog.SearchMulti(ctx, query, page)
	if err != nil {
		s.logger.Error("search failed", "query", query, "error", err)
		return nil, err
	}

	titles := make([]domain.Media, 0, len(p.Results))
	for _, m := range p.Results {
		if m.Kind == domain.KindUnknown {
			continue
		}
		titles = append(titles, m)
	}
	ranked := *p
	ranked.Results = search.RankMedia(titles, query)
	s.logger.Debug("search complete", "query", query, "results", len(ranked.Results))
	return &ranked, nil
}

// Details loads the full record for a title
func (s *BrowseService) Details(ctx context.Context, m domain.Media) (*domain.Details, error) {
	d, err := s.catalog.Details(ctx, m.Kind, m.ID)
	if err != nil {
		s.logger.Error("failed to load details", "key", m.Key(), "error", err)
		return nil, err
	}
	return d, nil
}

// Prefetch warms the response cache with details for items. Failures are
// logged and counted; the number of successful loads is returned.
func (s *BrowseService) Prefetch(ctx context.Context, items []domain.Media) int {
	if len(items) == 0 {
		return 0
	}
	_, errs := s.catalog.DetailsBatch(ctx, items)
	loaded := 0
	for i, err := range errs {
		if err != nil {
			s.logger.Debug("prefetch failed", "key", items[i].Key(), "error", err)
			continue
		}
		loaded++
	}
	s.logger.Debug("prefetch complete", "requested", len(items), "loaded", loaded)
	return loaded
}
