// Package tmdb is the client for The Movie Database v3 API.
// Every call is routed through a rate-limited, caching Requester.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/cineverse/internal/batcher"
	"github.com/mmcdole/cineverse/internal/domain"
)

// DefaultBaseURL is the public v3 endpoint
const DefaultBaseURL = "https://api.themoviedb.org/3"

// DefaultSort is the discover sort used when none is given
const DefaultSort = "popularity.desc"

// detailAppend is requested with every detail call
const detailAppend = "videos,credits,recommendations"

// Requester queues URLs behind the rate limiter. *batcher.Batcher satisfies it.
type Requester interface {
	Enqueue(ctx context.Context, url string) ([]byte, error)
	EnqueueAll(ctx context.Context, urls []string) []batcher.Result
	ClearCache()
	CacheSize() int
}

// TimeWindow is the trending period
type TimeWindow string

const (
	WindowDay  TimeWindow = "day"
	WindowWeek TimeWindow = "week"
)

// Client builds TMDB URLs and decodes responses
type Client struct {
	baseURL   string
	apiKey    string
	requester Requester
	logger    *slog.Logger
}

// NewClient creates a client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, apiKey string, requester Requester, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		requester: requester,
		logger:    logger,
	}
}

// SetAPIKey replaces the key used for subsequent calls
func (c *Client) SetAPIKey(key string) {
	c.apiKey = key
}

// ClearCache drops every cached response
func (c *Client) ClearCache() {
	c.requester.ClearCache()
}

// CacheSize returns the number of cached responses
func (c *Client) CacheSize() int {
	return c.requester.CacheSize()
}

// buildURL encodes query parameters in sorted key order so that identical
// calls always produce the same cache key.
func (c *Client) buildURL(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	return fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())
}

func pageQuery(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, domain.ErrNotConfigured
	}
	return c.requester.Enqueue(ctx, reqURL)
}

func (c *Client) fetchPage(ctx context.Context, path string, query url.Values, hint domain.MediaKind) (*domain.Page, error) {
	body, err := c.get(ctx, c.buildURL(path, query))
	if err != nil {
		return nil, err
	}
	var resp pageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("JSON parse error", "path", path, "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return mapPage(resp, hint), nil
}

// PopularMovies returns a page of popular movies
func (c *Client) PopularMovies(ctx context.Context, page int) (*domain.Page, error) {
	return c.fetchPage(ctx, "/movie/popular", pageQuery(page), domain.KindMovie)
}

// PopularTV returns a page of popular series
func (c *Client) PopularTV(ctx context.Context, page int) (*domain.Page, error) {
	return c.fetchPage(ctx, "/tv/popular", pageQuery(page), domain.KindTV)
}

// Trending returns trending titles. mediaType is "all", "movie" or "tv".
func (c *Client) Trending(ctx context.Context, mediaType string, window TimeWindow, page int) (*domain.Page, error) {
	if mediaType == "" {
		mediaType = "all"
	}
	if window == "" {
		window = WindowWeek
	}
	path := fmt.Sprintf("/trending/%s/%s", mediaType, window)
	var hint domain.MediaKind
	if mediaType != "all" {
		hint = domain.ParseKind(mediaType)
	}
	return c.fetchPage(ctx, path, pageQuery(page), hint)
}

// SearchMulti searches movies, series and people in one call
func (c *Client) SearchMulti(ctx context.Context, query string, page int) (*domain.Page, error) {
	q := pageQuery(page)
	q.Set("query", query)
	return c.fetchPage(ctx, "/search/multi", q, "")
}

// DiscoverMovies lists movies in a genre with the given sort_by value
func (c *Client) DiscoverMovies(ctx context.Context, genreID, page int, sortBy string) (*domain.Page, error) {
	return c.fetchPage(ctx, "/discover/movie", discoverQuery(genreID, page, sortBy), domain.KindMovie)
}

// DiscoverTV lists series in a genre with the given sort_by value
func (c *Client) DiscoverTV(ctx context.Context, genreID, page int, sortBy string) (*domain.Page, error) {
	return c.fetchPage(ctx, "/discover/tv", discoverQuery(genreID, page, sortBy), domain.KindTV)
}

// Anime lists Japanese animated series
func (c *Client) Anime(ctx context.Context, page int, sortBy string) (*domain.Page, error) {
	q := discoverQuery(domain.AnimationGenreID, page, sortBy)
	q.Set("with_origin_country", "JP")
	return c.fetchPage(ctx, "/discover/tv", q, domain.KindTV)
}

func discoverQuery(genreID, page int, sortBy string) url.Values {
	if sortBy == "" {
		sortBy = DefaultSort
	}
	q := pageQuery(page)
	q.Set("sort_by", sortBy)
	if genreID > 0 {
		q.Set("with_genres", strconv.Itoa(genreID))
	}
	return q
}

// TopRatedMovies returns a page of top rated movies
func (c *Client) TopRatedMovies(ctx context.Context, page int) (*domain.Page, error) {
	return c.fetchPage(ctx, "/movie/top_rated", pageQuery(page), domain.KindMovie)
}

// TopRatedTV returns a page of top rated series
func (c *Client) TopRatedTV(ctx context.Context, page int) (*domain.Page, error) {
	return c.fetchPage(ctx, "/tv/top_rated", pageQuery(page), domain.KindTV)
}

// UpcomingMovies returns a page of upcoming releases
func (c *Client) UpcomingMovies(ctx context.Context, page int) (*domain.Page, error) {
	return c.fetchPage(ctx, "/movie/upcoming", pageQuery(page), domain.KindMovie)
}

// NowPlayingMovies returns a page of titles currently in theaters
func (c *Client) NowPlayingMovies(ctx context.Context, page int) (*domain.Page, error) {
	return c.fetchPage(ctx, "/movie/now_playing", pageQuery(page), domain.KindMovie)
}

// Genres returns the genre table for a kind
func (c *Client) Genres(ctx context.Context, kind domain.MediaKind) ([]domain.Genre, error) {
	path, err := kindPath(kind, "/genre/%s/list")
	if err != nil {
		return nil, err
	}
	body, err := c.get(ctx, c.buildURL(path, nil))
	if err != nil {
		return nil, err
	}
	var resp genreList
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse genres: %w", err)
	}
	return mapGenres(resp.Genres), nil
}

// MovieDetails returns a movie with videos, credits and recommendations
func (c *Client) MovieDetails(ctx context.Context, id int64) (*domain.Details, error) {
	return c.Details(ctx, domain.KindMovie, id)
}

// TVDetails returns a series with videos, credits and recommendations
func (c *Client) TVDetails(ctx context.Context, id int64) (*domain.Details, error) {
	return c.Details(ctx, domain.KindTV, id)
}

// Details dispatches on kind. KindUnknown has no detail endpoint.
func (c *Client) Details(ctx context.Context, kind domain.MediaKind, id int64) (*domain.Details, error) {
	reqURL, err := c.detailsURL(kind, id)
	if err != nil {
		return nil, err
	}
	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	return decodeDetails(body, kind)
}

// DetailsBatch loads details for several titles at once. The requests are
// queued together, so they share batches. Results and errors are index-aligned
// with items.
func (c *Client) DetailsBatch(ctx context.Context, items []domain.Media) ([]*domain.Details, []error) {
	details := make([]*domain.Details, len(items))
	errs := make([]error, len(items))
	if c.apiKey == "" {
		for i := range errs {
			errs[i] = domain.ErrNotConfigured
		}
		return details, errs
	}

	urls := make([]string, 0, len(items))
	index := make([]int, 0, len(items))
	for i, m := range items {
		u, err := c.detailsURL(m.Kind, m.ID)
		if err != nil {
			errs[i] = err
			continue
		}
		urls = append(urls, u)
		index = append(index, i)
	}

	for j, res := range c.requester.EnqueueAll(ctx, urls) {
		i := index[j]
		if res.Err != nil {
			errs[i] = res.Err
			continue
		}
		details[i], errs[i] = decodeDetails(res.Body, items[i].Kind)
	}
	return details, errs
}

func (c *Client) detailsURL(kind domain.MediaKind, id int64) (string, error) {
	path, err := kindPath(kind, "/%s/"+strconv.FormatInt(id, 10))
	if err != nil {
		return "", err
	}
	return c.buildURL(path, url.Values{"append_to_response": {detailAppend}}), nil
}

func kindPath(kind domain.MediaKind, format string) (string, error) {
	switch kind {
	case domain.KindMovie, domain.KindTV:
		return fmt.Sprintf(format, string(kind)), nil
	default:
		return "", fmt.Errorf("no endpoint for media kind %q: %w", kind, domain.ErrNotFound)
	}
}

func decodeDetails(body []byte, kind domain.MediaKind) (*domain.Details, error) {
	var resp detailsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse details: %w", err)
	}
	return mapDetails(resp, kind), nil
}
