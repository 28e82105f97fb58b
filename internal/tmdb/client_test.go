package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/cineverse/internal/batcher"
	"github.com/mmcdole/cineverse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTMDB serves canned bodies by path and records every request
type fakeTMDB struct {
	mu       sync.Mutex
	requests []*url.URL
	bodies   map[string]string
	status   map[string]int
}

func (f *fakeTMDB) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.URL)
	body, ok := f.bodies[r.URL.Path]
	status := f.status[r.URL.Path]
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"status_message":"nope"}`))
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func (f *fakeTMDB) last() *url.URL {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeTMDB) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newTestClient(t *testing.T, f *fakeTMDB) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	b := batcher.New(NewHTTPFetcher(time.Second, nil), batcher.Options{BatchSize: 5, CoolDown: time.Millisecond})
	return NewClient(srv.URL, "secret", b, nil)
}

const popularBody = `{
  "page": 1, "total_pages": 3, "total_results": 60,
  "results": [
    {"id": 27205, "title": "Inception", "release_date": "2010-07-15", "vote_average": 8.4, "genre_ids": [28, 878], "original_language": "en", "popularity": 90.5},
    {"id": 157336, "title": "Interstellar", "release_date": "2014-11-05", "vote_average": 8.5, "genre_ids": [12, 18, 878]}
  ]
}`

func TestPopularMovies(t *testing.T) {
	f := &fakeTMDB{bodies: map[string]string{"/movie/popular": popularBody}}
	c := newTestClient(t, f)

	page, err := c.PopularMovies(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext())
	require.Len(t, page.Results, 2)
	assert.Equal(t, "Inception", page.Results[0].Title)
	assert.Equal(t, domain.KindMovie, page.Results[0].Kind)
	assert.Equal(t, []int{28, 878}, page.Results[0].GenreIDs)

	q := f.last().Query()
	assert.Equal(t, "secret", q.Get("api_key"))
	assert.Equal(t, "1", q.Get("page"))
}

func TestIdenticalCallsShareCache(t *testing.T) {
	f := &fakeTMDB{bodies: map[string]string{"/movie/popular": popularBody}}
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.PopularMovies(ctx, 1)
	require.NoError(t, err)
	_, err = c.PopularMovies(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, f.count())
	assert.Equal(t, 1, c.CacheSize())

	_, err = c.PopularMovies(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, f.count())

	c.ClearCache()
	assert.Equal(t, 0, c.CacheSize())
}

func TestSearchMultiKinds(t *testing.T) {
	body := `{"page":1,"total_pages":1,"total_results":3,"results":[
		{"id":1,"media_type":"movie","title":"Dune","release_date":"2021-09-15"},
		{"id":2,"media_type":"tv","name":"Dune: Prophecy","first_air_date":"2024-11-17"},
		{"id":3,"media_type":"person","name":"Denis Villeneuve"}
	]}`
	f := &fakeTMDB{bodies: map[string]string{"/search/multi": body}}
	c := newTestClient(t, f)

	page, err := c.SearchMulti(context.Background(), "dune & co", 1)
	require.NoError(t, err)
	require.Len(t, page.Results, 3)
	assert.Equal(t, domain.KindMovie, page.Results[0].Kind)
	assert.Equal(t, domain.KindTV, page.Results[1].Kind)
	assert.Equal(t, "Dune: Prophecy", page.Results[1].Title)
	assert.Equal(t, "2024-11-17", page.Results[1].ReleaseDate)
	assert.Equal(t, domain.KindUnknown, page.Results[2].Kind)

	assert.Equal(t, "dune & co", f.last().Query().Get("query"))
}

func TestDiscoverAndAnimeQueries(t *testing.T) {
	empty := `{"page":1,"total_pages":1,"total_results":0,"results":[]}`
	f := &fakeTMDB{bodies: map[string]string{"/discover/movie": empty, "/discover/tv": empty}}
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.DiscoverMovies(ctx, 28, 2, "")
	require.NoError(t, err)
	q := f.last().Query()
	assert.Equal(t, "28", q.Get("with_genres"))
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, DefaultSort, q.Get("sort_by"))

	_, err = c.Anime(ctx, 1, SortOptions["rating"])
	require.NoError(t, err)
	q = f.last().Query()
	assert.Equal(t, "/discover/tv", f.last().Path)
	assert.Equal(t, "JP", q.Get("with_origin_country"))
	assert.Equal(t, "16", q.Get("with_genres"))
	assert.Equal(t, "vote_average.desc", q.Get("sort_by"))
}

func TestTrendingPath(t *testing.T) {
	body := `{"page":1,"total_pages":1,"total_results":1,"results":[{"id":9,"name":"Shogun"}]}`
	f := &fakeTMDB{bodies: map[string]string{"/trending/tv/day": body}}
	c := newTestClient(t, f)

	page, err := c.Trending(context.Background(), "tv", WindowDay, 1)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, domain.KindTV, page.Results[0].Kind)
}

const movieDetailBody = `{
  "id": 27205, "title": "Inception", "release_date": "2010-07-15", "runtime": 148,
  "tagline": "Your mind is the scene of the crime.", "status": "Released",
  "genres": [{"id": 28, "name": "Action"}, {"id": 878, "name": "Science Fiction"}],
  "videos": {"results": [
    {"key": "tease", "site": "YouTube", "type": "Teaser"},
    {"key": "YoHD9XEInc0", "site": "YouTube", "type": "Trailer"}
  ]},
  "credits": {
    "cast": [{"name": "Leonardo DiCaprio", "character": "Cobb", "order": 0}],
    "crew": [{"name": "Christopher Nolan", "job": "Director", "department": "Directing"}]
  },
  "recommendations": {"page": 1, "results": [{"id": 155, "title": "The Dark Knight"}]}
}`

func TestMovieDetails(t *testing.T) {
	f := &fakeTMDB{bodies: map[string]string{"/movie/27205": movieDetailBody}}
	c := newTestClient(t, f)

	d, err := c.MovieDetails(context.Background(), 27205)
	require.NoError(t, err)

	assert.Equal(t, "videos,credits,recommendations", f.last().Query().Get("append_to_response"))
	assert.Equal(t, domain.KindMovie, d.Kind)
	assert.Equal(t, 148, d.Runtime)
	assert.Equal(t, []int{28, 878}, d.GenreIDs)
	assert.Equal(t, []string{"Action", "Science Fiction"}, d.GenreNames())
	assert.Equal(t, []string{"Christopher Nolan"}, d.Directors())
	assert.Equal(t, "https://www.youtube.com/watch?v=YoHD9XEInc0", TrailerURL(d.Videos))
	require.Len(t, d.Recommendations, 1)
	assert.Equal(t, domain.KindMovie, d.Recommendations[0].Kind)
}

func TestTVDetailsEpisodeRuntime(t *testing.T) {
	body := `{"id": 1399, "name": "Game of Thrones", "first_air_date": "2011-04-17",
		"episode_run_time": [60, 55], "number_of_seasons": 8, "number_of_episodes": 73}`
	f := &fakeTMDB{bodies: map[string]string{"/tv/1399": body}}
	c := newTestClient(t, f)

	d, err := c.Details(context.Background(), domain.KindTV, 1399)
	require.NoError(t, err)
	assert.Equal(t, "Game of Thrones", d.Title)
	assert.Equal(t, 60, d.EpisodeRuntime)
	assert.Equal(t, 8, d.NumberOfSeasons)
}

func TestDetailsUnknownKind(t *testing.T) {
	c := newTestClient(t, &fakeTMDB{})
	_, err := c.Details(context.Background(), domain.KindUnknown, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestKindPathUsesLowercaseSegment(t *testing.T) {
	c := NewClient("", "secret", nil, nil)

	movie, err := c.detailsURL(domain.KindMovie, 27205)
	require.NoError(t, err)
	assert.Contains(t, movie, DefaultBaseURL+"/movie/27205?")

	tv, err := c.detailsURL(domain.KindTV, 1399)
	require.NoError(t, err)
	assert.Contains(t, tv, DefaultBaseURL+"/tv/1399?")

	path, err := kindPath(domain.KindTV, "/genre/%s/list")
	require.NoError(t, err)
	assert.Equal(t, "/genre/tv/list", path)
}

func TestDetailsBatch(t *testing.T) {
	f := &fakeTMDB{bodies: map[string]string{"/movie/27205": movieDetailBody}}
	c := newTestClient(t, f)

	items := []domain.Media{
		{ID: 27205, Kind: domain.KindMovie},
		{ID: 404, Kind: domain.KindMovie},
		{ID: 7, Kind: domain.KindUnknown},
	}
	details, errs := c.DetailsBatch(context.Background(), items)

	require.NoError(t, errs[0])
	assert.Equal(t, "Inception", details[0].Title)
	assert.ErrorIs(t, errs[1], domain.ErrNotFound)
	assert.Nil(t, details[1])
	assert.Error(t, errs[2])
	assert.Equal(t, 2, f.count())
}

func TestStatusMapping(t *testing.T) {
	f := &fakeTMDB{status: map[string]int{
		"/movie/popular":   http.StatusUnauthorized,
		"/tv/popular":      http.StatusTooManyRequests,
		"/movie/top_rated": http.StatusBadGateway,
	}}
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.PopularMovies(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrAuthFailed)

	_, err = c.PopularTV(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	_, err = c.TopRatedMovies(ctx, 1)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	b := batcher.New(NewHTTPFetcher(time.Second, nil), batcher.Options{CoolDown: time.Millisecond})
	c := NewClient(srv.URL, "secret", b, nil)

	_, err := c.PopularMovies(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}

func TestMissingAPIKey(t *testing.T) {
	f := &fakeTMDB{}
	c := newTestClient(t, f)
	c.SetAPIKey("")

	_, err := c.PopularMovies(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	assert.Equal(t, 0, f.count())
}

func TestGenres(t *testing.T) {
	f := &fakeTMDB{bodies: map[string]string{
		"/genre/tv/list": `{"genres":[{"id":16,"name":"Animation"},{"id":10759,"name":"Action & Adventure"}]}`,
	}}
	c := newTestClient(t, f)

	genres, err := c.Genres(context.Background(), domain.KindTV)
	require.NoError(t, err)
	assert.Equal(t, []domain.Genre{{ID: 16, Name: "Animation"}, {ID: 10759, Name: "Action & Adventure"}}, genres)
}

func TestRedact(t *testing.T) {
	got := redact("https://api.themoviedb.org/3/movie/popular?api_key=secret&page=1")
	assert.NotContains(t, got, "secret")
	assert.Contains(t, got, "page=1")
}
