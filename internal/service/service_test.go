package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mmcdole/cineverse/internal/domain"
	"github.com/mmcdole/cineverse/internal/log"
	"github.com/mmcdole/cineverse/internal/tmdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	method string
	page   int
	arg    string
	genre  int
}

type fakeCatalog struct {
	mu         sync.Mutex
	calls      []call
	pages      int
	err        error
	search     []domain.Media
	genres     map[domain.MediaKind][]domain.Genre
	genreErr   error
	genreCalls int
	details    map[int64]*domain.Details
}

func (f *fakeCatalog) record(c call) (*domain.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if f.err != nil {
		return nil, f.err
	}
	total := f.pages
	if total == 0 {
		total = 1
	}
	return &domain.Page{
		Number:       c.page,
		TotalPages:   total,
		TotalResults: total * 2,
		Results: []domain.Media{
			{ID: int64(c.page*10 + 1), Title: c.method, Kind: domain.KindMovie},
			{ID: int64(c.page*10 + 2), Title: c.method, Kind: domain.KindTV},
		},
	}, nil
}

func (f *fakeCatalog) PopularMovies(_ context.Context, page int) (*domain.Page, error) {
	return f.record(call{method: "popular_movies", page: page})
}

func (f *fakeCatalog) PopularTV(_ context.Context, page int) (*domain.Page, error) {
	return f.record(call{method: "popular_tv", page: page})
}

func (f *fakeCatalog) Trending(_ context.Context, mediaType string, window tmdb.TimeWindow, page int) (*domain.Page, error) {
	return f.record(call{method: "trending", page: page, arg: mediaType + "/" + string(window)})
}

func (f *fakeCatalog) SearchMulti(_ context.Context, query string, page int) (*domain.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{method: "search", page: page, arg: query})
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Page{Number: page, TotalPages: 3, TotalResults: 60, Results: f.search}, nil
}

func (f *fakeCatalog) DiscoverMovies(_ context.Context, genreID, page int, sortBy string) (*domain.Page, error) {
	return f.record(call{method: "discover_movies", page: page, arg: sortBy, genre: genreID})
}

func (f *fakeCatalog) DiscoverTV(_ context.Context, genreID, page int, sortBy string) (*domain.Page, error) {
	return f.record(call{method: "discover_tv", page: page, arg: sortBy, genre: genreID})
}

func (f *fakeCatalog) Anime(_ context.Context, page int, sortBy string) (*domain.Page, error) {
	return f.record(call{method: "anime", page: page, arg: sortBy})
}

func (f *fakeCatalog) TopRatedMovies(_ context.Context, page int) (*domain.Page, error) {
	return f.record(call{method: "top_rated_movies", page: page})
}

func (f *fakeCatalog) TopRatedTV(_ context.Context, page int) (*domain.Page, error) {
	return f.record(call{method: "top_rated_tv", page: page})
}

func (f *fakeCatalog) UpcomingMovies(_ context.Context, page int) (*domain.Page, error) {
	return f.record(call{method: "upcoming", page: page})
}

func (f *fakeCatalog) NowPlayingMovies(_ context.Context, page int) (*domain.Page, error) {
	return f.record(call{method: "now_playing", page: page})
}

func (f *fakeCatalog) Genres(_ context.Context, kind domain.MediaKind) ([]domain.Genre, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genreCalls++
	if f.genreErr != nil {
		return nil, f.genreErr
	}
	return f.genres[kind], nil
}

func (f *fakeCatalog) Details(_ context.Context, kind domain.MediaKind, id int64) (*domain.Details, error) {
	if d, ok := f.details[id]; ok {
		return d, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCatalog) DetailsBatch(ctx context.Context, items []domain.Media) ([]*domain.Details, []error) {
	out := make([]*domain.Details, len(items))
	errs := make([]error, len(items))
	for i, m := range items {
		out[i], errs[i] = f.Details(ctx, m.Kind, m.ID)
	}
	return out, errs
}

type memGenres struct {
	tables  map[domain.MediaKind][]domain.Genre
	cleared bool
}

func (m *memGenres) GetGenres(kind domain.MediaKind) ([]domain.Genre, bool) {
	g, ok := m.tables[kind]
	return g, ok
}

func (m *memGenres) SaveGenres(kind domain.MediaKind, genres []domain.Genre) error {
	if m.tables == nil {
		m.tables = make(map[domain.MediaKind][]domain.Genre)
	}
	m.tables[kind] = genres
	return nil
}

func (m *memGenres) ClearGenres() error {
	m.tables = nil
	m.cleared = true
	return nil
}

func newTestService(cat *fakeCatalog, genres domain.GenreStore) *BrowseService {
	return NewBrowseService(cat, genres, log.NullLogger())
}

func TestLoadCategoryDispatch(t *testing.T) {
	cat := &fakeCatalog{}
	svc := newTestService(cat, nil)

	for _, c := range Categories {
		p, err := svc.LoadCategory(context.Background(), c, 1)
		require.NoError(t, err, c)
		assert.Equal(t, string(c), p.Results[0].Title)
	}

	_, err := svc.LoadCategory(context.Background(), Category("bogus"), 1)
	assert.Error(t, err)
}

func TestLoadCategoryClampsPage(t *testing.T) {
	cat := &fakeCatalog{}
	svc := newTestService(cat, nil)
	_, err := svc.LoadCategory(context.Background(), CategoryPopularMovies, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.calls[0].page)
}

func TestTrendingWindow(t *testing.T) {
	cat := &fakeCatalog{}
	svc := newTestService(cat, nil)
	assert.Equal(t, tmdb.WindowWeek, svc.TrendingWindow())

	svc.SetTrendingWindow("day")
	svc.SetTrendingWindow("month")
	assert.Equal(t, tmdb.WindowDay, svc.TrendingWindow())

	_, err := svc.LoadCategory(context.Background(), CategoryTrending, 2)
	require.NoError(t, err)
	assert.Equal(t, call{method: "trending", page: 2, arg: "all/day"}, cat.calls[0])
}

func TestLoadCategoryError(t *testing.T) {
	cat := &fakeCatalog{err: domain.ErrServiceUnavailable}
	svc := newTestService(cat, nil)
	_, err := svc.LoadCategory(context.Background(), CategoryUpcoming, 1)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}

func TestLoadCategoryPages(t *testing.T) {
	cat := &fakeCatalog{pages: 4}
	svc := newTestService(cat, nil)

	var progress [][2]int
	p, err := svc.LoadCategoryPages(context.Background(), CategoryPopularTV, 3, func(loaded, total int) {
		progress = append(progress, [2]int{loaded, total})
	})
	require.NoError(t, err)
	assert.Len(t, p.Results, 6)
	assert.Equal(t, 4, p.TotalPages)
	assert.Equal(t, [][2]int{{1, 4}, {2, 4}, {3, 4}}, progress)
}

func TestLoadCategoryPagesStopsAtLastPage(t *testing.T) {
	cat := &fakeCatalog{pages: 2}
	svc := newTestService(cat, nil)
	p, err := svc.LoadCategoryPages(context.Background(), CategoryAnime, 10, nil)
	require.NoError(t, err)
	assert.Len(t, p.Results, 4)
	assert.Len(t, cat.calls, 2)
	assert.Equal(t, tmdb.DefaultSort, cat.calls[0].arg)
}

func TestLoadCategoryPagesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newTestService(&fakeCatalog{pages: 3}, nil)
	_, err := svc.LoadCategoryPages(ctx, CategoryPopularMovies, 3, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiscover(t *testing.T) {
	cat := &fakeCatalog{}
	svc := newTestService(cat, nil)

	_, err := svc.Discover(context.Background(), domain.KindMovie, "Sci-Fi", "rating", 2)
	require.NoError(t, err)
	assert.Equal(t, call{method: "discover_movies", page: 2, arg: "vote_average.desc", genre: 878}, cat.calls[0])

	_, err = svc.Discover(context.Background(), domain.KindTV, "", "", 0)
	require.NoError(t, err)
	assert.Equal(t, call{method: "discover_tv", page: 1, arg: "popularity.desc"}, cat.calls[1])

	_, err = svc.Discover(context.Background(), domain.KindMovie, "nonsense", "", 1)
	assert.Error(t, err)
	_, err = svc.Discover(context.Background(), domain.KindMovie, "", "loudness", 1)
	assert.Error(t, err)
	_, err = svc.Discover(context.Background(), domain.KindUnknown, "", "", 1)
	assert.Error(t, err)
	assert.Len(t, cat.calls, 2)
}

func TestSearchRanksAndDropsPeople(t *testing.T) {
	cat := &fakeCatalog{search: []domain.Media{
		{ID: 1, Title: "The Dark Knight Rises", Kind: domain.KindMovie, Popularity: 80},
		{ID: 2, Title: "Christopher Nolan", Kind: domain.KindUnknown},
		{ID: 3, Title: "The Dark Knight", Kind: domain.KindMovie, Popularity: 90},
	}}
	svc := newTestService(cat, nil)

	p, err := svc.Search(context.Background(), " the dark knight ", 1)
	require.NoError(t, err)
	require.Len(t, p.Results, 2)
	assert.Equal(t, int64(3), p.Results[0].ID)
	assert.Equal(t, int64(1), p.Results[1].ID)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, "the dark knight", cat.calls[0].arg)
}

func TestSearchBlankQuery(t *testing.T) {
	cat := &fakeCatalog{}
	svc := newTestService(cat, nil)
	p, err := svc.Search(context.Background(), "   ", 1)
	require.NoError(t, err)
	assert.Empty(t, p.Results)
	assert.Empty(t, cat.calls)
}

func TestDetailsAndPrefetch(t *testing.T) {
	cat := &fakeCatalog{details: map[int64]*domain.Details{
		1: {Media: domain.Media{ID: 1, Title: "One"}, Runtime: 100},
	}}
	svc := newTestService(cat, nil)

	d, err := svc.Details(context.Background(), domain.Media{ID: 1, Kind: domain.KindMovie})
	require.NoError(t, err)
	assert.Equal(t, 100, d.Runtime)

	_, err = svc.Details(context.Background(), domain.Media{ID: 2, Kind: domain.KindMovie})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	loaded := svc.Prefetch(context.Background(), []domain.Media{
		{ID: 1, Kind: domain.KindMovie},
		{ID: 2, Kind: domain.KindTV},
	})
	assert.Equal(t, 1, loaded)
	assert.Zero(t, svc.Prefetch(context.Background(), nil))
}

func TestGenresMergedAndCached(t *testing.T) {
	cat := &fakeCatalog{genres: map[domain.MediaKind][]domain.Genre{
		domain.KindMovie: {{ID: 28, Name: "Action"}, {ID: 18, Name: "Drama"}},
		domain.KindTV:    {{ID: 18, Name: "Drama"}, {ID: 10759, Name: "Action & Adventure"}},
	}}
	store := &memGenres{}
	svc := newTestService(cat, store)

	genres, err := svc.Genres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Genre{
		{ID: 28, Name: "Action"},
		{ID: 10759, Name: "Action & Adventure"},
		{ID: 18, Name: "Drama"},
	}, genres)
	assert.Equal(t, 2, cat.genreCalls)

	again, err := svc.Genres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, genres, again)
	assert.Equal(t, 2, cat.genreCalls, "second load is served from the store")

	require.NoError(t, svc.RefreshGenres())
	assert.True(t, store.cleared)
	_, err = svc.Genres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, cat.genreCalls)
}

func TestGenresFallbackToStaticTable(t *testing.T) {
	cat := &fakeCatalog{genreErr: errors.New("boom")}
	svc := newTestService(cat, nil)

	genres, err := svc.Genres(context.Background())
	require.NoError(t, err)
	assert.Len(t, genres, len(tmdb.GenreMap))
	assert.Contains(t, genres, domain.Genre{ID: 878, Name: "Sci-Fi"})
	assert.Contains(t, genres, domain.Genre{ID: 10770, Name: "Reality"})
	assert.Contains(t, genres, domain.Genre{ID: 10759, Name: "Action-Adventure"})
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory(" Trending ")
	assert.True(t, ok)
	assert.Equal(t, CategoryTrending, c)
	assert.Equal(t, "Trending", c.Title())

	_, ok = ParseCategory("nope")
	assert.False(t, ok)
}
