package store

import (
	"testing"

	"github.com/mmcdole/cineverse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func sampleEntries() []domain.WatchlistEntry {
	poster := "/inception.jpg"
	return []domain.WatchlistEntry{
		{ID: 27205, TMDBID: 27205, Title: "Inception", PosterPath: &poster, GenreIDs: []int{28}, MediaType: domain.KindMovie, OriginalLanguage: "en", AddedDate: "2024-03-01T12:00:00.000Z"},
		{ID: 1399, TMDBID: 1399, Title: "Game of Thrones", GenreIDs: []int{}, MediaType: domain.KindTV, OriginalLanguage: "en", AddedDate: "2024-02-01T12:00:00.000Z"},
	}
}

func TestWatchlistSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	assert.True(t, s.Persistent())

	entries, err := s.LoadWatchlist()
	require.NoError(t, err)
	assert.Nil(t, entries)

	require.NoError(t, s.SaveWatchlist(sampleEntries()))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	entries, err = s.LoadWatchlist()
	require.NoError(t, err)
	assert.Equal(t, sampleEntries(), entries)
}

func TestMemoryOnlyMode(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	assert.False(t, s.Persistent())

	require.NoError(t, s.SaveWatchlist(sampleEntries()))
	entries, err := s.LoadWatchlist()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.NoError(t, s.Close())
}

func TestSaveEmptyWatchlist(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SaveWatchlist(nil))
	entries, err := s.LoadWatchlist()
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestCorruptWatchlistBlob(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketWatchlist).Put([]byte(WatchlistKey), []byte("{not json"))
	})
	require.NoError(t, err)

	_, err = s.LoadWatchlist()
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
	require.NoError(t, s.Close())
}

func TestGenres(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.GetGenres(domain.KindMovie)
	assert.False(t, ok)

	movie := []domain.Genre{{ID: 28, Name: "Action"}}
	tv := []domain.Genre{{ID: 10759, Name: "Action & Adventure"}}
	require.NoError(t, s.SaveGenres(domain.KindMovie, movie))
	require.NoError(t, s.SaveGenres(domain.KindTV, tv))

	got, ok := s.GetGenres(domain.KindMovie)
	require.True(t, ok)
	assert.Equal(t, movie, got)

	require.NoError(t, s.ClearGenres())
	_, ok = s.GetGenres(domain.KindTV)
	assert.False(t, ok)

	// The watchlist bucket is untouched by genre clears
	require.NoError(t, s.SaveWatchlist(sampleEntries()))
	require.NoError(t, s.ClearGenres())
	entries, err := s.LoadWatchlist()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
