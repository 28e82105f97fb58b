package search

import (
	"testing"

	"github.com/mmcdole/cineverse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(items []domain.Media) []string {
	out := make([]string, len(items))
	for i, m := range items {
		out[i] = m.Title
	}
	return out
}

func TestRankMedia(t *testing.T) {
	items := []domain.Media{
		{Title: "The Matrix Reloaded", Kind: domain.KindMovie, Popularity: 50},
		{Title: "Matrix", Kind: domain.KindMovie, Popularity: 1},
		{Title: "Keanu Reeves", Kind: domain.KindUnknown, Popularity: 99},
		{Title: "The Matrix", Kind: domain.KindMovie, Popularity: 90},
		{Title: "Matrix Revolutions", Kind: domain.KindMovie, Popularity: 40},
	}

	ranked := RankMedia(items, "  Matrix ")
	assert.Equal(t, []string{
		"Matrix",              // exact
		"Matrix Revolutions",  // prefix
		"The Matrix",          // contains, more popular
		"The Matrix Reloaded", // contains
		"Keanu Reeves",        // no match
	}, titles(ranked))
}

func TestRankMediaOriginalTitle(t *testing.T) {
	items := []domain.Media{
		{Title: "Spirited Away", Kind: domain.KindMovie},
		{Title: "Howl's Moving Castle", OriginalTitle: "ハウルの動く城", Kind: domain.KindMovie},
	}
	ranked := RankMedia(items, "ハウルの動く城")
	assert.Equal(t, "Howl's Moving Castle", ranked[0].Title)
}

func TestRankMediaEmptyQueryKeepsOrder(t *testing.T) {
	items := []domain.Media{{Title: "b"}, {Title: "a"}}
	assert.Equal(t, items, RankMedia(items, ""))
}

func TestFindTitles(t *testing.T) {
	items := []domain.Media{
		{Title: "Blade Runner 2049"},
		{Title: "Blade Runner"},
		{Title: "Alien"},
	}

	found := FindTitles(items, "blade runner")
	assert.Equal(t, []string{"Blade Runner", "Blade Runner 2049"}, titles(found))
	assert.Empty(t, FindTitles(items, "zzz"))
	assert.Nil(t, FindTitles(items, " "))
}

func TestFilterIndex(t *testing.T) {
	items := []domain.Media{
		{ID: 1, Title: "Spirited Away"},
		{ID: 2, Title: "Princess Mononoke"},
		{ID: 3, Title: "My Neighbor Totoro"},
	}
	idx := NewFilterIndex(items)
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, "spirited away", idx.String(0))

	results := idx.Filter("TOTORO")
	require.Len(t, results, 1)
	assert.Equal(t, int64(3), results[0].Media.ID)
	assert.Equal(t, 2, results[0].Index)
	assert.Len(t, results[0].MatchedIndexes, len("totoro"))

	assert.Nil(t, idx.Filter(""))
	assert.Empty(t, FilterMedia(items, "xyz"))
	assert.Nil(t, FilterMedia(nil, "a"))
}
