// Package search ranks remote search results and filters loaded lists
// locally by title.
package search

import (
	"cmp"
	"slices"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/cineverse/internal/domain"
)

// RankMedia reorders remote results by how well their titles match query.
// Lower scores sort first; equal scores fall back to popularity. People and
// other unknown kinds are ranked after titles with the same score.
func RankMedia(items []domain.Media, query string) []domain.Media {
	query = strings.ToLower(strings.TrimSpace(query))
	if len(items) == 0 || query == "" {
		return items
	}

	type rankedItem struct {
		item  domain.Media
		score int
	}

	ranked := make([]rankedItem, 0, len(items))
	for _, item := range items {
		ranked = append(ranked, rankedItem{item: item, score: matchScore(item, query)})
	}

	slices.SortStableFunc(ranked, func(a, b rankedItem) int {
		if c := cmp.Compare(a.score, b.score); c != 0 {
			return c
		}
		return cmp.Compare(b.item.Popularity, a.item.Popularity)
	})

	results := make([]domain.Media, len(ranked))
	for i, r := range ranked {
		results[i] = r.item
	}
	return results
}

// matchScore calculates a match score for ranking. Lower is better.
func matchScore(item domain.Media, query string) int {
	title := strings.ToLower(item.Title)
	original := strings.ToLower(item.OriginalTitle)

	var score int
	switch {
	case title == query || original == query:
		score = 0
	case strings.HasPrefix(title, query):
		score = 10
	case strings.Contains(title, query) || strings.Contains(original, query):
		score = 50
	default:
		score = 100 + fuzzy.LevenshteinDistance(query, title)
	}

	if item.Kind == domain.KindUnknown {
		score += 5
	}
	return score
}

// FindTitles returns the items whose title fuzzily contains every character
// of query in order, closest first.
func FindTitles(items []domain.Media, query string) []domain.Media {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	titles := make([]string, len(items))
	for i, item := range items {
		titles[i] = item.Title
	}

	matches := fuzzy.RankFindFold(query, titles)
	slices.SortStableFunc(matches, func(a, b fuzzy.Rank) int {
		return cmp.Compare(a.Distance, b.Distance)
	})

	results := make([]domain.Media, 0, len(matches))
	for _, m := range matches {
		results = append(results, items[m.OriginalIndex])
	}
	return results
}
