package search

import (
	"strings"

	"github.com/mmcdole/cineverse/internal/domain"
	"github.com/sahilm/fuzzy"
)

// FilterIndex implements sahilm/fuzzy.Source over a loaded list
type FilterIndex struct {
	items       []domain.Media
	lowerTitles []string // Pre-computed lowercase titles
}

// NewFilterIndex indexes items for repeated filtering
func NewFilterIndex(items []domain.Media) *FilterIndex {
	idx := &FilterIndex{
		items:       items,
		lowerTitles: make([]string, len(items)),
	}
	for i, item := range items {
		idx.lowerTitles[i] = strings.ToLower(item.Title)
	}
	return idx
}

// String returns the lowercase title at index i (implements fuzzy.Source)
func (idx *FilterIndex) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of items (implements fuzzy.Source)
func (idx *FilterIndex) Len() int { return len(idx.items) }

// FilterResult is one match with positions for highlighting
type FilterResult struct {
	Media          domain.Media
	Index          int   // Position in the indexed list
	MatchedIndexes []int // Character positions that matched
	Score          int   // Higher is better
}

// Filter returns matches best first. An empty query matches nothing.
func (idx *FilterIndex) Filter(query string) []FilterResult {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || idx.Len() == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(query, idx)
	results := make([]FilterResult, len(matches))
	for i, m := range matches {
		results[i] = FilterResult{
			Media:          idx.items[m.Index],
			Index:          m.Index,
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}

// FilterMedia is a one-shot Filter over items
func FilterMedia(items []domain.Media, query string) []FilterResult {
	return NewFilterIndex(items).Filter(query)
}
