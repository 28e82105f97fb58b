package watchlist

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mmcdole/cineverse/internal/domain"
)

// Sort fields accepted by SortBy
const (
	FieldAddedDate        = "added_date"
	FieldReleaseDate      = "release_date"
	FieldTitle            = "title"
	FieldOverview         = "overview"
	FieldMediaType        = "media_type"
	FieldOriginalLanguage = "original_language"
	FieldVoteAverage      = "vote_average"
	FieldPopularity       = "popularity"
	FieldID               = "id"
)

// Sort orders
const (
	Asc  = "asc"
	Desc = "desc"
)

// ErrUnknownSortField is returned by SortBy for a field it cannot compare
var ErrUnknownSortField = errors.New("unknown sort field")

// recentWindow bounds Statistics.RecentlyAdded
const recentWindow = 7 * 24 * time.Hour

// ByType returns the entries of one kind in stored order
func (w *Watchlist) ByType(kind domain.MediaKind) []domain.WatchlistEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []domain.WatchlistEntry
	for _, e := range w.entries {
		if e.MediaType == kind {
			out = append(out, e.Clone())
		}
	}
	return out
}

// SortBy reorders the stored list and persists it. Dates compare as parsed
// times, strings case-insensitively, numbers by value. Any order other than
// "asc" sorts descending. The sort is stable.
func (w *Watchlist) SortBy(field, order string) error {
	compare, err := comparator(field)
	if err != nil {
		return err
	}
	if order != Asc {
		asc := compare
		compare = func(a, b domain.WatchlistEntry) int { return asc(b, a) }
	}

	w.mu.Lock()
	slices.SortStableFunc(w.entries, compare)
	w.commit()
	return nil
}

func comparator(field string) (func(a, b domain.WatchlistEntry) int, error) {
	switch field {
	case FieldAddedDate:
		return byDate(func(e domain.WatchlistEntry) string { return e.AddedDate }), nil
	case FieldReleaseDate:
		return byDate(func(e domain.WatchlistEntry) string { return e.ReleaseDate }), nil
	case FieldTitle:
		return byFold(func(e domain.WatchlistEntry) string { return e.Title }), nil
	case FieldOverview:
		return byFold(func(e domain.WatchlistEntry) string { return e.Overview }), nil
	case FieldMediaType:
		return byFold(func(e domain.WatchlistEntry) string { return string(e.MediaType) }), nil
	case FieldOriginalLanguage:
		return byFold(func(e domain.WatchlistEntry) string { return e.OriginalLanguage }), nil
	case FieldVoteAverage:
		return func(a, b domain.WatchlistEntry) int { return cmp.Compare(a.VoteAverage, b.VoteAverage) }, nil
	case FieldPopularity:
		return func(a, b domain.WatchlistEntry) int { return cmp.Compare(a.Popularity, b.Popularity) }, nil
	case FieldID:
		return func(a, b domain.WatchlistEntry) int { return cmp.Compare(a.Key(), b.Key()) }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSortField, field)
	}
}

// byDate orders unparseable dates before every valid date
func byDate(get func(domain.WatchlistEntry) string) func(a, b domain.WatchlistEntry) int {
	return func(a, b domain.WatchlistEntry) int {
		ta, _ := domain.ParseDate(get(a))
		tb, _ := domain.ParseDate(get(b))
		return ta.Compare(tb)
	}
}

func byFold(get func(domain.WatchlistEntry) string) func(a, b domain.WatchlistEntry) int {
	return func(a, b domain.WatchlistEntry) int {
		return strings.Compare(strings.ToLower(get(a)), strings.ToLower(get(b)))
	}
}

// Criteria narrows Filter. Zero fields do not filter.
type Criteria struct {
	Kind      string  // "movie", "tv", "unknown"; "" or "all" for any
	Genre     string  // genre name; "" or "all" for any
	Query     string  // substring of title or overview
	MinRating float64 // inclusive lower bound on vote_average
}

// Filter returns the entries matching every criterion, in stored order.
// A genre name missing from the genre table does not filter.
func (w *Watchlist) Filter(c Criteria) []domain.WatchlistEntry {
	genreID, filterGenre := 0, false
	if c.Genre != "" && c.Genre != "all" {
		genreID, filterGenre = w.genres[strings.ToLower(c.Genre)]
	}
	query := strings.ToLower(c.Query)

	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]domain.WatchlistEntry, 0, len(w.entries))
	for _, e := range w.entries {
		if c.Kind != "" && c.Kind != "all" && string(e.MediaType) != c.Kind {
			continue
		}
		if filterGenre && !slices.Contains(e.GenreIDs, genreID) {
			continue
		}
		if query != "" && !matchesText(e, query) {
			continue
		}
		if c.MinRating > 0 && e.VoteAverage < c.MinRating {
			continue
		}
		out = append(out, e.Clone())
	}
	return out
}

// matchesText expects a lower-cased needle
func matchesText(e domain.WatchlistEntry, needle string) bool {
	return strings.Contains(strings.ToLower(e.Title), needle) ||
		strings.Contains(strings.ToLower(e.Overview), needle)
}

// Search matches query against title and overview. A blank query returns
// the whole list.
func (w *Watchlist) Search(query string) []domain.WatchlistEntry {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return w.List()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []domain.WatchlistEntry
	for _, e := range w.entries {
		if matchesText(e, needle) {
			out = append(out, e.Clone())
		}
	}
	return out
}

// Random picks one entry uniformly. ok is false when the list is empty.
func (w *Watchlist) Random() (domain.WatchlistEntry, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.entries) == 0 {
		return domain.WatchlistEntry{}, false
	}
	return w.entries[w.intn(len(w.entries))].Clone(), true
}

// Statistics summarizes the list
type Statistics struct {
	Total             int
	Movies            int
	TV                int
	Anime             int
	AverageRating     string // one decimal over rated entries, "0" when none
	RecentlyAdded     int    // added within the last 7 days
	GenreBreakdown    map[int]int
	LanguageBreakdown map[string]int
}

// Statistics aggregates counts relative to the watchlist clock
func (w *Watchlist) Statistics() Statistics {
	cutoff := w.now().Add(-recentWindow)

	w.mu.Lock()
	defer w.mu.Unlock()

	stats := Statistics{
		Total:             len(w.entries),
		AverageRating:     "0",
		GenreBreakdown:    map[int]int{},
		LanguageBreakdown: map[string]int{},
	}

	var totalRating float64
	var rated int
	for _, e := range w.entries {
		switch e.MediaType {
		case domain.KindMovie:
			stats.Movies++
		case domain.KindTV:
			stats.TV++
			if e.IsAnime() {
				stats.Anime++
			}
		}

		if e.VoteAverage > 0 {
			totalRating += e.VoteAverage
			rated++
		}

		if added, ok := e.AddedAt(); ok && added.After(cutoff) {
			stats.RecentlyAdded++
		}

		for _, g := range e.GenreIDs {
			stats.GenreBreakdown[g]++
		}

		lang := e.OriginalLanguage
		if lang == "" {
			lang = "unknown"
		}
		stats.LanguageBreakdown[lang]++
	}

	if rated > 0 {
		stats.AverageRating = fmt.Sprintf("%.1f", totalRating/float64(rated))
	}
	return stats
}
