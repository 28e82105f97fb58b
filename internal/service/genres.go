package service

import (
	"context"
	"sort"
	"strings"

	"github.com/mmcdole/cineverse/internal/domain"
	"github.com/mmcdole/cineverse/internal/tmdb"
)

// Genres returns the movie and tv genre tables merged, deduplicated by id and
// sorted by name. Each table comes from the genre store when cached, then
// from the API. If the API fails, the static genre table is used instead.
func (s *BrowseService) Genres(ctx context.Context) ([]domain.Genre, error) {
	fallback := staticGenres()
	merged, err := tmdb.WithFallback(ctx, s.logger, s.loadGenres, &fallback)
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// RefreshGenres drops cached genre tables so the next Genres call refetches
func (s *BrowseService) RefreshGenres() error {
	if c, ok := s.genres.(interface{ ClearGenres() error }); ok {
		return c.ClearGenres()
	}
	return nil
}

func (s *BrowseService) loadGenres(ctx context.Context) ([]domain.Genre, error) {
	var all []domain.Genre
	for _, kind := range []domain.MediaKind{domain.KindMovie, domain.KindTV} {
		g, err := s.genresFor(ctx, kind)
		if err != nil {
			return nil, err
		}
		all = append(all, g...)
	}
	return mergeGenres(all), nil
}

func (s *BrowseService) genresFor(ctx context.Context, kind domain.MediaKind) ([]domain.Genre, error) {
	if s.genres != nil {
		if g, ok := s.genres.GetGenres(kind); ok && len(g) > 0 {
			return g, nil
		}
	}
	g, err := s.catalog.Genres(ctx, kind)
	if err != nil {
		return nil, err
	}
	if s.genres != nil {
		if err := s.genres.SaveGenres(kind, g); err != nil {
			s.logger.Warn("failed to cache genres", "kind", kind, "error", err)
		}
	}
	return g, nil
}

func mergeGenres(in []domain.Genre) []domain.Genre {
	seen := make(map[int]bool, len(in))
	out := make([]domain.Genre, 0, len(in))
	for _, g := range in {
		if seen[g.ID] {
			continue
		}
		seen[g.ID] = true
		out = append(out, g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// staticGenres converts the built-in name table into genres
func staticGenres() []domain.Genre {
	out := make([]domain.Genre, 0, len(tmdb.GenreMap))
	for _, id := range tmdb.GenreMap {
		name, _ := tmdb.GenreName(id)
		out = append(out, domain.Genre{ID: id, Name: name})
	}
	return mergeGenres(out)
}
