package tmdb

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/cineverse/internal/domain"
)

const (
	// DefaultImageBaseURL serves every image size
	DefaultImageBaseURL = "https://image.tmdb.org/t/p"

	PosterSize   = "w500"
	BackdropSize = "w1280"

	NoPoster   = "assets/images/no-poster.jpg"
	NoBackdrop = "assets/images/no-backdrop.jpg"
)

// ImageBaseURL prefixes poster and backdrop paths. Set once at startup.
var ImageBaseURL = DefaultImageBaseURL

// PosterURL returns the full poster URL, or a placeholder when path is empty
func PosterURL(path, size string) string {
	if path == "" {
		return NoPoster
	}
	if size == "" {
		size = PosterSize
	}
	return strings.TrimRight(ImageBaseURL, "/") + "/" + size + path
}

// BackdropURL returns the full backdrop URL, or a placeholder when path is empty
func BackdropURL(path, size string) string {
	if path == "" {
		return NoBackdrop
	}
	if size == "" {
		size = BackdropSize
	}
	return strings.TrimRight(ImageBaseURL, "/") + "/" + size + path
}

// TrailerURL returns the first YouTube trailer, or "" when there is none
func TrailerURL(videos []domain.Video) string {
	for _, v := range videos {
		if v.Type == "Trailer" && v.Site == "YouTube" {
			return "https://www.youtube.com/watch?v=" + v.Key
		}
	}
	return ""
}

// FormatRuntime renders minutes as "2h 28m" or "45m"
func FormatRuntime(minutes int) string {
	if minutes <= 0 {
		return "Unknown"
	}
	h, m := minutes/60, minutes%60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// FormatDate renders an API date as "July 16, 2010"
func FormatDate(s string) string {
	t, ok := domain.ParseDate(s)
	if !ok {
		return "Unknown"
	}
	return t.Format("January 2, 2006")
}

// FormatRating renders a vote average with one decimal, or "N/A" when unrated
func FormatRating(v float64) string {
	if v == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", v)
}

// IsAnime reports animation from Japan, by origin country or language
func IsAnime(m domain.Media) bool {
	if !m.HasGenre(domain.AnimationGenreID) {
		return false
	}
	if m.OriginalLanguage == "ja" {
		return true
	}
	for _, c := range m.OriginCountry {
		if c == "JP" {
			return true
		}
	}
	return false
}

// GenreMap maps lower-case genre names to ids across movie and tv tables
var GenreMap = map[string]int{
	"action":           28,
	"adventure":        12,
	"animation":        16,
	"comedy":           35,
	"crime":            80,
	"documentary":      99,
	"drama":            18,
	"family":           10751,
	"fantasy":          14,
	"history":          36,
	"horror":           27,
	"music":            10402,
	"mystery":          9648,
	"romance":          10749,
	"sci-fi":           878,
	"thriller":         53,
	"war":              10752,
	"western":          37,
	"action-adventure": 10759,
	"soap":             10766,
	"talk":             10767,
	"war-politics":     10768,
	"reality":          10770,
	"news":             10763,
	"kids":             10762,
}

// LookupGenre resolves a genre name case-insensitively
func LookupGenre(name string) (int, bool) {
	id, ok := GenreMap[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// GenreName returns the display name of a genre id from GenreMap,
// e.g. "Sci-Fi" for 878
func GenreName(id int) (string, bool) {
	for name, gid := range GenreMap {
		if gid == id {
			return displayGenre(name), true
		}
	}
	return "", false
}

func displayGenre(key string) string {
	parts := strings.Split(key, "-")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "-")
}

// SortOptions maps user-facing sort names to discover sort_by values
var SortOptions = map[string]string{
	"popularity":   "popularity.desc",
	"rating":       "vote_average.desc",
	"release_date": "release_date.desc",
	"title":        "title.asc",
	"revenue":      "revenue.desc",
}

// SortNames lists SortOptions keys in display order
var SortNames = []string{"popularity", "rating", "release_date", "title", "revenue"}

// WithFallback runs call. On failure the error is logged, and the fallback is
// returned when one is supplied.
func WithFallback[T any](ctx context.Context, logger *slog.Logger, call func(context.Context) (T, error), fallback *T) (T, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	v, err := call(ctx)
	if err == nil {
		return v, nil
	}
	logger.Error("api call failed", "error", err, "elapsed", time.Since(start))
	if fallback != nil {
		return *fallback, nil
	}
	return v, err
}
