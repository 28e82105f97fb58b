package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// MediaKind distinguishes movies from episodic series
type MediaKind string

const (
	KindMovie   MediaKind = "movie"
	KindTV      MediaKind = "tv"
	KindUnknown MediaKind = "unknown"
)

// ParseKind maps an API media_type value to a MediaKind.
// Anything other than "movie" or "tv" (including "person") is KindUnknown.
func ParseKind(s string) MediaKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie":
		return KindMovie
	case "tv":
		return KindTV
	default:
		return KindUnknown
	}
}

// String returns a human-readable label for the kind
func (k MediaKind) String() string {
	switch k {
	case KindMovie:
		return "Movie"
	case KindTV:
		return "TV"
	default:
		return "Unknown"
	}
}

// KindHints carries the raw fields used to infer a kind when the API
// result has no explicit media_type.
type KindHints struct {
	MediaType    string
	Title        string
	ReleaseDate  string
	Name         string
	FirstAirDate string
}

// InferKind assigns the kind of a raw result once, at ingestion.
func InferKind(h KindHints) MediaKind {
	if h.MediaType != "" {
		return ParseKind(h.MediaType)
	}
	if h.Title != "" || h.ReleaseDate != "" {
		return KindMovie
	}
	if h.Name != "" || h.FirstAirDate != "" {
		return KindTV
	}
	return KindUnknown
}

// AnimationGenreID is TMDB's genre id for Animation (shared by movie and tv lists)
const AnimationGenreID = 16

// Media is a normalized list result from the metadata API
type Media struct {
	ID               int64     // TMDB identifier
	Kind             MediaKind // Assigned at ingestion
	Title            string    // title (movie) or name (tv)
	OriginalTitle    string
	Overview         string
	PosterPath       string // Relative image path, empty if none
	BackdropPath     string
	ReleaseDate      string // release_date (movie) or first_air_date (tv)
	VoteAverage      float64
	VoteCount        int
	GenreIDs         []int
	OriginalLanguage string
	OriginCountry    []string
	Popularity       float64
}

// Key returns a stable identifier combining kind and ID.
// Movie and TV ids live in separate TMDB namespaces.
func (m Media) Key() string {
	return string(m.Kind) + ":" + strconv.FormatInt(m.ID, 10)
}

// Year returns the release year, or 0 when the date is missing
func (m Media) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	y, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return y
}

// HasGenre reports whether the genre id is present
func (m Media) HasGenre(id int) bool {
	for _, g := range m.GenreIDs {
		if g == id {
			return true
		}
	}
	return false
}

// Genre is a TMDB genre
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Page is one page of a paginated list endpoint
type Page struct {
	Number       int
	TotalPages   int
	TotalResults int
	Results      []Media
}

// HasNext reports whether another page is available
func (p *Page) HasNext() bool {
	return p != nil && p.Number < p.TotalPages
}

// Video is a trailer/teaser/clip attached to a title
type Video struct {
	Key  string
	Name string
	Site string // "YouTube", "Vimeo"
	Type string // "Trailer", "Teaser", ...
}

// CastMember is a credited performer
type CastMember struct {
	Name      string
	Character string
	Order     int
}

// CrewMember is a credited crew role
type CrewMember struct {
	Name       string
	Job        string
	Department string
}

// Details is the full record returned by a detail-by-id endpoint
type Details struct {
	Media

	Tagline          string
	Status           string
	Runtime          int // Minutes; movies only
	EpisodeRuntime   int // Minutes; first listed episode runtime for tv
	NumberOfSeasons  int
	NumberOfEpisodes int
	Genres           []Genre

	Videos          []Video
	Cast            []CastMember
	Crew            []CrewMember
	Recommendations []Media
}

// Directors returns crew names credited as Director
func (d *Details) Directors() []string {
	var names []string
	for _, c := range d.Crew {
		if c.Job == "Director" {
			names = append(names, c.Name)
		}
	}
	return names
}

// GenreNames returns the detail genres as names
func (d *Details) GenreNames() []string {
	names := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		names = append(names, g.Name)
	}
	return names
}

// WatchlistEntry is a normalized, persisted watchlist record.
// JSON names match the persisted blob and the export file.
type WatchlistEntry struct {
	ID               int64     `json:"id"`
	TMDBID           int64     `json:"tmdb_id"`
	Title            string    `json:"title"`
	PosterPath       *string   `json:"poster_path"`
	BackdropPath     *string   `json:"backdrop_path"`
	Overview         string    `json:"overview"`
	ReleaseDate      string    `json:"release_date"`
	VoteAverage      float64   `json:"vote_average"`
	GenreIDs         []int     `json:"genre_ids"`
	MediaType        MediaKind `json:"media_type"`
	AddedDate        string    `json:"added_date"`
	OriginalLanguage string    `json:"original_language"`
	Popularity       float64   `json:"popularity"`
}

// ISOTimestamp is the layout used for added_date and exported_at
const ISOTimestamp = "2006-01-02T15:04:05.000Z07:00"

// NewWatchlistEntry normalizes a media result into a watchlist entry.
// Every field has a deterministic default when absent from the source.
func NewWatchlistEntry(m Media, addedAt time.Time) WatchlistEntry {
	title := m.Title
	if title == "" {
		title = "Unknown Title"
	}
	lang := m.OriginalLanguage
	if lang == "" {
		lang = "en"
	}
	kind := m.Kind
	if kind == "" {
		kind = KindUnknown
	}
	genres := make([]int, len(m.GenreIDs))
	copy(genres, m.GenreIDs)

	return WatchlistEntry{
		ID:               m.ID,
		TMDBID:           m.ID,
		Title:            title,
		PosterPath:       optional(m.PosterPath),
		BackdropPath:     optional(m.BackdropPath),
		Overview:         m.Overview,
		ReleaseDate:      m.ReleaseDate,
		VoteAverage:      m.VoteAverage,
		GenreIDs:         genres,
		MediaType:        kind,
		AddedDate:        addedAt.UTC().Format(ISOTimestamp),
		OriginalLanguage: lang,
		Popularity:       m.Popularity,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Key returns the identifier used for dedupe: id, falling back to tmdb_id
func (e WatchlistEntry) Key() int64 {
	if e.ID != 0 {
		return e.ID
	}
	return e.TMDBID
}

// Clone returns a copy that shares no memory with e
func (e WatchlistEntry) Clone() WatchlistEntry {
	e.GenreIDs = slices.Clone(e.GenreIDs)
	if e.PosterPath != nil {
		p := *e.PosterPath
		e.PosterPath = &p
	}
	if e.BackdropPath != nil {
		p := *e.BackdropPath
		e.BackdropPath = &p
	}
	return e
}

// Matches reports whether either identifier field equals id
func (e WatchlistEntry) Matches(id int64) bool {
	return e.ID == id || e.TMDBID == id
}

// AddedAt parses added_date. ok is false for a missing or malformed value.
func (e WatchlistEntry) AddedAt() (time.Time, bool) {
	return ParseDate(e.AddedDate)
}

// IsAnime reports a tv entry with the animation genre and Japanese origin language
func (e WatchlistEntry) IsAnime() bool {
	if e.MediaType != KindTV || e.OriginalLanguage != "ja" {
		return false
	}
	for _, g := range e.GenreIDs {
		if g == AnimationGenreID {
			return true
		}
	}
	return false
}

// Media converts the entry back into a list result for display
func (e WatchlistEntry) Media() Media {
	m := Media{
		ID:               e.Key(),
		Kind:             e.MediaType,
		Title:            e.Title,
		Overview:         e.Overview,
		ReleaseDate:      e.ReleaseDate,
		VoteAverage:      e.VoteAverage,
		GenreIDs:         slices.Clone(e.GenreIDs),
		OriginalLanguage: e.OriginalLanguage,
		Popularity:       e.Popularity,
	}
	if e.PosterPath != nil {
		m.PosterPath = *e.PosterPath
	}
	if e.BackdropPath != nil {
		m.BackdropPath = *e.BackdropPath
	}
	return m
}

// dateLayouts are tried in order by ParseDate
var dateLayouts = []string{
	time.RFC3339Nano,
	ISOTimestamp,
	"2006-01-02",
	"2006-01",
	"2006",
}

// ParseDate parses the date formats found in API results and watchlist entries
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Describe returns a short one-line summary such as "Movie · 2010 · ★ 8.4"
func (m Media) Describe() string {
	parts := []string{m.Kind.String()}
	if y := m.Year(); y > 0 {
		parts = append(parts, strconv.Itoa(y))
	}
	if m.VoteAverage > 0 {
		parts = append(parts, fmt.Sprintf("★ %.1f", m.VoteAverage))
	}
	return strings.Join(parts, " · ")
}
