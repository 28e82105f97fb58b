package domain

import "context"

// Fetcher performs a single network GET and returns the raw body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ResponseCache maps an exact request URL to a previously fetched body.
// Entries live until Clear is called.
type ResponseCache interface {
	Get(ctx context.Context, url string) ([]byte, bool)
	Set(ctx context.Context, url string, body []byte) error
	Clear(ctx context.Context) error
	Len(ctx context.Context) int
}

// WatchlistStorage persists the whole watchlist as one unit.
type WatchlistStorage interface {
	// LoadWatchlist returns the persisted entries. A missing blob is (nil, nil).
	LoadWatchlist() ([]WatchlistEntry, error)
	SaveWatchlist(entries []WatchlistEntry) error
}

// GenreStore caches genre tables between runs.
type GenreStore interface {
	GetGenres(kind MediaKind) ([]Genre, bool)
	SaveGenres(kind MediaKind, genres []Genre) error
}

// NoticeLevel classifies a user-visible notice
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a short status message for the user
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Notifier receives user-visible notices. Implementations must not block.
type Notifier interface {
	Notify(n Notice)
}
