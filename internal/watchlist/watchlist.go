// Package watchlist maintains the ordered, deduplicated, persisted list of
// titles the user wants to watch.
package watchlist

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/cineverse/internal/domain"
)

// Watchlist is safe for concurrent use. Every mutation is persisted as one
// unit and then broadcast to observers outside the lock.
type Watchlist struct {
	mu      sync.Mutex
	entries []domain.WatchlistEntry // newest first

	storage  domain.WatchlistStorage
	genres   map[string]int
	notifier domain.Notifier
	logger   *slog.Logger
	now      func() time.Time
	intn     func(n int) int

	obsMu     sync.Mutex
	observers []observer
	nextSubID SubscriptionID
}

// Option configures a Watchlist
type Option func(*Watchlist)

// WithClock overrides the time source used for added dates and statistics
func WithClock(now func() time.Time) Option {
	return func(w *Watchlist) { w.now = now }
}

// WithGenres supplies the genre name to id table used by Filter
func WithGenres(table map[string]int) Option {
	return func(w *Watchlist) {
		w.genres = make(map[string]int, len(table))
		for name, id := range table {
			w.genres[strings.ToLower(name)] = id
		}
	}
}

// WithNotifier publishes user-visible notices for mutations
func WithNotifier(n domain.Notifier) Option {
	return func(w *Watchlist) { w.notifier = n }
}

// WithLogger sets the logger. Nil means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(w *Watchlist) { w.logger = l }
}

// WithRand overrides the index picker used by Random
func WithRand(intn func(n int) int) Option {
	return func(w *Watchlist) { w.intn = intn }
}

// New loads the persisted collection from storage. A nil storage keeps the
// list in memory only. Load failures start an empty list and are logged.
func New(storage domain.WatchlistStorage, opts ...Option) *Watchlist {
	w := &Watchlist{
		storage: storage,
		genres:  map[string]int{},
		now:     time.Now,
		intn:    rand.IntN,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	w.entries = w.load()
	return w
}

func (w *Watchlist) load() []domain.WatchlistEntry {
	if w.storage == nil {
		return nil
	}
	stored, err := w.storage.LoadWatchlist()
	if err != nil {
		w.logger.Warn("error loading watchlist, starting empty", "error", err)
		return nil
	}

	// Drop records that would break id uniqueness
	seen := make(map[int64]bool, 2*len(stored))
	entries := make([]domain.WatchlistEntry, 0, len(stored))
	for _, e := range stored {
		key := e.Key()
		if key == 0 || seen[e.ID] || seen[e.TMDBID] {
			w.logger.Warn("dropping invalid watchlist entry", "id", key, "title", e.Title)
			continue
		}
		seen[e.ID] = true
		seen[e.TMDBID] = true
		delete(seen, 0)
		entries = append(entries, e.Clone())
	}
	w.logger.Debug("loaded watchlist", "count", len(entries))
	return entries
}

// persist writes the collection. Caller holds w.mu. Failures are logged only.
func (w *Watchlist) persist() {
	if w.storage == nil {
		return
	}
	if err := w.storage.SaveWatchlist(cloneEntries(w.entries)); err != nil {
		w.logger.Error("error saving watchlist", "error", err)
	}
}

// commit persists under the lock held by the caller, then releases it and
// notifies observers with a snapshot.
func (w *Watchlist) commit() {
	w.persist()
	snapshot := w.snapshotLocked()
	w.mu.Unlock()
	w.notifyObservers(snapshot)
}

func (w *Watchlist) snapshotLocked() []domain.WatchlistEntry {
	return cloneEntries(w.entries)
}

// cloneEntries deep-copies so callers cannot write through to stored entries
func cloneEntries(entries []domain.WatchlistEntry) []domain.WatchlistEntry {
	out := make([]domain.WatchlistEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}

func (w *Watchlist) notice(level domain.NoticeLevel, format string, args ...any) {
	if w.notifier == nil {
		return
	}
	w.notifier.Notify(domain.Notice{Level: level, Message: fmt.Sprintf(format, args...)})
}

// Add normalizes m and inserts it at the front. It returns false when m has
// no id or the id is already present.
func (w *Watchlist) Add(m domain.Media) bool {
	if m.ID == 0 {
		w.logger.Warn("invalid item: missing ID", "title", m.Title)
		return false
	}

	w.mu.Lock()
	if w.containsLocked(m.ID) {
		w.mu.Unlock()
		w.logger.Debug("item already in watchlist", "id", m.ID)
		return false
	}
	entry := domain.NewWatchlistEntry(m, w.now())
	w.entries = append([]domain.WatchlistEntry{entry}, w.entries...)
	w.commit()

	w.notice(domain.NoticeSuccess, "Added %q to watchlist", entry.Title)
	return true
}

// Remove deletes every entry whose id or tmdb_id equals id
func (w *Watchlist) Remove(id int64) bool {
	w.mu.Lock()
	kept := w.entries[:0:0]
	for _, e := range w.entries {
		if !e.Matches(id) {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(w.entries) {
		w.mu.Unlock()
		return false
	}
	w.entries = kept
	w.commit()

	w.notice(domain.NoticeSuccess, "Removed from watchlist")
	return true
}

// Toggle adds m when absent and removes it otherwise. It reports whether m
// is on the list afterwards.
func (w *Watchlist) Toggle(m domain.Media) bool {
	if w.Contains(m.ID) {
		w.Remove(m.ID)
		return false
	}
	return w.Add(m)
}

// Contains reports whether id matches any entry
func (w *Watchlist) Contains(id int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.containsLocked(id)
}

func (w *Watchlist) containsLocked(id int64) bool {
	for _, e := range w.entries {
		if e.Matches(id) {
			return true
		}
	}
	return false
}

// List returns a copy in stored order
func (w *Watchlist) List() []domain.WatchlistEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Count returns the number of entries
func (w *Watchlist) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

// Clear removes every entry
func (w *Watchlist) Clear() {
	w.mu.Lock()
	w.entries = nil
	w.commit()

	w.notice(domain.NoticeInfo, "Watchlist cleared")
}
