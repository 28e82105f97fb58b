package tui

import (
	"github.com/mmcdole/cineverse/internal/domain"
)

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// PageLoadedMsg carries one page of a category or search. Seq matches the
// request that produced it so stale responses can be dropped.
type PageLoadedMsg struct {
	Seq  int
	Page *domain.Page
	Err  error
}

// DetailsLoadedMsg carries the full record for a title
type DetailsLoadedMsg struct {
	Key     string
	Details *domain.Details
	Err     error
}

// PrefetchDoneMsg reports how many detail records were warmed
type PrefetchDoneMsg struct {
	Requested int
	Loaded    int
}

// WatchlistChangedMsg carries the watchlist after a mutation
type WatchlistChangedMsg struct {
	Entries []domain.WatchlistEntry
}

// NoticeMsg carries a user-visible notice from a service
type NoticeMsg struct {
	Notice domain.Notice
}

// TickMsg is a general tick message for animations
type TickMsg struct{}

// ClearStatusMsg clears the status bar message if it is still the one
// identified by Seq
type ClearStatusMsg struct {
	Seq int
}

// syncSelectionMsg asks the model to sync the inspector with the list
type syncSelectionMsg struct{}
