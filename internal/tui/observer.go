package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/cineverse/internal/domain"
)

// ChannelNotifier adapts domain.Notifier to a channel for Bubble Tea.
type ChannelNotifier struct {
	ch chan<- domain.Notice
}

// NewChannelNotifier creates a new channel-based notifier.
func NewChannelNotifier(ch chan<- domain.Notice) *ChannelNotifier {
	return &ChannelNotifier{ch: ch}
}

// Notify sends the notice to the channel (non-blocking if full).
func (n *ChannelNotifier) Notify(notice domain.Notice) {
	select {
	case n.ch <- notice:
	default:
	}
}

// WatchlistObserver returns a watchlist observer that forwards snapshots to
// ch. A full channel drops the snapshot; a later one supersedes it.
func WatchlistObserver(ch chan<- []domain.WatchlistEntry) func([]domain.WatchlistEntry) {
	return func(entries []domain.WatchlistEntry) {
		select {
		case ch <- entries:
		default:
		}
	}
}

// listenNoticesCmd waits for the next notice
func listenNoticesCmd(ch <-chan domain.Notice) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return NoticeMsg{Notice: n}
	}
}

// listenWatchlistCmd waits for the next watchlist snapshot
func listenWatchlistCmd(ch <-chan []domain.WatchlistEntry) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		entries, ok := <-ch
		if !ok {
			return nil
		}
		return WatchlistChangedMsg{Entries: entries}
	}
}
