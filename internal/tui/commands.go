package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/cineverse/internal/domain"
	"github.com/mmcdole/cineverse/internal/service"
)

// Command factories for async operations

// prefetchCount bounds how many titles of a fresh page get warmed
const prefetchCount = 5

// LoadCategoryCmd loads one page of a category
func LoadCategoryCmd(b Browser, cat service.Category, page, seq int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		p, err := b.LoadCategory(ctx, cat, page)
		return PageLoadedMsg{Seq: seq, Page: p, Err: err}
	}
}

// SearchCmd runs a remote search
func SearchCmd(b Browser, query string, page, seq int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		p, err := b.Search(ctx, query, page)
		return PageLoadedMsg{Seq: seq, Page: p, Err: err}
	}
}

// LoadDetailsCmd loads the full record for a title
func LoadDetailsCmd(b Browser, m domain.Media) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		d, err := b.Details(ctx, m)
		return DetailsLoadedMsg{Key: m.Key(), Details: d, Err: err}
	}
}

// PrefetchCmd warms details for the first titles of a page
func PrefetchCmd(b Browser, items []domain.Media) tea.Cmd {
	var batch []domain.Media
	for _, m := range items {
		if m.Kind == domain.KindUnknown {
			continue
		}
		batch = append(batch, m)
		if len(batch) == prefetchCount {
			break
		}
	}
	if len(batch) == 0 {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		return PrefetchDoneMsg{Requested: len(batch), Loaded: b.Prefetch(ctx, batch)}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(seq int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}
