package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Navigation
	NextTab   key.Binding
	PrevTab   key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	FocusSwap key.Binding
	JumpToTab key.Binding

	// Actions
	Quit           key.Binding
	Help           key.Binding
	Escape         key.Binding
	Search         key.Binding
	Filter         key.Binding
	Toggle         key.Binding
	Sort           key.Binding
	Random         key.Binding
	View           key.Binding
	TrendingWindow key.Binding
	Reload         key.Binding
	ClearWatchlist key.Binding

	// Confirmations
	Confirm key.Binding
	Deny    key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Navigation
		NextTab: key.NewBinding(
			key.WithKeys("tab", "l", "right"),
			key.WithHelp("tab/l", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab", "h", "left"),
			key.WithHelp("S-tab/h", "previous tab"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "previous page"),
		),
		FocusSwap: key.NewBinding(
			key.WithKeys("i", "enter"),
			key.WithHelp("i/enter", "focus details"),
		),
		JumpToTab: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "jump to tab"),
		),

		// Actions
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel/clear"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter list"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add/remove watchlist"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort watchlist"),
		),
		Random: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "random pick"),
		),
		View: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "watchlist view"),
		),
		TrendingWindow: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "trending day/week"),
		),
		Reload: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reload"),
		),
		ClearWatchlist: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "clear watchlist"),
		),

		// Confirmations
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n/esc", "cancel"),
		),
	}
}

// Keys is the global key bindings instance
var Keys = DefaultKeyMap()
