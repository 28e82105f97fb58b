package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/cineverse/internal/domain"
	"github.com/mmcdole/cineverse/internal/service"
	"github.com/mmcdole/cineverse/internal/tmdb"
)

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle state-specific keys
	switch m.State {
	case StateHelp:
		m.State = StateBrowsing
		return m, nil

	case StateConfirmClear:
		switch {
		case key.Matches(msg, Keys.Confirm):
			m.State = StateBrowsing
			m.Watchlist.Clear()
			m.refreshWatchlist(m.Watchlist.List())
			return m, m.selectionChanged()
		case key.Matches(msg, Keys.Deny):
			m.State = StateBrowsing
		}
		return m, nil

	case StateSearchPrompt:
		prompt, cmd, submitted := m.Prompt.Update(msg)
		m.Prompt = prompt
		if submitted {
			query := m.Prompt.Value()
			m.Prompt.Hide()
			m.State = StateBrowsing
			if query == "" {
				return m, nil
			}
			return m, m.startSearch(query)
		}
		if !m.Prompt.IsVisible() {
			m.State = StateBrowsing
		}
		return m, cmd
	}

	// The filter input owns the keyboard while typing
	if m.List.IsFilterTyping() {
		var cmd tea.Cmd
		m.List, cmd = m.List.Update(msg)
		return m, tea.Batch(cmd, m.selectionChanged())
	}

	if m.Focus == PaneInspector {
		switch {
		case key.Matches(msg, Keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, Keys.Escape, Keys.FocusSwap):
			m.setFocus(PaneList)
			return m, nil
		}
		var cmd tea.Cmd
		m.Inspector, cmd = m.Inspector.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Escape):
		if m.List.IsFiltering() {
			m.List.ClearFilter()
			return m, m.selectionChanged()
		}
		if m.SearchQuery != "" {
			m.SearchQuery = ""
			m.Page = 1
			m.updateLayout()
			return m, m.reload()
		}
		return m, nil

	case key.Matches(msg, Keys.Search):
		m.State = StateSearchPrompt
		m.Prompt.Show("Search movies & TV", "title...", m.SearchQuery)
		m.Prompt.SetHint("enter to search · esc to cancel")
		return m, nil

	case key.Matches(msg, Keys.Filter):
		m.List.StartFilter()
		return m, nil

	case key.Matches(msg, Keys.Toggle):
		return m, m.toggleSelected()

	case key.Matches(msg, Keys.Sort):
		return m, m.cycleSort()

	case key.Matches(msg, Keys.Random):
		return m, m.randomPick()

	case key.Matches(msg, Keys.View):
		return m, m.cycleView()

	case key.Matches(msg, Keys.NextPage):
		if m.showingWatchlist() || m.Loading || m.Page >= m.TotalPages {
			return m, nil
		}
		m.Page++
		return m, m.reload()

	case key.Matches(msg, Keys.PrevPage):
		if m.showingWatchlist() || m.Loading || m.Page <= 1 {
			return m, nil
		}
		m.Page--
		return m, m.reload()

	case key.Matches(msg, Keys.TrendingWindow):
		return m, m.toggleTrendingWindow()

	case key.Matches(msg, Keys.Reload):
		return m, m.reload()

	case key.Matches(msg, Keys.ClearWatchlist):
		if m.Watchlist.Count() > 0 {
			m.State = StateConfirmClear
		}
		return m, nil

	case key.Matches(msg, Keys.NextTab):
		return m, m.activateTab(m.ActiveTab + 1)

	case key.Matches(msg, Keys.PrevTab):
		return m, m.activateTab(m.ActiveTab - 1)

	case key.Matches(msg, Keys.JumpToTab):
		if i := int(msg.String()[0] - '1'); i < len(m.Tabs) {
			return m, m.activateTab(i)
		}
		return m, nil

	case key.Matches(msg, Keys.FocusSwap):
		if _, ok := m.List.Selected(); ok {
			m.setFocus(PaneInspector)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.List, cmd = m.List.Update(msg)
	return m, tea.Batch(cmd, m.selectionChanged())
}

// toggleSelected adds or removes the selected title from the watchlist
func (m *Model) toggleSelected() tea.Cmd {
	sel, ok := m.List.Selected()
	if !ok {
		return nil
	}
	saved := m.Watchlist.Toggle(sel)
	m.Inspector.SetSaved(saved)
	m.refreshWatchlist(m.Watchlist.List())
	return m.selectionChanged()
}

// cycleSort steps the watchlist to the next sort order
func (m *Model) cycleSort() tea.Cmd {
	if !m.showingWatchlist() {
		return m.setStatus("Sorting applies to the watchlist", domain.NoticeInfo)
	}
	m.sortIdx = (m.sortIdx + 1) % len(watchlistSorts)
	opt := watchlistSorts[m.sortIdx]
	if err := m.Watchlist.SortBy(opt.Field, opt.Order); err != nil {
		return m.setStatus(err.Error(), domain.NoticeError)
	}
	m.refreshWatchlist(m.Watchlist.List())
	m.List.SetSelectedIndex(0)
	return tea.Batch(m.selectionChanged(), m.setStatus("Sorted by "+opt.Label, domain.NoticeInfo))
}

// cycleView steps the watchlist tab to the next preset view
func (m *Model) cycleView() tea.Cmd {
	if !m.showingWatchlist() {
		return m.setStatus("Views apply to the watchlist", domain.NoticeInfo)
	}
	m.viewIdx = (m.viewIdx + 1) % len(watchlistViews)
	m.refreshWatchlist(m.Watchlist.List())
	m.List.SetSelectedIndex(0)
	return tea.Batch(m.selectionChanged(), m.setStatus("Showing "+watchlistViews[m.viewIdx].Label, domain.NoticeInfo))
}

// randomPick jumps to a random watchlist entry
func (m *Model) randomPick() tea.Cmd {
	e, ok := m.Watchlist.Random()
	if !ok {
		return m.setStatus("Your watchlist is empty", domain.NoticeInfo)
	}

	// The pick may be hidden by the current view
	m.viewIdx = 0
	var cmds []tea.Cmd
	if m.showingWatchlist() {
		m.refreshWatchlist(m.Watchlist.List())
	} else {
		cmds = append(cmds, m.activateTab(len(m.Tabs)-1))
	}
	m.List.SelectByID(e.Key())
	cmds = append(cmds,
		m.selectionChanged(),
		m.setStatus("Random pick: "+e.Title, domain.NoticeSuccess),
	)
	return tea.Batch(cmds...)
}

// toggleTrendingWindow flips trending between day and week
func (m *Model) toggleTrendingWindow() tea.Cmd {
	next := tmdb.WindowWeek
	if m.Browser.TrendingWindow() == tmdb.WindowWeek {
		next = tmdb.WindowDay
	}
	m.Browser.SetTrendingWindow(string(next))
	status := m.setStatus("Trending: this "+string(next), domain.NoticeInfo)

	if m.SearchQuery == "" && m.activeTab().Category == service.CategoryTrending {
		m.Page = 1
		return tea.Batch(status, m.reload())
	}
	return status
}
