package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/cineverse/internal/domain"
	"github.com/mmcdole/cineverse/internal/tmdb"
	"github.com/mmcdole/cineverse/internal/tui/styles"
	"github.com/mmcdole/cineverse/internal/watchlist"
)

const appName = "cineverse"

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	switch m.State {
	case StateHelp:
		return m.renderHelp()
	case StateConfirmClear:
		return m.renderClearConfirmation()
	case StateSearchPrompt:
		return lipgloss.Place(m.Width, m.Height,
			lipgloss.Center, lipgloss.Center,
			m.Prompt.View())
	}

	rows := []string{m.renderTabs()}
	if m.showingWatchlist() {
		rows = append(rows, renderStatsLine(m.stats))
	}
	rows = append(rows,
		lipgloss.JoinHorizontal(lipgloss.Top, m.List.View(), m.Inspector.View()),
		m.renderFooter(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderTabs renders the tab bar, scrolled so the active tab stays visible
func (m Model) renderTabs() string {
	name := styles.AccentStyle.Bold(true).Render(appName) + " "
	budget := m.Width - lipgloss.Width(name)

	rendered := make([]string, len(m.Tabs))
	for i, t := range m.Tabs {
		title := t.Title
		if t.IsWatchlist() {
			title = fmt.Sprintf("%s (%d)", t.Title, m.stats.Total)
		}
		if i == m.ActiveTab && m.SearchQuery == "" {
			rendered[i] = styles.ActiveTabStyle.Render(title)
		} else {
			rendered[i] = styles.TabStyle.Render(title)
		}
	}

	// Drop tabs from the left until the active one fits
	start := 0
	for start < m.ActiveTab && lipgloss.Width(strings.Join(rendered[start:m.ActiveTab+1], "")) > budget {
		start++
	}
	line := strings.Join(rendered[start:], "")
	if start > 0 {
		line = styles.DimStyle.Render("‹") + line
	}
	return name + lipgloss.NewStyle().MaxWidth(budget).Render(line)
}

// renderFooter renders status on the left and key hints on the right
func (m Model) renderFooter() string {
	var left string
	switch {
	case m.Loading:
		left = styles.AccentStyle.Render(styles.SpinnerFrames[m.SpinnerFrame%len(styles.SpinnerFrames)]) +
			" " + styles.DimStyle.Render("Loading...")
	case m.StatusMsg != "":
		switch m.StatusLevel {
		case domain.NoticeError:
			left = styles.ErrorStyle.Render(m.StatusMsg)
		case domain.NoticeSuccess:
			left = styles.SuccessStyle.Render(m.StatusMsg)
		default:
			left = styles.DimStyle.Render(m.StatusMsg)
		}
	case m.TotalResults > 0 && !m.showingWatchlist():
		left = styles.DimStyle.Render(fmt.Sprintf("%d results", m.TotalResults))
	}

	hints := []key.Binding{Keys.Search, Keys.Filter, Keys.Toggle}
	if m.showingWatchlist() {
		hints = append(hints, Keys.Sort, Keys.View, Keys.Random)
	} else {
		hints = append(hints, Keys.NextPage, Keys.PrevPage)
	}
	hints = append(hints, Keys.Help)
	right := m.help.ShortHelpView(hints)

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	h := m.help
	h.ShowAll = true
	groups := [][]key.Binding{
		{Keys.NextTab, Keys.PrevTab, Keys.JumpToTab, Keys.NextPage, Keys.PrevPage, Keys.FocusSwap},
		{Keys.Search, Keys.Filter, Keys.Escape, Keys.Reload, Keys.TrendingWindow},
		{Keys.Toggle, Keys.Sort, Keys.View, Keys.Random, Keys.ClearWatchlist, Keys.Help, Keys.Quit},
	}
	body := styles.ModalTitleStyle.Render("Keys") + "\n" +
		h.FullHelpView(groups) + "\n\n" +
		styles.DimStyle.Render("j/k move · g/G top/bottom · C-u/C-d half page") + "\n\n" +
		styles.DimStyle.Render("Press any key to return...")

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(body))
}

// renderClearConfirmation renders the clear watchlist confirmation modal
func (m Model) renderClearConfirmation() string {
	modal := fmt.Sprintf(`
         Clear Watchlist?

  This removes all %d saved titles.

        [Y] Yes      [N] No
`, m.stats.Total)

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(modal))
}

// renderStatsLine summarizes the watchlist on one line
func renderStatsLine(s watchlist.Statistics) string {
	parts := []string{
		fmt.Sprintf("%d titles", s.Total),
		fmt.Sprintf("%d movies", s.Movies),
		fmt.Sprintf("%d TV", s.TV),
		fmt.Sprintf("%d anime", s.Anime),
		"avg ★ " + s.AverageRating,
		fmt.Sprintf("%d added this week", s.RecentlyAdded),
	}
	return " " + styles.DimStyle.Render(strings.Join(parts, " · "))
}

type count struct {
	label string
	n     int
}

// topCounts orders counts by size, then label
func topCounts(in []count, limit int) []count {
	sort.Slice(in, func(i, j int) bool {
		if in[i].n != in[j].n {
			return in[i].n > in[j].n
		}
		return in[i].label < in[j].label
	})
	if len(in) > limit {
		in = in[:limit]
	}
	return in
}

// renderStatistics renders the full watchlist statistics for the inspector
func renderStatistics(s watchlist.Statistics, width int) string {
	if s.Total == 0 {
		return styles.DimStyle.Render("Your watchlist is empty.\n\nPress a on any title to save it.")
	}

	var b strings.Builder
	row := func(label string, value any) {
		b.WriteString(styles.Pad(label, 18))
		b.WriteString(styles.TitleStyle.Render(fmt.Sprint(value)))
		b.WriteString("\n")
	}
	row("Total", s.Total)
	row("Movies", s.Movies)
	row("TV shows", s.TV)
	row("Anime", s.Anime)
	row("Average rating", s.AverageRating)
	row("Added this week", s.RecentlyAdded)

	barWidth := max(width-24, 5)
	bars := func(title string, counts []count) {
		if len(counts) == 0 {
			return
		}
		b.WriteString("\n")
		b.WriteString(styles.AccentStyle.Render(title))
		b.WriteString("\n")
		top := counts[0].n
		for _, c := range counts {
			n := max(c.n*barWidth/top, 1)
			b.WriteString(styles.Pad(styles.Truncate(c.label, 16), 17))
			b.WriteString(styles.AccentStyle.Render(strings.Repeat("▇", n)))
			b.WriteString(styles.DimStyle.Render(fmt.Sprintf(" %d", c.n)))
			b.WriteString("\n")
		}
	}

	genres := make([]count, 0, len(s.GenreBreakdown))
	for id, n := range s.GenreBreakdown {
		label, ok := tmdb.GenreName(id)
		if !ok {
			label = fmt.Sprintf("#%d", id)
		}
		genres = append(genres, count{label, n})
	}
	bars("Genres", topCounts(genres, 8))

	langs := make([]count, 0, len(s.LanguageBreakdown))
	for lang, n := range s.LanguageBreakdown {
		langs = append(langs, count{lang, n})
	}
	bars("Languages", topCounts(langs, 5))

	return strings.TrimRight(b.String(), "\n")
}
