package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/cineverse/internal/domain"
	"github.com/mmcdole/cineverse/internal/tmdb"
	"github.com/mmcdole/cineverse/internal/tui/styles"
)

const (
	maxCast            = 8
	maxRecommendations = 6
)

// Inspector displays the selected title, its details once loaded, or free text
type Inspector struct {
	viewport viewport.Model
	title    string

	media   *domain.Media
	details *domain.Details
	saved   bool
	loading bool
	err     error
	text    string

	width   int
	height  int
	focused bool
}

// NewInspector creates an empty inspector
func NewInspector() Inspector {
	return Inspector{
		viewport: viewport.New(0, 0),
		title:    "Info",
	}
}

// SetMedia shows a list result while its details load
func (i *Inspector) SetMedia(m domain.Media, saved bool) {
	sameItem := i.media != nil && i.media.Key() == m.Key()
	i.media = &m
	i.saved = saved
	i.text = ""
	i.err = nil
	if !sameItem {
		i.details = nil
		i.loading = true
		i.viewport.GotoTop()
	}
	i.refresh()
}

// SetDetails attaches loaded details when they belong to the shown title
func (i *Inspector) SetDetails(d *domain.Details) {
	if d == nil || i.media == nil || d.Key() != i.media.Key() {
		return
	}
	i.details = d
	i.loading = false
	i.err = nil
	i.refresh()
}

// SetError records a detail load failure for the shown title
func (i *Inspector) SetError(key string, err error) {
	if i.media == nil || i.media.Key() != key {
		return
	}
	i.err = err
	i.loading = false
	i.refresh()
}

// SetSaved updates the watchlist marker
func (i *Inspector) SetSaved(saved bool) {
	i.saved = saved
	i.refresh()
}

// SetText replaces the contents with pre-rendered text
func (i *Inspector) SetText(title, text string) {
	i.media = nil
	i.details = nil
	i.loading = false
	i.err = nil
	i.title = title
	i.text = text
	i.viewport.GotoTop()
	i.refresh()
}

// Clear empties the inspector
func (i *Inspector) Clear() {
	i.SetText("Info", "")
}

// Details returns the loaded details, if any
func (i Inspector) Details() *domain.Details {
	return i.details
}

// Media returns the shown title, if any
func (i Inspector) Media() (domain.Media, bool) {
	if i.media == nil {
		return domain.Media{}, false
	}
	return *i.media, true
}

// NeedsDetails reports whether the shown title is still waiting for details
func (i Inspector) NeedsDetails() bool {
	return i.media != nil && i.details == nil && i.err == nil
}

// SetSize updates the outer dimensions
func (i *Inspector) SetSize(width, height int) {
	i.width = width
	i.height = height
	// Border plus the title line and a blank line
	i.viewport.Width = max(width-BorderWidth-1, 10)
	i.viewport.Height = max(height-BorderHeight-2, 1)
	i.refresh()
}

func (i *Inspector) SetFocused(focused bool) { i.focused = focused }

// Update scrolls the viewport when focused
func (i Inspector) Update(msg tea.Msg) (Inspector, tea.Cmd) {
	if !i.focused {
		return i, nil
	}
	var cmd tea.Cmd
	i.viewport, cmd = i.viewport.Update(msg)
	return i, cmd
}

// View renders the inspector inside a border
func (i Inspector) View() string {
	style := styles.InactiveBorder
	if i.focused {
		style = styles.ActiveBorder
	}

	titleLine := styles.AccentStyle.Render(styles.Truncate(i.title, i.viewport.Width))
	if pct := i.viewport.ScrollPercent(); i.viewport.TotalLineCount() > i.viewport.Height {
		titleLine += styles.DimStyle.Render(fmt.Sprintf("  %3.0f%%", pct*100))
	}

	frameW, frameH := style.GetFrameSize()
	return style.
		Width(i.width - frameW).
		Height(i.height - frameH).
		Render(titleLine + "\n\n" + i.viewport.View())
}

func (i *Inspector) refresh() {
	width := i.viewport.Width
	if width < 10 {
		width = 10
	}
	switch {
	case i.media != nil:
		i.title = "Info"
		i.viewport.SetContent(i.renderMedia(width))
	case i.text != "":
		i.viewport.SetContent(i.text)
	default:
		i.viewport.SetContent(styles.DimStyle.Render("No item selected"))
	}
}

func (i Inspector) renderMedia(width int) string {
	m := *i.media
	if i.details != nil {
		m = i.details.Media
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(wordWrap(m.Title, width)))
	b.WriteString("\n")
	if m.OriginalTitle != "" && m.OriginalTitle != m.Title {
		b.WriteString(styles.SubtitleStyle.Render(styles.Truncate(m.OriginalTitle, width)))
		b.WriteString("\n")
	}

	// Meta line: Kind · Date · Runtime
	meta := []string{m.Kind.String()}
	if m.ReleaseDate != "" {
		meta = append(meta, tmdb.FormatDate(m.ReleaseDate))
	}
	if d := i.details; d != nil {
		switch {
		case d.Runtime > 0:
			meta = append(meta, tmdb.FormatRuntime(d.Runtime))
		case d.EpisodeRuntime > 0:
			meta = append(meta, tmdb.FormatRuntime(d.EpisodeRuntime)+"/ep")
		}
		if d.NumberOfSeasons > 0 {
			meta = append(meta, fmt.Sprintf("%d seasons, %d episodes", d.NumberOfSeasons, d.NumberOfEpisodes))
		}
	}
	b.WriteString(styles.DimStyle.Render(strings.Join(meta, " · ")))
	b.WriteString("\n")

	b.WriteString(renderRating(m.VoteAverage, m.VoteCount))
	if i.saved {
		b.WriteString("   " + styles.SuccessStyle.Render("★ On watchlist"))
	}
	if tmdb.IsAnime(m) {
		b.WriteString("   " + styles.InfoStyle.Render("Anime"))
	}
	b.WriteString("\n")

	if genres := i.genreNames(m); len(genres) > 0 {
		b.WriteString(styles.DimStyle.Render(wordWrap(strings.Join(genres, ", "), width)))
		b.WriteString("\n")
	}

	if i.details != nil && i.details.Tagline != "" {
		b.WriteString("\n")
		b.WriteString(styles.AccentStyle.Italic(true).Render(wordWrap(i.details.Tagline, width)))
		b.WriteString("\n")
	}

	if m.Overview != "" {
		b.WriteString("\n")
		b.WriteString(styles.SubtitleStyle.Render(wordWrap(m.Overview, min(width, 80))))
		b.WriteString("\n")
	}

	switch {
	case i.err != nil:
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render(wordWrap("Could not load details: "+i.err.Error(), width)))
		b.WriteString("\n")
	case i.loading && i.details == nil:
		b.WriteString("\n")
		b.WriteString(styles.DimStyle.Render("Loading details..."))
		b.WriteString("\n")
	case i.details != nil:
		b.WriteString(renderDetails(i.details, width))
	}

	return strings.TrimRight(b.String(), "\n")
}

func (i Inspector) genreNames(m domain.Media) []string {
	if i.details != nil && len(i.details.Genres) > 0 {
		return i.details.GenreNames()
	}
	names := make([]string, 0, len(m.GenreIDs))
	for _, id := range m.GenreIDs {
		if name, ok := tmdb.GenreName(id); ok {
			names = append(names, name)
		}
	}
	return names
}

func renderRating(avg float64, votes int) string {
	if avg <= 0 {
		return styles.DimStyle.Render("★ N/A")
	}
	var style lipgloss.Style
	switch {
	case avg >= 7:
		style = lipgloss.NewStyle().Foreground(styles.Green)
	case avg >= 5:
		style = lipgloss.NewStyle().Foreground(styles.Gold)
	default:
		style = lipgloss.NewStyle().Foreground(styles.Red)
	}
	out := style.Render("★ "+tmdb.FormatRating(avg)) + " " + styles.RenderRatingBar(avg)
	if votes > 0 {
		out += styles.DimStyle.Render(fmt.Sprintf(" (%d votes)", votes))
	}
	return out
}

func renderDetails(d *domain.Details, width int) string {
	var b strings.Builder
	section := func(name string) {
		b.WriteString("\n")
		b.WriteString(styles.DimStyle.Render(strings.Repeat("─", width)))
		b.WriteString("\n")
		b.WriteString(styles.AccentStyle.Render(name))
		b.WriteString("\n")
	}

	if directors := d.Directors(); len(directors) > 0 {
		section("Directed by")
		b.WriteString(wordWrap(strings.Join(directors, ", "), width))
		b.WriteString("\n")
	}

	if d.Status != "" {
		section("Status")
		b.WriteString(d.Status)
		b.WriteString("\n")
	}

	if trailer := tmdb.TrailerURL(d.Videos); trailer != "" {
		section("Trailer")
		b.WriteString(styles.InfoStyle.Render(trailer))
		b.WriteString("\n")
	}

	if len(d.Cast) > 0 {
		section("Cast")
		for j, c := range d.Cast {
			if j == maxCast {
				b.WriteString(styles.DimStyle.Render(fmt.Sprintf("+%d more", len(d.Cast)-maxCast)))
				b.WriteString("\n")
				break
			}
			line := c.Name
			if c.Character != "" {
				line += " as " + c.Character
			}
			b.WriteString(styles.Truncate(line, width))
			b.WriteString("\n")
		}
	}

	if len(d.Recommendations) > 0 {
		section("Recommended")
		for j, r := range d.Recommendations {
			if j == maxRecommendations {
				break
			}
			year := ""
			if y := r.Year(); y > 0 {
				year = fmt.Sprintf(" (%d)", y)
			}
			b.WriteString(styles.Truncate(r.Title+year, width))
			b.WriteString(styles.DimStyle.Render(" ★ " + tmdb.FormatRating(r.VoteAverage)))
			b.WriteString("\n")
		}
	}

	if d.PosterPath != "" {
		b.WriteString("\n")
		b.WriteString(styles.DimStyle.Render("Poster: " + tmdb.PosterURL(d.PosterPath, tmdb.PosterSize)))
		b.WriteString("\n")
	}
	return b.String()
}

// wordWrap wraps text to the specified width
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	lineLen := 0

	for i, word := range strings.Fields(text) {
		wordLen := lipgloss.Width(word)

		if lineLen+wordLen+1 > width && lineLen > 0 {
			result.WriteString("\n")
			lineLen = 0
		}

		if i > 0 && lineLen > 0 {
			result.WriteString(" ")
			lineLen++
		}

		result.WriteString(word)
		lineLen += wordLen
	}

	return result.String()
}
