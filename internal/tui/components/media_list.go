package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/cineverse/internal/domain"
	"github.com/mmcdole/cineverse/internal/search"
	"github.com/mmcdole/cineverse/internal/tmdb"
	"github.com/mmcdole/cineverse/internal/tui/styles"
)

// Layout constants for list panes
const (
	// Border adds 1 char on each side
	BorderWidth  = 2
	BorderHeight = 2

	// Scroll indicators ("↑ more" and "↓ more") each take 1 line
	ScrollIndicatorLines = 2
)

// MediaList is a scrollable, filterable list of titles
type MediaList struct {
	items []domain.Media
	index *search.FilterIndex
	saved func(id int64) bool

	// Selection
	cursor     int
	offset     int
	maxVisible int

	// Dimensions
	width   int
	height  int
	focused bool

	title  string
	status string // right side of the title line, e.g. "page 2/40"

	loading      bool
	spinnerFrame int

	// Filter state
	filterActive bool
	filterInput  textinput.Model
	filterQuery  string
	filtered     []search.FilterResult
}

// NewMediaList creates an empty list with a title
func NewMediaList(title string) *MediaList {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "f "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return &MediaList{
		title:       title,
		filterInput: ti,
		index:       search.NewFilterIndex(nil),
	}
}

// SetItems replaces the list contents. The cursor and any filter are reset.
func (c *MediaList) SetItems(items []domain.Media) {
	c.items = items
	c.index = search.NewFilterIndex(items)
	c.loading = false
	c.cursor = 0
	c.offset = 0
	if c.filterActive {
		c.applyFilter()
	}
}

// Items returns the unfiltered contents
func (c *MediaList) Items() []domain.Media {
	return c.items
}

// SetSavedFunc sets the predicate used to mark watchlisted titles
func (c *MediaList) SetSavedFunc(fn func(id int64) bool) {
	c.saved = fn
}

// Update handles navigation and filter input
func (c *MediaList) Update(msg tea.Msg) (*MediaList, tea.Cmd) {
	if !c.focused {
		return c, nil
	}

	// Filter input has the keyboard while typing
	if c.filterActive && c.filterInput.Focused() {
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "esc":
				c.clearFilter()
				return c, nil
			case "enter":
				c.filterInput.Blur()
				return c, nil
			case "backspace":
				if c.filterInput.Value() == "" {
					c.clearFilter()
					return c, nil
				}
			}
		}

		var cmd tea.Cmd
		c.filterInput, cmd = c.filterInput.Update(msg)
		c.applyFilter()
		return c, cmd
	}

	count := c.ItemCount()
	if count == 0 {
		return c, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "j", "down":
			if c.cursor < count-1 {
				c.cursor++
				c.ensureVisible()
			}
		case "k", "up":
			if c.cursor > 0 {
				c.cursor--
				c.ensureVisible()
			}
		case "g", "home":
			c.cursor = 0
			c.offset = 0
		case "G", "end":
			c.cursor = count - 1
			c.ensureVisible()
		case "ctrl+d", "pgdown":
			c.cursor += c.maxVisible / 2
			if c.cursor >= count {
				c.cursor = count - 1
			}
			c.ensureVisible()
		case "ctrl+u", "pgup":
			c.cursor -= c.maxVisible / 2
			if c.cursor < 0 {
				c.cursor = 0
			}
			c.ensureVisible()
		}
	}

	return c, nil
}

// View renders the list inside a border
func (c *MediaList) View() string {
	style := styles.InactiveBorder
	if c.focused {
		style = styles.ActiveBorder
	}

	frameW, frameH := style.GetFrameSize()
	return style.
		Width(c.width - frameW).
		Height(c.height - frameH).
		Render(c.renderContent())
}

// SetSize updates the outer dimensions
func (c *MediaList) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.recalcMaxVisible()
	c.ensureVisible()
}

func (c *MediaList) SetFocused(focused bool) { c.focused = focused }
func (c *MediaList) IsFocused() bool         { return c.focused }
func (c *MediaList) Title() string           { return c.title }
func (c *MediaList) SetTitle(title string)   { c.title = title }
func (c *MediaList) SetStatus(status string) { c.status = status }
func (c *MediaList) IsLoading() bool         { return c.loading }

// SetLoading shows the spinner in place of the items
func (c *MediaList) SetLoading(loading bool) {
	c.loading = loading
}

// SetSpinnerFrame advances the loading animation
func (c *MediaList) SetSpinnerFrame(frame int) {
	c.spinnerFrame = frame
}

// ItemCount returns the number of visible rows (after filtering)
func (c *MediaList) ItemCount() int {
	if c.filterActive && c.filterQuery != "" {
		return len(c.filtered)
	}
	return len(c.items)
}

// SelectedIndex returns the cursor position among visible rows
func (c *MediaList) SelectedIndex() int {
	return c.cursor
}

// SetSelectedIndex moves the cursor, clamped to the visible rows
func (c *MediaList) SetSelectedIndex(idx int) {
	count := c.ItemCount()
	if count == 0 {
		c.cursor = 0
		return
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= count {
		idx = count - 1
	}
	c.cursor = idx
	c.ensureVisible()
}

// Selected returns the title under the cursor
func (c *MediaList) Selected() (domain.Media, bool) {
	if c.ItemCount() == 0 {
		return domain.Media{}, false
	}
	if c.filterActive && c.filterQuery != "" {
		return c.filtered[c.cursor].Media, true
	}
	return c.items[c.cursor], true
}

// SelectByID moves the cursor to the row with id. It reports whether found.
func (c *MediaList) SelectByID(id int64) bool {
	for i := 0; i < c.ItemCount(); i++ {
		if c.rowMedia(i).ID == id {
			c.SetSelectedIndex(i)
			return true
		}
	}
	return false
}

// StartFilter opens the filter input
func (c *MediaList) StartFilter() {
	c.filterActive = true
	c.filterInput.Focus()
	c.recalcMaxVisible()
}

// IsFiltering returns true if filter mode is active
func (c *MediaList) IsFiltering() bool {
	return c.filterActive
}

// IsFilterTyping returns true if the filter input has focus
func (c *MediaList) IsFilterTyping() bool {
	return c.filterActive && c.filterInput.Focused()
}

// ClearFilter closes the filter and shows all items
func (c *MediaList) ClearFilter() {
	c.clearFilter()
}

// FilterQuery returns the active filter text
func (c *MediaList) FilterQuery() string {
	return c.filterQuery
}

func (c *MediaList) recalcMaxVisible() {
	// Interior minus title line and scroll indicators
	c.maxVisible = c.height - BorderHeight - ScrollIndicatorLines - 1
	if c.filterActive {
		c.maxVisible--
	}
	if c.maxVisible < 1 {
		c.maxVisible = 1
	}
}

func (c *MediaList) ensureVisible() {
	if c.maxVisible <= 0 {
		return
	}
	if c.cursor < c.offset {
		c.offset = c.cursor
	}
	if c.cursor >= c.offset+c.maxVisible {
		c.offset = c.cursor - c.maxVisible + 1
	}
}

func (c *MediaList) clearFilter() {
	c.filterActive = false
	c.filterQuery = ""
	c.filtered = nil
	c.filterInput.SetValue("")
	c.filterInput.Blur()
	c.recalcMaxVisible()
	c.SetSelectedIndex(c.cursor)
}

func (c *MediaList) applyFilter() {
	c.filterQuery = c.filterInput.Value()
	c.filtered = c.index.Filter(c.filterQuery)
	c.cursor = 0
	c.offset = 0
}

func (c *MediaList) rowMedia(i int) domain.Media {
	if c.filterActive && c.filterQuery != "" {
		return c.filtered[i].Media
	}
	return c.items[i]
}

func (c *MediaList) rowMatches(i int) []int {
	if c.filterActive && c.filterQuery != "" {
		return c.filtered[i].MatchedIndexes
	}
	return nil
}

func (c *MediaList) renderContent() string {
	itemWidth := c.width - BorderWidth
	if itemWidth < 10 {
		itemWidth = 10
	}

	titleLine := styles.AccentStyle.Render(c.title)
	if c.status != "" {
		gap := itemWidth - lipgloss.Width(c.title) - lipgloss.Width(c.status)
		if gap > 0 {
			titleLine += strings.Repeat(" ", gap) + styles.DimStyle.Render(c.status)
		}
	}

	if c.loading {
		spinner := styles.SpinnerFrames[c.spinnerFrame%len(styles.SpinnerFrames)]
		return titleLine + "\n \n" + styles.DimStyle.Render(spinner+" Loading...") + "\n "
	}

	count := c.ItemCount()
	if count == 0 {
		emptyMsg := styles.DimStyle.Render("No items")
		if c.filterActive && c.filterQuery != "" {
			emptyMsg = styles.DimStyle.Render("No matches")
		}
		content := titleLine + "\n \n" + emptyMsg + "\n "
		if c.filterActive {
			content += "\n" + c.renderFilterBar()
		}
		return content
	}

	end := c.offset + c.maxVisible
	if end > count {
		end = count
	}

	lines := make([]string, 0, end-c.offset)
	for i := c.offset; i < end; i++ {
		lines = append(lines, c.renderRow(c.rowMedia(i), c.rowMatches(i), i == c.cursor, itemWidth))
	}

	// Header and footer lines are always reserved to prevent layout shifts
	header := " "
	if c.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}
	footer := " "
	if end < count {
		footer = styles.DimStyle.Render("↓ more")
	}

	content := titleLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer
	if c.filterActive {
		content += "\n" + c.renderFilterBar()
	}
	return content
}

func (c *MediaList) renderRow(m domain.Media, matched []int, selected bool, width int) string {
	badge := styles.AnyBadge
	switch m.Kind {
	case domain.KindMovie:
		badge = styles.MovieBadge
	case domain.KindTV:
		badge = styles.TVBadge
	}

	mark := " "
	if c.saved != nil && c.saved(m.ID) {
		mark = styles.SavedMark
	}

	year := "    "
	if y := m.Year(); y > 0 {
		year = fmt.Sprintf("%d", y)
	}
	rating := fmt.Sprintf("%4s", tmdb.FormatRating(m.VoteAverage))

	// badge(3) + mark(1) + year(4) + rating(4) + separators(4) + margins(2)
	titleWidth := width - 18
	if titleWidth < 4 {
		titleWidth = 4
	}
	title := styles.Truncate(m.Title, titleWidth)
	if len(matched) > 0 && title == m.Title {
		title = styles.HighlightMatches(title, matched, selected)
	}
	title = styles.Pad(title, titleWidth)

	gold := styles.Gold
	parts := []styles.RowPart{
		{Text: badge + " "},
		{Text: mark + " "},
		{Text: title + " "},
		{Text: year + " "},
		{Text: rating, Foreground: &gold},
	}
	return styles.RenderListRow(parts, selected, width)
}

func (c *MediaList) renderFilterBar() string {
	countStr := ""
	if c.filterQuery != "" {
		countStr = styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", c.ItemCount(), len(c.items)))
	}
	return c.filterInput.View() + countStr
}
