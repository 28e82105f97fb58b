package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/cineverse/internal/domain"
	"github.com/mmcdole/cineverse/internal/service"
	"github.com/mmcdole/cineverse/internal/tmdb"
	"github.com/mmcdole/cineverse/internal/tui/components"
	"github.com/mmcdole/cineverse/internal/watchlist"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateSearchPrompt
	StateHelp
	StateConfirmClear
)

// Pane identifies which pane receives navigation keys
type Pane int

const (
	PaneList Pane = iota
	PaneInspector
)

// Layout proportions
const (
	ListPercent    = 55
	MinColumnWidth = 30

	// Tab bar and footer each take one line
	ChromeHeight = 2

	statusTimeout = 3 * time.Second
	tickInterval  = 100 * time.Millisecond
)

// Browser is the catalog surface the UI drives
type Browser interface {
	LoadCategory(ctx context.Context, cat service.Category, page int) (*domain.Page, error)
	Search(ctx context.Context, query string, page int) (*domain.Page, error)
	Details(ctx context.Context, m domain.Media) (*domain.Details, error)
	Prefetch(ctx context.Context, items []domain.Media) int
	SetTrendingWindow(window string)
	TrendingWindow() tmdb.TimeWindow
}

// Tab is one entry in the tab bar. The watchlist tab has no category.
type Tab struct {
	Title    string
	Category service.Category
}

// IsWatchlist reports whether the tab shows the watchlist
func (t Tab) IsWatchlist() bool {
	return t.Category == ""
}

type sortOption struct {
	Field string
	Order string
	Label string
}

// watchlistSorts is the cycle stepped through by the sort key
var watchlistSorts = []sortOption{
	{watchlist.FieldAddedDate, watchlist.Desc, "recently added"},
	{watchlist.FieldTitle, watchlist.Asc, "title"},
	{watchlist.FieldVoteAverage, watchlist.Desc, "rating"},
	{watchlist.FieldReleaseDate, watchlist.Desc, "release date"},
	{watchlist.FieldPopularity, watchlist.Desc, "popularity"},
}

// watchlistView is a preset narrowing of the watchlist tab
type watchlistView struct {
	Label    string
	Criteria watchlist.Criteria
}

// watchlistViews is the cycle stepped through by the view key. The first
// entry shows everything.
var watchlistViews = []watchlistView{
	{"all", watchlist.Criteria{}},
	{"movies", watchlist.Criteria{Kind: string(domain.KindMovie)}},
	{"tv", watchlist.Criteria{Kind: string(domain.KindTV)}},
	{"rated 7+", watchlist.Criteria{MinRating: 7}},
	{"animation", watchlist.Criteria{Genre: "Animation"}},
}

// Options holds optional wiring for NewModel
type Options struct {
	DefaultCategory  service.Category
	Notices          <-chan domain.Notice
	WatchlistUpdates <-chan []domain.WatchlistEntry
	Logger           *slog.Logger
}

// Model is the main Bubble Tea model for the application
type Model struct {
	State ApplicationState
	Ready bool

	// Services
	Browser   Browser
	Watchlist *watchlist.Watchlist

	// UI components
	Tabs      []Tab
	ActiveTab int
	Focus     Pane
	List      *components.MediaList
	Inspector components.Inspector
	Prompt    components.InputModal
	help      help.Model

	// Paging of the active list
	Page         int
	TotalPages   int
	TotalResults int
	SearchQuery  string // non-empty while search results are shown

	sortIdx int
	viewIdx int
	stats   watchlist.Statistics

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg    string
	StatusLevel  domain.NoticeLevel
	statusSeq    int
	Loading      bool
	SpinnerFrame int

	loadSeq     int
	details     map[string]*domain.Details
	selectedKey string

	notices   <-chan domain.Notice
	wlUpdates <-chan []domain.WatchlistEntry
	logger    *slog.Logger
}

// NewModel creates a new application model
func NewModel(browser Browser, wl *watchlist.Watchlist, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tabs := make([]Tab, 0, len(service.Categories)+1)
	active := 0
	for i, c := range service.Categories {
		tabs = append(tabs, Tab{Title: c.Title(), Category: c})
		if c == opts.DefaultCategory {
			active = i
		}
	}
	tabs = append(tabs, Tab{Title: "Watchlist"})

	list := components.NewMediaList(tabs[active].Title)
	list.SetSavedFunc(wl.Contains)
	list.SetFocused(true)

	m := Model{
		State:     StateBrowsing,
		Browser:   browser,
		Watchlist: wl,
		Tabs:      tabs,
		ActiveTab: active,
		List:      list,
		Inspector: components.NewInspector(),
		Prompt:    components.NewInputModal(),
		help:      help.New(),
		Page:      1,
		stats:     wl.Statistics(),
		details:   make(map[string]*domain.Details),
		notices:   opts.Notices,
		wlUpdates: opts.WatchlistUpdates,
		logger:    logger,
	}
	m.beginLoad()
	return m
}

// Init starts the first page load and the background listeners
func (m Model) Init() tea.Cmd {
	first := m.loadCmd()
	if m.showingWatchlist() {
		first = func() tea.Msg { return syncSelectionMsg{} }
	}
	return tea.Batch(
		first,
		TickCmd(tickInterval),
		listenNoticesCmd(m.notices),
		listenWatchlistCmd(m.wlUpdates),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		m.List.SetSpinnerFrame(m.SpinnerFrame)
		return m, TickCmd(tickInterval)

	case PageLoadedMsg:
		return m, m.handlePageLoaded(msg)

	case DetailsLoadedMsg:
		if msg.Err != nil {
			m.logger.Debug("details failed", "key", msg.Key, "error", msg.Err)
			m.Inspector.SetError(msg.Key, msg.Err)
			return m, nil
		}
		m.details[msg.Key] = msg.Details
		m.Inspector.SetDetails(msg.Details)
		return m, nil

	case PrefetchDoneMsg:
		m.logger.Debug("prefetch done", "requested", msg.Requested, "loaded", msg.Loaded)
		return m, nil

	case WatchlistChangedMsg:
		m.refreshWatchlist(msg.Entries)
		return m, tea.Batch(m.selectionChanged(), listenWatchlistCmd(m.wlUpdates))

	case syncSelectionMsg:
		return m, m.selectionChanged()

	case NoticeMsg:
		return m, tea.Batch(
			m.setStatus(msg.Notice.Message, msg.Notice.Level),
			listenNoticesCmd(m.notices),
		)

	case ClearStatusMsg:
		if msg.Seq == m.statusSeq {
			m.StatusMsg = ""
		}
		return m, nil

	case ErrMsg:
		m.logger.Error("ui error", "error", msg.Err, "context", msg.Context)
		return m, m.setStatus(msg.Error(), domain.NoticeError)
	}

	return m, nil
}

// activeTab returns the selected tab
func (m Model) activeTab() Tab {
	return m.Tabs[m.ActiveTab]
}

// showingWatchlist reports whether the list holds watchlist entries
func (m Model) showingWatchlist() bool {
	return m.SearchQuery == "" && m.activeTab().IsWatchlist()
}

// activateTab switches tabs, leaving any search, and loads page one
func (m *Model) activateTab(i int) tea.Cmd {
	n := len(m.Tabs)
	m.ActiveTab = ((i % n) + n) % n
	m.SearchQuery = ""
	m.Page = 1
	m.List.ClearFilter()
	m.updateLayout()
	return m.reload()
}

// reload re-requests the current page of the active source
func (m *Model) reload() tea.Cmd {
	m.beginLoad()
	cmd := m.loadCmd()
	if m.showingWatchlist() {
		return m.selectionChanged()
	}
	return cmd
}

// beginLoad resets the list for the active source. The watchlist is
// filled synchronously; other sources show the spinner until loadCmd returns.
func (m *Model) beginLoad() {
	m.selectedKey = ""
	m.Inspector.Clear()

	if m.showingWatchlist() {
		m.Loading = false
		m.List.SetLoading(false)
		m.refreshWatchlist(m.Watchlist.List())
		m.List.SetSelectedIndex(0)
		return
	}

	m.loadSeq++
	m.Loading = true
	m.List.SetLoading(true)
	m.List.SetStatus("")
	if m.SearchQuery != "" {
		m.List.SetTitle(fmt.Sprintf("Search: %q", m.SearchQuery))
	} else {
		m.List.SetTitle(m.activeTab().Title)
	}
}

// loadCmd builds the request for the state set up by beginLoad
func (m Model) loadCmd() tea.Cmd {
	switch {
	case m.SearchQuery != "":
		return SearchCmd(m.Browser, m.SearchQuery, m.Page, m.loadSeq)
	case m.activeTab().IsWatchlist():
		return nil
	default:
		return LoadCategoryCmd(m.Browser, m.activeTab().Category, m.Page, m.loadSeq)
	}
}

func (m *Model) startSearch(query string) tea.Cmd {
	m.SearchQuery = query
	m.Page = 1
	m.List.ClearFilter()
	m.updateLayout()
	return m.reload()
}

func (m *Model) handlePageLoaded(msg PageLoadedMsg) tea.Cmd {
	if msg.Seq != m.loadSeq {
		return nil
	}
	m.Loading = false
	m.List.SetLoading(false)

	if msg.Err != nil {
		m.List.SetItems(nil)
		m.logger.Error("page load failed", "tab", m.activeTab().Title, "query", m.SearchQuery, "error", msg.Err)
		return m.setStatus("Failed to load: "+msg.Err.Error(), domain.NoticeError)
	}

	p := msg.Page
	if p.Number > 0 {
		m.Page = p.Number
	}
	m.TotalPages = max(p.TotalPages, 1)
	m.TotalResults = p.TotalResults
	m.List.SetItems(p.Results)
	m.List.SetStatus(fmt.Sprintf("page %d/%d", m.Page, m.TotalPages))

	return tea.Batch(m.selectionChanged(), PrefetchCmd(m.Browser, p.Results))
}

// refreshWatchlist updates statistics and, on the watchlist tab, the list
func (m *Model) refreshWatchlist(entries []domain.WatchlistEntry) {
	m.stats = m.Watchlist.Statistics()
	if !m.showingWatchlist() {
		return
	}

	view := watchlistViews[m.viewIdx]
	if m.viewIdx != 0 {
		entries = m.Watchlist.Filter(view.Criteria)
	}
	items := make([]domain.Media, len(entries))
	for i, e := range entries {
		items[i] = e.Media()
	}
	cursor := m.List.SelectedIndex()
	m.List.SetItems(items)
	m.List.SetSelectedIndex(cursor)
	m.List.SetTitle("Watchlist")
	status := "by " + watchlistSorts[m.sortIdx].Label
	if m.viewIdx != 0 {
		status = view.Label + ", " + status
	}
	m.List.SetStatus(status)
	m.Page = 1
	m.TotalPages = 1
	m.TotalResults = len(items)
}

// selectionChanged syncs the inspector with the list cursor and requests
// details when they are not cached
func (m *Model) selectionChanged() tea.Cmd {
	sel, ok := m.List.Selected()
	if !ok {
		m.selectedKey = ""
		if m.showingWatchlist() {
			m.Inspector.SetText("Statistics", renderStatistics(m.stats, m.inspectorWidth()))
		} else {
			m.Inspector.Clear()
		}
		return nil
	}

	saved := m.Watchlist.Contains(sel.ID)
	key := sel.Key()
	if key == m.selectedKey {
		m.Inspector.SetSaved(saved)
		return nil
	}
	m.selectedKey = key
	m.Inspector.SetMedia(sel, saved)

	if d, ok := m.details[key]; ok {
		m.Inspector.SetDetails(d)
		return nil
	}
	if sel.Kind == domain.KindUnknown {
		m.Inspector.SetError(key, fmt.Errorf("no details for this result: %w", domain.ErrNotFound))
		return nil
	}
	return LoadDetailsCmd(m.Browser, sel)
}

// setStatus shows a message in the footer until it times out
func (m *Model) setStatus(msg string, level domain.NoticeLevel) tea.Cmd {
	m.statusSeq++
	m.StatusMsg = msg
	m.StatusLevel = level
	return ClearStatusCmd(m.statusSeq, statusTimeout)
}

func (m *Model) setFocus(p Pane) {
	m.Focus = p
	m.List.SetFocused(p == PaneList)
	m.Inspector.SetFocused(p == PaneInspector)
}

func (m Model) inspectorWidth() int {
	if m.Width == 0 {
		return 40
	}
	return m.Width - m.listWidth() - components.BorderWidth - 1
}

func (m Model) listWidth() int {
	w := m.Width * ListPercent / 100
	if w < MinColumnWidth {
		w = MinColumnWidth
	}
	if w > m.Width {
		w = m.Width
	}
	return w
}

// bodyHeight is the height left for the panes
func (m Model) bodyHeight() int {
	h := m.Height - ChromeHeight
	if m.showingWatchlist() {
		h-- // statistics line
	}
	return max(h, 3)
}

func (m *Model) updateLayout() {
	if !m.Ready {
		return
	}
	lw := m.listWidth()
	m.List.SetSize(lw, m.bodyHeight())
	m.Inspector.SetSize(m.Width-lw, m.bodyHeight())
	if m.selectedKey == "" && m.showingWatchlist() {
		m.Inspector.SetText("Statistics", renderStatistics(m.stats, m.inspectorWidth()))
	}
}
