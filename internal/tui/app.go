// Package tui implements the interactive catalog browser.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/artic-browser/pkg/catalog"
	"github.com/Sternrassler/artic-browser/pkg/logging"
	"github.com/Sternrassler/artic-browser/pkg/pagination"
	"github.com/Sternrassler/artic-browser/pkg/selection"
)

// pageSizes are the sizes +/- step through.
var pageSizes = []int{6, 12, 25, 50, 100}

const (
	defaultWidth  = 120
	defaultHeight = 30

	// title, detail block, popover, status and help lines around the table
	chromeHeight = 12
)

// mode is what the keyboard currently drives.
type mode int

const (
	modeBrowse mode = iota
	modePrompt
)

// pageLoadedMsg carries the result of one page load.
type pageLoadedMsg struct {
	ticket   pagination.Ticket
	snapshot pagination.Snapshot
	err      error
}

// App is the root bubbletea model.
type App struct {
	ctx        context.Context
	store      *pagination.Store
	reconciler *selection.Reconciler
	bulk       *selection.BulkSelector

	keys    *KeyMap
	theme   *Theme
	styles  *Styles
	table   table.Model
	spinner spinner.Model
	input   textinput.Model
	help    help.Model

	mode     mode
	snapshot pagination.Snapshot
	pending  *pagination.Ticket
	visible  []catalog.Record
	hint     string
	width    int
	height   int
	quitting bool

	logger zerolog.Logger
}

// NewApp creates the browser over a page store and a selection reconciler.
func NewApp(store *pagination.Store, reconciler *selection.Reconciler) (*App, error) {
	if store == nil {
		return nil, errors.New("page store is required")
	}
	if reconciler == nil {
		return nil, errors.New("selection reconciler is required")
	}

	theme := DefaultTheme()

	t := table.New(
		table.WithColumns(columnsFor(defaultWidth)),
		table.WithFocused(true),
		table.WithHeight(defaultHeight-chromeHeight),
	)
	t.SetStyles(tableStyles(theme))

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Primary)

	ti := textinput.New()
	ti.Placeholder = "number of rows"
	ti.CharLimit = 12
	ti.Width = 16
	ti.Prompt = "N: "

	return &App{
		ctx:        context.Background(),
		store:      store,
		reconciler: reconciler,
		bulk:       selection.NewBulkSelector(reconciler),
		keys:       DefaultKeyMap(),
		theme:      theme,
		styles:     NewStyles(theme),
		table:      t,
		spinner:    sp,
		input:      ti,
		help:       help.New(),
		snapshot:   store.Snapshot(),
		width:      defaultWidth,
		height:     defaultHeight,
		logger:     logging.NewLogger("browser"),
	}, nil
}

// WithContext sets the parent context of page loads.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init loads the first page.
func (a *App) Init() tea.Cmd {
	return a.loadPage(1)
}

// Update handles a message.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case pageLoadedMsg:
		a.handlePageLoaded(msg)
		return a, nil

	case spinner.TickMsg:
		if !a.store.Snapshot().Loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if a.mode == modePrompt {
			return a, a.handlePromptKey(msg)
		}
		return a, a.handleBrowseKey(msg)
	}

	return a, nil
}

func (a *App) handleBrowseKey(msg tea.KeyMsg) tea.Cmd {
	snap := a.snapshot

	switch {
	case key.Matches(msg, a.keys.Quit):
		a.quitting = true
		return tea.Quit

	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return nil

	case key.Matches(msg, a.keys.Toggle):
		if rec, ok := a.cursorRecord(); ok {
			a.visible = a.reconciler.Toggle(snap.Records, rec.ID)
			a.refreshRows()
		}
		return nil

	case key.Matches(msg, a.keys.ToggleAll):
		a.visible = a.reconciler.ToggleAll(snap.Records)
		a.refreshRows()
		return nil

	case key.Matches(msg, a.keys.NextPage):
		page, size := a.target()
		if page >= catalog.TotalPages(snap.TotalRecords, size) {
			return nil
		}
		return a.loadPage(page + 1)

	case key.Matches(msg, a.keys.PrevPage):
		page, _ := a.target()
		if page <= 1 {
			return nil
		}
		return a.loadPage(page - 1)

	case key.Matches(msg, a.keys.FirstPage):
		return a.loadPage(1)

	case key.Matches(msg, a.keys.LastPage):
		_, size := a.target()
		last := catalog.TotalPages(snap.TotalRecords, size)
		if last < 1 {
			return nil
		}
		return a.loadPage(last)

	case key.Matches(msg, a.keys.Grow):
		return a.resize(1)

	case key.Matches(msg, a.keys.Shrink):
		return a.resize(-1)

	case key.Matches(msg, a.keys.BulkSelect):
		a.mode = modePrompt
		a.input.SetValue("")
		return a.input.Focus()
	}

	var cmd tea.Cmd
	a.table, cmd = a.table.Update(msg)
	return cmd
}

func (a *App) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Confirm):
		n := selection.ParseCount(a.input.Value())
		a.visible = a.bulk.SelectFirstN(a.snapshot.Records, n)
		a.logger.Info().
			Int("requested", n).
			Int("page", a.snapshot.PageNumber).
			Int("visible_selected", len(a.visible)).
			Msg("Bulk selection applied")
		a.closePrompt()
		a.refreshRows()
		return nil

	case key.Matches(msg, a.keys.Cancel):
		a.closePrompt()
		return nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return cmd
}

func (a *App) closePrompt() {
	a.mode = modeBrowse
	a.input.Blur()
	a.input.SetValue("")
}

// loadPage begins a load synchronously, so the store is marked loading and
// any older load is cancelled, and runs the fetch as a command.
func (a *App) loadPage(n int) tea.Cmd {
	ticket, ctx := a.store.Begin(a.ctx, n)
	a.pending = &ticket
	store := a.store

	load := func() tea.Msg {
		page, err := store.Fetch(ctx, ticket)
		snap, err := store.Complete(ticket, page, err)
		return pageLoadedMsg{ticket: ticket, snapshot: snap, err: err}
	}
	return tea.Batch(load, a.spinner.Tick)
}

// target is the page and size navigation starts from: the load in flight
// if there is one, otherwise the displayed page.
func (a *App) target() (page, size int) {
	if a.pending != nil {
		return a.pending.PageNumber, a.pending.PageSize
	}
	return a.snapshot.PageNumber, a.snapshot.PageSize
}

// resize steps the page size and reloads the page that holds the first row
// of the target page.
func (a *App) resize(dir int) tea.Cmd {
	page, current := a.target()
	size := nextPageSize(current, dir)
	if size == current {
		return nil
	}
	a.store.SetPageSize(size)
	return a.loadPage(pagination.PageContaining((page-1)*current, size))
}

func (a *App) handlePageLoaded(msg pageLoadedMsg) {
	if errors.Is(msg.err, pagination.ErrStaleLoad) {
		return
	}
	if a.pending != nil && a.pending.Seq == msg.ticket.Seq {
		a.pending = nil
	}

	if msg.err != nil {
		// the store already logged it and kept the last page
		a.hint = "load failed; showing last page"
	} else {
		a.hint = ""
	}

	a.snapshot = msg.snapshot
	a.visible = a.reconciler.Visible(a.snapshot.Records)
	a.refreshRows()
	if msg.err == nil {
		a.table.SetCursor(0)
	}
}

// refreshRows rebuilds the table rows from the snapshot and visible selection.
func (a *App) refreshRows() {
	checked := make(map[int]bool, len(a.visible))
	for _, rec := range a.visible {
		checked[rec.ID] = true
	}

	rows := make([]table.Row, len(a.snapshot.Records))
	for i, rec := range a.snapshot.Records {
		rows[i] = recordRow(rec, checked[rec.ID])
	}
	a.table.SetRows(rows)
}

func (a *App) cursorRecord() (catalog.Record, bool) {
	i := a.table.Cursor()
	if i < 0 || i >= len(a.snapshot.Records) {
		return catalog.Record{}, false
	}
	return a.snapshot.Records[i], true
}

// SetDimensions lays the browser out for a terminal size.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.help.Width = width

	a.table.SetColumns(columnsFor(width))
	a.table.SetWidth(width)
	h := height - chromeHeight
	if h < 3 {
		h = 3
	}
	a.table.SetHeight(h)
}

// View renders the browser.
func (a *App) View() string {
	if a.quitting {
		return ""
	}

	var b strings.Builder

	title := a.styles.Title.Render("Art Institute of Chicago · Artworks")
	if a.store.Snapshot().Loading {
		title += "  " + a.spinner.View() + a.styles.Muted.Render(" loading")
	}
	b.WriteString(title)
	b.WriteString("\n\n")

	b.WriteString(a.table.View())
	b.WriteString("\n\n")

	if a.mode == modePrompt {
		prompt := a.styles.Label.Render("Select first N rows on this page") + "\n" + a.input.View()
		b.WriteString(a.styles.Popover.Render(prompt))
		b.WriteString("\n")
	} else if rec, ok := a.cursorRecord(); ok {
		for _, line := range detailLines(rec, a.width) {
			b.WriteString(a.styles.Muted.Render(line))
			b.WriteString("\n")
		}
	}

	status := statusLine(a.snapshot, a.reconciler.Set().Len())
	if a.hint != "" {
		status += "  " + a.styles.Error.Render(a.hint)
	}
	b.WriteString(a.styles.Status.Render(status))
	b.WriteString("\n")

	if a.mode == modePrompt {
		b.WriteString(a.help.ShortHelpView(a.keys.PromptHelp()))
	} else {
		b.WriteString(a.help.View(a.keys))
	}

	return b.String()
}

// Snapshot returns the page the browser currently shows.
func (a *App) Snapshot() pagination.Snapshot {
	return a.snapshot
}

// VisibleSelection returns the checked records of the current page.
func (a *App) VisibleSelection() []catalog.Record {
	return a.visible
}

// PromptOpen reports whether the bulk-select prompt is shown.
func (a *App) PromptOpen() bool {
	return a.mode == modePrompt
}

// Run starts the browser on the terminal and blocks until it quits.
func Run(ctx context.Context, app *App) error {
	p := tea.NewProgram(app.WithContext(ctx), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}

// nextPageSize steps through pageSizes from the current size.
func nextPageSize(current, dir int) int {
	if dir > 0 {
		for _, s := range pageSizes {
			if s > current {
				return s
			}
		}
		return pageSizes[len(pageSizes)-1]
	}
	for i := len(pageSizes) - 1; i >= 0; i-- {
		if pageSizes[i] < current {
			return pageSizes[i]
		}
	}
	return pageSizes[0]
}
