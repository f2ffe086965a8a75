package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"

	"github.com/skyscout/skyscout/internal/config"
	"github.com/skyscout/skyscout/internal/logging"
	"github.com/skyscout/skyscout/internal/prefs"
	"github.com/skyscout/skyscout/internal/results"
	"github.com/skyscout/skyscout/internal/skyapi"
	"github.com/skyscout/skyscout/internal/state"
	"github.com/skyscout/skyscout/internal/suggest"
	"github.com/skyscout/skyscout/internal/trip"
)

// View represents the current active view.
type View int

const (
	ViewSearch View = iota
	ViewLogs
)

// focusArea is the pane or input receiving keys in the search view.
type focusArea int

const (
	focusOrigin focusArea = iota
	focusDestination
	focusDepart
	focusReturn
	focusResults
	focusCount
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Airports  suggest.Source[skyapi.Airport]
	Flights   skyapi.FlightSearcher
	Store     *state.Store
	Config    config.Config
	Prefs     prefs.Prefs
	PrefsPath string
	Logger    *log.Logger
	Clock     clockwork.Clock
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	flights   skyapi.FlightSearcher
	store     *state.Store
	cfg       config.Config
	prefsPath string
	logger    *log.Logger
	clock     clockwork.Clock
	keys      keyMap
	relay     *msgRelay

	// UI state
	theme       Theme
	currentView View
	focus       focusArea
	width       int
	height      int
	ready       bool
	showHelp    bool
	modal       Modal

	// Form state
	origin      airportField
	destination airportField
	depart      textinput.Model
	ret         textinput.Model
	form        trip.Form
	notice      string
	noticeIsErr bool

	// Results state
	snapshot        state.Snapshot
	searchCancel    context.CancelFunc
	selectedRow     int
	resultsViewport viewport.Model

	// Log state
	logViewport viewport.Model
	logLines    []string
	logFollow   bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	store := opts.Store
	if store == nil {
		store = state.NewStore(clk)
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	p := opts.Prefs
	if p == (prefs.Prefs{}) {
		p = prefs.Defaults()
	}

	fieldOpts := suggest.Options[skyapi.Airport]{
		MinLength: opts.Config.MinQueryLength,
		Delay:     opts.Config.SuggestDelay,
		Timeout:   opts.Config.RequestTimeout,
		Label:     skyapi.Airport.Label,
	}

	relay := &msgRelay{}
	m := Model{
		ctx:         ctx,
		flights:     opts.Flights,
		store:       store,
		cfg:         opts.Config,
		prefsPath:   prefsPath,
		logger:      logger,
		clock:       clk,
		keys:        DefaultKeyMap(),
		relay:       relay,
		theme:       GetTheme(p.Theme),
		currentView: ViewSearch,
		origin:      newAirportField(fieldOrigin, opts.Airports, fieldOpts, clk, relay),
		destination: newAirportField(fieldDestination, opts.Airports, fieldOpts, clk, relay),
		depart:      newDateInput("YYYY-MM-DD"),
		ret:         newDateInput("YYYY-MM-DD"),
		form:        trip.NewForm(trip.ParseType(p.TripType), trip.ParseCabin(p.Cabin)),
		snapshot:    store.Snapshot(),
		logFollow:   true,
	}
	m.origin.input.Focus()
	return m
}

func newDateInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = len(trip.DateLayout)
	ti.Width = len(placeholder)
	return ti
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tickCmd(time.Second))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.updateResultsViewport()
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd(time.Second)}
		if m.currentView == ViewLogs && m.logFollow {
			cmds = append(cmds, tailLogCmd(m.cfg.LogPath()))
		}
		return m, tea.Batch(cmds...)

	case fieldStateMsg:
		m.handleFieldState(msg)
		return m, nil

	case searchDoneMsg:
		m.handleSearchDone(msg)
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.setNotice("export failed: "+msg.err.Error(), true)
			m.logger.Error("export failed", "err", msg.err)
		} else {
			m.setNotice("exported "+truncateMiddle(msg.path, 60), false)
			m.logger.Info("exported results", "path", msg.path, "rows", msg.rows)
		}
		return m, nil

	case logTailMsg:
		if msg.err != nil {
			m.logLines = []string{"unable to read log: " + msg.err.Error()}
		} else {
			m.logLines = msg.lines
		}
		m.updateLogViewport()
		return m, nil
	}

	// Cursor blink and other input housekeeping.
	return m, m.updateFocusedInput(msg)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	if m.currentView == ViewLogs {
		b.WriteString(m.renderLogs())
	} else {
		b.WriteString(m.renderSearch())
	}
	return b.String()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		return m.handleModalKey(msg)
	}

	if key.Matches(msg, m.keys.Quit) {
		m.shutdown()
		return m, tea.Quit
	}

	if m.currentView == ViewLogs {
		return m.handleLogsKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil
	case key.Matches(msg, m.keys.Search):
		return m, m.startSearch()
	case key.Matches(msg, m.keys.ToggleTrip):
		m.form.Type = m.form.Type.Toggle()
		m.savePrefs()
		if m.form.Type == trip.OneWay && m.focus == focusReturn {
			return m, m.setFocus(focusDepart)
		}
		return m, nil
	case key.Matches(msg, m.keys.CycleCabin):
		m.form.Cabin = m.form.Cabin.Next()
		m.savePrefs()
		return m, nil
	case key.Matches(msg, m.keys.Passengers):
		m.modal = newPassengersModal(m.form.Passengers)
		return m, nil
	case key.Matches(msg, m.keys.Swap):
		m.swapEndpoints()
		return m, nil
	case key.Matches(msg, m.keys.ShowLogs):
		return m, m.openLogs()
	case key.Matches(msg, m.keys.Export):
		return m, m.exportResults()
	case key.Matches(msg, m.keys.NextField):
		return m, m.setFocus(m.nextFocus(1))
	case key.Matches(msg, m.keys.PrevField):
		return m, m.setFocus(m.nextFocus(-1))
	}

	// Esc stops a running search unless it is closing a suggestion list.
	if key.Matches(msg, m.keys.Escape) && m.snapshot.Searching && !m.focusedListOpen() {
		m.cancelSearch()
		return m, nil
	}

	switch m.focus {
	case focusOrigin, focusDestination:
		return m.handleAirportKey(msg)
	case focusDepart, focusReturn:
		if key.Matches(msg, m.keys.Confirm) {
			return m, m.startSearch()
		}
		return m, m.updateFocusedInput(msg)
	case focusResults:
		return m.handleResultsKey(msg)
	}
	return m, nil
}

func (m Model) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	next, cmd, closed := m.modal.Update(msg, m.keys)
	if !closed {
		m.modal = next
		return m, cmd
	}
	if pm, ok := next.(passengersModal); ok && pm.confirmed {
		m.form.Passengers = pm.counts
		m.logger.Debug("passengers updated", "total", pm.counts.Total())
	}
	m.modal = nil
	return m, cmd
}

func (m Model) handleAirportKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	field := m.field(m.focusedField())
	open := field.listOpen()

	switch {
	case key.Matches(msg, m.keys.Escape):
		field.hide()
		return m, nil
	case open && key.Matches(msg, m.keys.SuggestionUp):
		field.moveCursor(-1)
		return m, nil
	case open && key.Matches(msg, m.keys.SuggestionDown):
		field.moveCursor(1)
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		if field.choose() {
			m.logger.Debug("airport selected", "field", field.id, "label", field.input.Value())
			return m, m.setFocus(m.nextFocus(1))
		}
		return m, nil
	}
	return m, field.update(msg)
}

func (m Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.snapshot.Itineraries)
	half := max(m.resultsViewport.Height/2, 1)

	switch {
	case key.Matches(msg, m.keys.QuitResults):
		m.shutdown()
		return m, tea.Quit
	case key.Matches(msg, m.keys.HelpResult):
		m.showHelp = true
	case key.Matches(msg, m.keys.ThemeResult):
		m.cycleTheme()
	case key.Matches(msg, m.keys.ExportResult):
		return m, m.exportResults()
	case key.Matches(msg, m.keys.LogsResult):
		return m, m.openLogs()
	case key.Matches(msg, m.keys.Escape):
		return m, m.setFocus(focusOrigin)
	case count == 0:
	case key.Matches(msg, m.keys.Down):
		m.selectedRow = min(m.selectedRow+1, count-1)
	case key.Matches(msg, m.keys.Up):
		m.selectedRow = max(m.selectedRow-1, 0)
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = count - 1
	case key.Matches(msg, m.keys.HalfPageDown):
		m.selectedRow = min(m.selectedRow+half, count-1)
	case key.Matches(msg, m.keys.HalfPageUp):
		m.selectedRow = max(m.selectedRow-half, 0)
	}
	m.updateResultsViewport()
	return m, nil
}

// handleFieldState logs settled lookups. Rendering reads the controller
// directly, so the message mostly serves to wake the update loop. The
// directory already reports failures at warn level.
func (m *Model) handleFieldState(msg fieldStateMsg) {
	field := m.field(msg.field)
	if !field.observe(msg.state) {
		return
	}
	s := msg.state
	if s.Loading || !s.Open || s.Query == field.logged {
		return
	}
	field.logged = s.Query
	if s.Err != nil {
		m.logger.Debug("airport suggestions unavailable", "field", msg.field, "query", s.Query, "err", s.Err)
		return
	}
	m.logger.Debug("airport suggestions", "field", msg.field, "query", s.Query, "results", len(s.Suggestions))
}

func (m *Model) handleSearchDone(msg searchDoneMsg) {
	if !m.store.Update(msg.ticket, msg.items, msg.err) {
		m.logger.Debug("stale flight search dropped", "ticket", msg.ticket)
		return
	}
	m.releaseSearch()
	m.snapshot = m.store.Snapshot()
	m.selectedRow = 0
	m.resultsViewport.GotoTop()
	if msg.err != nil {
		m.logger.Error("flight search failed", "err", msg.err)
		m.setNotice("search failed: "+msg.err.Error(), true)
	} else {
		m.logger.Info("flight search finished", "itineraries", len(msg.items), "elapsed", m.snapshot.Elapsed())
		m.notice = ""
	}
	m.updateResultsViewport()
}

// currentForm returns the form with the inputs' current values.
func (m Model) currentForm() trip.Form {
	f := m.form
	f.Origin = m.origin.selected()
	f.Destination = m.destination.selected()
	f.Depart = m.depart.Value()
	f.Return = m.ret.Value()
	return f
}

// searchBlocked explains why a search cannot start now, or returns "".
func (m Model) searchBlocked() string {
	if m.snapshot.Searching {
		return "search in progress"
	}
	if err := m.currentForm().Validate(m.clock.Now()); err != nil {
		return "form incomplete"
	}
	return ""
}

// startSearch validates the form and launches the flight search. Only one
// search runs at a time.
func (m *Model) startSearch() tea.Cmd {
	if m.snapshot.Searching {
		m.setNotice("search already running, esc cancels it", true)
		return nil
	}
	m.form = m.currentForm()

	q, err := m.form.Query(m.clock.Now())
	if err != nil {
		var verr *trip.ValidationError
		if errors.As(err, &verr) {
			m.setNotice(strings.Join(verr.Problems, " · "), true)
		} else {
			m.setNotice(err.Error(), true)
		}
		return nil
	}
	if m.flights == nil {
		m.setNotice("flight search unavailable", true)
		return nil
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.searchCancel = cancel
	ticket := m.store.Begin(q)
	m.snapshot = m.store.Snapshot()
	m.notice = ""
	m.logger.Info("flight search",
		"origin", q.Origin.SkyID, "destination", q.Destination.SkyID,
		"date", q.Date, "return", q.ReturnDate, "cabin", q.Cabin,
		"passengers", m.form.Passengers.Total())
	m.updateResultsViewport()
	return searchCmd(ctx, m.flights, ticket, q, m.cfg.RequestTimeout)
}

// cancelSearch abandons the running search; its outcome will be ignored.
func (m *Model) cancelSearch() {
	m.releaseSearch()
	m.store.Cancel()
	m.snapshot = m.store.Snapshot()
	m.setNotice("search cancelled", false)
	m.logger.Info("flight search cancelled")
	m.updateResultsViewport()
}

func (m *Model) releaseSearch() {
	if m.searchCancel != nil {
		m.searchCancel()
		m.searchCancel = nil
	}
}

func (m *Model) exportResults() tea.Cmd {
	if len(m.snapshot.Itineraries) == 0 {
		m.setNotice("nothing to export", true)
		return nil
	}
	return exportCmd(m.cfg.ExportDir, m.snapshot.Query, m.snapshot.Itineraries, m.clock.Now())
}

// swapEndpoints exchanges origin and destination, selections included.
func (m *Model) swapEndpoints() {
	oSel, oText := m.origin.selected(), m.origin.input.Value()
	dSel, dText := m.destination.selected(), m.destination.input.Value()
	m.origin.assign(dSel, dText)
	m.destination.assign(oSel, oText)
	m.origin.hide()
	m.destination.hide()
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.savePrefs()
	m.updateResultsViewport()
	m.updateLogViewport()
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{
		Theme:    m.theme.Name,
		Cabin:    string(m.form.Cabin),
		TripType: m.form.Type.String(),
	}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.logger.Warn("save prefs failed", "err", err)
	}
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeIsErr = isErr
}

// shutdown stops both suggestion controllers and any running search so
// nothing arriving after the quit can touch them.
func (m *Model) shutdown() {
	m.releaseSearch()
	m.origin.dispose()
	m.destination.dispose()
}

func (m *Model) field(id fieldID) *airportField {
	if id == fieldDestination {
		return &m.destination
	}
	return &m.origin
}

func (m Model) focusedListOpen() bool {
	switch m.focus {
	case focusOrigin, focusDestination:
		return m.field(m.focusedField()).listOpen()
	}
	return false
}

func (m Model) focusedField() fieldID {
	if m.focus == focusDestination {
		return fieldDestination
	}
	return fieldOrigin
}

// nextFocus steps through focus areas, skipping the return date on
// one-way trips.
func (m Model) nextFocus(step int) focusArea {
	next := m.focus
	for {
		next = (next + focusArea(step) + focusCount) % focusCount
		if next == focusReturn && m.form.Type == trip.OneWay {
			continue
		}
		return next
	}
}

func (m *Model) setFocus(target focusArea) tea.Cmd {
	m.origin.blur()
	m.destination.blur()
	m.depart.Blur()
	m.ret.Blur()
	m.focus = target

	var cmd tea.Cmd
	switch target {
	case focusOrigin:
		cmd = m.origin.focus()
	case focusDestination:
		cmd = m.destination.focus()
	case focusDepart:
		cmd = m.depart.Focus()
	case focusReturn:
		cmd = m.ret.Focus()
	}
	m.updateResultsViewport()
	return cmd
}

func (m *Model) updateFocusedInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focus {
	case focusOrigin:
		cmd = m.origin.update(msg)
	case focusDestination:
		cmd = m.destination.update(msg)
	case focusDepart:
		m.depart, cmd = m.depart.Update(msg)
	case focusReturn:
		m.ret, cmd = m.ret.Update(msg)
	}
	return cmd
}

// Messages

type tickMsg time.Time

type searchDoneMsg struct {
	ticket uint64
	items  []skyapi.Itinerary
	err    error
}

type exportDoneMsg struct {
	path string
	rows int
	err  error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func searchCmd(ctx context.Context, flights skyapi.FlightSearcher, ticket uint64, q skyapi.FlightQuery, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		items, err := flights.SearchFlights(ctx, q)
		return searchDoneMsg{ticket: ticket, items: items, err: err}
	}
}

func exportCmd(dir string, q skyapi.FlightQuery, items []skyapi.Itinerary, now time.Time) tea.Cmd {
	return func() tea.Msg {
		path, err := results.Export(dir, q, items, now)
		return exportDoneMsg{path: path, rows: len(items), err: err}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	m.relay.attach(p.Send)
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.shutdown()
	}
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
