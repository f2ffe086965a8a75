package ui

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"

	"github.com/skyscout/skyscout/internal/config"
	"github.com/skyscout/skyscout/internal/prefs"
	"github.com/skyscout/skyscout/internal/skyapi"
	"github.com/skyscout/skyscout/internal/state"
	"github.com/skyscout/skyscout/internal/suggest"
	"github.com/skyscout/skyscout/internal/trip"
)

var (
	heathrow = skyapi.Airport{Name: "London Heathrow", CityCode: "LHR", City: "London", Country: "United Kingdom",
		Route: skyapi.RouteID{SkyID: "LHR", EntityID: "95565050"}}
	gatwick = skyapi.Airport{Name: "London Gatwick", CityCode: "LGW", City: "London", Country: "United Kingdom",
		Route: skyapi.RouteID{SkyID: "LGW", EntityID: "95565051"}}
	kennedy = skyapi.Airport{Name: "New York John F. Kennedy", CityCode: "JFK", City: "New York", Country: "United States",
		Route: skyapi.RouteID{SkyID: "JFK", EntityID: "95565058"}}
)

var testToday = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

type fakeAirports struct {
	mu      sync.Mutex
	queries []string
	err     error
	gate    chan struct{} // when set, lookups wait for it to close
}

func (f *fakeAirports) Search(_ context.Context, q string) ([]skyapi.Airport, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	err, gate := f.err, f.gate
	f.mu.Unlock()

	if gate != nil {
		// Answer late even when cancelled, like a reply already on the wire.
		<-gate
	}
	if err != nil {
		return nil, err
	}
	var out []skyapi.Airport
	for _, a := range []skyapi.Airport{heathrow, gatwick, kennedy} {
		if strings.Contains(strings.ToLower(a.Name), strings.ToLower(q)) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAirports) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

var (
	_ suggest.Source[skyapi.Airport] = (*fakeAirports)(nil)
	_ skyapi.FlightSearcher          = (*fakeFlights)(nil)
)

type fakeFlights struct {
	mu    sync.Mutex
	calls []skyapi.FlightQuery
	items []skyapi.Itinerary
	err   error
}

func (f *fakeFlights) SearchFlights(_ context.Context, q skyapi.FlightQuery) ([]skyapi.Itinerary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, q)
	return f.items, f.err
}

type harness struct {
	t        *testing.T
	m        Model
	airports *fakeAirports
	flights  *fakeFlights
	clock    *clockwork.FakeClock
	msgs     chan tea.Msg
	logs     *bytes.Buffer
	dir      string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.LogDir = dir
	cfg.ExportDir = filepath.Join(dir, "exports")

	h := &harness{
		t:        t,
		airports: &fakeAirports{},
		flights: &fakeFlights{items: []skyapi.Itinerary{{
			ID:    "it-1",
			Price: skyapi.Price{Raw: 412, Formatted: "$412"},
			Legs: []skyapi.Leg{{
				Origin:          skyapi.Place{DisplayCode: "LHR"},
				Destination:     skyapi.Place{DisplayCode: "JFK"},
				DurationMinutes: 470,
				Departure:       time.Date(2026, 11, 2, 10, 5, 0, 0, time.UTC),
				Arrival:         time.Date(2026, 11, 2, 13, 55, 0, 0, time.UTC),
				Carriers:        []skyapi.Carrier{{Name: "British Airways"}},
			}},
		}}},
		clock: clockwork.NewFakeClockAt(testToday),
		msgs:  make(chan tea.Msg, 256),
		logs:  &bytes.Buffer{},
		dir:   dir,
	}
	h.m = New(Options{
		Airports:  h.airports,
		Flights:   h.flights,
		Store:     state.NewStore(h.clock),
		Config:    cfg,
		Prefs:     prefs.Defaults(),
		PrefsPath: filepath.Join(dir, "prefs.toml"),
		Logger:    log.NewWithOptions(h.logs, log.Options{Level: log.DebugLevel}),
		Clock:     h.clock,
	})
	h.m.relay.attach(func(msg tea.Msg) { h.msgs <- msg })
	t.Cleanup(func() { h.m.shutdown() })

	h.m.origin.input.Cursor.SetMode(cursor.CursorStatic)
	h.m.destination.input.Cursor.SetMode(cursor.CursorStatic)
	h.m.depart.Cursor.SetMode(cursor.CursorStatic)
	h.m.ret.Cursor.SetMode(cursor.CursorStatic)
	h.send(tea.WindowSizeMsg{Width: 140, Height: 40})
	return h
}

// send applies msg and returns the command it produced.
func (h *harness) send(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

// run executes cmd and feeds every resulting message of interest back
// into the model until nothing is left.
func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case searchDoneMsg, exportDoneMsg, logTailMsg:
			queue = append(queue, h.send(msg))
		}
	}
}

// elapse ends the current debounce window.
func (h *harness) elapse() {
	h.clock.Advance(h.m.cfg.SuggestDelay)
}

// await feeds field notifications into the model until cond holds.
func (h *harness) await(what string, cond func() bool) {
	h.t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case msg := <-h.msgs:
			h.send(msg)
		case <-deadline:
			h.t.Fatalf("timed out waiting for %s", what)
		}
	}
}

// settled waits until field id has a finished lookup and the model has
// seen its latest state.
func (h *harness) settled(id fieldID) suggest.State[skyapi.Airport] {
	h.t.Helper()
	f := h.m.field(id)
	var s suggest.State[skyapi.Airport]
	h.await(id.String()+" lookup", func() bool {
		s = f.ctrl.State()
		return !s.Loading && s.Open && h.m.field(id).seen == s.Version
	})
	return s
}

// quiet checks that no lookup starts in the next few milliseconds.
func (h *harness) quiet() {
	h.t.Helper()
	time.Sleep(30 * time.Millisecond)
	if got := h.airports.seen(); len(got) != 0 {
		h.t.Fatalf("unexpected lookups %v", got)
	}
}

func (h *harness) typeText(text string) tea.Cmd {
	h.t.Helper()
	var cmds []tea.Cmd
	for _, r := range text {
		cmds = append(cmds, h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}))
	}
	return tea.Batch(cmds...)
}

func (h *harness) press(k tea.KeyType) tea.Cmd {
	h.t.Helper()
	return h.send(tea.KeyMsg{Type: k})
}

func (h *harness) pickAirport(id fieldID, a skyapi.Airport) {
	h.t.Helper()
	h.m.field(id).selectAirport(a)
}

func (h *harness) fillValidForm() {
	h.pickAirport(fieldOrigin, heathrow)
	h.pickAirport(fieldDestination, kennedy)
	h.m.depart.SetValue("2026-11-02")
	h.m.ret.SetValue("2026-11-09")
}

func TestTypingShowsSuggestions(t *testing.T) {
	h := newHarness(t)

	h.typeText("lon")
	h.elapse()
	s := h.settled(fieldOrigin)

	if len(s.Suggestions) != 2 {
		t.Fatalf("suggestions = %v, want Heathrow and Gatwick", s.Suggestions)
	}
	if got := h.airports.seen(); len(got) != 1 || got[0] != "lon" {
		t.Fatalf("queries = %v, want one lookup for %q", got, "lon")
	}
	if !strings.Contains(h.m.View(), "London Heathrow (LHR)") {
		t.Fatalf("view does not list suggestions")
	}
}

func TestBurstTypingIssuesOneLookup(t *testing.T) {
	h := newHarness(t)

	h.typeText("london")
	h.elapse()
	h.settled(fieldOrigin)

	if got := h.airports.seen(); len(got) != 1 || got[0] != "london" {
		t.Fatalf("queries = %v, want a single lookup for the final text", got)
	}
}

func TestShortQueryNeverLooksUp(t *testing.T) {
	h := newHarness(t)

	h.typeText("l")
	h.elapse()
	h.quiet()

	if s := h.m.origin.ctrl.State(); s.Loading || s.Open {
		t.Fatalf("state = %+v for a one-letter query", s)
	}
}

func TestRetypeDuringLookupKeepsOldListOut(t *testing.T) {
	h := newHarness(t)
	gate := make(chan struct{})
	var once sync.Once
	release := func() { once.Do(func() { close(gate) }) }
	t.Cleanup(release)
	h.airports.gate = gate

	h.typeText("lon")
	h.elapse()
	h.await("lookup for lon", func() bool { return len(h.airports.seen()) == 1 })

	// More text arrives, then the lon reply lands before the next window
	// has expired.
	h.typeText("d")
	release()
	time.Sleep(30 * time.Millisecond)

	h.press(tea.KeyEnter)
	if sel := h.m.origin.selected(); sel != nil {
		t.Fatalf("selected %v from the reply for lon", sel.Label())
	}
	if h.m.focus != focusOrigin {
		t.Fatalf("focus moved to %v", h.m.focus)
	}
	if s := h.m.origin.ctrl.State(); len(s.Suggestions) != 0 || s.Query != "lond" || !s.Loading {
		t.Fatalf("state = %+v, want lond waiting for its own lookup", s)
	}
}

func TestOlderFieldStateIgnored(t *testing.T) {
	h := newHarness(t)

	h.send(fieldStateMsg{field: fieldOrigin, state: suggest.State[skyapi.Airport]{Version: 5, Query: "lond"}})
	h.send(fieldStateMsg{field: fieldOrigin, state: suggest.State[skyapi.Airport]{Version: 3, Query: "lo"}})

	if h.m.origin.seen != 5 {
		t.Fatalf("seen = %d, want the newest version kept", h.m.origin.seen)
	}
}

func TestLookupFailureShowsDiagnostic(t *testing.T) {
	h := newHarness(t)
	h.airports.err = errors.New("boom")

	h.typeText("lon")
	h.elapse()
	s := h.settled(fieldOrigin)

	if len(s.Suggestions) != 0 || s.Err == nil {
		t.Fatalf("state = %+v, want empty list with the error kept", s)
	}
	if !strings.Contains(h.m.View(), "airport lookup failed") {
		t.Fatalf("view does not show the lookup failure")
	}
	// The directory reports failures; the UI only adds a debug line.
	if logs := h.logs.String(); strings.Contains(logs, "WARN") || !strings.Contains(logs, "airport suggestions unavailable") {
		t.Fatalf("log output:\n%s", logs)
	}
}

func TestEnterSelectsSuggestionAndAdvances(t *testing.T) {
	h := newHarness(t)
	h.typeText("lon")
	h.elapse()
	h.settled(fieldOrigin)

	h.press(tea.KeyDown)
	h.press(tea.KeyEnter)

	sel := h.m.origin.selected()
	if sel == nil || sel.Route != gatwick.Route {
		t.Fatalf("selected = %v, want Gatwick", sel)
	}
	if got := h.m.origin.input.Value(); got != gatwick.Label() {
		t.Fatalf("input = %q, want %q", got, gatwick.Label())
	}
	if h.m.focus != focusDestination {
		t.Fatalf("focus = %v, want destination", h.m.focus)
	}
}

func TestSelectionCancelsPendingLookup(t *testing.T) {
	h := newHarness(t)
	h.typeText("lon")

	// Choose before the debounce window ends.
	h.pickAirport(fieldOrigin, heathrow)
	h.elapse()
	h.quiet()

	if h.m.origin.selected() == nil {
		t.Fatalf("selection lost")
	}
}

func TestSwapExchangesEndpoints(t *testing.T) {
	h := newHarness(t)
	h.pickAirport(fieldOrigin, heathrow)
	h.m.destination.assign(nil, "new")

	h.send(tea.KeyMsg{Type: tea.KeyCtrlX})
	h.elapse()
	h.await("origin lookup", func() bool { return len(h.airports.seen()) == 1 })

	if sel := h.m.destination.selected(); sel == nil || sel.Route != heathrow.Route {
		t.Fatalf("destination = %v, want Heathrow", sel)
	}
	if h.m.origin.selected() != nil {
		t.Fatalf("origin should have no selection")
	}
	if got := h.m.origin.input.Value(); got != "new" {
		t.Fatalf("origin text = %q, want %q", got, "new")
	}
	// Only the origin's re-armed query may look anything up.
	time.Sleep(30 * time.Millisecond)
	if got := h.airports.seen(); len(got) != 1 || got[0] != "new" {
		t.Fatalf("queries = %v, want one lookup for the origin", got)
	}
	if h.m.destination.ctrl.State().Loading {
		t.Fatalf("destination still loading after swap")
	}
}

func TestSearchRejectsIncompleteForm(t *testing.T) {
	h := newHarness(t)

	cmd := h.send(tea.KeyMsg{Type: tea.KeyCtrlS})

	if cmd != nil {
		t.Fatalf("search started with an empty form")
	}
	if !h.m.noticeIsErr || !strings.Contains(h.m.notice, "choose an origin airport") {
		t.Fatalf("notice = %q, want validation problems", h.m.notice)
	}
	if len(h.flights.calls) != 0 {
		t.Fatalf("flight search called")
	}
}

func TestSearchPopulatesResults(t *testing.T) {
	h := newHarness(t)
	h.fillValidForm()

	h.run(h.send(tea.KeyMsg{Type: tea.KeyCtrlS}))

	if len(h.flights.calls) != 1 {
		t.Fatalf("flight calls = %d, want 1", len(h.flights.calls))
	}
	q := h.flights.calls[0]
	if q.Origin != heathrow.Route || q.Destination != kennedy.Route || q.ReturnDate != "2026-11-09" {
		t.Fatalf("query = %+v", q)
	}
	if len(h.m.snapshot.Itineraries) != 1 || h.m.snapshot.Searching {
		t.Fatalf("snapshot = %+v", h.m.snapshot)
	}
	if view := h.m.View(); !strings.Contains(view, "British Airways") || !strings.Contains(view, "$412") {
		t.Fatalf("results not rendered:\n%s", view)
	}
}

func TestSearchHintReflectsReadiness(t *testing.T) {
	h := newHarness(t)

	if !strings.Contains(h.m.View(), "Search (form incomplete)") {
		t.Fatalf("search hint not disabled for an empty form")
	}
	h.fillValidForm()
	if view := h.m.View(); strings.Contains(view, "Search (") {
		t.Fatalf("search hint still disabled for a valid form")
	}

	h.send(tea.KeyMsg{Type: tea.KeyCtrlS})
	if !strings.Contains(h.m.View(), "Search (search in progress)") {
		t.Fatalf("search hint not disabled while searching")
	}
}

func TestSecondSearchRefusedWhileRunning(t *testing.T) {
	h := newHarness(t)
	h.fillValidForm()

	first := h.send(tea.KeyMsg{Type: tea.KeyCtrlS})
	if first == nil {
		t.Fatalf("first search did not start")
	}
	if again := h.send(tea.KeyMsg{Type: tea.KeyCtrlS}); again != nil {
		t.Fatalf("second search started while the first is running")
	}
	if !h.m.noticeIsErr || !strings.Contains(h.m.notice, "already running") {
		t.Fatalf("notice = %q", h.m.notice)
	}
}

func TestEscCancelsRunningSearch(t *testing.T) {
	h := newHarness(t)
	h.fillValidForm()

	pending := h.send(tea.KeyMsg{Type: tea.KeyCtrlS})
	h.press(tea.KeyEsc)

	if h.m.snapshot.Searching {
		t.Fatalf("search still running after esc")
	}
	if h.m.notice != "search cancelled" {
		t.Fatalf("notice = %q", h.m.notice)
	}

	// The abandoned search finishing later changes nothing.
	h.run(pending)
	if len(h.m.snapshot.Itineraries) != 0 || h.m.snapshot.LastError != nil {
		t.Fatalf("snapshot = %+v, cancelled result was applied", h.m.snapshot)
	}
	if h.m.searchCancel != nil {
		t.Fatalf("search context not released")
	}

	// A new search can start right away.
	h.run(h.send(tea.KeyMsg{Type: tea.KeyCtrlS}))
	if len(h.m.snapshot.Itineraries) != 1 {
		t.Fatalf("snapshot = %+v after a fresh search", h.m.snapshot)
	}
}

func TestSearchFailureKeepsListEmpty(t *testing.T) {
	h := newHarness(t)
	h.fillValidForm()
	h.flights.err = errors.New("connection refused")

	h.run(h.send(tea.KeyMsg{Type: tea.KeyCtrlS}))

	if len(h.m.snapshot.Itineraries) != 0 || h.m.snapshot.LastError == nil {
		t.Fatalf("snapshot = %+v, want empty with error", h.m.snapshot)
	}
	if !strings.Contains(h.m.View(), "OFFLINE") {
		t.Fatalf("header does not classify the failure")
	}
}

func TestOneWaySkipsReturnDate(t *testing.T) {
	h := newHarness(t)
	h.fillValidForm()
	h.send(tea.KeyMsg{Type: tea.KeyCtrlT})

	if h.m.form.Type != trip.OneWay {
		t.Fatalf("trip type = %v, want one-way", h.m.form.Type)
	}
	h.run(h.send(tea.KeyMsg{Type: tea.KeyCtrlS}))
	if len(h.flights.calls) != 1 || h.flights.calls[0].ReturnDate != "" {
		t.Fatalf("calls = %+v, want one-way query", h.flights.calls)
	}

	h.m.focus = focusDepart
	if next := h.m.nextFocus(1); next != focusResults {
		t.Fatalf("nextFocus from depart = %v, want results", next)
	}
}

func TestPassengersModal(t *testing.T) {
	h := newHarness(t)

	h.send(tea.KeyMsg{Type: tea.KeyCtrlP})
	if h.m.modal == nil {
		t.Fatalf("modal not opened")
	}
	h.press(tea.KeyDown)  // children
	h.press(tea.KeyRight) // +1 child
	h.press(tea.KeyEnter)

	if h.m.modal != nil {
		t.Fatalf("modal still open")
	}
	if got := h.m.form.Passengers; got.Adults != 1 || got.Children != 1 {
		t.Fatalf("passengers = %+v, want 1 adult and 1 child", got)
	}

	h.send(tea.KeyMsg{Type: tea.KeyCtrlP})
	h.press(tea.KeyRight)
	h.press(tea.KeyEsc)
	if got := h.m.form.Passengers.Adults; got != 1 {
		t.Fatalf("adults = %d after cancel, want 1", got)
	}
}

func TestThemeAndCabinPersist(t *testing.T) {
	h := newHarness(t)

	h.send(tea.KeyMsg{Type: tea.KeyF2})
	h.send(tea.KeyMsg{Type: tea.KeyCtrlB})

	got := prefs.Load(filepath.Join(h.dir, "prefs.toml"))
	if got.Theme != "Nightfox" || got.Cabin != string(trip.PremiumEconomy) {
		t.Fatalf("prefs = %+v, want Nightfox/premium_economy", got)
	}
}

func TestExportWritesCSV(t *testing.T) {
	h := newHarness(t)
	h.fillValidForm()
	h.run(h.send(tea.KeyMsg{Type: tea.KeyCtrlS}))

	h.run(h.send(tea.KeyMsg{Type: tea.KeyCtrlE}))

	if h.m.noticeIsErr {
		t.Fatalf("export failed: %s", h.m.notice)
	}
	entries, err := os.ReadDir(filepath.Join(h.dir, "exports"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("exports = %v (err %v), want one file", entries, err)
	}
}

func TestQuitDisposesFields(t *testing.T) {
	h := newHarness(t)
	h.typeText("lon")

	cmd := h.send(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("quit returned no command")
	}
	h.elapse()
	h.quiet()
}
