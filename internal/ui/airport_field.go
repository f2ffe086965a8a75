package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"

	"github.com/skyscout/skyscout/internal/skyapi"
	"github.com/skyscout/skyscout/internal/suggest"
)

// fieldID names an airport input.
type fieldID int

const (
	fieldOrigin fieldID = iota
	fieldDestination
)

func (id fieldID) String() string {
	if id == fieldDestination {
		return "destination"
	}
	return "origin"
}

// maxSuggestionRows bounds the visible list.
const maxSuggestionRows = 6

// fieldStateMsg reports a change in one field's suggestion state. The
// controller delivers it from its own goroutine.
type fieldStateMsg struct {
	field fieldID
	state suggest.State[skyapi.Airport]
}

// msgRelay hands controller notifications to the running program. It is
// attached once the program exists and drops messages before that.
type msgRelay struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (r *msgRelay) attach(send func(tea.Msg)) {
	r.mu.Lock()
	r.send = send
	r.mu.Unlock()
}

// forward never blocks; ordering is restored from State.Version.
func (r *msgRelay) forward(msg tea.Msg) {
	r.mu.Lock()
	send := r.send
	r.mu.Unlock()
	if send != nil {
		go send(msg)
	}
}

// airportField pairs a text input with a suggestion controller. The
// controller owns debouncing and lookups; the field renders its state.
type airportField struct {
	id     fieldID
	input  textinput.Model
	ctrl   *suggest.Controller[skyapi.Airport]
	cursor int

	seen   uint64 // newest State.Version handled
	logged string // query of the last list logged
}

func newAirportField(id fieldID, source suggest.Source[skyapi.Airport], opts suggest.Options[skyapi.Airport], clk clockwork.Clock, relay *msgRelay) airportField {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 80
	ti.Width = 32
	if id == fieldOrigin {
		ti.Placeholder = "Where from?"
	} else {
		ti.Placeholder = "Where to?"
	}
	if source == nil {
		source = suggest.SourceFunc[skyapi.Airport](func(context.Context, string) ([]skyapi.Airport, error) {
			return nil, errors.New("airport search unavailable")
		})
	}
	ctrl := suggest.NewController(source, opts, clk, func(s suggest.State[skyapi.Airport]) {
		relay.forward(fieldStateMsg{field: id, state: s})
	})
	return airportField{id: id, input: ti, ctrl: ctrl}
}

// update feeds a key to the input and hands changed text to the
// controller.
func (f *airportField) update(msg tea.Msg) tea.Cmd {
	before := f.input.Value()
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	if f.input.Value() != before {
		f.cursor = 0
		f.ctrl.SetQuery(f.input.Value())
	}
	return cmd
}

// observe records a delivered state. It reports false for a state older
// than one already handled.
func (f *airportField) observe(s suggest.State[skyapi.Airport]) bool {
	if s.Version <= f.seen {
		return false
	}
	f.seen = s.Version
	if s.Loading {
		f.cursor = 0
	}
	return true
}

// choose selects the highlighted suggestion. Nothing is chosen while a
// lookup for newer text is outstanding.
func (f *airportField) choose() bool {
	s := f.ctrl.State()
	if !s.Open || s.Loading || len(s.Suggestions) == 0 {
		return false
	}
	f.selectAirport(s.Suggestions[min(f.cursor, len(s.Suggestions)-1)])
	return true
}

func (f *airportField) selectAirport(a skyapi.Airport) {
	f.ctrl.Select(a)
	f.input.SetValue(a.Label())
	f.input.CursorEnd()
	f.cursor = 0
}

// assign copies another field's selection or text into this one.
func (f *airportField) assign(sel *skyapi.Airport, text string) {
	if sel != nil {
		f.selectAirport(*sel)
		return
	}
	f.ctrl.ClearSelection()
	f.input.SetValue(text)
	f.input.CursorEnd()
	f.cursor = 0
	if text != "" {
		f.ctrl.SetQuery(text)
	}
}

func (f *airportField) moveCursor(delta int) {
	n := len(f.ctrl.State().Suggestions)
	if n == 0 {
		return
	}
	f.cursor = (f.cursor + delta + n) % n
}

func (f *airportField) listOpen() bool {
	s := f.ctrl.State()
	return s.Open && len(s.Suggestions) > 0
}

func (f *airportField) selected() *skyapi.Airport {
	return f.ctrl.State().Selected
}

func (f *airportField) focus() tea.Cmd {
	f.ctrl.Reopen()
	return f.input.Focus()
}

func (f *airportField) blur() {
	f.ctrl.Hide()
	f.input.Blur()
}

func (f *airportField) hide() { f.ctrl.Hide() }

func (f *airportField) dispose() { f.ctrl.Close() }

// renderSuggestions draws the open list under the input, or a status
// line while loading.
func (f airportField) renderSuggestions(styles Styles, width int) string {
	s := f.ctrl.State()
	switch {
	case s.Loading:
		return styles.FaintText.Render("  searching airports...")
	case !s.Open:
		return ""
	case s.Err != nil:
		return styles.FaintText.Render("  airport lookup failed (" + strings.ToLower(classifyError(s.Err)) + ")")
	}

	items := s.Suggestions
	if len(items) == 0 {
		return styles.FaintText.Render("  no matching airports")
	}

	cursor := min(f.cursor, len(items)-1)
	start := 0
	if cursor >= maxSuggestionRows {
		start = cursor - maxSuggestionRows + 1
	}
	end := min(start+maxSuggestionRows, len(items))

	lines := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		a := items[i]
		label := truncate(a.Label(), max(width/2, 20))
		sub := truncate(a.Subtitle(), max(width/2-4, 10))
		if i == cursor {
			line := padRight("› "+label, max(width/2, 20)+2) + "  " + sub
			lines = append(lines, styles.Selected.Render(line))
			continue
		}
		lines = append(lines, "  "+styles.Text.Render(padRight(label, max(width/2, 20)))+"  "+styles.MutedText.Render(sub))
	}
	if len(items) > end {
		lines = append(lines, styles.FaintText.Render(fmt.Sprintf("  +%d more", len(items)-end)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// summary is the one-line rendering used when the field is not focused.
func (f airportField) summary() string {
	if a := f.selected(); a != nil {
		return a.Label()
	}
	return strings.TrimSpace(f.input.Value())
}
