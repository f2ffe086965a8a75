package suggest

import (
	"slices"
	"time"
	"unicode/utf8"
)

const (
	// DefaultMinLength is the shortest query that triggers a lookup.
	DefaultMinLength = 2
	// DefaultDelay is the quiet period after the last keystroke.
	DefaultDelay = 300 * time.Millisecond
	// DefaultTimeout bounds a single lookup.
	DefaultTimeout = 10 * time.Second
)

// Options configure a suggestion field.
type Options[T any] struct {
	MinLength int           // runes; zero uses DefaultMinLength
	Delay     time.Duration // zero uses DefaultDelay
	Timeout   time.Duration // zero uses DefaultTimeout
	// Label renders a candidate as the text placed in the input after
	// selection. Required.
	Label func(T) string
}

func (o Options[T]) withDefaults() Options[T] {
	if o.MinLength <= 0 {
		o.MinLength = DefaultMinLength
	}
	if o.Delay <= 0 {
		o.Delay = DefaultDelay
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// Request is one lookup the field wants issued.
type Request struct {
	Seq   uint64
	Query string
}

// Field is the state of one autocomplete input. It does no I/O and keeps
// no timers; the owner schedules timers and lookups from the values it
// returns. A Field must only be used from one goroutine at a time.
//
// Two counters guard ordering. timer identifies the latest armed debounce
// window; only an expiry carrying that token is honoured. seq is the
// highest lookup generation issued; only a result carrying that number is
// applied. Cancelling a lookup advances seq without issuing a request, so
// anything still in flight is discarded on arrival.
type Field[T any] struct {
	opts Options[T]

	query       string
	suggestions []T
	loading     bool
	open        bool
	err         error

	selected    *T
	selectLabel string

	timer    uint64
	armed    bool
	seq      uint64
	disposed bool
}

// NewField returns an empty field.
func NewField[T any](opts Options[T]) *Field[T] {
	if opts.Label == nil {
		panic("suggest: Options.Label is required")
	}
	return &Field[T]{opts: opts.withDefaults()}
}

// SetQuery records typed text. It returns the timer token and true when
// the caller must (re)start the debounce window for that token; any
// earlier window is superseded either way.
func (f *Field[T]) SetQuery(text string) (uint64, bool) {
	if f.disposed {
		return 0, false
	}
	f.query = text

	if f.selected != nil {
		if text == f.selectLabel {
			f.cancelPending()
			return 0, false
		}
		f.selected = nil
		f.selectLabel = ""
	}

	if utf8.RuneCountInString(text) < f.opts.MinLength {
		f.cancelPending()
		f.suggestions = nil
		f.open = false
		f.err = nil
		return 0, false
	}

	// A lookup still in flight answers a query that no longer matches.
	// Retire its generation now; loading stays set since a fresh lookup
	// follows once the window expires.
	if f.loading {
		f.seq++
	}
	f.timer++
	f.armed = true
	return f.timer, true
}

// Expire handles the end of a debounce window. Only the latest armed
// token produces a Request; the request captures the query as it is now.
func (f *Field[T]) Expire(token uint64) (Request, bool) {
	if f.disposed || !f.armed || token != f.timer {
		return Request{}, false
	}
	f.armed = false
	f.seq++
	f.loading = true
	return Request{Seq: f.seq, Query: f.query}, true
}

// Resolve applies the outcome of a lookup. Results from anything but the
// most recent generation are dropped and it returns false. A failure
// empties the list; the error is kept for diagnostics only.
func (f *Field[T]) Resolve(seq uint64, items []T, err error) bool {
	if f.disposed || seq != f.seq || !f.loading {
		return false
	}
	f.loading = false
	if err != nil {
		f.suggestions = nil
		f.err = err
	} else {
		f.suggestions = slices.Clone(items)
		f.err = nil
	}
	f.open = true
	return true
}

// Select picks a candidate. The query becomes its label, the list
// closes, and any pending window or lookup is abandoned.
func (f *Field[T]) Select(item T) {
	if f.disposed {
		return
	}
	f.cancelPending()
	chosen := item
	f.selected = &chosen
	f.selectLabel = f.opts.Label(item)
	f.query = f.selectLabel
	f.open = false
	f.err = nil
}

// ClearSelection drops the selection and empties the query.
func (f *Field[T]) ClearSelection() {
	if f.disposed {
		return
	}
	f.cancelPending()
	f.selected = nil
	f.selectLabel = ""
	f.query = ""
	f.suggestions = nil
	f.open = false
	f.err = nil
}

// Close hides the list without touching the query or selection.
func (f *Field[T]) Close() { f.open = false }

// Reopen shows the last list again if there is one.
func (f *Field[T]) Reopen() {
	if !f.disposed && len(f.suggestions) > 0 && f.selected == nil {
		f.open = true
	}
}

// Dispose stops the field for good. Later calls are no-ops.
func (f *Field[T]) Dispose() {
	f.cancelPending()
	f.disposed = true
	f.open = false
}

// Options returns the effective configuration.
func (f *Field[T]) Options() Options[T] { return f.opts }

// Query returns the current text.
func (f *Field[T]) Query() string { return f.query }

// Suggestions returns a copy of the current list.
func (f *Field[T]) Suggestions() []T { return slices.Clone(f.suggestions) }

// Loading reports whether the newest lookup is still outstanding.
func (f *Field[T]) Loading() bool { return f.loading }

// Open reports whether the list should be shown.
func (f *Field[T]) Open() bool { return f.open }

// Err returns the failure behind an empty list, if any.
func (f *Field[T]) Err() error { return f.err }

// Pending reports whether a debounce window is armed.
func (f *Field[T]) Pending() bool { return f.armed }

// Issued returns the highest lookup generation.
func (f *Field[T]) Issued() uint64 { return f.seq }

// Disposed reports whether Dispose has been called.
func (f *Field[T]) Disposed() bool { return f.disposed }

// Selected returns the chosen candidate.
func (f *Field[T]) Selected() (T, bool) {
	if f.selected == nil {
		var zero T
		return zero, false
	}
	return *f.selected, true
}

// Snapshot copies the observable state.
func (f *Field[T]) Snapshot() State[T] {
	s := State[T]{
		Query:       f.query,
		Suggestions: f.Suggestions(),
		Loading:     f.loading,
		Open:        f.open,
		Err:         f.err,
	}
	if f.selected != nil {
		chosen := *f.selected
		s.Selected = &chosen
	}
	return s
}

// cancelPending disarms the debounce window and neutralises the
// outstanding lookup.
func (f *Field[T]) cancelPending() {
	if f.armed {
		f.armed = false
		f.timer++
	}
	if f.loading {
		f.loading = false
		f.seq++
	}
}

// State is a copy of a field's observable state.
type State[T any] struct {
	// Version orders notifications from a Controller. Field.Snapshot
	// leaves it zero.
	Version     uint64
	Query       string
	Suggestions []T
	Loading     bool
	Open        bool
	Selected    *T
	Err         error
}
