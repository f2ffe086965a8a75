package suggest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type lookupCall struct {
	query string
	ctx   context.Context
	reply chan lookupReply
}

type lookupReply struct {
	items []place
	err   error
}

// scriptedSource hands every lookup to the test, which answers it when it
// chooses.
type scriptedSource struct {
	calls chan lookupCall
}

func newScriptedSource() *scriptedSource {
	return &scriptedSource{calls: make(chan lookupCall, 16)}
}

func (s *scriptedSource) Search(ctx context.Context, query string) ([]place, error) {
	call := lookupCall{query: query, ctx: ctx, reply: make(chan lookupReply, 1)}
	s.calls <- call
	select {
	case r := <-call.reply:
		return r.items, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *scriptedSource) next(t *testing.T) lookupCall {
	t.Helper()
	select {
	case c := <-s.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatalf("no lookup issued")
		return lookupCall{}
	}
}

func (s *scriptedSource) none(t *testing.T) {
	t.Helper()
	select {
	case c := <-s.calls:
		t.Fatalf("unexpected lookup for %q", c.query)
	case <-time.After(20 * time.Millisecond):
	}
}

type harness struct {
	clk     *clockwork.FakeClock
	source  *scriptedSource
	ctrl    *Controller[place]
	changes chan State[place]
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clk:     clockwork.NewFakeClockAt(time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)),
		source:  newScriptedSource(),
		changes: make(chan State[place], 64),
	}
	h.ctrl = NewController[place](h.source, Options[place]{Label: placeLabel}, h.clk, func(s State[place]) {
		h.changes <- s
	})
	t.Cleanup(h.ctrl.Close)
	return h
}

// waitFor drains notifications until one satisfies match.
func (h *harness) waitFor(t *testing.T, match func(State[place]) bool) State[place] {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-h.changes:
			if match(s) {
				return s
			}
		case <-deadline:
			t.Fatalf("state never matched; current %+v", h.ctrl.State())
			return State[place]{}
		}
	}
}

func TestController_LonProducesTwoCandidates(t *testing.T) {
	h := newHarness(t)
	h.ctrl.SetQuery("Lon")
	h.clk.Advance(DefaultDelay)

	call := h.source.next(t)
	if call.query != "Lon" {
		t.Fatalf("lookup query = %q, want Lon", call.query)
	}
	call.reply <- lookupReply{items: []place{london, heathrow}}

	s := h.waitFor(t, func(s State[place]) bool { return !s.Loading && s.Open })
	if len(s.Suggestions) != 2 {
		t.Fatalf("suggestions = %v, want 2 candidates", s.Suggestions)
	}
}

func TestController_BurstTypingIssuesOneLookup(t *testing.T) {
	h := newHarness(t)
	h.ctrl.SetQuery("L")
	h.clk.Advance(20 * time.Millisecond)
	h.ctrl.SetQuery("Lo")
	h.clk.Advance(20 * time.Millisecond)
	h.ctrl.SetQuery("Lon")

	h.clk.Advance(DefaultDelay - time.Millisecond)
	h.source.none(t)

	h.clk.Advance(time.Millisecond)
	call := h.source.next(t)
	if call.query != "Lon" {
		t.Fatalf("lookup query = %q, want Lon", call.query)
	}
	h.source.none(t)
	call.reply <- lookupReply{}
}

func TestController_ShortQueryNeverLooksUp(t *testing.T) {
	h := newHarness(t)
	h.ctrl.SetQuery("L")
	h.clk.Advance(time.Hour)
	h.source.none(t)
	if s := h.ctrl.State(); s.Loading || s.Open {
		t.Fatalf("short query state = %+v, want idle", s)
	}
}

func TestController_RetypeDuringLookupDropsOldResult(t *testing.T) {
	h := newHarness(t)
	h.ctrl.SetQuery("Lon")
	h.clk.Advance(DefaultDelay)
	call := h.source.next(t)

	h.ctrl.SetQuery("Mad")
	select {
	case <-call.ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("lookup for Lon still running after the query changed")
	}
	call.reply <- lookupReply{items: []place{london, heathrow}}

	h.clk.Advance(DefaultDelay)
	madrid := h.source.next(t)
	if madrid.query != "Mad" {
		t.Fatalf("lookup query = %q, want Mad", madrid.query)
	}
	if s := h.ctrl.State(); len(s.Suggestions) != 0 {
		t.Fatalf("suggestions = %v while Mad is loading, want none", s.Suggestions)
	}
	madrid.reply <- lookupReply{}
}

func TestController_SlowListenerEndsOnNewestState(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC))
	source := newScriptedSource()
	entered := make(chan struct{}, 1)
	release := make(chan struct{})

	var mu sync.Mutex
	var delivered []State[place]
	ctrl := NewController[place](source, Options[place]{Label: placeLabel}, clk, func(s State[place]) {
		if len(s.Suggestions) > 0 {
			entered <- struct{}{}
			<-release
		}
		mu.Lock()
		delivered = append(delivered, s)
		mu.Unlock()
	})
	defer ctrl.Close()

	ctrl.SetQuery("Lon")
	clk.Advance(DefaultDelay)
	source.next(t).reply <- lookupReply{items: []place{london, heathrow}}

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("listener never saw the Lon result")
	}

	// The listener is stuck on the Lon result; typing must not wait for it.
	done := make(chan struct{})
	go func() {
		ctrl.SetQuery("L")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("SetQuery blocked on a busy listener")
	}
	close(release)

	last := func() State[place] {
		mu.Lock()
		defer mu.Unlock()
		if len(delivered) == 0 {
			return State[place]{}
		}
		return delivered[len(delivered)-1]
	}
	deadline := time.Now().Add(2 * time.Second)
	for last().Query != "L" {
		if time.Now().After(deadline) {
			t.Fatalf("last delivered state = %+v, want query L", last())
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(30 * time.Millisecond)

	got := last()
	want := ctrl.State()
	if got.Query != want.Query || len(got.Suggestions) != len(want.Suggestions) || got.Version != want.Version {
		t.Fatalf("last delivered %+v, controller state %+v", got, want)
	}

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(delivered); i++ {
		if delivered[i].Version <= delivered[i-1].Version {
			t.Fatalf("delivery out of order: version %d after %d", delivered[i].Version, delivered[i-1].Version)
		}
	}
}

func TestController_SelectBeforeExpiryCancelsLookup(t *testing.T) {
	h := newHarness(t)
	h.ctrl.SetQuery("Lon")
	h.clk.Advance(100 * time.Millisecond)
	h.ctrl.Select(heathrow)

	h.clk.Advance(DefaultDelay)
	h.source.none(t)

	s := h.ctrl.State()
	if s.Selected == nil || *s.Selected != heathrow {
		t.Fatalf("Selected = %v, want heathrow", s.Selected)
	}
	if s.Open || s.Loading {
		t.Fatalf("open=%v loading=%v after select", s.Open, s.Loading)
	}
}

func TestController_OutOfOrderRepliesKeepNewest(t *testing.T) {
	h := newHarness(t)
	var calls []lookupCall
	for _, q := range []string{"Lo", "Lon", "Lond"} {
		h.ctrl.SetQuery(q)
		h.clk.Advance(DefaultDelay)
		calls = append(calls, h.source.next(t))
	}

	calls[2].reply <- lookupReply{items: []place{london}}
	h.waitFor(t, func(s State[place]) bool { return !s.Loading && len(s.Suggestions) == 1 })
	calls[0].reply <- lookupReply{items: []place{lisbon}}
	calls[1].reply <- lookupReply{err: errors.New("timeout")}

	// Stale replies never notify; give their goroutines time to land.
	select {
	case s := <-h.changes:
		t.Fatalf("stale reply produced a notification: %+v", s)
	case <-time.After(50 * time.Millisecond):
	}
	s := h.ctrl.State()
	if len(s.Suggestions) != 1 || s.Suggestions[0] != london || s.Err != nil {
		t.Fatalf("state = %+v, want only the Lond reply", s)
	}
}

func TestController_FailureEmptiesList(t *testing.T) {
	h := newHarness(t)
	h.ctrl.SetQuery("Lon")
	h.clk.Advance(DefaultDelay)
	h.source.next(t).reply <- lookupReply{err: errors.New("502 bad gateway")}

	s := h.waitFor(t, func(s State[place]) bool { return !s.Loading && s.Err != nil })
	if len(s.Suggestions) != 0 {
		t.Fatalf("suggestions = %v, want empty after failure", s.Suggestions)
	}
}

func TestController_CloseCancelsInFlightAndSilences(t *testing.T) {
	h := newHarness(t)
	h.ctrl.SetQuery("Lon")
	h.clk.Advance(DefaultDelay)
	call := h.source.next(t)

	h.ctrl.SetQuery("Lond")
	h.ctrl.Close()

	select {
	case <-call.ctx.Done():
	default:
		t.Fatalf("in-flight lookup context not cancelled by Close")
	}

	for len(h.changes) > 0 {
		<-h.changes
	}
	h.clk.Advance(time.Hour)
	h.ctrl.SetQuery("Paris")
	h.clk.Advance(time.Hour)
	h.source.none(t)
	select {
	case s := <-h.changes:
		t.Fatalf("notification after Close: %+v", s)
	default:
	}
}
