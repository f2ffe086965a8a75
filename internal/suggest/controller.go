package suggest

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
)

// Source produces candidates for a query. Implementations should honour
// ctx cancellation; the returned slice may be nil on error.
type Source[T any] interface {
	Search(ctx context.Context, query string) ([]T, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc[T any] func(ctx context.Context, query string) ([]T, error)

// Search calls f.
func (f SourceFunc[T]) Search(ctx context.Context, query string) ([]T, error) {
	return f(ctx, query)
}

// Controller drives a Field with real timers and background lookups. It
// is safe for concurrent use and none of its methods wait on the
// listener.
//
// Changes are delivered to the listener from a single goroutine in the
// order they happened. While the listener is busy, further changes
// coalesce and the next call receives the newest state, so the last
// delivered state always matches State.
type Controller[T any] struct {
	mu       sync.Mutex
	field    *Field[T]
	source   Source[T]
	clock    clockwork.Clock
	timer    clockwork.Timer
	onChange func(State[T])

	// version counts changes; the deliverer compares it with what it
	// last handed to onChange.
	version uint64
	wake    chan struct{}

	inflight    context.CancelFunc
	inflightSeq uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewController builds a controller. A nil clk uses the real clock and a
// nil onChange drops notifications.
func NewController[T any](source Source[T], opts Options[T], clk clockwork.Clock, onChange func(State[T])) *Controller[T] {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if onChange == nil {
		onChange = func(State[T]) {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller[T]{
		field:    NewField(opts),
		source:   source,
		clock:    clk,
		onChange: onChange,
		wake:     make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
	c.wg.Add(1)
	go c.deliver()
	return c
}

// SetQuery records typed text and restarts the debounce window when the
// text is long enough to search.
func (c *Controller[T]) SetQuery(text string) {
	c.mutate(func() {
		c.stopTimerLocked()
		token, schedule := c.field.SetQuery(text)
		if schedule {
			c.timer = c.clock.AfterFunc(c.field.opts.Delay, func() { c.expire(token) })
		}
	})
}

// Select picks a candidate and cancels the pending window.
func (c *Controller[T]) Select(item T) {
	c.mutate(func() {
		c.stopTimerLocked()
		c.field.Select(item)
	})
}

// ClearSelection drops the selection and empties the query.
func (c *Controller[T]) ClearSelection() {
	c.mutate(func() {
		c.stopTimerLocked()
		c.field.ClearSelection()
	})
}

// Hide closes the list, for example when the field loses focus.
func (c *Controller[T]) Hide() {
	c.mutate(c.field.Close)
}

// Reopen shows the last list again if there is one.
func (c *Controller[T]) Reopen() {
	c.mutate(c.field.Reopen)
}

// State returns the current observable state.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close stops the pending timer, cancels lookups in flight and waits for
// them and the listener to return. No notification is delivered after
// Close returns.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	c.stopTimerLocked()
	c.field.Dispose()
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}

// mutate applies fn under the lock and schedules a notification.
func (c *Controller[T]) mutate(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.field.Disposed() {
		return
	}
	fn()
	c.cancelStaleLocked()
	c.changedLocked()
}

func (c *Controller[T]) expire(token uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, ok := c.field.Expire(token)
	if !ok {
		return
	}
	c.timer = nil
	c.cancelStaleLocked()

	ctx, cancel := context.WithTimeout(c.ctx, c.field.opts.Timeout)
	c.inflight = cancel
	c.inflightSeq = req.Seq
	c.changedLocked()

	c.wg.Add(1)
	go c.lookup(ctx, cancel, req)
}

func (c *Controller[T]) lookup(ctx context.Context, cancel context.CancelFunc, req Request) {
	defer c.wg.Done()
	defer cancel()

	items, err := c.source.Search(ctx, req.Query)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflightSeq == req.Seq {
		c.inflight = nil
	}
	if c.field.Resolve(req.Seq, items, err) {
		c.changedLocked()
	}
}

// deliver hands states to onChange one at a time.
func (c *Controller[T]) deliver() {
	defer c.wg.Done()

	var sent uint64
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.wake:
		}

		c.mu.Lock()
		if c.field.Disposed() {
			c.mu.Unlock()
			return
		}
		if c.version == sent {
			c.mu.Unlock()
			continue
		}
		state := c.snapshotLocked()
		sent = state.Version
		c.mu.Unlock()

		c.onChange(state)
	}
}

func (c *Controller[T]) changedLocked() {
	c.version++
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Controller[T]) snapshotLocked() State[T] {
	s := c.field.Snapshot()
	s.Version = c.version
	return s
}

// cancelStaleLocked aborts the lookup in flight once its generation can
// no longer be applied.
func (c *Controller[T]) cancelStaleLocked() {
	if c.inflight == nil {
		return
	}
	if c.field.Loading() && c.field.Issued() == c.inflightSeq {
		return
	}
	c.inflight()
	c.inflight = nil
}

func (c *Controller[T]) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
