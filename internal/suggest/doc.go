// Package suggest implements debounced type-ahead lookups for a single
// text input.
//
// A Field holds the input text, the candidate list, the loading flag and
// the current selection. It never performs I/O. Callers feed it events
// (typed text, timer expiry, lookup results, a selection) and act on what
// it returns: a timer token to arm, or a Request to send to the remote
// source.
//
// Ordering rules:
//
//   - Queries shorter than Options.MinLength runes never reach the source
//     and clear the list.
//   - Only the last keystroke inside Options.Delay starts a lookup.
//   - Only the most recently issued lookup may change the list; earlier
//     replies are discarded whenever they arrive.
//   - Selecting a candidate cancels the pending timer and any outstanding
//     lookup.
//
// Controller wraps a Field with a clockwork.Clock and goroutines. It
// reports changes to a listener one at a time, newest last, and never
// waits on the listener while holding its lock.
package suggest
