// Package state holds the flight search results shared between the search
// goroutine and the UI.
//
// Store follows a ticket discipline. Begin starts a search and returns a
// ticket; Update applies an outcome only when its ticket is still the
// latest, so a slow search started before a newer one can never overwrite
// fresher results. Cancel retires the running ticket.
//
// Snapshot returns deep copies. Itineraries, their legs and carrier lists
// are cloned, and errors are wrapped so callers never share the stored
// instance.
//
// A failed search empties the list and records LastError together with a
// count of consecutive failures; the header uses IsOffline to tell a
// single failure from an API that stopped answering.
package state
