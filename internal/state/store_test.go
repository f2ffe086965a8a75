package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/skyscout/skyscout/internal/skyapi"
)

func itins(ids ...string) []skyapi.Itinerary {
	out := make([]skyapi.Itinerary, len(ids))
	for i, id := range ids {
		out[i] = skyapi.Itinerary{
			ID:   id,
			Legs: []skyapi.Leg{{ID: id + "-0", Carriers: []skyapi.Carrier{{Name: "BA"}}}},
		}
	}
	return out
}

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))
	s := NewStore(clk)

	q := skyapi.FlightQuery{Date: "2026-11-01"}
	ticket := s.Begin(q)
	if snap := s.Snapshot(); !snap.Searching || !snap.HasQuery || snap.Query != q {
		t.Fatalf("snapshot after Begin = %+v", snap)
	}

	clk.Advance(3 * time.Second)
	if !s.Update(ticket, itins("a", "b"), nil) {
		t.Fatalf("Update for current ticket not applied")
	}

	snap := s.Snapshot()
	if snap.Searching || len(snap.Itineraries) != 2 || snap.Itineraries[0].ID != "a" {
		t.Fatalf("snapshot = %+v, want 2 itineraries", snap)
	}
	if snap.Elapsed() != 3*time.Second {
		t.Fatalf("Elapsed = %v, want 3s", snap.Elapsed())
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	snap.Itineraries[0].ID = "mutated"
	snap.Itineraries[1].Legs[0].Carriers[0].Name = "mutated"
	snap2 := s.Snapshot()
	if snap2.Itineraries[0].ID != "a" || snap2.Itineraries[1].Legs[0].Carriers[0].Name != "BA" {
		t.Fatalf("Snapshot should deep clone itineraries; got %+v", snap2.Itineraries)
	}
}

func TestStore_StaleTicketIgnored(t *testing.T) {
	var s Store
	first := s.Begin(skyapi.FlightQuery{Date: "2026-11-01"})
	second := s.Begin(skyapi.FlightQuery{Date: "2026-11-02"})

	if s.Update(first, itins("old"), nil) {
		t.Fatalf("stale ticket applied")
	}
	if !s.Snapshot().Searching {
		t.Fatalf("stale update cleared Searching")
	}
	if !s.Update(second, itins("new"), nil) {
		t.Fatalf("current ticket not applied")
	}
	if got := s.Snapshot().Itineraries; len(got) != 1 || got[0].ID != "new" {
		t.Fatalf("itineraries = %+v, want only the second search", got)
	}
	if s.Update(second, nil, errors.New("late duplicate")) {
		t.Fatalf("ticket applied twice")
	}
}

func TestStore_UpdateErrorEmptiesList(t *testing.T) {
	var s Store
	s.Update(s.Begin(skyapi.FlightQuery{}), itins("a"), nil)

	before := time.Now()
	origErr := errors.New("boom")
	s.Update(s.Begin(skyapi.FlightQuery{}), nil, origErr)

	snap := s.Snapshot()
	if len(snap.Itineraries) != 0 {
		t.Fatalf("itineraries = %+v, want empty after failure", snap.Itineraries)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if !errors.Is(snap.LastError, origErr) {
		t.Fatalf("LastError should wrap the original error")
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_Cancel(t *testing.T) {
	var s Store
	ticket := s.Begin(skyapi.FlightQuery{})
	s.Cancel()
	if s.Snapshot().Searching {
		t.Fatalf("Searching = true after Cancel")
	}
	if s.Update(ticket, itins("late"), nil) {
		t.Fatalf("cancelled ticket applied")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store
	fail := func() { s.Update(s.Begin(skyapi.FlightQuery{}), nil, errors.New("fail")) }

	if s.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = true, want false with 0 failures")
	}
	fail()
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("after 1 failure: %d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
	fail()
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("after 2 failures: %d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
	s.Update(s.Begin(skyapi.FlightQuery{}), itins("ok"), nil)
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("after success: %d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
}
