// Package trip holds the flight search form: endpoints, trip type, cabin,
// passengers and dates, plus the rules that decide whether a search may
// run.
package trip

import (
	"fmt"
	"strings"
	"time"

	"github.com/skyscout/skyscout/internal/skyapi"
)

// DateLayout is the form and API date format.
const DateLayout = "2006-01-02"

// Type is round-trip or one-way.
type Type int

const (
	RoundTrip Type = iota
	OneWay
)

// ParseType accepts "round" and "oneway" (case-insensitive). Anything else
// is a round trip.
func ParseType(s string) Type {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oneway", "one-way", "one_way":
		return OneWay
	default:
		return RoundTrip
	}
}

// String returns the persisted form.
func (t Type) String() string {
	if t == OneWay {
		return "oneway"
	}
	return "round"
}

// Title returns the display form.
func (t Type) Title() string {
	if t == OneWay {
		return "One way"
	}
	return "Round trip"
}

// Toggle flips between the two trip types.
func (t Type) Toggle() Type {
	if t == OneWay {
		return RoundTrip
	}
	return OneWay
}

// Cabin is a class of service.
type Cabin string

const (
	Economy        Cabin = "economy"
	PremiumEconomy Cabin = "premium_economy"
	Business       Cabin = "business"
	First          Cabin = "first"
)

var cabins = []Cabin{Economy, PremiumEconomy, Business, First}

// ParseCabin returns the matching cabin, or Economy.
func ParseCabin(s string) Cabin {
	want := Cabin(strings.ToLower(strings.TrimSpace(s)))
	for _, c := range cabins {
		if c == want {
			return c
		}
	}
	return Economy
}

// Next cycles through cabins in ascending order, wrapping after First.
func (c Cabin) Next() Cabin {
	for i, candidate := range cabins {
		if candidate == c {
			return cabins[(i+1)%len(cabins)]
		}
	}
	return Economy
}

// Title returns the display form.
func (c Cabin) Title() string {
	switch c {
	case PremiumEconomy:
		return "Premium economy"
	case Business:
		return "Business"
	case First:
		return "First"
	default:
		return "Economy"
	}
}

// Category selects one passenger counter.
type Category int

const (
	Adults Category = iota
	Children
	InfantsSeat
	InfantsLap
)

// Categories lists counters in display order.
var Categories = []Category{Adults, Children, InfantsSeat, InfantsLap}

// Title returns the display label for the counter.
func (c Category) Title() string {
	switch c {
	case Children:
		return "Children"
	case InfantsSeat:
		return "Infants (seat)"
	case InfantsLap:
		return "Infants (lap)"
	default:
		return "Adults"
	}
}

// Hint describes the age band.
func (c Category) Hint() string {
	switch c {
	case Children:
		return "Aged 2-11"
	case InfantsSeat, InfantsLap:
		return "Under 2"
	default:
		return "Age 12+"
	}
}

// Passengers counts travellers by category.
type Passengers struct {
	Adults      int
	Children    int
	InfantsSeat int
	InfantsLap  int
}

// DefaultPassengers is one adult.
func DefaultPassengers() Passengers { return Passengers{Adults: 1} }

// Count returns the counter for c.
func (p Passengers) Count(c Category) int {
	switch c {
	case Children:
		return p.Children
	case InfantsSeat:
		return p.InfantsSeat
	case InfantsLap:
		return p.InfantsLap
	default:
		return p.Adults
	}
}

// Increment returns p with one more passenger in c.
func (p Passengers) Increment(c Category) Passengers {
	return p.with(c, p.Count(c)+1)
}

// Decrement returns p with one fewer passenger in c. Counts never go
// below zero, and at least one adult always remains.
func (p Passengers) Decrement(c Category) Passengers {
	return p.with(c, p.Count(c)-1)
}

func (p Passengers) with(c Category, n int) Passengers {
	floor := 0
	if c == Adults {
		floor = 1
	}
	n = max(n, floor)
	switch c {
	case Children:
		p.Children = n
	case InfantsSeat:
		p.InfantsSeat = n
	case InfantsLap:
		p.InfantsLap = n
	default:
		p.Adults = n
	}
	return p
}

// Total is the number of travellers.
func (p Passengers) Total() int {
	return p.Adults + p.Children + p.InfantsSeat + p.InfantsLap
}

// Infants is the combined infant count sent to the API.
func (p Passengers) Infants() int { return p.InfantsSeat + p.InfantsLap }

// Summary renders "1 passenger" or "N passengers".
func (p Passengers) Summary() string {
	if n := p.Total(); n != 1 {
		return fmt.Sprintf("%d passengers", n)
	}
	return "1 passenger"
}

// Form is the full search request as the user edits it.
type Form struct {
	Origin      *skyapi.Airport
	Destination *skyapi.Airport
	Type        Type
	Cabin       Cabin
	Passengers  Passengers
	Depart      string
	Return      string
}

// NewForm returns an empty form with the given defaults.
func NewForm(t Type, c Cabin) Form {
	return Form{Type: t, Cabin: c, Passengers: DefaultPassengers()}
}

// Swap exchanges origin and destination.
func (f *Form) Swap() {
	f.Origin, f.Destination = f.Destination, f.Origin
}

// ValidationError lists every reason a form cannot be searched.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "search incomplete: " + strings.Join(e.Problems, "; ")
}

// Validate checks the form against today's date. Dates are compared as
// calendar days in today's location.
func (f Form) Validate(today time.Time) error {
	var problems []string

	if f.Origin == nil || !f.Origin.Route.Valid() {
		problems = append(problems, "choose an origin airport")
	}
	if f.Destination == nil || !f.Destination.Route.Valid() {
		problems = append(problems, "choose a destination airport")
	}
	if f.Origin != nil && f.Destination != nil && f.Origin.Route == f.Destination.Route && f.Origin.Route.Valid() {
		problems = append(problems, "origin and destination must differ")
	}

	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	depart, departErr := parseDate(f.Depart, day.Location())
	switch {
	case strings.TrimSpace(f.Depart) == "":
		problems = append(problems, "enter a departure date")
	case departErr != nil:
		problems = append(problems, "departure date must be YYYY-MM-DD")
	case depart.Before(day):
		problems = append(problems, "departure date is in the past")
	}

	if f.Type == RoundTrip {
		ret, retErr := parseDate(f.Return, day.Location())
		switch {
		case strings.TrimSpace(f.Return) == "":
			problems = append(problems, "enter a return date")
		case retErr != nil:
			problems = append(problems, "return date must be YYYY-MM-DD")
		case departErr == nil && ret.Before(depart):
			problems = append(problems, "return date is before departure")
		}
	}

	if f.Passengers.Adults < 1 {
		problems = append(problems, "at least one adult is required")
	}
	if f.Passengers.InfantsLap > f.Passengers.Adults {
		problems = append(problems, "each lap infant needs an adult")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Query validates the form and builds the API request.
func (f Form) Query(today time.Time) (skyapi.FlightQuery, error) {
	if err := f.Validate(today); err != nil {
		return skyapi.FlightQuery{}, err
	}
	q := skyapi.FlightQuery{
		Origin:      f.Origin.Route,
		Destination: f.Destination.Route,
		Cabin:       string(f.Cabin),
		Adults:      f.Passengers.Adults,
		Children:    f.Passengers.Children,
		Infants:     f.Passengers.Infants(),
		Date:        strings.TrimSpace(f.Depart),
	}
	if f.Type == RoundTrip {
		q.ReturnDate = strings.TrimSpace(f.Return)
	}
	return q, nil
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
}
