// Package results turns itineraries into display rows and CSV exports.
package results

import (
	"fmt"
	"time"

	"github.com/skyscout/skyscout/internal/skyapi"
)

const (
	// UnknownCarrier replaces a missing marketing carrier name.
	UnknownCarrier = "Unknown Airline"
	// NoPrice replaces a missing formatted price.
	NoPrice = "Price unavailable"
)

// Row is one itinerary flattened for display and export.
type Row struct {
	Carrier     string    `csv:"carrier"`
	LogoURL     string    `csv:"logo_url,omitempty"`
	Price       string    `csv:"price"`
	RawPrice    float64   `csv:"raw_price,omitempty"`
	Origin      string    `csv:"origin"`
	Destination string    `csv:"destination"`
	Departure   time.Time `csv:"departure"`
	Arrival     time.Time `csv:"arrival"`
	Duration    string    `csv:"duration"`
	Stops       string    `csv:"stops"`
	Return      string    `csv:"return,omitempty"`
}

// Summarize flattens the outbound leg of it, and the inbound leg's route
// and duration when present.
func Summarize(it skyapi.Itinerary) Row {
	out := it.Outbound()
	carrier := out.MarketingCarrier()

	row := Row{
		Carrier:     carrier.Name,
		LogoURL:     carrier.LogoURL,
		Price:       it.Price.Formatted,
		RawPrice:    it.Price.Raw,
		Origin:      placeCode(out.Origin),
		Destination: placeCode(out.Destination),
		Departure:   out.Departure,
		Arrival:     out.Arrival,
		Duration:    FormatDuration(out.DurationMinutes),
		Stops:       FormatStops(out.StopCount),
	}
	if row.Carrier == "" {
		row.Carrier = UnknownCarrier
	}
	if row.Price == "" {
		row.Price = NoPrice
	}
	if in, ok := it.Inbound(); ok {
		row.Return = fmt.Sprintf("%s-%s %s, %s",
			placeCode(in.Origin), placeCode(in.Destination),
			FormatDuration(in.DurationMinutes), FormatStops(in.StopCount))
	}
	return row
}

// SummarizeAll flattens every itinerary, keeping order.
func SummarizeAll(items []skyapi.Itinerary) []Row {
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, Summarize(it))
	}
	return rows
}

// FormatDuration renders minutes as "Hh Mm".
func FormatDuration(minutes int) string {
	if minutes <= 0 {
		return "0h 0m"
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// FormatStops renders a stop count.
func FormatStops(n int) string {
	switch {
	case n <= 0:
		return "Nonstop"
	case n == 1:
		return "1 stop"
	default:
		return fmt.Sprintf("%d stops", n)
	}
}

func placeCode(p skyapi.Place) string {
	switch {
	case p.DisplayCode != "":
		return p.DisplayCode
	case p.Name != "":
		return p.Name
	default:
		return "?"
	}
}
