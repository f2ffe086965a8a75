package skyapi

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const skyTimestampLayout = "2006-01-02T15:04:05"

// RouteID is the identifier pair the flight search needs for one place.
type RouteID struct {
	SkyID    string
	EntityID string
}

// Valid reports whether both halves are present.
func (r RouteID) Valid() bool {
	return strings.TrimSpace(r.SkyID) != "" && strings.TrimSpace(r.EntityID) != ""
}

// Airport is one autocomplete candidate: an airport or a whole city.
type Airport struct {
	Name     string
	CityCode string
	City     string
	Country  string
	Route    RouteID
}

// Label is the text shown in the input once the candidate is picked.
func (a Airport) Label() string {
	code := a.CityCode
	if code == "" {
		code = "Any"
	}
	return fmt.Sprintf("%s (%s)", a.Name, code)
}

// Subtitle renders "City, Country" with whichever halves are known.
func (a Airport) Subtitle() string {
	switch {
	case a.City != "" && a.Country != "":
		return a.City + ", " + a.Country
	case a.City != "":
		return a.City
	default:
		return a.Country
	}
}

// Itinerary is one bookable option from the flight search.
type Itinerary struct {
	ID    string
	Price Price
	Legs  []Leg
}

// Price carries the raw amount and the API's display string.
type Price struct {
	Raw       float64
	Formatted string
}

// Leg is one direction of travel within an itinerary.
type Leg struct {
	ID              string
	Origin          Place
	Destination     Place
	DurationMinutes int
	StopCount       int
	Departure       time.Time
	Arrival         time.Time
	Carriers        []Carrier
}

// Place is an endpoint of a leg.
type Place struct {
	ID          string
	Name        string
	DisplayCode string
	City        string
}

// Carrier is a marketing airline.
type Carrier struct {
	Name    string
	LogoURL string
}

// Outbound returns the first leg. Validated itineraries always have one.
func (i Itinerary) Outbound() Leg {
	if len(i.Legs) == 0 {
		return Leg{}
	}
	return i.Legs[0]
}

// Inbound returns the return leg of a round trip.
func (i Itinerary) Inbound() (Leg, bool) {
	if len(i.Legs) < 2 {
		return Leg{}, false
	}
	return i.Legs[1], true
}

// MarketingCarrier returns the first marketing carrier, or a zero value.
func (l Leg) MarketingCarrier() Carrier {
	if len(l.Carriers) == 0 {
		return Carrier{}
	}
	return l.Carriers[0]
}

// Duration converts DurationMinutes into a time.Duration.
func (l Leg) Duration() time.Duration {
	return time.Duration(l.DurationMinutes) * time.Minute
}

// Wire shapes. Only the fields SkyScout reads are declared.

type envelope struct {
	Status  *bool           `json:"status"`
	Message json.RawMessage `json:"message"`
}

// failure returns the API-level error carried in a 200 response.
func (e envelope) failure(path string) error {
	if e.Status == nil || *e.Status {
		return nil
	}
	return &APIError{Path: path, Message: messageText(e.Message)}
}

type airportResponse struct {
	envelope
	Data []airportWire `json:"data"`
}

type airportWire struct {
	SkyID        string `json:"skyId"`
	EntityID     string `json:"entityId"`
	Presentation struct {
		Title           string `json:"title"`
		SuggestionTitle string `json:"suggestionTitle"`
		Subtitle        string `json:"subtitle"`
	} `json:"presentation"`
	Navigation struct {
		EntityID             string `json:"entityId"`
		EntityType           string `json:"entityType"`
		LocalizedName        string `json:"localizedName"`
		RelevantFlightParams struct {
			SkyID           string `json:"skyId"`
			EntityID        string `json:"entityId"`
			FlightPlaceType string `json:"flightPlaceType"`
			LocalizedName   string `json:"localizedName"`
		} `json:"relevantFlightParams"`
	} `json:"navigation"`
}

type flightsResponse struct {
	envelope
	Data struct {
		Context struct {
			Status       string `json:"status"`
			TotalResults int    `json:"totalResults"`
		} `json:"context"`
		Itineraries []itineraryWire `json:"itineraries"`
	} `json:"data"`
}

type itineraryWire struct {
	ID    string `json:"id"`
	Price struct {
		Raw       float64 `json:"raw"`
		Formatted string  `json:"formatted"`
	} `json:"price"`
	Legs []legWire `json:"legs"`
}

type legWire struct {
	ID                string    `json:"id"`
	Origin            placeWire `json:"origin"`
	Destination       placeWire `json:"destination"`
	DurationInMinutes int       `json:"durationInMinutes"`
	StopCount         int       `json:"stopCount"`
	Departure         string    `json:"departure"`
	Arrival           string    `json:"arrival"`
	Carriers          struct {
		Marketing []struct {
			Name    string `json:"name"`
			LogoURL string `json:"logoUrl"`
		} `json:"marketing"`
	} `json:"carriers"`
}

type placeWire struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayCode string `json:"displayCode"`
	City        string `json:"city"`
}

// toAirport validates one candidate. Entries with nothing to display are
// rejected; every other missing field gets an empty default.
func (w airportWire) toAirport() (Airport, bool) {
	params := w.Navigation.RelevantFlightParams
	skyID := firstNonEmpty(w.SkyID, params.SkyID)
	entityID := firstNonEmpty(w.EntityID, params.EntityID, w.Navigation.EntityID)
	name := firstNonEmpty(w.Presentation.Title, w.Navigation.LocalizedName, params.LocalizedName, skyID)
	if name == "" {
		return Airport{}, false
	}

	city := ""
	if fields := strings.Fields(w.Navigation.LocalizedName); len(fields) > 0 {
		city = fields[0]
	}

	return Airport{
		Name:     name,
		CityCode: skyID,
		City:     city,
		Country:  strings.TrimSpace(w.Presentation.Subtitle),
		Route:    RouteID{SkyID: skyID, EntityID: entityID},
	}, true
}

// toItinerary validates one itinerary. Itineraries without legs cannot be
// rendered and are rejected.
func (w itineraryWire) toItinerary() (Itinerary, bool) {
	if len(w.Legs) == 0 {
		return Itinerary{}, false
	}
	legs := make([]Leg, 0, len(w.Legs))
	for _, lw := range w.Legs {
		leg := Leg{
			ID:              lw.ID,
			Origin:          Place(lw.Origin),
			Destination:     Place(lw.Destination),
			DurationMinutes: max(lw.DurationInMinutes, 0),
			StopCount:       max(lw.StopCount, 0),
			Departure:       parseTime(lw.Departure),
			Arrival:         parseTime(lw.Arrival),
		}
		for _, c := range lw.Carriers.Marketing {
			leg.Carriers = append(leg.Carriers, Carrier{
				Name:    strings.TrimSpace(c.Name),
				LogoURL: strings.TrimSpace(c.LogoURL),
			})
		}
		legs = append(legs, leg)
	}
	return Itinerary{
		ID:    w.ID,
		Price: Price{Raw: w.Price.Raw, Formatted: strings.TrimSpace(w.Price.Formatted)},
		Legs:  legs,
	}, true
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, skyTimestampLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// messageText flattens the API's message field, which is sometimes a
// string and sometimes an object or list of validation errors.
func messageText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
