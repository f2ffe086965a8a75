package skyapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a place name resolves to no candidate.
	ErrNotFound = errors.New("no matching place")
	// ErrMissingCredentials is returned by NewClient without a key or host.
	ErrMissingCredentials = errors.New("api key and host are required")
)

// APIError reports a non-2xx response or a 200 response with status=false.
type APIError struct {
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString("api ")
	b.WriteString(e.Path)
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " returned status %d", e.StatusCode)
	} else {
		b.WriteString(" reported failure")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// AirportSearcher looks up autocomplete candidates for a query.
type AirportSearcher interface {
	SearchAirports(ctx context.Context, query string) ([]Airport, error)
}

// FlightSearcher runs a flight search between two resolved places.
type FlightSearcher interface {
	SearchFlights(ctx context.Context, q FlightQuery) ([]Itinerary, error)
}

// Ensure Client implements both lookups at compile time.
var (
	_ AirportSearcher = (*Client)(nil)
	_ FlightSearcher  = (*Client)(nil)
)

// Options configure a Client. APIKey and Host are required.
type Options struct {
	APIKey string
	Host   string
	// BaseURL overrides https://<Host>, mainly for tests and proxies.
	BaseURL     string
	Locale      string
	Market      string
	Currency    string
	CountryCode string
	Timeout     time.Duration
	UserAgent   string
}

// Client talks to the Sky Scrapper flight API.
type Client struct {
	baseURL     *url.URL
	http        *http.Client
	apiKey      string
	host        string
	locale      string
	market      string
	currency    string
	countryCode string
	userAgent   string
}

const (
	defaultLocale      = "en-US"
	defaultCurrency    = "USD"
	defaultCountryCode = "US"
	defaultUserAgent   = "skyscout/0.1"
	defaultTimeout     = 15 * time.Second
	maxErrorBody       = 4 << 10

	airportPath = "/api/v1/flights/searchAirport"
	flightsPath = "/api/v2/flights/searchFlights"
)

// NewClient builds a Client from explicit options.
func NewClient(opts Options) (*Client, error) {
	key := strings.TrimSpace(opts.APIKey)
	host := strings.TrimSpace(opts.Host)
	if key == "" || host == "" {
		return nil, ErrMissingCredentials
	}
	base, err := parseBaseURL(opts.BaseURL, host)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:     base,
		http:        &http.Client{Timeout: timeout},
		apiKey:      key,
		host:        host,
		locale:      orDefault(opts.Locale, defaultLocale),
		market:      orDefault(opts.Market, defaultLocale),
		currency:    orDefault(opts.Currency, defaultCurrency),
		countryCode: orDefault(opts.CountryCode, defaultCountryCode),
		userAgent:   orDefault(opts.UserAgent, defaultUserAgent),
	}, nil
}

// SearchAirports returns the candidates matching query. The result is
// never nil when err is nil.
func (c *Client) SearchAirports(ctx context.Context, query string) ([]Airport, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	values.Set("query", strings.TrimSpace(query))
	values.Set("locale", c.locale)

	var payload airportResponse
	if err := c.get(ctx, airportPath, values, &payload); err != nil {
		return nil, err
	}
	if err := payload.failure(airportPath); err != nil {
		return nil, err
	}

	airports := make([]Airport, 0, len(payload.Data))
	for _, w := range payload.Data {
		if a, ok := w.toAirport(); ok {
			airports = append(airports, a)
		}
	}
	return airports, nil
}

// ResolveRouteEndpoints resolves a place name to the route pair of its
// best match.
func (c *Client) ResolveRouteEndpoints(ctx context.Context, name string) (RouteID, error) {
	airports, err := c.SearchAirports(ctx, name)
	if err != nil {
		return RouteID{}, err
	}
	for _, a := range airports {
		if a.Route.Valid() {
			return a.Route, nil
		}
	}
	return RouteID{}, fmt.Errorf("resolve %q: %w", name, ErrNotFound)
}

// FlightQuery configures a flight search.
type FlightQuery struct {
	Origin      RouteID
	Destination RouteID
	Cabin       string
	Adults      int
	Children    int
	Infants     int
	Date        string // YYYY-MM-DD
	ReturnDate  string // empty for one-way
}

// SearchFlights retrieves itineraries sorted by the API's "best" order.
func (c *Client) SearchFlights(ctx context.Context, q FlightQuery) ([]Itinerary, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if !q.Origin.Valid() || !q.Destination.Valid() {
		return nil, fmt.Errorf("origin and destination route ids required")
	}
	if strings.TrimSpace(q.Date) == "" {
		return nil, fmt.Errorf("departure date required")
	}

	values := url.Values{}
	values.Set("originSkyId", q.Origin.SkyID)
	values.Set("originEntityId", q.Origin.EntityID)
	values.Set("destinationSkyId", q.Destination.SkyID)
	values.Set("destinationEntityId", q.Destination.EntityID)
	values.Set("cabinClass", orDefault(q.Cabin, "economy"))
	values.Set("adults", strconv.Itoa(max(q.Adults, 1)))
	values.Set("children", strconv.Itoa(max(q.Children, 0)))
	values.Set("infants", strconv.Itoa(max(q.Infants, 0)))
	values.Set("sortBy", "best")
	values.Set("currency", c.currency)
	values.Set("market", c.market)
	values.Set("countryCode", c.countryCode)
	values.Set("date", q.Date)
	if ret := strings.TrimSpace(q.ReturnDate); ret != "" {
		values.Set("returnDate", ret)
	}

	var payload flightsResponse
	if err := c.get(ctx, flightsPath, values, &payload); err != nil {
		return nil, err
	}
	if err := payload.failure(flightsPath); err != nil {
		return nil, err
	}

	itineraries := make([]Itinerary, 0, len(payload.Data.Itineraries))
	for _, w := range payload.Data.Itineraries {
		if it, ok := w.toItinerary(); ok {
			itineraries = append(itineraries, it)
		}
	}
	return itineraries, nil
}

func (c *Client) get(ctx context.Context, path string, values url.Values, dest any) error {
	rel := &url.URL{Path: path, RawQuery: values.Encode()}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.host)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Path: path, StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage extracts {"message": ...} from an error body, falling back
// to the trimmed body text.
func errorMessage(body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Message) > 0 {
		return messageText(payload.Message)
	}
	return strings.TrimSpace(string(body))
}

func parseBaseURL(baseURL, host string) (*url.URL, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		trimmed = "https://" + host
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", trimmed, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
