// Package skyapi provides an HTTP client for the Sky Scrapper flight API
// and the airport directory used by autocomplete.
//
// # Overview
//
// Two endpoints are consumed:
//
//   - GET /api/v1/flights/searchAirport: airport and city candidates for a
//     free-text query.
//   - GET /api/v2/flights/searchFlights: itineraries between two places
//     identified by their (skyId, entityId) route pairs.
//
// Every request carries the x-rapidapi-key and x-rapidapi-host headers.
// Credentials come from an explicit Options value built by the caller;
// the package holds no global state.
//
// # Schema Validation
//
// Responses are decoded into private wire structs and converted to the
// exported types with deterministic defaults:
//
//   - A 200 response with "status": false becomes an *APIError.
//   - Airport name falls back from presentation.title to
//     navigation.localizedName to the sky id; candidates with no name at
//     all are dropped.
//   - The city is the first word of the localized name; the country is the
//     presentation subtitle.
//   - Itineraries without legs are dropped. Missing carriers and prices are
//     left empty for the renderer to substitute.
//
// # Directory
//
// Directory wraps an AirportSearcher for autocomplete. It caches answers by
// normalised query, spaces out upstream calls, logs failures, and always
// returns a non-nil slice so a failed lookup renders as an empty list.
//
// # Usage Example
//
//	client, err := skyapi.NewClient(skyapi.Options{APIKey: key, Host: host})
//	if err != nil {
//		return err
//	}
//	dir := skyapi.NewDirectory(client, skyapi.DirectoryOptions{})
//	airports, err := dir.Search(ctx, "Lon")
package skyapi
