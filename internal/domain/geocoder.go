package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
// A zero Lat and Lon with an empty FormattedAddress means "no match".
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
}

// Found reports whether the provider resolved the address.
func (r GeocodingResult) Found() bool {
	return r.FormattedAddress != "" || r.Lat != 0 || r.Lon != 0
}

// Geocoder resolves free-text addresses to coordinates.
type Geocoder interface {
	// Geocode converts an address to coordinates. A provider miss is a
	// zero result with a nil error; transport and API failures are errors.
	Geocode(ctx context.Context, address string) (GeocodingResult, error)
}
