package domain

import "context"

// GeocodeResult is a resolved location returned by a geocoding provider.
// An empty DisplayName means the provider found nothing for the query.
type GeocodeResult struct {
	Lat         float64
	Lon         float64
	DisplayName string // full resolved address, used for region validation
}

// Geocoder resolves a free-text address query into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (GeocodeResult, error)
}
