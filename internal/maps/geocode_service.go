package maps

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/pepemlv/partysavingrental/internal/logger"
	"github.com/pepemlv/partysavingrental/internal/modules/location"
)

// GeocodeService resolves addresses through the Google Geocoding API.
type GeocodeService struct {
	client *maps.Client
}

// NewGeocodeService creates a GeocodeService with the given API key. httpClient may be nil.
func NewGeocodeService(apiKey string, httpClient *http.Client) (*GeocodeService, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if httpClient != nil {
		opts = append(opts, maps.WithHTTPClient(httpClient))
	}
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GeocodeService{client: client}, nil
}

// Geocode returns the first result, or nil when Google reports ZERO_RESULTS.
func (s *GeocodeService) Geocode(ctx context.Context, query string) (*location.GeocodedAddress, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	logger.ExternalServiceCall("google_geocode", "geocode")
	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: query,
		Region:  "us",
	})
	if err != nil {
		if strings.Contains(err.Error(), "ZERO_RESULTS") {
			logger.ExternalServiceResult("google_geocode", "geocode", nil, "candidates", 0)
			return nil, nil
		}
		logger.ExternalServiceResult("google_geocode", "geocode", err)
		return nil, fmt.Errorf("%w: %v", location.ErrGeocoderUnavailable, err)
	}
	logger.ExternalServiceResult("google_geocode", "geocode", nil, "candidates", len(results))
	if len(results) == 0 {
		return nil, nil
	}
	return toGeocoded(results[0]), nil
}

func toGeocoded(r maps.GeocodingResult) *location.GeocodedAddress {
	out := &location.GeocodedAddress{
		Lat:         r.Geometry.Location.Lat,
		Lon:         r.Geometry.Location.Lng,
		DisplayName: r.FormattedAddress,
	}
	for _, c := range r.AddressComponents {
		for _, t := range c.Types {
			switch t {
			case "street_number":
				out.Address.HouseNumber = c.LongName
			case "route":
				out.Address.Road = c.LongName
			case "locality":
				out.Address.City = c.LongName
			case "administrative_area_level_1":
				out.Address.State = c.ShortName
			case "postal_code":
				out.Address.Postcode = c.LongName
			case "country":
				out.Address.Country = c.LongName
			}
		}
	}
	return out
}
