// README: Nominatim (OpenStreetMap) geocoder over HTTP GET /search.
package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pepemlv/partysavingrental/internal/logger"
)

type NominatimGeocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewNominatimGeocoder builds a geocoder against baseURL (e.g. https://nominatim.openstreetmap.org).
// Nominatim's usage policy requires a descriptive User-Agent.
func NewNominatimGeocoder(client *http.Client, baseURL, userAgent string) *NominatimGeocoder {
	return &NominatimGeocoder{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    client,
	}
}

type nominatimCandidate struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Address     struct {
		HouseNumber string `json:"house_number"`
		Road        string `json:"road"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		State       string `json:"state"`
		Postcode    string `json:"postcode"`
		Country     string `json:"country"`
	} `json:"address"`
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (*GeocodedAddress, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	q := url.Values{}
	q.Set("format", "json")
	q.Set("addressdetails", "1")
	q.Set("limit", "1")
	q.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	logger.ExternalServiceCall("nominatim", "search")
	resp, err := g.client.Do(req)
	if err != nil {
		logger.ExternalServiceResult("nominatim", "search", err)
		return nil, fmt.Errorf("%w: %v", ErrGeocoderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: status %d", ErrGeocoderUnavailable, resp.StatusCode)
		logger.ExternalServiceResult("nominatim", "search", err)
		return nil, err
	}

	var candidates []nominatimCandidate
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		logger.ExternalServiceResult("nominatim", "search", err)
		return nil, fmt.Errorf("%w: decode: %v", ErrGeocoderUnavailable, err)
	}
	logger.ExternalServiceResult("nominatim", "search", nil, "candidates", len(candidates))
	if len(candidates) == 0 {
		return nil, nil
	}
	return candidates[0].toGeocoded()
}

func (c nominatimCandidate) toGeocoded() (*GeocodedAddress, error) {
	lat, err := strconv.ParseFloat(c.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad lat %q", ErrGeocoderUnavailable, c.Lat)
	}
	lon, err := strconv.ParseFloat(c.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad lon %q", ErrGeocoderUnavailable, c.Lon)
	}
	city := c.Address.City
	if city == "" {
		city = c.Address.Town
	}
	if city == "" {
		city = c.Address.Village
	}
	return &GeocodedAddress{
		Lat:         lat,
		Lon:         lon,
		DisplayName: c.DisplayName,
		Address: AddressParts{
			HouseNumber: c.Address.HouseNumber,
			Road:        c.Address.Road,
			City:        city,
			State:       c.Address.State,
			Postcode:    c.Address.Postcode,
			Country:     c.Address.Country,
		},
	}, nil
}
