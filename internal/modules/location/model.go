// README: Geocoding contract and result types shared by the geocoder adapters.
package location

import (
	"context"
	"errors"
	"strings"

	"github.com/pepemlv/partysavingrental/internal/types"
)

// ErrGeocoderUnavailable wraps transport and decoding failures from a geocoder.
var ErrGeocoderUnavailable = errors.New("geocoder unavailable")

// AddressParts is the structured breakdown a geocoder returns alongside the coordinates.
type AddressParts struct {
	HouseNumber string `json:"house_number,omitempty" firestore:"houseNumber,omitempty"`
	Road        string `json:"road,omitempty" firestore:"road,omitempty"`
	City        string `json:"city,omitempty" firestore:"city,omitempty"`
	State       string `json:"state,omitempty" firestore:"state,omitempty"`
	Postcode    string `json:"postcode,omitempty" firestore:"postcode,omitempty"`
	Country     string `json:"country,omitempty" firestore:"country,omitempty"`
}

// GeocodedAddress is the first candidate a geocoder returned for a query. Treat as immutable.
type GeocodedAddress struct {
	Lat         float64      `json:"lat" firestore:"lat"`
	Lon         float64      `json:"lon" firestore:"lon"`
	DisplayName string       `json:"display_name" firestore:"displayName"`
	Address     AddressParts `json:"address" firestore:"address"`
}

func (g GeocodedAddress) Point() types.Point {
	return types.Point{Lat: g.Lat, Lng: g.Lon}
}

// Geocoder resolves free-text addresses. A query with no candidates returns (nil, nil);
// transport failures return a non-nil error.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*GeocodedAddress, error)
}

// FormatQuery joins address fields into the comma separated form geocoders expect,
// skipping empty parts.
func FormatQuery(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
