// README: Catalog aggregates: rentable products and pickup cities.
package catalog

import (
	"errors"
	"strings"
	"unicode"

	"github.com/pepemlv/partysavingrental/internal/types"
)

var (
	ErrNotFound      = errors.New("catalog entry not found")
	ErrAlreadyExists = errors.New("catalog entry already exists")
	ErrInvalid       = errors.New("invalid catalog entry")
)

type Addon struct {
	Name  string  `json:"name" firestore:"name"`
	Price float64 `json:"price" firestore:"price"`
}

// Product is priced per item per rental day.
type Product struct {
	ID                string   `json:"id" firestore:"-"`
	Name              string   `json:"name" firestore:"name"`
	Description       string   `json:"description" firestore:"description"`
	BasePrice         float64  `json:"base_price" firestore:"base_price"`
	Category          string   `json:"category,omitempty" firestore:"category"`
	ImageURL          string   `json:"image_url,omitempty" firestore:"image_url,omitempty"`
	ImageURLs         []string `json:"image_urls,omitempty" firestore:"image_urls,omitempty"`
	ImageWithAddonURL string   `json:"image_with_addon_url,omitempty" firestore:"image_with_addon_url,omitempty"`
	GalleryImages     []string `json:"gallery_images,omitempty" firestore:"gallery_images,omitempty"`
	Addon             *Addon   `json:"addon,omitempty" firestore:"addon,omitempty"`
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fieldError("name is required")
	}
	if p.BasePrice < 0 {
		return fieldError("base_price must not be negative")
	}
	if p.Addon != nil {
		if strings.TrimSpace(p.Addon.Name) == "" {
			return fieldError("addon name is required")
		}
		if p.Addon.Price < 0 {
			return fieldError("addon price must not be negative")
		}
	}
	return nil
}

// AddonPrice is 0 when the product has no addon.
func (p Product) AddonPrice() float64 {
	if p.Addon == nil {
		return 0
	}
	return p.Addon.Price
}

// City is a pickup location; delivery distance is measured from PickupAddress.
type City struct {
	ID            string  `json:"id" firestore:"-"`
	Name          string  `json:"name" firestore:"name"`
	State         string  `json:"state" firestore:"state"`
	PickupAddress string  `json:"pickup_address" firestore:"pickup_address"`
	Latitude      float64 `json:"latitude" firestore:"latitude"`
	Longitude     float64 `json:"longitude" firestore:"longitude"`
}

func (c City) Point() types.Point {
	return types.Point{Lat: c.Latitude, Lng: c.Longitude}
}

func (c City) Validate() error {
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.State) == "" || strings.TrimSpace(c.PickupAddress) == "" {
		return fieldError("name, state and pickup_address are required")
	}
	if !c.Point().Valid() {
		return fieldError("latitude must be within [-90,90] and longitude within [-180,180]")
	}
	return nil
}

// Slugify derives a document id from a display name: "Winston Salem" -> "winston-salem".
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

type validationError struct{ msg string }

func (e validationError) Error() string { return e.msg }
func (e validationError) Unwrap() error { return ErrInvalid }

func fieldError(msg string) error { return validationError{msg: msg} }

// DefaultCities are the pickup locations a fresh deployment starts with.
var DefaultCities = []City{
	{Name: "Charlotte", State: "NC", PickupAddress: "3244 Bamburgh Court, Charlotte, NC 28216", Latitude: 35.2271, Longitude: -80.8431},
	{Name: "Raleigh", State: "NC", PickupAddress: "456 Fayetteville St, Raleigh, NC 27601", Latitude: 35.7796, Longitude: -78.6382},
	{Name: "Columbia", State: "SC", PickupAddress: "789 Main St, Columbia, SC 29201", Latitude: 34.0007, Longitude: -81.0348},
	{Name: "Atlanta", State: "GA", PickupAddress: "101 Peachtree St, Atlanta, GA 30303", Latitude: 33.7490, Longitude: -84.3880},
	{Name: "Miami", State: "FL", PickupAddress: "202 Biscayne Blvd, Miami, FL 33132", Latitude: 25.7617, Longitude: -80.1918},
}
