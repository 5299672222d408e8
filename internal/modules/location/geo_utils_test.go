package location

import (
	"math"
	"testing"

	"github.com/pepemlv/partysavingrental/internal/types"
)

func TestDistanceMiles_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lng1      float64
		lat2      float64
		lng2      float64
		wantMiles float64
		tolerance float64
	}{
		{
			name:      "same point",
			lat1:      35.2271, lng1: -80.8431,
			lat2:      35.2271, lng2: -80.8431,
			wantMiles: 0,
			tolerance: 0.000001,
		},
		{
			name:      "Charlotte to Raleigh (~130mi)",
			lat1:      35.2271, lng1: -80.8431,
			lat2:      35.7796, lng2: -78.6382,
			wantMiles: 130,
			tolerance: 5,
		},
		{
			name:      "Atlanta to Miami (~604mi)",
			lat1:      33.7490, lng1: -84.3880,
			lat2:      25.7617, lng2: -80.1918,
			wantMiles: 604,
			tolerance: 10,
		},
		{
			name:      "one degree of latitude (~69.1mi)",
			lat1:      0, lng1: 0,
			lat2:      1, lng2: 0,
			wantMiles: 69.1,
			tolerance: 0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceMiles(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.wantMiles) > tt.tolerance {
				t.Errorf("DistanceMiles() = %f, want %f (±%f)", got, tt.wantMiles, tt.tolerance)
			}
		})
	}
}

func TestDistanceMiles_Symmetry(t *testing.T) {
	d1 := DistanceMiles(35.2271, -80.8431, 34.0007, -81.0348)
	d2 := DistanceMiles(34.0007, -81.0348, 35.2271, -80.8431)
	if math.Abs(d1-d2) > 0.0001 {
		t.Errorf("distance is not symmetric: %f vs %f", d1, d2)
	}
}

func TestDistanceMiles_NonNegative(t *testing.T) {
	if d := DistanceMiles(-33.0, 151.0, 40.0, -74.0); d <= 0 {
		t.Errorf("expected positive distance, got %f", d)
	}
}

func TestDistanceBetween(t *testing.T) {
	a := types.Point{Lat: 35.2271, Lng: -80.8431}
	b := types.Point{Lat: 35.7796, Lng: -78.6382}
	if DistanceBetween(a, b) != DistanceMiles(a.Lat, a.Lng, b.Lat, b.Lng) {
		t.Error("DistanceBetween disagrees with DistanceMiles")
	}
}

func TestSortByDistance(t *testing.T) {
	type city struct {
		name string
		dist float64
	}
	cities := []city{{"c", 5.0}, {"a", 1.0}, {"b", 3.0}}

	SortByDistance(cities, func(c city) float64 { return c.dist })

	if cities[0].name != "a" || cities[1].name != "b" || cities[2].name != "c" {
		t.Errorf("unexpected sort order: %v", cities)
	}
}

func TestSortByDistance_EmptyAndSingle(t *testing.T) {
	var none []float64
	SortByDistance(none, func(f float64) float64 { return f })

	one := []float64{2}
	SortByDistance(one, func(f float64) float64 { return f })
	if one[0] != 2 {
		t.Errorf("single element sort failed")
	}
}
