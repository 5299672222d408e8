package location

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const charlotteCandidate = `[{"lat":"35.2271","lon":"-80.8431","display_name":"Charlotte, Mecklenburg County, North Carolina, United States",
"address":{"town":"Charlotte","state":"North Carolina","postcode":"28202","country":"United States"}},
{"lat":"1","lon":"1","display_name":"ignored"}]`

func TestNominatimGeocoder_FirstCandidate(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(charlotteCandidate))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(srv.Client(), srv.URL+"/", "psr-test")
	addr, err := g.Geocode(context.Background(), "600 E 4th St, NC, 28202")
	require.NoError(t, err)
	require.NotNil(t, addr)

	assert.Equal(t, "600 E 4th St, NC, 28202", gotQuery)
	assert.Equal(t, "psr-test", gotUA)
	assert.InDelta(t, 35.2271, addr.Lat, 1e-9)
	assert.InDelta(t, -80.8431, addr.Lon, 1e-9)
	assert.Equal(t, "Charlotte", addr.Address.City)
	assert.Equal(t, "28202", addr.Address.Postcode)
}

func TestNominatimGeocoder_EmptyResultIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	addr, err := NewNominatimGeocoder(srv.Client(), srv.URL, "").Geocode(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Nil(t, addr)
}

func TestNominatimGeocoder_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	addr, err := NewNominatimGeocoder(srv.Client(), srv.URL, "").Geocode(context.Background(), "x")
	assert.Nil(t, addr)
	assert.True(t, errors.Is(err, ErrGeocoderUnavailable))
}

type countingGeocoder struct {
	calls atomic.Int32
	addr  *GeocodedAddress
	err   error
}

func (c *countingGeocoder) Geocode(context.Context, string) (*GeocodedAddress, error) {
	c.calls.Add(1)
	return c.addr, c.err
}

func setupCache(t *testing.T, next Geocoder) (*CachedGeocoder, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCachedGeocoder(next, rdb, time.Hour), mr
}

func TestCachedGeocoder_HitSkipsUpstream(t *testing.T) {
	next := &countingGeocoder{addr: &GeocodedAddress{Lat: 35.7796, Lon: -78.6382, DisplayName: "Raleigh"}}
	c, mr := setupCache(t, next)
	ctx := context.Background()

	first, err := c.Geocode(ctx, "Raleigh,  NC")
	require.NoError(t, err)
	second, err := c.Geocode(ctx, "raleigh, nc")
	require.NoError(t, err)

	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, first, second)
	assert.Equal(t, time.Hour, mr.TTL(geocodeCacheKey("Raleigh, NC")))
}

func TestCachedGeocoder_MissesAreNotCached(t *testing.T) {
	next := &countingGeocoder{}
	c, _ := setupCache(t, next)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		addr, err := c.Geocode(ctx, "nowhere")
		require.NoError(t, err)
		assert.Nil(t, addr)
	}
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCachedGeocoder_RedisDownPassesThrough(t *testing.T) {
	next := &countingGeocoder{addr: &GeocodedAddress{Lat: 1, Lon: 2}}
	c, mr := setupCache(t, next)
	mr.Close()

	addr, err := c.Geocode(context.Background(), "anywhere")
	require.NoError(t, err)
	assert.Equal(t, 1.0, addr.Lat)
}

func TestFormatQuery(t *testing.T) {
	assert.Equal(t, "12 Oak St, NC, 28216", FormatQuery(" 12 Oak St ", "", "NC", "28216"))
	assert.Equal(t, "", FormatQuery("", "  "))
}
