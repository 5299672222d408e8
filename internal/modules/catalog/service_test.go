package catalog

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pepemlv/partysavingrental/internal/types"
)

// memRepo is an in-memory Repository for service tests.
type memRepo struct {
	mu       sync.Mutex
	products map[string]Product
	cities   map[string]City
}

func newMemRepo() *memRepo {
	return &memRepo{products: map[string]Product{}, cities: map[string]City{}}
}

func (m *memRepo) ListProducts(context.Context) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRepo) GetProduct(_ context.Context, id string) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (m *memRepo) CreateProduct(_ context.Context, p Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; ok {
		return ErrAlreadyExists
	}
	m.products[p.ID] = p
	return nil
}

func (m *memRepo) UpdateProduct(_ context.Context, p Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return ErrNotFound
	}
	m.products[p.ID] = p
	return nil
}

func (m *memRepo) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *memRepo) ListCities(context.Context) ([]City, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]City, 0, len(m.cities))
	for _, c := range m.cities {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRepo) GetCity(_ context.Context, id string) (City, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cities[id]
	if !ok {
		return City{}, ErrNotFound
	}
	return c, nil
}

func (m *memRepo) CreateCity(_ context.Context, c City) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cities[c.ID]; ok {
		return ErrAlreadyExists
	}
	m.cities[c.ID] = c
	return nil
}

func (m *memRepo) UpdateCity(_ context.Context, c City) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cities[c.ID]; !ok {
		return ErrNotFound
	}
	m.cities[c.ID] = c
	return nil
}

func (m *memRepo) DeleteCity(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cities[id]; !ok {
		return ErrNotFound
	}
	delete(m.cities, id)
	return nil
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Charlotte":          "charlotte",
		"  Winston  Salem ":  "winston-salem",
		"St. Louis":          "st-louis",
		"Myrtle-Beach":       "myrtle-beach",
		"!!!":                "",
		"Chairs & Tables 10": "chairs-tables-10",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestCreateCity_SlugAndDuplicate(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()

	c, err := svc.CreateCity(ctx, City{Name: "Winston Salem", State: "nc", PickupAddress: "1 Main St", Latitude: 36.09, Longitude: -80.24})
	require.NoError(t, err)
	assert.Equal(t, "winston-salem", c.ID)
	assert.Equal(t, "NC", c.State)

	_, err = svc.CreateCity(ctx, City{Name: "winston salem", State: "NC", PickupAddress: "2 Main St", Latitude: 36, Longitude: -80})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestCreateCity_Validation(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()

	_, err := svc.CreateCity(ctx, City{Name: "X", State: "NC", PickupAddress: "", Latitude: 1, Longitude: 1})
	assert.True(t, IsValidationError(err))

	_, err = svc.CreateCity(ctx, City{Name: "X", State: "NC", PickupAddress: "a", Latitude: 95, Longitude: 1})
	assert.True(t, IsValidationError(err))

	_, err = svc.CreateCity(ctx, City{Name: "X", State: "NC", PickupAddress: "a", Latitude: 1, Longitude: -190})
	assert.True(t, IsValidationError(err))
}

func TestUpdateDeleteCity_NotFound(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()

	_, err := svc.UpdateCity(ctx, City{ID: "ghost", Name: "Ghost", State: "NC", PickupAddress: "a", Latitude: 1, Longitude: 1})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.DeleteCity(ctx, "ghost"), ErrNotFound)
}

func TestSeedDefaultCities_Idempotent(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()

	n, err := svc.SeedDefaultCities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = svc.SeedDefaultCities(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	cities, err := svc.ListCities(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Atlanta", cities[0].Name)
}

func TestProductCRUD(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, Product{Name: "Folding Chair", BasePrice: 1.88})
	require.NoError(t, err)
	assert.Equal(t, "folding-chair", p.ID)

	_, err = svc.CreateProduct(ctx, Product{Name: "Table", BasePrice: -1})
	assert.True(t, IsValidationError(err))

	_, err = svc.CreateProduct(ctx, Product{Name: "Table", BasePrice: 10, Addon: &Addon{Name: "", Price: 5}})
	assert.True(t, IsValidationError(err))

	p.BasePrice = 2
	_, err = svc.UpdateProduct(ctx, p)
	require.NoError(t, err)
	got, err := svc.GetProduct(ctx, "folding-chair")
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.BasePrice)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	_, err = svc.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductAddonPrice(t *testing.T) {
	assert.Zero(t, Product{}.AddonPrice())
	assert.Equal(t, 5.0, Product{Addon: &Addon{Name: "Cover", Price: 5}}.AddonPrice())
}

type failingIndex struct{}

func (failingIndex) Reindex(context.Context, []City) error { return errors.New("down") }
func (failingIndex) Nearest(context.Context, types.Point, int) ([]NearbyCity, error) {
	return nil, errors.New("down")
}

func TestNearestCity_FallsBackToScan(t *testing.T) {
	svc := NewService(newMemRepo(), failingIndex{})
	ctx := context.Background()
	_, err := svc.SeedDefaultCities(ctx)
	require.NoError(t, err)

	// Sumter, SC
	c, miles, err := svc.NearestCity(ctx, types.Point{Lat: 33.9204, Lng: -80.3415})
	require.NoError(t, err)
	assert.Equal(t, "columbia", c.ID)
	assert.Greater(t, miles, 0.0)
}

func TestNearestCity_Empty(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	_, _, err := svc.NearestCity(context.Background(), types.Point{})
	assert.ErrorIs(t, err, ErrNotFound)
}
