// README: Catalog service; admin CRUD for products and cities plus nearest-city lookup.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/pepemlv/partysavingrental/internal/logger"
	"github.com/pepemlv/partysavingrental/internal/modules/location"
	"github.com/pepemlv/partysavingrental/internal/types"
)

// CityIndex answers nearest-city queries. The Redis GeoIndex implements it.
type CityIndex interface {
	Reindex(ctx context.Context, cities []City) error
	Nearest(ctx context.Context, p types.Point, limit int) ([]NearbyCity, error)
}

type Service struct {
	repo  Repository
	index CityIndex
}

// NewService builds the catalog service. index may be nil; nearest-city lookups then
// fall back to an in-memory scan.
func NewService(repo Repository, index CityIndex) *Service {
	return &Service{repo: repo, index: index}
}

func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// CreateProduct stores p under the slug of its name when no id is given.
func (s *Service) CreateProduct(ctx context.Context, p Product) (Product, error) {
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	if p.ID == "" {
		p.ID = Slugify(p.Name)
	}
	if p.ID == "" {
		return Product{}, fieldError("name must contain letters or digits")
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	if p.ID == "" {
		return Product{}, fieldError("id is required")
	}
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.DeleteProduct(ctx, id)
}

// ListCities returns cities ordered by name.
func (s *Service) ListCities(ctx context.Context) ([]City, error) {
	return s.repo.ListCities(ctx)
}

func (s *Service) GetCity(ctx context.Context, id string) (City, error) {
	return s.repo.GetCity(ctx, id)
}

// CreateCity derives the id from the name and rejects duplicates.
func (s *Service) CreateCity(ctx context.Context, c City) (City, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.State = normalizeState(c.State)
	if err := c.Validate(); err != nil {
		return City{}, err
	}
	c.ID = Slugify(c.Name)
	if c.ID == "" {
		return City{}, fieldError("name must contain letters or digits")
	}
	if err := s.repo.CreateCity(ctx, c); err != nil {
		return City{}, err
	}
	s.refreshIndex(ctx)
	return c, nil
}

func (s *Service) UpdateCity(ctx context.Context, c City) (City, error) {
	if c.ID == "" {
		return City{}, fieldError("id is required")
	}
	c.State = normalizeState(c.State)
	if err := c.Validate(); err != nil {
		return City{}, err
	}
	if err := s.repo.UpdateCity(ctx, c); err != nil {
		return City{}, err
	}
	s.refreshIndex(ctx)
	return c, nil
}

func (s *Service) DeleteCity(ctx context.Context, id string) error {
	if err := s.repo.DeleteCity(ctx, id); err != nil {
		return err
	}
	s.refreshIndex(ctx)
	return nil
}

// SeedDefaultCities creates any of DefaultCities that do not exist yet and returns
// how many were added.
func (s *Service) SeedDefaultCities(ctx context.Context) (int, error) {
	created := 0
	for _, c := range DefaultCities {
		_, err := s.CreateCity(ctx, c)
		if errors.Is(err, ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// NearestCity returns the city whose stored coordinates are closest to p, with the
// straight-line distance in miles.
func (s *Service) NearestCity(ctx context.Context, p types.Point) (City, float64, error) {
	if s.index != nil {
		nearby, err := s.index.Nearest(ctx, p, 1)
		if err == nil && len(nearby) > 0 {
			c, err := s.repo.GetCity(ctx, nearby[0].ID)
			if err == nil {
				return c, nearby[0].Miles, nil
			}
			if !errors.Is(err, ErrNotFound) {
				return City{}, 0, err
			}
		} else if err != nil {
			logger.Warn("city index lookup failed", "error", err)
		}
	}

	cities, err := s.repo.ListCities(ctx)
	if err != nil {
		return City{}, 0, err
	}
	if len(cities) == 0 {
		return City{}, 0, ErrNotFound
	}
	location.SortByDistance(cities, func(c City) float64 { return location.DistanceBetween(p, c.Point()) })
	return cities[0], location.DistanceBetween(p, cities[0].Point()), nil
}

// RebuildIndex loads every city into the nearest-city index.
func (s *Service) RebuildIndex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	cities, err := s.repo.ListCities(ctx)
	if err != nil {
		return err
	}
	return s.index.Reindex(ctx, cities)
}

func (s *Service) refreshIndex(ctx context.Context) {
	if err := s.RebuildIndex(ctx); err != nil {
		logger.Warn("city index rebuild failed", "error", err)
	}
}

// IsValidationError reports whether err came from entry validation.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalid)
}

// normalizeState upper-cases state codes ("nc" -> "NC").
func normalizeState(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}
