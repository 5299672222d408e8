// README: Catalog store backed by Firestore collections "products" and "cities".
package catalog

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	productsCollection = "products"
	citiesCollection   = "cities"
)

// Repository is the persistence the catalog service needs.
type Repository interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	CreateProduct(ctx context.Context, p Product) error
	UpdateProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id string) error

	ListCities(ctx context.Context) ([]City, error)
	GetCity(ctx context.Context, id string) (City, error)
	CreateCity(ctx context.Context, c City) error
	UpdateCity(ctx context.Context, c City) error
	DeleteCity(ctx context.Context, id string) error
}

type Store struct {
	fs *firestore.Client
}

func NewStore(fs *firestore.Client) *Store {
	return &Store{fs: fs}
}

func (s *Store) ListProducts(ctx context.Context) ([]Product, error) {
	docs, err := s.fs.Collection(productsCollection).OrderBy("name", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(docs))
	for _, d := range docs {
		var p Product
		if err := d.DataTo(&p); err != nil {
			return nil, err
		}
		p.ID = d.Ref.ID
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (Product, error) {
	d, err := s.fs.Collection(productsCollection).Doc(id).Get(ctx)
	if err != nil {
		return Product{}, mapErr(err)
	}
	var p Product
	if err := d.DataTo(&p); err != nil {
		return Product{}, err
	}
	p.ID = d.Ref.ID
	return p, nil
}

func (s *Store) CreateProduct(ctx context.Context, p Product) error {
	_, err := s.fs.Collection(productsCollection).Doc(p.ID).Create(ctx, p)
	return mapErr(err)
}

func (s *Store) UpdateProduct(ctx context.Context, p Product) error {
	return s.replace(ctx, s.fs.Collection(productsCollection).Doc(p.ID), p)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return s.remove(ctx, s.fs.Collection(productsCollection).Doc(id))
}

func (s *Store) ListCities(ctx context.Context) ([]City, error) {
	docs, err := s.fs.Collection(citiesCollection).OrderBy("name", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]City, 0, len(docs))
	for _, d := range docs {
		var c City
		if err := d.DataTo(&c); err != nil {
			return nil, err
		}
		c.ID = d.Ref.ID
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) GetCity(ctx context.Context, id string) (City, error) {
	d, err := s.fs.Collection(citiesCollection).Doc(id).Get(ctx)
	if err != nil {
		return City{}, mapErr(err)
	}
	var c City
	if err := d.DataTo(&c); err != nil {
		return City{}, err
	}
	c.ID = d.Ref.ID
	return c, nil
}

func (s *Store) CreateCity(ctx context.Context, c City) error {
	_, err := s.fs.Collection(citiesCollection).Doc(c.ID).Create(ctx, c)
	return mapErr(err)
}

func (s *Store) UpdateCity(ctx context.Context, c City) error {
	return s.replace(ctx, s.fs.Collection(citiesCollection).Doc(c.ID), c)
}

func (s *Store) DeleteCity(ctx context.Context, id string) error {
	return s.remove(ctx, s.fs.Collection(citiesCollection).Doc(id))
}

// replace overwrites an existing document; a missing one is ErrNotFound.
func (s *Store) replace(ctx context.Context, ref *firestore.DocumentRef, data any) error {
	return s.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			return mapErr(err)
		}
		return tx.Set(ref, data)
	})
}

func (s *Store) remove(ctx context.Context, ref *firestore.DocumentRef) error {
	_, err := ref.Delete(ctx, firestore.Exists)
	return mapErr(err)
}

func mapErr(err error) error {
	switch status.Code(err) {
	case codes.OK:
		return nil
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return ErrAlreadyExists
	default:
		return err
	}
}
