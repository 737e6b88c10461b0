package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sawahraya/backend-beras/internal/store"
)

// Service exposes product reads and admin writes over the row store.
type Service struct {
	Store  store.Store
	Logger *zerolog.Logger
}

// Get loads one product by id.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	if s == nil || s.Store == nil {
		return Product{}, errors.New("catalog service not configured")
	}
	row, err := s.Store.Get(ctx, store.TableProducts, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("load product %s: %w", id, err)
	}
	var p Product
	if err := row.Decode(&p); err != nil {
		return Product{}, fmt.Errorf("decode product %s: %w", id, err)
	}
	p.ID = row.ID
	return p, nil
}

// List returns the full catalog.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("catalog service not configured")
	}
	rows, err := s.Store.List(ctx, store.TableProducts)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]Product, 0, len(rows))
	for _, row := range rows {
		var p Product
		if err := row.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode product %s: %w", row.ID, err)
		}
		p.ID = row.ID
		out = append(out, p)
	}
	return out, nil
}

// Upsert creates or replaces a product, assigning an id when absent.
// Tier anomalies are logged and accepted.
func (s *Service) Upsert(ctx context.Context, p Product) (Product, error) {
	if s == nil || s.Store == nil {
		return Product{}, errors.New("catalog service not configured")
	}
	if err := p.Check(); err != nil {
		return Product{}, fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}
	if s.Logger != nil {
		for _, anomaly := range p.Anomalies() {
			s.Logger.Warn().Str("product", p.Name).Str("anomaly", anomaly).Msg("tier price anomaly")
		}
	}
	if strings.TrimSpace(p.ID) == "" {
		p.ID = uuid.NewString()
		if _, err := s.Store.Create(ctx, store.TableProducts, p.ID, p); err != nil {
			return Product{}, fmt.Errorf("create product: %w", err)
		}
		return p, nil
	}
	_, err := s.Store.Update(ctx, store.TableProducts, p.ID, p, store.AnyRevision)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			if _, createErr := s.Store.Create(ctx, store.TableProducts, p.ID, p); createErr != nil {
				return Product{}, fmt.Errorf("create product %s: %w", p.ID, createErr)
			}
			return p, nil
		}
		return Product{}, fmt.Errorf("update product %s: %w", p.ID, err)
	}
	return p, nil
}
