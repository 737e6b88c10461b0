package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/sawahraya/backend-beras/internal/catalog"
)

// ErrInvalidInput is returned when a cart mutation payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Service ties cart state to its persistence adapter and the product source.
type Service struct {
	Store    *Store
	Products ProductSource
}

func (s *Service) ready() error {
	if s == nil || s.Store == nil || s.Products == nil {
		return errors.New("cart service not configured")
	}
	return nil
}

// Create opens a new empty cart.
func (s *Service) Create(ctx context.Context) (*Cart, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.Store.New(ctx)
}

// Get loads and prices a cart.
func (s *Service) Get(ctx context.Context, id string) (*Cart, Summary, error) {
	if err := s.ready(); err != nil {
		return nil, Summary{}, err
	}
	c, err := s.Store.Load(ctx, id)
	if err != nil {
		return nil, Summary{}, err
	}
	summary, err := c.Price(ctx, s.Products)
	if err != nil {
		return nil, Summary{}, err
	}
	return c, summary, nil
}

// AddBag validates the size and product, mutates the cart, and persists it.
// No partial mutation: validation failures leave the stored cart untouched.
func (s *Service) AddBag(ctx context.Context, cartID, productID string, sizeKg int) (Summary, error) {
	if err := s.ready(); err != nil {
		return Summary{}, err
	}
	size, err := ParseBagSize(sizeKg)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if _, err := s.Products.Product(ctx, productID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return Summary{}, fmt.Errorf("product %s: %w", productID, ErrInvalidInput)
		}
		return Summary{}, err
	}
	c, err := s.Store.Load(ctx, cartID)
	if err != nil {
		return Summary{}, err
	}
	if err := c.AddBag(productID, size); err != nil {
		return Summary{}, err
	}
	if err := s.Store.Save(ctx, c); err != nil {
		return Summary{}, err
	}
	return c.Price(ctx, s.Products)
}

// RemoveBag removes one bag, evicting the line when it empties.
func (s *Service) RemoveBag(ctx context.Context, cartID, productID string, sizeKg int) (Summary, error) {
	if err := s.ready(); err != nil {
		return Summary{}, err
	}
	size, err := ParseBagSize(sizeKg)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	c, err := s.Store.Load(ctx, cartID)
	if err != nil {
		return Summary{}, err
	}
	if err := c.RemoveBag(productID, size); err != nil {
		return Summary{}, err
	}
	if err := s.Store.Save(ctx, c); err != nil {
		return Summary{}, err
	}
	return c.Price(ctx, s.Products)
}

// RemoveItem drops a whole product line.
func (s *Service) RemoveItem(ctx context.Context, cartID, productID string) (Summary, error) {
	if err := s.ready(); err != nil {
		return Summary{}, err
	}
	c, err := s.Store.Load(ctx, cartID)
	if err != nil {
		return Summary{}, err
	}
	c.RemoveItem(productID)
	if err := s.Store.Save(ctx, c); err != nil {
		return Summary{}, err
	}
	return c.Price(ctx, s.Products)
}

// Clear empties the cart but keeps it alive.
func (s *Service) Clear(ctx context.Context, cartID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	c, err := s.Store.Load(ctx, cartID)
	if err != nil {
		return err
	}
	c.Clear()
	return s.Store.Save(ctx, c)
}
