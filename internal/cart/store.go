package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// Store persists cart blobs in Redis. Persistence is an adapter at the
// boundary: the cart itself is plain state and knows nothing about storage.
type Store struct {
	R   *redis.Client
	TTL time.Duration
}

func (s *Store) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func cartKey(id string) string {
	return "cart:" + id
}

// New creates and persists an empty cart.
func (s *Store) New(ctx context.Context) (*Cart, error) {
	if s == nil || s.R == nil {
		return nil, errors.New("cart store not configured")
	}
	c := &Cart{ID: uuid.NewString()}
	if err := s.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Load fetches a cart by id, upgrading legacy items on the way in.
func (s *Store) Load(ctx context.Context, id string) (*Cart, error) {
	if s == nil || s.R == nil {
		return nil, errors.New("cart store not configured")
	}
	if id == "" {
		return nil, ErrNotFound
	}
	data, err := s.R.Get(ctx, cartKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cart: load %s: %w", id, err)
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("cart: decode %s: %w", id, err)
	}
	c.ID = id
	c.Normalize()
	return &c, nil
}

// Save writes the cart back and refreshes its TTL.
func (s *Store) Save(ctx context.Context, c *Cart) error {
	if s == nil || s.R == nil {
		return errors.New("cart store not configured")
	}
	if c == nil || c.ID == "" {
		return errors.New("cart: id is required")
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("cart: encode %s: %w", c.ID, err)
	}
	if err := s.R.Set(ctx, cartKey(c.ID), data, s.ttl()).Err(); err != nil {
		return fmt.Errorf("cart: save %s: %w", c.ID, err)
	}
	return nil
}

// Delete removes the persisted cart.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s == nil || s.R == nil {
		return errors.New("cart store not configured")
	}
	if err := s.R.Del(ctx, cartKey(id)).Err(); err != nil {
		return fmt.Errorf("cart: delete %s: %w", id, err)
	}
	return nil
}
