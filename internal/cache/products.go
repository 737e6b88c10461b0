package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sawahraya/backend-beras/internal/catalog"
)

func keyProduct(id string) string {
	return "product:" + id
}

// negative marker so missing products do not hammer the store
const tombstone = "__missing__"

// Products is a redis read-through cache in front of the catalog. Cart
// pricing and checkout snapshotting read products on every request; the cache
// absorbs that load. Misses and redis failures fall through to the source.
type Products struct {
	R      *redis.Client
	Source *catalog.Service
	TTL    time.Duration
	Logger *zerolog.Logger
}

func (p *Products) ttl() time.Duration {
	if p.TTL <= 0 {
		return 5 * time.Minute
	}
	return p.TTL
}

// Product implements cart.ProductSource.
func (p *Products) Product(ctx context.Context, id string) (catalog.Product, error) {
	if p == nil || p.Source == nil {
		return catalog.Product{}, errors.New("product cache not configured")
	}
	if p.R != nil {
		raw, err := p.R.Get(ctx, keyProduct(id)).Result()
		switch {
		case err == nil && raw == tombstone:
			return catalog.Product{}, catalog.ErrNotFound
		case err == nil:
			var prod catalog.Product
			if jsonErr := json.Unmarshal([]byte(raw), &prod); jsonErr == nil {
				return prod, nil
			}
			// corrupt entry, reload below
		case !errors.Is(err, redis.Nil):
			p.warn(err, id, "product cache read failed")
		}
	}

	prod, err := p.Source.Get(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		p.store(ctx, id, []byte(tombstone))
		return catalog.Product{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Product{}, err
	}
	if raw, jsonErr := json.Marshal(prod); jsonErr == nil {
		p.store(ctx, id, raw)
	}
	return prod, nil
}

// Invalidate drops the cached entry after an admin product change.
func (p *Products) Invalidate(ctx context.Context, id string) {
	if p == nil || p.R == nil {
		return
	}
	if err := p.R.Del(ctx, keyProduct(id)).Err(); err != nil {
		p.warn(err, id, "product cache invalidate failed")
	}
}

func (p *Products) store(ctx context.Context, id string, raw []byte) {
	if p.R == nil {
		return
	}
	if err := p.R.Set(ctx, keyProduct(id), raw, p.ttl()).Err(); err != nil {
		p.warn(err, id, "product cache write failed")
	}
}

func (p *Products) warn(err error, id, msg string) {
	if p.Logger != nil {
		p.Logger.Warn().Err(err).Str("product_id", id).Msg(msg)
	}
}
