package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sawahraya/backend-beras/internal/store"
)

// ErrNotFound indicates the order does not exist.
var ErrNotFound = errors.New("order not found")

// ErrBadTransition indicates an illegal status change.
var ErrBadTransition = errors.New("illegal status transition")

// Service persists and reads orders through the row store.
type Service struct {
	Store store.Store
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create persists the order aggregate and its item snapshots. The order row
// goes first so item rows always reference an existing order.
func (s *Service) Create(ctx context.Context, o Order, items []Item) (Order, error) {
	if s == nil || s.Store == nil {
		return Order{}, errors.New("order service not configured")
	}
	if o.ID == "" {
		return Order{}, errors.New("order id is required")
	}
	o.Status = StatusPending
	o.CreatedAt = s.now()
	if _, err := s.Store.Create(ctx, store.TableOrders, o.ID, o); err != nil {
		return Order{}, fmt.Errorf("persist order %s: %w", o.ID, err)
	}
	for _, item := range items {
		item.OrderID = o.ID
		if _, err := s.Store.Create(ctx, store.TableOrderItems, item.ID, item); err != nil {
			return Order{}, fmt.Errorf("persist order item %s: %w", item.ID, err)
		}
	}
	return o, nil
}

// Get loads one order with its items.
func (s *Service) Get(ctx context.Context, id string) (Order, []Item, error) {
	if s == nil || s.Store == nil {
		return Order{}, nil, errors.New("order service not configured")
	}
	row, err := s.Store.Get(ctx, store.TableOrders, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Order{}, nil, ErrNotFound
		}
		return Order{}, nil, fmt.Errorf("load order %s: %w", id, err)
	}
	var o Order
	if err := row.Decode(&o); err != nil {
		return Order{}, nil, fmt.Errorf("decode order %s: %w", id, err)
	}
	items, err := s.Items(ctx, id)
	if err != nil {
		return Order{}, nil, err
	}
	return o, items, nil
}

// Items lists the snapshots belonging to an order.
func (s *Service) Items(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := s.Store.List(ctx, store.TableOrderItems, store.Eq("orderId", orderID))
	if err != nil {
		return nil, fmt.Errorf("list items for order %s: %w", orderID, err)
	}
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		var item Item
		if err := row.Decode(&item); err != nil {
			return nil, fmt.Errorf("decode order item %s: %w", row.ID, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// ListByCustomer returns a customer's orders, oldest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("order service not configured")
	}
	rows, err := s.Store.List(ctx, store.TableOrders, store.Eq("customerId", customerID))
	if err != nil {
		return nil, fmt.Errorf("list orders for customer %s: %w", customerID, err)
	}
	orders := make([]Order, 0, len(rows))
	for _, row := range rows {
		var o Order
		if err := row.Decode(&o); err != nil {
			return nil, fmt.Errorf("decode order %s: %w", row.ID, err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// UpdateStatus applies an admin status change, enforcing the state machine.
// Price fields are never touched here.
func (s *Service) UpdateStatus(ctx context.Context, id string, next Status, notes string) (Order, error) {
	if s == nil || s.Store == nil {
		return Order{}, errors.New("order service not configured")
	}
	row, err := s.Store.Get(ctx, store.TableOrders, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("load order %s: %w", id, err)
	}
	var o Order
	if err := row.Decode(&o); err != nil {
		return Order{}, fmt.Errorf("decode order %s: %w", id, err)
	}
	if !o.Status.CanTransition(next) {
		return Order{}, fmt.Errorf("%s -> %s: %w", o.Status, next, ErrBadTransition)
	}
	o.Status = next
	if notes != "" {
		o.Notes = notes
	}
	if _, err := s.Store.Update(ctx, store.TableOrders, id, o, row.Revision); err != nil {
		return Order{}, fmt.Errorf("update order %s: %w", id, err)
	}
	return o, nil
}
