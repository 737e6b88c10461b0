package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/sawahraya/backend-beras/internal/cart"
	"github.com/sawahraya/backend-beras/internal/events"
	"github.com/sawahraya/backend-beras/internal/lock"
	"github.com/sawahraya/backend-beras/internal/loyalty"
	"github.com/sawahraya/backend-beras/internal/order"
	"github.com/sawahraya/backend-beras/internal/pricing"
)

// Errors surfaced to the handler layer.
var (
	ErrEmptyCart    = errors.New("checkout: cart is empty")
	ErrCartNotFound = errors.New("checkout: cart not found")
	ErrBadDiscount  = errors.New("checkout: discount code is not valid")
)

// Addr is the delivery address captured on the order.
type Addr struct {
	ReceiverName string `json:"receiverName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Province     string `json:"province"`
	City         string `json:"city"`
	PostalCode   string `json:"postalCode"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
}

// Input is the checkout request body.
type Input struct {
	CartID       string  `json:"cartId"`
	Address      Addr    `json:"address"`
	Notes        *string `json:"notes"`
	DiscountCode *string `json:"discountCode"`
}

// Output is the checkout result.
type Output struct {
	OrderID      string        `json:"orderId"`
	Status       string        `json:"status"`
	Summary      order.Summary `json:"summary"`
	TotalPrice   pricing.Money `json:"totalPrice"`
	Placeholders int           `json:"placeholders,omitempty"`
}

// Metrics receives checkout outcomes. Satisfied by obs.DomainMetrics.
type Metrics interface {
	OrderCreated()
	PlaceholderSubstituted(n int)
}

// Service turns a cart into an order. The order write is the commit point;
// everything after it (cart cleanup, events, background loyalty evaluation)
// is best effort and never unwinds a created order.
type Service struct {
	Carts   *cart.Store
	Orders  *order.Service
	Builder order.Builder
	Loyalty *loyalty.Engine
	Lock    *lock.Locker
	Queue   *asynq.Client
	Events  *events.Bus
	Metrics Metrics
	Logger  *zerolog.Logger
}

// Create performs checkout for the authenticated customer. A per-cart
// distributed lock serialises concurrent submissions of the same cart; the
// first one wins and consumes the cart, the second sees it gone.
func (s *Service) Create(ctx context.Context, customerID string, in Input) (Output, error) {
	if s == nil || s.Carts == nil || s.Orders == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	if customerID == "" {
		return Output{}, errors.New("customer is required for checkout")
	}
	if in.CartID == "" {
		return Output{}, errors.New("cartId is required")
	}
	if s.Lock != nil {
		var out Output
		err := s.Lock.WithLock(ctx, "checkout:cart:"+in.CartID, 30*time.Second, func(ctx context.Context) error {
			var innerErr error
			out, innerErr = s.create(ctx, customerID, in)
			return innerErr
		})
		return out, err
	}
	return s.create(ctx, customerID, in)
}

func (s *Service) create(ctx context.Context, customerID string, in Input) (Output, error) {
	c, err := s.Carts.Load(ctx, in.CartID)
	if errors.Is(err, cart.ErrNotFound) {
		return Output{}, ErrCartNotFound
	}
	if err != nil {
		return Output{}, fmt.Errorf("checkout: load cart: %w", err)
	}
	if len(c.Items) == 0 {
		return Output{}, ErrEmptyCart
	}

	discountBps, discountCode, err := s.resolveDiscount(ctx, customerID, in.DiscountCode)
	if err != nil {
		return Output{}, err
	}

	orderID := uuid.NewString()
	built, err := s.Builder.BuildItems(ctx, c, orderID, discountBps)
	if err != nil {
		return Output{}, fmt.Errorf("checkout: build items: %w", err)
	}
	if len(built.Items) == 0 {
		return Output{}, ErrEmptyCart
	}

	notes := ""
	if in.Notes != nil {
		notes = *in.Notes
	}
	o := order.Order{
		ID:            orderID,
		CustomerID:    customerID,
		CustomerEmail: in.Address.Email,
		Address:       marshalAddr(in.Address),
		Summary:       built.Summary,
		TotalPrice:    built.Summary.Subtotal - built.Summary.TotalDiscount,
		Notes:         notes,
	}
	created, err := s.Orders.Create(ctx, o, built.Items)
	if err != nil {
		return Output{}, fmt.Errorf("checkout: persist order: %w", err)
	}

	// Commit point passed. Failures below are logged, not returned.
	s.redeemDiscount(ctx, customerID, discountCode)
	if err := s.Carts.Delete(ctx, c.ID); err != nil {
		s.warn(err, created.ID, "cart cleanup failed")
	}
	s.emitCreated(ctx, created)
	s.enqueueEvaluation(created)
	s.observe(built)

	return Output{
		OrderID:      created.ID,
		Status:       string(created.Status),
		Summary:      built.Summary,
		TotalPrice:   created.TotalPrice,
		Placeholders: built.Placeholders,
	}, nil
}

// resolveDiscount validates an optional code against the customer's active
// reward and returns the basis points to apply. The code is only marked
// redeemed after the order persists.
func (s *Service) resolveDiscount(ctx context.Context, customerID string, code *string) (int64, string, error) {
	if code == nil || *code == "" {
		return 0, "", nil
	}
	if s.Loyalty == nil {
		return 0, "", ErrBadDiscount
	}
	rec, err := s.Loyalty.ActiveFor(ctx, customerID)
	if errors.Is(err, loyalty.ErrNotFound) || errors.Is(err, loyalty.ErrNotActive) {
		return 0, "", ErrBadDiscount
	}
	if err != nil {
		return 0, "", fmt.Errorf("checkout: load discount: %w", err)
	}
	if rec.Code != *code {
		return 0, "", ErrBadDiscount
	}
	return rec.DiscountBps + rec.ExtraDiscountBps, rec.Code, nil
}

func (s *Service) redeemDiscount(ctx context.Context, customerID, code string) {
	if code == "" || s.Loyalty == nil {
		return
	}
	if _, err := s.Loyalty.Redeem(ctx, customerID, code); err != nil {
		s.warn(err, "", "discount redemption failed after order commit")
	}
}

func (s *Service) emitCreated(ctx context.Context, o order.Order) {
	if s.Events == nil {
		return
	}
	if _, err := s.Events.Emit(context.WithoutCancel(ctx), events.TopicOrderCreated, o.ID, o); err != nil {
		s.warn(err, o.ID, "order.created emit failed")
	}
}

func (s *Service) enqueueEvaluation(o order.Order) {
	if s.Queue == nil {
		return
	}
	task, err := loyalty.NewEvaluateTask(o.CustomerID, o.ID)
	if err != nil {
		s.warn(err, o.ID, "loyalty task build failed")
		return
	}
	if _, err := s.Queue.Enqueue(task); err != nil {
		s.warn(err, o.ID, "loyalty task enqueue failed")
	}
}

func (s *Service) observe(built order.BuildResult) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.OrderCreated()
	if built.Placeholders > 0 {
		s.Metrics.PlaceholderSubstituted(built.Placeholders)
	}
}

func (s *Service) warn(err error, orderID, msg string) {
	if s.Logger == nil {
		return
	}
	ev := s.Logger.Warn().Err(err)
	if orderID != "" {
		ev = ev.Str("order_id", orderID)
	}
	ev.Msg(msg)
}

func marshalAddr(a Addr) string {
	parts := []string{a.ReceiverName, a.Phone, a.AddressLine1, a.AddressLine2, a.City, a.Province, a.PostalCode}
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += p
	}
	return out
}
