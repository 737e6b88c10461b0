package loyalty

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeEvaluate is the background task that re-runs reward evaluation after a
// checkout. Retries are safe because Evaluate is idempotent per order.
const TypeEvaluate = "loyalty:evaluate"

// EvaluatePayload carries just the ids; the engine recomputes everything else
// from stored orders.
type EvaluatePayload struct {
	CustomerID string `json:"customerId"`
	OrderID    string `json:"orderId"`
}

// NewEvaluateTask builds the asynq task enqueued at checkout.
func NewEvaluateTask(customerID, orderID string) (*asynq.Task, error) {
	payload, err := json.Marshal(EvaluatePayload{CustomerID: customerID, OrderID: orderID})
	if err != nil {
		return nil, fmt.Errorf("loyalty: marshal task: %w", err)
	}
	return asynq.NewTask(TypeEvaluate, payload, asynq.MaxRetry(5)), nil
}

// TaskHandler runs Evaluate for queued tasks.
type TaskHandler struct {
	Engine *Engine
}

// ProcessTask implements asynq.Handler.
func (h TaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p EvaluatePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("loyalty: unmarshal task: %v: %w", err, asynq.SkipRetry)
	}
	if p.CustomerID == "" || p.OrderID == "" {
		return fmt.Errorf("loyalty: task missing ids: %w", asynq.SkipRetry)
	}
	if _, err := h.Engine.Evaluate(ctx, p.CustomerID, p.OrderID); err != nil {
		return err
	}
	return nil
}
