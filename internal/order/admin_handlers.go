package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sawahraya/backend-beras/internal/common"
	"github.com/sawahraya/backend-beras/internal/events"
)

// Metrics receives admin transition counts. Satisfied by obs.DomainMetrics.
type Metrics interface {
	OrderStatusChanged(status string)
}

// AdminHandler exposes order status administration.
type AdminHandler struct {
	Svc     *Service
	Events  *events.Bus
	Metrics Metrics
}

type statusPayload struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// PatchStatus handles PATCH /admin/orders/{id}/status.
func (h *AdminHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	var payload statusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	next, err := ParseStatus(payload.Status)
	if err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
		return
	}
	id := chi.URLParam(r, "id")
	updated, err := h.Svc.UpdateStatus(r.Context(), id, next, payload.Notes)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		case errors.Is(err, ErrBadTransition):
			common.JSONError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update order", nil)
		}
		return
	}
	if h.Metrics != nil {
		h.Metrics.OrderStatusChanged(string(updated.Status))
	}
	if h.Events != nil {
		_, _ = h.Events.Emit(context.WithoutCancel(r.Context()), events.TopicOrderStatusChanged, updated.ID, map[string]any{
			"orderId":       updated.ID,
			"customerId":    updated.CustomerID,
			"customerEmail": updated.CustomerEmail,
			"status":        string(updated.Status),
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}
