package loyalty

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sawahraya/backend-beras/internal/common"
)

// Handler exposes the customer-facing reward endpoints.
type Handler struct {
	Engine *Engine
}

// Active handles GET /loyalty for the authenticated customer.
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	if h.Engine == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "loyalty engine not configured", nil)
		return
	}
	customerID, ok := common.UserID(r.Context())
	if !ok || customerID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	rec, err := h.Engine.ActiveFor(r.Context(), customerID)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotActive):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "no active discount code", nil)
		return
	case err != nil:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load reward", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rec})
}

type redeemRequest struct {
	Code string `json:"code"`
}

// Redeem handles POST /loyalty/redeem.
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	if h.Engine == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "loyalty engine not configured", nil)
		return
	}
	customerID, ok := common.UserID(r.Context())
	if !ok || customerID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return
	}
	rec, err := h.Engine.Redeem(r.Context(), customerID, req.Code)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotActive):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "no active discount code", nil)
		return
	case errors.Is(err, ErrCodeMismatch):
		common.JSONError(w, http.StatusConflict, "CONFLICT", "code does not match the active discount", nil)
		return
	case err != nil:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to redeem code", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rec})
}
