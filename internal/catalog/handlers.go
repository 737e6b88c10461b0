package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/sawahraya/backend-beras/internal/common"
)

// Invalidator drops cached product entries after admin writes. Satisfied by
// cache.Products.
type Invalidator interface {
	Invalidate(ctx context.Context, id string)
}

// Handler exposes catalog endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
	Cache    Invalidator
}

// Products handles GET /products.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	products, err := h.Svc.List(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list products", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	start := (page - 1) * perPage
	if start > len(products) {
		start = len(products)
	}
	end := start + perPage
	if end > len(products) {
		end = len(products)
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": products[start:end],
		"meta": common.Pagination{Page: page, PerPage: perPage, TotalItems: len(products)},
	})
}

// ProductDetail handles GET /products/{id}.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	id := chi.URLParam(r, "id")
	product, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load product", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": product})
}

// AdminUpsert handles POST /admin/products.
func (h *Handler) AdminUpsert(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	var payload Product
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "product validation failed", err.Error())
			return
		}
	}
	saved, err := h.Svc.Upsert(r.Context(), payload)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to save product", nil)
		return
	}
	if h.Cache != nil {
		h.Cache.Invalidate(r.Context(), saved.ID)
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": saved})
}
