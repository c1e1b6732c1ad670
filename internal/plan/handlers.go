package plan

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/technest-ghazi/backend-bnpl/internal/common"
)

// Handler exposes the public plan catalog.
type Handler struct {
	Store *Store
}

// List returns plans a shopper can pick at checkout.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Store.ListActive(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list plans", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": plans})
}

// AdminHandler manages the plan catalog.
type AdminHandler struct {
	Svc      *Service
	Validate *validator.Validate
}

type planRequest struct {
	Name            string `json:"name" validate:"required,max=120"`
	PlanType        string `json:"planType" validate:"required"`
	DurationMonths  int    `json:"durationMonths" validate:"required,min=1"`
	InterestRateBps int32  `json:"interestRateBps" validate:"min=0"`
	Active          bool   `json:"active"`
}

func (h *AdminHandler) decode(w http.ResponseWriter, r *http.Request) (planRequest, bool) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return req, false
	}
	if err := h.Validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return req, false
	}
	return req, true
}

// List returns the full catalog including inactive plans.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Svc.Store.ListAll(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list plans", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": plans})
}

// Create adds a plan.
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	created, err := h.Svc.Create(r.Context(), Plan{
		Name:            req.Name,
		PlanType:        Type(req.PlanType),
		DurationMonths:  req.DurationMonths,
		InterestRateBps: req.InterestRateBps,
		Active:          req.Active,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, created)
}

// Update rewrites a plan.
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	updated, err := h.Svc.Update(r.Context(), Plan{
		ID:              chi.URLParam(r, "id"),
		Name:            req.Name,
		PlanType:        Type(req.PlanType),
		DurationMonths:  req.DurationMonths,
		InterestRateBps: req.InterestRateBps,
		Active:          req.Active,
	})
	if err != nil {
		if err == ErrNotFound {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "plan not found", nil)
			return
		}
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, updated)
}

// Deactivate hides a plan from new checkouts.
func (h *AdminHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Store.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		if err == ErrNotFound {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "plan not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to deactivate plan", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
