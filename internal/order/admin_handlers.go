package order

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/technest-ghazi/backend-bnpl/internal/common"
	"github.com/technest-ghazi/backend-bnpl/internal/events"
)

// AdminHandler provides the back-office order endpoints.
type AdminHandler struct {
	Store *Store
	Svc   *Service
}

// List returns orders across all users, optionally filtered by payment
// status (`?status=Pending Review` surfaces the manual-follow-up queue).
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	offset := int32((page - 1) * perPage)
	var status *string
	if raw := r.URL.Query().Get("status"); raw != "" {
		status = &raw
	}
	orders, err := h.Store.List(r.Context(), status, int32(perPage), offset)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": orders,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: len(orders),
		},
	})
}

type payInstallmentRequest struct {
	InstallmentNumber int `json:"installmentNumber"`
}

// PayInstallment records a settled installment on behalf of the customer.
func (h *AdminHandler) PayInstallment(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	var payload payInstallmentRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if payload.InstallmentNumber <= 0 {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "installmentNumber must be positive", nil)
		return
	}
	ord, err := h.Svc.RecordInstallmentPayment(r.Context(), chi.URLParam(r, "orderId"), payload.InstallmentNumber)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": ord})
}

type patchStatusRequest struct {
	Status string `json:"status"`
}

// PatchStatus force-sets an order's overall payment status. Used for the
// manual resolution of Pending Review orders.
func (h *AdminHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	var payload patchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	target := PaymentStatus(payload.Status)
	if !isKnownStatus(target) {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "unsupported status", nil)
		return
	}
	orderID := chi.URLParam(r, "orderId")
	if err := h.Store.UpdateStatus(r.Context(), orderID, target); err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update order status", nil)
		return
	}
	if h.Svc != nil {
		h.Svc.emit(r.Context(), events.TopicOrderStatusChanged, orderID, map[string]any{
			"orderId": orderID,
			"status":  string(target),
		})
	}
	w.WriteHeader(http.StatusNoContent)
}

func isKnownStatus(status PaymentStatus) bool {
	switch status {
	case StatusUnpaidCOD, StatusUnpaidBNPL, StatusUnpaidFixedDuration,
		StatusMixedPending, StatusPendingReview, StatusPendingFirstInstallment,
		StatusPartiallyPaid, StatusOverdue, StatusCompleted:
		return true
	}
	return false
}
