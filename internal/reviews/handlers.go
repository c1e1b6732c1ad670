package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/technest-ghazi/backend-bnpl/internal/catalog"
	"github.com/technest-ghazi/backend-bnpl/internal/common"
)

type productLookup interface {
	GetBySlug(ctx context.Context, slug string) (catalog.Product, error)
}

type Handler struct {
	Svc      *Service
	Products productLookup
	Validate *validator.Validate
}

type createReviewRequest struct {
	Rating  int32  `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

func (h *Handler) productID(w http.ResponseWriter, r *http.Request) (string, bool) {
	product, err := h.Products.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		} else {
			common.WriteError(w, err)
		}
		return "", false
	}
	return product.ID, true
}

// Create handles POST /products/{slug}/reviews. One review per user per product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing user", nil)
		return
	}
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	already, err := h.Svc.HasUserReviewed(r.Context(), userID, productID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if already {
		common.JSONError(w, http.StatusConflict, "ALREADY_REVIEWED", "product already reviewed by this user", nil)
		return
	}

	rev, err := h.Svc.Create(r.Context(), userID, productID, req.Rating, req.Comment)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, rev)
}

// List handles GET /products/{slug}/reviews.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	page, perPage := common.ParsePagination(r, 10)
	out, err := h.Svc.ListByProduct(r.Context(), productID, int32(page), int32(perPage))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}
