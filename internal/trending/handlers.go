package trending

import (
	"net/http"

	"github.com/technest-ghazi/backend-bnpl/internal/common"
)

type Handler struct {
	Svc *Service
}

// Products handles GET /products/trending.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	scored, err := h.Svc.Trending(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to compute trending products", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": scored})
}
