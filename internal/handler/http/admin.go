package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mathurkshitij3776/Realpick/internal/service"
	"github.com/mathurkshitij3776/Realpick/pkg/httputil"
)

// AdminHandler serves the moderation queue.
type AdminHandler struct {
	service *service.ModerationService
	logger  *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(svc *service.ModerationService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{service: svc, logger: logger}
}

// ListPending handles GET /api/admin/products/pending
func (h *AdminHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListPending(r.Context(), actorFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, products)
}

// Approve handles POST /api/admin/products/{id}/approve
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Approve(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// Reject handles POST /api/admin/products/{id}/reject
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Reject(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}
