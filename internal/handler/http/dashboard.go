package http

import (
	"log/slog"
	"net/http"

	"github.com/mathurkshitij3776/Realpick/internal/service"
	"github.com/mathurkshitij3776/Realpick/pkg/httputil"
)

// DashboardHandler serves the caller's vendor and buyer views.
type DashboardHandler struct {
	catalog       *service.CatalogService
	subscriptions *service.SubscriptionService
	logger        *slog.Logger
}

// NewDashboardHandler creates a new dashboard HTTP handler.
func NewDashboardHandler(catalog *service.CatalogService, subscriptions *service.SubscriptionService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{catalog: catalog, subscriptions: subscriptions, logger: logger}
}

// Submissions handles GET /api/me/submissions
func (h *DashboardHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.VendorSubmissions(r.Context(), actorFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, products)
}

// Subscriptions handles GET /api/me/subscriptions
func (h *DashboardHandler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subscriptions.ListForUser(r.Context(), actorFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, subs)
}
