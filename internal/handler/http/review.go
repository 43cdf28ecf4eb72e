package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mathurkshitij3776/Realpick/internal/domain"
	"github.com/mathurkshitij3776/Realpick/internal/service"
	"github.com/mathurkshitij3776/Realpick/pkg/httputil"
	"github.com/mathurkshitij3776/Realpick/pkg/validator"
)

// ReviewHandler handles HTTP requests for product reviews.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{service: svc, logger: logger}
}

// ReviewResponse pairs a new review with the product's refreshed aggregates.
type ReviewResponse struct {
	Review      *domain.Review `json:"review"`
	Rating      float64        `json:"rating"`
	ReviewCount int            `json:"review_count"`
}

// ListReviews handles GET /api/products/{id}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListReviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, reviews)
}

// SubmitReview handles POST /api/products/{id}/reviews
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitReviewInput
	if err := validator.Decode(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	review, product, err := h.service.SubmitReview(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, ReviewResponse{
		Review:      review,
		Rating:      product.Rating,
		ReviewCount: product.ReviewCount,
	})
}
