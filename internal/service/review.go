package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mathurkshitij3776/Realpick/internal/domain"
	"github.com/mathurkshitij3776/Realpick/internal/event"
	"github.com/mathurkshitij3776/Realpick/internal/repository"
	apperrors "github.com/mathurkshitij3776/Realpick/pkg/errors"
	"github.com/mathurkshitij3776/Realpick/pkg/validator"
)

// ReviewService implements review submission and listing.
type ReviewService struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
	users    repository.UserRepository
	producer *event.Producer
	logger   *slog.Logger
	now      Clock
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		products: products,
		users:    users,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// SubmitReviewInput holds a review's content.
type SubmitReviewInput struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Title   string `json:"title" validate:"required,max=200"`
	Comment string `json:"comment" validate:"required,max=5000"`
}

// SubmitReview stores a review by actor and returns it together with the
// product's refreshed rating and review count.
func (s *ReviewService) SubmitReview(ctx context.Context, actor *Actor, productID string, in SubmitReviewInput) (*domain.Review, *domain.Product, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Comment = strings.TrimSpace(in.Comment)
	if err := validator.Validate(in); err != nil {
		return nil, nil, err
	}

	author, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.Unauthorized("account no longer exists")
		}
		return nil, nil, fmt.Errorf("load review author: %w", err)
	}

	review := &domain.Review{
		ID:         uuid.New().String(),
		ProductID:  productID,
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Rating:     in.Rating,
		Title:      in.Title,
		Comment:    in.Comment,
		IsVerified: false,
		CreatedAt:  s.now().UTC(),
	}

	product, err := s.reviews.Create(ctx, review)
	if err != nil {
		return nil, nil, fmt.Errorf("create review: %w", err)
	}

	if err := s.producer.PublishReviewCreated(ctx, review, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.String("product_id", productID),
		slog.Int("rating", review.Rating),
	)

	return review, product, nil
}

// ListReviews returns a product's reviews, newest first.
func (s *ReviewService) ListReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	reviews, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}
