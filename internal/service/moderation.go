package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mathurkshitij3776/Realpick/internal/domain"
	"github.com/mathurkshitij3776/Realpick/internal/event"
	"github.com/mathurkshitij3776/Realpick/internal/repository"
	"github.com/mathurkshitij3776/Realpick/internal/search"
	apperrors "github.com/mathurkshitij3776/Realpick/pkg/errors"
)

// ModerationService drives the pending -> approved | rejected lifecycle.
// Admin rights are checked against the stored user, so revoking the flag
// takes effect before outstanding tokens expire.
type ModerationService struct {
	products repository.ProductRepository
	users    repository.UserRepository
	producer *event.Producer
	index    search.Index
	logger   *slog.Logger
}

// NewModerationService creates a new moderation service.
func NewModerationService(
	products repository.ProductRepository,
	users repository.UserRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *ModerationService {
	return &ModerationService{products: products, users: users, producer: producer, logger: logger}
}

// UseSearchIndex keeps idx in step with status changes.
func (s *ModerationService) UseSearchIndex(idx search.Index) {
	s.index = idx
}

// ListPending returns the moderation queue.
func (s *ModerationService) ListPending(ctx context.Context, actor *Actor) ([]domain.Product, error) {
	if err := s.authorize(ctx, actor); err != nil {
		return nil, err
	}

	status := domain.ProductStatusPending
	products, err := s.products.List(ctx, repository.ProductFilter{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("list pending products: %w", err)
	}
	return products, nil
}

// Approve publishes a product to the catalog.
func (s *ModerationService) Approve(ctx context.Context, actor *Actor, id string) (*domain.Product, error) {
	return s.transition(ctx, actor, id, domain.ProductStatusApproved)
}

// Reject removes a product from the catalog.
func (s *ModerationService) Reject(ctx context.Context, actor *Actor, id string) (*domain.Product, error) {
	return s.transition(ctx, actor, id, domain.ProductStatusRejected)
}

func (s *ModerationService) transition(ctx context.Context, actor *Actor, id, to string) (*domain.Product, error) {
	if err := s.authorize(ctx, actor); err != nil {
		return nil, err
	}

	current, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if current.Status == to {
		return current, nil
	}
	if !domain.CanTransition(current.Status, to) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("cannot move product from %s to %s", current.Status, to))
	}

	product, err := s.products.UpdateStatus(ctx, id, to)
	if err != nil {
		return nil, fmt.Errorf("update product status: %w", err)
	}

	if s.index != nil {
		if err := s.index.Index(ctx, product); err != nil {
			s.logger.WarnContext(ctx, "failed to re-index moderated product",
				slog.String("product_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.producer.PublishProductStatusChanged(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product status event",
			slog.String("product_id", id),
			slog.String("status", to),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product moderated",
		slog.String("product_id", id),
		slog.String("from", current.Status),
		slog.String("to", to),
		slog.String("admin_id", actor.UserID),
	)

	return product, nil
}

func (s *ModerationService) authorize(ctx context.Context, actor *Actor) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Unauthorized("account no longer exists")
		}
		return fmt.Errorf("load admin: %w", err)
	}
	if !user.IsAdmin {
		return apperrors.Forbidden("admin privileges required")
	}
	return nil
}
