package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mathurkshitij3776/Realpick/internal/domain"
	"github.com/mathurkshitij3776/Realpick/internal/repository"
)

// SubscriptionStatus is a subscription with its remaining time.
type SubscriptionStatus struct {
	domain.Subscription
	TimeLeft domain.TimeLeft `json:"time_left"`
}

// SubscriptionService backs the buyer dashboard.
type SubscriptionService struct {
	subscriptions repository.SubscriptionRepository
	now           Clock
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(subscriptions repository.SubscriptionRepository) *SubscriptionService {
	return &SubscriptionService{subscriptions: subscriptions, now: time.Now}
}

// ListForUser returns the actor's subscriptions, soonest expiry first.
func (s *SubscriptionService) ListForUser(ctx context.Context, actor *Actor) ([]SubscriptionStatus, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	subs, err := s.subscriptions.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	now := s.now()
	out := make([]SubscriptionStatus, len(subs))
	for i := range subs {
		out[i] = SubscriptionStatus{Subscription: subs[i], TimeLeft: subs[i].RemainingAt(now)}
	}
	return out, nil
}
