package domain

import (
	"fmt"
	"math"
	"time"
)

// Subscription grants a user access to a product until ExpiresAt.
type Subscription struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ProductID   string    `json:"product_id"`
	PurchasedAt time.Time `json:"purchased_at"`
	ExpiresAt   time.Time `json:"expires_at"`

	// Product is filled in by dashboard queries.
	Product *Product `json:"product,omitempty"`
}

// Subscription time-left states.
const (
	SubscriptionActive   = "active"
	SubscriptionExpiring = "expiring"
	SubscriptionExpired  = "expired"
)

// TimeLeft describes how long a subscription has before it lapses.
type TimeLeft struct {
	State    string `json:"state"`
	DaysLeft int    `json:"days_left"`
	Label    string `json:"label"`
}

// RemainingAt classifies the subscription at now. Partial days round up, so
// anything with at most one day left "expires today".
func (s *Subscription) RemainingAt(now time.Time) TimeLeft {
	diff := s.ExpiresAt.Sub(now)
	if diff < 0 {
		return TimeLeft{State: SubscriptionExpired, Label: "Expired"}
	}

	days := int(math.Ceil(diff.Hours() / 24))
	if days <= 1 {
		return TimeLeft{State: SubscriptionExpiring, DaysLeft: days, Label: "Expires today"}
	}
	return TimeLeft{State: SubscriptionActive, DaysLeft: days, Label: fmt.Sprintf("%d days left", days)}
}
