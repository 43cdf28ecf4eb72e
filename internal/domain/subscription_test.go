package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionRemainingAt(t *testing.T) {
	now := time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		expires time.Time
		want    TimeLeft
	}{
		{"expired", now.Add(-time.Hour), TimeLeft{State: SubscriptionExpired, Label: "Expired"}},
		{"hours left", now.Add(5 * time.Hour), TimeLeft{State: SubscriptionExpiring, DaysLeft: 1, Label: "Expires today"}},
		{"exactly one day", now.Add(24 * time.Hour), TimeLeft{State: SubscriptionExpiring, DaysLeft: 1, Label: "Expires today"}},
		{"partial days round up", now.Add(36 * time.Hour), TimeLeft{State: SubscriptionActive, DaysLeft: 2, Label: "2 days left"}},
		{"thirty days", now.AddDate(0, 0, 30), TimeLeft{State: SubscriptionActive, DaysLeft: 30, Label: "30 days left"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Subscription{ExpiresAt: tt.expires}
			assert.Equal(t, tt.want, s.RemainingAt(now))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
}
