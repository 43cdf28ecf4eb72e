package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mathurkshitij3776/Realpick/internal/domain"
	"github.com/mathurkshitij3776/Realpick/pkg/database"
	apperrors "github.com/mathurkshitij3776/Realpick/pkg/errors"
)

// SubscriptionRepository implements repository.SubscriptionRepository using
// PostgreSQL.
type SubscriptionRepository struct {
	db database.DBTX
}

// NewSubscriptionRepository creates a new PostgreSQL-backed subscription
// repository.
func NewSubscriptionRepository(db database.DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create inserts a subscription.
func (r *SubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) (err error) {
	query := `
		INSERT INTO subscriptions (id, user_id, product_id, purchased_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`

	ctx, end := database.TraceQuery(ctx, "CreateSubscription", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query, sub.ID, sub.UserID, sub.ProductID, sub.PurchasedAt, sub.ExpiresAt)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return apperrors.AlreadyExists("subscription", "id", sub.ID)
	case isForeignKeyViolation(err) && strings.Contains(pgConstraint(err), "user_id"):
		return apperrors.NotFound("user", sub.UserID)
	case isForeignKeyViolation(err):
		return apperrors.NotFound("product", sub.ProductID)
	default:
		return fmt.Errorf("insert subscription: %w", err)
	}
}

// ListByUser returns the user's subscriptions joined with their products.
func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID string) (subs []domain.Subscription, err error) {
	query := `
		SELECT s.id::text, s.user_id::text, s.purchased_at, s.expires_at, ` + productColumns("p") + `
		FROM subscriptions s
		JOIN products p ON p.id = s.product_id
		WHERE s.user_id = $1
		ORDER BY s.expires_at ASC`

	ctx, end := database.TraceQuery(ctx, "ListSubscriptions", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	subs = []domain.Subscription{}
	for rows.Next() {
		var (
			s        domain.Subscription
			p        domain.Product
			dealJSON []byte
		)
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.PurchasedAt, &s.ExpiresAt,
			&p.ID, &p.Name, &p.Tagline, &p.Description, &p.LogoURL, &p.WebsiteURL,
			&p.GalleryURLs, &p.Categories, &p.Rating, &p.ReviewCount, &p.Upvotes,
			&p.Status, &p.VendorID, &p.MadeIn, &p.LaunchDate, &dealJSON,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan subscription row: %w", err)
		}
		if len(dealJSON) > 0 {
			p.Deal = &domain.Deal{}
			if err := json.Unmarshal(dealJSON, p.Deal); err != nil {
				return nil, fmt.Errorf("unmarshal deal: %w", err)
			}
		}
		s.ProductID = p.ID
		s.Product = &p
		subs = append(subs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscription rows: %w", err)
	}
	return subs, nil
}
