package repository

import (
	"context"

	"github.com/mathurkshitij3776/Realpick/internal/domain"
)

// ProductFilter narrows a product listing. Nil fields are ignored.
type ProductFilter struct {
	Status   *string
	Category *string
	Search   *string
	VendorID *string
}

// ProductRepository defines the persistence operations for products.
type ProductRepository interface {
	// Create inserts a product. It returns an ErrAlreadyExists error when the
	// id is taken.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID returns a product without its reviews.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// List returns products matching filter, newest launch first with undated
	// products last. Search matches name or tagline, case-insensitive.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)

	// UpdateStatus sets the moderation status and returns the updated product.
	UpdateStatus(ctx context.Context, id, status string) (*domain.Product, error)

	// IncrementUpvotes adds one vote atomically and returns the updated product.
	IncrementUpvotes(ctx context.Context, id string) (*domain.Product, error)
}

// ReviewRepository defines the persistence operations for reviews.
type ReviewRepository interface {
	// Create stores the review and recomputes the product's rating and review
	// count in the same transaction. It returns the updated product, NotFound
	// for a missing product and AlreadyExists for a taken id.
	Create(ctx context.Context, review *domain.Review) (*domain.Product, error)

	// ListByProduct returns a product's reviews, newest first.
	ListByProduct(ctx context.Context, productID string) ([]domain.Review, error)
}

// UserRepository defines the persistence operations for users. Emails are
// expected to be normalized by the caller.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// SubscriptionRepository stores subscriptions. They are provisioned outside
// the API, by the seed loader.
type SubscriptionRepository interface {
	// Create inserts a subscription. A missing product is NotFound, a taken
	// id AlreadyExists.
	Create(ctx context.Context, sub *domain.Subscription) error
	// ListByUser returns the user's subscriptions with their products,
	// soonest expiry first.
	ListByUser(ctx context.Context, userID string) ([]domain.Subscription, error)
}
