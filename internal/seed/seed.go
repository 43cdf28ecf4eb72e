// Package seed loads the demo catalog: users, products with reviews and a
// buyer's subscriptions. Loading is idempotent; records that already exist
// are left untouched.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mathurkshitij3776/Realpick/internal/domain"
	"github.com/mathurkshitij3776/Realpick/internal/repository"
	apperrors "github.com/mathurkshitij3776/Realpick/pkg/errors"
)

// namespace derives stable ids so re-runs hit the same rows.
var namespace = uuid.MustParse("6f1c3f0e-2b8a-4f5e-9a31-6c7d2e4b9a10")

func stableID(kind, key string) string {
	return uuid.NewSHA1(namespace, []byte(kind+":"+key)).String()
}

// Repositories are the stores the loader writes to.
type Repositories struct {
	Products      repository.ProductRepository
	Reviews       repository.ReviewRepository
	Users         repository.UserRepository
	Subscriptions repository.SubscriptionRepository
}

// Summary counts what a Load created and skipped.
type Summary struct {
	Users         int
	Products      int
	Reviews       int
	Subscriptions int
	Skipped       int
}

// Loader writes a Data set through the repositories.
type Loader struct {
	repos    Repositories
	password string
	cost     int
	logger   *slog.Logger
}

// NewLoader creates a Loader. Every seeded user gets password.
func NewLoader(repos Repositories, password string, logger *slog.Logger) *Loader {
	return &Loader{repos: repos, password: password, cost: bcrypt.DefaultCost, logger: logger}
}

// Load writes data. Existing users are reused by email; existing products
// keep their reviews and stats.
func (l *Loader) Load(ctx context.Context, data Data, now time.Time) (Summary, error) {
	var sum Summary

	hash, err := bcrypt.GenerateFromPassword([]byte(l.password), l.cost)
	if err != nil {
		return sum, fmt.Errorf("hash seed password: %w", err)
	}

	users := make(map[string]*domain.User, len(data.Users))
	for _, us := range data.Users {
		u, created, err := l.ensureUser(ctx, us, string(hash), now)
		if err != nil {
			return sum, err
		}
		if created {
			sum.Users++
		} else {
			sum.Skipped++
		}
		users[u.Email] = u
	}

	for _, ps := range data.Products {
		p := ps.Product
		p.CreatedAt, p.UpdatedAt = now, now
		if ps.Vendor != "" {
			v, ok := users[domain.NormalizeEmail(ps.Vendor)]
			if !ok {
				return sum, fmt.Errorf("product %s: unknown vendor %s", p.ID, ps.Vendor)
			}
			p.VendorID = &v.ID
		}

		// An existing product still gets its reviews, so a run that stopped
		// halfway is completed by the next one.
		if err := l.repos.Products.Create(ctx, &p); err != nil {
			if !errors.Is(err, apperrors.ErrAlreadyExists) {
				return sum, fmt.Errorf("seed product %s: %w", p.ID, err)
			}
			sum.Skipped++
		} else {
			sum.Products++
		}

		for i, rs := range ps.Reviews {
			author, ok := users[domain.NormalizeEmail(rs.Author)]
			if !ok {
				return sum, fmt.Errorf("review on %s: unknown author %s", p.ID, rs.Author)
			}
			rv := &domain.Review{
				ID:         stableID("review", fmt.Sprintf("%s/%d", p.ID, i)),
				ProductID:  p.ID,
				AuthorID:   author.ID,
				AuthorName: author.Name,
				Rating:     rs.Rating,
				Title:      rs.Title,
				Comment:    rs.Comment,
				IsVerified: true,
				CreatedAt:  now.Add(-time.Duration(len(ps.Reviews)-i) * time.Hour),
			}
			if _, err := l.repos.Reviews.Create(ctx, rv); err != nil {
				if errors.Is(err, apperrors.ErrAlreadyExists) {
					sum.Skipped++
					continue
				}
				return sum, fmt.Errorf("seed review on %s: %w", p.ID, err)
			}
			sum.Reviews++
		}
	}

	for _, ss := range data.Subscriptions {
		buyer, ok := users[domain.NormalizeEmail(ss.User)]
		if !ok {
			return sum, fmt.Errorf("subscription to %s: unknown user %s", ss.ProductID, ss.User)
		}
		sub := &domain.Subscription{
			ID:          stableID("subscription", buyer.Email+"/"+ss.ProductID),
			UserID:      buyer.ID,
			ProductID:   ss.ProductID,
			PurchasedAt: ss.Purchased,
			ExpiresAt:   ss.Expires,
		}
		if err := l.repos.Subscriptions.Create(ctx, sub); err != nil {
			if errors.Is(err, apperrors.ErrAlreadyExists) {
				sum.Skipped++
				continue
			}
			return sum, fmt.Errorf("seed subscription %s: %w", sub.ID, err)
		}
		sum.Subscriptions++
	}

	l.logger.InfoContext(ctx, "seed data loaded",
		slog.Int("users", sum.Users),
		slog.Int("products", sum.Products),
		slog.Int("reviews", sum.Reviews),
		slog.Int("subscriptions", sum.Subscriptions),
		slog.Int("skipped", sum.Skipped),
	)
	return sum, nil
}

func (l *Loader) ensureUser(ctx context.Context, us userSeed, hash string, now time.Time) (*domain.User, bool, error) {
	email := domain.NormalizeEmail(us.Email)
	u := &domain.User{
		ID:           stableID("user", email),
		Name:         us.Name,
		Email:        email,
		IsAdmin:      us.Admin,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := l.repos.Users.Create(ctx, u)
	if err == nil {
		return u, true, nil
	}
	if !errors.Is(err, apperrors.ErrAlreadyExists) {
		return nil, false, fmt.Errorf("seed user %s: %w", email, err)
	}

	existing, err := l.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("load existing user %s: %w", email, err)
	}
	return existing, false, nil
}
