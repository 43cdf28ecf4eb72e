// Package memory provides mutex-guarded in-process implementations of the
// repository interfaces, used when STORAGE_DRIVER=memory and in tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mathurkshitij3776/Realpick/internal/domain"
	"github.com/mathurkshitij3776/Realpick/internal/repository"
	apperrors "github.com/mathurkshitij3776/Realpick/pkg/errors"
)

// Store holds every entity behind a single lock so review inserts and
// aggregate updates are atomic with respect to each other.
type Store struct {
	mu            sync.Mutex
	products      map[string]*domain.Product
	reviews       map[string][]domain.Review
	users         map[string]*domain.User
	subscriptions []domain.Subscription
	now           func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		products: make(map[string]*domain.Product),
		reviews:  make(map[string][]domain.Review),
		users:    make(map[string]*domain.User),
		now:      time.Now,
	}
}

// Products returns the store as a repository.ProductRepository.
func (s *Store) Products() repository.ProductRepository { return (*productRepo)(s) }

// Reviews returns the store as a repository.ReviewRepository.
func (s *Store) Reviews() repository.ReviewRepository { return (*reviewRepo)(s) }

// Users returns the store as a repository.UserRepository.
func (s *Store) Users() repository.UserRepository { return (*userRepo)(s) }

// Subscriptions returns the store as a repository.SubscriptionRepository.
func (s *Store) Subscriptions() repository.SubscriptionRepository { return (*subscriptionRepo)(s) }

// AddSubscription provisions a subscription. The product must exist.
func (s *Store) AddSubscription(sub domain.Subscription) error {
	return (*subscriptionRepo)(s).Create(context.Background(), &sub)
}

// ─── products ───────────────────────────────────────────────────────────────

type productRepo Store

func (r *productRepo) Create(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[p.ID]; ok {
		return apperrors.AlreadyExists("product", "id", p.ID)
	}
	cp := cloneProduct(p)
	cp.Reviews = nil
	r.products[p.ID] = cp
	return nil
}

func (r *productRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	return cloneProduct(p), nil
}

func (r *productRepo) List(_ context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if f.Status != nil && p.Status != *f.Status {
			continue
		}
		if f.Category != nil && !p.HasCategory(*f.Category) {
			continue
		}
		if f.Search != nil {
			q := strings.ToLower(*f.Search)
			if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Tagline), q) {
				continue
			}
		}
		if f.VendorID != nil && (p.VendorID == nil || *p.VendorID != *f.VendorID) {
			continue
		}
		out = append(out, *cloneProduct(p))
	}

	// Map iteration is random; settle ties on created_at then id before the
	// stable launch-date sort.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	domain.SortByLaunchDesc(out)
	return out, nil
}

func (r *productRepo) UpdateStatus(_ context.Context, id, status string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	p.Status = status
	p.UpdatedAt = r.now()
	return cloneProduct(p), nil
}

func (r *productRepo) IncrementUpvotes(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	p.Upvotes++
	p.UpdatedAt = r.now()
	return cloneProduct(p), nil
}

// ─── reviews ────────────────────────────────────────────────────────────────

type reviewRepo Store

func (r *reviewRepo) Create(_ context.Context, rv *domain.Review) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[rv.ProductID]
	if !ok {
		return nil, apperrors.NotFound("product", rv.ProductID)
	}
	if rv.ID != "" {
		for _, existing := range r.reviews[rv.ProductID] {
			if existing.ID == rv.ID {
				return nil, apperrors.AlreadyExists("review", "id", rv.ID)
			}
		}
	}

	p.Reviews = r.reviews[rv.ProductID]
	p.AddReview(*rv)
	r.reviews[rv.ProductID] = p.Reviews
	p.Reviews = nil
	p.UpdatedAt = r.now()
	return cloneProduct(p), nil
}

func (r *reviewRepo) ListByProduct(_ context.Context, productID string) ([]domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Review, len(r.reviews[productID]))
	copy(out, r.reviews[productID])
	return out, nil
}

// ─── users ──────────────────────────────────────────────────────────────────

type userRepo Store

func (r *userRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(u.Email, "") {
		return apperrors.AlreadyExists("user", "email", u.Email)
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user", email)
}

func (r *userRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[u.ID]
	if !ok {
		return apperrors.NotFound("user", u.ID)
	}
	if r.emailTaken(u.Email, u.ID) {
		return apperrors.AlreadyExists("user", "email", u.Email)
	}
	existing.Name = u.Name
	existing.Email = u.Email
	existing.IsAdmin = u.IsAdmin
	existing.UpdatedAt = u.UpdatedAt
	return nil
}

func (r *userRepo) emailTaken(email, exceptID string) bool {
	for id, u := range r.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

// ─── subscriptions ──────────────────────────────────────────────────────────

type subscriptionRepo Store

func (r *subscriptionRepo) Create(_ context.Context, sub *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[sub.ProductID]; !ok {
		return apperrors.NotFound("product", sub.ProductID)
	}
	for _, existing := range r.subscriptions {
		if existing.ID == sub.ID {
			return apperrors.AlreadyExists("subscription", "id", sub.ID)
		}
	}
	cp := *sub
	cp.Product = nil
	r.subscriptions = append(r.subscriptions, cp)
	return nil
}

func (r *subscriptionRepo) ListByUser(_ context.Context, userID string) ([]domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []domain.Subscription{}
	for _, sub := range r.subscriptions {
		if sub.UserID != userID {
			continue
		}
		if p, ok := r.products[sub.ProductID]; ok {
			sub.Product = cloneProduct(p)
		}
		out = append(out, sub)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func cloneProduct(p *domain.Product) *domain.Product {
	cp := *p
	cp.GalleryURLs = cloneStrings(p.GalleryURLs)
	cp.Categories = cloneStrings(p.Categories)
	if p.Deal != nil {
		d := *p.Deal
		cp.Deal = &d
	}
	if p.Reviews != nil {
		cp.Reviews = append([]domain.Review(nil), p.Reviews...)
	}
	return &cp
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}
