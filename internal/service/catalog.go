package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mathurkshitij3776/Realpick/internal/domain"
	"github.com/mathurkshitij3776/Realpick/internal/event"
	"github.com/mathurkshitij3776/Realpick/internal/repository"
	"github.com/mathurkshitij3776/Realpick/internal/search"
	apperrors "github.com/mathurkshitij3776/Realpick/pkg/errors"
	"github.com/mathurkshitij3776/Realpick/pkg/slug"
	"github.com/mathurkshitij3776/Realpick/pkg/validator"
)

// maxSlugAttempts bounds the suffix search for a free product id.
const maxSlugAttempts = 50

// searchLimit caps the ids requested from the search index.
const searchLimit = 500

// reservedIDs collide with static routes under /api/products.
var reservedIDs = map[string]bool{
	"launches": true,
}

// CatalogService implements browsing, submission and upvoting.
type CatalogService struct {
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	producer *event.Producer
	index    search.Index
	location *time.Location
	logger   *slog.Logger
	now      Clock
}

// NewCatalogService creates a new catalog service. Date filters are
// evaluated in location; nil means UTC.
func NewCatalogService(
	products repository.ProductRepository,
	reviews repository.ReviewRepository,
	producer *event.Producer,
	location *time.Location,
	logger *slog.Logger,
) *CatalogService {
	if location == nil {
		location = time.UTC
	}
	return &CatalogService{
		products: products,
		reviews:  reviews,
		producer: producer,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

// UseSearchIndex routes Search through idx. Submissions are indexed as they
// are created; call Reindex once to load existing products.
func (s *CatalogService) UseSearchIndex(idx search.Index) {
	s.index = idx
}

// --- Input types ---

// BrowseInput holds the list filters. Empty fields match everything.
type BrowseInput struct {
	Search     string
	Category   string
	DateFilter string
}

// DealInput describes an optional promotion on a submission.
type DealInput struct {
	Title       string     `json:"title" validate:"required,max=100"`
	Description string     `json:"description" validate:"max=500"`
	Discount    string     `json:"discount" validate:"required,max=50"`
	Code        string     `json:"code" validate:"max=50"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// SubmitProductInput holds the fields of a product submission.
type SubmitProductInput struct {
	Name        string     `json:"name" validate:"required,max=100"`
	Tagline     string     `json:"tagline" validate:"required,max=140"`
	Description string     `json:"description" validate:"required,max=5000"`
	LogoURL     string     `json:"logo_url" validate:"required,httpurl"`
	WebsiteURL  string     `json:"website_url" validate:"required,httpurl"`
	GalleryURLs []string   `json:"gallery_urls" validate:"max=10,dive,httpurl"`
	Categories  []string   `json:"categories" validate:"min=1,max=10,dive,max=50"`
	MadeIn      *string    `json:"made_in" validate:"omitempty,max=100"`
	LaunchDate  *time.Time `json:"launch_date"`
	Deal        *DealInput `json:"deal"`
}

func (in *SubmitProductInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Tagline = strings.TrimSpace(in.Tagline)
	in.Description = strings.TrimSpace(in.Description)
	in.LogoURL = strings.TrimSpace(in.LogoURL)
	in.WebsiteURL = strings.TrimSpace(in.WebsiteURL)
	in.Categories = domain.NormalizeCategories(in.Categories)
	if in.MadeIn != nil {
		m := strings.TrimSpace(*in.MadeIn)
		if m == "" {
			in.MadeIn = nil
		} else {
			in.MadeIn = &m
		}
	}
}

// --- Queries ---

// ListApproved returns every approved product, newest launch first.
func (s *CatalogService) ListApproved(ctx context.Context) ([]domain.Product, error) {
	status := domain.ProductStatusApproved
	products, err := s.products.List(ctx, repository.ProductFilter{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("list approved products: %w", err)
	}
	return products, nil
}

// Browse returns approved products matching the filters. Category and search
// are pushed down to the repository; the date bucket is applied here in the
// catalog location.
func (s *CatalogService) Browse(ctx context.Context, in BrowseInput) ([]domain.Product, error) {
	dateFilter, ok := domain.ParseDateFilter(in.DateFilter)
	if !ok {
		return nil, validator.NewValidationError(map[string]string{
			"date": "must be one of All, Today, Yesterday, This Week",
		})
	}

	status := domain.ProductStatusApproved
	filter := repository.ProductFilter{Status: &status}
	if c := strings.TrimSpace(in.Category); c != "" && c != domain.CategoryAll {
		filter.Category = &c
	}
	if q := strings.TrimSpace(in.Search); q != "" {
		filter.Search = &q
	}

	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("browse products: %w", err)
	}

	return domain.Filter(products, domain.Criteria{
		Search:     in.Search,
		Category:   in.Category,
		DateFilter: dateFilter,
	}, s.clock()), nil
}

// Get returns a product with its reviews, newest first.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	reviews, err := s.reviews.ListByProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	product.Reviews = reviews

	return product, nil
}

// Categories returns the sorted set of categories in use by approved products.
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	products, err := s.ListApproved(ctx)
	if err != nil {
		return nil, err
	}
	return domain.Categories(products), nil
}

// Launches splits approved products into today's and earlier launches.
func (s *CatalogService) Launches(ctx context.Context) (domain.Launches, error) {
	products, err := s.ListApproved(ctx)
	if err != nil {
		return domain.Launches{}, err
	}
	return domain.SplitLaunches(products, s.clock()), nil
}

// Search matches approved products on name, tagline or description. With a
// search index the index picks the matches; when it fails the catalog is
// scanned instead.
func (s *CatalogService) Search(ctx context.Context, q string) ([]domain.Product, error) {
	products, err := s.ListApproved(ctx)
	if err != nil {
		return nil, err
	}

	if s.index != nil && strings.TrimSpace(q) != "" {
		ids, err := s.index.Search(ctx, q, searchLimit)
		if err == nil {
			return pickByID(products, ids), nil
		}
		s.logger.WarnContext(ctx, "search index unavailable, scanning catalog",
			slog.String("error", err.Error()),
		)
	}

	out := make([]domain.Product, 0, len(products))
	for i := range products {
		if domain.MatchesFullText(&products[i], q) {
			out = append(out, products[i])
		}
	}
	domain.SortByLaunchDesc(out)
	return out, nil
}

// pickByID keeps the products named in ids, preserving launch date order.
func pickByID(products []domain.Product, ids []string) []domain.Product {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]domain.Product, 0, len(ids))
	for _, p := range products {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	domain.SortByLaunchDesc(out)
	return out
}

// Reindex loads every product into the search index. It is a no-op
// without one.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	products, err := s.products.List(ctx, repository.ProductFilter{})
	if err != nil {
		return 0, fmt.Errorf("list products for reindex: %w", err)
	}
	if err := s.index.BulkIndex(ctx, products); err != nil {
		return 0, fmt.Errorf("reindex products: %w", err)
	}
	return len(products), nil
}

// VendorSubmissions returns the caller's products in every status, most
// recently submitted first.
func (s *CatalogService) VendorSubmissions(ctx context.Context, actor *Actor) ([]domain.Product, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	products, err := s.products.List(ctx, repository.ProductFilter{VendorID: &actor.UserID})
	if err != nil {
		return nil, fmt.Errorf("list vendor products: %w", err)
	}

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

// --- Mutations ---

// SubmitProduct creates a pending product owned by actor. The id is the
// slug of the name, suffixed -2, -3, ... when taken.
func (s *CatalogService) SubmitProduct(ctx context.Context, actor *Actor, in SubmitProductInput) (*domain.Product, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	in.normalize()
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	launch := now
	if in.LaunchDate != nil {
		launch = in.LaunchDate.UTC()
	}
	vendorID := actor.UserID

	product := &domain.Product{
		Name:        in.Name,
		Tagline:     in.Tagline,
		Description: in.Description,
		LogoURL:     in.LogoURL,
		WebsiteURL:  in.WebsiteURL,
		GalleryURLs: in.GalleryURLs,
		Categories:  in.Categories,
		Status:      domain.ProductStatusPending,
		VendorID:    &vendorID,
		MadeIn:      in.MadeIn,
		LaunchDate:  &launch,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if product.GalleryURLs == nil {
		product.GalleryURLs = []string{}
	}
	if in.Deal != nil {
		product.Deal = &domain.Deal{
			Title:       strings.TrimSpace(in.Deal.Title),
			Description: strings.TrimSpace(in.Deal.Description),
			Discount:    strings.TrimSpace(in.Deal.Discount),
			Code:        strings.TrimSpace(in.Deal.Code),
			ExpiresAt:   in.Deal.ExpiresAt,
		}
	}

	if err := s.insertWithFreeID(ctx, product); err != nil {
		return nil, err
	}

	if s.index != nil {
		if err := s.index.Index(ctx, product); err != nil {
			s.logger.WarnContext(ctx, "failed to index product",
				slog.String("product_id", product.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.producer.PublishProductSubmitted(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.submitted event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product submitted",
		slog.String("product_id", product.ID),
		slog.String("vendor_id", vendorID),
	)

	return product, nil
}

func (s *CatalogService) insertWithFreeID(ctx context.Context, product *domain.Product) error {
	base := slug.Generate(product.Name)
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		id := slug.Candidate(base, attempt)
		if reservedIDs[id] {
			continue
		}
		product.ID = id

		err := s.products.Create(ctx, product)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperrors.ErrAlreadyExists) {
			return fmt.Errorf("create product: %w", err)
		}
	}
	return fmt.Errorf("allocate product id for %q: %d candidates taken", base, maxSlugAttempts)
}

// Upvote adds exactly one vote. Votes are not de-duplicated per user.
func (s *CatalogService) Upvote(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.IncrementUpvotes(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("upvote product: %w", err)
	}

	if err := s.producer.PublishProductUpvoted(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.upvoted event",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	return product, nil
}

func (s *CatalogService) clock() time.Time {
	return s.now().In(s.location)
}
