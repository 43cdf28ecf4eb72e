package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mathurkshitij3776/Realpick/internal/domain"
	pkgkafka "github.com/mathurkshitij3776/Realpick/pkg/kafka"
	"github.com/mathurkshitij3776/Realpick/pkg/logger"
)

// Kafka topic constants for catalog and identity events.
const (
	TopicProductSubmitted = "realpick.product.submitted"
	TopicProductApproved  = "realpick.product.approved"
	TopicProductRejected  = "realpick.product.rejected"
	TopicProductUpvoted   = "realpick.product.upvoted"
	TopicReviewCreated    = "realpick.review.created"
	TopicUserRegistered   = "realpick.user.registered"
)

// Aggregate type constants.
const (
	AggregateTypeProduct = "product"
	AggregateTypeUser    = "user"
)

// SourceRealpick identifies events originating from this service.
const SourceRealpick = "realpick-api"

// Publisher is satisfied by *pkgkafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// ProductData is the payload for product lifecycle events.
type ProductData struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	VendorID   string   `json:"vendor_id,omitempty"`
	Categories []string `json:"categories"`
	Upvotes    int      `json:"upvotes"`
}

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ReviewID    string  `json:"review_id"`
	ProductID   string  `json:"product_id"`
	AuthorID    string  `json:"author_id"`
	Rating      int     `json:"rating"`
	NewAverage  float64 `json:"new_average"`
	ReviewCount int     `json:"review_count"`
}

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

// Producer publishes domain events. A Producer with no Publisher drops
// every event, which is how EVENTS_ENABLED=false is honored.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer. publisher may be nil.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

// PublishProductSubmitted publishes a product.submitted event.
func (p *Producer) PublishProductSubmitted(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductSubmitted, product.ID, AggregateTypeProduct, productData(product))
}

// PublishProductStatusChanged publishes product.approved or product.rejected
// depending on the product's current status.
func (p *Producer) PublishProductStatusChanged(ctx context.Context, product *domain.Product) error {
	topic := TopicProductRejected
	if product.Status == domain.ProductStatusApproved {
		topic = TopicProductApproved
	}
	return p.publish(ctx, topic, product.ID, AggregateTypeProduct, productData(product))
}

// PublishProductUpvoted publishes a product.upvoted event.
func (p *Producer) PublishProductUpvoted(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductUpvoted, product.ID, AggregateTypeProduct, productData(product))
}

// PublishReviewCreated publishes a review.created event with the product's
// refreshed aggregates.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review, product *domain.Product) error {
	data := ReviewCreatedData{
		ReviewID:    review.ID,
		ProductID:   review.ProductID,
		AuthorID:    review.AuthorID,
		Rating:      review.Rating,
		NewAverage:  product.Rating,
		ReviewCount: product.ReviewCount,
	}
	return p.publish(ctx, TopicReviewCreated, review.ProductID, AggregateTypeProduct, data)
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{ID: user.ID, Email: user.Email, Name: user.Name, IsAdmin: user.IsAdmin}
	return p.publish(ctx, TopicUserRegistered, user.ID, AggregateTypeUser, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	if p == nil || p.publisher == nil {
		return nil
	}

	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceRealpick, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

func productData(p *domain.Product) ProductData {
	d := ProductData{
		ID:         p.ID,
		Name:       p.Name,
		Status:     p.Status,
		Categories: p.Categories,
		Upvotes:    p.Upvotes,
	}
	if p.VendorID != nil {
		d.VendorID = *p.VendorID
	}
	return d
}
