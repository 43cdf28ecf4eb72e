package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mathurkshitij3776/Realpick/internal/domain"
	"github.com/mathurkshitij3776/Realpick/internal/event"
	"github.com/mathurkshitij3776/Realpick/internal/repository/memory"
	pkgkafka "github.com/mathurkshitij3776/Realpick/pkg/kafka"
)

// Wednesday afternoon UTC.
var fixedNow = time.Date(2024, 6, 12, 15, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type capturePublisher struct {
	mu     sync.Mutex
	topics []string
}

func (c *capturePublisher) Publish(_ context.Context, topic string, _ *pkgkafka.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, topic)
	return nil
}

func (c *capturePublisher) Topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.topics...)
}

type fixture struct {
	store      *memory.Store
	events     *capturePublisher
	catalog    *CatalogService
	reviews    *ReviewService
	moderation *ModerationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	events := &capturePublisher{}
	producer := event.NewProducer(events, testLogger())

	catalog := NewCatalogService(store.Products(), store.Reviews(), producer, time.UTC, testLogger())
	catalog.now = fixedClock
	reviews := NewReviewService(store.Reviews(), store.Products(), store.Users(), producer, testLogger())
	reviews.now = fixedClock

	return &fixture{
		store:      store,
		events:     events,
		catalog:    catalog,
		reviews:    reviews,
		moderation: NewModerationService(store.Products(), store.Users(), producer, testLogger()),
	}
}

func (f *fixture) addUser(t *testing.T, id, name string, admin bool) *Actor {
	t.Helper()
	require.NoError(t, f.store.Users().Create(context.Background(), &domain.User{
		ID:      id,
		Name:    name,
		Email:   id + "@example.com",
		IsAdmin: admin,
	}))
	return &Actor{UserID: id, Email: id + "@example.com", IsAdmin: admin}
}

func (f *fixture) addProduct(t *testing.T, p domain.Product) {
	t.Helper()
	if p.Categories == nil {
		p.Categories = []string{"AI"}
	}
	if p.Status == "" {
		p.Status = domain.ProductStatusApproved
	}
	require.NoError(t, f.store.Products().Create(context.Background(), &p))
}

func validSubmission(name string) SubmitProductInput {
	return SubmitProductInput{
		Name:        name,
		Tagline:     "Ship faster",
		Description: "A tool for developers",
		LogoURL:     "https://cdn.example.com/logo.png",
		WebsiteURL:  "https://example.com",
		Categories:  []string{"Dev Tools"},
	}
}

func at(offsetDays, hour int) *time.Time {
	t := time.Date(2024, 6, 12+offsetDays, hour, 0, 0, 0, time.UTC)
	return &t
}

func productIDs(products []domain.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}
