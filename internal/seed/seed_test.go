package seed

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mathurkshitij3776/Realpick/internal/domain"
	"github.com/mathurkshitij3776/Realpick/internal/repository"
	"github.com/mathurkshitij3776/Realpick/internal/repository/memory"
)

var now = time.Date(2024, 6, 12, 15, 0, 0, 0, time.UTC)

func newLoader(t *testing.T) (*Loader, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	l := NewLoader(Repositories{
		Products:      store.Products(),
		Reviews:       store.Reviews(),
		Users:         store.Users(),
		Subscriptions: store.Subscriptions(),
	}, "demo-password", slog.New(slog.NewTextHandler(io.Discard, nil)))
	l.cost = bcrypt.MinCost
	return l, store
}

func TestLoad_PopulatesCatalog(t *testing.T) {
	l, store := newLoader(t)
	ctx := context.Background()
	data := Dataset(now, "")

	sum, err := l.Load(ctx, data, now)
	require.NoError(t, err)
	assert.Equal(t, len(data.Users), sum.Users)
	assert.Equal(t, len(data.Products), sum.Products)
	assert.Equal(t, 3, sum.Subscriptions)
	assert.Zero(t, sum.Skipped)

	status := domain.ProductStatusApproved
	approved, err := store.Products().List(ctx, repository.ProductFilter{Status: &status})
	require.NoError(t, err)
	assert.Len(t, approved, 7)

	craftnote, err := store.Products().GetByID(ctx, "craftnote")
	require.NoError(t, err)
	assert.Equal(t, 2, craftnote.ReviewCount)
	assert.Equal(t, 5.0, craftnote.Rating)
	assert.Equal(t, 256, craftnote.Upvotes)

	pending, err := store.Products().GetByID(ctx, "standup-bot")
	require.NoError(t, err)
	assert.Equal(t, domain.ProductStatusPending, pending.Status)
	require.NotNil(t, pending.VendorID)

	vendor, err := store.Users().GetByEmail(ctx, VendorEmail)
	require.NoError(t, err)
	assert.Equal(t, vendor.ID, *pending.VendorID)

	admin, err := store.Users().GetByEmail(ctx, "admin@realpick.dev")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("demo-password")))
}

func TestLoad_SubscriptionsCoverEveryTimeLeftState(t *testing.T) {
	l, store := newLoader(t)
	ctx := context.Background()

	_, err := l.Load(ctx, Dataset(now, ""), now)
	require.NoError(t, err)

	buyer, err := store.Users().GetByEmail(ctx, BuyerEmail)
	require.NoError(t, err)
	subs, err := store.Subscriptions().ListByUser(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, subs, 3)

	states := map[string]bool{}
	for _, s := range subs {
		states[s.RemainingAt(now).State] = true
	}
	assert.True(t, states[domain.SubscriptionActive])
	assert.True(t, states[domain.SubscriptionExpired])
}

func TestLoad_Idempotent(t *testing.T) {
	l, store := newLoader(t)
	ctx := context.Background()
	data := Dataset(now, "")

	_, err := l.Load(ctx, data, now)
	require.NoError(t, err)

	_, err = store.Products().IncrementUpvotes(ctx, "craftnote")
	require.NoError(t, err)

	sum, err := l.Load(ctx, data, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, sum.Users)
	assert.Zero(t, sum.Products)
	assert.Zero(t, sum.Reviews)
	assert.Zero(t, sum.Subscriptions)
	assert.Equal(t, len(data.Users)+len(data.Products)+reviewCount(data)+len(data.Subscriptions), sum.Skipped)

	craftnote, err := store.Products().GetByID(ctx, "craftnote")
	require.NoError(t, err)
	assert.Equal(t, 257, craftnote.Upvotes)
	assert.Equal(t, 2, craftnote.ReviewCount)
}

func TestLoad_CompletesReviewsOfExistingProduct(t *testing.T) {
	l, store := newLoader(t)
	ctx := context.Background()
	data := Dataset(now, "")

	// A previous run stopped after creating the product.
	craftnote := data.Products[0].Product
	require.Equal(t, "craftnote", craftnote.ID)
	require.NoError(t, store.Products().Create(ctx, &craftnote))

	sum, err := l.Load(ctx, data, now)
	require.NoError(t, err)
	assert.Equal(t, len(data.Products)-1, sum.Products)
	assert.Equal(t, reviewCount(data), sum.Reviews)

	p, err := store.Products().GetByID(ctx, "craftnote")
	require.NoError(t, err)
	assert.Equal(t, 2, p.ReviewCount)
	assert.Equal(t, 5.0, p.Rating)
}

func reviewCount(data Data) int {
	n := 0
	for _, ps := range data.Products {
		n += len(ps.Reviews)
	}
	return n
}

func TestLoad_ConfiguredAdminEmail(t *testing.T) {
	l, store := newLoader(t)
	ctx := context.Background()

	_, err := l.Load(ctx, Dataset(now, "Ops@Realpick.dev"), now)
	require.NoError(t, err)

	admin, err := store.Users().GetByEmail(ctx, "ops@realpick.dev")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
}

func TestDataset_LaunchBuckets(t *testing.T) {
	data := Dataset(now, "")

	var products []domain.Product
	for _, ps := range data.Products {
		products = append(products, ps.Product)
	}
	launches := domain.SplitLaunches(domain.Approved(products), now)

	require.Len(t, launches.Today, 1)
	assert.Equal(t, "craftnote", launches.Today[0].ID)
	assert.Len(t, launches.Recent, 6)
}

func TestStableID(t *testing.T) {
	a := stableID("user", "jane@doe.com")
	assert.Equal(t, a, stableID("user", "jane@doe.com"))
	assert.NotEqual(t, a, stableID("review", "jane@doe.com"))
}
