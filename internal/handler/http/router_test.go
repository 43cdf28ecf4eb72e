package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mathurkshitij3776/Realpick/internal/auth"
	"github.com/mathurkshitij3776/Realpick/internal/domain"
	"github.com/mathurkshitij3776/Realpick/internal/event"
	"github.com/mathurkshitij3776/Realpick/internal/repository/memory"
	"github.com/mathurkshitij3776/Realpick/internal/service"
	"github.com/mathurkshitij3776/Realpick/pkg/health"
	"github.com/mathurkshitij3776/Realpick/pkg/middleware"
)

// =============================================================================
// Test environment
// =============================================================================

const testSecret = "handler-test-secret-handler-test-secret"

type testEnv struct {
	router http.Handler
	store  *memory.Store
	jwt    *auth.JWTManager
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, limiter *middleware.RateLimiter) *testEnv {
	t.Helper()
	logger := discardLogger()
	store := memory.NewStore()
	jwtManager := auth.NewJWTManager(testSecret, time.Hour, "realpick")
	producer := event.NewProducer(nil, logger)

	router := NewRouter(RouterConfig{
		ServiceName:    "realpick-test",
		Catalog:        service.NewCatalogService(store.Products(), store.Reviews(), producer, time.UTC, logger),
		Reviews:        service.NewReviewService(store.Reviews(), store.Products(), store.Users(), producer, logger),
		Moderation:     service.NewModerationService(store.Products(), store.Users(), producer, logger),
		Auth:           service.NewAuthService(store.Users(), jwtManager, producer, nil, logger),
		Subscriptions:  service.NewSubscriptionService(store.Subscriptions()),
		Health:         health.NewHandler(),
		TokenValidator: jwtManager.Validator(),
		RateLimiter:    limiter,
		Logger:         logger,
	})

	return &testEnv{router: router, store: store, jwt: jwtManager}
}

func (e *testEnv) addUser(t *testing.T, id string, admin bool) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, e.store.Users().Create(context.Background(), &domain.User{
		ID:           id,
		Name:         "User " + id,
		Email:        id + "@example.com",
		IsAdmin:      admin,
		PasswordHash: string(hash),
	}))
	token, err := e.jwt.GenerateToken(id, id+"@example.com", admin)
	require.NoError(t, err)
	return token
}

func (e *testEnv) addProduct(t *testing.T, id, status string, launch time.Time) {
	t.Helper()
	require.NoError(t, e.store.Products().Create(context.Background(), &domain.Product{
		ID:         id,
		Name:       id,
		Tagline:    "tagline for " + id,
		Categories: []string{"AI"},
		Status:     status,
		LaunchDate: &launch,
	}))
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil && env.Data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func ids(products []domain.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

// =============================================================================
// Catalog
// =============================================================================

func TestListProducts_ApprovedOnlyNewestFirst(t *testing.T) {
	env := newTestEnv(t, nil)
	now := time.Now().UTC()
	env.addProduct(t, "older", domain.ProductStatusApproved, now.AddDate(0, 0, -3))
	env.addProduct(t, "newer", domain.ProductStatusApproved, now)
	env.addProduct(t, "queued", domain.ProductStatusPending, now)

	rec := env.do(t, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var products []domain.Product
	decode(t, rec, &products)
	assert.Equal(t, []string{"newer", "older"}, ids(products))
}

func TestListProducts_InvalidDateFilter(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/products?date=someday", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	res := decode(t, rec, nil)
	require.NotNil(t, res.Error)
	assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
	assert.Contains(t, res.Error.Fields, "date")
}

func TestGetProduct_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/products/missing", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec, nil).Error.Code)
}

func TestLaunchesRouteIsNotAProductID(t *testing.T) {
	env := newTestEnv(t, nil)
	now := time.Now().UTC()
	env.addProduct(t, "today", domain.ProductStatusApproved, now)
	env.addProduct(t, "earlier", domain.ProductStatusApproved, now.AddDate(0, 0, -2))

	rec := env.do(t, http.MethodGet, "/api/products/launches", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var launches domain.Launches
	decode(t, rec, &launches)
	assert.Equal(t, []string{"today"}, ids(launches.Today))
	assert.Equal(t, []string{"earlier"}, ids(launches.Recent))
}

func TestCategories_Cached(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addProduct(t, "a", domain.ProductStatusApproved, time.Now())

	rec := env.do(t, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=60")

	var cats []string
	decode(t, rec, &cats)
	assert.Equal(t, []string{"AI"}, cats)
}

func TestUpvote_CountsEveryCall(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addProduct(t, "a", domain.ProductStatusApproved, time.Now())

	var p domain.Product
	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodPost, "/api/products/a/upvote", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &p)
	}
	assert.Equal(t, 3, p.Upvotes)
}

// =============================================================================
// Submission
// =============================================================================

func submission() map[string]any {
	return map[string]any{
		"name":        "Dev Tool™ 2.0",
		"tagline":     "Ship faster",
		"description": "A tool for developers",
		"logo_url":    "https://cdn.example.com/logo.png",
		"website_url": "https://example.com",
		"categories":  []string{"Dev Tools"},
	}
}

func TestSubmitProduct_RequiresAuth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/products", "", submission())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/products", "not-a-token", submission())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitProduct_Created(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.addUser(t, "vendor", false)

	rec := env.do(t, http.MethodPost, "/api/products", token, submission())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var p domain.Product
	decode(t, rec, &p)
	assert.Equal(t, "dev-tool-20", p.ID)
	assert.Equal(t, domain.ProductStatusPending, p.Status)

	rec = env.do(t, http.MethodGet, "/api/me/submissions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []domain.Product
	decode(t, rec, &mine)
	assert.Equal(t, []string{"dev-tool-20"}, ids(mine))
}

func TestSubmitProduct_ValidationFields(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.addUser(t, "vendor", false)

	body := submission()
	body["categories"] = []string{}
	body["website_url"] = "not a url"

	rec := env.do(t, http.MethodPost, "/api/products", token, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	res := decode(t, rec, nil)
	assert.Contains(t, res.Error.Fields, "categories")
	assert.Contains(t, res.Error.Fields, "website_url")
}

func TestSubmitProduct_UnknownFieldRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.addUser(t, "vendor", false)

	body := submission()
	body["status"] = "approved"

	rec := env.do(t, http.MethodPost, "/api/products", token, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decode(t, rec, nil).Error.Code)
}

func TestSubmitProduct_OversizedBodyRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.addUser(t, "vendor", false)

	body := submission()
	body["description"] = strings.Repeat("x", 2<<20)

	rec := env.do(t, http.MethodPost, "/api/products", token, body)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", decode(t, rec, nil).Error.Code)

	rec = env.do(t, http.MethodGet, "/api/me/submissions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []domain.Product
	decode(t, rec, &mine)
	assert.Empty(t, mine)
}

func TestAuth_OversizedSignupRejected(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name":     strings.Repeat("n", 2<<20),
		"email":    "big@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

// =============================================================================
// Reviews
// =============================================================================

func TestReviews_SubmitAndList(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addProduct(t, "a", domain.ProductStatusApproved, time.Now())
	token := env.addUser(t, "reviewer", false)

	for _, rating := range []int{5, 3} {
		rec := env.do(t, http.MethodPost, "/api/products/a/reviews", token, map[string]any{
			"rating": rating, "title": "Title", "comment": "Comment",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := env.do(t, http.MethodGet, "/api/products/a", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p domain.Product
	decode(t, rec, &p)
	assert.Equal(t, 4.0, p.Rating)
	assert.Equal(t, 2, p.ReviewCount)
	assert.Len(t, p.Reviews, 2)

	rec = env.do(t, http.MethodGet, "/api/products/a/reviews", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reviews []domain.Review
	decode(t, rec, &reviews)
	require.Len(t, reviews, 2)
	assert.Equal(t, 3, reviews[0].Rating)
	assert.Equal(t, "User reviewer", reviews[0].AuthorName)
}

func TestReviews_RatingOutOfRange(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addProduct(t, "a", domain.ProductStatusApproved, time.Now())
	token := env.addUser(t, "reviewer", false)

	rec := env.do(t, http.MethodPost, "/api/products/a/reviews", token, map[string]any{
		"rating": 6, "title": "Title", "comment": "Comment",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec, nil).Error.Fields, "rating")
}

// =============================================================================
// Moderation
// =============================================================================

func TestAdmin_RoleGating(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addProduct(t, "queued", domain.ProductStatusPending, time.Now())
	userToken := env.addUser(t, "user", false)
	adminToken := env.addUser(t, "admin", true)

	rec := env.do(t, http.MethodGet, "/api/admin/products/pending", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/admin/products/queued/approve", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decode(t, rec, nil).Error.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/products/pending", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var queue []domain.Product
	decode(t, rec, &queue)
	assert.Equal(t, []string{"queued"}, ids(queue))

	rec = env.do(t, http.MethodPost, "/api/admin/products/queued/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p domain.Product
	decode(t, rec, &p)
	assert.Equal(t, domain.ProductStatusApproved, p.Status)

	rec = env.do(t, http.MethodPost, "/api/admin/products/queued/reject", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &p)
	assert.Equal(t, domain.ProductStatusRejected, p.Status)

	rec = env.do(t, http.MethodPost, "/api/admin/products/missing/approve", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// Auth
// =============================================================================

func TestAuth_SignupLoginProfile(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"name": "Jane", "email": "Jane@Example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var signup service.AuthResult
	decode(t, rec, &signup)
	assert.Equal(t, "jane@example.com", signup.User.Email)
	assert.NotEmpty(t, signup.Token)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"name": "Jane", "email": "jane@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_EXISTS", decode(t, rec, nil).Error.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "jane@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "jane@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var login service.AuthResult
	decode(t, rec, &login)

	rec = env.do(t, http.MethodGet, "/api/auth/profile", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var user domain.User
	decode(t, rec, &user)
	assert.Equal(t, signup.User.ID, user.ID)

	rec = env.do(t, http.MethodPut, "/api/auth/profile", login.Token, map[string]any{"name": "Jane Doe"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated service.AuthResult
	decode(t, rec, &updated)
	assert.Equal(t, "Jane Doe", updated.User.Name)
}

// =============================================================================
// Dashboard
// =============================================================================

func TestSubscriptions_TimeLeft(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addProduct(t, "a", domain.ProductStatusApproved, time.Now())
	token := env.addUser(t, "buyer", false)
	require.NoError(t, env.store.AddSubscription(domain.Subscription{
		ID: "s1", UserID: "buyer", ProductID: "a", ExpiresAt: time.Now().Add(-time.Minute),
	}))

	rec := env.do(t, http.MethodGet, "/api/me/subscriptions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var subs []service.SubscriptionStatus
	decode(t, rec, &subs)
	require.Len(t, subs, 1)
	assert.Equal(t, "Expired", subs[0].TimeLeft.Label)
	assert.Equal(t, "a", subs[0].Product.ID)
}

// =============================================================================
// Cross-cutting
// =============================================================================

func TestRateLimit_APIOnly(t *testing.T) {
	limiter := middleware.NewRateLimiter(nil, middleware.RateLimitConfig{
		Limit: middleware.PerWindow(2, time.Minute),
	}, discardLogger())
	env := newTestEnv(t, limiter)

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodGet, "/api/products", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = env.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCorrelationIDEchoed(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products/missing", nil)
	req.Header.Set(middleware.CorrelationHeader, "corr-123")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, "corr-123", rec.Header().Get(middleware.CorrelationHeader))
	assert.Contains(t, rec.Body.String(), `"request_id":"corr-123"`)
}
