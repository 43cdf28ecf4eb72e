package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mathurkshitij3776/Realpick/internal/service"
	"github.com/mathurkshitij3776/Realpick/pkg/health"
	"github.com/mathurkshitij3776/Realpick/pkg/middleware"
)

// RouterConfig carries the services and middleware the router wires
// together. RateLimiter, Metrics and MetricsHandler are optional.
type RouterConfig struct {
	ServiceName    string
	Catalog        *service.CatalogService
	Reviews        *service.ReviewService
	Moderation     *service.ModerationService
	Auth           *service.AuthService
	Subscriptions  *service.SubscriptionService
	Health         *health.Handler
	TokenValidator middleware.TokenValidator
	RateLimiter    *middleware.RateLimiter
	Metrics        *middleware.HTTPMetrics
	MetricsHandler http.Handler
	CORS           middleware.CORSConfig
	PprofCIDRs     []string
	Logger         *slog.Logger
}

// NewRouter creates a chi router with all Realpick routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Handler)
	}
	r.Use(middleware.CORS(cfg.CORS))

	// Operational endpoints
	r.Get("/health/live", cfg.Health.Liveness)
	r.Get("/health/ready", cfg.Health.Readiness)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	middleware.RegisterPprof(r, cfg.PprofCIDRs, cfg.Logger)

	authn := middleware.Authenticate(cfg.TokenValidator)

	products := NewProductHandler(cfg.Catalog, cfg.Logger)
	reviews := NewReviewHandler(cfg.Reviews, cfg.Logger)
	admin := NewAdminHandler(cfg.Moderation, cfg.Logger)
	account := NewAuthHandler(cfg.Auth, cfg.Logger)
	dashboard := NewDashboardHandler(cfg.Catalog, cfg.Subscriptions, cfg.Logger)

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Handler)
		}

		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.ListProducts)
			r.Get("/launches", products.Launches)
			r.Get("/{id}", products.GetProduct)
			r.Post("/{id}/upvote", products.Upvote)
			r.Get("/{id}/reviews", reviews.ListReviews)

			r.With(authn).Post("/", products.SubmitProduct)
			r.With(authn).Post("/{id}/reviews", reviews.SubmitReview)
		})

		r.With(middleware.CacheControl(60)).Get("/categories", products.Categories)
		r.Get("/search", products.Search)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", account.Signup)
			r.Post("/login", account.Login)
			r.With(authn).Get("/profile", account.Profile)
			r.With(authn).Put("/profile", account.UpdateProfile)
		})

		r.Route("/me", func(r chi.Router) {
			r.Use(authn)
			r.Get("/submissions", dashboard.Submissions)
			r.Get("/subscriptions", dashboard.Subscriptions)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authn)
			r.Use(middleware.RequireAdmin)
			r.Get("/products/pending", admin.ListPending)
			r.Post("/products/{id}/approve", admin.Approve)
			r.Post("/products/{id}/reject", admin.Reject)
		})
	})

	return r
}

// actorFrom converts verified token claims into a service actor. It returns
// nil for anonymous requests.
func actorFrom(r *http.Request) *service.Actor {
	c, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return nil
	}
	return &service.Actor{UserID: c.UserID, Email: c.Email, IsAdmin: c.IsAdmin}
}
