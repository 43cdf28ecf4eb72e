package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	apperrors "github.com/mathurkshitij3776/Realpick/pkg/errors"
	"github.com/mathurkshitij3776/Realpick/pkg/httputil"
)

// RateLimitConfig configures RateLimiter.
type RateLimitConfig struct {
	Limit   redis_rate.Limit
	// KeyFunc defaults to KeyByClientIP over TrustedProxies.
	KeyFunc func(*http.Request) string
	// TrustedProxies lists the CIDRs whose forwarding headers are believed.
	TrustedProxies []string
	// Prefix namespaces the Redis keys.
	Prefix string
}

// RateLimiter enforces a GCRA limit shared through Redis. When Redis is
// absent or failing it falls back to an in-process token bucket per key,
// so limits degrade to per-instance instead of disappearing.
type RateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	cfg      RateLimitConfig
	logger   *slog.Logger
}

// NewRateLimiter builds a limiter. rdb may be nil.
func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig, l *slog.Logger) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByClientIP(parseCIDRs(cfg.TrustedProxies, l))
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "ratelimit:"
	}
	rl := &RateLimiter{
		fallback: newLocalLimiter(),
		cfg:      cfg,
		logger:   l,
	}
	if rdb != nil {
		rl.limiter = redis_rate.NewLimiter(rdb)
	}
	return rl
}

// PerWindow spreads n requests over window with a burst of n, so a client may
// spend the whole allowance at once and then waits for it to refill.
func PerWindow(n int, window time.Duration) redis_rate.Limit {
	return redis_rate.Limit{Rate: n, Burst: n, Period: window}
}

// Handler is the middleware.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := rl.allow(r.Context(), rl.cfg.Prefix+rl.cfg.KeyFunc(r))
		setRateLimitHeaders(w, res, rl.cfg.Limit)

		if res.Allowed == 0 {
			retry := int(res.RetryAfter.Seconds())
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			httputil.WriteError(w, r,
				apperrors.RateLimited(fmt.Sprintf("rate limit exceeded, retry after %d seconds", retry)),
				rl.logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ctx context.Context, key string) *redis_rate.Result {
	if rl.limiter != nil {
		res, err := rl.limiter.Allow(ctx, key, rl.cfg.Limit)
		if err == nil {
			return res
		}
		rl.logger.WarnContext(ctx, "redis rate limiter unavailable, using local limiter",
			slog.String("error", err.Error()),
		)
	}
	return rl.fallback.allow(key, rl.cfg.Limit)
}

// KeyByIP keys requests by the connection's remote address. Forwarding
// headers are ignored.
func KeyByIP(r *http.Request) string {
	return "ip:" + clientHost(r.RemoteAddr)
}

// KeyByClientIP keys requests by client address. X-Forwarded-For and
// X-Real-IP are only read when the connection comes from a trusted proxy;
// the client is then the right-most forwarded hop that is not itself
// trusted.
func KeyByClientIP(trusted []*net.IPNet) func(*http.Request) string {
	return func(r *http.Request) string {
		host := clientHost(r.RemoteAddr)
		if !containsIP(trusted, host) {
			return "ip:" + host
		}

		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			hops := strings.Split(xff, ",")
			for i := len(hops) - 1; i >= 0; i-- {
				hop := strings.TrimSpace(hops[i])
				if hop == "" {
					continue
				}
				if i == 0 || !containsIP(trusted, hop) {
					return "ip:" + hop
				}
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return "ip:" + xri
		}
		return "ip:" + host
	}
}

func containsIP(nets []*net.IPNet, addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func setRateLimitHeaders(w http.ResponseWriter, res *redis_rate.Result, limit redis_rate.Limit) {
	h := w.Header()
	h.Set("RateLimit-Policy", fmt.Sprintf("%d;w=%d", limit.Rate, int(limit.Period.Seconds())))
	h.Set("RateLimit", fmt.Sprintf("%d;t=%d", res.Remaining, int(res.ResetAfter.Seconds())))
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
}

const (
	localEntryTTL   = 30 * time.Minute
	localSweepEvery = 1024
)

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter is an in-process token bucket per key. Stale keys are swept
// every localSweepEvery calls instead of by a background goroutine.
type localLimiter struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	calls   int
	now     func() time.Time
}

func newLocalLimiter() *localLimiter {
	return &localLimiter{entries: make(map[string]*localEntry), now: time.Now}
}

func (l *localLimiter) allow(key string, limit redis_rate.Limit) *redis_rate.Result {
	perSecond := float64(limit.Rate) / limit.Period.Seconds()
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%localSweepEvery == 0 {
		for k, e := range l.entries {
			if now.Sub(e.lastSeen) > localEntryTTL {
				delete(l.entries, k)
			}
		}
	}

	e, ok := l.entries[key]
	if !ok {
		e = &localEntry{limiter: rate.NewLimiter(rate.Limit(perSecond), limit.Burst)}
		l.entries[key] = e
	}
	e.lastSeen = now

	interval := time.Duration(float64(time.Second) / perSecond)
	res := &redis_rate.Result{Limit: limit, RetryAfter: -1, ResetAfter: interval}
	if e.limiter.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		res.RetryAfter = interval
	}
	if remaining := int(e.limiter.TokensAt(now)); remaining > 0 {
		res.Remaining = remaining
	}
	return res
}
