package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"

	"github.com/vitalabs/competition-engine/internal/domain/user"
	"github.com/vitalabs/competition-engine/internal/platform/logging"
	"github.com/vitalabs/competition-engine/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TokenVerifier verifies bearer tokens against account service.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (user.Principal, error)
}

func RequireAuth(verifier TokenVerifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.RequireAuth")
		defer span.End()

		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if authHeader == "" {
			writeError(ctx, w, fmt.Errorf("%w: missing Authorization header", usecase.ErrUnauthorized))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			writeError(ctx, w, fmt.Errorf("%w: invalid Authorization header format", usecase.ErrUnauthorized))
			return
		}

		principal, err := verifier.VerifyAccessToken(ctx, strings.TrimSpace(parts[1]))
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withPrincipal(ctx, principal)))
	})
}

func RequestLogging(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.RequestLogging")
		defer span.End()

		started := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))

		logger.InfoContext(ctx, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	})
}

func RequestTracing(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "competition-engine-http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// RequireAdmin gates a route on an already-authenticated principal holding
// the admin role. Must sit behind
// RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.RequireAdmin")
		defer span.End()

		principal, ok := principalFromContext(ctx)
		if !ok || !principal.IsAdmin() {
			writeError(ctx, w, fmt.Errorf("%w: admin role required", usecase.ErrForbidden))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimiter caps requests per caller per minute using Redis as the
// shared counter store, so the limit holds across every API instance. It
// is a no-op when the underlying client is nil.
type RateLimiter struct {
	limiter *redis_rate.Limiter
	perMin  int
}

// NewRateLimiter builds a RateLimiter bound to perMinute requests. Passing
// a nil client disables enforcement entirely (dev/test).
func NewRateLimiter(client *redis.Client, perMinute int) *RateLimiter {
	rl := &RateLimiter{perMin: perMinute}
	if client != nil {
		rl.limiter = redis_rate.NewLimiter(client)
	}
	return rl
}

// Middleware rate-limits every request by remote address before routing —
// RequireAuth runs per-route inside the mux, after this middleware, so no
// principal is available here yet. This caps abuse from a single source
// regardless of which route it hits.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if rl.limiter == nil || rl.perMin <= 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.RateLimiter.Middleware")
		defer span.End()

		key := "ratelimit:ip:" + r.RemoteAddr

		res, err := rl.limiter.Allow(ctx, key, redis_rate.PerMinute(rl.perMin))
		if err != nil {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.perMin))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", res.Remaining))

		if res.Allowed == 0 {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(res.RetryAfter.Seconds())))
			writeError(ctx, w, fmt.Errorf("%w: rate limit exceeded", usecase.ErrRateLimited))
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CORS allows configured origins (or "*") to call the API from a browser,
// answering preflight OPTIONS requests directly.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	wildcard := false
	for _, o := range allowedOrigins {
		if o == "*" {
			wildcard = true
			continue
		}
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (wildcard || allowed[origin]) {
			allowOrigin := origin
			if wildcard {
				allowOrigin = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// shouldTraceRequest excludes liveness/health paths from request-body
// tracing so health-check noise doesn't pollute traces.
func shouldTraceRequest(path string) bool {
	switch strings.TrimSpace(path) {
	case "/healthz", "/health", "/livez", "/readyz":
		return false
	default:
		return true
	}
}

// RequestBodyTracing records the request body as a span attribute when
// enabled, bounded by maxBytes, skipping health-check paths.
func RequestBodyTracing(enabled bool, maxBytes int, next http.Handler) http.Handler {
	if !enabled {
		return next
	}
	if maxBytes <= 0 {
		maxBytes = 4096
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !shouldTraceRequest(r.URL.Path) || r.Body == nil {
			next.ServeHTTP(w, r)
			return
		}

		span := trace.SpanFromContext(r.Context())
		body, err := io.ReadAll(io.LimitReader(r.Body, int64(maxBytes)))
		if err == nil && len(body) > 0 {
			span.SetAttributes(attribute.String("http.request.body", string(body)))
		}
		r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))

		next.ServeHTTP(w, r)
	})
}
