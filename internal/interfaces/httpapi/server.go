package httpapi

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/codes"

	"github.com/vitalabs/competition-engine/internal/platform/logging"
)

// NewRouter wires the full HTTP surface: workout ingestion, live game reads,
// standings/leaderboard reads, the websocket gateway, and the admin-only
// game-management triggers.
func NewRouter(
	handler *Handler,
	verifier TokenVerifier,
	wsGateway http.Handler,
	logger *logging.Logger,
	corsAllowedOrigins []string,
	traceRequestBody bool,
	traceRequestBodyMaxBytes int,
	rateLimiter *RateLimiter,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if rateLimiter == nil {
		rateLimiter = NewRateLimiter(nil, 0)
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler)
	registerWorkoutRoutes(mux, handler, verifier)
	registerGameRoutes(mux, handler)
	registerLeaderboardRoutes(mux, handler)
	registerAdminRoutes(mux, handler, verifier)
	if wsGateway != nil {
		mux.Handle("GET /ws", wsGateway)
	}

	stack := RequestLogging(logger, CORS(corsAllowedOrigins, recoverPanic(logger, rateLimiter.Middleware(mux))))
	stack = RequestBodyTracing(traceRequestBody, traceRequestBodyMaxBytes, stack)
	return RequestTracing(stack)
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				panicErr := fmt.Errorf("panic recovered: %v", rec)
				span.RecordError(panicErr)
				span.SetStatus(codes.Error, "panic")
				logger.ErrorContext(ctx, "panic recovered",
					"event", "panic_recovered",
					"error_code", "panic",
					"panic", rec,
				)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
