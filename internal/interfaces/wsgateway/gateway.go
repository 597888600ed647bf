// Package wsgateway implements C7: the WebSocket session gateway. One
// connection equals one authenticated user subscribed to events:global and
// events:user:{user_id}; the gateway never originates events itself, it
// only bridges internal/eventbus to browsers.
package wsgateway

import (
	"context"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"

	"github.com/vitalabs/competition-engine/internal/domain/user"
	"github.com/vitalabs/competition-engine/internal/eventbus"
	"github.com/vitalabs/competition-engine/internal/platform/logging"
)

// TokenVerifier authenticates the bearer token presented at handshake time.
// Deliberately re-declared here rather than imported from httpapi: the
// gateway's auth need is this one method, and the two "interfaces" packages
// should not depend on each other.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (user.Principal, error)
}

type welcomeFrame struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
}

// Gateway upgrades authenticated HTTP requests to WebSocket sessions and
// wires each one to its own broker subscription.
type Gateway struct {
	verifier  TokenVerifier
	brokerURL string

	pingInterval  time.Duration
	writeDeadline time.Duration
	devEcho       bool

	logger   *logging.Logger
	upgrader websocket.Upgrader
}

// Config bundles the gateway's construction parameters: ping interval,
// write deadline, and dev-mode echo toggle.
type Config struct {
	BrokerURL     string
	PingInterval  time.Duration
	WriteDeadline time.Duration
	DevMode       bool
}

func New(verifier TokenVerifier, cfg Config, logger *logging.Logger) *Gateway {
	if logger == nil {
		logger = logging.Default()
	}
	pingInterval := cfg.PingInterval
	if pingInterval <= 0 {
		pingInterval = 15 * time.Second
	}
	writeDeadline := cfg.WriteDeadline
	if writeDeadline <= 0 {
		writeDeadline = 10 * time.Second
	}

	return &Gateway{
		verifier:      verifier,
		brokerURL:     cfg.BrokerURL,
		pingInterval:  pingInterval,
		writeDeadline: writeDeadline,
		devEcho:       cfg.DevMode,
		logger:        logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP authenticates the handshake (Authorization header or "token"
// query parameter), opens a per-session broker subscription, upgrades the
// connection, and hands off to the read/write pumps.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "wsgateway.Gateway.ServeHTTP")
	defer span.End()

	token := bearerToken(r)
	if token == "" {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}

	principal, err := g.verifier.VerifyAccessToken(ctx, token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	sub, err := eventbus.NewSubscriber(ctx, g.brokerURL, principal.UserID)
	if err != nil {
		g.logger.ErrorContext(ctx, "ws subscribe failed", "user_id", principal.UserID, "error", crerr.Wrap(err, "open subscriber"))
		http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		_ = sub.Close()
		g.logger.WarnContext(ctx, "ws upgrade failed", "user_id", principal.UserID, "error", err)
		return
	}

	c := newClient(conn, sub, principal.UserID, g)

	welcome, err := sonic.Marshal(welcomeFrame{Type: "welcome", UserID: principal.UserID})
	if err != nil {
		g.logger.WarnContext(ctx, "welcome frame marshal failed", "user_id", principal.UserID, "error", err)
	} else {
		c.enqueue(welcome)
	}

	g.logger.InfoContext(ctx, "ws session opened", "user_id", principal.UserID)

	go c.forwardBroker(r.Context())
	go c.writePump()
	c.readPump()
}

func bearerToken(r *http.Request) string {
	if auth := strings.TrimSpace(r.Header.Get("Authorization")); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
