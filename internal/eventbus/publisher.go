// Package eventbus implements C6: a fire-and-forget publish-subscribe fan-out
// over Redis. It is the only concrete implementation of usecase.EventPublisher
// — every call site depends on that interface, not on this package.
package eventbus

import (
	"context"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/bytebufferpool"

	"github.com/vitalabs/competition-engine/internal/platform/logging"
	"github.com/vitalabs/competition-engine/internal/platform/resilience"
)

const (
	// GlobalChannel carries every event regardless of audience.
	GlobalChannel = "events:global"
	userChannelPrefix = "events:user:"
)

// UserChannel returns the per-user channel name a session subscribes to.
func UserChannel(userID string) string {
	return userChannelPrefix + userID
}

// envelope is the wire format every event takes: {event_type, timestamp, ...}
type envelope struct {
	EventType string `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

type PublisherConfig struct {
	RedisURL       string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Publisher publishes events to Redis pub/sub channels. It implements
// usecase.EventPublisher. A broker outage trips the breaker and publish
// calls simply log and return — callers never see an error.
type Publisher struct {
	client         *redis.Client
	timeout        time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

// NewPublisher parses cfg.RedisURL and constructs a Publisher. Connectivity
// is not verified here; callers that want a startup check should use Ping.
func NewPublisher(cfg PublisherConfig, logger *logging.Logger) (*Publisher, error) {
	if logger == nil {
		logger = logging.Default()
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, crerr.Wrap(err, "parse broker url")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Publisher{
		client:         redis.NewClient(opts),
		timeout:        timeout,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}, nil
}

// Ping verifies broker connectivity at startup.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection pool.
func (p *Publisher) Close() error {
	return p.client.Close()
}

// PublishGlobal publishes eventType/payload to events:global, reachable by
// every connected session.
func (p *Publisher) PublishGlobal(ctx context.Context, eventType string, payload any) {
	p.publish(ctx, GlobalChannel, eventType, payload)
}

// PublishToUser publishes eventType/payload to one user's private channel,
// in addition to (never instead of) a global publish the caller may also
// make when the event is also personally relevant to that user.
func (p *Publisher) PublishToUser(ctx context.Context, userID, eventType string, payload any) {
	p.publish(ctx, UserChannel(userID), eventType, payload)
}

func (p *Publisher) publish(ctx context.Context, channel, eventType string, payload any) {
	if p.circuitEnabled {
		if err := p.breaker.Allow(); err != nil {
			p.logger.WarnContext(ctx, "event publish skipped, circuit open", "channel", channel, "event_type", eventType)
			return
		}
	}

	buf, err := p.encode(eventType, payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "encode event failed", "channel", channel, "event_type", eventType, "error", err)
		return
	}
	defer bytebufferpool.Put(buf)

	publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.client.Publish(publishCtx, channel, buf.Bytes()).Err(); err != nil {
		p.recordCircuitResult(err)
		p.logger.WarnContext(ctx, "publish event failed", "channel", channel, "event_type", eventType, "error", err)
		return
	}
	p.recordCircuitResult(nil)
}

// encode marshals the envelope and writes it into a pooled buffer, which the
// caller publishes from directly and returns to the pool once done.
func (p *Publisher) encode(eventType string, payload any) (*bytebufferpool.ByteBuffer, error) {
	buf := bytebufferpool.Get()

	data, err := sonic.Marshal(envelope{EventType: eventType, Timestamp: time.Now().UTC(), Data: payload})
	if err != nil {
		bytebufferpool.Put(buf)
		return nil, crerr.Wrap(err, "marshal event envelope")
	}
	if _, err := buf.Write(data); err != nil {
		bytebufferpool.Put(buf)
		return nil, crerr.Wrap(err, "buffer event payload")
	}

	return buf, nil
}

func (p *Publisher) recordCircuitResult(err error) {
	if !p.circuitEnabled {
		return
	}
	if err == nil {
		p.breaker.RecordSuccess()
		return
	}
	p.breaker.RecordFailure()
}
