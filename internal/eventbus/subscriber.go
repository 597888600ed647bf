package eventbus

import (
	"context"

	crerr "github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

// Subscriber is the read side C7 depends on: one Redis connection
// subscribed to both the global channel and a single user's private
// channel, fed to the session gateway as a raw byte stream, forwarding
// verbatim JSON from subscribed channels.
type Subscriber struct {
	client *redis.Client
	pubsub *redis.PubSub
}

// NewSubscriber opens one Subscribe connection on the two exact channels a
// single WebSocket session needs: events:global plus events:user:{userID}.
func NewSubscriber(ctx context.Context, redisURL, userID string) (*Subscriber, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, crerr.Wrap(err, "parse broker url")
	}
	client := redis.NewClient(opts)

	pubsub := client.Subscribe(ctx, GlobalChannel, UserChannel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		_ = client.Close()
		return nil, crerr.Wrap(err, "subscribe to channels")
	}

	return &Subscriber{client: client, pubsub: pubsub}, nil
}

// Messages returns the channel of incoming pub/sub messages. Per-channel
// ordering is guaranteed by Redis; cross-channel ordering is not.
func (s *Subscriber) Messages() <-chan *redis.Message {
	return s.pubsub.Channel()
}

// Close tears down the subscription and its dedicated connection.
func (s *Subscriber) Close() error {
	_ = s.pubsub.Close()
	return s.client.Close()
}
