package messaging

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisBus struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisBus(client *redis.Client, logger *zap.Logger) Bus {
	return &redisBus{client: client, logger: logger}
}

func topic(conversationID uuid.UUID) string {
	return "chat:" + conversationID.String()
}

func (b *redisBus) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, topic(ev.ConversationID), payload).Err()
}

func (b *redisBus) Subscribe(ctx context.Context, conversationID uuid.UUID) (<-chan Event, func(), error) {
	pubsub := b.client.Subscribe(ctx, topic(conversationID))

	// Force the subscription onto the wire before handing out the channel.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan Event, 16)
	var once sync.Once
	stop := func() {
		once.Do(func() { _ = pubsub.Close() })
	}

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.Warn("bad change-feed payload",
					zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			select {
			case out <- ev:
			default:
			}
		}
	}()

	return out, stop, nil
}
