// Package messaging provides conversations and messages with a short-TTL
// cache in front of the store and a pass-through change feed for live
// delivery. The feed has no broker semantics: subscribers only see messages
// published while they are attached.
package messaging

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/tempandmajor/commonly-sub007/internal/model"
)

// Event is one change-feed entry: a message appended to a conversation.
type Event struct {
	ConversationID uuid.UUID     `json:"conversation_id"`
	Message        model.Message `json:"message"`
}

// Bus fans messages out to live subscribers of a conversation.
// Implementations: Redis pub/sub (production) or in-memory (local dev / tests).
type Bus interface {
	Publish(ctx context.Context, ev Event) error

	// Subscribe attaches to a conversation's feed. The returned stop
	// function detaches and closes the channel.
	Subscribe(ctx context.Context, conversationID uuid.UUID) (<-chan Event, func(), error)
}

type memorySub struct {
	id uint64
	ch chan Event
}

type memoryBus struct {
	mu     sync.Mutex
	subs   map[uuid.UUID][]memorySub
	nextID uint64
}

func NewMemoryBus() Bus {
	return &memoryBus{subs: make(map[uuid.UUID][]memorySub)}
}

func (b *memoryBus) Publish(_ context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs[ev.ConversationID] {
		select {
		case sub.ch <- ev:
		default:
			// Slow subscriber; the feed is best-effort, drop rather than block.
		}
	}
	return nil
}

func (b *memoryBus) Subscribe(_ context.Context, conversationID uuid.UUID) (<-chan Event, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := memorySub{id: b.nextID, ch: make(chan Event, 16)}
	b.subs[conversationID] = append(b.subs[conversationID], sub)

	stop := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[conversationID]
		for i, s := range subs {
			if s.id == sub.id {
				b.subs[conversationID] = append(subs[:i], subs[i+1:]...)
				close(s.ch)
				return
			}
		}
	}
	return sub.ch, stop, nil
}
