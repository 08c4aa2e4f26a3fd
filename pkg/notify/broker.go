package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/omnibot/pkg/domain"
)

// AllConversations subscribes to every conversation.
const AllConversations = ""

// Broker is an EventSink feeding in-process subscribers, such as SSE streams.
// Slow subscribers lose messages rather than stall delivery.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan []byte]struct{}
	buffer      int
	logger      *slog.Logger
}

// NewBroker creates a broker whose subscriber channels hold buffer messages.
func NewBroker(buffer int, logger *slog.Logger) *Broker {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Broker{
		subscribers: make(map[string]map[chan []byte]struct{}),
		buffer:      buffer,
		logger:      logger,
	}
}

func (b *Broker) Name() string { return "broker" }

// Subscribe registers a channel for conversationID (AllConversations for every one).
// The returned func unsubscribes and closes the channel.
func (b *Broker) Subscribe(conversationID string) (<-chan []byte, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan []byte, b.buffer)
	if _, ok := b.subscribers[conversationID]; !ok {
		b.subscribers[conversationID] = make(map[chan []byte]struct{})
	}
	b.subscribers[conversationID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if subs, ok := b.subscribers[conversationID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(b.subscribers, conversationID)
				}
			}
			close(ch)
		})
	}
}

// Subscribers returns the number of open subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, subs := range b.subscribers {
		n += len(subs)
	}
	return n
}

// Deliver encodes event and offers it to the conversation's and the global subscribers.
func (b *Broker) Deliver(ctx context.Context, event domain.Event) error {
	msg, err := json.Marshal(event)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	b.offer(event, msg, b.subscribers[event.ConversationID])
	if event.ConversationID != AllConversations {
		b.offer(event, msg, b.subscribers[AllConversations])
	}
	return nil
}

func (b *Broker) offer(event domain.Event, msg []byte, subs map[chan []byte]struct{}) {
	for ch := range subs {
		select {
		case ch <- msg:
		default:
			b.logger.Warn("subscriber buffer full, dropping event", "event_id", event.ID, "conversation_id", event.ConversationID)
		}
	}
}
