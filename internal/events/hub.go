// Package events fans mutation notifications out to connected clients. The
// hub tracks subscriptions per topic; feature services publish after every
// successful mutation and never block on slow consumers.
package events

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"beacon/internal/platform/metrics"
)

// Broadcast topics. Entity-level topics carry every mutation of that entity;
// per-disaster rooms use Room(id).
const (
	TopicDisasters = "disasters"
	TopicReports   = "reports"
	TopicResources = "resources"
)

// Room names the per-disaster topic clients join for scoped updates.
func Room(disasterID string) string {
	return "disaster:" + disasterID
}

// Event is a single fan-out message: the mutation kind and its payload.
type Event struct {
	Action string `json:"action"`
	Data   any    `json:"data"`
}

// Message is an Event as delivered to a subscriber, stamped with the topic it
// was published on.
type Message struct {
	Topic  string `json:"topic"`
	Action string `json:"action"`
	Data   any    `json:"data"`
}

// subscriberBuffer bounds how far a consumer may fall behind before the hub
// drops it.
const subscriberBuffer = 32

// Subscriber is one connected client. Messages arrive on C in publish order.
// When the hub drops a slow subscriber it closes C.
type Subscriber struct {
	ID     string
	C      chan Message
	topics map[string]struct{}
}

// Hub is the in-process broadcast fabric.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	byTopic     map[string]map[string]*Subscriber
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

func NewHub(logger *slog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		subscribers: make(map[string]*Subscriber),
		byTopic:     make(map[string]map[string]*Subscriber),
		logger:      logger,
		metrics:     m,
	}
}

// Subscribe registers a new consumer with no topics. Callers add topics with
// Join and must call Unsubscribe when done.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		ID:     uuid.NewString(),
		C:      make(chan Message, subscriberBuffer),
		topics: make(map[string]struct{}),
	}
	h.mu.Lock()
	h.subscribers[sub.ID] = sub
	h.mu.Unlock()
	return sub
}

// Join adds the subscriber to a topic. Joining twice is a no-op.
func (h *Hub) Join(sub *Subscriber, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[sub.ID]; !ok {
		return
	}
	sub.topics[topic] = struct{}{}
	if h.byTopic[topic] == nil {
		h.byTopic[topic] = make(map[string]*Subscriber)
	}
	h.byTopic[topic][sub.ID] = sub
}

// Leave removes the subscriber from a topic.
func (h *Hub) Leave(sub *Subscriber, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(sub.topics, topic)
	if members := h.byTopic[topic]; members != nil {
		delete(members, sub.ID)
		if len(members) == 0 {
			delete(h.byTopic, topic)
		}
	}
}

// Unsubscribe removes the subscriber from every topic and closes its channel.
// Safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

func (h *Hub) removeLocked(sub *Subscriber) {
	if _, ok := h.subscribers[sub.ID]; !ok {
		return
	}
	delete(h.subscribers, sub.ID)
	for topic := range sub.topics {
		if members := h.byTopic[topic]; members != nil {
			delete(members, sub.ID)
			if len(members) == 0 {
				delete(h.byTopic, topic)
			}
		}
	}
	close(sub.C)
}

// Publish delivers the event to every current subscriber of the topic.
// Subscribers that joined after this call see later events only; there is no
// replay. A subscriber whose buffer is full is dropped rather than stalling
// the publisher.
func (h *Hub) Publish(topic string, event Event) {
	msg := Message{Topic: topic, Action: event.Action, Data: event.Data}

	h.mu.Lock()
	defer h.mu.Unlock()

	var dropped []*Subscriber
	for _, sub := range h.byTopic[topic] {
		select {
		case sub.C <- msg:
		default:
			dropped = append(dropped, sub)
		}
	}
	for _, sub := range dropped {
		h.logger.Warn("dropping slow subscriber", "subscriber_id", sub.ID, "topic", topic)
		h.removeLocked(sub)
	}
	if h.metrics != nil {
		h.metrics.EventsPublished.WithLabelValues(topic).Inc()
	}
}
