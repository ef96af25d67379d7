package notify

import (
	"context"
	"sync"
)

// Event is a published message as seen by a subscriber.
type Event struct {
	Topic   string
	Name    string
	Payload any
}

// Hub is an in-process topic fan-out. Delivery never blocks the publisher:
// a subscriber whose queue is full misses the event.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Subscriber]struct{}
	qLen  int
}

// NewHub creates a hub with the given per-subscriber queue length.
func NewHub(queueLen int) *Hub {
	if queueLen <= 0 {
		queueLen = 8
	}
	return &Hub{
		rooms: make(map[string]map[*Subscriber]struct{}),
		qLen:  queueLen,
	}
}

// Subscriber receives the events of every topic it joined.
type Subscriber struct {
	hub    *Hub
	ch     chan Event
	topics map[string]struct{}
	closed bool
}

// Subscribe registers a subscriber that has joined no topics yet.
func (h *Hub) Subscribe() *Subscriber {
	return &Subscriber{
		hub:    h,
		ch:     make(chan Event, h.qLen),
		topics: make(map[string]struct{}),
	}
}

// Publish delivers the event to all subscribers of topic.
func (h *Hub) Publish(_ context.Context, topic, event string, payload any) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msg := Event{Topic: topic, Name: event, Payload: payload}
	for sub := range h.rooms[topic] {
		select {
		case sub.ch <- msg:
		default:
		}
	}
	return nil
}

// Subscribers returns the number of subscribers joined to topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[topic])
}

// Events returns the delivery channel. It is closed by Close.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Join adds topic to the subscription. Joining twice has no effect.
func (s *Subscriber) Join(topics ...string) {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	if s.closed {
		return
	}
	for _, topic := range topics {
		room, ok := h.rooms[topic]
		if !ok {
			room = make(map[*Subscriber]struct{})
			h.rooms[topic] = room
		}
		room[s] = struct{}{}
		s.topics[topic] = struct{}{}
	}
}

// Leave removes topic from the subscription.
func (s *Subscriber) Leave(topic string) {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	s.leave(topic)
}

func (s *Subscriber) leave(topic string) {
	h := s.hub
	if room, ok := h.rooms[topic]; ok {
		delete(room, s)
		if len(room) == 0 {
			delete(h.rooms, topic)
		}
	}
	delete(s.topics, topic)
}

// Close leaves every topic and closes the event channel.
func (s *Subscriber) Close() {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	if s.closed {
		return
	}
	for topic := range s.topics {
		s.leave(topic)
	}
	s.closed = true
	close(s.ch)
}
