// Package events provides in-process change notifications so consumers
// (the operator console) repaint without polling engine state.
package events

import (
	"sync"
	"time"
)

// Type categorizes engine change events.
type Type string

const (
	// TypeRosterUpdated fires after a roster refresh or roster poll
	// error change.
	TypeRosterUpdated Type = "roster.updated"

	// TypeConversationUpdated fires after a conversation merge, an
	// older-page load, or a conversation poll error change.
	TypeConversationUpdated Type = "conversation.updated"

	// TypeSendStateChanged fires on every optimistic send transition.
	TypeSendStateChanged Type = "send.state_changed"

	// TypeSelectionChanged fires when the active creator or fan changes.
	TypeSelectionChanged Type = "selection.changed"
)

// Event is one engine change notification.
type Event struct {
	Type      Type
	CreatorID string
	FanID     string
	At        time.Time
}

// Handler is a callback invoked for events matching a subscription.
type Handler func(event Event)

// Filter defines criteria for matching events.
type Filter struct {
	// Types filters by event type (nil = all types).
	Types []Type

	// CreatorID filters to one creator (empty = all).
	CreatorID string

	// FanID filters to one fan (empty = all).
	FanID string
}

// Matches returns true if the event satisfies the filter.
func (f *Filter) Matches(event Event) bool {
	if len(f.Types) > 0 {
		matched := false
		for _, t := range f.Types {
			if event.Type == t {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if f.CreatorID != "" && event.CreatorID != f.CreatorID {
		return false
	}
	if f.FanID != "" && event.FanID != f.FanID {
		return false
	}
	return true
}

// subscription is an active registration.
type subscription struct {
	id      string
	filter  Filter
	handler Handler
}

// Publisher fans events out to matching subscribers.
type Publisher struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
}

// NewPublisher creates an empty publisher.
func NewPublisher() *Publisher {
	return &Publisher{
		subscriptions: make(map[string]*subscription),
	}
}

// Publish delivers an event to all matching subscribers. Handlers are
// invoked outside the lock to avoid deadlocks.
func (p *Publisher) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	p.mu.RLock()
	var handlers []Handler
	for _, sub := range p.subscriptions {
		if sub.filter.Matches(event) {
			handlers = append(handlers, sub.handler)
		}
	}
	p.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// Subscribe registers a handler for events matching the filter.
func (p *Publisher) Subscribe(id string, filter Filter, handler Handler) error {
	if id == "" {
		return ErrInvalidSubscriptionID
	}
	if handler == nil {
		return ErrNilHandler
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.subscriptions[id]; exists {
		return ErrSubscriptionExists
	}

	p.subscriptions[id] = &subscription{id: id, filter: filter, handler: handler}
	return nil
}

// Unsubscribe removes a subscription by ID.
func (p *Publisher) Unsubscribe(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.subscriptions[id]; !exists {
		return ErrSubscriptionNotFound
	}

	delete(p.subscriptions, id)
	return nil
}

// SubscriberCount returns the number of active subscribers.
func (p *Publisher) SubscriberCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscriptions)
}

// Close removes all subscriptions.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscriptions = make(map[string]*subscription)
}

// Errors for publisher operations.
var (
	ErrInvalidSubscriptionID = &PublisherError{Message: "subscription ID is required"}
	ErrNilHandler            = &PublisherError{Message: "handler cannot be nil"}
	ErrSubscriptionExists    = &PublisherError{Message: "subscription with this ID already exists"}
	ErrSubscriptionNotFound  = &PublisherError{Message: "subscription not found"}
)

// PublisherError represents an error from publisher operations.
type PublisherError struct {
	Message string
}

func (e *PublisherError) Error() string {
	return e.Message
}
