package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventRequestCreated       = "request_created"
	EventOfferCreated         = "offer_created"
	EventOfferAccepted        = "offer_accepted"
	EventBookingCreated       = "booking_created"
	EventBookingStatusChanged = "booking_status_changed"
	EventRequestExpired       = "request_expired"
	EventPayoutGenerated      = "payout_generated"
)

// OfferEventPayload is the minimal offer snapshot for event consumers
// (notification senders, audit log).
type OfferEventPayload struct {
	OfferID    string `json:"offer_id"`
	RequestID  string `json:"request_id"`
	WorkshopID string `json:"workshop_id"`
	Price      string `json:"price"`
	Status     string `json:"status"`
}

type BookingEventPayload struct {
	BookingID  string `json:"booking_id"`
	RequestID  string `json:"request_id"`
	OfferID    string `json:"offer_id"`
	WorkshopID string `json:"workshop_id"`
	CustomerID string `json:"customer_id"`
	Status     string `json:"status"`
}

type RequestEventPayload struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	// WorkshopIDs carries the notification fan-out targets for
	// request_created: the workshops matched within their radius.
	WorkshopIDs []string `json:"workshop_ids,omitempty"`
}

type PayoutEventPayload struct {
	WorkshopID string `json:"workshop_id"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	TotalJobs  int    `json:"total_jobs"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// PublishJSON serializes the payload and delivers it synchronously to every
// subscriber of the type. Handler errors do not stop delivery.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := &Event{
		Type:      eventType,
		Payload:   raw,
		CreatedAt: time.Now(),
	}

	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[eventType]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		_ = h(event)
	}
	return nil
}
