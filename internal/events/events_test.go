package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewEventBus()

	var got []OfferEventPayload
	bus.Subscribe(EventOfferCreated, func(e *Event) error {
		var p OfferEventPayload
		require.NoError(t, json.Unmarshal(e.Payload, &p))
		got = append(got, p)
		return nil
	})

	payload := OfferEventPayload{OfferID: "o1", RequestID: "r1", WorkshopID: "w1", Price: "8500", Status: "SENT"}
	require.NoError(t, bus.PublishJSON(EventOfferCreated, payload))

	require.Len(t, got, 1)
	assert.Equal(t, payload, got[0])
}

func TestPublishIgnoresUnsubscribedTypes(t *testing.T) {
	bus := NewEventBus()
	assert.NoError(t, bus.PublishJSON(EventRequestExpired, RequestEventPayload{RequestID: "r1"}))
}

func TestHandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := NewEventBus()

	calls := 0
	bus.Subscribe(EventBookingCreated, func(e *Event) error {
		calls++
		return errors.New("boom")
	})
	bus.Subscribe(EventBookingCreated, func(e *Event) error {
		calls++
		return nil
	})

	require.NoError(t, bus.PublishJSON(EventBookingCreated, BookingEventPayload{BookingID: "b1"}))
	assert.Equal(t, 2, calls)
}
