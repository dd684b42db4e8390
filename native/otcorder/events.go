package otcorder

import (
	"strconv"

	"stardust/core/types"
)

const (
	EventTypeCreated  = "otcorder.created"
	EventTypePaid     = "otcorder.paid"
	EventTypeReleased = "otcorder.released"
	EventTypeCancelled = "otcorder.cancelled"
	EventTypeDisputed = "otcorder.disputed"
	EventTypeExpired  = "otcorder.expired"
)

func newOrderEvent(eventType string, id uint64) *types.Event {
	return &types.Event{Type: eventType, Attributes: map[string]string{"orderId": strconv.FormatUint(id, 10)}}
}

func NewCreatedEvent(id uint64) *types.Event   { return newOrderEvent(EventTypeCreated, id) }
func NewPaidEvent(id uint64) *types.Event      { return newOrderEvent(EventTypePaid, id) }
func NewReleasedEvent(id uint64) *types.Event  { return newOrderEvent(EventTypeReleased, id) }
func NewCancelledEvent(id uint64) *types.Event { return newOrderEvent(EventTypeCancelled, id) }
func NewDisputedEvent(id uint64) *types.Event  { return newOrderEvent(EventTypeDisputed, id) }
func NewExpiredEvent(id uint64) *types.Event   { return newOrderEvent(EventTypeExpired, id) }
