package bridge

import (
	"strconv"

	"stardust/core/types"
)

const (
	EventTypeSwapLocked       = "bridge.swap_locked"
	EventTypeSwapCompleted    = "bridge.swap_completed"
	EventTypeSwapRefunded     = "bridge.swap_refunded"
	EventTypeSwapUserReported = "bridge.swap_user_reported"
	EventTypeArbitrationApplied = "bridge.arbitration_applied"
)

func newSwapEvent(eventType string, id uint64) *types.Event {
	return &types.Event{Type: eventType, Attributes: map[string]string{"swapId": strconv.FormatUint(id, 10)}}
}

func NewSwapLockedEvent(id uint64) *types.Event    { return newSwapEvent(EventTypeSwapLocked, id) }
func NewSwapCompletedEvent(id uint64) *types.Event { return newSwapEvent(EventTypeSwapCompleted, id) }
func NewSwapRefundedEvent(id uint64) *types.Event  { return newSwapEvent(EventTypeSwapRefunded, id) }
func NewSwapUserReportedEvent(id uint64) *types.Event {
	return newSwapEvent(EventTypeSwapUserReported, id)
}
func NewArbitrationAppliedEvent(id uint64) *types.Event {
	return newSwapEvent(EventTypeArbitrationApplied, id)
}
