package storagecoord

import (
	"encoding/hex"

	"stardust/core/types"
)

const (
	EventTypePinRequested          = "storagecoord.pin_requested"
	EventTypeAssignmentCreated     = "storagecoord.assignment_created"
	EventTypeReplicaRepaired       = "storagecoord.replica_repaired"
	EventTypeReplicaDegraded       = "storagecoord.replica_degraded"
	EventTypeOperatorDegradationAlert = "storagecoord.operator_degradation_alert"
	EventTypePinPinned             = "storagecoord.pin_pinned"
	EventTypePinGrace              = "storagecoord.pin_grace"
	EventTypePinExpired            = "storagecoord.pin_expired"
)

func newCIDEvent(eventType string, cidHash [32]byte, extra map[string]string) *types.Event {
	attrs := map[string]string{"cidHash": hex.EncodeToString(cidHash[:])}
	for k, v := range extra {
		attrs[k] = v
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

func NewPinRequestedEvent(cidHash [32]byte) *types.Event {
	return newCIDEvent(EventTypePinRequested, cidHash, nil)
}

func NewAssignmentCreatedEvent(cidHash [32]byte) *types.Event {
	return newCIDEvent(EventTypeAssignmentCreated, cidHash, nil)
}

func NewReplicaRepairedEvent(cidHash [32]byte, operator types.AccountID) *types.Event {
	return newCIDEvent(EventTypeReplicaRepaired, cidHash, map[string]string{"operator": operator.String()})
}

func NewReplicaDegradedEvent(cidHash [32]byte, operator types.AccountID) *types.Event {
	return newCIDEvent(EventTypeReplicaDegraded, cidHash, map[string]string{"operator": operator.String()})
}

func NewOperatorDegradationAlertEvent(operator types.AccountID) *types.Event {
	return &types.Event{Type: EventTypeOperatorDegradationAlert, Attributes: map[string]string{"operator": operator.String()}}
}

func NewPinPinnedEvent(cidHash [32]byte) *types.Event {
	return newCIDEvent(EventTypePinPinned, cidHash, nil)
}

func NewPinGraceEvent(cidHash [32]byte) *types.Event {
	return newCIDEvent(EventTypePinGrace, cidHash, nil)
}

func NewPinExpiredEvent(cidHash [32]byte) *types.Event {
	return newCIDEvent(EventTypePinExpired, cidHash, nil)
}
