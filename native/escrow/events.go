package escrow

import (
	"encoding/hex"
	"math/big"

	"stardust/core/types"
)

const (
	EventTypeLocked   = "escrow.locked"
	EventTypeReleased = "escrow.released"
	EventTypeRefunded = "escrow.refunded"
)

func NewLockedEvent(escrowID []byte, payer [32]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeLocked,
		Attributes: map[string]string{
			"escrowId": hex.EncodeToString(escrowID),
			"payer":    hex.EncodeToString(payer[:]),
			"amount":   amount.String(),
		},
	}
}

func NewReleasedEvent(escrowID []byte, beneficiary [32]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeReleased,
		Attributes: map[string]string{
			"escrowId":    hex.EncodeToString(escrowID),
			"beneficiary": hex.EncodeToString(beneficiary[:]),
			"amount":      amount.String(),
		},
	}
}

func NewRefundedEvent(escrowID []byte, payer [32]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeRefunded,
		Attributes: map[string]string{
			"escrowId": hex.EncodeToString(escrowID),
			"payer":    hex.EncodeToString(payer[:]),
			"amount":   amount.String(),
		},
	}
}
