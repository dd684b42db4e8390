package maker

import (
	"math/big"
	"strconv"

	"stardust/core/types"
)

const (
	EventTypeDepositLocked       = "maker.deposit_locked"
	EventTypeInfoSubmitted       = "maker.info_submitted"
	EventTypeApproved            = "maker.approved"
	EventTypeFirstPurchasePoolFunded = "maker.first_purchase_pool_funded"
	EventTypeRejected            = "maker.rejected"
	EventTypeCancelled           = "maker.cancelled"
	EventTypeExpired             = "maker.expired"
)

func NewDepositLockedEvent(id uint64, owner types.AccountID, amount *big.Int) *types.Event {
	return &types.Event{Type: EventTypeDepositLocked, Attributes: map[string]string{
		"mmId": strconv.FormatUint(id, 10), "owner": owner.String(), "amount": amount.String(),
	}}
}

func NewInfoSubmittedEvent(id uint64) *types.Event {
	return &types.Event{Type: EventTypeInfoSubmitted, Attributes: map[string]string{"mmId": strconv.FormatUint(id, 10)}}
}

func NewApprovedEvent(id uint64) *types.Event {
	return &types.Event{Type: EventTypeApproved, Attributes: map[string]string{"mmId": strconv.FormatUint(id, 10)}}
}

func NewFirstPurchasePoolFundedEvent(id uint64, pool types.AccountID, amount *big.Int) *types.Event {
	return &types.Event{Type: EventTypeFirstPurchasePoolFunded, Attributes: map[string]string{
		"mmId": strconv.FormatUint(id, 10), "pool": pool.String(), "amount": amount.String(),
	}}
}

func NewRejectedEvent(id uint64, slashBps uint32) *types.Event {
	return &types.Event{Type: EventTypeRejected, Attributes: map[string]string{
		"mmId": strconv.FormatUint(id, 10), "slashBps": strconv.FormatUint(uint64(slashBps), 10),
	}}
}

func NewCancelledEvent(id uint64) *types.Event {
	return &types.Event{Type: EventTypeCancelled, Attributes: map[string]string{"mmId": strconv.FormatUint(id, 10)}}
}

func NewExpiredEvent(id uint64) *types.Event {
	return &types.Event{Type: EventTypeExpired, Attributes: map[string]string{"mmId": strconv.FormatUint(id, 10)}}
}
