package affiliate

import (
	"strconv"

	"stardust/core/types"
)

const (
	EventTypeSponsorBound        = "affiliate.sponsor_bound"
	EventTypeMembershipPurchased = "affiliate.membership_purchased"
	EventTypeMembershipUpgraded  = "affiliate.membership_upgraded"
	EventTypePayoutInstant       = "affiliate.payout_instant"
	EventTypePayoutAccrued       = "affiliate.payout_accrued"
	EventTypeWeeklySettled       = "affiliate.weekly_settled"
	EventTypeLeftoverBurned      = "affiliate.leftover_burned"
)

func NewSponsorBoundEvent(account, sponsor types.AccountID) *types.Event {
	return &types.Event{Type: EventTypeSponsorBound, Attributes: map[string]string{
		"account": account.String(),
		"sponsor": sponsor.String(),
	}}
}

func NewMembershipPurchasedEvent(account types.AccountID, level MembershipLevel, dustAmount string) *types.Event {
	return &types.Event{Type: EventTypeMembershipPurchased, Attributes: map[string]string{
		"account": account.String(),
		"level":   level.label(),
		"dust":    dustAmount,
	}}
}

func NewMembershipUpgradedEvent(account types.AccountID, dustAmount string) *types.Event {
	return &types.Event{Type: EventTypeMembershipUpgraded, Attributes: map[string]string{
		"account": account.String(),
		"dust":    dustAmount,
	}}
}

func NewPayoutInstantEvent(ancestor types.AccountID, level int, amount string) *types.Event {
	return &types.Event{Type: EventTypePayoutInstant, Attributes: map[string]string{
		"ancestor": ancestor.String(),
		"level":    strconv.Itoa(level),
		"amount":   amount,
	}}
}

func NewPayoutAccruedEvent(ancestor types.AccountID, level int, amount string) *types.Event {
	return &types.Event{Type: EventTypePayoutAccrued, Attributes: map[string]string{
		"ancestor": ancestor.String(),
		"level":    strconv.Itoa(level),
		"amount":   amount,
	}}
}

func NewWeeklySettledEvent(account types.AccountID, amount string) *types.Event {
	return &types.Event{Type: EventTypeWeeklySettled, Attributes: map[string]string{
		"account": account.String(),
		"amount":  amount,
	}}
}

func NewLeftoverBurnedEvent(buyer types.AccountID, amount string) *types.Event {
	return &types.Event{Type: EventTypeLeftoverBurned, Attributes: map[string]string{
		"buyer":  buyer.String(),
		"amount": amount,
	}}
}

func (l MembershipLevel) label() string {
	switch l {
	case LevelY1:
		return "Y1"
	case LevelY3:
		return "Y3"
	case LevelY5:
		return "Y5"
	case LevelY10:
		return "Y10"
	default:
		return "unknown"
	}
}
