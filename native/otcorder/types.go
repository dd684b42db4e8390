package otcorder

import (
	"math/big"

	"stardust/core/types"
)

// Status is the OTC order lifecycle (spec §4.3).
type Status uint8

const (
	StatusPending Status = iota
	StatusPaid
	StatusReleased
	StatusCancelled
	StatusDisputed
	StatusExpired
)

// Order is a single OTC trade record.
type Order struct {
	ID              uint64            `json:"id"`
	Buyer           types.AccountID   `json:"buyer"`
	MakerID         uint64            `json:"makerId"`
	DustAmount      *big.Int          `json:"dustAmount"`
	USDTAmount      *big.Int          `json:"usdtAmount"`
	Status          Status            `json:"status"`
	CreatedAt       types.BlockNumber `json:"createdAt"`
	ExpireAt        types.BlockNumber `json:"expireAt"`
	IsFirstPurchase bool              `json:"isFirstPurchase"`
}

// EnsureDefaults normalizes nil big.Int fields.
func (o *Order) EnsureDefaults() {
	if o.DustAmount == nil {
		o.DustAmount = new(big.Int)
	}
	if o.USDTAmount == nil {
		o.USDTAmount = new(big.Int)
	}
}

// Clone returns a deep copy of the order.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	out := *o
	out.EnsureDefaults()
	out.DustAmount = new(big.Int).Set(o.DustAmount)
	out.USDTAmount = new(big.Int).Set(o.USDTAmount)
	return &out
}

// Decision mirrors arbitration's tagged decision sum (spec §4.5).
type Decision struct {
	Outcome      DecisionOutcome
	PartialBps   uint32
}

// DecisionOutcome enumerates the arbitration result applied to an order.
type DecisionOutcome uint8

const (
	DecisionRelease DecisionOutcome = iota
	DecisionRefund
	DecisionPartial
)

// Params bounds order-lifecycle limits.
type Params struct {
	MinOrderSize                  *big.Int
	MaxConcurrentFirstPurchasePerMaker uint32
	FirstPurchaseMinDust           *big.Int
	FirstPurchaseMaxDust           *big.Int
	FirstPurchaseTargetUSD         *big.Int
	ExpireSweepBudget              int
}

// DefaultParams mirrors spec §4.3's first-purchase clamp bounds
// ([100, 10000] DUST) and a $10 USD target.
func DefaultParams() Params {
	return Params{
		MinOrderSize:                       big.NewInt(1),
		MaxConcurrentFirstPurchasePerMaker: 5,
		FirstPurchaseMinDust:               new(big.Int).Mul(big.NewInt(100), types.UNIT),
		FirstPurchaseMaxDust:               new(big.Int).Mul(big.NewInt(10000), types.UNIT),
		FirstPurchaseTargetUSD:             big.NewInt(10),
		ExpireSweepBudget:                  100,
	}
}
