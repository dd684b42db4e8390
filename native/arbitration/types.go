package arbitration

import (
	"math/big"

	"stardust/core/types"
)

// ModuleTag identifies which native module a case's linked id belongs to,
// so a resolved decision can be routed to that module's
// ApplyArbitrationDecision (spec §4.5).
type ModuleTag uint8

const (
	ModuleTagOTCOrder ModuleTag = iota
	ModuleTagBridge
)

// Status is the case lifecycle.
type Status uint8

const (
	StatusOpen Status = iota
	StatusResolved
	StatusClosed
)

// DecisionOutcome is the tagged sum applied to the linked module.
type DecisionOutcome uint8

const (
	DecisionRelease DecisionOutcome = iota
	DecisionRefund
	DecisionPartial
)

// Decision is the resolution applied to a case's linked record.
type Decision struct {
	Outcome    DecisionOutcome
	PartialBps uint32 // only meaningful when Outcome == DecisionPartial, basis points <= 10000
}

// Case is a single arbitration dispute record.
type Case struct {
	ID           uint64            `json:"id"`
	Plaintiff    types.AccountID   `json:"plaintiff"`
	Defendant    types.AccountID   `json:"defendant"`
	ModuleTag    ModuleTag         `json:"moduleTag"`
	LinkedID     uint64            `json:"linkedId"`
	EvidenceCIDs []string          `json:"evidenceCids"`
	Status       Status            `json:"status"`
	Decision     *Decision         `json:"decision,omitempty"`
	FeeAmount    *big.Int          `json:"feeAmount"`
	OpenedAt     types.BlockNumber `json:"openedAt"`
}

// EnsureDefaults normalizes nil big.Int fields.
func (c *Case) EnsureDefaults() {
	if c.FeeAmount == nil {
		c.FeeAmount = new(big.Int)
	}
}

// Params bounds case-opening limits.
type Params struct {
	MinFeeAmount *big.Int
}

// DefaultParams mirrors conservative non-zero minimums in the teacher's
// deposit-bounded idiom.
func DefaultParams() Params {
	return Params{MinFeeAmount: big.NewInt(1)}
}
