// Package storagecoord implements pin-order coordination across three
// concerns sharing one module: request + fee collection, operator
// assignment and off-chain-cluster reconciliation, and periodic billing
// (spec §4.6).
package storagecoord

import (
	"math/big"

	"stardust/core/types"
)

// PinState is the pin's assignment/reconciliation lifecycle.
type PinState uint8

const (
	PinStateRequested PinState = iota
	PinStatePinning
	PinStatePinned
)

// BillingState tracks a subject-scoped pin's recurring charge lifecycle.
// Non-subject (one-off) pins never leave BillingStateNone.
type BillingState uint8

const (
	BillingStateNone BillingState = iota
	BillingStateActive
	BillingStateGrace
	BillingStateExpired
)

// PinRecord is the merged PendingPins/PinMeta entry for one cid_hash.
type PinRecord struct {
	CIDHash      [32]byte          `json:"cidHash"`
	Payer        types.AccountID   `json:"payer"`
	Size         uint64            `json:"size"`
	Replicas     uint32            `json:"replicas"`
	Price        *big.Int          `json:"price"`
	State        PinState          `json:"state"`
	RequestedAt  types.BlockNumber `json:"requestedAt"`
	SubjectID    *uint64           `json:"subjectId,omitempty"`
	BillingState BillingState      `json:"billingState"`
	NextCharge   types.BlockNumber `json:"nextCharge,omitempty"`
}

// EnsureDefaults normalizes a freshly decoded record's nil big.Int field.
func (p *PinRecord) EnsureDefaults() {
	if p.Price == nil {
		p.Price = new(big.Int)
	}
}

// Clone returns a deep copy of the pin record.
func (p *PinRecord) Clone() *PinRecord {
	if p == nil {
		return nil
	}
	out := *p
	out.EnsureDefaults()
	out.Price = new(big.Int).Set(p.Price)
	if p.SubjectID != nil {
		id := *p.SubjectID
		out.SubjectID = &id
	}
	return &out
}

// PinAssignment records which operators were assigned a cid_hash and which
// currently hold a successful replica. Success is index-aligned with
// Operators (the trie-backed KV layer's RLP encoding has no map support, so
// the "per-operator bool" the spec describes is a parallel slice here
// instead of the obvious map).
type PinAssignment struct {
	CIDHash      [32]byte          `json:"cidHash"`
	Operators    []types.AccountID `json:"operators"`
	Success      []bool            `json:"success"`
	ExpectedReps uint32            `json:"expectedReps"`
	CreatedAt    types.BlockNumber `json:"createdAt"`
}

// SuccessCount returns the number of operators currently marked successful.
func (a *PinAssignment) SuccessCount() int {
	n := 0
	for _, ok := range a.Success {
		if ok {
			n++
		}
	}
	return n
}

// indexOf returns the slice index of operator within a.Operators, or -1.
func (a *PinAssignment) indexOf(operator types.AccountID) int {
	for i, op := range a.Operators {
		if op == operator {
			return i
		}
	}
	return -1
}

// OperatorStatus is a storage operator's membership state.
type OperatorStatus uint8

const (
	OperatorStatusActive OperatorStatus = iota
	OperatorStatusInactive
	OperatorStatusSlashed
)

// Operator is one storage-operator registration.
type Operator struct {
	ID           types.AccountID   `json:"id"`
	PeerID       string            `json:"peerId"`
	CapacityGiB  uint64            `json:"capacityGiB"`
	EndpointHash [32]byte          `json:"endpointHash"`
	Cert         []byte            `json:"cert,omitempty"`
	Bond         *big.Int          `json:"bond"`
	Status       OperatorStatus    `json:"status"`
	Degraded     uint32            `json:"degraded"`
	JoinedAt     types.BlockNumber `json:"joinedAt"`
}

// EnsureDefaults normalizes a freshly decoded operator's nil big.Int field.
func (o *Operator) EnsureDefaults() {
	if o.Bond == nil {
		o.Bond = new(big.Int)
	}
}

// Params bounds pin pricing, billing cadence, and operator requirements.
type Params struct {
	UnitPricePerGiBReplica *big.Int
	BillingPeriodBlocks    types.BlockNumber
	GraceBlocks            types.BlockNumber
	MaxChargePerBlock      int
	DueEnqueueSpread       int
	MinCapacityGiB         uint64
	MinOperatorBond        *big.Int
	MinReserve             *big.Int
	DegradationAlertEvery  uint32
	ReconcileSweepBudget   int
}

// DefaultParams mirrors the teacher's lending reserve-factor conservatism:
// non-zero minimums everywhere money or capacity is committed.
func DefaultParams() Params {
	return Params{
		UnitPricePerGiBReplica: new(big.Int).Div(types.UNIT, big.NewInt(1000)),
		BillingPeriodBlocks:    432_000, // ~30 days at 6s blocks
		GraceBlocks:            14_400,  // ~1 day
		MaxChargePerBlock:      50,
		DueEnqueueSpread:       32,
		MinCapacityGiB:         10,
		MinOperatorBond:        new(big.Int).Mul(big.NewInt(100), types.UNIT),
		MinReserve:             types.ExistentialDeposit,
		DegradationAlertEvery:  10,
		ReconcileSweepBudget:   100,
	}
}
