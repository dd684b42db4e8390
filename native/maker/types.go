package maker

import (
	"math/big"

	"stardust/core/types"
)

// Status is the market-maker application lifecycle (spec §4.2).
type Status uint8

const (
	StatusDepositLocked Status = iota
	StatusPendingReview
	StatusActive
	StatusRejected
	StatusCancelled
	StatusExpired
)

// Application is a single market-maker's registration record.
type Application struct {
	ID         uint64          `json:"id"`
	Owner      types.AccountID `json:"owner"`
	Deposit    *big.Int        `json:"deposit"`
	Status     Status          `json:"status"`
	PublicCID  string          `json:"publicCid"`
	PrivateCID string          `json:"privateCid"`
	FeeBps     uint32          `json:"feeBps"`
	MinAmount  *big.Int        `json:"minAmount"`

	InfoDeadline   types.BlockNumber `json:"infoDeadline"`
	ReviewDeadline types.BlockNumber `json:"reviewDeadline"`

	EpayGateway string `json:"epayGateway"`
	EpayPID     string `json:"epayPid"`
	EpayKey     string `json:"epayKey"`

	FirstPurchasePool *big.Int `json:"firstPurchasePool"`
	FirstPurchaseUsed *big.Int `json:"firstPurchaseUsed"`
	UsersServed       uint64   `json:"usersServed"`

	PoolAccount types.AccountID `json:"poolAccount"`
}

// EnsureDefaults normalizes nil big.Int fields.
func (a *Application) EnsureDefaults() {
	if a.Deposit == nil {
		a.Deposit = new(big.Int)
	}
	if a.MinAmount == nil {
		a.MinAmount = new(big.Int)
	}
	if a.FirstPurchasePool == nil {
		a.FirstPurchasePool = new(big.Int)
	}
	if a.FirstPurchaseUsed == nil {
		a.FirstPurchaseUsed = new(big.Int)
	}
}

// Clone returns a deep copy of the application.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	out := *a
	out.EnsureDefaults()
	out.Deposit = new(big.Int).Set(a.Deposit)
	out.MinAmount = new(big.Int).Set(a.MinAmount)
	out.FirstPurchasePool = new(big.Int).Set(a.FirstPurchasePool)
	out.FirstPurchaseUsed = new(big.Int).Set(a.FirstPurchaseUsed)
	return &out
}

// Params bounds the registry's governance-tunable limits.
type Params struct {
	MinDeposit           *big.Int
	RejectSlashBpsMax    uint32
	MinFirstPurchasePool *big.Int
	FirstPurchaseAmount  *big.Int
	MaxConcurrentFirstPurchaseOrders uint32
}

// DefaultParams mirrors conservative defaults in the teacher's lending/escrow
// parameter idiom (validated, non-zero minimums).
func DefaultParams() Params {
	return Params{
		MinDeposit:                       big.NewInt(1000),
		RejectSlashBpsMax:                2000,
		MinFirstPurchasePool:             big.NewInt(100),
		FirstPurchaseAmount:              big.NewInt(100),
		MaxConcurrentFirstPurchaseOrders: 5,
	}
}
