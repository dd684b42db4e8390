package bridge

import (
	"math/big"

	"stardust/core/types"
	nativecommon "stardust/native/common"
)

// Kind distinguishes the two swap flows that share the NextSwapId counter
// (spec §4.4).
type Kind uint8

const (
	KindOfficial Kind = iota
	KindMakerMediated
)

// Status is the swap lifecycle.
type Status uint8

const (
	StatusPending Status = iota
	StatusCompleted
	StatusRefunded
	StatusUserReported
	StatusArbitrationApproved
	StatusArbitrationRejected
)

// Swap is a single DUST<->USDT bridge record, covering both flows.
type Swap struct {
	ID          uint64            `json:"id"`
	Kind        Kind              `json:"kind"`
	User        types.AccountID   `json:"user"`
	MakerID     uint64            `json:"makerId"`
	DustAmount  *big.Int          `json:"dustAmount"`
	USDTAmount  *big.Int          `json:"usdtAmount"`
	PriceUSDT   *big.Int          `json:"priceUsdt"`
	TronAddress string            `json:"tronAddress"`
	Status      Status            `json:"status"`
	CreatedAt   types.BlockNumber `json:"createdAt"`
	ExpireAt    types.BlockNumber `json:"expireAt"`
	TimeoutAt   types.BlockNumber `json:"timeoutAt"`
	TRC20TxHash string            `json:"trc20TxHash"`
	Completed   bool              `json:"completed"`

	// CorrelationID lets the off-chain relayer match a submitted
	// CompleteSwap/ReportSwap call back to the locally queued job that
	// produced it (spec §9 Open Question 2: the OCW hook only builds and
	// hands off a signed call, it never mutates storage directly).
	CorrelationID string `json:"correlationId"`
}

// EnsureDefaults normalizes nil big.Int fields.
func (s *Swap) EnsureDefaults() {
	if s.DustAmount == nil {
		s.DustAmount = new(big.Int)
	}
	if s.USDTAmount == nil {
		s.USDTAmount = new(big.Int)
	}
	if s.PriceUSDT == nil {
		s.PriceUSDT = new(big.Int)
	}
}

// Clone returns a deep copy of the swap.
func (s *Swap) Clone() *Swap {
	if s == nil {
		return nil
	}
	out := *s
	out.EnsureDefaults()
	out.DustAmount = new(big.Int).Set(s.DustAmount)
	out.USDTAmount = new(big.Int).Set(s.USDTAmount)
	out.PriceUSDT = new(big.Int).Set(s.PriceUSDT)
	return &out
}

// Params bounds the bridge's governance-tunable timeouts.
type Params struct {
	SwapTimeoutBlocks    types.BlockNumber
	OcwSwapTimeoutBlocks types.BlockNumber
	MinUSDTAmount        *big.Int
	ReconcileSweepBudget int
	BlockTimeSeconds     int64
	SwapQuota            nativecommon.Quota
	SwapQuotaWindowBlocks types.BlockNumber
}

// DefaultParams mirrors spec §6's 6-second block time and §4.4's swap
// timeout semantics.
func DefaultParams() Params {
	return Params{
		SwapTimeoutBlocks:    14_400, // 1 day at 10 blocks/minute
		OcwSwapTimeoutBlocks: 1_800,  // 3 hours
		MinUSDTAmount:        big.NewInt(1_000_000), // 1 USDT at the oracle's 10^6 precision
		ReconcileSweepBudget: 100,
		BlockTimeSeconds:     6,
		SwapQuota: nativecommon.Quota{
			MaxRequestsPerMin: 5,
			EpochSeconds:      86_400,
		},
		SwapQuotaWindowBlocks: 14_400, // one day at 10 blocks/minute, matches EpochSeconds
	}
}
