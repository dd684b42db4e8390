// Package affiliate implements the referral-chain payout ledger and the
// unified membership tiers it funds (spec §4.8): sponsor binding, weekly
// and instant settlement, and USD-priced membership purchases converted to
// DUST through the pricing oracle.
package affiliate

import (
	"math/big"

	"stardust/core/types"
)

// MaxChainDepth is the maximum number of ancestors a referral chain walks.
const MaxChainDepth = 15

// DaysBlocks mirrors the runtime's DAYS = 14,400 blocks constant (spec §6,
// 6s blocks). YearBlocks approximates a 365-day membership term.
const DaysBlocks = 14_400
const YearBlocks = 365 * DaysBlocks

// SettlementMode selects how referral payouts reach ancestors.
type SettlementMode uint8

const (
	SettlementWeekly SettlementMode = iota
	SettlementInstant
	SettlementHybrid
)

// LeftoverPolicy decides what happens to the unallocated remainder of a
// distribution when the chain is shorter than MaxChainDepth.
type LeftoverPolicy uint8

const (
	LeftoverToPool LeftoverPolicy = iota
	LeftoverBurn
)

// MembershipLevel is one of the four unified-membership tiers.
type MembershipLevel uint8

const (
	LevelY1 MembershipLevel = iota
	LevelY3
	LevelY5
	LevelY10
)

// BaseGenerations returns the level's fixed referral-depth allowance.
func (l MembershipLevel) BaseGenerations() uint8 {
	switch l {
	case LevelY1:
		return 6
	case LevelY3:
		return 9
	case LevelY5:
		return 12
	case LevelY10:
		return 15
	default:
		return 0
	}
}

// Years returns the level's validity term in years.
func (l MembershipLevel) Years() uint64 {
	switch l {
	case LevelY1:
		return 1
	case LevelY3:
		return 3
	case LevelY5:
		return 5
	case LevelY10:
		return 10
	default:
		return 0
	}
}

func (l MembershipLevel) valid() bool {
	return l <= LevelY10
}

// Params holds the governance-tunable affiliate/membership configuration.
type Params struct {
	// Percents holds MaxChainDepth basis-point values (0-10000), one per
	// ancestor level, validated by ValidatePercents on every governance
	// update.
	Percents             []uint32
	Mode                 SettlementMode
	HybridSplitLayer     uint8
	WeeklyPeriodBlocks   types.BlockNumber
	LeftoverPolicy       LeftoverPolicy
	MinHoldingValueCents uint64
	// TargetPriceUSDMicro is indexed by MembershipLevel, USD target price
	// at 10^6 precision.
	TargetPriceUSDMicro []*big.Int
	// FallbackRate is the last-resort DUST/USD rate (10^6 precision) used
	// when the oracle is unavailable and no stored rate exists yet.
	FallbackRate         *big.Int
	UpgradeServiceFeeBps uint32
}

// DefaultParams mirrors the worked example in the spec's distribution
// walkthrough: hybrid(k=3) percents summing to 82%.
func DefaultParams() Params {
	percents := []uint32{2000, 1500, 1000, 800, 600, 500, 400, 300, 200, 200, 200, 200, 100, 100, 100}
	prices := make([]*big.Int, 4)
	prices[LevelY1] = big.NewInt(30_000_000)  // $30
	prices[LevelY3] = big.NewInt(80_000_000)  // $80
	prices[LevelY5] = big.NewInt(150_000_000) // $150
	prices[LevelY10] = big.NewInt(280_000_000)
	return Params{
		Percents:             percents,
		Mode:                 SettlementHybrid,
		HybridSplitLayer:     3,
		WeeklyPeriodBlocks:   7 * DaysBlocks,
		LeftoverPolicy:       LeftoverToPool,
		MinHoldingValueCents: 10_000,
		TargetPriceUSDMicro:  prices,
		FallbackRate:         big.NewInt(1_000_000), // 1 DUST == 1 USDT, last resort only
		UpgradeServiceFeeBps: 2000,
	}
}

// ValidatePercents enforces the governance invariants spec §4.8 requires
// of a new percentage vector before it is adopted.
func ValidatePercents(percents []uint32) error {
	if len(percents) != MaxChainDepth {
		return ErrInvalidPercents
	}
	sum := uint32(0)
	prev := uint32(10000)
	for _, p := range percents {
		if p > 10000 {
			return ErrInvalidPercents
		}
		if p > prev {
			return ErrInvalidPercents
		}
		prev = p
		sum += p
	}
	if sum < 5000 || sum > 9900 {
		return ErrInvalidPercents
	}
	if percents[0] > 5000 || percents[0] == 0 {
		return ErrInvalidPercents
	}
	if percents[1] == 0 {
		return ErrInvalidPercents
	}
	return nil
}

// Membership is one account's unified-membership record.
type Membership struct {
	Account          types.AccountID   `json:"account"`
	Level            MembershipLevel   `json:"level"`
	ValidUntil       types.BlockNumber `json:"validUntil"`
	BonusGenerations uint8             `json:"bonusGenerations"`
	TotalPaidIn      *big.Int          `json:"totalPaidIn"`
}

// EnsureDefaults normalizes a freshly decoded membership's nil big.Int field.
func (m *Membership) EnsureDefaults() {
	if m.TotalPaidIn == nil {
		m.TotalPaidIn = new(big.Int)
	}
}

// EffectiveGenerations is the referral depth this member's own downline may
// count against, base plus accrued bonus, capped at MaxChainDepth.
func (m *Membership) EffectiveGenerations() uint8 {
	total := m.Level.BaseGenerations() + m.BonusGenerations
	if total > MaxChainDepth {
		return MaxChainDepth
	}
	return total
}

// PendingBalances holds one account's weekly-mode accrued-but-unpaid
// per-level amounts. Levels is always length MaxChainDepth; index i is the
// pending amount this account is owed as the i-th ancestor of some buyer.
type PendingBalances struct {
	Account types.AccountID `json:"account"`
	Levels  []*big.Int      `json:"levels"`
}

// EnsureDefaults normalizes freshly decoded or freshly constructed pending
// balances, allocating the fixed-length Levels slice.
func (p *PendingBalances) EnsureDefaults() {
	if len(p.Levels) != MaxChainDepth {
		levels := make([]*big.Int, MaxChainDepth)
		copy(levels, p.Levels)
		for i := range levels {
			if levels[i] == nil {
				levels[i] = new(big.Int)
			}
		}
		p.Levels = levels
		return
	}
	for i, v := range p.Levels {
		if v == nil {
			p.Levels[i] = new(big.Int)
		}
	}
}

// Total sums all pending levels.
func (p *PendingBalances) Total() *big.Int {
	total := new(big.Int)
	for _, v := range p.Levels {
		total.Add(total, v)
	}
	return total
}
