package pricing

import (
	"math/big"

	"stardust/core/types"
)

// RatePrecision is the fixed-point precision (10^6) the DUST/USD rate is
// stored and reasoned about in, per spec §4.9 and §4.8.
var RatePrecision = big.NewInt(1_000_000)

// Proof is a single signed oracle submission: the rate is USD per DUST at
// RatePrecision.
type Proof struct {
	Rate      *big.Int  `json:"rate"`
	Submitter types.AccountID `json:"submitter"`
	Timestamp int64     `json:"timestamp"`
	Signature []byte    `json:"signature"`
}

// Clone returns a deep copy of the proof.
func (p *Proof) Clone() *Proof {
	if p == nil {
		return nil
	}
	out := &Proof{Submitter: p.Submitter, Timestamp: p.Timestamp}
	if p.Rate != nil {
		out.Rate = new(big.Int).Set(p.Rate)
	}
	out.Signature = append([]byte(nil), p.Signature...)
	return out
}

// Guard bounds the freshness and deviation of accepted quotes.
type Guard struct {
	MaxAgeSeconds   int64
	MaxDeviationBps uint32
}

// DefaultGuard mirrors the teacher's price-feed guard defaults, scaled to
// this runtime's block-time assumptions (spec §6: 6s blocks).
func DefaultGuard() Guard {
	return Guard{MaxAgeSeconds: 300, MaxDeviationBps: 500}
}
