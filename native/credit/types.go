package credit

import (
	"io"

	"github.com/ethereum/go-ethereum/rlp"
)

// Score is the bounded reputation record tracked per account, shared by
// both OTC buyers and market makers (spec §1, §4.3, §4.4).
type Score struct {
	Value      int64  `json:"value"`
	Completed  uint64 `json:"completed"`
	Neglected  uint64 `json:"neglected"`
	DisputesLost uint64 `json:"disputesLost"`
	Timeouts   uint64 `json:"timeouts"`
}

// scoreRecord is Score's stored form: RLP has no signed integers, so Value
// is kept as its two's-complement uint64 bit pattern.
type scoreRecord struct{ Value, Completed, Neglected, DisputesLost, Timeouts uint64 }

func (s Score) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, scoreRecord{uint64(s.Value), s.Completed, s.Neglected, s.DisputesLost, s.Timeouts})
}

func (s *Score) DecodeRLP(st *rlp.Stream) error {
	var r scoreRecord
	if err := st.Decode(&r); err != nil {
		return err
	}
	*s = Score{Value: int64(r.Value), Completed: r.Completed, Neglected: r.Neglected, DisputesLost: r.DisputesLost, Timeouts: r.Timeouts}
	return nil
}

// Clamp bounds Value to [MinScore, MaxScore].
func (s *Score) Clamp() {
	if s.Value > MaxScore {
		s.Value = MaxScore
	}
	if s.Value < MinScore {
		s.Value = MinScore
	}
}

const (
	MaxScore int64 = 1000
	MinScore int64 = -1000

	DeltaOrderCompleted   int64 = 5
	DeltaBuyerNeglect     int64 = -20
	DeltaDisputeLost      int64 = -50
	DeltaSwapTimeout      int64 = -15
	DeltaSwapCompleted    int64 = 5
)
