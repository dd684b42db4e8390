// Package pricing implements the oracle-fed DUST/USD rate aggregator (spec
// §4.9): signed proof submission with staleness and deviation guardrails,
// grounded on the teacher's swap.PriceProofEngine verification flow.
package pricing

import (
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"stardust/core/events"
	"stardust/core/types"
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

const latestRateKey = "pricing/latest"

// Engine aggregates signed price proofs into a single accepted DUST/USD
// rate. `rate == 0`/no accepted proof is always "unavailable" (spec §9
// Open Question 4), never a valid zero.
type Engine struct {
	state     engineState
	emitter   events.Emitter
	guard     Guard
	nowFn     func() int64
	signers   map[types.AccountID]bool
}

// NewEngine builds an Engine using DefaultGuard and a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		guard:   DefaultGuard(),
		nowFn:   func() int64 { return 0 },
		signers: make(map[types.AccountID]bool),
	}
}

func (e *Engine) SetState(state engineState)       { e.state = state }
func (e *Engine) SetGuard(guard Guard)             { e.guard = guard }
func (e *Engine) SetNowFunc(now func() int64)      { e.nowFn = now }

// AuthorizeSigner adds id to the set of accounts whose proofs are accepted.
func (e *Engine) AuthorizeSigner(id types.AccountID) {
	if e.signers == nil {
		e.signers = make(map[types.AccountID]bool)
	}
	e.signers[id] = true
}

func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

// hashProof returns the digest signed over by the proof submitter.
func hashProof(p *Proof) []byte {
	buf := make([]byte, 0, 32+8)
	buf = append(buf, p.Rate.Bytes()...)
	ts := p.Timestamp
	for i := 0; i < 8; i++ {
		buf = append(buf, byte(ts>>(56-8*i)))
	}
	return ethcrypto.Keccak256(buf)
}

// SubmitPriceProof validates and records a signed rate observation.
func (e *Engine) SubmitPriceProof(proof *Proof) error {
	if proof == nil || proof.Rate == nil || proof.Rate.Sign() <= 0 {
		return ErrInvalidRate
	}
	if !e.signers[proof.Submitter] {
		return ErrSignerUnauthorized
	}
	if len(proof.Signature) != 65 {
		return ErrSignatureInvalid
	}
	hash := hashProof(proof)
	pubKey, err := ethcrypto.SigToPub(hash, proof.Signature)
	if err != nil {
		return ErrSignatureInvalid
	}
	recovered := ethcrypto.Keccak256(ethcrypto.FromECDSAPub(pubKey))
	var recoveredID types.AccountID
	copy(recoveredID[:], recovered)
	if recoveredID != proof.Submitter {
		return ErrSignatureInvalid
	}

	now := e.nowFn()
	if e.guard.MaxAgeSeconds > 0 && now-proof.Timestamp > e.guard.MaxAgeSeconds {
		return ErrPriceUnavailable
	}

	if e.guard.MaxDeviationBps > 0 {
		prev, ok, err := e.latest()
		if err != nil {
			return err
		}
		if ok && prev.Rate != nil && prev.Rate.Sign() > 0 {
			diff := new(big.Int).Sub(proof.Rate, prev.Rate)
			if diff.Sign() < 0 {
				diff.Neg(diff)
			}
			threshold := new(big.Int).Mul(prev.Rate, big.NewInt(int64(e.guard.MaxDeviationBps)))
			threshold.Div(threshold, big.NewInt(10000))
			if diff.Cmp(threshold) > 0 {
				return ErrPriceUnavailable
			}
		}
	}

	if err := e.state.KVPut([]byte(latestRateKey), proof); err != nil {
		return err
	}
	e.emit(NewRateAcceptedEvent(proof.Rate, proof.Timestamp))
	return nil
}

func (e *Engine) latest() (*Proof, bool, error) {
	var proof Proof
	ok, err := e.state.KVGet([]byte(latestRateKey), &proof)
	if err != nil {
		return nil, false, err
	}
	return &proof, ok, nil
}

// GetDustToUsdRate returns the last accepted DUST/USD rate at RatePrecision,
// or ErrPriceUnavailable if no fresh proof has ever been accepted.
func (e *Engine) GetDustToUsdRate() (*big.Int, error) {
	proof, ok, err := e.latest()
	if err != nil {
		return nil, err
	}
	if !ok || proof.Rate == nil || proof.Rate.Sign() <= 0 {
		return nil, ErrPriceUnavailable
	}
	now := e.nowFn()
	if e.guard.MaxAgeSeconds > 0 && now-proof.Timestamp > e.guard.MaxAgeSeconds {
		return nil, ErrPriceUnavailable
	}
	return new(big.Int).Set(proof.Rate), nil
}

// GetDustMarketPriceWeighted returns the same accepted rate; the runtime
// keeps a single accepted observation rather than a multi-source weighted
// average, matching the teacher's single-feed-per-pair storage model.
func (e *Engine) GetDustMarketPriceWeighted() (*big.Int, error) {
	return e.GetDustToUsdRate()
}
