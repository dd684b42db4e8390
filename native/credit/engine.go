// Package credit implements the unified credit-score ledger consulted by
// the market-maker, OTC order, and bridge modules (spec §1).
package credit

import (
	"stardust/core/events"
	"stardust/core/types"
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

func scoreKey(id types.AccountID) []byte {
	return append([]byte("credit/"), id.Bytes()...)
}

// Engine tracks and adjusts per-account credit scores.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

// NewEngine builds an Engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

func (e *Engine) SetState(state engineState) { e.state = state }

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

// Get returns the current score record for id, zero-valued if none exists.
func (e *Engine) Get(id types.AccountID) (Score, error) {
	var score Score
	_, err := e.state.KVGet(scoreKey(id), &score)
	if err != nil {
		return Score{}, err
	}
	return score, nil
}

func (e *Engine) adjust(id types.AccountID, delta int64, apply func(*Score)) error {
	score, err := e.Get(id)
	if err != nil {
		return err
	}
	score.Value += delta
	if apply != nil {
		apply(&score)
	}
	score.Clamp()
	if err := e.state.KVPut(scoreKey(id), score); err != nil {
		return err
	}
	e.emit(NewScoreAdjustedEvent(id, delta, score.Value))
	return nil
}

// ReportOrderCompleted rewards both parties of a successfully released OTC order.
func (e *Engine) ReportOrderCompleted(id types.AccountID) error {
	return e.adjust(id, DeltaOrderCompleted, func(s *Score) { s.Completed++ })
}

// ReportBuyerNeglect penalizes a buyer whose order expired unpaid.
func (e *Engine) ReportBuyerNeglect(id types.AccountID) error {
	return e.adjust(id, DeltaBuyerNeglect, func(s *Score) { s.Neglected++ })
}

// ReportDisputeLost penalizes the losing side of an arbitration decision.
func (e *Engine) ReportDisputeLost(id types.AccountID) error {
	return e.adjust(id, DeltaDisputeLost, func(s *Score) { s.DisputesLost++ })
}

// ReportSwapTimeout penalizes a maker whose swap timed out unresolved.
func (e *Engine) ReportSwapTimeout(id types.AccountID) error {
	return e.adjust(id, DeltaSwapTimeout, func(s *Score) { s.Timeouts++ })
}

// ReportSwapCompleted rewards a maker for a swap completed within its
// window. responseTimeSeconds is recorded for observability but does not
// currently affect the score delta.
func (e *Engine) ReportSwapCompleted(id types.AccountID, responseTimeSeconds int64) error {
	return e.adjust(id, DeltaSwapCompleted, func(s *Score) { s.Completed++ })
}
