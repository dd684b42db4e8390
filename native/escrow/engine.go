// Package escrow implements the lock/release/refund custody primitive
// underlying every multi-party flow in the runtime (spec §4.1). It exposes
// no user-facing dispatchables; only internal interfaces invoked by other
// native modules.
package escrow

import (
	"math/big"

	"stardust/core/events"
	"stardust/core/types"
)

// engineState is the narrow surface Engine needs from core/state.Manager:
// generic KV storage for escrow entries plus balance movement for custody.
type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	Debit(from types.AccountID, amount *big.Int) error
	Credit(to types.AccountID, amount *big.Int) error
}

func entryKey(escrowID []byte) []byte {
	return append([]byte("escrow/"), escrowID...)
}

// Engine implements the escrow primitive over a configured state backend.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

// NewEngine builds an Engine with a no-op emitter; call SetEmitter to wire a
// real sink.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the backing store. Must be called before use.
func (e *Engine) SetState(state engineState) {
	e.state = state
}

// SetEmitter configures where emitted events are delivered.
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

// LockFrom transfers amount from payer's free balance into custody keyed by
// escrowID. Fails if escrowID is already in use, amount is zero, or the
// debit would violate the existential deposit.
func (e *Engine) LockFrom(payer types.AccountID, escrowID []byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	var existing Entry
	ok, err := e.state.KVGet(entryKey(escrowID), &existing)
	if err != nil {
		return err
	}
	if ok {
		return ErrExists
	}
	if err := e.state.Debit(payer, amount); err != nil {
		return ErrInsufficientBalance
	}
	entry := &Entry{
		EscrowID: append([]byte(nil), escrowID...),
		Payer:    payer,
		Amount:   new(big.Int).Set(amount),
		Status:   StatusLocked,
	}
	if err := e.state.KVPut(entryKey(escrowID), entry); err != nil {
		return err
	}
	e.emit(NewLockedEvent(escrowID, payer, amount))
	return nil
}

// ReleaseAll moves the full custody balance to beneficiary and destroys the
// entry. A second call against the same id returns ErrNotFound.
func (e *Engine) ReleaseAll(escrowID []byte, beneficiary types.AccountID) error {
	entry, err := e.load(escrowID)
	if err != nil {
		return err
	}
	if err := e.state.Credit(beneficiary, entry.Amount); err != nil {
		return err
	}
	if err := e.state.KVDelete(entryKey(escrowID)); err != nil {
		return err
	}
	e.emit(NewReleasedEvent(escrowID, beneficiary, entry.Amount))
	return nil
}

// RefundAll returns the full custody balance to the original payer. payer
// must match the entry's recorded payer.
func (e *Engine) RefundAll(escrowID []byte, payer types.AccountID) error {
	entry, err := e.load(escrowID)
	if err != nil {
		return err
	}
	if entry.Payer != payer {
		return ErrBeneficiaryMismatch
	}
	if err := e.state.Credit(payer, entry.Amount); err != nil {
		return err
	}
	if err := e.state.KVDelete(entryKey(escrowID)); err != nil {
		return err
	}
	e.emit(NewRefundedEvent(escrowID, payer, entry.Amount))
	return nil
}

// Get returns the live entry for escrowID, or ErrNotFound.
func (e *Engine) Get(escrowID []byte) (*Entry, error) {
	return e.load(escrowID)
}

func (e *Engine) load(escrowID []byte) (*Entry, error) {
	var entry Entry
	ok, err := e.state.KVGet(entryKey(escrowID), &entry)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return &entry, nil
}
