// Package executive sequences block application: inherents, then signed
// extrinsics through the CheckXxx extension pipeline, then per-block hooks
// (spec §2, §5). It is a much smaller replacement for the teacher's
// monolithic state-transition processor, scoped to this runtime's
// dispatchable surface.
package executive

import (
	"fmt"
	"log/slog"
	"math/big"

	"stardust/core/state"
	"stardust/core/types"
)

// Dispatcher routes a decoded Call to the owning native module.
type Dispatcher interface {
	Dispatch(origin types.AccountID, call types.Call) error
}

// Hook is a per-block lifecycle callback. OnIdle receives a remaining-weight
// budget so bounded sweep operations (e.g. otcorder's ExpireSweep) can cap
// their own work.
type Hooks struct {
	OnInitialize []func(mgr *state.Manager, height types.BlockNumber) error
	OnFinalize   []func(mgr *state.Manager, height types.BlockNumber) error
	OnIdle       []func(mgr *state.Manager, remainingWeight uint64) (consumedWeight uint64, err error)
	OffchainWorker []func(mgr *state.Manager, height types.BlockNumber)
}

// IdleWeightBudget bounds the total work on_idle hooks may perform in a
// single block.
const IdleWeightBudget uint64 = 1_000_000

// Executive owns the Manager, the dispatch table, and the hook registry.
type Executive struct {
	mgr        *state.Manager
	dispatcher Dispatcher
	hooks      Hooks
	log        *slog.Logger
}

// New builds an Executive. log defaults to slog.Default() when nil.
func New(mgr *state.Manager, dispatcher Dispatcher, hooks Hooks, log *slog.Logger) *Executive {
	if log == nil {
		log = slog.Default()
	}
	return &Executive{mgr: mgr, dispatcher: dispatcher, hooks: hooks, log: log}
}

// ApplyBlock runs the full initialize -> extrinsics -> finalize -> idle ->
// offchain-worker sequence for one block.
func (e *Executive) ApplyBlock(block *types.Block) error {
	height := block.Header.Number
	for _, hook := range e.hooks.OnInitialize {
		if err := hook(e.mgr, height); err != nil {
			return fmt.Errorf("executive: on_initialize: %w", err)
		}
	}
	for i, tx := range block.Extrinsics {
		if err := e.ApplyExtrinsic(tx, height); err != nil {
			return fmt.Errorf("executive: extrinsic %d: %w", i, err)
		}
	}
	for _, hook := range e.hooks.OnFinalize {
		if err := hook(e.mgr, height); err != nil {
			return fmt.Errorf("executive: on_finalize: %w", err)
		}
	}
	remaining := IdleWeightBudget
	for _, hook := range e.hooks.OnIdle {
		if remaining == 0 {
			break
		}
		consumed, err := hook(e.mgr, remaining)
		if err != nil {
			e.log.Error("executive: on_idle hook failed", "error", err)
			continue
		}
		if consumed > remaining {
			consumed = remaining
		}
		remaining -= consumed
	}
	for _, hook := range e.hooks.OffchainWorker {
		hook(e.mgr, height)
	}
	return nil
}

// ApplyExtrinsic runs the CheckXxx extension pipeline for tx and, if every
// check passes, dispatches its Call.
func (e *Executive) ApplyExtrinsic(tx *types.Transaction, height types.BlockNumber) error {
	origin, err := checkNonZeroSender(tx)
	if err != nil {
		return err
	}
	if err := checkSpecVersion(tx); err != nil {
		return err
	}
	if err := checkTxVersion(tx); err != nil {
		return err
	}
	if err := checkGenesis(tx); err != nil {
		return err
	}
	if err := checkEra(tx, height); err != nil {
		return err
	}
	if err := checkSignature(tx); err != nil {
		return err
	}
	acct, err := e.mgr.GetAccount(origin)
	if err != nil {
		return err
	}
	if err := checkNonce(tx, acct.Nonce); err != nil {
		return err
	}
	if err := checkWeight(tx); err != nil {
		return err
	}
	if err := e.chargeTransactionPayment(origin, tx); err != nil {
		return err
	}
	acct.Nonce++
	if err := e.mgr.PutAccount(origin, acct); err != nil {
		return err
	}
	snap, err := e.mgr.Snapshot()
	if err != nil {
		return fmt.Errorf("executive: snapshot: %w", err)
	}
	if err := e.dispatcher.Dispatch(origin, tx.Call); err != nil {
		e.mgr.Revert(snap)
		return fmt.Errorf("executive: dispatch: %w", err)
	}
	return nil
}

func checkNonZeroSender(tx *types.Transaction) (types.AccountID, error) {
	if tx.Sender.IsZero() {
		return types.AccountID{}, fmt.Errorf("executive: sender must not be zero")
	}
	return tx.Sender, nil
}

func checkSpecVersion(tx *types.Transaction) error {
	if tx.SpecVersion != types.SpecVersion {
		return fmt.Errorf("executive: unexpected spec version %d", tx.SpecVersion)
	}
	return nil
}

func checkTxVersion(tx *types.Transaction) error {
	if tx.TxVersion != types.TxVersion {
		return fmt.Errorf("executive: unexpected tx version %d", tx.TxVersion)
	}
	return nil
}

func checkGenesis(tx *types.Transaction) error {
	want := types.GenesisHash()
	if len(tx.Genesis) != len(want) {
		return fmt.Errorf("executive: genesis hash mismatch")
	}
	for i := range want {
		if tx.Genesis[i] != want[i] {
			return fmt.Errorf("executive: genesis hash mismatch")
		}
	}
	return nil
}

func checkEra(tx *types.Transaction, height types.BlockNumber) error {
	if tx.Era.Immortal() {
		return nil
	}
	if height < tx.Era.Birth || height >= tx.Era.Death {
		return fmt.Errorf("executive: transaction outside its mortal era")
	}
	return nil
}

// checkSignature recovers the signer's public key from tx and confirms it
// derives the claimed Sender account, closing the gap tx.From's own comment
// flags: recovery alone proves nothing without this comparison.
func checkSignature(tx *types.Transaction) error {
	pub, err := tx.From()
	if err != nil {
		return fmt.Errorf("executive: recover signer: %w", err)
	}
	signer, err := types.AccountIDFromPublicKey(pub)
	if err != nil {
		return fmt.Errorf("executive: derive signer account: %w", err)
	}
	if signer != tx.Sender {
		return fmt.Errorf("executive: signature does not match sender")
	}
	return nil
}

func checkNonce(tx *types.Transaction, expected uint64) error {
	if tx.Nonce != expected {
		return fmt.Errorf("executive: nonce mismatch: want %d got %d", expected, tx.Nonce)
	}
	return nil
}

// maxCallArgsWeight is a simple proxy for a full weight-annotation system:
// calls with oversized argument payloads are rejected rather than charged a
// computed weight (fee-weight vectors are an explicit non-goal).
const maxCallArgsWeight = 64 * 1024

func checkWeight(tx *types.Transaction) error {
	if len(tx.Call.Args) > maxCallArgsWeight {
		return fmt.Errorf("executive: call payload exceeds weight budget")
	}
	return nil
}

func (e *Executive) chargeTransactionPayment(origin types.AccountID, tx *types.Transaction) error {
	if tx.Tip == nil || tx.Tip.Sign() == 0 {
		return nil
	}
	if tx.Tip.Sign() < 0 {
		return fmt.Errorf("executive: negative tip")
	}
	acct, err := e.mgr.GetAccount(origin)
	if err != nil {
		return err
	}
	if acct.Balance.Cmp(tx.Tip) < 0 {
		return fmt.Errorf("executive: insufficient balance for tip")
	}
	acct.Balance = new(big.Int).Sub(acct.Balance, tx.Tip)
	return e.mgr.PutAccount(origin, acct)
}
