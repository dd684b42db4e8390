// Package bridge implements the DUST<->USDT bridge: a governance-operated
// official flow and a maker-mediated flow sharing one swap id counter
// (spec §4.4).
package bridge

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"stardust/core/events"
	"stardust/core/types"
	"stardust/native/maker"
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	KVAppend(key []byte, value []byte) error
	KVRemoveFromList(key []byte, value []byte) error
	KVGetList(key []byte, out interface{}) error
}

// escrowPort is the narrow slice of the escrow engine bridge depends on.
type escrowPort interface {
	LockFrom(payer types.AccountID, escrowID []byte, amount *big.Int) error
	ReleaseAll(escrowID []byte, beneficiary types.AccountID) error
	RefundAll(escrowID []byte, payer types.AccountID) error
}

// makerPort is the narrow slice of the market-maker registry bridge depends on.
type makerPort interface {
	Get(id uint64) (*maker.Application, error)
}

// pricingPort is the narrow slice of the pricing oracle bridge depends on.
type pricingPort interface {
	GetDustToUsdRate() (*big.Int, error)
}

// creditPort is the narrow slice of the credit ledger bridge depends on.
type creditPort interface {
	ReportSwapTimeout(id types.AccountID) error
	ReportSwapCompleted(id types.AccountID, responseTimeSeconds int64) error
}

const (
	nextSwapIDKey  = "bridge/next_id"
	pendingListKey = "bridge/pending_ids"
	usedTronPrefix = "bridge/used_tron/"
)

// DecisionOutcome mirrors arbitration's tagged decision sum applied to a
// disputed swap (spec §4.5).
type DecisionOutcome uint8

const (
	DecisionRelease DecisionOutcome = iota
	DecisionRefund
	DecisionPartial
)

// Decision is the arbitration outcome applied to a UserReported swap.
type Decision struct {
	Outcome    DecisionOutcome
	PartialBps uint32
}

func swapKey(id uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return append([]byte("bridge/swap/"), buf[:]...)
}

func escrowIDFor(swapID uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], swapID)
	return append([]byte("bridge-swap-"), buf[:]...)
}

func tronTxKey(hash string) []byte {
	return append([]byte(usedTronPrefix), []byte(hash)...)
}

// BridgeAccount is the module-owned account official swaps release dust
// into, modeling a burn until an explicit burn primitive exists (spec §4.4).
var bridgeAccount = deriveBridgeAccount()

func deriveBridgeAccount() types.AccountID {
	h := crypto.Keccak256([]byte("stardust/bridge/account"))
	var out types.AccountID
	copy(out[:], h)
	return out
}

// BridgeAccount returns the module-owned destination account for official
// swap completions.
func BridgeAccount() types.AccountID {
	return bridgeAccount
}

// Engine implements both bridge flows over a configured state backend.
type Engine struct {
	state   engineState
	emitter events.Emitter
	params  Params
	nowFn   func() types.BlockNumber

	escrow  escrowPort
	maker   makerPort
	pricing pricingPort
	credit  creditPort
}

// NewEngine builds an Engine with DefaultParams and a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		params:  DefaultParams(),
		nowFn:   func() types.BlockNumber { return 0 },
	}
}

func (e *Engine) SetState(state engineState)            { e.state = state }
func (e *Engine) SetParams(p Params)                     { e.params = p }
func (e *Engine) SetNowFunc(now func() types.BlockNumber) { e.nowFn = now }
func (e *Engine) SetEscrow(p escrowPort)                  { e.escrow = p }
func (e *Engine) SetMaker(p makerPort)                    { e.maker = p }
func (e *Engine) SetPricing(p pricingPort)                { e.pricing = p }
func (e *Engine) SetCredit(p creditPort)                  { e.credit = p }

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

func (e *Engine) nextID() (uint64, error) {
	var next uint64
	ok, err := e.state.KVGet([]byte(nextSwapIDKey), &next)
	if err != nil {
		return 0, err
	}
	if !ok {
		next = 1
	}
	if err := e.state.KVPut([]byte(nextSwapIDKey), next+1); err != nil {
		return 0, err
	}
	return next, nil
}

func (e *Engine) load(id uint64) (*Swap, error) {
	var swap Swap
	ok, err := e.state.KVGet(swapKey(id), &swap)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	swap.EnsureDefaults()
	return &swap, nil
}

func (e *Engine) save(swap *Swap) error {
	return e.state.KVPut(swapKey(swap.ID), swap)
}

// Swap opens an official, governance-operated bridge request: dust is
// locked via escrow under the swap id, with a snapshot of the current
// price and a fixed expiry.
func (e *Engine) Swap(user types.AccountID, dustAmount *big.Int, tronAddress string) (*Swap, error) {
	if err := e.checkSwapQuota(user); err != nil {
		return nil, err
	}
	price, err := e.pricing.GetDustToUsdRate()
	if err != nil {
		return nil, ErrPriceUnavailable
	}
	id, err := e.nextID()
	if err != nil {
		return nil, err
	}
	if err := e.escrow.LockFrom(user, escrowIDFor(id), dustAmount); err != nil {
		return nil, err
	}
	now := e.nowFn()
	swap := &Swap{
		ID:          id,
		Kind:        KindOfficial,
		User:        user,
		DustAmount:  new(big.Int).Set(dustAmount),
		PriceUSDT:   new(big.Int).Set(price),
		TronAddress: tronAddress,
		Status:        StatusPending,
		CreatedAt:     now,
		ExpireAt:      now + e.params.SwapTimeoutBlocks,
		CorrelationID: uuid.New().String(),
	}
	if err := e.save(swap); err != nil {
		return nil, err
	}
	e.emit(NewSwapLockedEvent(id))
	return swap, nil
}

// CompleteSwap is called by governance once USDT has been dispatched
// off-chain; it releases the locked dust to the bridge account, modeling a
// burn.
func (e *Engine) CompleteSwap(id uint64) (*Swap, error) {
	swap, err := e.load(id)
	if err != nil {
		return nil, err
	}
	if swap.Kind != KindOfficial {
		return nil, ErrWrongKind
	}
	if swap.Status != StatusPending {
		return nil, ErrWrongStatus
	}
	if err := e.escrow.ReleaseAll(escrowIDFor(id), bridgeAccount); err != nil {
		return nil, err
	}
	swap.Status = StatusCompleted
	swap.Completed = true
	if err := e.save(swap); err != nil {
		return nil, err
	}
	e.emit(NewSwapCompletedEvent(id))
	return swap, nil
}

// MakerSwap opens a maker-mediated swap: dust is locked from the buyer,
// and the maker takes on an off-chain obligation to pay USDT within the
// reconciliation window.
func (e *Engine) MakerSwap(user types.AccountID, makerID uint64, dustAmount *big.Int, usdtAddress string) (*Swap, error) {
	app, err := e.maker.Get(makerID)
	if err != nil {
		return nil, err
	}
	if app.Status != maker.StatusActive {
		return nil, ErrMakerNotActive
	}
	price, err := e.pricing.GetDustToUsdRate()
	if err != nil {
		return nil, ErrPriceUnavailable
	}
	usdtAmount := new(big.Int).Mul(dustAmount, price)
	usdtAmount.Div(usdtAmount, types.UNIT)
	if usdtAmount.Cmp(e.params.MinUSDTAmount) < 0 {
		return nil, ErrBelowMinUSDTAmount
	}
	id, err := e.nextID()
	if err != nil {
		return nil, err
	}
	if err := e.escrow.LockFrom(user, escrowIDFor(id), dustAmount); err != nil {
		return nil, err
	}
	now := e.nowFn()
	swap := &Swap{
		ID:          id,
		Kind:        KindMakerMediated,
		User:        user,
		MakerID:     makerID,
		DustAmount:  new(big.Int).Set(dustAmount),
		USDTAmount:  usdtAmount,
		PriceUSDT:   new(big.Int).Set(price),
		TronAddress: usdtAddress,
		Status:        StatusPending,
		CreatedAt:     now,
		TimeoutAt:     now + e.params.OcwSwapTimeoutBlocks,
		CorrelationID: uuid.New().String(),
	}
	if err := e.save(swap); err != nil {
		return nil, err
	}
	if err := e.state.KVAppend([]byte(pendingListKey), swapKey(id)); err != nil {
		return nil, err
	}
	e.emit(NewSwapLockedEvent(id))
	return swap, nil
}

// MarkSwapComplete is the maker's self-service confirmation that USDT was
// sent off-chain. trc20TxHash is enforced unique across all swaps
// (replay-protection invariant, spec §8).
func (e *Engine) MarkSwapComplete(caller types.AccountID, id uint64, trc20TxHash string) (*Swap, error) {
	swap, err := e.load(id)
	if err != nil {
		return nil, err
	}
	if swap.Kind != KindMakerMediated {
		return nil, ErrWrongKind
	}
	app, err := e.maker.Get(swap.MakerID)
	if err != nil {
		return nil, err
	}
	if app.Owner != caller {
		return nil, ErrUnauthorized
	}
	if swap.Status != StatusPending {
		return nil, ErrWrongStatus
	}
	var used bool
	if ok, err := e.state.KVGet(tronTxKey(trc20TxHash), &used); err != nil {
		return nil, err
	} else if ok && used {
		return nil, ErrTronTxHashAlreadyUsed
	}
	if err := e.state.KVPut(tronTxKey(trc20TxHash), true); err != nil {
		return nil, err
	}
	if err := e.escrow.ReleaseAll(escrowIDFor(id), app.Owner); err != nil {
		return nil, err
	}
	swap.Status = StatusCompleted
	swap.TRC20TxHash = trc20TxHash
	if err := e.save(swap); err != nil {
		return nil, err
	}
	if err := e.state.KVRemoveFromList([]byte(pendingListKey), swapKey(id)); err != nil {
		return nil, err
	}
	if e.credit != nil {
		blocksElapsed := int64(e.nowFn() - swap.CreatedAt)
		e.credit.ReportSwapCompleted(app.Owner, blocksElapsed*e.params.BlockTimeSeconds)
	}
	e.emit(NewSwapCompletedEvent(id))
	return swap, nil
}

// ReportSwap lets the buyer escalate a Pending or Completed maker-mediated
// swap into arbitration.
func (e *Engine) ReportSwap(caller types.AccountID, id uint64) (*Swap, error) {
	swap, err := e.load(id)
	if err != nil {
		return nil, err
	}
	if swap.Kind != KindMakerMediated {
		return nil, ErrWrongKind
	}
	if swap.User != caller {
		return nil, ErrUnauthorized
	}
	if swap.Status != StatusPending && swap.Status != StatusCompleted {
		return nil, ErrWrongStatus
	}
	swap.Status = StatusUserReported
	if err := e.save(swap); err != nil {
		return nil, err
	}
	if err := e.state.KVRemoveFromList([]byte(pendingListKey), swapKey(id)); err != nil {
		return nil, err
	}
	e.emit(NewSwapUserReportedEvent(id))
	return swap, nil
}

// ApplyArbitrationDecision resolves a UserReported swap.
func (e *Engine) ApplyArbitrationDecision(id uint64, decision Decision) error {
	swap, err := e.load(id)
	if err != nil {
		return err
	}
	if swap.Status != StatusUserReported {
		return ErrWrongStatus
	}
	app, err := e.maker.Get(swap.MakerID)
	if err != nil {
		return err
	}
	// A swap reported while still Pending has no TRC20 hash and its dust is
	// still in escrow; a Completed swap was paid out by MarkSwapComplete.
	pendingEscrow := swap.TRC20TxHash == ""
	switch decision.Outcome {
	case DecisionRelease:
		// Release favors the maker: still-escrowed dust goes to the
		// maker's owner.
		if pendingEscrow {
			if err := e.escrow.ReleaseAll(escrowIDFor(id), app.Owner); err != nil {
				return err
			}
		}
		swap.Status = StatusArbitrationApproved
	case DecisionRefund, DecisionPartial:
		// Partial is handled as a full refund. Still-escrowed dust is
		// refunded to the buyer; dust already released to the maker by
		// MarkSwapComplete is not reclaimed.
		if pendingEscrow {
			if err := e.escrow.RefundAll(escrowIDFor(id), swap.User); err != nil {
				return err
			}
		}
		swap.Status = StatusArbitrationRejected
		if e.credit != nil {
			_ = e.credit.ReportSwapTimeout(app.Owner)
		}
	}
	e.emit(NewArbitrationAppliedEvent(id))
	return e.save(swap)
}

// ReconcileTimeouts scans pending maker-mediated swaps, refunding the
// buyer and reporting a timeout to credit for any whose timeout_at has
// been reached (spec §4.4 OCW hook). The runtime calls it from its on_idle
// hook, and it writes swap state directly rather than through a signed call.
func (e *Engine) ReconcileTimeouts(now types.BlockNumber) (int, error) {
	var keys [][]byte
	if err := e.state.KVGetList([]byte(pendingListKey), &keys); err != nil {
		return 0, err
	}
	refunded := 0
	remaining := make([][]byte, 0, len(keys))
	for _, key := range keys {
		if refunded >= e.params.ReconcileSweepBudget {
			remaining = append(remaining, key)
			continue
		}
		var swap Swap
		ok, err := e.state.KVGet(key, &swap)
		if err != nil || !ok {
			continue
		}
		swap.EnsureDefaults()
		if swap.Status != StatusPending || now < swap.TimeoutAt {
			remaining = append(remaining, key)
			continue
		}
		if err := e.escrow.RefundAll(escrowIDFor(swap.ID), swap.User); err != nil {
			remaining = append(remaining, key)
			continue
		}
		swap.Status = StatusRefunded
		if err := e.state.KVPut(key, &swap); err != nil {
			return refunded, err
		}
		if e.credit != nil {
			if app, err := e.maker.Get(swap.MakerID); err == nil {
				_ = e.credit.ReportSwapTimeout(app.Owner)
			}
		}
		e.emit(NewSwapRefundedEvent(swap.ID))
		refunded++
	}
	if err := e.state.KVPut([]byte(pendingListKey), remaining); err != nil {
		return refunded, err
	}
	return refunded, nil
}

// Get returns the swap record for id.
func (e *Engine) Get(id uint64) (*Swap, error) {
	return e.load(id)
}
