// Package maker implements the market-maker registry's bonded-deposit
// application state machine (spec §4.2).
package maker

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"stardust/core/events"
	"stardust/core/types"
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	KVAppend(key []byte, value []byte) error
	KVRemoveFromList(key []byte, value []byte) error
	KVGetList(key []byte, out interface{}) error
	Debit(from types.AccountID, amount *big.Int) error
	Credit(to types.AccountID, amount *big.Int) error
}

const (
	ownerIndexPrefix = "maker/owner/"
	activeListKey    = "maker/active_ids"
	nextIDKey        = "maker/next_id"
)

func appKey(id uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return append([]byte("maker/application/"), buf[:]...)
}

func ownerKey(owner types.AccountID) []byte {
	return append([]byte(ownerIndexPrefix), owner.Bytes()...)
}

func idBytes(id uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return buf[:]
}

// PoolAccount derives the per-maker pool account id, grounded on the
// teacher's PalletId-derived sub-account idiom (Keccak256 of a fixed tag
// plus the maker id rather than a random address).
func PoolAccount(id uint64) types.AccountID {
	h := crypto.Keccak256([]byte("stardust/maker/pool/"), idBytes(id))
	var out types.AccountID
	copy(out[:], h)
	return out
}

// Engine implements the market-maker application FSM.
type Engine struct {
	state   engineState
	emitter events.Emitter
	params  Params
	nowFn   func() types.BlockNumber
}

// NewEngine builds an Engine with DefaultParams and a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		params:  DefaultParams(),
		nowFn:   func() types.BlockNumber { return 0 },
	}
}

func (e *Engine) SetState(state engineState)              { e.state = state }
func (e *Engine) SetParams(p Params)                       { e.params = p }
func (e *Engine) SetNowFunc(now func() types.BlockNumber)  { e.nowFn = now }

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
	ok, err := e.state.KVGet([]byte(nextIDKey), &next)
	if err != nil {
		return 0, err
	}
	if !ok {
		next = 1
	}
	if err := e.state.KVPut([]byte(nextIDKey), next+1); err != nil {
		return 0, err
	}
	return next, nil
}

// LockDeposit opens a new application in DepositLocked for owner, who must
// not already hold an application.
func (e *Engine) LockDeposit(owner types.AccountID, amount *big.Int, infoDeadline types.BlockNumber) (*Application, error) {
	if amount == nil || amount.Cmp(e.params.MinDeposit) < 0 {
		return nil, ErrDepositTooLow
	}
	var existing uint64
	if ok, err := e.state.KVGet(ownerKey(owner), &existing); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyRegistered
	}
	if err := e.state.Debit(owner, amount); err != nil {
		return nil, err
	}
	id, err := e.nextID()
	if err != nil {
		return nil, err
	}
	app := &Application{
		ID:           id,
		Owner:        owner,
		Deposit:      new(big.Int).Set(amount),
		Status:       StatusDepositLocked,
		InfoDeadline: infoDeadline,
		PoolAccount:  PoolAccount(id),
	}
	app.EnsureDefaults()
	if err := e.state.KVPut(appKey(id), app); err != nil {
		return nil, err
	}
	if err := e.state.KVPut(ownerKey(owner), id); err != nil {
		return nil, err
	}
	e.emit(NewDepositLockedEvent(id, owner, amount))
	return app, nil
}

func (e *Engine) load(id uint64) (*Application, error) {
	var app Application
	ok, err := e.state.KVGet(appKey(id), &app)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	app.EnsureDefaults()
	return &app, nil
}

func (e *Engine) save(app *Application) error {
	return e.state.KVPut(appKey(app.ID), app)
}

func (e *Engine) destroy(app *Application) error {
	if err := e.state.KVDelete(appKey(app.ID)); err != nil {
		return err
	}
	return e.state.KVDelete(ownerKey(app.Owner))
}

// SubmitInfo moves a DepositLocked application to PendingReview.
func (e *Engine) SubmitInfo(caller types.AccountID, id uint64, publicCID, privateCID string, feeBps uint32, minAmount *big.Int, gateway, pid, key string, firstPurchasePool *big.Int, reviewDeadline types.BlockNumber) (*Application, error) {
	app, err := e.load(id)
	if err != nil {
		return nil, err
	}
	if app.Owner != caller {
		return nil, ErrUnauthorized
	}
	if app.Status != StatusDepositLocked {
		return nil, ErrWrongStatus
	}
	if e.nowFn() > app.InfoDeadline {
		return nil, ErrDeadlinePassed
	}
	app.PublicCID, app.PrivateCID = publicCID, privateCID
	app.FeeBps, app.MinAmount = feeBps, new(big.Int).Set(minAmount)
	app.EpayGateway, app.EpayPID, app.EpayKey = gateway, pid, key
	app.FirstPurchasePool = new(big.Int).Set(firstPurchasePool)
	app.ReviewDeadline = reviewDeadline
	app.Status = StatusPendingReview
	if err := e.save(app); err != nil {
		return nil, err
	}
	e.emit(NewInfoSubmittedEvent(id))
	return app, nil
}

// UpdateInfo edits a pending application before its current-stage deadline.
func (e *Engine) UpdateInfo(caller types.AccountID, id uint64, publicCID, privateCID string, feeBps uint32, minAmount *big.Int) (*Application, error) {
	app, err := e.load(id)
	if err != nil {
		return nil, err
	}
	if app.Owner != caller {
		return nil, ErrUnauthorized
	}
	switch app.Status {
	case StatusDepositLocked:
		if e.nowFn() > app.InfoDeadline {
			return nil, ErrDeadlinePassed
		}
	case StatusPendingReview:
		if e.nowFn() > app.ReviewDeadline {
			return nil, ErrDeadlinePassed
		}
	default:
		return nil, ErrWrongStatus
	}
	app.PublicCID, app.PrivateCID = publicCID, privateCID
	app.FeeBps, app.MinAmount = feeBps, new(big.Int).Set(minAmount)
	return app, e.save(app)
}

// Cancel withdraws a DepositLocked application, refunding the deposit.
func (e *Engine) Cancel(caller types.AccountID, id uint64) error {
	app, err := e.load(id)
	if err != nil {
		return err
	}
	if app.Owner != caller {
		return ErrUnauthorized
	}
	if app.Status != StatusDepositLocked {
		return ErrWrongStatus
	}
	if err := e.state.Credit(app.Owner, app.Deposit); err != nil {
		return err
	}
	if err := e.destroy(app); err != nil {
		return err
	}
	e.emit(NewCancelledEvent(id))
	return nil
}

// Expire unreserves and destroys an application past its current deadline.
func (e *Engine) Expire(id uint64) error {
	app, err := e.load(id)
	if err != nil {
		return err
	}
	now := e.nowFn()
	switch app.Status {
	case StatusDepositLocked:
		if now <= app.InfoDeadline {
			return ErrDeadlineNotReached
		}
	case StatusPendingReview:
		if now <= app.ReviewDeadline {
			return ErrDeadlineNotReached
		}
	default:
		return ErrWrongStatus
	}
	if err := e.state.Credit(app.Owner, app.Deposit); err != nil {
		return err
	}
	if err := e.destroy(app); err != nil {
		return err
	}
	e.emit(NewExpiredEvent(id))
	return nil
}

// Approve moves a PendingReview application to Active, funding its
// first-purchase pool account from the owner (spec §4.2 approval
// side-effects).
func (e *Engine) Approve(id uint64) (*Application, error) {
	app, err := e.load(id)
	if err != nil {
		return nil, err
	}
	if app.Status != StatusPendingReview {
		return nil, ErrWrongStatus
	}
	if app.EpayGateway == "" || app.EpayPID == "" || app.EpayKey == "" {
		return nil, ErrMissingEpayConfig
	}
	if app.FirstPurchasePool.Cmp(e.params.MinFirstPurchasePool) < 0 {
		return nil, ErrFirstPurchasePoolLow
	}
	if err := e.state.Debit(app.Owner, app.FirstPurchasePool); err != nil {
		return nil, err
	}
	if err := e.state.Credit(app.PoolAccount, app.FirstPurchasePool); err != nil {
		return nil, err
	}
	app.Status = StatusActive
	if err := e.save(app); err != nil {
		return nil, err
	}
	if err := e.state.KVAppend([]byte(activeListKey), idBytes(id)); err != nil {
		return nil, err
	}
	e.emit(NewApprovedEvent(id))
	e.emit(NewFirstPurchasePoolFundedEvent(id, app.PoolAccount, app.FirstPurchasePool))
	return app, nil
}

// Reject slashes up to slashBps of the deposit, refunds the remainder, and
// destroys the application.
func (e *Engine) Reject(id uint64, slashBps uint32) error {
	if slashBps > e.params.RejectSlashBpsMax {
		return ErrSlashBpsTooHigh
	}
	app, err := e.load(id)
	if err != nil {
		return err
	}
	if app.Status != StatusPendingReview {
		return ErrWrongStatus
	}
	slashed := new(big.Int).Mul(app.Deposit, big.NewInt(int64(slashBps)))
	slashed.Div(slashed, big.NewInt(10000))
	remainder := new(big.Int).Sub(app.Deposit, slashed)
	if remainder.Sign() > 0 {
		if err := e.state.Credit(app.Owner, remainder); err != nil {
			return err
		}
	}
	if err := e.destroy(app); err != nil {
		return err
	}
	e.emit(NewRejectedEvent(id, slashBps))
	return nil
}

// Get returns the application record for id.
func (e *Engine) Get(id uint64) (*Application, error) {
	return e.load(id)
}

// RecordFirstPurchaseUsage adds amount to the maker's first-purchase usage
// counter and counts one more user served, failing if usage would exceed
// the pool.
func (e *Engine) RecordFirstPurchaseUsage(id uint64, amount *big.Int) error {
	app, err := e.load(id)
	if err != nil {
		return err
	}
	used := new(big.Int).Add(app.FirstPurchaseUsed, amount)
	if used.Cmp(app.FirstPurchasePool) > 0 {
		return ErrFirstPurchaseDepleted
	}
	app.FirstPurchaseUsed = used
	app.UsersServed++
	return e.save(app)
}

// SelectAvailableMarketMaker returns the active maker with the largest
// remaining first-purchase pool headroom, tie-broken on the lowest mm_id.
func (e *Engine) SelectAvailableMarketMaker(minAmount *big.Int) (*Application, error) {
	var ids [][]byte
	if err := e.state.KVGetList([]byte(activeListKey), &ids); err != nil {
		return nil, err
	}
	var best *Application
	for _, raw := range ids {
		if len(raw) != 8 {
			continue
		}
		id := binary.BigEndian.Uint64(raw)
		app, err := e.load(id)
		if err != nil {
			continue
		}
		if app.Status != StatusActive {
			continue
		}
		headroom := new(big.Int).Sub(app.FirstPurchasePool, app.FirstPurchaseUsed)
		if headroom.Cmp(minAmount) < 0 {
			continue
		}
		if best == nil {
			best = app
			continue
		}
		bestHeadroom := new(big.Int).Sub(best.FirstPurchasePool, best.FirstPurchaseUsed)
		switch headroom.Cmp(bestHeadroom) {
		case 1:
			best = app
		case 0:
			if app.ID < best.ID {
				best = app
			}
		}
	}
	if best == nil {
		return nil, ErrNoAvailableMaker
	}
	return best, nil
}
