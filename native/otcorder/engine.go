// Package otcorder implements the OTC order lifecycle: creation (normal and
// first-purchase), payment signalling, release, buyer-initiated
// cancellation, the bounded expiry sweep, and arbitration-decision
// application (spec §4.3).
package otcorder

import (
	"encoding/binary"
	"math/big"

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

// escrowPort is the narrow slice of the escrow engine otcorder depends on.
type escrowPort interface {
	LockFrom(payer types.AccountID, escrowID []byte, amount *big.Int) error
	ReleaseAll(escrowID []byte, beneficiary types.AccountID) error
	RefundAll(escrowID []byte, payer types.AccountID) error
}

// makerPort is the narrow slice of the market-maker registry otcorder depends on.
type makerPort interface {
	Get(id uint64) (*maker.Application, error)
	RecordFirstPurchaseUsage(id uint64, amount *big.Int) error
	SelectAvailableMarketMaker(minAmount *big.Int) (*maker.Application, error)
}

// pricingPort is the narrow slice of the pricing oracle otcorder depends on.
type pricingPort interface {
	GetDustToUsdRate() (*big.Int, error)
}

// creditPort is the narrow slice of the credit ledger otcorder depends on.
type creditPort interface {
	ReportOrderCompleted(id types.AccountID) error
	ReportBuyerNeglect(id types.AccountID) error
	ReportDisputeLost(id types.AccountID) error
}

func orderKey(id uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return append([]byte("otc/order/"), buf[:]...)
}

func escrowIDFor(orderID uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], orderID)
	return append([]byte("otc-order-"), buf[:]...)
}

func firstPurchaseUsedKey(mmID uint64, buyer types.AccountID) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], mmID)
	return append(append([]byte("otc/fp_used/"), buf[:]...), buyer.Bytes()...)
}

func firstPurchaseConcurrentKey(mmID uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], mmID)
	return append([]byte("otc/fp_concurrent/"), buf[:]...)
}

const nextOrderIDKey = "otc/next_id"
const pendingIndexKey = "otc/pending_ids"

// ratePrecision mirrors native/pricing.RatePrecision: the fixed-point scale
// the pricing oracle's accepted rate is stored at.
var ratePrecision = big.NewInt(1_000_000)

// Engine implements the OTC order lifecycle.
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

func (e *Engine) SetState(state engineState)             { e.state = state }
func (e *Engine) SetParams(p Params)                      { e.params = p }
func (e *Engine) SetNowFunc(now func() types.BlockNumber)  { e.nowFn = now }
func (e *Engine) SetEscrow(p escrowPort)                   { e.escrow = p }
func (e *Engine) SetMaker(p makerPort)                      { e.maker = p }
func (e *Engine) SetPricing(p pricingPort)                  { e.pricing = p }
func (e *Engine) SetCredit(p creditPort)                    { e.credit = p }

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
	ok, err := e.state.KVGet([]byte(nextOrderIDKey), &next)
	if err != nil {
		return 0, err
	}
	if !ok {
		next = 1
	}
	if err := e.state.KVPut([]byte(nextOrderIDKey), next+1); err != nil {
		return 0, err
	}
	return next, nil
}

func (e *Engine) load(id uint64) (*Order, error) {
	var order Order
	ok, err := e.state.KVGet(orderKey(id), &order)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	order.EnsureDefaults()
	return &order, nil
}

func (e *Engine) save(order *Order) error {
	return e.state.KVPut(orderKey(order.ID), order)
}

// CreateOrder opens a normal order: dustAmount is locked from the maker's
// free balance into escrow keyed by the new order id.
func (e *Engine) CreateOrder(buyer types.AccountID, makerID uint64, dustAmount *big.Int, usdtAmount *big.Int, expireAt types.BlockNumber) (*Order, error) {
	if dustAmount == nil || dustAmount.Cmp(e.params.MinOrderSize) < 0 {
		return nil, ErrBelowMinOrderSize
	}
	app, err := e.maker.Get(makerID)
	if err != nil {
		return nil, err
	}
	id, err := e.nextID()
	if err != nil {
		return nil, err
	}
	if err := e.escrow.LockFrom(app.Owner, escrowIDFor(id), dustAmount); err != nil {
		return nil, err
	}
	order := &Order{
		ID: id, Buyer: buyer, MakerID: makerID,
		DustAmount: new(big.Int).Set(dustAmount),
		USDTAmount: new(big.Int).Set(usdtAmount),
		Status:     StatusPending,
		CreatedAt:  e.nowFn(),
		ExpireAt:   expireAt,
	}
	if err := e.save(order); err != nil {
		return nil, err
	}
	if err := e.state.KVAppend([]byte(pendingIndexKey), orderKey(id)); err != nil {
		return nil, err
	}
	e.emit(NewCreatedEvent(id))
	return order, nil
}

// CreateFirstPurchaseOrder opens a subsidized introductory order drawn from
// a selected maker's pool account (spec §4.3 "first-purchase").
func (e *Engine) CreateFirstPurchaseOrder(buyer types.AccountID, expireAt types.BlockNumber) (*Order, error) {
	rate, err := e.pricing.GetDustToUsdRate()
	if err != nil {
		return nil, err
	}
	// dust_amount = clamp((targetUSD * UNIT * ratePrecision) / rate, 100*UNIT, 10000*UNIT).
	// rate is DUST-to-USD scaled by the same 10^6 precision the pricing
	// oracle stores its proofs at.
	numerator := new(big.Int).Mul(e.params.FirstPurchaseTargetUSD, types.UNIT)
	numerator.Mul(numerator, ratePrecision)
	dustAmount := new(big.Int).Div(numerator, rate)
	if dustAmount.Cmp(e.params.FirstPurchaseMinDust) < 0 {
		dustAmount = new(big.Int).Set(e.params.FirstPurchaseMinDust)
	}
	if dustAmount.Cmp(e.params.FirstPurchaseMaxDust) > 0 {
		dustAmount = new(big.Int).Set(e.params.FirstPurchaseMaxDust)
	}

	app, err := e.maker.SelectAvailableMarketMaker(dustAmount)
	if err != nil {
		return nil, err
	}

	var used bool
	if ok, err := e.state.KVGet(firstPurchaseUsedKey(app.ID, buyer), &used); err != nil {
		return nil, err
	} else if ok && used {
		return nil, ErrAlreadyUsedFirstPurchase
	}

	var concurrent uint32
	_, _ = e.state.KVGet(firstPurchaseConcurrentKey(app.ID), &concurrent)
	if concurrent >= e.params.MaxConcurrentFirstPurchasePerMaker {
		return nil, ErrTooManyConcurrentFirstPurchase
	}

	id, err := e.nextID()
	if err != nil {
		return nil, err
	}
	if err := e.escrow.LockFrom(app.PoolAccount, escrowIDFor(id), dustAmount); err != nil {
		return nil, err
	}
	if err := e.maker.RecordFirstPurchaseUsage(app.ID, dustAmount); err != nil {
		return nil, err
	}
	if err := e.state.KVPut(firstPurchaseUsedKey(app.ID, buyer), true); err != nil {
		return nil, err
	}
	if err := e.state.KVPut(firstPurchaseConcurrentKey(app.ID), concurrent+1); err != nil {
		return nil, err
	}

	order := &Order{
		ID: id, Buyer: buyer, MakerID: app.ID,
		DustAmount:      dustAmount,
		USDTAmount:      new(big.Int),
		Status:          StatusPending,
		CreatedAt:       e.nowFn(),
		ExpireAt:        expireAt,
		IsFirstPurchase: true,
	}
	if err := e.save(order); err != nil {
		return nil, err
	}
	if err := e.state.KVAppend([]byte(pendingIndexKey), orderKey(id)); err != nil {
		return nil, err
	}
	e.emit(NewCreatedEvent(id))
	return order, nil
}

// decrementFirstPurchaseConcurrent releases order's hold on its maker's
// concurrent first-purchase slot. A no-op for non-first-purchase orders.
// Callers invoke this on every terminal transition (Release, CancelByBuyer,
// ExpireSweep, ApplyArbitrationDecision) so the counter tracks currently-live
// orders rather than a lifetime total.
func (e *Engine) decrementFirstPurchaseConcurrent(order *Order) error {
	if !order.IsFirstPurchase {
		return nil
	}
	var concurrent uint32
	if _, err := e.state.KVGet(firstPurchaseConcurrentKey(order.MakerID), &concurrent); err != nil {
		return err
	}
	if concurrent > 0 {
		concurrent--
	}
	return e.state.KVPut(firstPurchaseConcurrentKey(order.MakerID), concurrent)
}

// Pay signals fiat payment was sent off-chain; caller must be the buyer.
func (e *Engine) Pay(caller types.AccountID, id uint64) (*Order, error) {
	order, err := e.load(id)
	if err != nil {
		return nil, err
	}
	if order.Buyer != caller {
		return nil, ErrUnauthorized
	}
	if order.Status != StatusPending {
		return nil, ErrWrongStatus
	}
	order.Status = StatusPaid
	if err := e.save(order); err != nil {
		return nil, err
	}
	if err := e.state.KVRemoveFromList([]byte(pendingIndexKey), orderKey(id)); err != nil {
		return nil, err
	}
	e.emit(NewPaidEvent(id))
	return order, nil
}

// Release pays DUST out of escrow to the buyer; caller is the maker owner.
func (e *Engine) Release(id uint64) (*Order, error) {
	order, err := e.load(id)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusPaid {
		return nil, ErrWrongStatus
	}
	if err := e.escrow.ReleaseAll(escrowIDFor(id), order.Buyer); err != nil {
		return nil, err
	}
	order.Status = StatusReleased
	if err := e.save(order); err != nil {
		return nil, err
	}
	if err := e.decrementFirstPurchaseConcurrent(order); err != nil {
		return nil, err
	}
	if e.credit != nil {
		_ = e.credit.ReportOrderCompleted(order.Buyer)
	}
	e.emit(NewReleasedEvent(id))
	return order, nil
}

// CancelByBuyer cancels a Pending order and refunds escrow, buyer-only.
func (e *Engine) CancelByBuyer(caller types.AccountID, id uint64) (*Order, error) {
	order, err := e.load(id)
	if err != nil {
		return nil, err
	}
	if order.Buyer != caller {
		return nil, ErrUnauthorized
	}
	if order.Status != StatusPending {
		return nil, ErrWrongStatus
	}
	beneficiary, err := e.refundBeneficiary(order)
	if err != nil {
		return nil, err
	}
	if err := e.escrow.RefundAll(escrowIDFor(id), beneficiary); err != nil {
		return nil, err
	}
	order.Status = StatusCancelled
	if err := e.save(order); err != nil {
		return nil, err
	}
	if err := e.decrementFirstPurchaseConcurrent(order); err != nil {
		return nil, err
	}
	if err := e.state.KVRemoveFromList([]byte(pendingIndexKey), orderKey(id)); err != nil {
		return nil, err
	}
	e.emit(NewCancelledEvent(id))
	return order, nil
}

func (e *Engine) refundBeneficiary(order *Order) (types.AccountID, error) {
	if !order.IsFirstPurchase {
		app, err := e.maker.Get(order.MakerID)
		if err != nil {
			return types.AccountID{}, err
		}
		return app.Owner, nil
	}
	app, err := e.maker.Get(order.MakerID)
	if err != nil {
		return types.AccountID{}, err
	}
	return app.PoolAccount, nil
}

// Dispute forwards a Paid order into arbitration, transitioning it to
// Disputed. It takes only the order id; no arbitration case id is recorded.
func (e *Engine) Dispute(id uint64) (*Order, error) {
	order, err := e.load(id)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusPaid {
		return nil, ErrWrongStatus
	}
	order.Status = StatusDisputed
	if err := e.save(order); err != nil {
		return nil, err
	}
	e.emit(NewDisputedEvent(id))
	return order, nil
}

// ApplyArbitrationDecision drives escrow according to an arbitration
// decision and reports the outcome to credit (spec §4.3, §4.5).
func (e *Engine) ApplyArbitrationDecision(id uint64, decision Decision) error {
	order, err := e.load(id)
	if err != nil {
		return err
	}
	if order.Status != StatusDisputed {
		return ErrWrongStatus
	}
	beneficiary, err := e.refundBeneficiary(order)
	if err != nil {
		return err
	}
	switch decision.Outcome {
	case DecisionRelease:
		if err := e.escrow.ReleaseAll(escrowIDFor(id), order.Buyer); err != nil {
			return err
		}
		order.Status = StatusReleased
	case DecisionRefund:
		if err := e.escrow.RefundAll(escrowIDFor(id), beneficiary); err != nil {
			return err
		}
		order.Status = StatusCancelled
		if e.credit != nil {
			_ = e.credit.ReportDisputeLost(beneficiary)
		}
	case DecisionPartial:
		// split_partial is not implemented at the escrow layer (spec §9
		// Open Question 1); callers fall back to a full refund.
		if err := e.escrow.RefundAll(escrowIDFor(id), beneficiary); err != nil {
			return err
		}
		order.Status = StatusCancelled
	}
	if err := e.save(order); err != nil {
		return err
	}
	return e.decrementFirstPurchaseConcurrent(order)
}

// ExpireSweep scans up to the configured budget of Pending orders whose
// ExpireAt has been reached, refunding them and reporting buyer neglect.
func (e *Engine) ExpireSweep(now types.BlockNumber) (int, error) {
	var keys [][]byte
	if err := e.state.KVGetList([]byte(pendingIndexKey), &keys); err != nil {
		return 0, err
	}
	expired := 0
	remaining := make([][]byte, 0, len(keys))
	for _, key := range keys {
		if expired >= e.params.ExpireSweepBudget {
			remaining = append(remaining, key)
			continue
		}
		var order Order
		ok, err := e.state.KVGet(key, &order)
		if err != nil || !ok {
			continue
		}
		order.EnsureDefaults()
		if order.Status != StatusPending || now < order.ExpireAt {
			remaining = append(remaining, key)
			continue
		}
		beneficiary, err := e.refundBeneficiary(&order)
		if err != nil {
			remaining = append(remaining, key)
			continue
		}
		if err := e.escrow.RefundAll(escrowIDFor(order.ID), beneficiary); err != nil {
			remaining = append(remaining, key)
			continue
		}
		order.Status = StatusExpired
		if err := e.state.KVPut(key, &order); err != nil {
			return expired, err
		}
		if err := e.decrementFirstPurchaseConcurrent(&order); err != nil {
			return expired, err
		}
		if e.credit != nil {
			_ = e.credit.ReportBuyerNeglect(order.Buyer)
		}
		e.emit(NewExpiredEvent(order.ID))
		expired++
	}
	if err := e.state.KVPut([]byte(pendingIndexKey), remaining); err != nil {
		return expired, err
	}
	return expired, nil
}

// Get returns the order record for id.
func (e *Engine) Get(id uint64) (*Order, error) {
	return e.load(id)
}
