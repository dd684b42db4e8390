package affiliate

import (
	"math/big"

	"stardust/core/events"
	"stardust/core/types"
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	Debit(from types.AccountID, amount *big.Int) error
	Credit(to types.AccountID, amount *big.Int) error
	GetAccount(id types.AccountID) (*types.Account, error)
}

// pricingPort is the narrow slice of the pricing oracle affiliate depends on.
type pricingPort interface {
	GetDustToUsdRate() (*big.Int, error)
}

func sponsorKey(account types.AccountID) []byte {
	return append([]byte("affiliate/sponsor/"), account.Bytes()...)
}

func membershipKey(account types.AccountID) []byte {
	return append([]byte("affiliate/membership/"), account.Bytes()...)
}

func pendingKey(account types.AccountID) []byte {
	return append([]byte("affiliate/pending/"), account.Bytes()...)
}

const storedRateKey = "affiliate/stored_rate"

// Engine implements sponsor binding, referral distribution, and membership
// purchase/upgrade pricing.
type Engine struct {
	state   engineState
	emitter events.Emitter
	pricing pricingPort
	params  Params
	nowFn   func() types.BlockNumber
	pool    types.AccountID
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
func (e *Engine) SetPricing(p pricingPort)                { e.pricing = p }
func (e *Engine) SetNowFunc(now func() types.BlockNumber) { e.nowFn = now }
func (e *Engine) SetPool(id types.AccountID)              { e.pool = id }

// SetParams validates and applies a new percentage vector and its
// accompanying settlement configuration (governance origin only; the
// caller is responsible for checking that origin).
func (e *Engine) SetParams(p Params) error {
	if err := ValidatePercents(p.Percents); err != nil {
		return err
	}
	e.params = p
	return nil
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

// BindSponsor records caller's permanent, one-time sponsor binding.
func (e *Engine) BindSponsor(caller, sponsor types.AccountID) error {
	if caller == sponsor {
		return ErrSelfSponsor
	}
	var existing types.AccountID
	ok, err := e.state.KVGet(sponsorKey(caller), &existing)
	if err != nil {
		return err
	}
	if ok {
		return ErrSponsorAlreadyBound
	}
	if err := e.state.KVPut(sponsorKey(caller), sponsor); err != nil {
		return err
	}
	e.emit(NewSponsorBoundEvent(caller, sponsor))
	return nil
}

func (e *Engine) sponsorOf(account types.AccountID) (types.AccountID, bool, error) {
	var sponsor types.AccountID
	ok, err := e.state.KVGet(sponsorKey(account), &sponsor)
	if err != nil {
		return types.AccountID{}, false, err
	}
	return sponsor, ok, nil
}

// ancestorChain walks up to MaxChainDepth sponsors starting from account.
func (e *Engine) ancestorChain(account types.AccountID) ([]types.AccountID, error) {
	chain := make([]types.AccountID, 0, MaxChainDepth)
	current := account
	for i := 0; i < MaxChainDepth; i++ {
		sponsor, ok, err := e.sponsorOf(current)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		chain = append(chain, sponsor)
		current = sponsor
	}
	return chain, nil
}

func (e *Engine) loadMembership(account types.AccountID) (*Membership, bool, error) {
	var m Membership
	ok, err := e.state.KVGet(membershipKey(account), &m)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	m.EnsureDefaults()
	return &m, true, nil
}

func (e *Engine) saveMembership(m *Membership) error {
	return e.state.KVPut(membershipKey(m.Account), m)
}

// membershipValid reports whether account currently holds a non-expired,
// sufficiently-funded membership (spec §4.8 "Membership holding check").
func (e *Engine) membershipValid(account types.AccountID, now types.BlockNumber) (bool, error) {
	m, ok, err := e.loadMembership(account)
	if err != nil {
		return false, err
	}
	if !ok || now > m.ValidUntil {
		return false, nil
	}
	acct, err := e.state.GetAccount(account)
	if err != nil {
		return false, err
	}
	rate, err := e.currentRate()
	if err != nil || rate == nil || rate.Sign() <= 0 {
		return false, nil
	}
	holdingValueCents := new(big.Int).Mul(acct.Balance, rate)
	holdingValueCents.Mul(holdingValueCents, big.NewInt(100))
	holdingValueCents.Div(holdingValueCents, new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	return holdingValueCents.Cmp(new(big.Int).SetUint64(e.params.MinHoldingValueCents)) >= 0, nil
}

// currentRate returns the oracle's live rate, falling back to the last
// stored rate and finally to Params.FallbackRate (spec §4.8: "Falls back to
// a stored price, then a hardcoded default, if the oracle price is
// absent").
func (e *Engine) currentRate() (*big.Int, error) {
	if e.pricing != nil {
		if rate, err := e.pricing.GetDustToUsdRate(); err == nil && rate != nil && rate.Sign() > 0 {
			if err := e.state.KVPut([]byte(storedRateKey), rate); err != nil {
				return nil, err
			}
			return rate, nil
		}
	}
	var stored big.Int
	ok, err := e.state.KVGet([]byte(storedRateKey), &stored)
	if err != nil {
		return nil, err
	}
	if ok && stored.Sign() > 0 {
		return &stored, nil
	}
	if e.params.FallbackRate != nil && e.params.FallbackRate.Sign() > 0 {
		return e.params.FallbackRate, nil
	}
	return nil, ErrPriceUnavailable
}

// Distribute walks buyer's ancestor chain and pays percents[i] of amount to
// the i-th ancestor, skipping levels with no ancestor or whose ancestor
// holds no valid membership. Settlement mode decides instant transfer vs.
// weekly accrual per level.
func (e *Engine) Distribute(buyer types.AccountID, amount *big.Int) error {
	chain, err := e.ancestorChain(buyer)
	if err != nil {
		return err
	}
	now := e.nowFn()
	leftover := new(big.Int)
	for i, pct := range e.params.Percents {
		payout := new(big.Int).Mul(amount, big.NewInt(int64(pct)))
		payout.Div(payout, big.NewInt(10000))
		if payout.Sign() <= 0 {
			continue
		}
		if i >= len(chain) {
			leftover.Add(leftover, payout)
			continue
		}
		ancestor := chain[i]
		valid, err := e.membershipValid(ancestor, now)
		if err != nil {
			return err
		}
		if !valid {
			leftover.Add(leftover, payout)
			continue
		}
		instant := e.isInstantLevel(i)
		if instant {
			if err := e.payInstant(ancestor, i, payout); err != nil {
				return err
			}
		} else {
			if err := e.accrue(ancestor, i, payout); err != nil {
				return err
			}
		}
	}
	if leftover.Sign() > 0 && e.params.LeftoverPolicy == LeftoverBurn && e.pool != (types.AccountID{}) {
		if err := e.state.Debit(e.pool, leftover); err != nil {
			return err
		}
		e.emit(NewLeftoverBurnedEvent(buyer, leftover.String()))
	}
	return nil
}

func (e *Engine) isInstantLevel(level int) bool {
	switch e.params.Mode {
	case SettlementInstant:
		return true
	case SettlementWeekly:
		return false
	case SettlementHybrid:
		return level < int(e.params.HybridSplitLayer)
	default:
		return false
	}
}

func (e *Engine) payInstant(ancestor types.AccountID, level int, amount *big.Int) error {
	if e.pool != (types.AccountID{}) {
		if err := e.state.Debit(e.pool, amount); err != nil {
			return err
		}
	}
	if err := e.state.Credit(ancestor, amount); err != nil {
		return err
	}
	e.emit(NewPayoutInstantEvent(ancestor, level, amount.String()))
	return nil
}

func (e *Engine) accrue(ancestor types.AccountID, level int, amount *big.Int) error {
	var p PendingBalances
	ok, err := e.state.KVGet(pendingKey(ancestor), &p)
	if err != nil {
		return err
	}
	if !ok {
		p = PendingBalances{Account: ancestor}
	}
	p.EnsureDefaults()
	p.Levels[level].Add(p.Levels[level], amount)
	if err := e.state.KVPut(pendingKey(ancestor), p); err != nil {
		return err
	}
	e.emit(NewPayoutAccruedEvent(ancestor, level, amount.String()))
	return nil
}

// Get returns account's membership record.
func (e *Engine) Get(account types.AccountID) (*Membership, error) {
	m, ok, err := e.loadMembership(account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMembershipNotFound
	}
	return m, nil
}

// PendingOf returns account's accrued weekly pending balances.
func (e *Engine) PendingOf(account types.AccountID) (*PendingBalances, error) {
	var p PendingBalances
	ok, err := e.state.KVGet(pendingKey(account), &p)
	if err != nil {
		return nil, err
	}
	if !ok {
		p = PendingBalances{Account: account}
	}
	p.EnsureDefaults()
	return &p, nil
}

// SettleWeekly pays out account's full pending balance if now is a weekly
// settlement boundary (now % WeeklyPeriodBlocks == 0).
func (e *Engine) SettleWeekly(account types.AccountID, now types.BlockNumber) error {
	if e.params.WeeklyPeriodBlocks == 0 || now%e.params.WeeklyPeriodBlocks != 0 {
		return ErrNotDueYet
	}
	p, err := e.PendingOf(account)
	if err != nil {
		return err
	}
	total := p.Total()
	if total.Sign() <= 0 {
		return nil
	}
	if e.pool != (types.AccountID{}) {
		if err := e.state.Debit(e.pool, total); err != nil {
			return err
		}
	}
	if err := e.state.Credit(account, total); err != nil {
		return err
	}
	for i := range p.Levels {
		p.Levels[i] = new(big.Int)
	}
	if err := e.state.KVPut(pendingKey(account), p); err != nil {
		return err
	}
	e.emit(NewWeeklySettledEvent(account, total.String()))
	return nil
}

// convertUSDToDust applies spec §4.8's needed_dust = (usdt_price × UNIT) /
// dust_market_price; both usdMicro and the oracle rate are carried at 10^6
// precision, so the scale cancels without an explicit factor.
func (e *Engine) convertUSDToDust(usdMicro *big.Int) (*big.Int, error) {
	rate, err := e.currentRate()
	if err != nil {
		return nil, err
	}
	dust := new(big.Int).Mul(usdMicro, types.UNIT)
	dust.Div(dust, rate)
	return dust, nil
}

// PurchaseMembership debits buyer the DUST-equivalent of level's USD target
// price, distributes it through the referral chain, bumps buyer's direct
// sponsor's bonus generations, and records the new membership.
func (e *Engine) PurchaseMembership(buyer types.AccountID, level MembershipLevel) (*Membership, error) {
	if !level.valid() {
		return nil, ErrInvalidLevel
	}
	priceUSD := e.params.TargetPriceUSDMicro[level]
	dustAmount, err := e.convertUSDToDust(priceUSD)
	if err != nil {
		return nil, err
	}
	if err := e.state.Debit(buyer, dustAmount); err != nil {
		return nil, err
	}
	if e.pool != (types.AccountID{}) {
		if err := e.state.Credit(e.pool, dustAmount); err != nil {
			return nil, err
		}
	}
	if err := e.Distribute(buyer, dustAmount); err != nil {
		return nil, err
	}

	now := e.nowFn()
	m := &Membership{
		Account:     buyer,
		Level:       level,
		ValidUntil:  now + types.BlockNumber(level.Years()*YearBlocks),
		TotalPaidIn: new(big.Int).Set(dustAmount),
	}
	if err := e.saveMembership(m); err != nil {
		return nil, err
	}

	if sponsor, ok, err := e.sponsorOf(buyer); err == nil && ok {
		if err := e.bumpBonusGenerations(sponsor); err != nil {
			return nil, err
		}
	}

	e.emit(NewMembershipPurchasedEvent(buyer, level, dustAmount.String()))
	return m, nil
}

func (e *Engine) bumpBonusGenerations(account types.AccountID) error {
	m, ok, err := e.loadMembership(account)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if m.Level == LevelY10 {
		return nil
	}
	if m.Level.BaseGenerations()+m.BonusGenerations < MaxChainDepth {
		m.BonusGenerations++
	}
	return e.saveMembership(m)
}

// UpgradeToY10 upgrades an existing membership to Y10, charging the USD
// price difference plus a governance-set service fee.
func (e *Engine) UpgradeToY10(account types.AccountID) (*Membership, error) {
	m, ok, err := e.loadMembership(account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMembershipNotFound
	}
	if m.Level == LevelY10 {
		return nil, ErrAlreadyY10
	}
	diff := new(big.Int).Sub(e.params.TargetPriceUSDMicro[LevelY10], e.params.TargetPriceUSDMicro[m.Level])
	if diff.Sign() < 0 {
		diff = new(big.Int)
	}
	fee := new(big.Int).Mul(diff, big.NewInt(int64(e.params.UpgradeServiceFeeBps)))
	fee.Div(fee, big.NewInt(10000))
	totalUSD := new(big.Int).Add(diff, fee)

	dustAmount, err := e.convertUSDToDust(totalUSD)
	if err != nil {
		return nil, err
	}
	if err := e.state.Debit(account, dustAmount); err != nil {
		return nil, err
	}
	if e.pool != (types.AccountID{}) {
		if err := e.state.Credit(e.pool, dustAmount); err != nil {
			return nil, err
		}
	}
	if err := e.Distribute(account, dustAmount); err != nil {
		return nil, err
	}

	m.Level = LevelY10
	m.BonusGenerations = 0
	m.TotalPaidIn = new(big.Int).Add(m.TotalPaidIn, dustAmount)
	now := e.nowFn()
	m.ValidUntil = now + types.BlockNumber(LevelY10.Years()*YearBlocks)
	if err := e.saveMembership(m); err != nil {
		return nil, err
	}
	e.emit(NewMembershipUpgradedEvent(account, dustAmount.String()))
	return m, nil
}
