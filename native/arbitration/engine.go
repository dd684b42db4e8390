// Package arbitration implements the dispute case lifecycle shared by every
// module that exposes ApplyArbitrationDecision (spec §4.5). The module
// never moves business funds itself beyond its own case fee; resolution is
// dispatched to the tagged module through a registered decision applier.
package arbitration

import (
	"encoding/binary"
	"math/big"

	"stardust/core/events"
	"stardust/core/types"
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

// escrowPort is the narrow slice of the escrow engine arbitration depends
// on for collecting and distributing case fees.
type escrowPort interface {
	LockFrom(payer types.AccountID, escrowID []byte, amount *big.Int) error
	ReleaseAll(escrowID []byte, beneficiary types.AccountID) error
	RefundAll(escrowID []byte, payer types.AccountID) error
}

// DecisionApplier routes a resolved decision to the module owning linkedID.
// Each native module implementing ApplyArbitrationDecision is wired in by
// the composer as one of these closures, keyed by ModuleTag.
type DecisionApplier func(linkedID uint64, decision Decision) error

const nextCaseIDKey = "arbitration/next_id"

func caseKey(id uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return append([]byte("arbitration/case/"), buf[:]...)
}

func feeEscrowIDFor(caseID uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], caseID)
	return append([]byte("arbitration-fee-"), buf[:]...)
}

// Engine implements the arbitration case FSM.
type Engine struct {
	state        engineState
	emitter      events.Emitter
	escrow       escrowPort
	params       Params
	nowFn        func() types.BlockNumber
	feeRecipient types.AccountID
	appliers     map[ModuleTag]DecisionApplier
}

// NewEngine builds an Engine with DefaultParams and a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter:  events.NoopEmitter{},
		params:   DefaultParams(),
		nowFn:    func() types.BlockNumber { return 0 },
		appliers: make(map[ModuleTag]DecisionApplier),
	}
}

func (e *Engine) SetState(state engineState)              { e.state = state }
func (e *Engine) SetEscrow(p escrowPort)                  { e.escrow = p }
func (e *Engine) SetParams(p Params)                      { e.params = p }
func (e *Engine) SetNowFunc(now func() types.BlockNumber) { e.nowFn = now }
func (e *Engine) SetFeeRecipient(id types.AccountID)      { e.feeRecipient = id }

// RegisterApplier wires the decision applier for a module tag. The composer
// calls this once per tagged module at startup.
func (e *Engine) RegisterApplier(tag ModuleTag, applier DecisionApplier) {
	if e.appliers == nil {
		e.appliers = make(map[ModuleTag]DecisionApplier)
	}
	e.appliers[tag] = applier
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

func (e *Engine) nextID() (uint64, error) {
	var next uint64
	ok, err := e.state.KVGet([]byte(nextCaseIDKey), &next)
	if err != nil {
		return 0, err
	}
	if !ok {
		next = 1
	}
	if err := e.state.KVPut([]byte(nextCaseIDKey), next+1); err != nil {
		return 0, err
	}
	return next, nil
}

func (e *Engine) load(id uint64) (*Case, error) {
	var c Case
	ok, err := e.state.KVGet(caseKey(id), &c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	c.EnsureDefaults()
	return &c, nil
}

func (e *Engine) save(c *Case) error {
	return e.state.KVPut(caseKey(c.ID), c)
}

// OpenCase escrows the case fee from the plaintiff and opens a new case
// against the given module tag and linked record id.
func (e *Engine) OpenCase(plaintiff, defendant types.AccountID, tag ModuleTag, linkedID uint64, evidenceCIDs []string, feeAmount *big.Int) (*Case, error) {
	if feeAmount == nil || feeAmount.Cmp(e.params.MinFeeAmount) < 0 {
		return nil, ErrFeeTooLow
	}
	id, err := e.nextID()
	if err != nil {
		return nil, err
	}
	if err := e.escrow.LockFrom(plaintiff, feeEscrowIDFor(id), feeAmount); err != nil {
		return nil, err
	}
	c := &Case{
		ID:           id,
		Plaintiff:    plaintiff,
		Defendant:    defendant,
		ModuleTag:    tag,
		LinkedID:     linkedID,
		EvidenceCIDs: append([]string(nil), evidenceCIDs...),
		Status:       StatusOpen,
		FeeAmount:    new(big.Int).Set(feeAmount),
		OpenedAt:     e.nowFn(),
	}
	if err := e.save(c); err != nil {
		return nil, err
	}
	e.emit(NewCaseOpenedEvent(id))
	return c, nil
}

// Resolve applies a decision to an open case: the tagged module's
// ApplyArbitrationDecision is invoked, then the case fee is released to
// the configured recipient and the case is closed.
func (e *Engine) Resolve(caseID uint64, decision Decision) (*Case, error) {
	if decision.Outcome == DecisionPartial && decision.PartialBps > 10_000 {
		return nil, ErrInvalidPartialBps
	}
	c, err := e.load(caseID)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusOpen {
		return nil, ErrWrongStatus
	}
	applier, ok := e.appliers[c.ModuleTag]
	if !ok {
		return nil, ErrUnknownModuleTag
	}
	if err := applier(c.LinkedID, decision); err != nil {
		return nil, err
	}
	if err := e.escrow.ReleaseAll(feeEscrowIDFor(caseID), e.feeRecipient); err != nil {
		return nil, err
	}
	decisionCopy := decision
	c.Decision = &decisionCopy
	c.Status = StatusClosed
	if err := e.save(c); err != nil {
		return nil, err
	}
	e.emit(NewCaseResolvedEvent(caseID))
	e.emit(NewCaseClosedEvent(caseID))
	return c, nil
}

// Get returns the case record for id.
func (e *Engine) Get(id uint64) (*Case, error) {
	return e.load(id)
}
