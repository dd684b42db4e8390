package storagecoord

import (
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/time/rate"

	"stardust/core/events"
	"stardust/core/types"
	nativecommon "stardust/native/common"
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	KVAppend(key []byte, value []byte) error
	KVRemoveFromList(key []byte, value []byte) error
	KVGetList(key []byte, out interface{}) error
	GetAccount(id types.AccountID) (*types.Account, error)
	Debit(from types.AccountID, amount *big.Int) error
	Credit(to types.AccountID, amount *big.Int) error
}

// subjectOwnerPort resolves ownership for the subject-scoped (deceased)
// pin flow.
type subjectOwnerPort interface {
	OwnerOf(subjectID uint64) (types.AccountID, error)
}

// cidResolverPort maps a cid_hash to its plaintext CID from off-chain local
// storage; unresolved hashes fall back to a redacted placeholder.
type cidResolverPort interface {
	Resolve(cidHash [32]byte) (string, bool)
}

// pinClusterPort abstracts the external pin cluster's HTTP surface: POST
// /pins to request pinning, and a status probe that normalizes the
// cluster's peer_map/allocations response into a presence set keyed by
// operator peer id.
type pinClusterPort interface {
	RequestPin(cid string, operatorPeerIDs []string) error
	PinStatus(cid string) (present map[string]bool, err error)
}

func pinKey(cidHash [32]byte) []byte {
	return append([]byte("storagecoord/pin/"), cidHash[:]...)
}

func assignmentKey(cidHash [32]byte) []byte {
	return append([]byte("storagecoord/assignment/"), cidHash[:]...)
}

func operatorKey(id types.AccountID) []byte {
	return append([]byte("storagecoord/operator/"), id.Bytes()...)
}

func operatorAssignmentCountKey(id types.AccountID) []byte {
	return append([]byte("storagecoord/operator_assign_count/"), id.Bytes()...)
}

func dueQueueKey(block types.BlockNumber) []byte {
	var buf [4]byte
	buf[0] = byte(block >> 24)
	buf[1] = byte(block >> 16)
	buf[2] = byte(block >> 8)
	buf[3] = byte(block)
	return append([]byte("storagecoord/due/"), buf[:]...)
}

const pendingPinsKey = "storagecoord/pending"
const activeOperatorsKey = "storagecoord/active_operators"

// deriveSubjectAccount mirrors the teacher's PalletId.into_sub_account
// idiom, adapted to the per-(domain, subject_id) billing account a
// deceased-scoped pin is charged against.
func deriveSubjectAccount(subjectID uint64) types.AccountID {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(subjectID >> (8 * (7 - i)))
	}
	h := crypto.Keccak256([]byte("stardust/storagecoord/subject/"), buf[:])
	var out types.AccountID
	copy(out[:], h)
	return out
}

// Engine implements pin requests, assignment/reconciliation, billing, and
// the operator registry.
type Engine struct {
	state    engineState
	emitter  events.Emitter
	params   Params
	nowFn    func() types.BlockNumber
	treasury types.AccountID

	subjectOwner subjectOwnerPort
	cidResolver  cidResolverPort
	cluster      pinClusterPort
	pause        nativecommon.PauseView

	pinPostLimiter *rate.Limiter
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
func (e *Engine) SetNowFunc(now func() types.BlockNumber) { e.nowFn = now }
func (e *Engine) SetTreasury(id types.AccountID)          { e.treasury = id }
func (e *Engine) SetSubjectOwner(p subjectOwnerPort)      { e.subjectOwner = p }
func (e *Engine) SetCIDResolver(p cidResolverPort)        { e.cidResolver = p }
func (e *Engine) SetCluster(p pinClusterPort)             { e.cluster = p }
func (e *Engine) SetPauseView(p nativecommon.PauseView)   { e.pause = p }

// SetPinPostLimiter bounds the rate at which AssignAndPin/Reconcile issue
// outbound requests to the pin cluster, mirroring the teacher's gateway
// rate limiter applied to an external service instead of an inbound API.
func (e *Engine) SetPinPostLimiter(limiter *rate.Limiter) { e.pinPostLimiter = limiter }

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

func (e *Engine) resolveCID(cidHash [32]byte) string {
	if e.cidResolver == nil {
		return "<redacted>"
	}
	cid, ok := e.cidResolver.Resolve(cidHash)
	if !ok {
		return "<redacted>"
	}
	return cid
}

func (e *Engine) load(cidHash [32]byte) (*PinRecord, error) {
	var rec PinRecord
	ok, err := e.state.KVGet(pinKey(cidHash), &rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	rec.EnsureDefaults()
	return &rec, nil
}

func (e *Engine) save(rec *PinRecord) error {
	return e.state.KVPut(pinKey(rec.CIDHash), rec)
}

// RequestPin registers a caller-paid, one-off pin request.
func (e *Engine) RequestPin(caller types.AccountID, cidHash [32]byte, size uint64, replicas uint32, price *big.Int) (*PinRecord, error) {
	if replicas == 0 {
		return nil, ErrZeroReplicas
	}
	if price == nil || price.Sign() <= 0 {
		return nil, ErrZeroPrice
	}
	if e.treasury != (types.AccountID{}) {
		if err := e.state.Debit(caller, price); err != nil {
			return nil, err
		}
		if err := e.state.Credit(e.treasury, price); err != nil {
			return nil, err
		}
	}
	rec := &PinRecord{
		CIDHash:     cidHash,
		Payer:       caller,
		Size:        size,
		Replicas:    replicas,
		Price:       new(big.Int).Set(price),
		State:       PinStateRequested,
		RequestedAt: e.nowFn(),
	}
	if err := e.save(rec); err != nil {
		return nil, err
	}
	if err := e.state.KVAppend([]byte(pendingPinsKey), cidHash[:]); err != nil {
		return nil, err
	}
	e.emit(NewPinRequestedEvent(cidHash))
	return rec, nil
}

// RequestPinForDeceased registers a subject-scoped pin billed against the
// subject's derived account; caller must own the subject. The pin enrolls
// in recurring billing with its first charge at now+period.
func (e *Engine) RequestPinForDeceased(caller types.AccountID, subjectID uint64, cidHash [32]byte, size uint64, replicas uint32, price *big.Int, period types.BlockNumber) (*PinRecord, error) {
	if e.subjectOwner == nil {
		return nil, ErrNotSubjectOwner
	}
	owner, err := e.subjectOwner.OwnerOf(subjectID)
	if err != nil {
		return nil, err
	}
	if owner != caller {
		return nil, ErrNotSubjectOwner
	}
	if replicas == 0 {
		return nil, ErrZeroReplicas
	}
	if price == nil || price.Sign() <= 0 {
		return nil, ErrZeroPrice
	}
	subjectAccount := deriveSubjectAccount(subjectID)
	if e.treasury != (types.AccountID{}) {
		if err := e.state.Debit(subjectAccount, price); err != nil {
			return nil, err
		}
		if err := e.state.Credit(e.treasury, price); err != nil {
			return nil, err
		}
	}
	now := e.nowFn()
	nextCharge := now + period
	rec := &PinRecord{
		CIDHash:      cidHash,
		Payer:        subjectAccount,
		Size:         size,
		Replicas:     replicas,
		Price:        new(big.Int).Set(price),
		State:        PinStateRequested,
		RequestedAt:  now,
		SubjectID:    &subjectID,
		BillingState: BillingStateActive,
		NextCharge:   nextCharge,
	}
	if err := e.save(rec); err != nil {
		return nil, err
	}
	if err := e.state.KVAppend([]byte(pendingPinsKey), cidHash[:]); err != nil {
		return nil, err
	}
	if err := e.enqueueDue(nextCharge, cidHash); err != nil {
		return nil, err
	}
	e.emit(NewPinRequestedEvent(cidHash))
	return rec, nil
}

func (e *Engine) enqueueDue(block types.BlockNumber, cidHash [32]byte) error {
	return e.state.KVAppend(dueQueueKey(block), cidHash[:])
}

// AssignAndPin processes one PendingPins entry: if unassigned, it selects
// up to replicas active operators and submits the pin request to the
// external cluster; state moves to Pinning.
func (e *Engine) AssignAndPin() error {
	var keys [][]byte
	if err := e.state.KVGetList([]byte(pendingPinsKey), &keys); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	var cidHash [32]byte
	copy(cidHash[:], keys[0])
	rec, err := e.load(cidHash)
	if err != nil {
		return err
	}
	var assignment PinAssignment
	ok, err := e.state.KVGet(assignmentKey(cidHash), &assignment)
	if err != nil {
		return err
	}
	if !ok {
		operators, err := e.selectActiveOperators(int(rec.Replicas))
		if err != nil {
			return err
		}
		assignment = PinAssignment{
			CIDHash:      cidHash,
			Operators:    operators,
			Success:      make([]bool, len(operators)),
			ExpectedReps: rec.Replicas,
			CreatedAt:    e.nowFn(),
		}
		if err := e.state.KVPut(assignmentKey(cidHash), assignment); err != nil {
			return err
		}
		for _, op := range operators {
			if err := e.bumpOperatorAssignCount(op, 1); err != nil {
				return err
			}
		}
		e.emit(NewAssignmentCreatedEvent(cidHash))
	}
	if e.pinPostLimiter != nil && !e.pinPostLimiter.Allow() {
		return nil
	}
	if e.cluster != nil {
		cid := e.resolveCID(cidHash)
		peerIDs := make([]string, 0, len(assignment.Operators))
		for _, op := range assignment.Operators {
			operator, err := e.loadOperator(op)
			if err == nil {
				peerIDs = append(peerIDs, operator.PeerID)
			}
		}
		if err := e.cluster.RequestPin(cid, peerIDs); err != nil {
			return err
		}
	}
	rec.State = PinStatePinning
	return e.save(rec)
}

func (e *Engine) selectActiveOperators(n int) ([]types.AccountID, error) {
	var ids [][]byte
	if err := e.state.KVGetList([]byte(activeOperatorsKey), &ids); err != nil {
		return nil, err
	}
	out := make([]types.AccountID, 0, n)
	for _, raw := range ids {
		if len(out) >= n {
			break
		}
		id, err := types.AccountIDFromBytes(raw)
		if err != nil {
			continue
		}
		op, err := e.loadOperator(id)
		if err != nil || op.Status != OperatorStatusActive {
			continue
		}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, ErrNoActiveOperators
	}
	return out, nil
}

// Reconcile fetches the external cluster's current pin status for one
// Pinning entry and updates each assigned operator's recorded success
// state, repairing or degrading replicas and re-requesting the pin if the
// successful count has fallen short of expected.
func (e *Engine) Reconcile(cidHash [32]byte) error {
	rec, err := e.load(cidHash)
	if err != nil {
		return err
	}
	if rec.State != PinStatePinning {
		return nil
	}
	var assignment PinAssignment
	ok, err := e.state.KVGet(assignmentKey(cidHash), &assignment)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAssignmentNotFound
	}
	if e.cluster == nil {
		return nil
	}
	cid := e.resolveCID(cidHash)
	present, err := e.cluster.PinStatus(cid)
	if err != nil {
		return err
	}
	changed := false
	for i, op := range assignment.Operators {
		operator, err := e.loadOperator(op)
		if err != nil {
			continue
		}
		isPresent := present[operator.PeerID]
		wasSuccess := assignment.Success[i]
		if isPresent && !wasSuccess {
			assignment.Success[i] = true
			changed = true
			e.emit(NewReplicaRepairedEvent(cidHash, op))
		} else if !isPresent && wasSuccess {
			assignment.Success[i] = false
			changed = true
			operator.Degraded++
			if err := e.saveOperator(operator); err != nil {
				return err
			}
			e.emit(NewReplicaDegradedEvent(cidHash, op))
			if e.params.DegradationAlertEvery > 0 && operator.Degraded%e.params.DegradationAlertEvery == 0 {
				e.emit(NewOperatorDegradationAlertEvent(op))
			}
		}
	}
	if changed {
		if err := e.state.KVPut(assignmentKey(cidHash), assignment); err != nil {
			return err
		}
	}
	if assignment.SuccessCount() >= int(assignment.ExpectedReps) {
		rec.State = PinStatePinned
		if err := e.state.KVRemoveFromList([]byte(pendingPinsKey), cidHash[:]); err != nil {
			return err
		}
		if err := e.save(rec); err != nil {
			return err
		}
		if err := e.releaseAssignment(assignment); err != nil {
			return err
		}
		e.emit(NewPinPinnedEvent(cidHash))
		return nil
	}
	if e.pinPostLimiter != nil && !e.pinPostLimiter.Allow() {
		return nil
	}
	peerIDs := make([]string, 0, len(assignment.Operators))
	for _, op := range assignment.Operators {
		if operator, err := e.loadOperator(op); err == nil {
			peerIDs = append(peerIDs, operator.PeerID)
		}
	}
	return e.cluster.RequestPin(cid, peerIDs)
}

// ReconcilePending walks up to ReconcileSweepBudget entries of the pending
// (requested or pinning) queue and calls Reconcile on each, the bounded
// sweep an offchain worker runs every block to poll the pin cluster for
// replica status (spec §4.6). Entries not yet in PinStatePinning, or whose
// Reconcile call errors, are simply left for the next pass.
func (e *Engine) ReconcilePending() (int, error) {
	var keys [][]byte
	if err := e.state.KVGetList([]byte(pendingPinsKey), &keys); err != nil {
		return 0, err
	}
	budget := e.params.ReconcileSweepBudget
	processed := 0
	for _, raw := range keys {
		if budget > 0 && processed >= budget {
			break
		}
		var cidHash [32]byte
		copy(cidHash[:], raw)
		if err := e.Reconcile(cidHash); err != nil {
			continue
		}
		processed++
	}
	return processed, nil
}

// MarkPinned is the operator self-service call attesting a replica is live.
// Caller must be Active and assigned to cidHash.
func (e *Engine) MarkPinned(caller types.AccountID, cidHash [32]byte) (*PinRecord, error) {
	rec, err := e.load(cidHash)
	if err != nil {
		return nil, err
	}
	operator, err := e.loadOperator(caller)
	if err != nil {
		return nil, err
	}
	if operator.Status != OperatorStatusActive {
		return nil, ErrOperatorNotActive
	}
	var assignment PinAssignment
	ok, err := e.state.KVGet(assignmentKey(cidHash), &assignment)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAssignmentNotFound
	}
	idx := assignment.indexOf(caller)
	if idx < 0 {
		return nil, ErrOperatorNotAssigned
	}
	assignment.Success[idx] = true
	if err := e.state.KVPut(assignmentKey(cidHash), assignment); err != nil {
		return nil, err
	}
	if assignment.SuccessCount() >= int(assignment.ExpectedReps) {
		rec.State = PinStatePinned
		if err := e.state.KVRemoveFromList([]byte(pendingPinsKey), cidHash[:]); err != nil {
			return nil, err
		}
		if err := e.save(rec); err != nil {
			return nil, err
		}
		if err := e.releaseAssignment(assignment); err != nil {
			return nil, err
		}
		e.emit(NewPinPinnedEvent(cidHash))
	}
	return rec, nil
}

// releaseAssignment drops every operator's hold count once an assignment no
// longer needs tracking (the pin completed, or its request was retired).
func (e *Engine) releaseAssignment(assignment PinAssignment) error {
	for _, op := range assignment.Operators {
		if err := e.bumpOperatorAssignCount(op, -1); err != nil {
			return err
		}
	}
	return nil
}

// MarkPinFailed is the operator self-service call reporting a replica
// failure with an operational code.
func (e *Engine) MarkPinFailed(caller types.AccountID, cidHash [32]byte, code string) error {
	operator, err := e.loadOperator(caller)
	if err != nil {
		return err
	}
	if operator.Status != OperatorStatusActive {
		return ErrOperatorNotActive
	}
	var assignment PinAssignment
	ok, err := e.state.KVGet(assignmentKey(cidHash), &assignment)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAssignmentNotFound
	}
	idx := assignment.indexOf(caller)
	if idx < 0 {
		return ErrOperatorNotAssigned
	}
	assignment.Success[idx] = false
	if err := e.state.KVPut(assignmentKey(cidHash), assignment); err != nil {
		return err
	}
	operator.Degraded++
	if err := e.saveOperator(operator); err != nil {
		return err
	}
	e.emit(NewReplicaDegradedEvent(cidHash, caller))
	return nil
}

// Get returns the pin record for cidHash.
func (e *Engine) Get(cidHash [32]byte) (*PinRecord, error) {
	return e.load(cidHash)
}

// ChargeDue processes up to min(limit, MaxChargePerBlock) due pins for now,
// advancing or expiring their billing state. Callers must already hold the
// required governance/service-operator origin; this is not checked here.
func (e *Engine) ChargeDue(now types.BlockNumber, limit int) (int, error) {
	if nativecommon.Guard(e.pause, "storagecoord.billing") != nil {
		return 0, ErrBillingPaused
	}
	if limit > e.params.MaxChargePerBlock {
		limit = e.params.MaxChargePerBlock
	}
	var due [][]byte
	if err := e.state.KVGetList(dueQueueKey(now), &due); err != nil {
		return 0, err
	}
	charged := 0
	for i, raw := range due {
		if charged >= limit {
			break
		}
		var cidHash [32]byte
		copy(cidHash[:], raw)
		if err := e.state.KVRemoveFromList(dueQueueKey(now), raw); err != nil {
			return charged, err
		}
		due[i] = nil
		rec, err := e.load(cidHash)
		if err != nil {
			continue
		}
		if rec.SubjectID == nil || (rec.BillingState != BillingStateActive && rec.BillingState != BillingStateGrace) {
			continue
		}
		if err := e.chargeOne(now, rec); err != nil {
			return charged, err
		}
		charged++
	}
	return charged, nil
}

func (e *Engine) chargeOne(now types.BlockNumber, rec *PinRecord) error {
	giB := (rec.Size + (1 << 30) - 1) / (1 << 30)
	if giB == 0 {
		giB = 1
	}
	due := new(big.Int).Mul(big.NewInt(int64(giB)), big.NewInt(int64(rec.Replicas)))
	due.Mul(due, e.params.UnitPricePerGiBReplica)

	acct, err := e.state.GetAccount(rec.Payer)
	if err != nil {
		return err
	}
	afterReserve := new(big.Int).Sub(acct.Balance, e.params.MinReserve)
	sufficient := afterReserve.Cmp(due) >= 0

	if sufficient {
		if e.treasury != (types.AccountID{}) {
			if err := e.state.Debit(rec.Payer, due); err != nil {
				return err
			}
			if err := e.state.Credit(e.treasury, due); err != nil {
				return err
			}
		}
		rec.NextCharge = now + e.params.BillingPeriodBlocks
		rec.BillingState = BillingStateActive
		if err := e.save(rec); err != nil {
			return err
		}
		return e.reenqueueWithSpread(rec.NextCharge, rec.CIDHash)
	}
	if rec.BillingState == BillingStateActive {
		rec.BillingState = BillingStateGrace
		rec.NextCharge = now + e.params.GraceBlocks
		if err := e.save(rec); err != nil {
			return err
		}
		if err := e.enqueueDue(rec.NextCharge, rec.CIDHash); err != nil {
			return err
		}
		e.emit(NewPinGraceEvent(rec.CIDHash))
		return nil
	}
	rec.BillingState = BillingStateExpired
	if err := e.save(rec); err != nil {
		return err
	}
	e.emit(NewPinExpiredEvent(rec.CIDHash))
	return nil
}

// reenqueueWithSpread tries the target block first, then up to
// DueEnqueueSpread following blocks, taking the first queue holding fewer
// than 65536 entries; a full spread window silently drops the re-enqueue,
// matching the spec's documented fallback.
func (e *Engine) reenqueueWithSpread(target types.BlockNumber, cidHash [32]byte) error {
	for i := 0; i <= e.params.DueEnqueueSpread; i++ {
		block := target + types.BlockNumber(i)
		var existing [][]byte
		if err := e.state.KVGetList(dueQueueKey(block), &existing); err != nil {
			return err
		}
		if len(existing) < 1<<16 {
			return e.enqueueDue(block, cidHash)
		}
	}
	return nil
}

func (e *Engine) loadOperator(id types.AccountID) (*Operator, error) {
	var op Operator
	ok, err := e.state.KVGet(operatorKey(id), &op)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOperatorNotFound
	}
	op.EnsureDefaults()
	return &op, nil
}

func (e *Engine) saveOperator(op *Operator) error {
	return e.state.KVPut(operatorKey(op.ID), op)
}

func (e *Engine) bumpOperatorAssignCount(id types.AccountID, delta int) error {
	var count uint64
	if _, err := e.state.KVGet(operatorAssignmentCountKey(id), &count); err != nil {
		return err
	}
	switch {
	case delta >= 0:
		count += uint64(delta)
	case uint64(-delta) > count:
		count = 0
	default:
		count -= uint64(-delta)
	}
	return e.state.KVPut(operatorAssignmentCountKey(id), count)
}

// JoinOperator registers a new storage operator, reserving its bond.
func (e *Engine) JoinOperator(caller types.AccountID, peerID string, capacityGiB uint64, endpointHash [32]byte, cert []byte, bond *big.Int) (*Operator, error) {
	if capacityGiB < e.params.MinCapacityGiB {
		return nil, ErrCapacityTooLow
	}
	if bond == nil || bond.Cmp(e.params.MinOperatorBond) < 0 {
		return nil, ErrBondTooLow
	}
	if _, err := e.loadOperator(caller); err == nil {
		return nil, ErrOperatorExists
	}
	if e.treasury != (types.AccountID{}) {
		if err := e.state.Debit(caller, bond); err != nil {
			return nil, err
		}
	}
	op := &Operator{
		ID:           caller,
		PeerID:       peerID,
		CapacityGiB:  capacityGiB,
		EndpointHash: endpointHash,
		Cert:         cert,
		Bond:         new(big.Int).Set(bond),
		Status:       OperatorStatusActive,
		JoinedAt:     e.nowFn(),
	}
	if err := e.saveOperator(op); err != nil {
		return nil, err
	}
	if err := e.state.KVAppend([]byte(activeOperatorsKey), caller.Bytes()); err != nil {
		return nil, err
	}
	return op, nil
}

// LeaveOperator refunds the bond and removes caller from the registry,
// refusing if any assignment still references it.
func (e *Engine) LeaveOperator(caller types.AccountID) error {
	op, err := e.loadOperator(caller)
	if err != nil {
		return err
	}
	var count uint64
	if _, err := e.state.KVGet(operatorAssignmentCountKey(caller), &count); err != nil {
		return err
	}
	if count > 0 {
		return ErrOperatorStillAssigned
	}
	if e.treasury != (types.AccountID{}) && op.Bond.Sign() > 0 {
		if err := e.state.Credit(caller, op.Bond); err != nil {
			return err
		}
	}
	if err := e.state.KVDelete(operatorKey(caller)); err != nil {
		return err
	}
	return e.state.KVRemoveFromList([]byte(activeOperatorsKey), caller.Bytes())
}

// SetOperatorStatus is a governance call updating an operator's membership
// state. Origin checking is the caller's responsibility.
func (e *Engine) SetOperatorStatus(id types.AccountID, status OperatorStatus) error {
	op, err := e.loadOperator(id)
	if err != nil {
		return err
	}
	wasActive := op.Status == OperatorStatusActive
	op.Status = status
	if err := e.saveOperator(op); err != nil {
		return err
	}
	if wasActive && status != OperatorStatusActive {
		return e.state.KVRemoveFromList([]byte(activeOperatorsKey), id.Bytes())
	}
	if !wasActive && status == OperatorStatusActive {
		return e.state.KVAppend([]byte(activeOperatorsKey), id.Bytes())
	}
	return nil
}

// SlashOperator is a governance call debiting amount from an operator's
// recorded bond into the treasury.
func (e *Engine) SlashOperator(id types.AccountID, amount *big.Int) error {
	op, err := e.loadOperator(id)
	if err != nil {
		return err
	}
	if amount.Cmp(op.Bond) > 0 {
		amount = op.Bond
	}
	op.Bond = new(big.Int).Sub(op.Bond, amount)
	op.Status = OperatorStatusSlashed
	if err := e.saveOperator(op); err != nil {
		return err
	}
	if e.treasury != (types.AccountID{}) {
		return e.state.Credit(e.treasury, amount)
	}
	return nil
}

// SetParams validates and applies new billing parameters. Origin checking
// is the caller's responsibility.
func (e *Engine) SetParams(p Params) error {
	if p.UnitPricePerGiBReplica == nil || p.UnitPricePerGiBReplica.Sign() <= 0 ||
		p.BillingPeriodBlocks == 0 || p.GraceBlocks == 0 || p.MaxChargePerBlock <= 0 {
		return ErrInvalidBillingParams
	}
	e.params = p
	return nil
}
