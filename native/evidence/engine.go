package evidence

import (
	"encoding/binary"
	"unicode"

	"golang.org/x/crypto/blake2b"
	"lukechampine.com/blake3"

	"stardust/core/events"
	"stardust/core/types"
	"stardust/native/govorigin"
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

// namespaceAuthorizer checks whether caller may act within ns. A nil
// authorizer permits every caller (single-tenant deployments).
type namespaceAuthorizer func(caller types.AccountID, ns string) error

// rolePort resolves role membership for AccessRoleBased policies.
type rolePort interface {
	HasRole(account types.AccountID, role string) bool
}

// familyPort resolves family membership for AccessFamilyMembers policies.
type familyPort interface {
	IsFamilyMember(account types.AccountID, deceasedID uint64) bool
}

func recordKey(id uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return append([]byte("evidence/record/"), buf[:]...)
}

func targetLinksKey(ns string, targetID uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], targetID)
	return append([]byte("evidence/links/"+ns+"/"), buf[:]...)
}

func targetCountKey(ns string, targetID uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], targetID)
	return append([]byte("evidence/target_count/"+ns+"/"), buf[:]...)
}

func windowKey(account types.AccountID) []byte {
	return append([]byte("evidence/window/"), account.Bytes()...)
}

func globalCIDKey(hash [32]byte) []byte {
	return append([]byte("evidence/cid_hash/"), hash[:]...)
}

func commitIndexKey(commit [32]byte) []byte {
	return append([]byte("evidence/commit_index/"), commit[:]...)
}

func commitHashKey(ns string, subjectID uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], subjectID)
	return append([]byte("evidence/commit_hash/"+ns+"/"), buf[:]...)
}

func privateContentKey(id uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return append([]byte("evidence/private/"), buf[:]...)
}

func publicKeyKey(account types.AccountID) []byte {
	return append([]byte("evidence/pubkey/"), account.Bytes()...)
}

func rotationHistoryKey(contentID uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], contentID)
	return append([]byte("evidence/rotation/"), buf[:]...)
}

const nextRecordIDKey = "evidence/next_id"
const nextContentIDKey = "evidence/next_content_id"

// Engine implements the append-only evidence ledger and its private-content
// sub-ledger.
type Engine struct {
	state    engineState
	emitter  events.Emitter
	params   Params
	nowFn    func() types.BlockNumber
	authz    namespaceAuthorizer
	roles    rolePort
	family   familyPort
	checkCIDGlobalUnique bool
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
func (e *Engine) SetNamespaceAuthorizer(fn func(caller types.AccountID, ns string) error) {
	e.authz = fn
}
func (e *Engine) SetRolePort(p rolePort)     { e.roles = p }
func (e *Engine) SetFamilyPort(p familyPort) { e.family = p }
func (e *Engine) SetCheckGlobalCIDUniqueness(on bool) { e.checkCIDGlobalUnique = on }

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

func (e *Engine) authorize(caller types.AccountID, ns string) error {
	if e.authz == nil {
		return nil
	}
	return e.authz(caller, ns)
}

func isPrintableASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

func (e *Engine) validateCIDs(cids []string) error {
	seen := make(map[string]struct{}, len(cids))
	for _, cid := range cids {
		if cid == "" {
			return ErrEmptyCID
		}
		if len(cid) > e.params.MaxCIDLen {
			return ErrCIDTooLong
		}
		if !isPrintableASCII(cid) {
			return ErrCIDNotPrintable
		}
		if _, dup := seen[cid]; dup {
			return ErrDuplicateCID
		}
		seen[cid] = struct{}{}
	}
	return nil
}

func (e *Engine) checkAndAdvanceWindow(account types.AccountID) error {
	var w windowState
	ok, err := e.state.KVGet(windowKey(account), &w)
	if err != nil {
		return err
	}
	now := e.nowFn()
	if !ok || now-w.WindowStart >= e.params.WindowBlocks {
		w = windowState{WindowStart: now, Count: 0}
	}
	if w.Count >= e.params.MaxPerWindow {
		return ErrRateLimited
	}
	w.Count++
	return e.state.KVPut(windowKey(account), w)
}

func (e *Engine) nextRecordID() (uint64, error) {
	var next uint64
	ok, err := e.state.KVGet([]byte(nextRecordIDKey), &next)
	if err != nil {
		return 0, err
	}
	if !ok {
		next = 1
	}
	if err := e.state.KVPut([]byte(nextRecordIDKey), next+1); err != nil {
		return 0, err
	}
	return next, nil
}

// Commit appends one evidence record for targetID within ns. cids is the
// combined set of media CIDs supplied by the caller (images, videos,
// documents); each is validated for shape and uniqueness within the call,
// and cids[0] is persisted as the record's canonical ContentCID bundle
// reference. memo is stored verbatim.
func (e *Engine) Commit(caller types.AccountID, ns string, targetID uint64, cids []string, memo string) (*Record, error) {
	if err := e.authorize(caller, ns); err != nil {
		return nil, err
	}
	if len(cids) == 0 {
		return nil, ErrEmptyCID
	}
	if err := e.validateCIDs(cids); err != nil {
		return nil, err
	}
	if err := e.checkAndAdvanceWindow(caller); err != nil {
		return nil, err
	}
	var count uint32
	if _, err := e.state.KVGet(targetCountKey(ns, targetID), &count); err != nil {
		return nil, err
	}
	if count >= e.params.MaxPerTarget {
		return nil, ErrPerTargetCapReached
	}
	contentCID := cids[0]
	if e.checkCIDGlobalUnique {
		hash := blake2b.Sum256([]byte(contentCID))
		var used bool
		ok, err := e.state.KVGet(globalCIDKey(hash), &used)
		if err != nil {
			return nil, err
		}
		if ok && used {
			return nil, ErrGlobalCIDInUse
		}
		if err := e.state.KVPut(globalCIDKey(hash), true); err != nil {
			return nil, err
		}
	}
	id, err := e.nextRecordID()
	if err != nil {
		return nil, err
	}
	record := &Record{
		ID:         id,
		Namespace:  ns,
		TargetID:   targetID,
		ContentCID: contentCID,
		Memo:       memo,
		Creator:    caller,
		CreatedAt:  e.nowFn(),
	}
	if err := e.state.KVPut(recordKey(id), record); err != nil {
		return nil, err
	}
	if err := e.state.KVPut(targetCountKey(ns, targetID), count+1); err != nil {
		return nil, err
	}
	e.emit(NewCommittedEvent(id, ns))
	return record, nil
}

// CommitHash stores a commitment hash under (ns, subjectID), replay
// protected by a global commit-index: the same commit value cannot be
// recorded twice anywhere in the ledger.
func (e *Engine) CommitHash(caller types.AccountID, ns string, subjectID uint64, commit [32]byte, memo string) (*CommitHashRecord, error) {
	if err := e.authorize(caller, ns); err != nil {
		return nil, err
	}
	var used bool
	ok, err := e.state.KVGet(commitIndexKey(commit), &used)
	if err != nil {
		return nil, err
	}
	if ok && used {
		return nil, ErrCommitExists
	}
	if err := e.checkAndAdvanceWindow(caller); err != nil {
		return nil, err
	}
	record := &CommitHashRecord{
		Namespace: ns,
		SubjectID: subjectID,
		Commit:    commit,
		Memo:      memo,
		Creator:   caller,
		CreatedAt: e.nowFn(),
	}
	if err := e.state.KVPut(commitHashKey(ns, subjectID), record); err != nil {
		return nil, err
	}
	if err := e.state.KVPut(commitIndexKey(commit), true); err != nil {
		return nil, err
	}
	e.emit(NewCommitHashRecordedEvent(ns, subjectID))
	return record, nil
}

// GetCommitHash returns the commitment recorded for (ns, subjectID).
func (e *Engine) GetCommitHash(ns string, subjectID uint64) (*CommitHashRecord, error) {
	var record CommitHashRecord
	ok, err := e.state.KVGet(commitHashKey(ns, subjectID), &record)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

// Link adds a reference from targetID to an existing evidence record. The
// record's recorded namespace must match ns, and caller must be authorized
// for that namespace.
func (e *Engine) Link(caller types.AccountID, ns string, targetID, evidenceID uint64) error {
	record, err := e.Get(evidenceID)
	if err != nil {
		return err
	}
	if record.Namespace != ns {
		return ErrNamespaceMismatch
	}
	if err := e.authorize(caller, ns); err != nil {
		return err
	}
	var ids []uint64
	if _, err := e.state.KVGet(targetLinksKey(ns, targetID), &ids); err != nil {
		return err
	}
	for _, id := range ids {
		if id == evidenceID {
			return nil
		}
	}
	ids = append(ids, evidenceID)
	if err := e.state.KVPut(targetLinksKey(ns, targetID), ids); err != nil {
		return err
	}
	record.LinkedTo = append(record.LinkedTo, targetID)
	if err := e.state.KVPut(recordKey(evidenceID), record); err != nil {
		return err
	}
	e.emit(NewLinkedEvent(targetID, evidenceID))
	return nil
}

// Unlink removes a reference from targetID to evidenceID.
func (e *Engine) Unlink(caller types.AccountID, ns string, targetID, evidenceID uint64) error {
	record, err := e.Get(evidenceID)
	if err != nil {
		return err
	}
	if record.Namespace != ns {
		return ErrNamespaceMismatch
	}
	if err := e.authorize(caller, ns); err != nil {
		return err
	}
	var ids []uint64
	if _, err := e.state.KVGet(targetLinksKey(ns, targetID), &ids); err != nil {
		return err
	}
	out := ids[:0]
	for _, id := range ids {
		if id != evidenceID {
			out = append(out, id)
		}
	}
	if err := e.state.KVPut(targetLinksKey(ns, targetID), out); err != nil {
		return err
	}
	remaining := record.LinkedTo[:0]
	for _, id := range record.LinkedTo {
		if id != targetID {
			remaining = append(remaining, id)
		}
	}
	record.LinkedTo = remaining
	if err := e.state.KVPut(recordKey(evidenceID), record); err != nil {
		return err
	}
	e.emit(NewUnlinkedEvent(targetID, evidenceID))
	return nil
}

// Get returns the evidence record for id.
func (e *Engine) Get(id uint64) (*Record, error) {
	var record Record
	ok, err := e.state.KVGet(recordKey(id), &record)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

func (e *Engine) nextContentID() (uint64, error) {
	var next uint64
	ok, err := e.state.KVGet([]byte(nextContentIDKey), &next)
	if err != nil {
		return 0, err
	}
	if !ok {
		next = 1
	}
	if err := e.state.KVPut([]byte(nextContentIDKey), next+1); err != nil {
		return 0, err
	}
	return next, nil
}

// StoreContent creates a private-content record bound by accessPolicy, with
// one wrapped content key per recipient in encryptedKeys.
func (e *Engine) StoreContent(caller types.AccountID, ns string, subjectID uint64, cid string, encryptionMethod string, accessPolicy AccessPolicy, encryptedKeys []EncryptedKeyEntry) (*PrivateContent, error) {
	if err := e.authorize(caller, ns); err != nil {
		return nil, err
	}
	if cid == "" {
		return nil, ErrEmptyCID
	}
	id, err := e.nextContentID()
	if err != nil {
		return nil, err
	}
	now := e.nowFn()
	content := &PrivateContent{
		ContentID:        id,
		Namespace:        ns,
		SubjectID:        subjectID,
		CID:              cid,
		ContentHash:      blake3.Sum256([]byte(cid)),
		EncryptionMethod: encryptionMethod,
		Creator:          caller,
		AccessPolicy:     accessPolicy,
		EncryptedKeys:    append([]EncryptedKeyEntry(nil), encryptedKeys...),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := e.state.KVPut(privateContentKey(id), content); err != nil {
		return nil, err
	}
	e.emit(NewPrivateContentStoredEvent(id))
	return content, nil
}

// GetContent returns the private content record for id.
func (e *Engine) GetContent(id uint64) (*PrivateContent, error) {
	var content PrivateContent
	ok, err := e.state.KVGet(privateContentKey(id), &content)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrContentNotFound
	}
	return &content, nil
}

// SetUserPublicKey records the caller's current content-key-wrapping public
// key, used off-chain by writers assembling EncryptedKeys bundles.
func (e *Engine) SetUserPublicKey(caller types.AccountID, pubKey []byte) error {
	return e.state.KVPut(publicKeyKey(caller), append([]byte(nil), pubKey...))
}

// GetUserPublicKey returns the recorded public key for account, if any.
func (e *Engine) GetUserPublicKey(account types.AccountID) ([]byte, bool, error) {
	var key []byte
	ok, err := e.state.KVGet(publicKeyKey(account), &key)
	if err != nil {
		return nil, false, err
	}
	return key, ok, nil
}

// RotateContentKeys replaces a content record's wrapped-key bundles and
// bumps its content hash, appending a rotation record whose Round is
// max(existing rounds)+1. Only the content's creator may rotate its keys.
func (e *Engine) RotateContentKeys(caller types.AccountID, contentID uint64, newCID string, newEncryptedKeys []EncryptedKeyEntry) (*PrivateContent, error) {
	content, err := e.GetContent(contentID)
	if err != nil {
		return nil, err
	}
	if content.Creator != caller {
		return nil, ErrNotCreator
	}
	var history []KeyRotationRecord
	if _, err := e.state.KVGet(rotationHistoryKey(contentID), &history); err != nil {
		return nil, err
	}
	var maxRound uint32
	for _, rec := range history {
		if rec.Round > maxRound {
			maxRound = rec.Round
		}
	}
	now := e.nowFn()
	content.CID = newCID
	content.ContentHash = blake3.Sum256([]byte(newCID))
	content.EncryptedKeys = append([]EncryptedKeyEntry(nil), newEncryptedKeys...)
	content.UpdatedAt = now
	if err := e.state.KVPut(privateContentKey(contentID), content); err != nil {
		return nil, err
	}
	round := maxRound + 1
	history = append(history, KeyRotationRecord{Round: round, ContentHash: content.ContentHash, RotatedAt: now})
	if err := e.state.KVPut(rotationHistoryKey(contentID), history); err != nil {
		return nil, err
	}
	e.emit(NewKeysRotatedEvent(contentID, round))
	return content, nil
}

// CanAccess evaluates a private content record's access policy for caller.
// govOrigin is the caller's resolved governance origin (govorigin.KindSigned
// for an ordinary account), consulted only for AccessGovernanceControlled.
func (e *Engine) CanAccess(caller types.AccountID, govOrigin govorigin.Kind, content *PrivateContent) bool {
	if content.Creator == caller {
		return true
	}
	switch content.AccessPolicy.Kind {
	case AccessOwnerOnly:
		return false
	case AccessSharedWith:
		for _, acct := range content.AccessPolicy.SharedWith {
			if acct == caller {
				return true
			}
		}
		return false
	case AccessFamilyMembers:
		return e.family != nil && e.family.IsFamilyMember(caller, content.AccessPolicy.FamilyDeceasedID)
	case AccessTimeboxed:
		if e.nowFn() > content.AccessPolicy.TimeboxedExpireAt {
			return false
		}
		for _, acct := range content.AccessPolicy.TimeboxedUsers {
			if acct == caller {
				return true
			}
		}
		return false
	case AccessGovernanceControlled:
		return govorigin.Satisfies(govOrigin, govorigin.KindCouncil)
	case AccessRoleBased:
		return e.roles != nil && e.roles.HasRole(caller, content.AccessPolicy.Role)
	default:
		return false
	}
}
