package registry

import (
	"encoding/binary"

	"stardust/core/events"
	"stardust/core/types"
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

func subjectKey(subjectType SubjectType, id uint64) []byte {
	var buf [9]byte
	buf[0] = byte(subjectType)
	binary.BigEndian.PutUint64(buf[1:], id)
	return append([]byte("registry/subject/"), buf[:]...)
}

func roleKey(account types.AccountID, role string) []byte {
	key := append([]byte("registry/role/"), account.Bytes()...)
	return append(key, []byte("/"+role)...)
}

func familyKey(subjectType SubjectType, id uint64, member types.AccountID) []byte {
	key := append(subjectKey(subjectType, id), []byte("/family/")...)
	return append(key, member.Bytes()...)
}

func userBindKey(account types.AccountID) []byte {
	return append([]byte("registry/user_of/"), account.Bytes()...)
}

func cidAliasKey(hash [32]byte) []byte {
	return append([]byte("registry/cid/"), hash[:]...)
}

// Engine is the subject-identity store: ownership, admin, family
// membership, account roles, user bindings, and CID-hash aliasing.
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

// Register creates subject (subjectType, id) owned by owner. Re-registering
// an existing subject is rejected; SetAdmin changes its admin, and the
// owner cannot be changed after registration.
func (e *Engine) Register(subjectType SubjectType, id uint64, owner types.AccountID) error {
	exists, err := e.Exists(subjectType, id)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyExists
	}
	return e.state.KVPut(subjectKey(subjectType, id), Subject{Type: subjectType, ID: id, Owner: owner})
}

// Exists reports whether (subjectType, id) has been registered.
func (e *Engine) Exists(subjectType SubjectType, id uint64) (bool, error) {
	var sub Subject
	ok, err := e.state.KVGet(subjectKey(subjectType, id), &sub)
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (e *Engine) load(subjectType SubjectType, id uint64) (Subject, error) {
	var sub Subject
	ok, err := e.state.KVGet(subjectKey(subjectType, id), &sub)
	if err != nil {
		return Subject{}, err
	}
	if !ok {
		return Subject{}, ErrSubjectNotFound
	}
	return sub, nil
}

// OwnerOf returns the registered owner of (subjectType, id).
func (e *Engine) OwnerOf(subjectType SubjectType, id uint64) (types.AccountID, error) {
	sub, err := e.load(subjectType, id)
	if err != nil {
		return types.AccountID{}, err
	}
	return sub.Owner, nil
}

// SetAdmin assigns the administering account for (subjectType, id).
func (e *Engine) SetAdmin(subjectType SubjectType, id uint64, admin types.AccountID) error {
	sub, err := e.load(subjectType, id)
	if err != nil {
		return err
	}
	sub.Admin = admin
	return e.state.KVPut(subjectKey(subjectType, id), sub)
}

// IsAdmin reports whether caller is the subject's owner or its designated
// admin; both count, since the owner implicitly administers their subject.
func (e *Engine) IsAdmin(subjectType SubjectType, id uint64, caller types.AccountID) (bool, error) {
	sub, err := e.load(subjectType, id)
	if err != nil {
		if err == ErrSubjectNotFound {
			return false, nil
		}
		return false, err
	}
	return sub.Owner == caller || sub.Admin == caller, nil
}

// AddFamilyMember grants member family-level access to (subjectType, id).
func (e *Engine) AddFamilyMember(subjectType SubjectType, id uint64, member types.AccountID) error {
	return e.state.KVPut(familyKey(subjectType, id, member), true)
}

// IsFamilyMember reports whether member has been granted family access.
func (e *Engine) IsFamilyMember(subjectType SubjectType, id uint64, member types.AccountID) (bool, error) {
	var granted bool
	ok, err := e.state.KVGet(familyKey(subjectType, id, member), &granted)
	if err != nil {
		return false, err
	}
	return ok && granted, nil
}

// GrantRole marks account as holding role.
func (e *Engine) GrantRole(account types.AccountID, role string) error {
	return e.state.KVPut(roleKey(account, role), true)
}

// HasRole reports whether account holds role.
func (e *Engine) HasRole(account types.AccountID, role string) (bool, error) {
	var granted bool
	ok, err := e.state.KVGet(roleKey(account, role), &granted)
	if err != nil {
		return false, err
	}
	return ok && granted, nil
}

// BindUserAccount records that account's own social profile is the User
// subject identified by userID, enabling self-target detection.
func (e *Engine) BindUserAccount(account types.AccountID, userID uint64) error {
	return e.state.KVPut(userBindKey(account), userID)
}

// SelfUserID returns the User subject ID bound to account, if any.
func (e *Engine) SelfUserID(account types.AccountID) (uint64, bool, error) {
	var id uint64
	ok, err := e.state.KVGet(userBindKey(account), &id)
	if err != nil {
		return 0, false, err
	}
	return id, ok, nil
}

// PutCIDAlias records the content address a hash resolves to.
func (e *Engine) PutCIDAlias(hash [32]byte, cid string) error {
	return e.state.KVPut(cidAliasKey(hash), cid)
}

// ResolveCIDAlias looks up the content address recorded for hash.
func (e *Engine) ResolveCIDAlias(hash [32]byte) (string, bool) {
	var cid string
	ok, err := e.state.KVGet(cidAliasKey(hash), &cid)
	if err != nil || !ok {
		return "", false
	}
	return cid, true
}
