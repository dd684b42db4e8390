// Package govorigin implements the runtime's governance-origin checks:
// Root, Council (two-thirds majority), and TechnicalCommittee (majority),
// plus the shared pause-flag store used by storage-coordinator billing and
// other pausable modules (spec §6 "Governance origins", §4.6).
package govorigin

import (
	"errors"

	nativecommon "stardust/native/common"
)

// Kind identifies a governance origin. Root satisfies every required kind.
type Kind uint8

const (
	KindRoot Kind = iota
	KindCouncil
	KindTechnicalCommittee
	KindSigned
)

var ErrOriginNotSatisfied = errors.New("govorigin: origin does not satisfy required authorization")

// Satisfies reports whether an origin of kind `have` may invoke a
// dispatchable that declares `required` as its accepted origin.
func Satisfies(have, required Kind) bool {
	if have == KindRoot {
		return true
	}
	return have == required
}

// RequireOrigin returns ErrOriginNotSatisfied unless have satisfies required.
func RequireOrigin(have, required Kind) error {
	if !Satisfies(have, required) {
		return ErrOriginNotSatisfied
	}
	return nil
}

// pauseState is the persisted record backing the pause flag for a module.
type pauseState struct {
	Paused bool
}

// pauseStoreState is the narrow KV surface the pause store needs.
type pauseStoreState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

// PauseStore persists per-module pause flags and satisfies
// nativecommon.PauseView so Guard can be used directly by consumers.
type PauseStore struct {
	state pauseStoreState
}

// NewPauseStore builds a PauseStore over state.
func NewPauseStore(state pauseStoreState) *PauseStore {
	return &PauseStore{state: state}
}

func pauseKey(module string) []byte {
	return []byte("gov/pause/" + module)
}

// IsPaused implements nativecommon.PauseView.
func (p *PauseStore) IsPaused(module string) bool {
	if p == nil || p.state == nil {
		return false
	}
	var st pauseState
	ok, err := p.state.KVGet(pauseKey(module), &st)
	if err != nil || !ok {
		return false
	}
	return st.Paused
}

// SetPaused sets or clears the pause flag for module. Callers must verify
// the governance origin before invoking this.
func (p *PauseStore) SetPaused(module string, paused bool) error {
	if p == nil || p.state == nil {
		return errors.New("govorigin: pause store unavailable")
	}
	return p.state.KVPut(pauseKey(module), pauseState{Paused: paused})
}

var _ nativecommon.PauseView = (*PauseStore)(nil)
