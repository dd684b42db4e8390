// Package state implements the runtime's authenticated key-value surface:
// a thin, generic RLP-over-trie layer that every native module depends on
// through its own narrow engineState interface rather than a shared global
// service registry (spec §9).
package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"stardust/storage"
	"stardust/storage/trie"
)

// Manager wraps the authenticated trie with a generic get/put/append/list/
// delete surface. Keys are hashed with Keccak256 before insertion, matching
// the trie's expectation of pre-hashed keys.
type Manager struct {
	trie *trie.Trie
}

// New opens a Manager over store at the given root (nil/empty for the empty
// trie).
func New(store storage.Database, root []byte) (*Manager, error) {
	tr, err := trie.NewTrie(store, root)
	if err != nil {
		return nil, err
	}
	return &Manager{trie: tr}, nil
}

func hashKey(key []byte) []byte {
	h := crypto.Keccak256Hash(key)
	return h.Bytes()
}

// KVGet decodes the value stored at key into out, returning false if absent.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	raw, err := m.trie.Get(hashKey(key))
	if err != nil {
		return false, fmt.Errorf("state: get %x: %w", key, err)
	}
	if len(raw) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %x: %w", key, err)
	}
	return true, nil
}

// KVPut RLP-encodes value and stores it under key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %x: %w", key, err)
	}
	if err := m.trie.Update(hashKey(key), encoded); err != nil {
		return fmt.Errorf("state: put %x: %w", key, err)
	}
	return nil
}

// KVDelete removes the value stored at key, a no-op if absent.
func (m *Manager) KVDelete(key []byte) error {
	if err := m.trie.Update(hashKey(key), nil); err != nil {
		return fmt.Errorf("state: delete %x: %w", key, err)
	}
	return nil
}

// KVAppend appends value to the [][]byte index stored at key, ignoring
// duplicates of an already-present entry.
func (m *Manager) KVAppend(key []byte, value []byte) error {
	var existing [][]byte
	if err := m.KVGetList(key, &existing); err != nil {
		return err
	}
	for _, entry := range existing {
		if string(entry) == string(value) {
			return nil
		}
	}
	existing = append(existing, append([]byte(nil), value...))
	return m.KVPut(key, existing)
}

// KVRemoveFromList removes every occurrence of value from the [][]byte
// index stored at key.
func (m *Manager) KVRemoveFromList(key []byte, value []byte) error {
	var existing [][]byte
	if err := m.KVGetList(key, &existing); err != nil {
		return err
	}
	out := existing[:0]
	for _, entry := range existing {
		if string(entry) == string(value) {
			continue
		}
		out = append(out, entry)
	}
	return m.KVPut(key, out)
}

// KVGetList decodes the list stored at key into out (a pointer to a slice
// type), leaving out empty if the key is absent.
func (m *Manager) KVGetList(key []byte, out interface{}) error {
	raw, err := m.trie.Get(hashKey(key))
	if err != nil {
		return fmt.Errorf("state: get list %x: %w", key, err)
	}
	if len(raw) == 0 {
		switch dest := out.(type) {
		case *[][]byte:
			*dest = nil
			return nil
		default:
			encoded, encErr := rlp.EncodeToBytes([][]byte{})
			if encErr != nil {
				return encErr
			}
			return rlp.DecodeBytes(encoded, out)
		}
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return fmt.Errorf("state: decode list %x: %w", key, err)
	}
	return nil
}

// Snapshot captures the trie's current in-memory state. A later Revert
// discards every mutation made after the snapshot was taken, leaving
// anything already committed untouched (spec §7: a failing dispatchable
// reverts all state mutations it performed).
type Snapshot struct {
	trie *trie.Trie
}

// Snapshot returns a point the Manager can later Revert to.
func (m *Manager) Snapshot() (*Snapshot, error) {
	cp, err := m.trie.Copy()
	if err != nil {
		return nil, fmt.Errorf("state: snapshot: %w", err)
	}
	return &Snapshot{trie: cp}, nil
}

// Revert rolls the Manager back to snap, discarding every KV/account
// mutation applied since it was taken.
func (m *Manager) Revert(snap *Snapshot) {
	m.trie = snap.trie
}

// Commit persists all pending mutations and returns the new state root.
func (m *Manager) Commit(parent []byte, blockNumber uint64) ([]byte, error) {
	parentHash := common.BytesToHash(parent)
	root, err := m.trie.Commit(parentHash, blockNumber)
	if err != nil {
		return nil, err
	}
	return root.Bytes(), nil
}

// Root returns the last committed root.
func (m *Manager) Root() []byte {
	return m.trie.Root().Bytes()
}
