// Package storage provides the authenticated key-value backing store used by
// the runtime's trie. It is host-side infrastructure: the runtime itself only
// depends on the Database interface, never on a concrete backend.
package storage

import (
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/triedb"
)

// Database is a generic interface for the key-value store backing the
// authenticated trie. Any backend (in-memory or persistent) can be plugged in
// as long as it can also hand back a triedb.Database for trie node storage.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	TrieDB() *triedb.Database
	Close() error
}

type wrappedDB struct {
	kv     ethdb.KeyValueStore
	trieDB *triedb.Database
}

func newWrapped(kv ethdb.KeyValueStore) *wrappedDB {
	return &wrappedDB{
		kv:     kv,
		trieDB: triedb.NewDatabase(kv, triedb.HashDefaults),
	}
}

func (w *wrappedDB) Put(key, value []byte) error { return w.kv.Put(key, value) }
func (w *wrappedDB) Get(key []byte) ([]byte, error) { return w.kv.Get(key) }
func (w *wrappedDB) Has(key []byte) (bool, error)   { return w.kv.Has(key) }
func (w *wrappedDB) Delete(key []byte) error        { return w.kv.Delete(key) }
func (w *wrappedDB) TrieDB() *triedb.Database       { return w.trieDB }
func (w *wrappedDB) Close() error                   { return w.kv.Close() }

// NewMemDB creates an ephemeral, process-local database. It is used by unit
// tests and by tooling that does not need to persist state across restarts.
func NewMemDB() Database {
	return newWrapped(memorydb.New())
}

// NewLevelDB opens (creating if absent) a LevelDB-backed database rooted at
// path.
func NewLevelDB(path string) (Database, error) {
	db, err := leveldb.New(path, 0, 0, "stardust/db", false)
	if err != nil {
		return nil, err
	}
	return newWrapped(db), nil
}
