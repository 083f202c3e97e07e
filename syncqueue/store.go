package syncqueue

import (
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Entry is a pending change as kept in a Store
type Entry struct {
	ID     string `json:"id"`
	Seq    uint64 `json:"seq"`
	Change Change `json:"change"`
}

// Store persists pending entries so they survive a restart
type Store interface {
	// Load returns all entries ordered by Seq
	Load() ([]Entry, error)
	Put(entry Entry) error
	Delete(entries ...Entry) error
	Close() error
}

var keyPrefix = []byte("syncqueue/")

func entryKey(seq uint64) []byte {
	key := make([]byte, len(keyPrefix)+8)
	copy(key, keyPrefix)
	binary.BigEndian.PutUint64(key[len(keyPrefix):], seq)
	return key
}

// BadgerStore keeps entries in a badger database. Keys embed the sequence
// number big-endian, so iteration order is replay order.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (or creates) a store in dir. An empty dir keeps
// everything in memory.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open queue store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Load reads all entries in sequence order
func (s *BadgerStore) Load() ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var entry Entry
			if err := json.Unmarshal(value, &entry); err != nil {
				return fmt.Errorf("corrupt queue entry %x: %w", it.Item().Key(), err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}
	return entries, nil
}

// Put writes entry
func (s *BadgerStore) Put(entry Entry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode queue entry: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(entry.Seq), value)
	})
}

// Delete removes entries in one transaction
func (s *BadgerStore) Delete(entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, entry := range entries {
			if err := txn.Delete(entryKey(entry.Seq)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// MemoryStore is a Store that keeps nothing across restarts
type MemoryStore struct {
	mu      sync.Mutex
	entries map[uint64]Entry
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[uint64]Entry)}
}

// Load returns a copy of the entries in sequence order
func (s *MemoryStore) Load() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Seq < entries[j].Seq
	})
	return entries, nil
}

// Put stores entry
func (s *MemoryStore) Put(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Seq] = entry
	return nil
}

// Delete removes entries
func (s *MemoryStore) Delete(entries ...Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range entries {
		delete(s.entries, entry.Seq)
	}
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
