package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Badger keeps translations in an embedded Badger store. Expiry uses
// Badger's own entry TTL.
type Badger struct {
	db  *badger.DB
	ttl time.Duration

	counters
}

// OpenBadger opens the store in dir. An empty dir opens an in-memory
// store, which is useful in tests.
func OpenBadger(dir string, ttl time.Duration) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	// A cache holds small values; keep the footprint low.
	opts = opts.
		WithMemTableSize(8 << 20).
		WithValueLogFileSize(16 << 20).
		WithNumMemtables(2).
		WithNumLevelZeroTables(2).
		WithNumLevelZeroTablesStall(4)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger cache: %w", err)
	}
	return &Badger{db: db, ttl: ttl}, nil
}

func badgerKey(key uint64) []byte {
	k := make([]byte, 10)
	copy(k, "t:")
	binary.BigEndian.PutUint64(k[2:], key)
	return k
}

func (b *Badger) Get(_ context.Context, key uint64) (*Entry, bool, error) {
	var e *Entry
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var decodeErr error
			e, decodeErr = decodeEntry(val)
			return decodeErr
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		b.record(false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}
	b.record(true)
	return e, true, nil
}

func (b *Badger) Put(_ context.Context, key uint64, e *Entry) error {
	data, err := encodeEntry(e)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(badgerKey(key), data)
		if b.ttl > 0 {
			entry = entry.WithTTL(b.ttl)
		}
		return txn.SetEntry(entry)
	})
}

func (b *Badger) Stats() Stats { return b.stats() }

func (b *Badger) Close() error {
	return b.db.Close()
}
