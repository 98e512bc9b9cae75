// Package cache stores finished translations so that a repeated query is
// served without parsing or translating it again.
//
// Entries are keyed by a 64-bit xxh3 digest of the NFC-normalized query
// text, the flavor, the encoding, the parameter values and the digest of
// the procedure signatures in force. Parameter values take part in the key
// because they can shape the traversal, for example a LIMIT $n or a
// pattern property map bound to a parameter. Signatures decide whether a
// CALL translates at all and what it yields.
//
// Three backends are available:
//   - memory: bounded LRU with TTL, lost on exit
//   - sqlite: a single-file table, survives restarts
//   - badger: an embedded key-value store with native TTL
//
// Only text encodings are cached. Native traversals hold Go functions and
// are rebuilt on every call.
package cache

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/cyphergremlin/internal/translate"
)

// Key identifies one translation request.
type Key struct {
	Query    string
	Flavor   string
	Encoding string
	Params   map[string]any

	// Procedures is the procedures.Snapshot digest the query is
	// translated against.
	Procedures uint64
}

// Sum returns the digest of k. Equivalent Unicode spellings of the query
// and different parameter map orderings produce the same digest.
func (k Key) Sum() (uint64, error) {
	params, err := json.Marshal(k.Params)
	if err != nil {
		return 0, fmt.Errorf("cache key params: %w", err)
	}
	h := xxh3.New()
	for _, part := range [][]byte{
		[]byte(norm.NFC.String(k.Query)),
		[]byte(k.Flavor),
		[]byte(k.Encoding),
		params,
		binary.LittleEndian.AppendUint64(nil, k.Procedures),
	} {
		h.Write(part)
		h.Write([]byte{0})
	}
	return h.Sum64(), nil
}

// Entry is a cached translation.
type Entry struct {
	Translation string                `json:"translation"`
	Columns     translate.ReturnTable `json:"columns"`
	Options     []string              `json:"options"`
}

func encodeEntry(e *Entry) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	return data, nil
}

func decodeEntry(data []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	return &e, nil
}

// Cache is a translation store. Implementations are safe for concurrent
// use.
type Cache interface {
	// Get returns the entry stored under key. A missing or expired entry
	// is reported as (nil, false, nil).
	Get(ctx context.Context, key uint64) (*Entry, bool, error)

	// Put stores e under key, replacing any previous entry.
	Put(ctx context.Context, key uint64, e *Entry) error

	// Stats returns the hit and miss counts since the cache was opened.
	Stats() Stats

	Close() error
}

// Stats counts lookups.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// HitRate returns hits / (hits + misses), or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type counters struct {
	hits   atomic.Uint64
	misses atomic.Uint64
}

func (c *counters) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
}

func (c *counters) stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Backend names.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Options configures Open.
type Options struct {
	Backend string
	Path    string        // database file (sqlite) or directory (badger)
	Size    int           // memory backend capacity
	TTL     time.Duration // 0 keeps entries until evicted
}

// Open creates the cache selected by opts.Backend. BackendNone and the
// empty name return nil, which callers treat as caching disabled.
func Open(opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendMemory:
		return NewMemory(opts.Size, opts.TTL), nil
	case BackendSQLite:
		return OpenSQLite(opts.Path, opts.TTL)
	case BackendBadger:
		return OpenBadger(opts.Path, opts.TTL)
	}
	return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
}
