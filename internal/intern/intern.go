// Package intern provides process-wide hash-consing tables.
//
// A Table deduplicates structurally equal values into one shared allocation.
// Handles are plain pointers, so equality between interned values is pointer
// equality. Entries are held weakly: once the last handle is unreachable the
// garbage collector reclaims the value and the table forgets it.
package intern

import (
	"runtime"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/zeebo/xxh3"
)

// Ident carries the identity assigned to a value when it is interned.
// Embed it in every internable struct.
type Ident struct {
	id uint64
}

// ID returns the interning sequence number, or 0 for a value that was
// never interned. IDs are unique for the lifetime of the process but depend
// on interning order, so they must not leak into reproducible output.
func (i *Ident) ID() uint64 {
	if i == nil {
		return 0
	}
	return i.id
}

func (i *Ident) bind(id uint64) { i.id = id }

// Value is the constraint satisfied by pointers to internable structs.
// AppendKey appends a canonical encoding of the value's content; two values
// are interned to the same handle iff their keys are equal.
type Value[T any] interface {
	*T
	ID() uint64
	bind(uint64)
	AppendKey(b []byte) []byte
}

var nextID atomic.Uint64

type slot[T any] struct {
	id  uint64
	key string
	ptr weak.Pointer[T]
}

type cleanupKey struct {
	hash uint64
	id   uint64
}

// Table is a concurrent hash-consing table. The zero value is not usable;
// create tables with NewTable.
type Table[T any, P Value[T]] struct {
	name    string
	mu      sync.Mutex
	buckets map[uint64][]slot[T]
}

// NewTable creates an empty table. The name only appears in debug output.
func NewTable[T any, P Value[T]](name string) *Table[T, P] {
	return &Table[T, P]{
		name:    name,
		buckets: make(map[uint64][]slot[T]),
	}
}

// Intern returns the shared handle for v, allocating one if no live
// structurally equal value exists.
func (t *Table[T, P]) Intern(v T) P {
	key := P(&v).AppendKey(nil)
	h := xxh3.Hash(key)

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, s := range t.buckets[h] {
		if s.key != string(key) {
			continue
		}
		if p := s.ptr.Value(); p != nil {
			return P(p)
		}
	}

	p := new(T)
	*p = v
	id := nextID.Add(1)
	P(p).bind(id)
	t.buckets[h] = append(t.buckets[h], slot[T]{id: id, key: string(key), ptr: weak.Make(p)})
	runtime.AddCleanup(p, t.release, cleanupKey{hash: h, id: id})
	return P(p)
}

// Len reports the number of live entries.
func (t *Table[T, P]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, bucket := range t.buckets {
		for _, s := range bucket {
			if s.ptr.Value() != nil {
				n++
			}
		}
	}
	return n
}

// Name returns the table name.
func (t *Table[T, P]) Name() string { return t.name }

func (t *Table[T, P]) release(k cleanupKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	bucket := t.buckets[k.hash]
	kept := bucket[:0]
	for _, s := range bucket {
		if s.id != k.id {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		delete(t.buckets, k.hash)
		return
	}
	t.buckets[k.hash] = kept
}
