package memtable

import (
	"sync"

	"github.com/AmrMurad1/LSM-Store/shared"
	"github.com/google/btree"
)

const treeOrder = 3

// Memtable is the in-memory write buffer. A hash map gives O(1) lookups and
// a btree over the keys keeps flush output sorted. The size counter tracks
// the approximate byte footprint, len(key)+len(value) per live entry.
type Memtable struct {
	mu      sync.RWMutex
	entries map[shared.Key]shared.Entry
	keys    *btree.BTreeG[shared.Key]
	size    int
	limit   int
}

func New(limit int) *Memtable {
	return &Memtable{
		entries: make(map[shared.Key]shared.Entry),
		keys:    btree.NewOrderedG[shared.Key](treeOrder),
		limit:   limit,
	}
}

func (m *Memtable) Put(key shared.Key, value []byte) {
	m.set(shared.Entry{Key: key, Value: value})
}

// Delete records a tombstone for the key. The entry shadows any older value
// in the segments until compaction drops it.
func (m *Memtable) Delete(key shared.Key) {
	m.set(shared.Entry{Key: key, Tombstone: true})
}

func (m *Memtable) set(e shared.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.entries[e.Key]; ok {
		m.size -= old.Size()
	} else {
		m.keys.ReplaceOrInsert(e.Key)
	}
	m.entries[e.Key] = e
	m.size += e.Size()
}

// Get returns the raw entry, tombstones included.
func (m *Memtable) Get(key shared.Key) (shared.Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	return e, ok
}

// Full reports whether the approximate size has reached the flush threshold.
func (m *Memtable) Full() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size >= m.limit
}

func (m *Memtable) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}

func (m *Memtable) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// All returns every entry sorted ascending by key, ready to be written as a
// segment.
func (m *Memtable) All() []shared.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]shared.Entry, 0, len(m.entries))
	m.keys.Ascend(func(k shared.Key) bool {
		all = append(all, m.entries[k])
		return true
	})
	return all
}

// Clear resets the memtable to empty. Called only after the contents are
// durably written to a segment.
func (m *Memtable) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[shared.Key]shared.Entry)
	m.keys = btree.NewOrderedG[shared.Key](treeOrder)
	m.size = 0
}
