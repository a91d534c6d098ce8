package main

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/AmrMurad1/LSM-Store/memtable"
	"github.com/AmrMurad1/LSM-Store/segment"
	"github.com/AmrMurad1/LSM-Store/shared"
)

// ErrNotFound is returned by Get when the key does not exist or was deleted.
var ErrNotFound = errors.New("key not found")

// DefaultMemtableLimit is the flush threshold used when the caller passes 0.
const DefaultMemtableLimit = 1024

// Store is the LSM engine: one mutable memtable in front of the ordered set
// of immutable on-disk segments.
//
// Concurrency contract: Put, Delete, Flush and CompactAll serialize behind
// the write lock; Gets share the read lock, so they run concurrently with
// each other and can never observe compaction swapping the segment list or
// race a segment file deletion.
type Store struct {
	mu       sync.RWMutex
	memtable *memtable.Memtable
	segments *segment.Manager
	dir      string
}

func NewStore(dir string, memtableLimit int) (*Store, error) {
	if memtableLimit <= 0 {
		memtableLimit = DefaultMemtableLimit
	}

	segments, err := segment.NewManager(dir)
	if err != nil {
		log.Printf("setup failed: %v", err)
		return nil, err
	}

	log.Printf("opened store at %s", dir)
	return &Store{
		memtable: memtable.New(memtableLimit),
		segments: segments,
		dir:      dir,
	}, nil
}

func (s *Store) Close() error {
	return s.segments.Close()
}

// Get returns the current value of the key. A tombstone anywhere, memtable
// or segment, means ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.memtable.Get(shared.Key(key)); ok {
		if e.Tombstone {
			return "", ErrNotFound
		}
		return string(e.Value), nil
	}

	e, err := s.segments.Get(shared.Key(key))
	if err != nil {
		return "", err
	}
	if e == nil || e.Tombstone {
		return "", ErrNotFound
	}
	return string(e.Value), nil
}

// Put writes to the memtable and synchronously flushes it when the size
// threshold is crossed, so a Put may incur file-write latency.
func (s *Store) Put(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.memtable.Put(shared.Key(key), []byte(value))
	if s.memtable.Full() {
		return s.flushLocked()
	}
	return nil
}

// Delete writes a tombstone for the key.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.memtable.Delete(shared.Key(key))
	if s.memtable.Full() {
		return s.flushLocked()
	}
	return nil
}

// Flush writes the memtable, tombstones included, to a new segment. No-op
// when the memtable is empty.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	entries := s.memtable.All()
	if len(entries) == 0 {
		return nil
	}

	path := s.segments.NextPath()
	log.Printf("flushing %d entries to disk...", len(entries))

	seg, err := segment.Create(path, entries)
	if err != nil {
		// Memtable stays intact: nothing was registered, nothing is lost.
		return fmt.Errorf("flush: %w", err)
	}

	s.segments.Add(seg)
	s.memtable.Clear()
	return nil
}

// CompactAll flushes the memtable and folds every segment into a single one,
// reclaiming overwritten values and resolved deletions. No Get result
// changes across the call.
func (s *Store) CompactAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flushLocked(); err != nil {
		return err
	}
	return s.segments.CompactAll()
}
