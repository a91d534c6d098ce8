package segment

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/AmrMurad1/LSM-Store/shared"
)

// Manager holds the store's ordered set of open segments. It is the
// in-memory manifest: the filesystem is consulted once at startup and the
// segment list is authoritative afterwards.
type Manager struct {
	mu       sync.RWMutex
	dir      string
	segments []*Segment // oldest first
}

func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Leftover temp files from an interrupted write are garbage.
	stale, _ := filepath.Glob(filepath.Join(dir, FilePrefix+"*"+FileExt+".tmp.*"))
	for _, path := range stale {
		log.Printf("removing stale temp file %s", filepath.Base(path))
		os.Remove(path)
	}

	files, err := filepath.Glob(filepath.Join(dir, FilePrefix+"*"+FileExt))
	if err != nil {
		return nil, err
	}
	// Ascending filename order is creation order: names embed a fixed-width
	// microsecond timestamp.
	sort.Strings(files)

	m := &Manager{dir: dir}
	for _, path := range files {
		seg, err := Open(path)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("open segment %s: %w", filepath.Base(path), err)
		}
		m.segments = append(m.segments, seg)
	}

	log.Printf("segment layout: %d segments", len(m.segments))
	return m, nil
}

// Get probes segments newest to oldest and returns the first raw hit,
// tombstones included.
func (m *Manager) Get(key shared.Key) (*shared.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.segments) - 1; i >= 0; i-- {
		e, err := m.segments[i].Get(key)
		if err != nil {
			return nil, err
		}
		if e != nil {
			return e, nil
		}
	}
	return nil, nil
}

// Add registers a freshly flushed segment as the newest generation.
func (m *Manager) Add(seg *Segment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.segments = append(m.segments, seg)
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.segments)
}

// NextPath returns an unused path for a flush output. Names embed the
// current microsecond timestamp, zero-padded so lexicographic order equals
// creation order; on a collision the timestamp is bumped until free.
func (m *Manager) NextPath() string {
	return m.nextPath("")
}

func (m *Manager) nextPath(mark string) string {
	ts := time.Now().UnixMicro()
	for {
		stem := fmt.Sprintf("%s%017d", FilePrefix, ts)
		// Any existing name on this timestamp counts as a collision,
		// plain or compacted: "_compacted" sorts after ".sst", so a
		// flush sharing a compaction's timestamp would rank older than
		// the compacted file on the next startup scan. Bumping until
		// the timestamp itself is unused keeps ordering purely on the
		// timestamp.
		matches, _ := filepath.Glob(filepath.Join(m.dir, stem+"*"+FileExt))
		if len(matches) == 0 {
			return filepath.Join(m.dir, stem+mark+FileExt)
		}
		ts++
	}
}

// Replay folds every segment's entries, oldest to newest, into one map.
// Later generations overwrite earlier ones, so the result is the same
// newest-wins view that reads produce. Tombstones are retained.
func (m *Manager) Replay() (map[shared.Key]shared.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.replayLocked()
}

func (m *Manager) replayLocked() (map[shared.Key]shared.Entry, error) {
	merged := make(map[shared.Key]shared.Entry)
	for _, seg := range m.segments {
		it := seg.Iter()
		for {
			e, err := it.Next()
			if err != nil {
				return nil, fmt.Errorf("replay %s: %w", filepath.Base(seg.path), err)
			}
			if e == nil {
				break
			}
			merged[e.Key] = *e
		}
	}
	return merged, nil
}

// CompactAll merges every segment into a single new one, dropping keys whose
// final state is a tombstone, then deletes the inputs. Input files are only
// removed after the replacement is durably written and opened.
func (m *Manager) CompactAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.segments) == 0 {
		return nil
	}

	merged, err := m.replayLocked()
	if err != nil {
		return err
	}

	live := make([]shared.Entry, 0, len(merged))
	for _, e := range merged {
		if !e.Tombstone {
			live = append(live, e)
		}
	}

	path := m.nextPath(CompactedMark)
	seg, err := Create(path, live)
	if err != nil {
		return fmt.Errorf("compaction failed: %w", err)
	}

	old := m.segments
	m.segments = []*Segment{seg}

	for _, s := range old {
		if err := s.Remove(); err != nil {
			// The new segment sorts newest, so a leftover input stays
			// shadowed even if it survives until the next startup scan.
			log.Printf("compaction: could not remove %s: %v", filepath.Base(s.path), err)
		}
	}

	log.Printf("compacted %d segments into %s", len(old), filepath.Base(path))
	return nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for _, seg := range m.segments {
		if err := seg.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.segments = nil
	return firstErr
}
