package segment

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/AmrMurad1/LSM-Store/segment/filter"
	"github.com/AmrMurad1/LSM-Store/shared"
)

const bloomFalsePositiveRate = 0.01

// Segment is one immutable, sorted generation of key/value data on disk.
//
// Files carrying the fixed-width header are searched by offset arithmetic:
// record i starts at headerSize + i*recordLen. Headerless files are the
// legacy format and are read by a sequential scan.
type Segment struct {
	path       string
	file       *os.File
	size       int64
	fixedWidth bool
	recordLen  int64
	count      int64
	minKey     shared.Key
	maxKey     shared.Key
	filter     *filter.Filter
}

// Open reads the segment header and makes one pass over the file to build
// the in-memory bloom filter and key bounds.
func Open(path string) (*Segment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	s := &Segment{
		path: path,
		file: file,
		size: stat.Size(),
	}

	hdr := make([]byte, headerSize)
	if n, _ := file.ReadAt(hdr, 0); n == headerSize {
		s.parseHeader(hdr)
	}

	if err := s.load(); err != nil {
		file.Close()
		return nil, err
	}
	return s, nil
}

// parseHeader switches the segment into fixed-width mode when the header is
// well formed. Anything else leaves the segment in legacy scan mode.
func (s *Segment) parseHeader(hdr []byte) {
	if !bytes.HasPrefix(hdr, []byte(headerMagic)) || hdr[headerSize-1] != '\n' {
		return
	}
	maxLen, err := strconv.ParseUint(string(hdr[len(headerMagic):headerSize-1]), 16, 63)
	if err != nil {
		return
	}
	s.fixedWidth = true
	s.recordLen = int64(maxLen) + 1
}

func (s *Segment) load() error {
	if s.fixedWidth {
		s.count = (s.size - headerSize) / s.recordLen
	}

	var keys []string
	it := s.Iter()
	for {
		e, err := it.Next()
		if err != nil {
			return fmt.Errorf("segment %s: %w", s.path, err)
		}
		if e == nil {
			break
		}
		if len(keys) == 0 {
			s.minKey = e.Key
		}
		s.maxKey = e.Key
		keys = append(keys, string(e.Key))
	}
	if !s.fixedWidth {
		s.count = int64(len(keys))
	}

	s.filter = filter.New(len(keys), bloomFalsePositiveRate)
	if s.filter != nil {
		for _, k := range keys {
			s.filter.Add(k)
		}
	}
	return nil
}

// Get returns the raw stored entry for the key, tombstones included, or nil
// when the segment has no record for it. Translating tombstones to "absent"
// is the store's job, not the segment's.
func (s *Segment) Get(key shared.Key) (*shared.Entry, error) {
	if s.count == 0 || key < s.minKey || key > s.maxKey {
		return nil, nil
	}
	if s.filter != nil && !s.filter.Contains(string(key)) {
		return nil, nil
	}
	if s.fixedWidth {
		return s.search(key)
	}
	return s.scan(key)
}

func (s *Segment) search(key shared.Key) (*shared.Entry, error) {
	low, high := int64(0), s.count-1
	buf := make([]byte, s.recordLen)

	for low <= high {
		mid := (low + high) / 2
		offset := int64(headerSize) + mid*s.recordLen
		if _, err := s.file.ReadAt(buf, offset); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, nil
			}
			return nil, fmt.Errorf("segment %s: %w", s.path, err)
		}

		e, err := decodeRecord(buf, false)
		if err != nil {
			return nil, fmt.Errorf("segment %s: %w", s.path, err)
		}

		switch shared.CompareKeys(e.Key, key) {
		case 0:
			return &e, nil
		case -1:
			low = mid + 1
		default:
			high = mid - 1
		}
	}
	return nil, nil
}

// scan is the legacy read path: walk the sorted file from the start and stop
// as soon as a key beyond the target shows up.
func (s *Segment) scan(key shared.Key) (*shared.Entry, error) {
	it := s.Iter()
	for {
		e, err := it.Next()
		if err != nil {
			return nil, fmt.Errorf("segment %s: %w", s.path, err)
		}
		if e == nil {
			return nil, nil
		}
		switch shared.CompareKeys(e.Key, key) {
		case 0:
			return e, nil
		case 1:
			return nil, nil
		}
	}
}

func (s *Segment) Path() string {
	return s.path
}

func (s *Segment) Close() error {
	return s.file.Close()
}

// Remove closes the segment and deletes its file. Used by compaction once
// the replacement segment is durable.
func (s *Segment) Remove() error {
	if err := s.file.Close(); err != nil {
		return err
	}
	return os.Remove(s.path)
}
