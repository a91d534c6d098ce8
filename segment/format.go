package segment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AmrMurad1/LSM-Store/shared"
)

const (
	// headerMagic opens every fixed-width segment file. The full header is
	// the magic, a 16-digit lowercase hex encoding of the maximum record
	// line length, and a newline: always headerSize bytes, so record
	// offsets are computable without parsing anything else.
	headerMagic = "FMT1 "
	headerSize  = 22

	FilePrefix    = "segment_"
	FileExt       = ".sst"
	CompactedMark = "_compacted"

	// legacyTombstone is the value sentinel that headerless segment files
	// used to mark deletions before the tagged flag existed. It is
	// recognized on read only; the current format never writes it.
	legacyTombstone = "__TOMBSTONE__"
)

// ErrCorrupt reports a record that could not be decoded. It is never folded
// into a "not found" result: callers must be able to tell data loss apart
// from an absent key.
var ErrCorrupt = errors.New("corrupt segment record")

type record struct {
	K string `json:"k"`
	V string `json:"v,omitempty"`
	T bool   `json:"t,omitempty"`
}

// encodeRecord renders an entry as a single self-delimited JSON line with no
// embedded newline. json.Marshal escapes control characters, so arbitrary
// key and value bytes stay on one line.
func encodeRecord(e shared.Entry) ([]byte, error) {
	r := record{K: string(e.Key)}
	if e.Tombstone {
		r.T = true
	} else {
		r.V = string(e.Value)
	}
	return json.Marshal(r)
}

// decodeRecord parses one encoded line, trailing padding included. In legacy
// mode the old value sentinel is mapped onto the tombstone flag.
func decodeRecord(line []byte, legacy bool) (shared.Entry, error) {
	line = bytes.TrimRight(line, " \n")

	var r record
	if err := json.Unmarshal(line, &r); err != nil {
		return shared.Entry{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	e := shared.Entry{Key: shared.Key(r.K)}
	switch {
	case r.T:
		e.Tombstone = true
	case legacy && r.V == legacyTombstone:
		e.Tombstone = true
	default:
		e.Value = []byte(r.V)
	}
	return e, nil
}
