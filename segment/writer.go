package segment

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/AmrMurad1/LSM-Store/shared"
	"github.com/google/uuid"
)

// Create writes the entries as a new fixed-width segment file at path and
// returns the opened segment. Keys must be unique (the store sources them
// from a memtable map); Create sorts them ascending.
//
// The file is written to a uuid-suffixed temp name in the same directory and
// renamed into place, so a failed or interrupted write never leaves a
// discoverable partial segment behind.
func Create(path string, entries []shared.Entry) (*Segment, error) {
	sorted := make([]shared.Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return shared.CompareKeys(sorted[i].Key, sorted[j].Key) < 0
	})

	maxLen := 0
	lines := make([][]byte, 0, len(sorted))
	for _, e := range sorted {
		line, err := encodeRecord(e)
		if err != nil {
			return nil, fmt.Errorf("encode record %q: %w", e.Key, err)
		}
		if len(line) > maxLen {
			maxLen = len(line)
		}
		lines = append(lines, line)
	}

	tmp := path + ".tmp." + uuid.NewString()
	file, err := os.Create(tmp)
	if err != nil {
		return nil, err
	}

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "%s%016x\n", headerMagic, maxLen)

	pad := bytes.Repeat([]byte{' '}, maxLen)
	for _, line := range lines {
		w.Write(line)
		w.Write(pad[:maxLen-len(line)])
		w.WriteByte('\n')
	}

	if err := w.Flush(); err != nil {
		return nil, discard(file, tmp, err)
	}
	if err := file.Sync(); err != nil {
		return nil, discard(file, tmp, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return nil, err
	}

	return Open(path)
}

func discard(file *os.File, tmp string, err error) error {
	file.Close()
	os.Remove(tmp)
	return err
}
