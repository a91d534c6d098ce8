package segment

import (
	"bufio"
	"bytes"
	"io"

	"github.com/AmrMurad1/LSM-Store/shared"
)

const maxRecordLine = 1 << 20

// Iterator yields a segment's entries in file order, which is key order.
// It reads through its own section reader, so concurrent iterators over the
// same segment do not interfere.
type Iterator struct {
	sc     *bufio.Scanner
	legacy bool
}

func (s *Segment) Iter() *Iterator {
	start := int64(0)
	if s.fixedWidth {
		start = headerSize
	}
	sc := bufio.NewScanner(io.NewSectionReader(s.file, start, s.size-start))
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordLine)
	return &Iterator{sc: sc, legacy: !s.fixedWidth}
}

// Next returns the next decoded entry, or nil at end of file.
func (it *Iterator) Next() (*shared.Entry, error) {
	for it.sc.Scan() {
		line := it.sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		e, err := decodeRecord(line, it.legacy)
		if err != nil {
			return nil, err
		}
		return &e, nil
	}
	if err := it.sc.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}
