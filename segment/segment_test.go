package segment

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmrMurad1/LSM-Store/shared"
)

func entry(k, v string) shared.Entry {
	return shared.Entry{Key: shared.Key(k), Value: []byte(v)}
}

func tombstone(k string) shared.Entry {
	return shared.Entry{Key: shared.Key(k), Tombstone: true}
}

func TestCreateAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment_00000000000000001.sst")
	seg, err := Create(path, []shared.Entry{
		entry("banana", "2"),
		entry("apple", "1"),
		entry("cherry", "3"),
	})
	require.NoError(t, err)
	defer seg.Close()

	for k, want := range map[string]string{"apple": "1", "banana": "2", "cherry": "3"} {
		e, err := seg.Get(shared.Key(k))
		require.NoError(t, err)
		require.NotNil(t, e, "key %s", k)
		assert.Equal(t, want, string(e.Value))
		assert.False(t, e.Tombstone)
	}

	// Absent keys: below the range, between records, beyond the range.
	for _, k := range []string{"aaa", "blueberry", "durian"} {
		e, err := seg.Get(shared.Key(k))
		require.NoError(t, err)
		assert.Nil(t, e, "key %s", k)
	}
}

func TestFixedWidthLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment_00000000000000001.sst")
	seg, err := Create(path, []shared.Entry{
		entry("a", "1"),
		entry("bb", "a much longer value"),
		tombstone("c"),
	})
	require.NoError(t, err)
	defer seg.Close()

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(b)
	require.True(t, strings.HasPrefix(content, "FMT1 "))

	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	header := lines[0]
	require.Len(t, header, headerSize-1)

	maxLen, err := strconv.ParseInt(header[len("FMT1 "):], 16, 64)
	require.NoError(t, err)

	// Every record occupies exactly maxLen+1 bytes, so offsets are pure
	// arithmetic.
	records := lines[1:]
	require.Len(t, records, 3)
	for _, r := range records {
		assert.Len(t, r, int(maxLen))
	}
	assert.Equal(t, int64(headerSize)+3*(maxLen+1), int64(len(b)))
}

func TestGetReturnsTombstonesRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment_00000000000000001.sst")
	seg, err := Create(path, []shared.Entry{entry("a", "1"), tombstone("b")})
	require.NoError(t, err)
	defer seg.Close()

	e, err := seg.Get("b")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.True(t, e.Tombstone)
}

func TestLegacyScan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment_00000000000000001.sst")
	content := `{"k":"apple","v":"1"}` + "\n" +
		`{"k":"banana","v":"__TOMBSTONE__"}` + "\n" +
		`{"k":"cherry","v":"3"}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	seg, err := Open(path)
	require.NoError(t, err)
	defer seg.Close()

	e, err := seg.Get("apple")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "1", string(e.Value))

	// The old value sentinel reads back as a tagged tombstone.
	e, err = seg.Get("banana")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.True(t, e.Tombstone)

	e, err = seg.Get("blueberry")
	require.NoError(t, err)
	assert.Nil(t, e)

	e, err = seg.Get("zzz")
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestOpenCorruptLegacy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment_00000000000000001.sst")
	content := `{"k":"a","v":"1"}` + "\n" + "definitely not json\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestCorruptRecordSurfacesOnGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment_00000000000000001.sst")
	seg, err := Create(path, []shared.Entry{
		entry("apple", "1"),
		entry("banana", "2"),
		entry("cherry", "3"),
	})
	require.NoError(t, err)
	defer seg.Close()

	// Scribble over the record area after open. The lookup must report
	// corruption, never a silent "absent".
	stat, err := os.Stat(path)
	require.NoError(t, err)
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteAt(bytes.Repeat([]byte("x"), int(stat.Size())-headerSize), headerSize)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = seg.Get("banana")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestIterOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment_00000000000000001.sst")
	seg, err := Create(path, []shared.Entry{
		entry("c", "3"),
		tombstone("b"),
		entry("a", "1"),
	})
	require.NoError(t, err)
	defer seg.Close()

	var keys []shared.Key
	it := seg.Iter()
	for {
		e, err := it.Next()
		require.NoError(t, err)
		if e == nil {
			break
		}
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []shared.Key{"a", "b", "c"}, keys)
}

func TestEmptySegment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment_00000000000000001.sst")
	seg, err := Create(path, nil)
	require.NoError(t, err)
	defer seg.Close()

	e, err := seg.Get("anything")
	require.NoError(t, err)
	assert.Nil(t, e)

	it := seg.Iter()
	next, err := it.Next()
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestRoundTripArbitraryBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment_00000000000000001.sst")
	value := "line1\nline2\ttabbed \"quoted\""
	seg, err := Create(path, []shared.Entry{entry("weird", value)})
	require.NoError(t, err)
	defer seg.Close()

	// The encoded line must not contain a raw newline or the fixed stride
	// breaks.
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, strings.Split(strings.TrimSuffix(string(b), "\n"), "\n"), 2)

	e, err := seg.Get("weird")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, value, string(e.Value))
}

// decodeFileKeys parses every record line of a segment file, header skipped.
func decodeFileKeys(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var keys []string
	for _, line := range strings.Split(string(b), "\n") {
		if line == "" || strings.HasPrefix(line, "FMT1 ") {
			continue
		}
		var r struct {
			K string `json:"k"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &r))
		keys = append(keys, r.K)
	}
	return keys
}

func TestCreateSortsAndKeepsKeysUnique(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment_00000000000000001.sst")
	seg, err := Create(path, []shared.Entry{
		entry("delta", "4"),
		entry("alpha", "1"),
		entry("charlie", "3"),
		entry("bravo", "2"),
	})
	require.NoError(t, err)
	defer seg.Close()

	keys := decodeFileKeys(t, path)
	require.Len(t, keys, 4)
	for i := 1; i < len(keys); i++ {
		assert.Less(t, keys[i-1], keys[i], "keys must be strictly ascending")
	}
}
