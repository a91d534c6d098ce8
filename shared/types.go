package shared

type Key string

// Entry is a single key/value record. A tombstone entry records a deletion
// and carries no value; it shadows older values of the key until compaction
// drops it.
type Entry struct {
	Key       Key
	Value     []byte
	Tombstone bool
}

// Size is the entry's contribution to the memtable's approximate byte size.
func (e Entry) Size() int {
	return len(e.Key) + len(e.Value)
}

func CompareKeys(k1, k2 Key) int {
	if k1 < k2 {
		return -1
	} else if k1 > k2 {
		return 1
	}
	return 0
}
