package osm

// stringTable is an insertion-ordered, deduplicating dictionary rooted at
// index 1; index 0 is always the empty string and is pre-inserted at
// construction and after every clear.
type stringTable struct {
	entries []string
	index   map[string]uint32
}

func newStringTable() *stringTable {
	t := &stringTable{
		entries: make([]string, 1, 64),
		index:   make(map[string]uint32, 64),
	}
	t.entries[0] = ""
	t.index[""] = 0
	return t
}

// add returns s's index, inserting it at the end if not already present.
func (t *stringTable) add(s string) uint32 {
	if i, ok := t.index[s]; ok {
		return i
	}
	i := uint32(len(t.entries))
	t.entries = append(t.entries, s)
	t.index[s] = i
	return i
}

// size estimates the serialized footprint of the table in bytes.
func (t *stringTable) size() int {
	n := 0
	for _, s := range t.entries {
		n += len(s) + 2
	}
	return n
}

// serialize emits the StringTable message: repeated bytes s, in insertion order.
func (t *stringTable) serialize() []byte {
	b := newBuilder(t.size())
	for _, s := range t.entries {
		b = b.stringField(fieldStringTableS, s)
	}
	return b
}

func (t *stringTable) clear() {
	t.entries = t.entries[:1]
	for k := range t.index {
		delete(t.index, k)
	}
	t.index[""] = 0
}
