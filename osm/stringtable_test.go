package osm

import "testing"

func TestStringTableEmptyIsIndexZero(t *testing.T) {
	st := newStringTable()
	if st.entries[0] != "" {
		t.Errorf("index 0 should be the empty string, got %q", st.entries[0])
	}
	if i := st.add(""); i != 0 {
		t.Errorf("adding the empty string again should return 0, got %d", i)
	}
}

func TestStringTableDedup(t *testing.T) {
	st := newStringTable()
	a := st.add("highway")
	b := st.add("residential")
	c := st.add("highway")
	if a != c {
		t.Errorf("expected re-adding %q to return the same index, got %d and %d", "highway", a, c)
	}
	if a == b {
		t.Errorf("expected distinct strings to get distinct indices")
	}
	if st.size() <= 0 {
		t.Errorf("expected a positive serialized size estimate")
	}
}

func TestStringTableClear(t *testing.T) {
	st := newStringTable()
	st.add("foo")
	st.add("bar")
	st.clear()
	if len(st.entries) != 1 {
		t.Errorf("clear should leave only the empty string, got %d entries", len(st.entries))
	}
	if i := st.add("foo"); i != 1 {
		t.Errorf("expected reinserted string to land back at index 1, got %d", i)
	}
}

func TestStringTableSerializeRoundTrip(t *testing.T) {
	st := newStringTable()
	st.add("a")
	st.add("b")
	data := st.serialize()

	i := 0
	seen := 0
	for i < len(data) {
		field, wireType, n := readField(data[i:])
		if n == 0 || field != uint64(fieldStringTableS) || wireType != 2 {
			t.Fatalf("expected StringTable field %d, got field %d wiretype %d", fieldStringTableS, field, wireType)
		}
		i += n
		size, n := readVarint(data[i:])
		i += n
		i += int(size)
		seen++
	}
	if seen != len(st.entries) {
		t.Errorf("expected %d serialized strings, got %d", len(st.entries), seen)
	}
}
