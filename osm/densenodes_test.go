package osm

import "testing"

func TestDenseNodesIDsDeltaEncoded(t *testing.T) {
	st := newStringTable()
	d := newDenseNodes(st, MetadataFlags{})
	d.addNode(Node{ID: 100, Lat: 52.0, Lon: 4.0})
	d.addNode(Node{ID: 150, Lat: 52.1, Lon: 4.1})
	d.addNode(Node{ID: 90, Lat: 52.2, Lon: 4.2})

	want := []int64{100, 50, -60}
	if len(d.ids) != len(want) {
		t.Fatalf("expected %d delta-encoded ids, got %d", len(want), len(d.ids))
	}
	for i, w := range want {
		if d.ids[i] != w {
			t.Errorf("id delta %d: got %d, want %d", i, d.ids[i], w)
		}
	}
}

func TestDenseNodesKeyValsSentinel(t *testing.T) {
	st := newStringTable()
	d := newDenseNodes(st, MetadataFlags{})
	d.addNode(Node{ID: 1, Tags: Tags{{Key: "amenity", Val: "cafe"}}})
	d.addNode(Node{ID: 2})

	if len(d.keyVals) != 4 {
		t.Fatalf("expected 4 entries (key, val, sentinel for first node plus sentinel for second), got %d", len(d.keyVals))
	}
	if d.keyVals[2] != 0 {
		t.Errorf("expected sentinel 0 after node 1's tags, got %d", d.keyVals[2])
	}
}

func TestDenseNodesNoMetadataColumnsWhenFlagsUnset(t *testing.T) {
	st := newStringTable()
	d := newDenseNodes(st, MetadataFlags{})
	d.addNode(Node{ID: 1, Info: &Info{Version: 3}})

	if len(d.versions) != 0 {
		t.Errorf("expected no version column when Metadata.Version is unset, got %d entries", len(d.versions))
	}
}

func TestDenseNodesSerializeIsWellFormed(t *testing.T) {
	st := newStringTable()
	d := newDenseNodes(st, MetadataFlags{})
	d.addNode(Node{ID: 1, Lat: 52.379189, Lon: 4.899431})
	data := d.serialize()

	i := 0
	fields := map[uint64]bool{}
	for i < len(data) {
		field, wireType, n := readField(data[i:])
		if n == 0 {
			t.Fatalf("invalid field at offset %d", i)
		}
		i += n
		if wireType != 2 {
			t.Fatalf("expected length-delimited field %d, got wire type %d", field, wireType)
		}
		size, n := readVarint(data[i:])
		i += n
		i += int(size)
		fields[field] = true
	}
	for _, want := range []uint64{uint64(fieldDenseIDs), uint64(fieldDenseLats), uint64(fieldDenseLons), uint64(fieldDenseKeyVals)} {
		if !fields[want] {
			t.Errorf("expected field %d in serialized DenseNodes, not found", want)
		}
	}
}
