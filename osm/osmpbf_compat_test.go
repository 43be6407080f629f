package osm

import (
	"bytes"
	"context"
	"testing"

	paulmach "github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/tdewolff/test"
)

// TestOSMPBFCompat round-trips a small synthetic dataset through this
// package's Writer and decodes the result with an independent decoder, the
// same library test/benchmarks.go times the reader against.
func TestOSMPBFCompat(t *testing.T) {
	var buf bytes.Buffer
	opts, err := ParseOptions(map[string]string{"add_metadata": "all"})
	test.Error(t, err)

	w := NewWriter(&buf, opts)
	test.Error(t, w.WriteHeader(Header{Generator: "osm-compat-test"}))
	test.Error(t, w.WriteNode(Node{
		ID: 1, Lat: 52.379189, Lon: 4.899431,
		Tags: Tags{{Key: "amenity", Val: "cafe"}},
		Info: &Info{Version: 1, Uid: 42, User: "tester"},
	}))
	test.Error(t, w.WriteNode(Node{ID: 2, Lat: 52.379500, Lon: 4.899800}))
	test.Error(t, w.WriteWay(Way{
		ID: 10, Refs: []uint64{1, 2}, Tags: Tags{{Key: "highway", Val: "residential"}},
	}))
	test.Error(t, w.WriteRelation(Relation{
		ID: 100, Members: []Member{{ID: 10, Type: WayType, Role: "outer"}},
		Tags: Tags{{Key: "type", Val: "multipolygon"}},
	}))
	test.Error(t, w.Close())

	scanner := osmpbf.New(context.Background(), bytes.NewReader(buf.Bytes()), 1)
	defer scanner.Close()

	var nodes, ways, relations int
	for scanner.Scan() {
		switch scanner.Object().(type) {
		case *paulmach.Node:
			nodes++
		case *paulmach.Way:
			ways++
		case *paulmach.Relation:
			relations++
		}
	}
	test.Error(t, scanner.Err())

	test.T(t, nodes, 2)
	test.T(t, ways, 1)
	test.T(t, relations, 1)
}
