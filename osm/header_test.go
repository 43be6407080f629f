package osm

import (
	"testing"
	"time"

	"github.com/tdewolff/test"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestEncodeHeaderBlockRequiredFeatures(t *testing.T) {
	opts, err := ParseOptions(nil)
	test.Error(t, err)

	data := encodeHeaderBlock(Header{}, opts)
	var features []string
	i := 0
	for i < len(data) {
		field, wireType, n := readField(data[i:])
		if n == 0 {
			t.Fatalf("invalid field at offset %d", i)
		}
		i += n
		size, n := readVarint(data[i:])
		i += n
		if field == uint64(fieldHeaderBlockRequiredFeatures) && wireType == 2 {
			features = append(features, string(data[i:i+int(size)]))
		}
		i += int(size)
	}

	found := false
	for _, f := range features {
		if f == requiredFeatureSchema {
			found = true
		}
	}
	if !found {
		t.Errorf("expected required feature %q, got %v", requiredFeatureSchema, features)
	}
}

func TestEncodeHeaderBlockDenseNodesFeature(t *testing.T) {
	opts, err := ParseOptions(nil) // DenseNodes defaults to true
	test.Error(t, err)

	data := encodeHeaderBlock(Header{}, opts)
	if !containsStringField(data, fieldHeaderBlockRequiredFeatures, "DenseNodes") {
		t.Error("expected \"DenseNodes\" among required_features when dense mode is on")
	}
}

func TestUnionBoundsEmpty(t *testing.T) {
	_, ok := unionBounds(nil)
	if ok {
		t.Error("expected ok=false for an empty box list")
	}
}

func TestUnionBoundsMerges(t *testing.T) {
	a := Bounds{{0, 0}, {1, 1}}
	b := Bounds{{-1, -1}, {0.5, 0.5}}
	u, ok := unionBounds([]Bounds{a, b})
	if !ok {
		t.Fatal("expected ok=true")
	}
	test.T(t, u[0].X, -1.0)
	test.T(t, u[0].Y, -1.0)
	test.T(t, u[1].X, 1.0)
	test.T(t, u[1].Y, 1.0)
}

func TestEncodeHeaderBlockReplicationFields(t *testing.T) {
	opts, err := ParseOptions(nil)
	test.Error(t, err)

	h := Header{
		ReplicationTimestamp:      time.Unix(1700000000, 0),
		ReplicationSequenceNumber: 42,
		ReplicationBaseURL:        "https://planet.example/replication/minute/",
	}
	data := encodeHeaderBlock(h, opts)
	if !containsVarintField(data, fieldHeaderBlockReplicationSeqNum) {
		t.Error("expected osmosis_replication_sequence_number field to be present")
	}
	if !containsStringField(data, fieldHeaderBlockReplicationBaseURL, h.ReplicationBaseURL) {
		t.Error("expected osmosis_replication_base_url field to carry the given URL")
	}
}

func containsStringField(data []byte, wantField protowire.Number, want string) bool {
	i := 0
	for i < len(data) {
		field, wireType, n := readField(data[i:])
		if n == 0 {
			return false
		}
		i += n
		if wireType == 2 {
			size, n := readVarint(data[i:])
			i += n
			if field == uint64(wantField) && string(data[i:i+int(size)]) == want {
				return true
			}
			i += int(size)
		} else {
			n := skipField(data[i:], wireType)
			i += n
		}
	}
	return false
}

func containsVarintField(data []byte, wantField protowire.Number) bool {
	i := 0
	for i < len(data) {
		field, wireType, n := readField(data[i:])
		if n == 0 {
			return false
		}
		i += n
		if wireType == 0 {
			_, n := readVarint(data[i:])
			if field == uint64(wantField) {
				return true
			}
			i += n
		} else {
			n := skipField(data[i:], wireType)
			i += n
		}
	}
	return false
}
