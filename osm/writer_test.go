package osm

import (
	"bytes"
	"testing"

	"github.com/tdewolff/test"
)

func TestWriterProducesHeaderAndDataBlobs(t *testing.T) {
	var buf bytes.Buffer
	opts, err := ParseOptions(nil)
	test.Error(t, err)

	w := NewWriter(&buf, opts)
	test.Error(t, w.WriteHeader(Header{Generator: "osm-test/1.0"}))
	test.Error(t, w.WriteNode(Node{ID: 1, Lat: 52.379189, Lon: 4.899431}))
	test.Error(t, w.WriteNode(Node{ID: 2, Lat: 52.379200, Lon: 4.899500}))
	test.Error(t, w.Close())

	blobs := readBlobHeaders(t, buf.Bytes())
	if len(blobs) < 2 {
		t.Fatalf("expected at least a header blob and one data blob, got %d", len(blobs))
	}
	test.T(t, blobs[0], "OSMHeader")
	for _, kind := range blobs[1:] {
		test.T(t, kind, "OSMData")
	}
}

func TestWriterRollsOverAtEntityCap(t *testing.T) {
	var buf bytes.Buffer
	opts, err := ParseOptions(nil)
	test.Error(t, err)

	w := NewWriter(&buf, opts)
	test.Error(t, w.WriteHeader(Header{}))
	for i := 0; i < maxEntitiesPerBlock+1; i++ {
		test.Error(t, w.WriteNode(Node{ID: uint64(i + 1), Lat: 0, Lon: 0}))
	}
	test.Error(t, w.Close())

	blobs := readBlobHeaders(t, buf.Bytes())
	dataBlobs := 0
	for _, kind := range blobs {
		if kind == "OSMData" {
			dataBlobs++
		}
	}
	if dataBlobs < 2 {
		t.Errorf("expected at least 2 data blobs after exceeding the entity cap, got %d", dataBlobs)
	}
}

func TestWriterNoEntitiesProducesHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	opts, err := ParseOptions(nil)
	test.Error(t, err)

	w := NewWriter(&buf, opts)
	test.Error(t, w.WriteHeader(Header{}))
	test.Error(t, w.Close())

	blobs := readBlobHeaders(t, buf.Bytes())
	test.T(t, len(blobs), 1)
	test.T(t, blobs[0], "OSMHeader")
}

func TestWriterProgressCallbackFiresOnFlush(t *testing.T) {
	var buf bytes.Buffer
	opts, err := ParseOptions(nil)
	test.Error(t, err)

	calls := 0
	w := NewWriter(&buf, opts, WithProgress(func(elapsed float64, msg string) {
		calls++
	}))
	test.Error(t, w.WriteHeader(Header{}))
	test.Error(t, w.WriteNode(Node{ID: 1}))
	test.Error(t, w.Close())

	if calls == 0 {
		t.Error("expected the progress callback to fire at least once")
	}
}

// readBlobHeaders walks the length-prefixed BlobHeader/Blob stream and
// returns each BlobHeader's type string, in file order.
func readBlobHeaders(t *testing.T, data []byte) []string {
	t.Helper()
	var kinds []string
	i := 0
	for i < len(data) {
		if i+4 > len(data) {
			t.Fatalf("truncated BlobHeader size prefix at offset %d", i)
		}
		headerSize := int(data[i])<<24 | int(data[i+1])<<16 | int(data[i+2])<<8 | int(data[i+3])
		i += 4
		if i+headerSize > len(data) {
			t.Fatalf("truncated BlobHeader at offset %d", i)
		}
		header := data[i : i+headerSize]
		i += headerSize

		var kind string
		j := 0
		for j < len(header) {
			field, wireType, n := readField(header[j:])
			if n == 0 {
				t.Fatalf("invalid BlobHeader field at offset %d", j)
			}
			j += n
			if wireType == 2 {
				size, n := readVarint(header[j:])
				j += n
				if field == uint64(fieldBlobHeaderType) {
					kind = string(header[j : j+int(size)])
				}
				j += int(size)
			} else {
				n := skipField(header[j:], wireType)
				j += n
			}
		}
		kinds = append(kinds, kind)

		// skip the Blob message itself: find its datasize field.
		datasize := blobDatasize(t, header)
		i += datasize
	}
	return kinds
}

func blobDatasize(t *testing.T, header []byte) int {
	t.Helper()
	j := 0
	for j < len(header) {
		field, wireType, n := readField(header[j:])
		if n == 0 {
			t.Fatalf("invalid BlobHeader field at offset %d", j)
		}
		j += n
		if wireType == 0 {
			v, n := readVarint(header[j:])
			j += n
			if field == uint64(fieldBlobHeaderDatasize) {
				return int(v)
			}
		} else {
			n := skipField(header[j:], wireType)
			j += n
		}
	}
	t.Fatal("BlobHeader missing datasize field")
	return 0
}
