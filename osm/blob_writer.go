package osm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

type blobKind int

const (
	blobData blobKind = iota
	blobHeader
)

func (k blobKind) typeString() string {
	if k == blobHeader {
		return "OSMHeader"
	}
	return "OSMData"
}

// serializeBlob is the pure BlobSerializer function: it compresses payload,
// wraps the result in a Blob and BlobHeader, and frames both behind a
// 4-byte big-endian BlobHeader size, ready to append to the output file.
// Safe to call from any worker; it mutates nothing but its inputs. When
// verify is set, a zlib-compressed blob is decompressed immediately and
// compared against payload before being handed back.
func serializeBlob(kind blobKind, payload []byte, c Compression, level int, verify bool) ([]byte, error) {
	if len(payload) > maxBlobSizeHard {
		return nil, &EncodingError{Msg: fmt.Sprintf("blob payload %d bytes exceeds the %d byte hard ceiling", len(payload), maxBlobSizeHard)}
	}

	comp := newCompressor(c)
	compressed, err := comp.compress(level, payload)
	if err != nil {
		return nil, &CompressionError{Codec: fmt.Sprintf("%T", comp), Err: err}
	}

	if verify && c == CompressionZlib {
		if err := verifyZlibRoundTrip(payload, compressed); err != nil {
			return nil, err
		}
	}

	blob := newBuilder(len(compressed) + 16)
	if c == CompressionNone {
		blob = blob.bytesField(fieldBlobRaw, compressed)
	} else {
		blob = blob.int32(fieldBlobRawSize, int32(len(payload)))
		blob = blob.bytesField(comp.blobField(), compressed)
	}

	header := newBuilder(32)
	header = header.stringField(fieldBlobHeaderType, kind.typeString())
	header = header.int32(fieldBlobHeaderDatasize, int32(len(blob)))

	out := make([]byte, 4, 4+len(header)+len(blob))
	binary.BigEndian.PutUint32(out, uint32(len(header)))
	out = append(out, header...)
	out = append(out, blob...)
	return out, nil
}

// verifyZlibRoundTrip decompresses a just-produced zlib payload with the
// same reader the decode path (parser.go's block()) uses and checks it
// reproduces the pre-compression bytes exactly.
func verifyZlibRoundTrip(payload, compressed []byte) error {
	r, err := newZlibReader(bytes.NewReader(compressed))
	if err != nil {
		return &CompressionError{Codec: "zlib", Err: err}
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		return &CompressionError{Codec: "zlib", Err: err}
	}
	if !bytes.Equal(got, payload) {
		return &CompressionError{Codec: "zlib", Err: fmt.Errorf("decompressed %d bytes, want %d", len(got), len(payload))}
	}
	return nil
}
