package osm

import "google.golang.org/protobuf/encoding/protowire"

// compressor turns a raw block payload into the codec-specific bytes that
// go into a Blob's compressed field, alongside the Blob field number that
// carries them.
type compressor interface {
	compress(level int, data []byte) ([]byte, error)
	blobField() protowire.Number
}

func newCompressor(c Compression) compressor {
	switch c {
	case CompressionZlib:
		return zlibCompressor{}
	case CompressionLZ4:
		return lz4Compressor{}
	default:
		// CompressionNone and any unrecognized value both fall through to
		// writing the raw payload.
		return noneCompressor{}
	}
}

type noneCompressor struct{}

func (noneCompressor) compress(_ int, data []byte) ([]byte, error) { return data, nil }
func (noneCompressor) blobField() protowire.Number                 { return fieldBlobRaw }
