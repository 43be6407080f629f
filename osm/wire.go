package osm

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// builder appends protobuf wire-format fields to a byte buffer. It is the
// write-side counterpart of the manual field reader in parser.go: both
// avoid generated message types and operate directly on []byte using
// protowire for the varint/zigzag/tag plumbing.
type builder []byte

func newBuilder(sizeHint int) builder {
	return make(builder, 0, sizeHint)
}

func (b builder) varint(field protowire.Number, v uint64) builder {
	b = protowire.AppendTag(b, field, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func (b builder) int32(field protowire.Number, v int32) builder {
	return b.varint(field, uint64(uint32(v)))
}

func (b builder) int64(field protowire.Number, v int64) builder {
	return b.varint(field, uint64(v))
}

func (b builder) sint64(field protowire.Number, v int64) builder {
	return b.varint(field, protowire.EncodeZigZag(v))
}

func (b builder) boolField(field protowire.Number, v bool) builder {
	val := uint64(0)
	if v {
		val = 1
	}
	return b.varint(field, val)
}

func (b builder) bytesField(field protowire.Number, v []byte) builder {
	b = protowire.AppendTag(b, field, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func (b builder) stringField(field protowire.Number, v string) builder {
	return b.bytesField(field, []byte(v))
}

func (b builder) message(field protowire.Number, msg builder) builder {
	return b.bytesField(field, msg)
}

// packedVarint returns the concatenation of varint-encoded values — the
// payload of a `packed` repeated field, without its tag or length prefix.
func packedVarint(values []uint64) []byte {
	buf := make([]byte, 0, len(values)*2)
	for _, v := range values {
		buf = protowire.AppendVarint(buf, v)
	}
	return buf
}

func packedSint64(values []int64) []byte {
	buf := make([]byte, 0, len(values)*2)
	for _, v := range values {
		buf = protowire.AppendVarint(buf, protowire.EncodeZigZag(v))
	}
	return buf
}

func packedInt32(values []int32) []byte {
	buf := make([]byte, 0, len(values)*2)
	for _, v := range values {
		buf = protowire.AppendVarint(buf, uint64(uint32(v)))
	}
	return buf
}

func packedUint32(values []uint32) []byte {
	buf := make([]byte, 0, len(values)*2)
	for _, v := range values {
		buf = protowire.AppendVarint(buf, uint64(v))
	}
	return buf
}

func packedBool(values []bool) []byte {
	buf := make([]byte, 0, len(values))
	for _, v := range values {
		n := uint64(0)
		if v {
			n = 1
		}
		buf = protowire.AppendVarint(buf, n)
	}
	return buf
}
