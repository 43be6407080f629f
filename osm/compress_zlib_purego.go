//go:build !cgo

package osm

import (
	"bytes"
	"fmt"

	zlib "github.com/4kills/go-zlib"
	"google.golang.org/protobuf/encoding/protowire"
)

type zlibCompressor struct{}

func (zlibCompressor) compress(level int, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w *zlib.Writer
	var err error
	if level == 0 {
		w = zlib.NewWriter(&buf)
	} else {
		w, err = zlib.NewWriterLevel(&buf, level)
	}
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	return buf.Bytes(), nil
}

func (zlibCompressor) blobField() protowire.Number {
	return fieldBlobZlib
}
