//go:build !cgo

package osm

import zlib "github.com/4kills/go-zlib"

var newZlibReader = zlib.NewReader
