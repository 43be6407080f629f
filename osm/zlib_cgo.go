//go:build cgo

package osm

import (
	"fmt"

	"github.com/datadog/czlib"
)

var newZlibReader = czlib.NewReader

func init() {
	fmt.Println("CGO!")
}
