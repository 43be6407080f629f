package osm

// deltaEncoder is a stateful scalar: update(x) returns x minus the
// previously seen value and remembers x for next time. Zero value starts
// from a previous value of 0, matching the delta encoders osmium resets at
// every block boundary.
type deltaEncoder struct {
	prev int64
}

func (d *deltaEncoder) update(x int64) int64 {
	delta := x - d.prev
	d.prev = x
	return delta
}

func (d *deltaEncoder) reset() {
	d.prev = 0
}

// lonlat2int converts a coordinate in degrees to the fixed-point integer
// representation used on the wire: round(coord * lonlatResolution). The
// reader multiplies by granularity when expanding offset+granularity*raw back
// to degrees (parser.go's nodes()), so the raw value stored here must not
// itself be pre-divided by granularity — granularity only scales the
// delta-decoded values at read time, same as lonlatResolutionInt in
// header.go for the bbox fields.
func lonlat2int(deg float64) int64 {
	v := deg * lonlatResolution
	if v < 0 {
		return int64(v - 0.5)
	}
	return int64(v + 0.5)
}
