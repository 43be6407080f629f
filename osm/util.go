package osm

// Coord is a single lon/lat (X, Y) point in degrees.
type Coord struct {
	X, Y float64
}

// Bounds is the [min,max] coordinate of a bounding box, used for HeaderBlock
// bbox encoding and Way.Locations.
type Bounds [2]Coord
