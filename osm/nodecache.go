package osm

import "math"

// nodeLocationCache remembers each node's coordinates as WriteNode commits
// them, keyed by node id in the same Map the teacher's Extract used for its
// selected-node lookups. WriteWay consults it to fill in locations_on_ways'
// per-ref lat/lon arrays when the caller didn't supply Way.Locations
// explicitly, mirroring osmium's location index: nodes must be written
// before the ways that reference them.
type nodeLocationCache struct {
	lats *Map
	lons *Map
}

func newNodeLocationCache() *nodeLocationCache {
	return &nodeLocationCache{
		lats: NewUint64Map(1024, 0.6),
		lons: NewUint64Map(1024, 0.6),
	}
}

func (c *nodeLocationCache) record(id uint64, lat, lon float64) {
	c.lats.Put(id, math.Float64bits(lat))
	c.lons.Put(id, math.Float64bits(lon))
}

func (c *nodeLocationCache) lookup(id uint64) (lat, lon float64, ok bool) {
	la, ok1 := c.lats.Get(id)
	lo, ok2 := c.lons.Get(id)
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	return math.Float64frombits(la), math.Float64frombits(lo), true
}
