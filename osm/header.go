package osm

import (
	"math"
	"time"
)

// Header is the input-side file header, mirroring the fields
// osmium::io::Header exposes through boxes()/get()/has_multiple_object_versions().
type Header struct {
	Boxes                     []Bounds
	Generator                 string
	Sorting                   string
	MultipleVersions          bool
	ReplicationTimestamp      time.Time
	ReplicationSequenceNumber int64
	ReplicationBaseURL        string
}

const requiredFeatureSchema = "OsmSchema-V0.6"

// encodeHeaderBlock builds the HeaderBlock message: an optional bbox union,
// required/optional feature strings, the writing program, and replication
// metadata — each emitted only when the corresponding input is present.
func encodeHeaderBlock(h Header, opts Options) []byte {
	b := newBuilder(256)

	if box, ok := unionBounds(h.Boxes); ok {
		bbox := newBuilder(48)
		bbox = bbox.sint64(fieldBBoxLeft, lonlatResolutionInt(box[0].X))
		bbox = bbox.sint64(fieldBBoxRight, lonlatResolutionInt(box[1].X))
		bbox = bbox.sint64(fieldBBoxTop, lonlatResolutionInt(box[1].Y))
		bbox = bbox.sint64(fieldBBoxBottom, lonlatResolutionInt(box[0].Y))
		b = b.message(fieldHeaderBlockBBox, bbox)
	}

	required := []string{requiredFeatureSchema}
	if opts.DenseNodes {
		required = append(required, "DenseNodes")
	}
	if opts.AddHistorical {
		required = append(required, "HistoricalInformation")
	}
	for _, f := range required {
		b = b.stringField(fieldHeaderBlockRequiredFeatures, f)
	}

	var optional []string
	if opts.LocationsOnWays {
		optional = append(optional, "LocationsOnWays")
	}
	if h.Sorting == "Type_then_ID" {
		optional = append(optional, "Sort.Type_then_ID")
	}
	for _, f := range optional {
		b = b.stringField(fieldHeaderBlockOptionalFeatures, f)
	}

	if h.Generator != "" {
		b = b.stringField(fieldHeaderBlockWritingProgram, h.Generator)
	}

	if !h.ReplicationTimestamp.IsZero() {
		b = b.int64(fieldHeaderBlockReplicationTimestamp, h.ReplicationTimestamp.Unix())
	}
	if h.ReplicationSequenceNumber != 0 {
		b = b.int64(fieldHeaderBlockReplicationSeqNum, h.ReplicationSequenceNumber)
	}
	if h.ReplicationBaseURL != "" {
		b = b.stringField(fieldHeaderBlockReplicationBaseURL, h.ReplicationBaseURL)
	}

	return b
}

// lonlatResolutionInt converts degrees straight to the bbox's 10^7 fixed
// point scale, the same undivided scale lonlat2int uses for node
// coordinates.
func lonlatResolutionInt(deg float64) int64 {
	v := deg * lonlatResolution
	if v < 0 {
		return int64(v - 0.5)
	}
	return int64(v + 0.5)
}

// unionBounds merges a set of boxes into their bounding union. Reports ok=false
// if boxes is empty.
func unionBounds(boxes []Bounds) (Bounds, bool) {
	if len(boxes) == 0 {
		return Bounds{}, false
	}
	u := boxes[0]
	for _, b := range boxes[1:] {
		u[0].X = math.Min(u[0].X, b[0].X)
		u[0].Y = math.Min(u[0].Y, b[0].Y)
		u[1].X = math.Max(u[1].X, b[1].X)
		u[1].Y = math.Max(u[1].Y, b[1].Y)
	}
	return u, true
}

