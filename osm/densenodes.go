package osm

import "fmt"

// denseNodes packs a run of nodes into the parallel columnar arrays the
// DenseNodes wire message expects. It is lazily allocated by the first node
// added to a block and dropped on flush.
type denseNodes struct {
	ids []int64

	versions   []int32
	timestamps []int64
	changesets []int64
	uids       []int32
	userSids   []int32
	visibles   []bool

	lats, lons []int64
	keyVals    []int32 // flattened (key_sid, val_sid) pairs, terminated per-node by a 0 sentinel

	stringTable *stringTable
	meta        MetadataFlags

	deltaID        deltaEncoder
	deltaTimestamp deltaEncoder
	deltaChangeset deltaEncoder
	deltaUid       deltaEncoder
	deltaUserSid   deltaEncoder
	deltaLat       deltaEncoder
	deltaLon       deltaEncoder
}

func newDenseNodes(st *stringTable, meta MetadataFlags) *denseNodes {
	return &denseNodes{stringTable: st, meta: meta}
}

// size approximates the in-memory footprint of the packed columns. This is
// the cheap heuristic the rollover predicate uses; it need not be exact as
// long as the hard 32MiB ceiling is never exceeded downstream.
func (d *denseNodes) size() int {
	return 3 * 8 * len(d.ids)
}

func (d *denseNodes) addNode(n Node) error {
	if d.meta.any() && n.Info != nil {
		if d.meta.Version && n.Info.Version > maxInt32 {
			return &EncodingError{Msg: fmt.Sprintf("node %d: version %d exceeds INT32_MAX", n.ID, n.Info.Version)}
		}
		if d.meta.Uid && n.Info.Uid > maxInt32 {
			return &EncodingError{Msg: fmt.Sprintf("node %d: uid %d exceeds INT32_MAX", n.ID, n.Info.Uid)}
		}
	}

	d.ids = append(d.ids, d.deltaID.update(int64(n.ID)))

	if d.meta.any() && n.Info != nil {
		info := n.Info
		if d.meta.Version {
			d.versions = append(d.versions, int32(info.Version))
		}
		if d.meta.Timestamp {
			d.timestamps = append(d.timestamps, d.deltaTimestamp.update(info.Timestamp.Unix()))
		}
		if d.meta.Changeset {
			d.changesets = append(d.changesets, d.deltaChangeset.update(info.Changeset))
		}
		if d.meta.Uid {
			d.uids = append(d.uids, int32(d.deltaUid.update(info.Uid)))
		}
		if d.meta.User {
			sid := int64(d.stringTable.add(info.User))
			d.userSids = append(d.userSids, int32(d.deltaUserSid.update(sid)))
		}
		if d.meta.AddVisible {
			d.visibles = append(d.visibles, info.Visible)
		}
	} else if d.meta.any() {
		// no Info on this node but the block carries metadata columns: pad
		// with the zero value so all DenseInfo arrays stay aligned with ids.
		if d.meta.Version {
			d.versions = append(d.versions, 0)
		}
		if d.meta.Timestamp {
			d.timestamps = append(d.timestamps, d.deltaTimestamp.update(0))
		}
		if d.meta.Changeset {
			d.changesets = append(d.changesets, d.deltaChangeset.update(0))
		}
		if d.meta.Uid {
			d.uids = append(d.uids, int32(d.deltaUid.update(0)))
		}
		if d.meta.User {
			sid := int64(d.stringTable.add(""))
			d.userSids = append(d.userSids, int32(d.deltaUserSid.update(sid)))
		}
		if d.meta.AddVisible {
			d.visibles = append(d.visibles, true)
		}
	}

	d.lats = append(d.lats, d.deltaLat.update(lonlat2int(n.Lat)))
	d.lons = append(d.lons, d.deltaLon.update(lonlat2int(n.Lon)))

	for _, tag := range n.Tags {
		d.keyVals = append(d.keyVals, int32(d.stringTable.add(tag.Key)), int32(d.stringTable.add(tag.Val)))
	}
	d.keyVals = append(d.keyVals, 0)
	return nil
}

// serialize emits the DenseNodes message: ids, optional DenseInfo, lats,
// lons, then the flattened keys_vals array, in that field order.
func (d *denseNodes) serialize() []byte {
	b := newBuilder(d.size())
	b = b.bytesField(fieldDenseIDs, packedSint64(d.ids))

	if d.meta.any() {
		info := newBuilder(len(d.ids) * 4)
		if d.meta.Version {
			info = info.bytesField(fieldDenseInfoVersion, packedInt32(d.versions))
		}
		if d.meta.Timestamp {
			info = info.bytesField(fieldDenseInfoTimestamp, packedSint64(d.timestamps))
		}
		if d.meta.Changeset {
			info = info.bytesField(fieldDenseInfoChangeset, packedSint64(d.changesets))
		}
		if d.meta.Uid {
			info = info.bytesField(fieldDenseInfoUid, packedSint64(int32sToInt64s(d.uids)))
		}
		if d.meta.User {
			info = info.bytesField(fieldDenseInfoUserSid, packedSint64(int32sToInt64s(d.userSids)))
		}
		if d.meta.AddVisible {
			info = info.bytesField(fieldDenseInfoVisible, packedBool(d.visibles))
		}
		b = b.message(fieldDenseInfo, info)
	}

	b = b.bytesField(fieldDenseLats, packedSint64(d.lats))
	b = b.bytesField(fieldDenseLons, packedSint64(d.lons))
	b = b.bytesField(fieldDenseKeyVals, packedInt32(d.keyVals))
	return b
}

func int32sToInt64s(xs []int32) []int64 {
	ys := make([]int64, len(xs))
	for i, x := range xs {
		ys[i] = int64(x)
	}
	return ys
}
