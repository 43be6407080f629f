package osm

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// groupKind identifies which single entity kind a PrimitiveBlock's group
// currently holds. A block holds at most one kind at a time.
type groupKind int

const (
	groupUnset groupKind = iota
	groupDenseNodes
	groupNodes
	groupWays
	groupRelations
)

// primitiveBlock is the working block: a string table plus one group of a
// single entity kind, flushed to a Blob once it can't accept another entity
// of that kind.
type primitiveBlock struct {
	kind  groupKind
	count int

	strings *stringTable
	dense   *denseNodes
	group   builder // accumulated serialized Node/Way/Relation messages, non-dense kinds only

	opts Options
}

func newPrimitiveBlock(opts Options) *primitiveBlock {
	return &primitiveBlock{
		kind:    groupUnset,
		strings: newStringTable(),
		opts:    opts,
	}
}

// size estimates the block's accumulated wire footprint: the rollover
// predicate checks this against maxUsedBlobSize. It undercounts DenseInfo
// metadata and tag payloads, matching the C++ estimate this is grounded on.
func (p *primitiveBlock) size() int {
	n := p.strings.size() + len(p.group)
	if p.dense != nil {
		n += p.dense.size()
	}
	return n
}

// canAdd reports whether one more entity of kind can be appended without
// rolling the block over.
func (p *primitiveBlock) canAdd(kind groupKind) bool {
	if p.kind != groupUnset && p.kind != kind {
		return false
	}
	if p.count >= maxEntitiesPerBlock {
		return false
	}
	if p.size() >= maxUsedBlobSize {
		return false
	}
	return true
}

func (p *primitiveBlock) reset() {
	p.kind = groupUnset
	p.count = 0
	p.strings.clear()
	p.dense = nil
	p.group = p.group[:0]
}

func (p *primitiveBlock) addNode(n Node) error {
	if p.opts.DenseNodes {
		if p.kind == groupUnset {
			p.kind = groupDenseNodes
			p.dense = newDenseNodes(p.strings, p.opts.Metadata)
		}
		if err := p.dense.addNode(n); err != nil {
			return err
		}
	} else {
		p.kind = groupNodes
		b := newBuilder(64 + len(n.Tags)*8)
		b = b.int64(fieldNodeID, int64(n.ID))
		b, err := p.addMeta(b, n.Tags, n.Info, fieldNodeKeys, fieldNodeVals, fieldNodeInfo)
		if err != nil {
			return err
		}
		b = b.sint64(fieldNodeLat, lonlat2int(n.Lat))
		b = b.sint64(fieldNodeLon, lonlat2int(n.Lon))
		p.group = p.group.message(fieldGroupNodes, b)
	}
	p.count++
	return nil
}

func (p *primitiveBlock) addWay(w Way) error {
	p.kind = groupWays
	b := newBuilder(64 + len(w.Tags)*8 + len(w.Refs)*4)
	b = b.int64(fieldWayID, int64(w.ID))
	b, err := p.addMeta(b, w.Tags, w.Info, fieldWayKeys, fieldWayVals, fieldWayInfo)
	if err != nil {
		return err
	}

	refs := make([]int64, len(w.Refs))
	var delta deltaEncoder
	for i, ref := range w.Refs {
		refs[i] = delta.update(int64(ref))
	}
	b = b.bytesField(fieldWayRefs, packedSint64(refs))

	if p.opts.LocationsOnWays {
		lats := make([]int64, len(w.Locations))
		lons := make([]int64, len(w.Locations))
		var dlat, dlon deltaEncoder
		for i, loc := range w.Locations {
			lats[i] = dlat.update(lonlat2int(loc.Y))
			lons[i] = dlon.update(lonlat2int(loc.X))
		}
		b = b.bytesField(fieldWayLat, packedSint64(lats))
		b = b.bytesField(fieldWayLon, packedSint64(lons))
	}

	p.group = p.group.message(fieldGroupWays, b)
	p.count++
	return nil
}

func (p *primitiveBlock) addRelation(r Relation) error {
	p.kind = groupRelations
	b := newBuilder(64 + len(r.Tags)*8 + len(r.Members)*8)
	b = b.int64(fieldRelationID, int64(r.ID))
	b, err := p.addMeta(b, r.Tags, r.Info, fieldRelationKeys, fieldRelationVals, fieldRelationInfo)
	if err != nil {
		return err
	}

	rolesSid := make([]int32, len(r.Members))
	memids := make([]int64, len(r.Members))
	types := make([]int32, len(r.Members))
	var delta deltaEncoder
	for i, m := range r.Members {
		rolesSid[i] = int32(p.strings.add(m.Role))
		memids[i] = delta.update(int64(m.ID))
		types[i] = relationMemberType(m.Type)
	}
	b = b.bytesField(fieldRelationRolesSid, packedInt32(rolesSid))
	b = b.bytesField(fieldRelationMemids, packedSint64(memids))
	b = b.bytesField(fieldRelationTypes, packedInt32(types))

	p.group = p.group.message(fieldGroupRelations, b)
	p.count++
	return nil
}

// addMeta appends keys/vals string-table index arrays and, if any metadata
// flag is set, an Info sub-message — shared by the three non-dense entity
// encoders. Returns an EncodingError if version or uid doesn't fit the
// wire's int32 fields.
func (p *primitiveBlock) addMeta(b builder, tags Tags, info *Info, keysField, valsField, infoField protowire.Number) (builder, error) {
	keys := make([]uint32, len(tags))
	vals := make([]uint32, len(tags))
	for i, t := range tags {
		keys[i] = p.strings.add(t.Key)
		vals[i] = p.strings.add(t.Val)
	}
	b = b.bytesField(keysField, packedUint32(keys))
	b = b.bytesField(valsField, packedUint32(vals))

	if p.opts.Metadata.any() || p.opts.AddVisible {
		infoMsg := newBuilder(32)
		if info != nil {
			if p.opts.Metadata.Version {
				if info.Version > maxInt32 {
					return nil, &EncodingError{Msg: fmt.Sprintf("version %d exceeds INT32_MAX", info.Version)}
				}
				infoMsg = infoMsg.int32(fieldInfoVersion, int32(info.Version))
			}
			if p.opts.Metadata.Timestamp {
				infoMsg = infoMsg.int64(fieldInfoTimestamp, info.Timestamp.Unix())
			}
			if p.opts.Metadata.Changeset {
				infoMsg = infoMsg.int64(fieldInfoChangeset, info.Changeset)
			}
			if p.opts.Metadata.Uid {
				if info.Uid > maxInt32 {
					return nil, &EncodingError{Msg: fmt.Sprintf("uid %d exceeds INT32_MAX", info.Uid)}
				}
				infoMsg = infoMsg.int32(fieldInfoUid, int32(info.Uid))
			}
			if p.opts.Metadata.User {
				infoMsg = infoMsg.varint(fieldInfoUserSid, uint64(p.strings.add(info.User)))
			}
			if p.opts.AddVisible {
				infoMsg = infoMsg.boolField(fieldInfoVisible, info.Visible)
			}
		} else if p.opts.AddVisible {
			infoMsg = infoMsg.boolField(fieldInfoVisible, true)
		}
		b = b.message(infoField, infoMsg)
	}
	return b, nil
}

// serialize emits the PrimitiveBlock message: string table, then one
// PrimitiveGroup whose body is the accumulated group bytes or the
// serialized DenseNodes, then granularity and the zero lat/lon offsets.
func (p *primitiveBlock) serialize() []byte {
	b := newBuilder(p.size() + 64)
	b = b.bytesField(fieldPrimitiveBlockStringTable, p.strings.serialize())

	var groupBody []byte
	switch p.kind {
	case groupDenseNodes:
		dense := newBuilder(p.dense.size())
		dense = dense.message(fieldGroupDense, p.dense.serialize())
		groupBody = dense
	default:
		groupBody = p.group
	}
	b = b.bytesField(fieldPrimitiveBlockGroup, groupBody)

	b = b.int32(fieldPrimitiveBlockGranularity, locationGranularity)
	b = b.int64(fieldPrimitiveBlockLatOffset, 0)
	b = b.int64(fieldPrimitiveBlockLonOffset, 0)
	return b
}
