package osm

import "google.golang.org/protobuf/encoding/protowire"

// Wire-format constants fixed by the OSM PBF specification (OsmSchema-V0.6).
const (
	maxUncompressedBlobSize = 16 * 1024 * 1024
	maxBlobSizeHard         = 32 * 1024 * 1024
	maxEntitiesPerBlock     = 8000
	locationGranularity     = 100
	lonlatResolution        = 1e7

	maxUsedBlobSize = maxUncompressedBlobSize * 95 / 100
)

// fileformat.proto field numbers.
const (
	fieldBlobHeaderType     protowire.Number = 1
	fieldBlobHeaderDatasize protowire.Number = 3

	fieldBlobRaw     protowire.Number = 1
	fieldBlobRawSize protowire.Number = 2
	fieldBlobZlib    protowire.Number = 3
	fieldBlobLZMA    protowire.Number = 4
	fieldBlobLZ4     protowire.Number = 6
	fieldBlobZstd    protowire.Number = 7
)

// osmformat.proto field numbers.
const (
	fieldStringTableS protowire.Number = 1

	fieldPrimitiveBlockStringTable  protowire.Number = 1
	fieldPrimitiveBlockGroup        protowire.Number = 2
	fieldPrimitiveBlockGranularity  protowire.Number = 17
	fieldPrimitiveBlockLatOffset    protowire.Number = 19
	fieldPrimitiveBlockLonOffset    protowire.Number = 20

	fieldGroupNodes     protowire.Number = 1
	fieldGroupDense     protowire.Number = 2
	fieldGroupWays      protowire.Number = 3
	fieldGroupRelations protowire.Number = 4

	fieldNodeID   protowire.Number = 1
	fieldNodeKeys protowire.Number = 2
	fieldNodeVals protowire.Number = 3
	fieldNodeInfo protowire.Number = 4
	fieldNodeLat  protowire.Number = 8
	fieldNodeLon  protowire.Number = 9

	fieldDenseIDs      protowire.Number = 1
	fieldDenseInfo     protowire.Number = 5
	fieldDenseLats     protowire.Number = 8
	fieldDenseLons     protowire.Number = 9
	fieldDenseKeyVals  protowire.Number = 10

	fieldDenseInfoVersion   protowire.Number = 1
	fieldDenseInfoTimestamp protowire.Number = 2
	fieldDenseInfoChangeset protowire.Number = 3
	fieldDenseInfoUid       protowire.Number = 4
	fieldDenseInfoUserSid   protowire.Number = 5
	fieldDenseInfoVisible   protowire.Number = 6

	fieldWayID    protowire.Number = 1
	fieldWayKeys  protowire.Number = 2
	fieldWayVals  protowire.Number = 3
	fieldWayInfo  protowire.Number = 4
	fieldWayRefs  protowire.Number = 8
	fieldWayLat   protowire.Number = 9
	fieldWayLon   protowire.Number = 10

	fieldRelationID        protowire.Number = 1
	fieldRelationKeys      protowire.Number = 2
	fieldRelationVals      protowire.Number = 3
	fieldRelationInfo      protowire.Number = 4
	fieldRelationRolesSid  protowire.Number = 8
	fieldRelationMemids    protowire.Number = 9
	fieldRelationTypes     protowire.Number = 10

	fieldInfoVersion   protowire.Number = 1
	fieldInfoTimestamp protowire.Number = 2
	fieldInfoChangeset protowire.Number = 3
	fieldInfoUid       protowire.Number = 4
	fieldInfoUserSid   protowire.Number = 5
	fieldInfoVisible   protowire.Number = 6

	fieldHeaderBlockBBox                 protowire.Number = 1
	fieldHeaderBlockRequiredFeatures     protowire.Number = 4
	fieldHeaderBlockOptionalFeatures     protowire.Number = 5
	fieldHeaderBlockWritingProgram       protowire.Number = 16
	fieldHeaderBlockReplicationTimestamp protowire.Number = 32
	fieldHeaderBlockReplicationSeqNum    protowire.Number = 33
	fieldHeaderBlockReplicationBaseURL   protowire.Number = 34

	fieldBBoxLeft   protowire.Number = 1
	fieldBBoxRight  protowire.Number = 2
	fieldBBoxTop    protowire.Number = 3
	fieldBBoxBottom protowire.Number = 4
)

// relationMemberType encodes Type as the wire's MemberType enum (node=0, way=1, relation=2).
func relationMemberType(t Type) int32 {
	switch t {
	case NodeType:
		return 0
	case WayType:
		return 1
	case RelationType:
		return 2
	}
	return 0
}
