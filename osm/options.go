package osm

import (
	"fmt"
	"strconv"
	"strings"
)

// Compression selects the per-blob codec the writer uses.
type Compression int

const (
	CompressionZlib Compression = iota
	CompressionNone
	CompressionLZ4
)

func parseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zlib":
		return CompressionZlib, nil
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	}
	return 0, &ConfigurationError{Msg: fmt.Sprintf("unknown pbf_compression %q", s)}
}

// MetadataFlags selects which optional per-entity metadata fields the
// writer serializes, mirroring osmium's add_metadata option.
type MetadataFlags struct {
	Version    bool
	Timestamp  bool
	Changeset  bool
	Uid        bool
	User       bool
	AddVisible bool // derived from Header.MultipleVersions, not user-settable directly
}

func (m MetadataFlags) any() bool {
	return m.Version || m.Timestamp || m.Changeset || m.Uid || m.User || m.AddVisible
}

var allMetadataFlags = MetadataFlags{Version: true, Timestamp: true, Changeset: true, Uid: true, User: true}

func parseMetadataFlags(s string) (MetadataFlags, error) {
	var m MetadataFlags
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return m, nil
	}

	hasAllOrNone := false
	hasIndividual := false
	for _, f := range fields {
		switch strings.ToLower(f) {
		case "all":
			m = allMetadataFlags
			hasAllOrNone = true
		case "none":
			m = MetadataFlags{}
			hasAllOrNone = true
		case "version":
			m.Version = true
			hasIndividual = true
		case "timestamp":
			m.Timestamp = true
			hasIndividual = true
		case "changeset":
			m.Changeset = true
			hasIndividual = true
		case "uid":
			m.Uid = true
			hasIndividual = true
		case "user":
			m.User = true
			hasIndividual = true
		default:
			return MetadataFlags{}, &ConfigurationError{Msg: fmt.Sprintf("unknown add_metadata field %q", f)}
		}
	}
	if hasAllOrNone && hasIndividual {
		return MetadataFlags{}, &ConfigurationError{Msg: "add_metadata: \"all\"/\"none\" cannot be combined with individual fields"}
	}
	return m, nil
}

// Options is the parsed configuration surface for a Writer, built from a
// free-form string map the way osmium::io::File's get()/is_true() do.
type Options struct {
	DenseNodes        bool
	Compression       Compression
	CompressionLevel  int // 0 means "use the codec's library default"
	Metadata          MetadataFlags
	LocationsOnWays   bool
	AddHistorical     bool // derived, not user-settable
	AddVisible        bool // derived, not user-settable
}

// ParseOptions parses the recognized pbf_* keys into an Options, erroring on
// unknown/invalid values and on the deprecated pbf_add_metadata key.
func ParseOptions(raw map[string]string) (Options, error) {
	opts := Options{DenseNodes: true, Compression: CompressionZlib}

	if _, ok := raw["pbf_add_metadata"]; ok {
		return Options{}, &ConfigurationError{Msg: "pbf_add_metadata is deprecated, use add_metadata instead"}
	}

	if v, ok := raw["pbf_dense_nodes"]; ok {
		b, err := parseBool(v)
		if err != nil {
			return Options{}, &ConfigurationError{Msg: fmt.Sprintf("pbf_dense_nodes: %v", err)}
		}
		opts.DenseNodes = b
	}

	if v, ok := raw["pbf_compression"]; ok {
		c, err := parseCompression(v)
		if err != nil {
			return Options{}, err
		}
		opts.Compression = c
	}

	if v, ok := raw["pbf_compression_level"]; ok {
		if opts.Compression == CompressionNone {
			return Options{}, &ConfigurationError{Msg: "pbf_compression_level is invalid with pbf_compression=none"}
		}
		level, err := strconv.Atoi(v)
		if err != nil {
			return Options{}, &ConfigurationError{Msg: fmt.Sprintf("pbf_compression_level: %v", err)}
		}
		opts.CompressionLevel = level
	}

	if v, ok := raw["add_metadata"]; ok {
		m, err := parseMetadataFlags(v)
		if err != nil {
			return Options{}, err
		}
		opts.Metadata = m
	}

	if v, ok := raw["locations_on_ways"]; ok {
		b, err := parseBool(v)
		if err != nil {
			return Options{}, &ConfigurationError{Msg: fmt.Sprintf("locations_on_ways: %v", err)}
		}
		opts.LocationsOnWays = b
	}

	return opts, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "true", "yes", "1", "on":
		return true, nil
	case "false", "no", "0", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// withHistory derives AddHistorical/AddVisible/Metadata.AddVisible from
// whether the stream carries multiple versions per object, matching
// file.has_multiple_object_versions() in the original.
func (o Options) withHistory(multipleVersions bool) Options {
	o.AddHistorical = multipleVersions
	o.AddVisible = multipleVersions
	o.Metadata.AddVisible = multipleVersions
	return o
}
