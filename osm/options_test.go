package osm

import (
	"testing"

	"github.com/tdewolff/test"
)

func TestParseOptionsDefaults(t *testing.T) {
	opts, err := ParseOptions(nil)
	test.Error(t, err)
	test.T(t, opts.DenseNodes, true)
	test.T(t, opts.Compression, CompressionZlib)
}

func TestParseOptionsDeprecatedKeyErrors(t *testing.T) {
	_, err := ParseOptions(map[string]string{"pbf_add_metadata": "true"})
	if err == nil {
		t.Fatal("expected an error for the deprecated pbf_add_metadata key")
	}
	if _, ok := err.(*ConfigurationError); !ok {
		t.Errorf("expected a *ConfigurationError, got %T", err)
	}
}

func TestParseOptionsCompression(t *testing.T) {
	opts, err := ParseOptions(map[string]string{"pbf_compression": "lz4"})
	test.Error(t, err)
	test.T(t, opts.Compression, CompressionLZ4)

	opts, err = ParseOptions(map[string]string{"pbf_compression": "none"})
	test.Error(t, err)
	test.T(t, opts.Compression, CompressionNone)

	_, err = ParseOptions(map[string]string{"pbf_compression": "bogus"})
	if err == nil {
		t.Error("expected an error for an unknown compression codec")
	}
}

func TestParseOptionsCompressionLevelRequiresCompression(t *testing.T) {
	_, err := ParseOptions(map[string]string{"pbf_compression": "none", "pbf_compression_level": "6"})
	if err == nil {
		t.Error("expected an error for pbf_compression_level with pbf_compression=none")
	}
}

func TestParseOptionsMetadata(t *testing.T) {
	opts, err := ParseOptions(map[string]string{"add_metadata": "version,uid"})
	test.Error(t, err)
	test.T(t, opts.Metadata.Version, true)
	test.T(t, opts.Metadata.Uid, true)
	test.T(t, opts.Metadata.User, false)
}

func TestParseOptionsMetadataAllConflictsWithIndividual(t *testing.T) {
	_, err := ParseOptions(map[string]string{"add_metadata": "all,uid"})
	if err == nil {
		t.Error("expected an error combining \"all\" with an individual field")
	}
}

func TestParseOptionsLocationsOnWays(t *testing.T) {
	opts, err := ParseOptions(map[string]string{"locations_on_ways": "true"})
	test.Error(t, err)
	test.T(t, opts.LocationsOnWays, true)
}
