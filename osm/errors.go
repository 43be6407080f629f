package osm

import "fmt"

// ConfigurationError reports an invalid or unsupported combination of
// Options, detected before any bytes are written.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("osm: invalid configuration: %s", e.Msg)
}

// EncodingError reports an entity that cannot be represented on the wire,
// such as a value overflowing the field width the format allows.
type EncodingError struct {
	Msg string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("osm: encoding error: %s", e.Msg)
}

// CompressionError wraps a failure from the underlying compression codec.
type CompressionError struct {
	Codec string
	Err   error
}

func (e *CompressionError) Error() string {
	return fmt.Sprintf("osm: %s compression failed: %v", e.Codec, e.Err)
}

func (e *CompressionError) Unwrap() error {
	return e.Err
}

const maxInt32 = 1<<31 - 1
