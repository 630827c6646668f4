package checksum

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// SumString returns the hex-encoded xxhash64 digest of s.
func SumString(s string) string {
	return strconv.FormatUint(xxhash.Sum64String(s), 16)
}

// ETag returns a weak HTTP entity tag for the given revision marker.
func ETag(revision string) string {
	return `W/"` + SumString(revision) + `"`
}
