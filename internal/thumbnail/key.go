package thumbnail

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"unicode/utf16"

	"golang.org/x/crypto/blake2b"
)

// KeyFunc maps a filesystem path to the stem of its cache file name.
type KeyFunc func(path string) string

// Key scheme names accepted by KeyFuncByName.
const (
	KeySchemeLegacy  = "legacy"
	KeySchemeBlake2b = "blake2b"
)

// LegacyKey is the 31-multiplier rolling hash over the UTF-16 code units of
// path, wrapped to a signed 32-bit integer. The absolute value is rendered in
// lower-case hex, so math.MinInt32 becomes "80000000". Caches written by
// earlier deployments use this naming.
//
// The hash is a file name, not a security boundary: distinct paths may share
// a stem.
func LegacyKey(path string) string {
	var h int32
	for _, unit := range utf16.Encode([]rune(path)) {
		h = h*31 + int32(unit)
	}

	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 16)
}

// Blake2bKey names entries by the first 16 bytes of the BLAKE2b-256 digest of
// path. Collisions are practically impossible, at the cost of invalidating a
// cache populated with LegacyKey.
func Blake2bKey(path string) string {
	sum := blake2b.Sum256([]byte(path))
	return hex.EncodeToString(sum[:16])
}

// KeyFuncByName resolves a configured key scheme. An empty name selects the
// legacy scheme.
func KeyFuncByName(name string) (KeyFunc, error) {
	switch name {
	case "", KeySchemeLegacy:
		return LegacyKey, nil
	case KeySchemeBlake2b:
		return Blake2bKey, nil
	default:
		return nil, fmt.Errorf("unknown thumbnail key scheme %q", name)
	}
}
