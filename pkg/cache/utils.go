package cache

import (
	"strconv"
	"strings"
)

// Key joins parts into a colon-separated cache key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// FloatKey formats v with fixed precision so equal thresholds share one key.
func FloatKey(prefix string, v float64, precision int) string {
	return Key(prefix, strconv.FormatFloat(v, 'f', precision, 64))
}

// PrefixPattern matches every key under prefix, e.g. "threshold" matches "threshold:0.41".
func PrefixPattern(prefix string) string {
	return Key(prefix, "*")
}
