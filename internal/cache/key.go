package cache

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// KeyPrefix starts every model cache key.
const KeyPrefix = "model:"

// PrimaryAttr is the attribute name used for primary key entries.
const PrimaryAttr = "pk"

// GenerateKey renders model:<namespace>[a=1,b=2] with attributes sorted by
// name, so the same lookup always yields the same key.
func GenerateKey(namespace string, attrs map[string]any) string {
	var b strings.Builder
	b.WriteString(KeyPrefix)
	b.WriteString(namespace)
	b.WriteByte('[')
	for i, name := range slices.Sorted(maps.Keys(attrs)) {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(formatAttr(attrs[name]))
	}
	b.WriteByte(']')
	return b.String()
}

// Key is GenerateKey for a single attribute.
func Key(namespace, attr string, value any) string {
	return GenerateKey(namespace, map[string]any{attr: value})
}

func formatAttr(value any) string {
	switch v := value.(type) {
	case nil:
		return "None"
	case string:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
