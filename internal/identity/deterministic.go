package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must prefix keys by kind so different records never share one.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// ResourceUUID identifies the resource imported from source within site.
// Source is a slash separated path relative to the import root.
func ResourceUUID(site, source string) uuid.UUID {
	source = strings.Trim(strings.TrimSpace(source), "/")
	if source == "" {
		return uuid.Nil
	}
	return UUID("cms:resource:" + strings.ToLower(strings.TrimSpace(site)) + ":" + source)
}
