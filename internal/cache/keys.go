package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Feature namespaces. Prefixing keeps logically distinct features from ever
// colliding in the shared store.
const (
	NSCompetitor   = "competitor_"
	NSDraft        = "draft_options:"
	NSLandingPatch = "landing_patch_"
	NSCrawl        = "crawl_"
	NSSession      = "session:"
	NSRateLimit    = "rl:"
)

// Key derives an opaque, deterministic store key from the semantically
// relevant request fields. Fields are serialized as sorted-key JSON (the
// encoding/json map ordering guarantee), hashed, and hex-encoded, so two
// logically identical requests collide to the same key regardless of field
// ordering, and the result is always safe as a store identifier.
//
// Callers must pass only stable fields — never timestamps or request IDs.
func Key(namespace string, fields map[string]string) string {
	normalized := make(map[string]string, len(fields))
	for k, v := range fields {
		normalized[k] = strings.TrimSpace(v)
	}
	// Marshal of a map[string]string sorts keys; errors are impossible here.
	data, _ := json.Marshal(normalized)
	sum := sha256.Sum256(data)
	return namespace + hex.EncodeToString(sum[:])
}
