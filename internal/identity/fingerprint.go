package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// fingerprintLen keeps device ids short enough for readable store keys
// while staying collision-resistant for rate-limiting purposes.
const fingerprintLen = 32

// Fingerprint derives a stable device id from client characteristics.
// It is best-effort stable across sessions on the same device/browser
// and deliberately weak: an abuse-resistance heuristic, not an
// authentication boundary. Returns "" when no inputs are available.
func Fingerprint(parts ...string) string {
	any := false
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			any = true
			break
		}
	}
	if !any {
		return ""
	}

	h := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h[:])[:fingerprintLen]
}
