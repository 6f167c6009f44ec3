package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// ExtractKey caches extraction results by URL hash so repeated captures of
// the same page skip the fetch.
func ExtractKey(url string) string {
	return fmt.Sprintf("extract:%s", HashURL(url))
}

func JobStatusKey(jobID uuid.UUID) string {
	return fmt.Sprintf("job:%s", jobID)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}

// MomentsKey caches the cultural moments feed for one query window.
func MomentsKey(window string) string {
	return fmt.Sprintf("moments:%s", window)
}

// HashURL returns a short stable hash of a URL for key building.
func HashURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:8])
}
