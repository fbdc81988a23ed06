// Package conflict decides whether a document and its store record have
// diverged since the last successful sync.
//
// The file side is tracked with a content hash over raw bytes; the store
// side with an updated-at timestamp compared to the last sync time. A
// conflict exists only when both sides moved: either side alone is just
// an ordinary pending sync.
package conflict

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Status is the result of a divergence check for one document.
type Status struct {
	HasConflict bool   `json:"has_conflict" yaml:"has_conflict"`
	FileChanged bool   `json:"file_changed" yaml:"file_changed"`
	DBChanged   bool   `json:"db_changed" yaml:"db_changed"`
	CurrentHash string `json:"current_hash" yaml:"current_hash"`
	StoredHash  string `json:"stored_hash,omitempty" yaml:"stored_hash,omitempty"`
}

// ContentHash returns the hex-encoded SHA-256 digest of content. No
// normalization of line endings or trailing whitespace: the hash is
// sensitive to every byte.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// HasContentChanged reports whether content differs from the previously
// stored hash. An empty storedHash means the document has never been
// synced, which always counts as changed.
func HasContentChanged(content []byte, storedHash string) bool {
	if storedHash == "" {
		return true
	}
	return ContentHash(content) != storedHash
}

// Detect computes the full divergence status for a document.
//
// dbChanged requires both timestamps: a missing dbUpdatedAt or
// lastSyncedAt is treated as "not changed", so unknown state can never
// trigger a conflict on its own. HasConflict is true iff both
// FileChanged and DBChanged are true.
func Detect(content []byte, storedHash string, dbUpdatedAt, lastSyncedAt *time.Time) Status {
	st := Status{
		CurrentHash: ContentHash(content),
		StoredHash:  storedHash,
	}
	st.FileChanged = storedHash == "" || st.CurrentHash != storedHash
	st.DBChanged = dbUpdatedAt != nil && lastSyncedAt != nil && dbUpdatedAt.After(*lastSyncedAt)
	st.HasConflict = st.FileChanged && st.DBChanged
	return st
}
