package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint produces the deterministic identity key for a listing from its
// title and free-text date. Two records with the same title and date are the
// same event regardless of provider or any other field. Deterministic keys
// make store merges idempotent and replay-safe: reprocessing the same raw
// record always lands on the same entry.
func Fingerprint(title, date string) string {
	hash := sha256.Sum256([]byte(title + "|" + date))
	return hex.EncodeToString(hash[:8])
}

// Fingerprint returns the record's identity key.
func (r RawEventRecord) Fingerprint() string {
	return Fingerprint(r.Title, r.Date)
}
