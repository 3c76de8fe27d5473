package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// Fingerprint returns a hex-encoded sha256 digest of the file's full bytes.
// Deterministic for identical content and cheap next to an executor call,
// which dominates cost by orders of magnitude.
func Fingerprint(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file for fingerprint: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// StatFingerprint is the weaker fallback: a (mtime, size) tuple. Two distinct
// contents of equal length written within the same clock tick produce the
// same value, so a change can be missed. Prefer Fingerprint; use this only
// when the file cannot be read in full.
func StatFingerprint(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat file for fingerprint: %w", err)
	}
	return fmt.Sprintf("%d:%d", info.ModTime().UnixNano(), info.Size()), nil
}
