package segment

import (
	"crypto/sha256"
	"encoding/hex"
	"hash/fnv"
	"strconv"
)

// ID computes the stable identifier for a segment from its file path,
// symbol name, and occurrence index. Identical inputs always yield the
// same id; this determinism is what makes incremental diffing correct.
// FNV-1a is sufficient here because collisions would have to happen
// within a single (path, name, occurrence) namespace.
func ID(filePath, name string, occurrence int) string {
	h := fnv.New64a()
	h.Write([]byte(filePath))
	h.Write([]byte{0})
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(occurrence)))
	return strconv.FormatUint(h.Sum64(), 16)
}

// HashContent returns the SHA-256 hex digest of a segment's exact source
// text. It is the sole change-detection signal: one changed byte changes
// the hash, byte-identical content never does.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
