package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// KeyPrefix constants for different cache entry kinds
const (
	PrefixCommand = "cmd"
)

// GenerateKey generates a cache key from a command line.
// The key is a SHA256 hash of the normalized line.
func GenerateKey(line string) string {
	hash := sha256.Sum256([]byte(normalizeForKey(line)))
	return hex.EncodeToString(hash[:])
}

// GenerateKeyWithPrefix generates a cache key with a prefix
func GenerateKeyWithPrefix(prefix, line string) string {
	return prefix + ":" + GenerateKey(line)
}

// normalizeForKey collapses runs of whitespace so that reformatted plan
// lines hit the same entry
func normalizeForKey(line string) string {
	return strings.Join(strings.Fields(line), " ")
}

// CommandKey generates a cache key for a compile command
func CommandKey(line string) string {
	return GenerateKeyWithPrefix(PrefixCommand, line)
}
