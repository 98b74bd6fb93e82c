// Package hash provides hashing and identifier utilities.
package hash

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// pointNamespace scopes the name-based UUIDs generated for vector store points.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("mevzuat:chunk"))

// SHA256 computes the SHA256 hash of data and returns it as a hex string.
func SHA256(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SHA256String computes the SHA256 hash of a string.
func SHA256String(s string) string {
	return SHA256([]byte(s))
}

// SHA256Short returns the first n characters of a SHA256 hash.
func SHA256Short(data []byte, n int) string {
	h := SHA256(data)
	if n > len(h) {
		return h
	}
	return h[:n]
}

// DocumentID generates a deterministic document ID from path and content hash.
func DocumentID(path, contentHash string) string {
	data := []byte(path + ":" + contentHash)
	return SHA256Short(data, 16)
}

// PointID returns a deterministic UUID for a chunk of a document. Re-indexing
// the same chunk of the same document overwrites the same point.
func PointID(documentID, chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(documentID+"/"+chunkID)).String()
}

// Term hashes a token into the 32-bit index space used by sparse vectors.
func Term(token string) uint32 {
	return uint32(xxhash.Sum64String(token))
}
