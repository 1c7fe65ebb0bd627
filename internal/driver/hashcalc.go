package driver

import (
	"crypto/sha256"
	"encoding/binary"

	"badchars/internal/scan"
)

// Digest is a SHA-256 sum.
type Digest [sha256.Size]byte

func contentDigest(content []byte) Digest {
	return sha256.Sum256(content)
}

// SnapshotDigest identifies everything about a snapshot that changes scan
// output: the compiled class and the allow-list. Severity and style do not
// affect findings and are left out.
func SnapshotDigest(snap *scan.Snapshot) Digest {
	h := sha256.New()
	_, _ = h.Write([]byte(snap.Matcher.Pattern()))
	_, _ = h.Write([]byte{0})
	var buf [4]byte
	for _, r := range snap.Config.AllowedRunes() {
		binary.LittleEndian.PutUint32(buf[:], uint32(r)) //nolint:gosec // runes are non-negative
		_, _ = h.Write(buf[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// combineDigest: H(content || dep1 || dep2 ...). deps уже в детерминированном порядке.
func combineDigest(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
