// Package fingerprint computes the content identity of a clipboard image.
//
// Two images are the same image if and only if their digests are equal. The
// digest is BLAKE2b-256 over the encoded image payload; a collision would make
// two distinct images share an identity. At 256 bits that risk is accepted.
package fingerprint

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Size is the digest length in bytes.
const Size = blake2b.Size256

// Digest is a fixed-length image fingerprint. It is comparable and can be
// used directly as a map key.
type Digest [Size]byte

// Of returns the fingerprint of data.
func Of(data []byte) Digest {
	return Digest(blake2b.Sum256(data))
}

// OfString returns the fingerprint of an encoded payload such as a data URI.
func OfString(s string) Digest {
	return Of([]byte(s))
}

// String returns the lowercase hex form of d.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 12 hex characters of d, for logs.
func (d Digest) Short() string {
	return d.String()[:12]
}

// IsZero reports whether d is the zero digest.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Parse decodes a hex digest produced by String.
func Parse(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("fingerprint: %w", err)
	}
	if len(b) != Size {
		return d, fmt.Errorf("fingerprint: want %d bytes, got %d", Size, len(b))
	}
	copy(d[:], b)
	return d, nil
}
