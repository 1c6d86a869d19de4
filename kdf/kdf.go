// Package kdf wraps the SHA-256 based primitives used for key material:
// plain digests, HMAC-SHA256 and HKDF.
package kdf

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Size is the SHA-256 output length.
const Size = sha256.Size

// MaxExpand is the largest HKDF output (255 hash blocks).
const MaxExpand = 255 * Size

// ErrLength is returned for HKDF output lengths outside (0, MaxExpand].
var ErrLength = errors.New("kdf: invalid output length")

// Sum256 hashes the concatenation of parts.
func Sum256(parts ...[]byte) [Size]byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [Size]byte
	h.Sum(out[:0])
	return out
}

// HMAC returns HMAC-SHA256(key, msg[0]‖msg[1]‖...). Keys longer than the
// block size are hashed first.
func HMAC(key []byte, msg ...[]byte) [Size]byte {
	m := hmac.New(sha256.New, key)
	for _, p := range msg {
		m.Write(p)
	}
	var out [Size]byte
	m.Sum(out[:0])
	return out
}

// Extract is HKDF-Extract. A nil salt is treated as Size zero bytes.
func Extract(salt, ikm []byte) [Size]byte {
	var out [Size]byte
	copy(out[:], hkdf.Extract(sha256.New, ikm, salt))
	return out
}

// Expand is HKDF-Expand producing n bytes.
func Expand(prk, info []byte, n int) ([]byte, error) {
	if n <= 0 || n > MaxExpand {
		return nil, fmt.Errorf("%w: %d", ErrLength, n)
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(hkdf.Expand(sha256.New, prk, info), out); err != nil {
		return nil, fmt.Errorf("kdf: expand: %w", err)
	}
	return out, nil
}

// HKDF runs extract then expand.
func HKDF(salt, ikm, info []byte, n int) ([]byte, error) {
	prk := Extract(salt, ikm)
	defer Zero(prk[:])
	return Expand(prk[:], info, n)
}

// Derive32 is HKDF with an empty salt and a 32-byte output.
func Derive32(ikm, info []byte) [32]byte {
	var out [32]byte
	b, err := HKDF(nil, ikm, info, len(out))
	if err != nil {
		// unreachable: the length is a constant within range
		panic(err)
	}
	copy(out[:], b)
	Zero(b)
	return out
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
