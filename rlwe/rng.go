package rlwe

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/tuneinsight/lattigo/v4/utils"
)

// PRNG is an explicit sampling state. Deterministic derivations (the common
// reference polynomial, decoy keys) build their own keyed instance; fresh
// material comes from an instance keyed by crypto/rand.
type PRNG struct {
	src utils.PRNG
	buf [8]byte
}

// NewKeyedPRNG returns a deterministic PRNG for the given seed.
func NewKeyedPRNG(seed []byte) (*PRNG, error) {
	src, err := utils.NewKeyedPRNG(seed)
	if err != nil {
		return nil, fmt.Errorf("rlwe: keyed prng: %w", err)
	}
	return &PRNG{src: src}, nil
}

// NewPRNG returns a PRNG keyed from the system randomness source.
func NewPRNG() (*PRNG, error) {
	src, err := utils.NewPRNG()
	if err != nil {
		return nil, fmt.Errorf("rlwe: prng: %w", err)
	}
	return &PRNG{src: src}, nil
}

// Read fills p with PRNG output so a PRNG can stand in for an io.Reader.
func (r *PRNG) Read(p []byte) (int, error) {
	return io.ReadFull(r.src, p)
}

// Uint64 returns the next 64 bits of output.
func (r *PRNG) Uint64() (uint64, error) {
	if _, err := io.ReadFull(r.src, r.buf[:]); err != nil {
		return 0, fmt.Errorf("rlwe: prng read: %w", err)
	}
	return binary.LittleEndian.Uint64(r.buf[:]), nil
}

// Uniform returns an integer uniformly distributed in [lo, hi).
// Words above the largest multiple of the span are rejected so the result
// carries no modulo bias.
func (r *PRNG) Uniform(lo, hi int64) (int64, error) {
	if hi <= lo {
		return 0, fmt.Errorf("rlwe: empty range [%d,%d)", lo, hi)
	}
	span := uint64(hi - lo)
	threshold := (^uint64(0) / span) * span
	for {
		w, err := r.Uint64()
		if err != nil {
			return 0, err
		}
		if w < threshold {
			return lo + int64(w%span), nil
		}
	}
}
