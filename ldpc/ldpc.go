// Package ldpc defines the code-based key transport contract used by the
// handshake: the device encodes a secret low-weight error vector into a
// syndrome, the gateway decodes it back with its key pair.
package ldpc

import (
	"errors"
	"io"
	"math/bits"
)

const (
	Rows = 102
	Cols = 204
	N0   = 4
	// SyndromeSize is the transmitted syndrome length.
	SyndromeSize = Rows / 8
	// ErrorVectorSize is the packed error vector length.
	ErrorVectorSize = Cols / 8
	// DefaultWeight is the target Hamming weight of an error vector.
	DefaultWeight = 50
	SeedSize      = 32
	PrivateSize   = 64
)

var (
	ErrDecodeFailure = errors.New("ldpc: decoding failed")
	ErrWeight        = errors.New("ldpc: invalid error weight")
)

// ErrorVector is a packed bit vector with its Hamming weight.
type ErrorVector struct {
	Bits   [ErrorVectorSize]byte
	Weight uint16
}

// Set sets bit i.
func (e *ErrorVector) Set(i int) {
	if !e.Has(i) {
		e.Bits[i/8] |= 1 << (i % 8)
		e.Weight++
	}
}

// Has reports whether bit i is set.
func (e *ErrorVector) Has(i int) bool {
	return e.Bits[i/8]&(1<<(i%8)) != 0
}

// Count recomputes the Hamming weight from Bits.
func (e *ErrorVector) Count() int {
	n := 0
	for _, b := range e.Bits {
		n += bits.OnesCount8(b)
	}
	return n
}

// Zero wipes the vector.
func (e *ErrorVector) Zero() { *e = ErrorVector{} }

// PublicKey is the compressed public description of a code.
type PublicKey struct {
	Seed   [SeedSize]byte
	Shifts [N0]uint16
}

// KeyPair adds the decoder's private data.
type KeyPair struct {
	Public  PublicKey
	Private [PrivateSize]byte
}

// Codec is the contract the handshake consumes.
type Codec interface {
	KeyGen(rand io.Reader) (*KeyPair, error)
	GenerateErrorVector(weight int, rand io.Reader) (ErrorVector, error)
	Encode(ev *ErrorVector, pk *PublicKey) []byte
	Decode(syndrome []byte, kp *KeyPair) (ErrorVector, error)
}
