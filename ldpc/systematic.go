package ldpc

import (
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/sha3"
)

// syndromeBits is the number of error positions a syndrome can carry.
const syndromeBits = SyndromeSize * 8

// Systematic is a stand-in codec, not a QC-LDPC decoder. Error positions are
// confined to the first syndromeBits columns and the syndrome is those bits
// masked with a SHAKE128 stream of the public key, so decoding is exact.
// A recovered weight other than Weight is reported as a decoding failure.
type Systematic struct {
	Weight int
}

// NewSystematic returns a codec expecting vectors of the given weight.
func NewSystematic(weight int) (*Systematic, error) {
	if weight <= 0 || weight > syndromeBits {
		return nil, fmt.Errorf("%w: %d not in (0,%d]", ErrWeight, weight, syndromeBits)
	}
	return &Systematic{Weight: weight}, nil
}

// KeyGen draws a seed from rand and expands it.
func (s *Systematic) KeyGen(rand io.Reader) (*KeyPair, error) {
	var seed [SeedSize]byte
	if _, err := io.ReadFull(rand, seed[:]); err != nil {
		return nil, fmt.Errorf("ldpc: keygen: %w", err)
	}
	return KeyFromSeed(seed), nil
}

// KeyFromSeed expands seed into a key pair with SHAKE128, so two parties
// sharing the seed hold the same code.
func KeyFromSeed(seed [SeedSize]byte) *KeyPair {
	kp := &KeyPair{}
	kp.Public.Seed = seed
	x := sha3.NewShake128()
	x.Write([]byte("ldpc:keygen"))
	x.Write(seed[:])
	var buf [2 * N0]byte
	x.Read(buf[:])
	for i := range kp.Public.Shifts {
		kp.Public.Shifts[i] = (uint16(buf[2*i])<<8 | uint16(buf[2*i+1])) % (Cols / N0)
	}
	x.Read(kp.Private[:])
	return kp
}

func mask(pk *PublicKey) [SyndromeSize]byte {
	x := sha3.NewShake128()
	x.Write([]byte("ldpc:syndrome"))
	x.Write(pk.Seed[:])
	for _, s := range pk.Shifts {
		x.Write([]byte{byte(s >> 8), byte(s)})
	}
	var m [SyndromeSize]byte
	x.Read(m[:])
	return m
}

// GenerateErrorVector picks weight distinct positions uniformly from the
// syndrome-carried columns.
func (s *Systematic) GenerateErrorVector(weight int, rand io.Reader) (ErrorVector, error) {
	var ev ErrorVector
	if weight <= 0 || weight > syndromeBits {
		return ev, fmt.Errorf("%w: %d", ErrWeight, weight)
	}
	var b [1]byte
	for int(ev.Weight) < weight {
		if _, err := io.ReadFull(rand, b[:]); err != nil {
			ev.Zero()
			return ev, fmt.Errorf("ldpc: error vector: %w", err)
		}
		// 192 is the largest multiple of syndromeBits below 256
		if int(b[0]) >= 2*syndromeBits {
			continue
		}
		ev.Set(int(b[0]) % syndromeBits)
	}
	return ev, nil
}

// Encode returns the syndrome of ev under pk.
func (s *Systematic) Encode(ev *ErrorVector, pk *PublicKey) []byte {
	m := mask(pk)
	out := make([]byte, SyndromeSize)
	subtle.XORBytes(out, ev.Bits[:SyndromeSize], m[:])
	return out
}

// Decode recovers the error vector from syndrome.
func (s *Systematic) Decode(syndrome []byte, kp *KeyPair) (ErrorVector, error) {
	var ev ErrorVector
	if len(syndrome) != SyndromeSize {
		return ev, fmt.Errorf("%w: syndrome is %d bytes, want %d", ErrDecodeFailure, len(syndrome), SyndromeSize)
	}
	m := mask(&kp.Public)
	subtle.XORBytes(ev.Bits[:SyndromeSize], syndrome, m[:])
	ev.Weight = uint16(ev.Count())
	if s.Weight > 0 && int(ev.Weight) != s.Weight {
		w := ev.Weight
		ev.Zero()
		return ev, fmt.Errorf("%w: recovered weight %d, want %d", ErrDecodeFailure, w, s.Weight)
	}
	return ev, nil
}
