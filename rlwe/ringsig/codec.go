package ringsig

import (
	"fmt"

	"github.com/selfi123/Amortization-research-success/rlwe"
)

// MarshalBinary encodes responses, compressed commitment, challenge hash and
// keyword in that order.
func (s *Signature) MarshalBinary() ([]byte, error) {
	return s.AppendBinary(make([]byte, 0, SignatureBytes)), nil
}

// AppendBinary appends the wire form of s to dst.
func (s *Signature) AppendBinary(dst []byte) []byte {
	for i := range s.Responses {
		dst = rlwe.AppendPoly(dst, &s.Responses[i])
	}
	dst = rlwe.AppendPoly(dst, &s.Commitment)
	dst = append(dst, s.Challenge[:]...)
	return append(dst, s.Keyword[:]...)
}

// UnmarshalBinary decodes exactly SignatureBytes bytes.
func (s *Signature) UnmarshalBinary(b []byte) error {
	if len(b) != SignatureBytes {
		return fmt.Errorf("ringsig: signature encoding is %d bytes, want %d", len(b), SignatureBytes)
	}
	off := 0
	next := func() (rlwe.Poly, error) {
		p, err := rlwe.UnmarshalPoly(b[off : off+rlwe.PolyBytes])
		off += rlwe.PolyBytes
		return p, err
	}
	var out Signature
	var err error
	for i := range out.Responses {
		if out.Responses[i], err = next(); err != nil {
			return fmt.Errorf("ringsig: response %d: %w", i, err)
		}
	}
	if out.Commitment, err = next(); err != nil {
		return fmt.Errorf("ringsig: commitment: %w", err)
	}
	off += copy(out.Challenge[:], b[off:])
	copy(out.Keyword[:], b[off:])
	*s = out
	return nil
}
