package rlwe

import (
	"encoding/binary"
	"fmt"
)

// AppendPoly appends the wire form of p: each coefficient as 4 bytes,
// big-endian two's complement.
func AppendPoly(dst []byte, p *Poly) []byte {
	for _, c := range p {
		dst = binary.BigEndian.AppendUint32(dst, uint32(c))
	}
	return dst
}

// MarshalPoly returns the PolyBytes wire form of p.
func MarshalPoly(p *Poly) []byte {
	return AppendPoly(make([]byte, 0, PolyBytes), p)
}

// UnmarshalPoly decodes PolyBytes bytes. Coefficients outside [0, Q) are
// rejected rather than silently reduced.
func UnmarshalPoly(b []byte) (Poly, error) {
	var p Poly
	if len(b) != PolyBytes {
		return p, fmt.Errorf("rlwe: polynomial encoding is %d bytes, want %d", len(b), PolyBytes)
	}
	for i := range p {
		c := int32(binary.BigEndian.Uint32(b[4*i:]))
		if c < 0 || c >= Q {
			return p, fmt.Errorf("rlwe: coefficient %d out of range: %d", i, c)
		}
		p[i] = c
	}
	return p, nil
}
