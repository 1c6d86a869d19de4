package rlwe

import (
	"encoding/binary"
	"testing"
)

func TestPolyCodec(t *testing.T) {
	p := randPoly(t, mustKeyed(t, "codec"), UniformBounds)
	b := MarshalPoly(&p)
	if len(b) != PolyBytes {
		t.Fatalf("encoding length %d want %d", len(b), PolyBytes)
	}
	if binary.BigEndian.Uint32(b[4:]) != uint32(p[1]) {
		t.Fatalf("coefficient 1 is not big-endian at offset 4")
	}
	got, err := UnmarshalPoly(b)
	if err != nil {
		t.Fatalf("UnmarshalPoly: %v", err)
	}
	if !got.Equal(&p) {
		t.Fatalf("decoded polynomial differs")
	}
}

func TestUnmarshalPolyRejects(t *testing.T) {
	if _, err := UnmarshalPoly(make([]byte, PolyBytes-1)); err == nil {
		t.Fatalf("expected length error")
	}
	b := make([]byte, PolyBytes)
	binary.BigEndian.PutUint32(b[8:], uint32(Q))
	if _, err := UnmarshalPoly(b); err == nil {
		t.Fatalf("expected range error for Q")
	}
	binary.BigEndian.PutUint32(b[8:], 0xffffffff)
	if _, err := UnmarshalPoly(b); err == nil {
		t.Fatalf("expected range error for negative coefficient")
	}
}

func TestPRNGUniformRange(t *testing.T) {
	prng := mustKeyed(t, "prng-range")
	seen := map[int64]bool{}
	for i := 0; i < 500; i++ {
		v, err := prng.Uniform(-3, 3)
		if err != nil {
			t.Fatalf("Uniform: %v", err)
		}
		if v < -3 || v >= 3 {
			t.Fatalf("value %d outside [-3,3)", v)
		}
		seen[v] = true
	}
	if len(seen) != 6 {
		t.Fatalf("expected all 6 values, saw %d", len(seen))
	}
	if _, err := prng.Uniform(1, 1); err == nil {
		t.Fatalf("expected error on empty range")
	}
}

func TestKeyedPRNGReproducible(t *testing.T) {
	a := mustKeyed(t, "same")
	b := mustKeyed(t, "same")
	for i := 0; i < 8; i++ {
		x, _ := a.Uint64()
		y, _ := b.Uint64()
		if x != y {
			t.Fatalf("keyed PRNG streams diverge at %d", i)
		}
	}
}
