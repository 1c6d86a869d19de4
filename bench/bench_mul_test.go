package bench

import (
	"testing"

	"github.com/selfi123/Amortization-research-success/rlwe"
)

func benchPolys(b *testing.B) (rlwe.Poly, rlwe.Poly) {
	b.Helper()
	prng, err := rlwe.NewKeyedPRNG([]byte("bench:mul"))
	if err != nil {
		b.Fatal(err)
	}
	x, err := rlwe.SamplePoly(prng, rlwe.UniformBounds)
	if err != nil {
		b.Fatal(err)
	}
	y, err := rlwe.SamplePoly(prng, rlwe.NoiseBounds)
	if err != nil {
		b.Fatal(err)
	}
	return x, y
}

func BenchmarkSchoolbookMul(b *testing.B) {
	x, y := benchPolys(b)
	var mul rlwe.SchoolbookMultiplier
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = mul.Mul(&x, &y)
	}
}

func BenchmarkRNSMul(b *testing.B) {
	x, y := benchPolys(b)
	mul, err := rlwe.NewRNSMultiplier()
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = mul.Mul(&x, &y)
	}
}

func BenchmarkKeyGen(b *testing.B) {
	prng, err := rlwe.NewKeyedPRNG([]byte("bench:keygen"))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := rlwe.KeyGen(prng); err != nil {
			b.Fatal(err)
		}
	}
}
