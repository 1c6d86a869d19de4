package rlwe

import "fmt"

// Bounds defines the half-open range [Min, Max) from which coefficients are
// sampled before being embedded modulo Q.
type Bounds struct {
	Min int64
	Max int64
}

// NoiseBounds is the secret and error distribution.
var NoiseBounds = Bounds{Min: -NoiseBound, Max: NoiseBound}

// UniformBounds covers the whole of Z_Q.
var UniformBounds = Bounds{Min: 0, Max: Q}

// Validate checks the range is non-empty and fits inside the centered ring.
func (b Bounds) Validate() error {
	if b.Max <= b.Min {
		return fmt.Errorf("rlwe: invalid bounds: max <= min (%d <= %d)", b.Max, b.Min)
	}
	if b.Max-b.Min > Q {
		return fmt.Errorf("rlwe: bounds span %d exceeds modulus", b.Max-b.Min)
	}
	return nil
}

// FillPolyBounded samples every coefficient of out uniformly from bounds and
// reduces it modulo Q. Sampling is deterministic given the PRNG state.
func FillPolyBounded(prng *PRNG, out *Poly, bounds Bounds) error {
	if prng == nil || out == nil {
		return fmt.Errorf("rlwe: nil prng or polynomial")
	}
	if err := bounds.Validate(); err != nil {
		return err
	}
	for i := range out {
		v, err := prng.Uniform(bounds.Min, bounds.Max)
		if err != nil {
			return err
		}
		out[i] = reduce(v)
	}
	return nil
}

// SamplePoly is FillPolyBounded on a fresh polynomial.
func SamplePoly(prng *PRNG, bounds Bounds) (Poly, error) {
	var p Poly
	err := FillPolyBounded(prng, &p, bounds)
	return p, err
}
