package rlwe

// Poly represents an element of Z_Q[x]/(x^N+1). Coefficients are kept in [0, Q).
type Poly [N]int32

// reduce maps any int64 into [0, Q).
func reduce(x int64) int32 {
	r := x % Q
	if r < 0 {
		r += Q
	}
	return int32(r)
}

// FromCentered builds a polynomial from signed coefficients, reducing each
// modulo Q. Missing trailing coefficients are zero.
func FromCentered(coeffs []int64) Poly {
	var p Poly
	for i := 0; i < N && i < len(coeffs); i++ {
		p[i] = reduce(coeffs[i])
	}
	return p
}

// Add returns p + o mod Q.
func (p *Poly) Add(o *Poly) Poly {
	var r Poly
	for i := range p {
		r[i] = reduce(int64(p[i]) + int64(o[i]))
	}
	return r
}

// Sub returns p - o mod Q.
func (p *Poly) Sub(o *Poly) Poly {
	var r Poly
	for i := range p {
		r[i] = reduce(int64(p[i]) - int64(o[i]))
	}
	return r
}

// Neg returns -p mod Q.
func (p *Poly) Neg() Poly {
	var r Poly
	for i := range p {
		r[i] = reduce(-int64(p[i]))
	}
	return r
}

// ScalarMul returns s*p mod Q.
func (p *Poly) ScalarMul(s int64) Poly {
	sr := int64(reduce(s))
	var r Poly
	for i := range p {
		r[i] = reduce(int64(p[i]) * sr)
	}
	return r
}

// Mul returns the ring product p*o using the schoolbook convolution.
func (p *Poly) Mul(o *Poly) Poly {
	return NaiveConvolution(p, o)
}

// Equal reports whether both polynomials hold the same coefficients.
func (p *Poly) Equal(o *Poly) bool {
	return *p == *o
}

// IsZero reports whether every coefficient is zero.
func (p *Poly) IsZero() bool {
	for _, c := range p {
		if c != 0 {
			return false
		}
	}
	return true
}

// Center returns coefficient i lifted into [-(Q-1)/2, (Q-1)/2].
func (p *Poly) Center(i int) int64 {
	c := int64(p[i])
	if c > Q/2 {
		c -= Q
	}
	return c
}

// Centered returns all coefficients lifted into [-(Q-1)/2, (Q-1)/2].
func (p *Poly) Centered() []int64 {
	out := make([]int64, N)
	for i := range p {
		out[i] = p.Center(i)
	}
	return out
}

// InfNorm returns the largest absolute centered coefficient.
func (p *Poly) InfNorm() int64 {
	var m int64
	for i := range p {
		c := p.Center(i)
		if c < 0 {
			c = -c
		}
		if c > m {
			m = c
		}
	}
	return m
}
