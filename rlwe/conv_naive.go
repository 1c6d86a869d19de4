package rlwe

// NaiveConvolution computes the negacyclic product a*b modulo (x^N+1, Q).
// The size-2N convolution is accumulated with every partial product reduced
// modulo Q, so the int64 accumulator is bounded by 2N*Q and cannot overflow
// the N*Q^2 range of the unreduced sum. The upper half is folded back by
// negation: r[i] = conv[i] - conv[N+i].
func NaiveConvolution(a, b *Poly) Poly {
	var conv [2 * N]int64
	for i := 0; i < N; i++ {
		ai := int64(a[i])
		if ai == 0 {
			continue
		}
		for j := 0; j < N; j++ {
			conv[i+j] += (ai * int64(b[j])) % Q
		}
	}
	var res Poly
	for i := 0; i < N; i++ {
		res[i] = reduce(conv[i] - conv[N+i])
	}
	return res
}

// Multiplier computes ring products. SchoolbookMultiplier is the reference;
// any other implementation must agree with it bit for bit.
type Multiplier interface {
	Mul(a, b *Poly) Poly
}

// SchoolbookMultiplier multiplies with NaiveConvolution.
type SchoolbookMultiplier struct{}

// Mul implements Multiplier.
func (SchoolbookMultiplier) Mul(a, b *Poly) Poly {
	return NaiveConvolution(a, b)
}
