package ringsig

import "fmt"

// Keyword is the application tag bound into a signature, zero padded.
type Keyword [KeywordSize]byte

// NewKeyword copies b into a Keyword. Inputs longer than KeywordSize are
// rejected rather than truncated.
func NewKeyword(b []byte) (Keyword, error) {
	var kw Keyword
	if len(b) > KeywordSize {
		return kw, fmt.Errorf("ringsig: keyword is %d bytes, max %d", len(b), KeywordSize)
	}
	copy(kw[:], b)
	return kw, nil
}

// String returns the keyword with trailing zero padding removed.
func (kw Keyword) String() string {
	n := len(kw)
	for n > 0 && kw[n-1] == 0 {
		n--
	}
	return string(kw[:n])
}
