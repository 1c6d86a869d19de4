// Package keys persists Ring-LWE keys and ring signatures as JSON under a
// key directory (./rlwe_keys by default).
package keys

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/selfi123/Amortization-research-success/rlwe"
)

// DefaultDir is where the command-line tools keep key material.
const DefaultDir = "rlwe_keys"

// ErrNilValue is returned when asked to save a nil key or signature.
var ErrNilValue = errors.New("keys: nothing to save")

const (
	privateFile   = "private.json"
	publicFile    = "public.json"
	signatureFile = "signature.json"
)

// PrivateKey is the on-disk form of a key pair.
type PrivateKey struct {
	Version string  `json:"version"`
	N       int     `json:"N"`
	Q       int64   `json:"Q"`
	Secret  []int64 `json:"s"`
	Public  []int64 `json:"b"`
}

// PublicKey is the on-disk form of a public key.
type PublicKey struct {
	Version string  `json:"version"`
	N       int     `json:"N"`
	Q       int64   `json:"Q"`
	Coeffs  []int64 `json:"b_coeffs"`
}

// FromKeyPair converts kp for storage. Coefficients are written centered.
func FromKeyPair(kp *rlwe.KeyPair) *PrivateKey {
	return &PrivateKey{
		Version: "rlwe-private-v1",
		N:       rlwe.N,
		Q:       rlwe.Q,
		Secret:  kp.Secret.Centered(),
		Public:  kp.Public.Centered(),
	}
}

// KeyPair rebuilds the in-memory key pair, including the common reference.
func (sk *PrivateKey) KeyPair() (*rlwe.KeyPair, error) {
	if err := checkShape(sk.N, sk.Q, len(sk.Secret)); err != nil {
		return nil, err
	}
	if len(sk.Public) != rlwe.N {
		return nil, fmt.Errorf("keys: public key has %d coefficients, want %d", len(sk.Public), rlwe.N)
	}
	a, err := rlwe.CommonReference()
	if err != nil {
		return nil, err
	}
	return &rlwe.KeyPair{
		Secret:    rlwe.FromCentered(sk.Secret),
		Public:    rlwe.FromCentered(sk.Public),
		CommonRef: a,
	}, nil
}

// FromPublic converts a public polynomial for storage.
func FromPublic(p *rlwe.Poly) *PublicKey {
	return &PublicKey{Version: "rlwe-public-v1", N: rlwe.N, Q: rlwe.Q, Coeffs: p.Centered()}
}

// Poly rebuilds the public polynomial.
func (pk *PublicKey) Poly() (rlwe.Poly, error) {
	if err := checkShape(pk.N, pk.Q, len(pk.Coeffs)); err != nil {
		return rlwe.Poly{}, err
	}
	return rlwe.FromCentered(pk.Coeffs), nil
}

func checkShape(n int, q int64, coeffs int) error {
	if n != rlwe.N || q != rlwe.Q {
		return fmt.Errorf("keys: parameters N=%d Q=%d do not match N=%d Q=%d", n, q, rlwe.N, rlwe.Q)
	}
	if coeffs != rlwe.N {
		return fmt.Errorf("keys: %d coefficients, want %d", coeffs, rlwe.N)
	}
	return nil
}

// SavePrivate writes sk to dir/private.json with owner-only permissions.
func SavePrivate(dir string, sk *PrivateKey) error {
	return writeJSON(dir, privateFile, 0o600, sk)
}

// LoadPrivate reads dir/private.json.
func LoadPrivate(dir string) (*PrivateKey, error) {
	var sk PrivateKey
	if err := readJSON(dir, privateFile, &sk); err != nil {
		return nil, err
	}
	return &sk, nil
}

// SavePublic writes pk to dir/public.json.
func SavePublic(dir string, pk *PublicKey) error {
	return writeJSON(dir, publicFile, 0o644, pk)
}

// LoadPublic reads dir/public.json.
func LoadPublic(dir string) (*PublicKey, error) {
	var pk PublicKey
	if err := readJSON(dir, publicFile, &pk); err != nil {
		return nil, err
	}
	return &pk, nil
}

func writeJSON(dir, name string, perm os.FileMode, v any) (err error) {
	if rv := reflect.ValueOf(v); !rv.IsValid() || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
		return fmt.Errorf("%w: %s", ErrNilValue, name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("keys: close %s: %w", name, cerr)
		}
	}()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readJSON(dir, name string, v any) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("keys: decode %s: %w", name, err)
	}
	return nil
}
