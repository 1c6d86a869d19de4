// Package aead provides the two authenticated-encryption profiles used for
// session traffic. Both share one wire shape: ciphertext followed by a
// 16-byte tag, under a 32-byte key and a 12-byte nonce.
package aead

import (
	"errors"
	"fmt"
	"strings"
)

const (
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16
	// MaxAAD and MaxPlaintext are the largest inputs either profile accepts.
	MaxAAD       = 64
	MaxPlaintext = 128
)

var (
	ErrAuth               = errors.New("aead: message authentication failed")
	ErrKeySize            = errors.New("aead: invalid key size")
	ErrNonceSize          = errors.New("aead: invalid nonce size")
	ErrAADTooLong         = errors.New("aead: additional data too long")
	ErrPlaintextTooLong   = errors.New("aead: plaintext too long")
	ErrCiphertextTooShort = errors.New("aead: ciphertext shorter than tag")
	ErrUnknownProfile     = errors.New("aead: unknown profile")
)

// Profile selects a cipher construction.
type Profile uint8

const (
	// ProfileLegacy is AES-128-CTR with a truncated HMAC-SHA256 tag.
	ProfileLegacy Profile = iota + 1
	// ProfileGCM is AES-256-GCM.
	ProfileGCM
)

func (p Profile) String() string {
	switch p {
	case ProfileLegacy:
		return "legacy"
	case ProfileGCM:
		return "gcm"
	default:
		return fmt.Sprintf("profile(%d)", uint8(p))
	}
}

// ParseProfile accepts "legacy" or "gcm", case-insensitively.
func ParseProfile(s string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "legacy", "ctr-hmac":
		return ProfileLegacy, nil
	case "gcm", "aes-gcm", "aes256gcm":
		return ProfileGCM, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownProfile, s)
}

// MarshalText implements encoding.TextMarshaler for config files.
func (p Profile) MarshalText() ([]byte, error) {
	if p != ProfileLegacy && p != ProfileGCM {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProfile, uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Profile) UnmarshalText(b []byte) error {
	v, err := ParseProfile(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Cipher is the common contract of both profiles. Seal returns
// ciphertext‖tag. Open verifies the tag before producing any plaintext and
// returns nil plaintext with ErrAuth on mismatch.
type Cipher interface {
	Seal(key, nonce, plaintext, aad []byte) ([]byte, error)
	Open(key, nonce, sealed, aad []byte) ([]byte, error)
	Profile() Profile
}

// New returns the Cipher for p.
func New(p Profile) (Cipher, error) {
	switch p {
	case ProfileLegacy:
		return Legacy{}, nil
	case ProfileGCM:
		return GCM{}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownProfile, uint8(p))
}

func checkParams(key, nonce, aad []byte) error {
	if len(key) != KeySize {
		return fmt.Errorf("%w: %d", ErrKeySize, len(key))
	}
	if len(nonce) != NonceSize {
		return fmt.Errorf("%w: %d", ErrNonceSize, len(nonce))
	}
	if len(aad) > MaxAAD {
		return fmt.Errorf("%w: %d > %d", ErrAADTooLong, len(aad), MaxAAD)
	}
	return nil
}

func checkSeal(key, nonce, plaintext, aad []byte) error {
	if err := checkParams(key, nonce, aad); err != nil {
		return err
	}
	if len(plaintext) > MaxPlaintext {
		return fmt.Errorf("%w: %d > %d", ErrPlaintextTooLong, len(plaintext), MaxPlaintext)
	}
	return nil
}

func checkOpen(key, nonce, sealed, aad []byte) error {
	if err := checkParams(key, nonce, aad); err != nil {
		return err
	}
	if len(sealed) < TagSize {
		return fmt.Errorf("%w: %d", ErrCiphertextTooShort, len(sealed))
	}
	if len(sealed)-TagSize > MaxPlaintext {
		return fmt.Errorf("%w: %d > %d", ErrPlaintextTooLong, len(sealed)-TagSize, MaxPlaintext)
	}
	return nil
}
