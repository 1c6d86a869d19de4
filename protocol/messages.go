// Package protocol runs the handshake and data exchange between a device and
// a gateway: a ring-signed authentication message carrying an LDPC syndrome,
// answered with a session id and nonce, then session-keyed data messages.
package protocol

import (
	"errors"
	"fmt"

	"github.com/selfi123/Amortization-research-success/ldpc"
	"github.com/selfi123/Amortization-research-success/rlwe"
	"github.com/selfi123/Amortization-research-success/rlwe/ringsig"
	"github.com/selfi123/Amortization-research-success/session"
)

const (
	TypeAuth    = 0x01
	TypeAuthAck = 0x02
	TypeData    = session.TypeData

	NonceSize = 32
	// AuthMessageSize is type ‖ syndrome ‖ public key ‖ signature.
	AuthMessageSize = 1 + ldpc.SyndromeSize + rlwe.PolyBytes + ringsig.SignatureBytes
	AuthAckSize     = 1 + NonceSize + session.IDSize
)

var ErrMalformed = errors.New("protocol: malformed message")

// AuthMessage is the device's authentication request.
type AuthMessage struct {
	Syndrome  [ldpc.SyndromeSize]byte
	PublicKey rlwe.Poly
	Signature ringsig.Signature
}

func (m *AuthMessage) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, AuthMessageSize)
	b = append(b, TypeAuth)
	b = append(b, m.Syndrome[:]...)
	b = rlwe.AppendPoly(b, &m.PublicKey)
	return m.Signature.AppendBinary(b), nil
}

func (m *AuthMessage) UnmarshalBinary(b []byte) error {
	if len(b) != AuthMessageSize || b[0] != TypeAuth {
		return fmt.Errorf("%w: auth message of %d bytes", ErrMalformed, len(b))
	}
	off := 1
	copy(m.Syndrome[:], b[off:])
	off += ldpc.SyndromeSize
	pk, err := rlwe.UnmarshalPoly(b[off : off+rlwe.PolyBytes])
	if err != nil {
		return fmt.Errorf("%w: public key: %v", ErrMalformed, err)
	}
	m.PublicKey = pk
	off += rlwe.PolyBytes
	if err := m.Signature.UnmarshalBinary(b[off:]); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// AuthAck is the gateway's reply: its nonce N_G and the new session id.
type AuthAck struct {
	Nonce     [NonceSize]byte
	SessionID session.ID
}

func (a *AuthAck) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, AuthAckSize)
	b = append(b, TypeAuthAck)
	b = append(b, a.Nonce[:]...)
	return append(b, a.SessionID[:]...), nil
}

func (a *AuthAck) UnmarshalBinary(b []byte) error {
	if len(b) != AuthAckSize || b[0] != TypeAuthAck {
		return fmt.Errorf("%w: auth ack of %d bytes", ErrMalformed, len(b))
	}
	copy(a.Nonce[:], b[1:])
	copy(a.SessionID[:], b[1+NonceSize:])
	return nil
}

// Ring returns the verification ring for a transmitted public key: the key in
// slot 0 and deterministic decoys in the remaining slots.
func Ring(pk rlwe.Poly) ([]rlwe.Poly, error) {
	ring := make([]rlwe.Poly, rlwe.RingSize)
	ring[0] = pk
	for i := 1; i < rlwe.RingSize; i++ {
		d, err := rlwe.GenerateDecoyKey(i)
		if err != nil {
			return nil, err
		}
		ring[i] = d
	}
	return ring, nil
}
