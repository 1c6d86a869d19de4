package session

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/selfi123/Amortization-research-success/aead"
)

// TypeData is the leading byte of a data message.
const TypeData = 0x03

// dataHeaderSize covers type, session id, counter and length.
const dataHeaderSize = 1 + IDSize + 4 + 2

var ErrMalformed = errors.New("session: malformed data message")

// DataMessage is one encrypted application message.
// Wire form: type(1) ‖ sid(8) ‖ counter(4 BE) ‖ len(2 BE) ‖ ciphertext‖tag.
type DataMessage struct {
	SessionID ID
	Counter   uint32
	Sealed    []byte
}

func (m *DataMessage) MarshalBinary() ([]byte, error) {
	if len(m.Sealed) < aead.TagSize || len(m.Sealed) > aead.MaxPlaintext+aead.TagSize {
		return nil, fmt.Errorf("%w: sealed length %d", ErrMalformed, len(m.Sealed))
	}
	b := make([]byte, 0, dataHeaderSize+len(m.Sealed))
	b = append(b, TypeData)
	b = append(b, m.SessionID[:]...)
	b = binary.BigEndian.AppendUint32(b, m.Counter)
	b = binary.BigEndian.AppendUint16(b, uint16(len(m.Sealed)))
	return append(b, m.Sealed...), nil
}

func (m *DataMessage) UnmarshalBinary(b []byte) error {
	if len(b) < dataHeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrMalformed, len(b))
	}
	if b[0] != TypeData {
		return fmt.Errorf("%w: type 0x%02x", ErrMalformed, b[0])
	}
	n := int(binary.BigEndian.Uint16(b[dataHeaderSize-2:]))
	if n != len(b)-dataHeaderSize {
		return fmt.Errorf("%w: declared %d bytes, carried %d", ErrMalformed, n, len(b)-dataHeaderSize)
	}
	if n < aead.TagSize || n > aead.MaxPlaintext+aead.TagSize {
		return fmt.Errorf("%w: sealed length %d", ErrMalformed, n)
	}
	copy(m.SessionID[:], b[1:])
	m.Counter = binary.BigEndian.Uint32(b[1+IDSize:])
	m.Sealed = append([]byte(nil), b[dataHeaderSize:]...)
	return nil
}
