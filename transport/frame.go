// Package transport carries payloads larger than one datagram across a
// narrow link: fixed-size fragments, each sent stop-and-wait until its
// acknowledgement arrives, reassembled by offset at the receiver.
package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	TypeFragment = 0x04
	TypeAck      = 0x05
	// PayloadSize is the payload carried by every fragment but the last.
	PayloadSize = 64
	// FragmentHeaderSize covers type, tag, index, total and payload length.
	FragmentHeaderSize = 1 + 2 + 2 + 2 + 2
	AckSize            = 1 + 2
	// MaxFragments bounds a single transfer.
	MaxFragments = 1024
	// DefaultTag is the logical session tag stamped on outgoing fragments.
	DefaultTag = 0xAB12
)

var (
	ErrMalformed = errors.New("transport: malformed frame")
	ErrTooLarge  = errors.New("transport: payload too large")
)

// Fragment is one slice of a transfer.
// Wire: type(1) ‖ tag(2) ‖ index(2) ‖ total(2) ‖ len(2) ‖ payload(len).
type Fragment struct {
	Tag     uint16
	Index   uint16
	Total   uint16
	Payload []byte
}

func (f *Fragment) MarshalBinary() ([]byte, error) {
	if len(f.Payload) > PayloadSize {
		return nil, fmt.Errorf("%w: fragment payload %d > %d", ErrMalformed, len(f.Payload), PayloadSize)
	}
	b := make([]byte, FragmentHeaderSize, FragmentHeaderSize+len(f.Payload))
	b[0] = TypeFragment
	binary.BigEndian.PutUint16(b[1:], f.Tag)
	binary.BigEndian.PutUint16(b[3:], f.Index)
	binary.BigEndian.PutUint16(b[5:], f.Total)
	binary.BigEndian.PutUint16(b[7:], uint16(len(f.Payload)))
	return append(b, f.Payload...), nil
}

// UnmarshalBinary decodes a fragment. Bytes after the declared payload
// length are ignored, so fixed-size padded frames decode too.
func (f *Fragment) UnmarshalBinary(b []byte) error {
	if len(b) < FragmentHeaderSize || b[0] != TypeFragment {
		return fmt.Errorf("%w: not a fragment", ErrMalformed)
	}
	n := int(binary.BigEndian.Uint16(b[7:]))
	if n > PayloadSize || len(b) < FragmentHeaderSize+n {
		return fmt.Errorf("%w: payload length %d with %d bytes", ErrMalformed, n, len(b)-FragmentHeaderSize)
	}
	f.Tag = binary.BigEndian.Uint16(b[1:])
	f.Index = binary.BigEndian.Uint16(b[3:])
	f.Total = binary.BigEndian.Uint16(b[5:])
	f.Payload = append([]byte(nil), b[FragmentHeaderSize:FragmentHeaderSize+n]...)
	return nil
}

// Ack acknowledges one fragment index. Wire: type(1) ‖ index(2).
type Ack struct {
	Index uint16
}

func (a *Ack) MarshalBinary() ([]byte, error) {
	b := []byte{TypeAck, 0, 0}
	binary.BigEndian.PutUint16(b[1:], a.Index)
	return b, nil
}

func (a *Ack) UnmarshalBinary(b []byte) error {
	if len(b) < AckSize || b[0] != TypeAck {
		return fmt.Errorf("%w: not an ack", ErrMalformed)
	}
	a.Index = binary.BigEndian.Uint16(b[1:])
	return nil
}

// FragmentCount returns how many fragments an n-byte payload needs.
func FragmentCount(n int) int {
	return (n + PayloadSize - 1) / PayloadSize
}

// Split cuts payload into ordered fragments stamped with tag.
func Split(tag uint16, payload []byte) ([]Fragment, error) {
	total := FragmentCount(len(payload))
	if total == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformed)
	}
	if total > MaxFragments {
		return nil, fmt.Errorf("%w: %d fragments > %d", ErrTooLarge, total, MaxFragments)
	}
	out := make([]Fragment, total)
	for i := range out {
		end := min((i+1)*PayloadSize, len(payload))
		out[i] = Fragment{
			Tag:     tag,
			Index:   uint16(i),
			Total:   uint16(total),
			Payload: payload[i*PayloadSize : end],
		}
	}
	return out, nil
}
