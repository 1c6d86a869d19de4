package transport

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"time"
)

// MaxDatagram is the receive buffer size for packet links.
const MaxDatagram = 1280

var ErrClosed = errors.New("transport: link closed")

// Link is a datagram channel to a single peer. Recv blocks until a datagram
// arrives or ctx is done.
type Link interface {
	Send(ctx context.Context, b []byte) error
	Recv(ctx context.Context) ([]byte, error)
}

// PacketLink binds a net.PacketConn to one peer. Datagrams from other
// addresses are discarded.
type PacketLink struct {
	conn net.PacketConn
	peer net.Addr
	mu   sync.Mutex
	buf  []byte
}

// NewPacketLink returns a link to peer over conn.
func NewPacketLink(conn net.PacketConn, peer net.Addr) *PacketLink {
	return &PacketLink{conn: conn, peer: peer, buf: make([]byte, MaxDatagram)}
}

func (l *PacketLink) Send(ctx context.Context, b []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d, ok := ctx.Deadline(); ok {
		l.conn.SetWriteDeadline(d)
		defer l.conn.SetWriteDeadline(time.Time{})
	}
	_, err := l.conn.WriteTo(b, l.peer)
	return err
}

func (l *PacketLink) Recv(ctx context.Context) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if d, ok := ctx.Deadline(); ok {
		l.conn.SetReadDeadline(d)
	} else {
		l.conn.SetReadDeadline(time.Time{})
	}
	stop := context.AfterFunc(ctx, func() { l.conn.SetReadDeadline(time.Now()) })
	defer stop()
	for {
		n, from, err := l.conn.ReadFrom(l.buf)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, net.ErrClosed) {
				return nil, ErrClosed
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return nil, context.DeadlineExceeded
			}
			return nil, err
		}
		if from.String() != l.peer.String() {
			continue
		}
		return append([]byte(nil), l.buf[:n]...), nil
	}
}

// ChanLink is an in-memory Link. Drop, when set, is consulted for every
// outgoing datagram and may discard it to simulate loss.
type ChanLink struct {
	in   <-chan []byte
	out  chan<- []byte
	Drop func(b []byte) bool
}

// Pipe returns two connected in-memory links.
func Pipe() (*ChanLink, *ChanLink) {
	ab := make(chan []byte, 256)
	ba := make(chan []byte, 256)
	return &ChanLink{in: ba, out: ab}, &ChanLink{in: ab, out: ba}
}

func (l *ChanLink) Send(ctx context.Context, b []byte) error {
	if l.Drop != nil && l.Drop(b) {
		return nil
	}
	select {
	case l.out <- append([]byte(nil), b...):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *ChanLink) Recv(ctx context.Context) ([]byte, error) {
	select {
	case b, ok := <-l.in:
		if !ok {
			return nil, ErrClosed
		}
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
