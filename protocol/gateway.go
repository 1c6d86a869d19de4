package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/selfi123/Amortization-research-success/internal/log"
	"github.com/selfi123/Amortization-research-success/measure"
	"github.com/selfi123/Amortization-research-success/prof"
	"github.com/selfi123/Amortization-research-success/rlwe/ringsig"
	"github.com/selfi123/Amortization-research-success/session"
	"github.com/selfi123/Amortization-research-success/transport"
)

// MaxPendingPeers bounds the number of peers with a transfer in progress.
const MaxPendingPeers = 64

// Message is a data message the gateway accepted.
type Message struct {
	Peer      net.Addr
	SessionID session.ID
	Counter   uint32
	Plaintext []byte
}

type pending struct {
	r    transport.Reassembler
	seen time.Time
}

// Gateway verifies authentication requests, keeps the session table and
// decrypts data messages. It is safe for concurrent use.
type Gateway struct {
	opts  *Options
	table *session.Table
	log   *log.Logger

	// OnMessage receives every accepted data message.
	OnMessage func(m Message)

	mu      sync.Mutex
	pending map[string]*pending
}

func NewGateway(opts *Options) *Gateway {
	g := &Gateway{
		opts:    opts,
		table:   session.NewTable(opts.SessionCapacity, opts.SessionTTL, opts.Cipher),
		log:     opts.logger("gateway"),
		pending: make(map[string]*pending),
	}
	g.table.SetLogger(opts.logger("session"))
	return g
}

// Sessions exposes the session table.
func (g *Gateway) Sessions() *session.Table { return g.table }

// HandlePacket processes one datagram from a peer and returns the datagrams
// to send back, in order.
func (g *Gateway) HandlePacket(from net.Addr, data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case transport.TypeFragment:
		return g.handleFragment(from, data)
	case TypeData:
		g.handleData(from, data)
	default:
		g.log.Debug("dropping datagram", "peer", from, "type", data[0])
	}
	return nil
}

func (g *Gateway) handleFragment(from net.Addr, data []byte) [][]byte {
	var f transport.Fragment
	if err := f.UnmarshalBinary(data); err != nil {
		g.log.Debug("dropping fragment", "peer", from, "err", err)
		return nil
	}
	payload, err := g.reassemble(from, &f)
	if err != nil {
		g.log.Debug("rejected fragment", "peer", from, "err", err)
		return nil
	}
	ack, _ := (&transport.Ack{Index: f.Index}).MarshalBinary()
	out := [][]byte{ack}
	if payload == nil {
		return out
	}
	reply, err := g.authenticate(from, payload)
	if err != nil {
		g.log.Warn("authentication failed", "peer", from, "err", err)
		return out
	}
	return append(out, reply)
}

func (g *Gateway) reassemble(from net.Addr, f *transport.Fragment) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := from.String()
	p, ok := g.pending[key]
	if !ok {
		if len(g.pending) >= MaxPendingPeers {
			g.evictOldest()
		}
		p = &pending{}
		g.pending[key] = p
	}
	p.seen = time.Now()
	payload, err := p.r.Add(f)
	if payload != nil {
		delete(g.pending, key)
	}
	return payload, err
}

func (g *Gateway) evictOldest() {
	var oldest string
	var at time.Time
	for k, p := range g.pending {
		if oldest == "" || p.seen.Before(at) {
			oldest, at = k, p.seen
		}
	}
	delete(g.pending, oldest)
}

func (g *Gateway) authenticate(from net.Addr, payload []byte) ([]byte, error) {
	defer prof.Track(time.Now(), "protocol.Gateway.authenticate")
	var msg AuthMessage
	if err := msg.UnmarshalBinary(payload); err != nil {
		return nil, err
	}
	if msg.Signature.Keyword != g.opts.Keyword {
		return nil, fmt.Errorf("protocol: unexpected keyword %q", msg.Signature.Keyword)
	}
	ring, err := Ring(msg.PublicKey)
	if err != nil {
		return nil, err
	}
	if err := ringsig.VerifyWith(g.opts.Multiplier, &msg.Signature, ring); err != nil {
		return nil, err
	}
	ev, err := g.opts.Codec.Decode(msg.Syndrome[:], g.opts.LDPCKey)
	if err != nil {
		return nil, err
	}
	defer ev.Zero()

	var ack AuthAck
	if _, err := io.ReadFull(g.opts.random(), ack.Nonce[:]); err != nil {
		return nil, fmt.Errorf("protocol: nonce: %w", err)
	}
	master := session.DeriveMasterKey(ev.Bits[:], ack.Nonce[:])
	defer master.Zero()
	for {
		if _, err := io.ReadFull(g.opts.random(), ack.SessionID[:]); err != nil {
			return nil, fmt.Errorf("protocol: session id: %w", err)
		}
		err := g.table.Create(ack.SessionID, master, from)
		if err == nil {
			break
		}
		if !errors.Is(err, session.ErrDuplicateID) {
			return nil, err
		}
	}
	measure.Add(measure.Handshakes, 1)
	g.log.Info("device authenticated", "peer", from, "sid", fmt.Sprintf("%x", ack.SessionID[:]))
	return ack.MarshalBinary()
}

func (g *Gateway) handleData(from net.Addr, data []byte) {
	var msg session.DataMessage
	if err := msg.UnmarshalBinary(data); err != nil {
		g.log.Debug("dropping data message", "peer", from, "err", err)
		return
	}
	pt, err := g.table.Decrypt(&msg)
	if err != nil {
		g.log.Warn("rejected data message", "peer", from, "sid", fmt.Sprintf("%x", msg.SessionID[:]), "counter", msg.Counter, "err", err)
		return
	}
	g.log.Debug("data message", "peer", from, "counter", msg.Counter, "bytes", len(pt))
	if g.OnMessage != nil {
		g.OnMessage(Message{Peer: from, SessionID: msg.SessionID, Counter: msg.Counter, Plaintext: pt})
	}
}

// Serve reads datagrams from conn until ctx ends or conn fails.
func (g *Gateway) Serve(ctx context.Context, conn net.PacketConn) error {
	stop := context.AfterFunc(ctx, func() { conn.SetReadDeadline(time.Now()) })
	defer stop()
	buf := make([]byte, transport.MaxDatagram)
	g.log.Info("gateway listening", "addr", conn.LocalAddr())
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}
		for _, reply := range g.HandlePacket(from, buf[:n]) {
			if _, err := conn.WriteTo(reply, from); err != nil {
				g.log.Warn("write failed", "peer", from, "err", err)
			}
		}
	}
}

// ServeLink serves a single peer over an in-memory link.
func (g *Gateway) ServeLink(ctx context.Context, l transport.Link, peer net.Addr) error {
	for {
		b, err := l.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		for _, reply := range g.HandlePacket(peer, b) {
			if err := l.Send(ctx, reply); err != nil {
				return err
			}
		}
	}
}
