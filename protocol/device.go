package protocol

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/selfi123/Amortization-research-success/internal/log"
	"github.com/selfi123/Amortization-research-success/ldpc"
	"github.com/selfi123/Amortization-research-success/measure"
	"github.com/selfi123/Amortization-research-success/prof"
	"github.com/selfi123/Amortization-research-success/rlwe"
	"github.com/selfi123/Amortization-research-success/rlwe/ringsig"
	"github.com/selfi123/Amortization-research-success/session"
	"github.com/selfi123/Amortization-research-success/transport"
)

var ErrAuthTimeout = errors.New("protocol: no auth ack from gateway")

// signerIndex is the device's slot in its ring.
const signerIndex = 0

// Device authenticates to a gateway over a link and sends session-sealed
// data. A Device is not safe for concurrent use.
type Device struct {
	opts    *Options
	link    transport.Link
	keys    *rlwe.KeyPair
	ring    []rlwe.Poly
	session *session.Sender
	acks    chan []byte
	log     *log.Logger

	transfers uint16

	// Handshakes counts completed authentications.
	Handshakes int
}

// NewDevice binds a key pair to a link. The ring is the device key followed
// by the deterministic decoys.
func NewDevice(opts *Options, link transport.Link, keys *rlwe.KeyPair) (*Device, error) {
	if opts == nil || link == nil || keys == nil {
		return nil, errors.New("protocol: device needs options, link and keys")
	}
	ring, err := Ring(keys.Public)
	if err != nil {
		return nil, err
	}
	return &Device{
		opts: opts,
		link: link,
		keys: keys,
		ring: ring,
		acks: make(chan []byte, 4),
		log:  opts.logger("device"),
	}, nil
}

// Session returns the active session, or nil.
func (d *Device) Session() *session.Sender { return d.session }

// Authenticate runs one handshake and installs the resulting session,
// replacing any previous one.
func (d *Device) Authenticate(ctx context.Context) error {
	defer prof.Track(time.Now(), "protocol.Authenticate")
	d.closeSession()

	ev, err := d.opts.Codec.GenerateErrorVector(d.opts.ErrorWeight, d.opts.random())
	if err != nil {
		return fmt.Errorf("protocol: error vector: %w", err)
	}
	defer ev.Zero()

	wire, err := d.authMessage(&ev)
	if err != nil {
		return err
	}
	d.drainAcks()

	ts := transport.NewSender(d.link)
	// a fresh tag per handshake keeps late retransmissions of the previous
	// transfer out of this one
	ts.Tag = transport.DefaultTag + d.transfers
	d.transfers++
	ts.Timeout = d.opts.FragmentTimeout
	ts.Attempts = d.opts.FragmentAttempts
	ts.SetLogger(d.opts.logger("transport"))
	ts.Deliver = d.deliver
	if err := ts.Send(ctx, wire); err != nil {
		return fmt.Errorf("protocol: auth transfer: %w", err)
	}
	measure.Add(measure.AuthPayload, int64(len(wire)))

	ack, err := d.awaitAuthAck(ctx)
	if err != nil {
		return err
	}
	master := session.DeriveMasterKey(ev.Bits[:], ack.Nonce[:])
	d.session = session.NewSender(ack.SessionID, master, d.opts.Cipher, d.opts.SessionTTL)
	master.Zero()
	d.Handshakes++
	measure.Add(measure.Handshakes, 1)
	d.log.Info("session established", "sid", fmt.Sprintf("%x", ack.SessionID[:]), "profile", d.opts.Cipher.Profile())
	return nil
}

func (d *Device) authMessage(ev *ldpc.ErrorVector) ([]byte, error) {
	prng, err := rlwe.NewPRNG()
	if err != nil {
		return nil, err
	}
	signer := ringsig.NewSigner(prng)
	signer.Multiplier = d.opts.Multiplier
	sig, err := signer.Sign(d.opts.Keyword, d.keys, d.ring, signerIndex)
	if err != nil {
		return nil, fmt.Errorf("protocol: sign: %w", err)
	}
	msg := AuthMessage{PublicKey: d.keys.Public, Signature: *sig}
	copy(msg.Syndrome[:], d.opts.Codec.Encode(ev, &d.opts.LDPCKey.Public))
	return msg.MarshalBinary()
}

func (d *Device) deliver(b []byte) {
	if len(b) == 0 || b[0] != TypeAuthAck {
		return
	}
	select {
	case d.acks <- append([]byte(nil), b...):
	default:
	}
}

func (d *Device) drainAcks() {
	for {
		select {
		case <-d.acks:
		default:
			return
		}
	}
}

func (d *Device) awaitAuthAck(ctx context.Context) (*AuthAck, error) {
	wctx, cancel := context.WithTimeout(ctx, d.opts.AuthTimeout)
	defer cancel()
	for {
		var b []byte
		select {
		case b = <-d.acks:
		default:
			var err error
			b, err = d.link.Recv(wctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				if errors.Is(err, context.DeadlineExceeded) {
					return nil, ErrAuthTimeout
				}
				return nil, fmt.Errorf("protocol: await auth ack: %w", err)
			}
		}
		if len(b) == 0 || b[0] != TypeAuthAck {
			// late fragment acks
			continue
		}
		var ack AuthAck
		if err := ack.UnmarshalBinary(b); err != nil {
			d.log.Warn("dropping malformed auth ack", "err", err)
			continue
		}
		return &ack, nil
	}
}

// Send seals plaintext under the active session and transmits it. A missing,
// expired or exhausted session triggers a fresh handshake first.
func (d *Device) Send(ctx context.Context, plaintext []byte) error {
	if d.session == nil || d.session.NeedsRenewal(d.opts.RenewThreshold) {
		if d.session != nil {
			d.log.Info("renewing session", "sent", d.session.Sent())
		}
		if err := d.Authenticate(ctx); err != nil {
			return err
		}
	}
	msg, err := d.session.Encrypt(plaintext)
	if err != nil {
		return err
	}
	wire, err := msg.MarshalBinary()
	if err != nil {
		return err
	}
	return d.link.Send(ctx, wire)
}

// Close ends the active session.
func (d *Device) Close() {
	d.closeSession()
}

func (d *Device) closeSession() {
	if d.session != nil {
		d.session.Close()
		d.session = nil
	}
}
