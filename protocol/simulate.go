package protocol

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/selfi123/Amortization-research-success/measure"
	"github.com/selfi123/Amortization-research-success/prof"
	"github.com/selfi123/Amortization-research-success/rlwe"
	"github.com/selfi123/Amortization-research-success/transport"
)

// SimConfig describes an in-process device and gateway run.
type SimConfig struct {
	Messages    int
	PayloadSize int
	// DropEvery drops every n-th fragment or fragment ack in each
	// direction; 0 disables loss.
	DropEvery int
}

// SimReport summarizes a simulation.
type SimReport struct {
	Messages   int
	Delivered  int
	Handshakes int
	Elapsed    time.Duration
	Counters   map[string]int64
	Timings    []prof.Stat
}

// BytesOnAir is every byte the device put on the link.
func (r *SimReport) BytesOnAir() int64 {
	return r.Counters[measure.TransportBytes] + r.Counters[measure.SessionDataBytes]
}

var simPeer = &net.UDPAddr{IP: net.IPv4(192, 0, 2, 1), Port: 5683}

// Simulate runs cfg.Messages data messages from a fresh device to a fresh
// gateway over an in-memory link. It records measurements for the duration
// of the run and resets the global counters.
func Simulate(ctx context.Context, opts *Options, cfg SimConfig) (*SimReport, error) {
	if cfg.Messages <= 0 {
		return nil, fmt.Errorf("protocol: simulate needs at least one message")
	}
	size := cfg.PayloadSize
	if size <= 0 {
		size = 16
	}
	wasOn := measure.Enabled()
	measure.SetEnabled(true)
	defer measure.SetEnabled(wasOn)
	measure.SnapshotAndReset()
	prof.SnapshotAndReset()

	devLink, gwLink := transport.Pipe()
	if cfg.DropEvery > 0 {
		devLink.Drop = dropEvery(cfg.DropEvery)
		gwLink.Drop = dropEvery(cfg.DropEvery)
	}
	gw := NewGateway(opts)
	delivered := make(chan struct{}, cfg.Messages)
	gw.OnMessage = func(Message) { delivered <- struct{}{} }

	sctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- gw.ServeLink(sctx, gwLink, simPeer) }()
	defer func() {
		cancel()
		<-done
	}()

	kp, err := rlwe.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	defer kp.Zero()
	dev, err := NewDevice(opts, devLink, kp)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	rep := &SimReport{Messages: cfg.Messages}
	start := time.Now()
	payload := make([]byte, size)
	for i := 0; i < cfg.Messages; i++ {
		payload[0] = byte(i)
		if err := dev.Send(ctx, payload); err != nil {
			return nil, fmt.Errorf("protocol: message %d: %w", i, err)
		}
	}
	// data messages are unacknowledged; give the gateway a moment to drain
	wait := time.After(time.Second)
drain:
	for rep.Delivered < cfg.Messages {
		select {
		case <-delivered:
			rep.Delivered++
		case <-wait:
			break drain
		case <-ctx.Done():
			break drain
		}
	}
	rep.Elapsed = time.Since(start)
	rep.Handshakes = dev.Handshakes
	rep.Counters = measure.SnapshotAndReset()
	rep.Timings = prof.Summarize(prof.SnapshotAndReset())
	return rep, nil
}

func dropEvery(n int) func([]byte) bool {
	i := 0
	return func(b []byte) bool {
		if b[0] != transport.TypeFragment && b[0] != transport.TypeAck {
			return false
		}
		i++
		return i%n == 0
	}
}
