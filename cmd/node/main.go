package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/selfi123/Amortization-research-success/config"
	"github.com/selfi123/Amortization-research-success/measure"
	"github.com/selfi123/Amortization-research-success/protocol"
	"github.com/selfi123/Amortization-research-success/rlwe"
	"github.com/selfi123/Amortization-research-success/rlwe/keys"
	"github.com/selfi123/Amortization-research-success/transport"
)

func usage() {
	fmt.Println(`usage: node <gateway|device> [options]

Subcommands:
  gateway   Listen on -listen, authenticate devices and print their messages
  device    Authenticate to -peer and send data messages
            Flags (in addition to the shared settings below):
              -n        <int>        messages to send (default: 10)
              -m        <string>     message prefix (default: "reading")
              -interval <duration>   pause between messages (default: 1s)
              -keys     <path>       load the keypair from this directory
                                     instead of generating a fresh one

Shared settings (override -config <file.json>):
  -listen -peer -aead -multiplier -keyword -ldpc-seed -weight
  -frag-timeout -frag-attempts -auth-timeout -renew -sessions -session-ttl
  -log-level -log-format`)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	switch os.Args[1] {
	case "gateway":
		runGateway(ctx, os.Args[2:])
	case "device":
		runDevice(ctx, os.Args[2:])
	default:
		usage()
	}
	measure.Global.Dump(os.Stdout)
}

func options(fs *flag.FlagSet, f *config.Flags, args []string) (config.Node, *protocol.Options) {
	fs.Parse(args)
	n, err := f.Node()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	opts, err := protocol.NewOptions(n)
	if err != nil {
		log.Fatalf("options: %v", err)
	}
	return n, opts
}

func runGateway(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("gateway", flag.ExitOnError)
	f := config.RegisterFlags(fs)
	n, opts := options(fs, f, args)

	conn, err := net.ListenPacket("udp", n.Listen)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer conn.Close()

	gw := protocol.NewGateway(opts)
	gw.OnMessage = func(m protocol.Message) {
		fmt.Printf("%s sid=%x ctr=%d %q\n", m.Peer, m.SessionID[:], m.Counter, m.Plaintext)
	}
	if err := gw.Serve(ctx, conn); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

func runDevice(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("device", flag.ExitOnError)
	f := config.RegisterFlags(fs)
	count := fs.Int("n", 10, "messages to send")
	prefix := fs.String("m", "reading", "message prefix")
	interval := fs.Duration("interval", time.Second, "pause between messages")
	keyDir := fs.String("keys", "", "keypair directory")
	n, opts := options(fs, f, args)

	kp, err := loadOrGenerate(*keyDir)
	if err != nil {
		log.Fatalf("keys: %v", err)
	}
	defer kp.Zero()

	peer, err := net.ResolveUDPAddr("udp", n.Peer)
	if err != nil {
		log.Fatalf("peer: %v", err)
	}
	conn, err := net.ListenPacket("udp", ":0")
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer conn.Close()

	dev, err := protocol.NewDevice(opts, transport.NewPacketLink(conn, peer), kp)
	if err != nil {
		log.Fatalf("device: %v", err)
	}
	defer dev.Close()

	for i := 0; i < *count; i++ {
		msg := fmt.Sprintf("%s %d", *prefix, i)
		if err := dev.Send(ctx, []byte(msg)); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Fatalf("send %d: %v", i, err)
		}
		fmt.Printf("sent %q (session %x, counter %d)\n", msg, dev.Session().ID[:], dev.Session().Sent())
		select {
		case <-ctx.Done():
			return
		case <-time.After(*interval):
		}
	}
	fmt.Printf("done: %d messages, %d handshakes\n", *count, dev.Handshakes)
}

func loadOrGenerate(dir string) (*rlwe.KeyPair, error) {
	if dir == "" {
		return rlwe.GenerateKeyPair()
	}
	sk, err := keys.LoadPrivate(dir)
	if err != nil {
		return nil, err
	}
	return sk.KeyPair()
}
