package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/selfi123/Amortization-research-success/aead"
	nodelog "github.com/selfi123/Amortization-research-success/internal/log"
	"github.com/selfi123/Amortization-research-success/measure"
	"github.com/selfi123/Amortization-research-success/protocol"
	"github.com/selfi123/Amortization-research-success/rlwe"
	"github.com/selfi123/Amortization-research-success/rlwe/keys"
	"github.com/selfi123/Amortization-research-success/rlwe/ringsig"
)

func usage() {
	fmt.Println(`usage: rlwecli <gen|sign|verify|simulate> [options]

Subcommands:
  gen       Generate a Ring-LWE keypair and write ./rlwe_keys/{public,private}.json
            Flags:
              -dir <path>          key directory (default: rlwe_keys)

  sign      Ring-sign a keyword and write ./rlwe_keys/signature.json
            Flags:
              -m     <string>      keyword to sign, at most 32 bytes (default: AUTH_REQUEST)
              -index <int>         signer slot in the ring (default: 0)
              -rns                 multiply through the NTT/CRT path
              -dir   <path>        key directory

  verify    Verify ./rlwe_keys/signature.json against the ring it carries

  simulate  Run a device and a gateway in-process over an in-memory link
            Flags:
              -n       <int>       data messages (default: 50)
              -renew   <int>       messages per session (default: 20)
              -profile <name>      legacy|gcm (default: gcm)
              -drop    <int>       drop every n-th fragment or ack (default: 0)
              -v                   log handshakes and sessions`)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	switch os.Args[1] {
	case "gen":
		runGen(os.Args[2:])
	case "sign":
		runSign(os.Args[2:])
	case "verify":
		runVerify(os.Args[2:])
	case "simulate":
		runSimulate(os.Args[2:])
	default:
		usage()
	}
}

func runGen(args []string) {
	fs := flag.NewFlagSet("gen", flag.ExitOnError)
	dir := fs.String("dir", keys.DefaultDir, "key directory")
	fs.Parse(args)

	kp, err := rlwe.GenerateKeyPair()
	if err != nil {
		log.Fatalf("gen: %v", err)
	}
	defer kp.Zero()
	if err := keys.SavePrivate(*dir, keys.FromKeyPair(kp)); err != nil {
		log.Fatalf("save private: %v", err)
	}
	if err := keys.SavePublic(*dir, keys.FromPublic(&kp.Public)); err != nil {
		log.Fatalf("save public: %v", err)
	}
	fmt.Printf("keys written to ./%s\n", *dir)
}

func runSign(args []string) {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	msg := fs.String("m", "AUTH_REQUEST", "keyword to sign")
	index := fs.Int("index", 0, "signer slot in the ring")
	useRNS := fs.Bool("rns", false, "use the RNS multiplier")
	dir := fs.String("dir", keys.DefaultDir, "key directory")
	fs.Parse(args)
	if *index < 0 || *index >= rlwe.RingSize {
		log.Fatalf("sign: -index must be in [0,%d)", rlwe.RingSize)
	}

	sk, err := keys.LoadPrivate(*dir)
	if err != nil {
		log.Fatalf("load private: %v", err)
	}
	kp, err := sk.KeyPair()
	if err != nil {
		log.Fatalf("private key: %v", err)
	}
	defer kp.Zero()
	kw, err := ringsig.NewKeyword([]byte(*msg))
	if err != nil {
		log.Fatalf("sign: %v", err)
	}

	ring := make([]rlwe.Poly, rlwe.RingSize)
	decoy := 1
	for i := range ring {
		if i == *index {
			ring[i] = kp.Public
			continue
		}
		if ring[i], err = rlwe.GenerateDecoyKey(decoy); err != nil {
			log.Fatalf("decoy: %v", err)
		}
		decoy++
	}

	prng, err := rlwe.NewPRNG()
	if err != nil {
		log.Fatalf("prng: %v", err)
	}
	signer := ringsig.NewSigner(prng)
	if *useRNS {
		m, err := rlwe.NewRNSMultiplier()
		if err != nil {
			log.Fatalf("rns: %v", err)
		}
		signer.Multiplier = m
	}
	start := time.Now()
	sig, err := signer.Sign(kw, kp, ring, *index)
	if err != nil {
		log.Fatalf("sign: %v", err)
	}
	fmt.Printf("sign: keyword=%q slot=%d elapsed=%s bytes=%d\n", kw, *index, time.Since(start), ringsig.SignatureBytes)
	if err := keys.SaveSignature(*dir, keys.FromSignature(sig, ring)); err != nil {
		log.Fatalf("save signature: %v", err)
	}
	fmt.Printf("signature written to ./%s/signature.json\n", *dir)
}

func runVerify(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	dir := fs.String("dir", keys.DefaultDir, "key directory")
	fs.Parse(args)

	bundle, err := keys.LoadSignature(*dir)
	if err != nil {
		log.Fatalf("load signature: %v", err)
	}
	sig, ring, err := bundle.Decode()
	if err != nil {
		log.Fatalf("decode signature: %v", err)
	}
	if err := ringsig.VerifyErr(sig, ring); err != nil {
		log.Fatalf("verify failed: %v", err)
	}
	fmt.Printf("signature verified (keyword=%q)\n", sig.Keyword)
}

func runSimulate(args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	n := fs.Int("n", 50, "data messages")
	renew := fs.Int("renew", 20, "messages per session")
	profile := fs.String("profile", "gcm", "AEAD profile: legacy|gcm")
	drop := fs.Int("drop", 0, "drop every n-th fragment or ack")
	verbose := fs.Bool("v", false, "log handshakes and sessions")
	fs.Parse(args)

	p, err := aead.ParseProfile(*profile)
	if err != nil {
		log.Fatalf("simulate: %v", err)
	}
	opts, err := protocol.DefaultOptions()
	if err != nil {
		log.Fatalf("simulate: %v", err)
	}
	if opts.Cipher, err = aead.New(p); err != nil {
		log.Fatalf("simulate: %v", err)
	}
	if *renew <= 0 {
		log.Fatalf("simulate: -renew must be positive")
	}
	opts.RenewThreshold = uint32(*renew)
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	opts.Log = nodelog.New(os.Stderr, "text", level)
	if *drop > 0 {
		opts.FragmentTimeout = 100 * time.Millisecond
	}

	rep, err := protocol.Simulate(context.Background(), opts, protocol.SimConfig{Messages: *n, DropEvery: *drop})
	if err != nil {
		log.Fatalf("simulate: %v", err)
	}
	fmt.Printf("simulate: profile=%s messages=%d delivered=%d handshakes=%d elapsed=%s\n",
		p, rep.Messages, rep.Delivered, rep.Handshakes, rep.Elapsed)
	fmt.Printf("simulate: auth=%s fragments=%d retries=%d data=%s on-air=%s\n",
		measure.Human(rep.Counters[measure.AuthPayload]),
		rep.Counters[measure.TransportFragments],
		rep.Counters[measure.TransportRetries],
		measure.Human(rep.Counters[measure.SessionDataBytes]),
		measure.Human(rep.BytesOnAir()))
	for _, s := range rep.Timings {
		fmt.Printf("simulate: %-32s n=%-4d mean=%s\n", s.Label, s.Count, s.Mean())
	}
}
