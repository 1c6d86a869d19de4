package config

import (
	"flag"
	"strconv"
	"time"

	"github.com/selfi123/Amortization-research-success/aead"
)

// Flags registers node settings on a FlagSet. Flags given on the command
// line are applied on top of the file named by -config (or the defaults).
type Flags struct {
	path  *string
	apply []func(*Node) error
}

// RegisterFlags adds -config and one flag per setting to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{path: fs.String("config", "", "JSON settings file")}
	d := Default()
	f.str(fs, "listen", "local UDP address (default "+d.Listen+")", func(n *Node) *string { return &n.Listen })
	f.str(fs, "peer", "remote UDP address (default "+d.Peer+")", func(n *Node) *string { return &n.Peer })
	f.str(fs, "multiplier", "ring multiplier: schoolbook or rns", func(n *Node) *string { return &n.Multiplier })
	f.str(fs, "keyword", "keyword bound into the ring signature", func(n *Node) *string { return &n.Keyword })
	f.str(fs, "ldpc-seed", "hex seed of the shared code", func(n *Node) *string { return &n.LDPCSeed })
	f.str(fs, "log-level", "debug, info, warn or error", func(n *Node) *string { return &n.LogLevel })
	f.str(fs, "log-format", "text or json", func(n *Node) *string { return &n.LogFormat })
	f.dur(fs, "frag-timeout", "per-fragment ack timeout", func(n *Node) *time.Duration { return &n.FragmentTimeout })
	f.dur(fs, "auth-timeout", "handshake reply timeout", func(n *Node) *time.Duration { return &n.AuthTimeout })
	f.dur(fs, "session-ttl", "gateway session lifetime", func(n *Node) *time.Duration { return &n.SessionTTL })
	f.num(fs, "frag-attempts", "attempts per fragment", func(n *Node) *int { return &n.FragmentAttempts })
	f.num(fs, "renew", "messages per session before re-authentication", func(n *Node) *int { return &n.RenewThreshold })
	f.num(fs, "sessions", "gateway session table capacity", func(n *Node) *int { return &n.SessionCapacity })
	f.num(fs, "weight", "LDPC error vector weight", func(n *Node) *int { return &n.ErrorWeight })
	fs.Func("aead", "AEAD profile: legacy or gcm", func(s string) error {
		p, err := aead.ParseProfile(s)
		if err != nil {
			return err
		}
		f.apply = append(f.apply, func(n *Node) error { n.Profile = p; return nil })
		return nil
	})
	return f
}

func (f *Flags) str(fs *flag.FlagSet, name, usage string, field func(*Node) *string) {
	fs.Func(name, usage, func(s string) error {
		f.apply = append(f.apply, func(n *Node) error { *field(n) = s; return nil })
		return nil
	})
}

func (f *Flags) dur(fs *flag.FlagSet, name, usage string, field func(*Node) *time.Duration) {
	fs.Func(name, usage, func(s string) error {
		d, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		f.apply = append(f.apply, func(n *Node) error { *field(n) = d; return nil })
		return nil
	})
}

func (f *Flags) num(fs *flag.FlagSet, name, usage string, field func(*Node) *int) {
	fs.Func(name, usage, func(s string) error {
		v, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		f.apply = append(f.apply, func(n *Node) error { *field(n) = v; return nil })
		return nil
	})
}

// Node resolves the settings after fs.Parse: file (or defaults), then flags,
// then validation.
func (f *Flags) Node() (Node, error) {
	n := Default()
	if *f.path != "" {
		var err error
		if n, err = Load(*f.path); err != nil {
			return n, err
		}
	}
	for _, a := range f.apply {
		if err := a(&n); err != nil {
			return n, err
		}
	}
	return n, n.Validate()
}
