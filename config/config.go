// Package config holds the runtime settings of a node. Cryptographic
// parameters are build-time constants and never appear here.
package config

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/selfi123/Amortization-research-success/aead"
	"github.com/selfi123/Amortization-research-success/ldpc"
	"github.com/selfi123/Amortization-research-success/session"
	"github.com/selfi123/Amortization-research-success/transport"
)

// DefaultLDPCSeed is the code seed shared by the demo nodes.
const DefaultLDPCSeed = "6c6470632d64656d6f2d736565642d3030303030303030303030303030303030"

var ErrInvalid = errors.New("config: invalid setting")

// Node is the full set of runtime settings.
type Node struct {
	Listen           string
	Peer             string
	Profile          aead.Profile
	Multiplier       string
	Keyword          string
	FragmentTimeout  time.Duration
	FragmentAttempts int
	AuthTimeout      time.Duration
	RenewThreshold   int
	SessionCapacity  int
	SessionTTL       time.Duration
	ErrorWeight      int
	LDPCSeed         string
	LogLevel         string
	LogFormat        string
}

// Default returns the settings used when no file is given.
func Default() Node {
	return Node{
		Listen:           "127.0.0.1:5678",
		Peer:             "127.0.0.1:5678",
		Profile:          aead.ProfileGCM,
		Multiplier:       "schoolbook",
		Keyword:          "AUTH_REQUEST",
		FragmentTimeout:  transport.DefaultTimeout,
		FragmentAttempts: transport.DefaultAttempts,
		AuthTimeout:      60 * time.Second,
		RenewThreshold:   session.DefaultRenewThreshold,
		SessionCapacity:  session.DefaultCapacity,
		SessionTTL:       session.DefaultTTL,
		ErrorWeight:      ldpc.DefaultWeight,
		LDPCSeed:         DefaultLDPCSeed,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Validate checks ranges and formats.
func (n *Node) Validate() error {
	switch {
	case n.FragmentTimeout <= 0:
		return fmt.Errorf("%w: fragment_timeout must be positive", ErrInvalid)
	case n.FragmentAttempts <= 0:
		return fmt.Errorf("%w: fragment_attempts must be positive", ErrInvalid)
	case n.AuthTimeout <= 0:
		return fmt.Errorf("%w: auth_timeout must be positive", ErrInvalid)
	case n.RenewThreshold <= 0:
		return fmt.Errorf("%w: renew_threshold must be positive", ErrInvalid)
	case n.SessionCapacity <= 0:
		return fmt.Errorf("%w: session_capacity must be positive", ErrInvalid)
	case n.SessionTTL <= 0:
		return fmt.Errorf("%w: session_ttl must be positive", ErrInvalid)
	case n.ErrorWeight <= 0 || n.ErrorWeight > ldpc.SyndromeSize*8:
		return fmt.Errorf("%w: error_weight %d out of range", ErrInvalid, n.ErrorWeight)
	case len(n.Keyword) > 32:
		return fmt.Errorf("%w: keyword longer than 32 bytes", ErrInvalid)
	}
	if _, err := aead.New(n.Profile); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if m := strings.ToLower(n.Multiplier); m != "schoolbook" && m != "rns" {
		return fmt.Errorf("%w: multiplier %q (want schoolbook or rns)", ErrInvalid, n.Multiplier)
	}
	if _, err := n.Seed(); err != nil {
		return err
	}
	return nil
}

// Seed decodes LDPCSeed.
func (n *Node) Seed() ([ldpc.SeedSize]byte, error) {
	var s [ldpc.SeedSize]byte
	b, err := hex.DecodeString(n.LDPCSeed)
	if err != nil || len(b) != len(s) {
		return s, fmt.Errorf("%w: ldpc_seed must be %d hex-encoded bytes", ErrInvalid, len(s))
	}
	copy(s[:], b)
	return s, nil
}

// Load reads a JSON file over the defaults. Keys are matched ignoring case,
// underscores and dashes, so "FragmentTimeout", "fragment_timeout" and
// "fragment-timeout" are equivalent. Durations may be strings ("2s") or
// numbers of seconds.
func Load(path string) (Node, error) {
	n := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return n, err
	}
	if err := n.Merge(data); err != nil {
		return n, fmt.Errorf("config: %s: %w", path, err)
	}
	return n, n.Validate()
}

// Merge applies the settings present in data.
func (n *Node) Merge(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		if err := n.set(normalize(k), v); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
	}
	return nil
}

func normalize(k string) string {
	k = strings.ToLower(k)
	return strings.NewReplacer("_", "", "-", "").Replace(k)
}

func (n *Node) set(key string, v json.RawMessage) error {
	switch key {
	case "listen":
		return json.Unmarshal(v, &n.Listen)
	case "peer":
		return json.Unmarshal(v, &n.Peer)
	case "aead", "profile":
		return json.Unmarshal(v, &n.Profile)
	case "multiplier":
		return json.Unmarshal(v, &n.Multiplier)
	case "keyword":
		return json.Unmarshal(v, &n.Keyword)
	case "fragmenttimeout":
		return setDuration(v, &n.FragmentTimeout)
	case "fragmentattempts":
		return json.Unmarshal(v, &n.FragmentAttempts)
	case "authtimeout":
		return setDuration(v, &n.AuthTimeout)
	case "renewthreshold":
		return json.Unmarshal(v, &n.RenewThreshold)
	case "sessioncapacity", "maxsessions":
		return json.Unmarshal(v, &n.SessionCapacity)
	case "sessionttl":
		return setDuration(v, &n.SessionTTL)
	case "errorweight":
		return json.Unmarshal(v, &n.ErrorWeight)
	case "ldpcseed":
		return json.Unmarshal(v, &n.LDPCSeed)
	case "loglevel":
		return json.Unmarshal(v, &n.LogLevel)
	case "logformat":
		return json.Unmarshal(v, &n.LogFormat)
	}
	return fmt.Errorf("%w: unknown key", ErrInvalid)
}

func setDuration(v json.RawMessage, dst *time.Duration) error {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		d, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
	var secs float64
	if err := json.Unmarshal(v, &secs); err != nil {
		return fmt.Errorf("%w: duration must be a string or seconds", ErrInvalid)
	}
	*dst = time.Duration(secs * float64(time.Second))
	return nil
}
