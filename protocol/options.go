package protocol

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/selfi123/Amortization-research-success/aead"
	"github.com/selfi123/Amortization-research-success/config"
	"github.com/selfi123/Amortization-research-success/internal/log"
	"github.com/selfi123/Amortization-research-success/ldpc"
	"github.com/selfi123/Amortization-research-success/rlwe"
	"github.com/selfi123/Amortization-research-success/rlwe/ringsig"
)

// Options are the settings shared by both roles.
type Options struct {
	Cipher           aead.Cipher
	Multiplier       rlwe.Multiplier
	Codec            ldpc.Codec
	LDPCKey          *ldpc.KeyPair
	Keyword          ringsig.Keyword
	ErrorWeight      int
	FragmentTimeout  time.Duration
	FragmentAttempts int
	AuthTimeout      time.Duration
	RenewThreshold   uint32
	SessionCapacity  int
	SessionTTL       time.Duration
	Rand             io.Reader
	Log              *log.Logger
}

// NewOptions builds Options from validated node settings.
func NewOptions(n config.Node) (*Options, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	c, err := aead.New(n.Profile)
	if err != nil {
		return nil, err
	}
	var mul rlwe.Multiplier = rlwe.SchoolbookMultiplier{}
	if strings.EqualFold(n.Multiplier, "rns") {
		m, err := rlwe.NewRNSMultiplier()
		if err != nil {
			return nil, fmt.Errorf("protocol: %w", err)
		}
		mul = m
	}
	codec, err := ldpc.NewSystematic(n.ErrorWeight)
	if err != nil {
		return nil, err
	}
	seed, err := n.Seed()
	if err != nil {
		return nil, err
	}
	kw, err := ringsig.NewKeyword([]byte(n.Keyword))
	if err != nil {
		return nil, err
	}
	level, err := log.ParseLevel(n.LogLevel)
	if err != nil {
		return nil, err
	}
	return &Options{
		Cipher:           c,
		Multiplier:       mul,
		Codec:            codec,
		LDPCKey:          ldpc.KeyFromSeed(seed),
		Keyword:          kw,
		ErrorWeight:      n.ErrorWeight,
		FragmentTimeout:  n.FragmentTimeout,
		FragmentAttempts: n.FragmentAttempts,
		AuthTimeout:      n.AuthTimeout,
		RenewThreshold:   uint32(n.RenewThreshold),
		SessionCapacity:  n.SessionCapacity,
		SessionTTL:       n.SessionTTL,
		Rand:             rand.Reader,
		Log:              log.New(os.Stderr, n.LogFormat, level),
	}, nil
}

// DefaultOptions is NewOptions(config.Default()).
func DefaultOptions() (*Options, error) {
	return NewOptions(config.Default())
}

func (o *Options) logger(module string) *log.Logger {
	if o.Log == nil {
		return log.Default().Module(module)
	}
	return o.Log.Module(module)
}

func (o *Options) random() io.Reader {
	if o.Rand == nil {
		return rand.Reader
	}
	return o.Rand
}
