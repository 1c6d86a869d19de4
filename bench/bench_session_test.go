package bench

import (
	"testing"
	"time"

	"github.com/selfi123/Amortization-research-success/aead"
	"github.com/selfi123/Amortization-research-success/session"
)

func benchSession(b *testing.B, p aead.Profile) {
	c, err := aead.New(p)
	if err != nil {
		b.Fatal(err)
	}
	master := session.DeriveMasterKey(make([]byte, 25), make([]byte, 32))
	id := session.ID{1, 2, 3, 4, 5, 6, 7, 8}
	s := session.NewSender(id, master, c, 0)
	e := session.NewEntry(id, master, nil, time.Time{})
	payload := make([]byte, session.MaxMessageSize)
	b.SetBytes(int64(len(payload)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		msg, err := s.Encrypt(payload)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := e.Decrypt(c, msg.Counter, msg.Sealed); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSessionLegacy(b *testing.B) { benchSession(b, aead.ProfileLegacy) }
func BenchmarkSessionGCM(b *testing.B)    { benchSession(b, aead.ProfileGCM) }

func BenchmarkDeriveMessageKey(b *testing.B) {
	master := session.DeriveMasterKey(make([]byte, 25), make([]byte, 32))
	id := session.ID{8, 7, 6, 5, 4, 3, 2, 1}
	for i := 0; i < b.N; i++ {
		_ = session.DeriveMessageKey(&master, id, uint32(i))
	}
}
