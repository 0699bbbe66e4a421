package engine

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/named-data/repo-go/ndn"
)

type Timer struct{}

func NewTimer() ndn.Timer {
	return Timer{}
}

// Sleep sleeps for the given duration.
func (Timer) Sleep(d time.Duration) {
	time.Sleep(d)
}

// Schedule runs f after d and returns a cancel function.
func (Timer) Schedule(d time.Duration, f func()) func() error {
	t := time.AfterFunc(d, f)
	return func() error {
		if t != nil {
			t.Stop()
			t = nil
			return nil
		} else {
			return fmt.Errorf("event has already been canceled")
		}
	}
}

// Now returns the current time.
func (Timer) Now() time.Time {
	return time.Now()
}

// Nonce generates a random 8-byte nonce.
func (Timer) Nonce() []byte {
	buf := make([]byte, 8)
	n, _ := rand.Read(buf) // Should always succeed
	return buf[:n]
}
