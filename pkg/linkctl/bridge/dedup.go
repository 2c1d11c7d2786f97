package bridge

import (
	"crypto/sha256"
	"time"

	"github.com/telekom/linkctl/pkg/linkctl/callback"
)

// DefaultDedupWindow absorbs the OS re-sending the launch URI to a freshly
// started instance.
const DefaultDedupWindow = 30 * time.Second

// Deduper remembers digests of recently delivered tokens. It is not safe for
// concurrent use; the listener's single dispatcher is its only caller.
type Deduper struct {
	window time.Duration
	seen   map[[sha256.Size]byte]time.Time
	now    func() time.Time
}

func NewDeduper(window time.Duration) *Deduper {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	return &Deduper{
		window: window,
		seen:   map[[sha256.Size]byte]time.Time{},
		now:    time.Now,
	}
}

// Seen records token and reports whether it was already recorded inside the
// window.
func (d *Deduper) Seen(token callback.Token) bool {
	now := d.now()
	d.expire(now)
	key := sha256.Sum256([]byte(token.Reveal()))
	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = now
	return false
}

// Forget drops token so a later activation carrying it is delivered again.
func (d *Deduper) Forget(token callback.Token) {
	delete(d.seen, sha256.Sum256([]byte(token.Reveal())))
}

func (d *Deduper) expire(now time.Time) {
	for key, at := range d.seen {
		if now.Sub(at) >= d.window {
			delete(d.seen, key)
		}
	}
}
