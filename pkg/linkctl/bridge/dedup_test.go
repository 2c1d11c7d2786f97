package bridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/telekom/linkctl/pkg/linkctl/callback"
)

func TestDeduper_Window(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d := NewDeduper(10 * time.Second)
	d.now = func() time.Time { return now }

	tok := callback.NewToken("abc")
	assert.False(t, d.Seen(tok))
	assert.True(t, d.Seen(tok))
	assert.False(t, d.Seen(callback.NewToken("other")))
	assert.Equal(t, 2, len(d.seen))

	now = now.Add(10 * time.Second)
	assert.False(t, d.Seen(tok))
	assert.Equal(t, 1, len(d.seen))
}

func TestDeduper_Forget(t *testing.T) {
	d := NewDeduper(0)
	assert.Equal(t, DefaultDedupWindow, d.window)
	tok := callback.NewToken("abc")
	assert.False(t, d.Seen(tok))
	d.Forget(tok)
	assert.False(t, d.Seen(tok))
}
