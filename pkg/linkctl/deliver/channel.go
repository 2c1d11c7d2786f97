package deliver

import (
	"context"

	"github.com/telekom/linkctl/pkg/linkctl/callback"
)

// Channel hands tokens to an in-process consumer. Deliver never blocks: when
// the buffer is full the token is dropped and ErrDropped returned, so a slow
// consumer cannot stall the activation dispatcher.
type Channel struct {
	ch chan callback.Token
}

func NewChannel(size int) *Channel {
	if size <= 0 {
		size = 1
	}
	return &Channel{ch: make(chan callback.Token, size)}
}

func (c *Channel) Deliver(ctx context.Context, token callback.Token) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case c.ch <- token:
		return nil
	default:
		return ErrDropped
	}
}

// Tokens is the receive side for the consumer.
func (c *Channel) Tokens() <-chan callback.Token {
	return c.ch
}

func (c *Channel) Name() string {
	return "channel"
}
