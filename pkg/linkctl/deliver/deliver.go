package deliver

import (
	"context"
	"errors"
	"fmt"

	"github.com/telekom/linkctl/pkg/linkctl/callback"
)

// ErrDropped is returned when a sink could not accept a token without
// blocking the activation dispatcher.
var ErrDropped = errors.New("token dropped: consumer is not keeping up")

// Deliverer is the single outbound call made for a successfully extracted
// token.
type Deliverer interface {
	Deliver(ctx context.Context, token callback.Token) error
	Name() string
}

// Store is a Deliverer whose tokens can be read back and removed, used by the
// status and logout commands.
type Store interface {
	Deliverer
	Load() (callback.Token, bool, error)
	Delete() error
}

const (
	TypeKeyring = "keyring"
	TypeFile    = "file"
)

// Options selects and configures a persistent sink.
type Options struct {
	Type           string
	KeyringService string
	KeyringUser    string
	FilePath       string
	Key            string
}

// NewStore builds the persistent sink named by opts.Type.
func NewStore(opts Options) (Store, error) {
	switch opts.Type {
	case TypeKeyring, "":
		return NewKeyring(opts.KeyringService, opts.KeyringUser), nil
	case TypeFile:
		if opts.FilePath == "" {
			return nil, errors.New("file sink requires a path")
		}
		return NewFile(opts.FilePath, opts.Key), nil
	default:
		return nil, fmt.Errorf("unsupported sink type: %s", opts.Type)
	}
}
