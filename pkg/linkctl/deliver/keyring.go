package deliver

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/telekom/linkctl/pkg/linkctl/callback"
)

const (
	DefaultKeyringService = "linkctl"
	DefaultKeyringUser    = "oauth-token"
)

// Keyring stores the token in the OS credential store (Keychain, Secret
// Service or Windows Credential Manager).
type Keyring struct {
	service string
	user    string
}

func NewKeyring(service, user string) *Keyring {
	if service == "" {
		service = DefaultKeyringService
	}
	if user == "" {
		user = DefaultKeyringUser
	}
	return &Keyring{service: service, user: user}
}

func (k *Keyring) Deliver(ctx context.Context, token callback.Token) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := keyring.Set(k.service, k.user, token.Reveal()); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	return nil
}

func (k *Keyring) Load() (callback.Token, bool, error) {
	value, err := keyring.Get(k.service, k.user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return callback.Token{}, false, nil
		}
		return callback.Token{}, false, fmt.Errorf("failed to read token from keyring: %w", err)
	}
	return callback.NewToken(value), true, nil
}

func (k *Keyring) Delete() error {
	if err := keyring.Delete(k.service, k.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}

func (k *Keyring) Name() string {
	return TypeKeyring
}
