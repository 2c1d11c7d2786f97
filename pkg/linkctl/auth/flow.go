package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/telekom/linkctl/pkg/linkctl/callback"
)

// CodeParam carries the authorization code in an OIDC redirect.
const CodeParam = "code"

// Flow is one login attempt: the URL the browser opens and how the secret
// in its callback becomes the token to store.
type Flow struct {
	URL string
	// Param is the callback query parameter the extractor reads.
	Param string

	state    string
	verifier string
	oauth    *OAuthConfigResult
}

// Begin prepares a login ending in a redirect to redirectURL. A broker
// login-url returns the token directly. Discovery runs an authorization-code
// flow with PKCE and a random state.
func Begin(ctx context.Context, cfg OIDCConfig, redirectURL string) (*Flow, error) {
	if cfg.LoginURL != "" {
		u, err := brokerURL(cfg, redirectURL)
		if err != nil {
			return nil, err
		}
		return &Flow{URL: u, Param: callback.TokenParam}, nil
	}

	result, err := BuildOAuthConfig(ctx, cfg, redirectURL)
	if err != nil {
		return nil, err
	}
	codeVerifier, codeChallenge, err := newPKCEPair()
	if err != nil {
		return nil, err
	}
	state, err := randomToken(24)
	if err != nil {
		return nil, err
	}

	authOpts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	}
	for k, v := range cfg.ExtraAuthParams {
		authOpts = append(authOpts, oauth2.SetAuthURLParam(k, v))
	}
	return &Flow{
		URL:      result.OAuthConfig.AuthCodeURL(state, authOpts...),
		Param:    CodeParam,
		state:    state,
		verifier: codeVerifier,
		oauth:    result,
	}, nil
}

// Validate rejects callbacks whose state does not belong to this flow.
func (f *Flow) Validate(c callback.CallbackURI) error {
	if f.oauth == nil {
		return nil
	}
	state, _ := c.Get("state")
	if subtle.ConstantTimeCompare([]byte(state), []byte(f.state)) != 1 {
		return errors.New("invalid state in callback")
	}
	return nil
}

// Complete turns the secret read from the callback into the token to store.
// Broker tokens pass through; authorization codes are exchanged.
func (f *Flow) Complete(ctx context.Context, received callback.Token) (callback.Token, error) {
	if f.oauth == nil {
		return received, nil
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.oauth.Client)
	token, err := f.oauth.OAuthConfig.Exchange(ctx, received.Reveal(), oauth2.SetAuthURLParam("code_verifier", f.verifier))
	if err != nil {
		return callback.Token{}, fmt.Errorf("token exchange failed: %w", err)
	}
	if token.AccessToken == "" {
		return callback.Token{}, errors.New("token exchange returned no access token")
	}
	return callback.NewToken(token.AccessToken), nil
}

func newPKCEPair() (string, string, error) {
	verifier, err := randomToken(32)
	if err != nil {
		return "", "", err
	}
	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])
	return verifier, challenge, nil
}

func randomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
