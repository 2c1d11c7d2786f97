package auth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telekom/linkctl/pkg/linkctl/callback"
)

// newDiscoveryServer serves discovery and a token endpoint that accepts the
// code "AUTHCODE" with any PKCE verifier.
func newDiscoveryServer(t *testing.T) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/.well-known/openid-configuration":
			_ = json.NewEncoder(w).Encode(map[string]string{
				"issuer":                 server.URL,
				"authorization_endpoint": server.URL + "/auth",
				"token_endpoint":         server.URL + "/token",
			})
		case "/token":
			if err := r.ParseForm(); err != nil || r.PostForm.Get("code") != "AUTHCODE" || r.PostForm.Get("code_verifier") == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "access-" + r.PostForm.Get("code"),
				"token_type":   "Bearer",
				"expires_in":   300,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestBuildOAuthConfig(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := newDiscoveryServer(t)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		result, err := BuildOAuthConfig(ctx, OIDCConfig{
			Authority: server.URL,
			ClientID:  "desktop",
		}, "app://auth/callback")
		require.NoError(t, err)
		assert.Equal(t, "desktop", result.OAuthConfig.ClientID)
		assert.Equal(t, "app://auth/callback", result.OAuthConfig.RedirectURL)
		assert.Equal(t, []string{"openid"}, result.OAuthConfig.Scopes)
		assert.Equal(t, server.URL+"/auth", result.OAuthConfig.Endpoint.AuthURL)
		assert.NotNil(t, result.Client)
	})

	t.Run("missing authority", func(t *testing.T) {
		_, err := BuildOAuthConfig(context.Background(), OIDCConfig{ClientID: "desktop"}, "app://auth/callback")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "authority and client-id are required")
	})

	t.Run("discovery failure", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()
		_, err := BuildOAuthConfig(context.Background(), OIDCConfig{Authority: server.URL, ClientID: "desktop"}, "app://auth/callback")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to discover OIDC provider")
	})
}

func TestBegin(t *testing.T) {
	t.Run("broker login url", func(t *testing.T) {
		flow, err := Begin(context.Background(), OIDCConfig{
			LoginURL:        "https://example.com/auth/desktop?lang=en",
			ClientID:        "desktop",
			ExtraAuthParams: map[string]string{"prompt": "login"},
		}, "app://auth/callback")
		require.NoError(t, err)
		assert.Equal(t, callback.TokenParam, flow.Param)

		u, err := url.Parse(flow.URL)
		require.NoError(t, err)
		assert.Equal(t, "example.com", u.Host)
		assert.Equal(t, "/auth/desktop", u.Path)
		q := u.Query()
		assert.Equal(t, "app://auth/callback", q.Get("redirect_uri"))
		assert.Equal(t, "desktop", q.Get("client_id"))
		assert.Equal(t, "login", q.Get("prompt"))
		assert.Equal(t, "en", q.Get("lang"))

		assert.NoError(t, flow.Validate(callback.CallbackURI{}))
		token, err := flow.Complete(context.Background(), callback.NewToken("broker-token"))
		require.NoError(t, err)
		assert.Equal(t, "broker-token", token.Reveal())
	})

	t.Run("oidc discovery uses pkce and state", func(t *testing.T) {
		server := newDiscoveryServer(t)
		flow, err := Begin(context.Background(), OIDCConfig{
			Authority:       server.URL,
			ClientID:        "desktop",
			Scopes:          []string{"openid", "email"},
			ExtraAuthParams: map[string]string{"prompt": "login"},
		}, "app://auth/callback")
		require.NoError(t, err)
		assert.Equal(t, CodeParam, flow.Param)

		u, err := url.Parse(flow.URL)
		require.NoError(t, err)
		assert.Equal(t, "/auth", u.Path)
		q := u.Query()
		assert.Equal(t, "app://auth/callback", q.Get("redirect_uri"))
		assert.Equal(t, "openid email", q.Get("scope"))
		assert.Equal(t, "code", q.Get("response_type"))
		assert.Equal(t, "S256", q.Get("code_challenge_method"))
		assert.NotEmpty(t, q.Get("code_challenge"))
		assert.Equal(t, "login", q.Get("prompt"))
		state := q.Get("state")
		require.NotEmpty(t, state)

		good := callback.CallbackURI{Params: []callback.Param{{Name: "state", Value: state}}}
		assert.NoError(t, flow.Validate(good))
		assert.Error(t, flow.Validate(callback.CallbackURI{}))
		assert.Error(t, flow.Validate(callback.CallbackURI{Params: []callback.Param{{Name: "state", Value: "forged"}}}))

		token, err := flow.Complete(context.Background(), callback.NewToken("AUTHCODE"))
		require.NoError(t, err)
		assert.Equal(t, "access-AUTHCODE", token.Reveal())

		_, err = flow.Complete(context.Background(), callback.NewToken("WRONG"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "token exchange failed")
	})

	t.Run("states differ between flows", func(t *testing.T) {
		server := newDiscoveryServer(t)
		cfg := OIDCConfig{Authority: server.URL, ClientID: "desktop"}
		first, err := Begin(context.Background(), cfg, "app://auth/callback")
		require.NoError(t, err)
		second, err := Begin(context.Background(), cfg, "app://auth/callback")
		require.NoError(t, err)
		assert.NotEqual(t, first.state, second.state)
		assert.NotEqual(t, first.verifier, second.verifier)
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := Begin(context.Background(), OIDCConfig{}, "app://auth/callback")
		require.Error(t, err)
	})
}

func TestNewPKCEPair(t *testing.T) {
	verifier, challenge, err := newPKCEPair()
	require.NoError(t, err)
	sum := sha256.Sum256([]byte(verifier))
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), challenge)
}

func TestLoadTLSConfig(t *testing.T) {
	t.Run("default config with no CA file", func(t *testing.T) {
		cfg, err := loadTLSConfig("", false)
		require.NoError(t, err)
		assert.False(t, cfg.InsecureSkipVerify)
		assert.Nil(t, cfg.RootCAs)
	})

	t.Run("insecure mode", func(t *testing.T) {
		cfg, err := loadTLSConfig("", true)
		require.NoError(t, err)
		assert.True(t, cfg.InsecureSkipVerify)
	})

	t.Run("nonexistent CA file", func(t *testing.T) {
		_, err := loadTLSConfig("/nonexistent/ca.pem", false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read CA file")
	})

	t.Run("invalid CA file content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ca.pem")
		require.NoError(t, os.WriteFile(path, []byte("not a cert"), 0o600))
		_, err := loadTLSConfig(path, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse CA file")
	})
}

func TestOpenBrowser(t *testing.T) {
	original := browserCommand
	defer func() { browserCommand = original }()

	var opened string
	browserCommand = func(url string) *exec.Cmd {
		opened = url
		return exec.Command(os.Args[0], "-test.run=^$")
	}
	require.NoError(t, OpenBrowser("https://example.com/login"))
	assert.Equal(t, "https://example.com/login", opened)
}

func TestStartBrowser_ReapsChild(t *testing.T) {
	original := browserCommand
	defer func() { browserCommand = original }()

	browserCommand = func(string) *exec.Cmd {
		return exec.Command(os.Args[0], "-test.run=^$")
	}
	done, err := startBrowser("https://example.com/login")
	require.NoError(t, err)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("browser process was not waited for")
	}
}
