package deliver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/telekom/linkctl/pkg/linkctl/callback"
)

// DefaultFileKey is the cache entry written when no key is configured.
const DefaultFileKey = "default"

type storedToken struct {
	AccessToken string    `json:"access_token"`
	ReceivedAt  time.Time `json:"received_at"`
}

type tokenCache struct {
	Tokens map[string]storedToken `json:"tokens"`
}

// File keeps tokens in a JSON cache readable only by the current user. One
// file can hold tokens for several schemes, keyed by Key.
type File struct {
	path string
	key  string
	now  func() time.Time
}

func NewFile(path, key string) *File {
	if key == "" {
		key = DefaultFileKey
	}
	return &File{path: path, key: key, now: time.Now}
}

func (f *File) Deliver(ctx context.Context, token callback.Token) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cache, err := loadTokenCache(f.path)
	if err != nil {
		return err
	}
	cache.Tokens[f.key] = storedToken{AccessToken: token.Reveal(), ReceivedAt: f.now().UTC()}
	return saveTokenCache(f.path, cache)
}

func (f *File) Load() (callback.Token, bool, error) {
	cache, err := loadTokenCache(f.path)
	if err != nil {
		return callback.Token{}, false, err
	}
	stored, ok := cache.Tokens[f.key]
	if !ok || stored.AccessToken == "" {
		return callback.Token{}, false, nil
	}
	return callback.NewToken(stored.AccessToken), true, nil
}

func (f *File) Delete() error {
	cache, err := loadTokenCache(f.path)
	if err != nil {
		return err
	}
	if _, ok := cache.Tokens[f.key]; !ok {
		return nil
	}
	delete(cache.Tokens, f.key)
	return saveTokenCache(f.path, cache)
}

func (f *File) Name() string {
	return TypeFile
}

// Path returns the cache file location.
func (f *File) Path() string {
	return f.path
}

func loadTokenCache(path string) (*tokenCache, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &tokenCache{Tokens: map[string]storedToken{}}, nil
		}
		return nil, fmt.Errorf("failed to read token cache: %w", err)
	}
	var cache tokenCache
	if err := json.Unmarshal(content, &cache); err != nil {
		return nil, fmt.Errorf("failed to parse token cache: %w", err)
	}
	if cache.Tokens == nil {
		cache.Tokens = map[string]storedToken{}
	}
	return &cache, nil
}

func saveTokenCache(path string, cache *tokenCache) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token dir: %w", err)
	}
	content, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token cache: %w", err)
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}
	return nil
}
