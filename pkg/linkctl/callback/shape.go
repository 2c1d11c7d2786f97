package callback

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

const (
	DefaultHost = "auth"
	DefaultPath = "/callback"
)

// Shape describes which activation URIs count as OAuth callbacks. A URI
// matches when its scheme and host are equal (case-insensitively) and its
// cleaned path is Path or lies below it.
type Shape struct {
	Scheme string
	Host   string
	Path   string
}

func DefaultShape(scheme string) Shape {
	return Shape{Scheme: scheme, Host: DefaultHost, Path: DefaultPath}
}

// ParseShape reads a shape from a callback URL such as "app://auth/callback".
func ParseShape(callbackURL string) (Shape, error) {
	if strings.TrimSpace(callbackURL) == "" {
		return Shape{}, errors.New("callback url is required")
	}
	u, err := url.Parse(strings.TrimSpace(callbackURL))
	if err != nil {
		return Shape{}, fmt.Errorf("invalid callback url: %w", err)
	}
	if u.Scheme == "" {
		return Shape{}, fmt.Errorf("callback url %q has no scheme", callbackURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return Shape{}, fmt.Errorf("callback url %q must not carry a query or fragment", callbackURL)
	}
	host, p := splitLocation(u)
	return Shape{Scheme: u.Scheme, Host: host, Path: p}, nil
}

func (s Shape) String() string {
	p := s.Path
	if p == "" {
		p = "/"
	}
	return s.Scheme + "://" + s.Host + p
}

func (s Shape) Validate() error {
	if s.Scheme == "" {
		return errors.New("callback scheme is required")
	}
	return nil
}

func (s Shape) matches(u *url.URL) bool {
	if !strings.EqualFold(u.Scheme, s.Scheme) {
		return false
	}
	host, p := splitLocation(u)
	if s.Host == "" {
		return hasPathPrefix(path.Clean("/"+host+p), s.Path)
	}
	return strings.EqualFold(host, s.Host) && hasPathPrefix(p, s.Path)
}

// splitLocation normalises the hierarchical, rooted and opaque spellings of a
// deep link into a host and a cleaned absolute path.
func splitLocation(u *url.URL) (string, string) {
	if u.Host != "" {
		return u.Hostname(), cleanPath(u.Path)
	}
	rest := u.Opaque
	if rest == "" {
		rest = u.Path
	}
	rest = strings.TrimLeft(rest, "/")
	host, p, _ := strings.Cut(rest, "/")
	return host, cleanPath(p)
}

func cleanPath(p string) string {
	return path.Clean("/" + p)
}

func hasPathPrefix(p, prefix string) bool {
	prefix = strings.TrimSuffix(cleanPath(prefix), "/")
	if prefix == "" {
		return true
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}
