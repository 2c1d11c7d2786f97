package callback

import (
	"errors"
	"net/url"
	"strings"
)

// TokenParam is the query parameter the extractor reads a secret from unless
// WithParam names another.
const TokenParam = "token"

// Param is one decoded query pair in the order it appeared in the URI.
type Param struct {
	Name  string
	Value string
}

// CallbackURI is the parsed view of a matching activation. Params never
// include the secret parameter.
type CallbackURI struct {
	Scheme string
	Host   string
	Path   string
	Params []Param
}

// Get returns the first value for name.
func (c CallbackURI) Get(name string) (string, bool) {
	for _, p := range c.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Validator is where state or CSRF checks plug in. A non-nil error rejects
// the callback.
type Validator func(CallbackURI) error

// Extractor turns raw activation URIs into tokens. It is stateless apart from
// its configuration and safe to reuse across activations.
type Extractor struct {
	shape     Shape
	param     string
	validator Validator
}

type Option func(*Extractor)

func WithValidator(v Validator) Option {
	return func(e *Extractor) {
		e.validator = v
	}
}

// WithParam reads the secret from name instead of TokenParam. An
// authorization-code login uses "code".
func WithParam(name string) Option {
	return func(e *Extractor) {
		if name != "" {
			e.param = name
		}
	}
}

func NewExtractor(shape Shape, opts ...Option) (*Extractor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	e := &Extractor{shape: shape, param: TokenParam}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Extractor) Shape() Shape {
	return e.shape
}

// Extract parses raw and returns the value of its first secret parameter.
// Errors are *ExtractError values whose Reason is ErrMalformed, ErrNoMatch,
// ErrMissingToken or ErrRejected.
func (e *Extractor) Extract(raw string) (Token, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Token{}, &ExtractError{Reason: ErrMalformed}
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		// url.Error embeds the whole input, so only the scheme survives.
		return Token{}, &ExtractError{Reason: ErrMalformed, Scheme: schemeOf(trimmed)}
	}
	if u.Scheme == "" {
		return Token{}, &ExtractError{Reason: ErrMalformed}
	}
	host, p := splitLocation(u)
	if !e.shape.matches(u) {
		return Token{}, &ExtractError{Reason: ErrNoMatch, Scheme: u.Scheme, Host: host}
	}

	params, err := parseQuery(u.RawQuery)
	if err != nil {
		return Token{}, &ExtractError{Reason: ErrMalformed, Scheme: u.Scheme, Host: host}
	}

	var (
		token string
		found bool
		rest  = make([]Param, 0, len(params))
	)
	for _, param := range params {
		if param.Name != e.param {
			rest = append(rest, param)
			continue
		}
		if !found {
			token = param.Value
			found = true
		}
	}
	if !found || token == "" {
		return Token{}, &ExtractError{Reason: ErrMissingToken, Scheme: u.Scheme, Host: host}
	}

	if e.validator != nil {
		if err := e.validator(CallbackURI{Scheme: u.Scheme, Host: host, Path: p, Params: rest}); err != nil {
			return Token{}, &ExtractError{Reason: ErrRejected, Scheme: u.Scheme, Host: host}
		}
	}
	return NewToken(token), nil
}

// parseQuery decodes a raw query preserving order and duplicates. It follows
// net/url in rejecting semicolon separators.
func parseQuery(raw string) ([]Param, error) {
	var params []Param
	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		if pair == "" {
			continue
		}
		if strings.Contains(pair, ";") {
			return nil, errors.New("invalid semicolon separator in query")
		}
		name, value, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(name)
		if err != nil {
			return nil, err
		}
		value, err = url.QueryUnescape(value)
		if err != nil {
			return nil, err
		}
		params = append(params, Param{Name: name, Value: value})
	}
	return params, nil
}

// schemeOf returns the scheme prefix of s when it is syntactically valid.
func schemeOf(s string) string {
	scheme, _, ok := strings.Cut(s, ":")
	if !ok || !isSchemeName(scheme) {
		return ""
	}
	return strings.ToLower(scheme)
}

func isSchemeName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}
