package callback

import (
	"errors"
	"strings"
)

var (
	// ErrNoMatch marks an activation that is not an OAuth callback. It is a
	// normal outcome for deep links meant for other parts of the application.
	ErrNoMatch      = errors.New("activation is not an oauth callback")
	ErrMalformed    = errors.New("malformed activation uri")
	ErrMissingToken = errors.New("oauth callback has no token parameter")
	ErrRejected     = errors.New("oauth callback rejected by validator")
)

// ExtractError reports why an activation produced no token. It carries at
// most the scheme and host of the URI; the query, path and raw input are
// never retained.
type ExtractError struct {
	Reason error
	Scheme string
	Host   string
}

func (e *ExtractError) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason.Error())
	if e.Scheme != "" || e.Host != "" {
		b.WriteString(" (scheme=")
		b.WriteString(e.Scheme)
		b.WriteString(" host=")
		b.WriteString(e.Host)
		b.WriteString(")")
	}
	return b.String()
}

func (e *ExtractError) Unwrap() error {
	return e.Reason
}

// IsNoMatch reports whether err is the benign not-a-callback outcome.
func IsNoMatch(err error) bool {
	return errors.Is(err, ErrNoMatch)
}
