package callback

import (
	"fmt"
	"io"

	"go.uber.org/zap/zapcore"
)

const redacted = "[REDACTED]"

// Token holds a bearer token lifted from a callback URI. Every printing and
// encoding path emits a redaction marker; Reveal is the only way to read the
// value and is reserved for delivery sinks.
type Token struct {
	value string
}

func NewToken(value string) Token {
	return Token{value: value}
}

// Reveal returns the raw token.
func (t Token) Reveal() string {
	return t.value
}

func (t Token) IsZero() bool {
	return t.value == ""
}

func (t Token) String() string {
	return redacted
}

func (t Token) GoString() string {
	return "callback.Token{" + redacted + "}"
}

// Format covers every fmt verb, including %x and %q.
func (t Token) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, redacted)
}

func (t Token) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

func (t Token) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

func (t Token) MarshalYAML() (interface{}, error) {
	return redacted, nil
}

func (t Token) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddBool("present", !t.IsZero())
	enc.AddInt("length", len(t.value))
	return nil
}
