package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/telekom/linkctl/pkg/linkctl/callback"
)

const (
	FormatJWT    = "jwt"
	FormatOpaque = "opaque"
)

// Summary is what linkctl shows about a token instead of the token itself.
type Summary struct {
	Format    string     `json:"format" yaml:"format"`
	Length    int        `json:"length" yaml:"length"`
	Subject   string     `json:"subject,omitempty" yaml:"subject,omitempty"`
	Issuer    string     `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
	Expired   bool       `json:"expired" yaml:"expired"`
}

// Describe reads the claims of a JWT without verifying its signature. Opaque
// tokens only report their length.
func Describe(token callback.Token, now time.Time) Summary {
	raw := token.Reveal()
	summary := Summary{Format: FormatOpaque, Length: len(raw)}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return summary
	}
	summary.Format = FormatJWT
	for _, key := range []string{"email", "preferred_username", "sub"} {
		if v, ok := claims[key].(string); ok && v != "" {
			summary.Subject = v
			break
		}
	}
	if iss, ok := claims["iss"].(string); ok {
		summary.Issuer = iss
	}
	if exp, ok := claims["exp"].(float64); ok {
		at := time.Unix(int64(exp), 0).UTC()
		summary.ExpiresAt = &at
		summary.Expired = !now.Before(at)
	}
	return summary
}
