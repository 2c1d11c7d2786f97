package output

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/telekom/linkctl/pkg/linkctl/scheme"
)

// TokenStatus is the printable view of a stored token.
type TokenStatus struct {
	Sink      string     `json:"sink" yaml:"sink"`
	Present   bool       `json:"present" yaml:"present"`
	Format    string     `json:"format,omitempty" yaml:"format,omitempty"`
	Subject   string     `json:"subject,omitempty" yaml:"subject,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
	Expired   bool       `json:"expired" yaml:"expired"`
}

func WriteRegistrationTable(w io.Writer, regs []scheme.Registration) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SCHEME\tLOCATION\tCHANGED")
	for _, r := range regs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%v\n", r.Scheme, r.Location, r.Changed)
	}
	_ = tw.Flush()
}

func WriteTokenStatusTable(w io.Writer, statuses []TokenStatus) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SINK\tPRESENT\tFORMAT\tSUBJECT\tEXPIRES\tEXPIRED")
	for _, s := range statuses {
		expires := "-"
		if s.ExpiresAt != nil {
			expires = formatTime(*s.ExpiresAt)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%v\t%s\t%s\t%s\t%v\n", s.Sink, s.Present, dash(s.Format), dash(s.Subject), expires, s.Expired)
	}
	_ = tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}
