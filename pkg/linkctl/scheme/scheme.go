package scheme

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/telekom/linkctl/pkg/metrics"
)

var ErrNotSupported = errors.New("deep-link registration is not supported on this platform")

// reserved schemes belong to browsers and the OS; claiming them would hijack
// unrelated navigation.
var reserved = map[string]bool{
	"http":       true,
	"https":      true,
	"file":       true,
	"ftp":        true,
	"mailto":     true,
	"javascript": true,
	"data":       true,
	"about":      true,
	"ws":         true,
	"wss":        true,
}

// Registration is the outcome of a successful Register call.
type Registration struct {
	Scheme string `json:"scheme" yaml:"scheme"`
	// Location names what was written: a desktop entry path, a registry key
	// or an application bundle.
	Location string `json:"location" yaml:"location"`
	// Changed is false when the OS already held an identical association.
	Changed bool `json:"changed" yaml:"changed"`
}

// RegistrationError reports that the platform refused or could not perform
// the registration.
type RegistrationError struct {
	Scheme string
	Op     string
	Err    error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register scheme %q: %s: %v", e.Scheme, e.Op, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

func unsupported(scheme string) (Registration, error) {
	return Registration{}, &RegistrationError{Scheme: scheme, Op: "register", Err: ErrNotSupported}
}

// Runner executes an external helper such as xdg-mime or lsregister.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Registrar associates schemes with an executable. The executable is invoked
// as `<Executable> <Args...> <uri>` by the OS.
type Registrar struct {
	AppName    string
	Executable string
	Args       []string
	// DataHome overrides $XDG_DATA_HOME on Linux.
	DataHome string
	Run      Runner

	// platform replaces registerPlatform in tests.
	platform func(ctx context.Context, scheme string) (Registration, error)
}

func (r *Registrar) runner() Runner {
	if r.Run != nil {
		return r.Run
	}
	return execRunner
}

func (r *Registrar) appName() string {
	if r.AppName != "" {
		return r.AppName
	}
	return "linkctl"
}

// Register asks the OS to route activations of scheme to the executable.
func (r *Registrar) Register(ctx context.Context, scheme string) (Registration, error) {
	if err := ValidateScheme(scheme); err != nil {
		metrics.Registrations.WithLabelValues(runtime.GOOS, "invalid").Inc()
		return Registration{}, err
	}
	scheme = strings.ToLower(scheme)
	if r.Executable == "" {
		metrics.Registrations.WithLabelValues(runtime.GOOS, "invalid").Inc()
		return Registration{}, errors.New("registrar executable is required")
	}
	register := r.registerPlatform
	if r.platform != nil {
		register = r.platform
	}
	reg, err := register(ctx, scheme)
	if err != nil {
		metrics.Registrations.WithLabelValues(runtime.GOOS, "failed").Inc()
		var regErr *RegistrationError
		if !errors.As(err, &regErr) {
			err = &RegistrationError{Scheme: scheme, Op: "register", Err: err}
		}
		return Registration{}, err
	}
	if reg.Changed {
		metrics.Registrations.WithLabelValues(runtime.GOOS, "changed").Inc()
	} else {
		metrics.Registrations.WithLabelValues(runtime.GOOS, "unchanged").Inc()
	}
	return reg, nil
}

// ValidateScheme checks scheme against the RFC 3986 scheme grammar and
// rejects URL suffixes and schemes owned by browsers.
func ValidateScheme(scheme string) error {
	if strings.TrimSpace(scheme) == "" {
		return errors.New("scheme name is required")
	}
	if strings.Contains(scheme, ":") || strings.Contains(scheme, "/") {
		return fmt.Errorf("scheme %q must be a bare name without \"://\"", scheme)
	}
	for i, c := range scheme {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return fmt.Errorf("scheme %q contains invalid character %q", scheme, c)
		}
	}
	if reserved[strings.ToLower(scheme)] {
		return fmt.Errorf("scheme %q is reserved", scheme)
	}
	return nil
}
