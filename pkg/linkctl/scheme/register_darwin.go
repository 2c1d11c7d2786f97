//go:build darwin

package scheme

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

const lsregister = "/System/Library/Frameworks/CoreServices.framework/Frameworks/LaunchServices.framework/Support/lsregister"

// On macOS the scheme is declared by CFBundleURLTypes in the bundle's
// Info.plist; registering means asking LaunchServices to re-read the bundle.
func (r *Registrar) registerPlatform(ctx context.Context, scheme string) (Registration, error) {
	bundle := enclosingBundle(r.Executable)
	if bundle == "" {
		return Registration{}, &RegistrationError{
			Scheme: scheme,
			Op:     "locate app bundle",
			Err:    fmt.Errorf("%w: %s is not inside an .app bundle", ErrNotSupported, r.Executable),
		}
	}
	if err := r.runner()(ctx, lsregister, "-f", bundle); err != nil {
		return Registration{}, &RegistrationError{Scheme: scheme, Op: "lsregister", Err: err}
	}
	return Registration{Scheme: scheme, Location: bundle, Changed: false}, nil
}

func enclosingBundle(executable string) string {
	dir := filepath.Dir(executable)
	for dir != "/" && dir != "." {
		if strings.HasSuffix(dir, ".app") {
			return dir
		}
		dir = filepath.Dir(dir)
	}
	return ""
}
