//go:build linux

package scheme

import (
	"context"
	"path/filepath"
)

func (r *Registrar) registerPlatform(ctx context.Context, scheme string) (Registration, error) {
	base, err := dataHome(r.DataHome)
	if err != nil {
		return Registration{}, &RegistrationError{Scheme: scheme, Op: "resolve data home", Err: err}
	}
	content, err := renderDesktopEntry(r.appName(), scheme, r.Executable, r.Args)
	if err != nil {
		return Registration{}, &RegistrationError{Scheme: scheme, Op: "render desktop entry", Err: err}
	}
	name := desktopFileName(r.appName(), scheme)
	path := filepath.Join(base, "applications", name)
	changed, err := writeIfChanged(path, content)
	if err != nil {
		return Registration{}, &RegistrationError{Scheme: scheme, Op: "write desktop entry", Err: err}
	}
	// Setting the default handler is idempotent, so it runs on every call to
	// repair associations another application may have taken over.
	if err := r.runner()(ctx, "xdg-mime", "default", name, "x-scheme-handler/"+scheme); err != nil {
		return Registration{}, &RegistrationError{Scheme: scheme, Op: "set default handler", Err: err}
	}
	return Registration{Scheme: scheme, Location: path, Changed: changed}, nil
}
