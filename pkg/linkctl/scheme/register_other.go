//go:build !linux && !darwin && !windows

package scheme

import "context"

func (r *Registrar) registerPlatform(_ context.Context, scheme string) (Registration, error) {
	return unsupported(scheme)
}
