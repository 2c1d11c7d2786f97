//go:build windows

package scheme

import (
	"context"
	"strings"

	"golang.org/x/sys/windows/registry"
)

func (r *Registrar) registerPlatform(_ context.Context, scheme string) (Registration, error) {
	root := `Software\Classes\` + scheme
	command := windowsCommand(r.Executable, r.Args)

	values := []struct {
		path  string
		name  string
		value string
	}{
		{path: root, name: "", value: "URL:" + r.appName()},
		{path: root, name: "URL Protocol", value: ""},
		{path: root + `\shell\open\command`, name: "", value: command},
	}

	changed := false
	for _, v := range values {
		wrote, err := setStringIfChanged(v.path, v.name, v.value)
		if err != nil {
			return Registration{}, &RegistrationError{Scheme: scheme, Op: "write " + v.path, Err: err}
		}
		changed = changed || wrote
	}
	return Registration{Scheme: scheme, Location: `HKCU\` + root, Changed: changed}, nil
}

func setStringIfChanged(path, name, value string) (bool, error) {
	key, _, err := registry.CreateKey(registry.CURRENT_USER, path, registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = key.Close()
	}()
	current, _, err := key.GetStringValue(name)
	if err == nil && current == value {
		return false, nil
	}
	if err := key.SetStringValue(name, value); err != nil {
		return false, err
	}
	return true, nil
}

func windowsCommand(executable string, args []string) string {
	parts := []string{`"` + executable + `"`}
	for _, a := range args {
		if strings.ContainsAny(a, " \t") {
			a = `"` + a + `"`
		}
		parts = append(parts, a)
	}
	parts = append(parts, `"%1"`)
	return strings.Join(parts, " ")
}
