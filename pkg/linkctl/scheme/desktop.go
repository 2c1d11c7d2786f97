package scheme

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

const desktopEntryTemplate = `[Desktop Entry]
Type=Application
Name={{ .AppName }}
Comment=Handles {{ .Scheme }}:// links for {{ .AppName }}
Exec={{ .Exec }}
MimeType=x-scheme-handler/{{ .Scheme | lower }};
NoDisplay=true
Terminal=false
`

var desktopTmpl = template.Must(template.New("desktop").Funcs(sprig.TxtFuncMap()).Parse(desktopEntryTemplate))

type desktopEntry struct {
	AppName string
	Scheme  string
	Exec    string
}

// desktopFileName is the basename xdg-mime expects, e.g. linkctl-app-handler.desktop.
func desktopFileName(appName, scheme string) string {
	name := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(appName), " ", "-"))
	return fmt.Sprintf("%s-%s-handler.desktop", name, scheme)
}

// renderDesktopEntry builds the entry; %u is the freedesktop placeholder for
// the activated URI.
func renderDesktopEntry(appName, scheme, executable string, args []string) ([]byte, error) {
	parts := []string{quoteExecArg(executable)}
	for _, a := range args {
		parts = append(parts, quoteExecArg(a))
	}
	parts = append(parts, "%u")

	var buf bytes.Buffer
	err := desktopTmpl.Execute(&buf, desktopEntry{
		AppName: escapeDesktopString(appName),
		Scheme:  scheme,
		Exec:    escapeDesktopString(strings.Join(parts, " ")),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render desktop entry: %w", err)
	}
	return buf.Bytes(), nil
}

// quoteExecArg applies the Exec key quoting rules of the desktop entry spec.
// The result is still a string value and goes through escapeDesktopString.
func quoteExecArg(arg string) string {
	if arg != "" && !strings.ContainsAny(arg, " \t\n\"'\\><~|&;$*?#()`%") {
		return arg
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`, `%`, `%%`)
	return `"` + r.Replace(arg) + `"`
}

// escapeDesktopString applies the escapes every string value in a desktop
// entry is read with, so a backslash quoted for Exec is written as four.
func escapeDesktopString(s string) string {
	return strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\t", `\t`, "\r", `\r`).Replace(s)
}

func dataHome(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if env := os.Getenv("XDG_DATA_HOME"); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share"), nil
}

// writeIfChanged writes content to path unless it already holds exactly that
// content, reporting whether a write happened.
func writeIfChanged(path string, content []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, content) {
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
