package cli

import (
	"os"
	"strings"
	"time"
)

// EnvPrefix is prepended to every variable name passed to the helpers below.
const EnvPrefix = "LINKCTL_"

// String returns the value of LINKCTL_<name>, or defaultVal if not set.
func String(name, defaultVal string) string {
	if val, ok := os.LookupEnv(EnvPrefix + name); ok {
		return val
	}
	return defaultVal
}

// Bool returns LINKCTL_<name> as a bool, or defaultVal if unset or unparsable.
// Valid true values are "true", "1", "yes" (case-insensitive).
func Bool(name string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(EnvPrefix + name); ok {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

// Duration returns LINKCTL_<name> parsed with time.ParseDuration, or
// defaultVal if unset or invalid.
func Duration(name string, defaultVal time.Duration) time.Duration {
	val, ok := os.LookupEnv(EnvPrefix + name)
	if !ok {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d < 0 {
		return defaultVal
	}
	return d
}
