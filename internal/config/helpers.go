package config

import (
	"os"
	"strings"
)

// FromEnvOrFlag returns the environment value when present, otherwise the
// CLI flag value, otherwise the fallback (typically a config-file value).
func FromEnvOrFlag(envKey, flagVal, def string) string {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return v
	}
	if v := strings.TrimSpace(flagVal); v != "" {
		return v
	}
	return strings.TrimSpace(def)
}
