package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Env readers trim whitespace and treat an empty value as unset. Typed
// readers fall back on parse errors instead of failing startup.

func GetEnvTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func GetEnvTrimmedOrDefault(key, defaultValue string) string {
	if v := GetEnvTrimmed(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvUnquoted also strips one pair of matching quotes, which some
// deployment UIs keep around pasted secrets and URLs.
func GetEnvUnquoted(key string) string {
	return Unquote(GetEnvTrimmed(key))
}

func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if q := s[0]; (q == '"' || q == '\'') && s[len(s)-1] == q {
		return s[1 : len(s)-1]
	}
	return s
}

func EnvBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(GetEnvTrimmed(key))
	if err != nil {
		return fallback
	}
	return b
}

// EnvPositiveInt ignores zero and negative values.
func EnvPositiveInt(key string, fallback int) int {
	n, err := strconv.Atoi(GetEnvTrimmed(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// EnvPositiveDuration reads a time.ParseDuration value, ignoring zero and
// negative durations.
func EnvPositiveDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(GetEnvTrimmed(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
