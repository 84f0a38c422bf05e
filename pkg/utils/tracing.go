package utils

import "strings"

const DefaultServiceName = "mandarin-waitlist"

func IsTracingEnabled() bool {
	return EnvBool("OTEL_TRACES_ENABLED", false)
}

// OTelServiceName returns OTEL_SERVICE_NAME, else fallback, else
// DefaultServiceName.
func OTelServiceName(fallback string) string {
	if fallback = strings.TrimSpace(fallback); fallback == "" {
		fallback = DefaultServiceName
	}
	return GetEnvTrimmedOrDefault("OTEL_SERVICE_NAME", fallback)
}
