package constants

import "time"

// RFC 3339 date-time format string.
const RFC3339DateTimeFormat = "2006-01-02T15:04:05Z07:00"

// ISO8601MillisFormat matches JavaScript's Date.prototype.toISOString when
// formatted in UTC.
const ISO8601MillisFormat = "2006-01-02T15:04:05.000Z07:00"

const (
	DefaultRateLimitRequests      = 100
	DefaultRateLimitWindowMinutes = 1

	// WaitlistRequestsPerMinute caps POST /v1/waitlist per client IP.
	WaitlistRequestsPerMinute = 30
	// MonitoringRequestsPerMinute caps the probe endpoints per client IP.
	MonitoringRequestsPerMinute = 10
)

func DefaultRateLimitWindow() time.Duration {
	return time.Duration(DefaultRateLimitWindowMinutes) * time.Minute
}

// Waitlist store backends selectable with WAITLIST_STORE.
const (
	WaitlistStoreDatabase = "database"
	WaitlistStoreREST     = "rest"
	WaitlistStoreSurreal  = "surreal"
)

var WaitlistStores = []string{WaitlistStoreDatabase, WaitlistStoreREST, WaitlistStoreSurreal}
