// File: utils/constants.go
package utils

import "time"

// SessionCachePrefix is the prefix used for Redis session keys.
const SessionCachePrefix = "session:"

// HealthCheckInterval is how often the health monitor probes its dependencies.
const HealthCheckInterval = 60 * time.Second

// ReportTimeLayout formats served_at in reports and CSV exports.
const ReportTimeLayout = "2006-01-02 15:04:05"
