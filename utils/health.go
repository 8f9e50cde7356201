package utils

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HealthCheck is one named probe run by the monitor.
type HealthCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Checks    map[string]bool `json:"checks"`
	Healthy   bool            `json:"healthy"`
	CheckedAt time.Time       `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	mu            sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	mu.RLock()
	defer mu.RUnlock()
	return currentHealth
}

// RunHealthChecks probes every check once and stores the snapshot.
func RunHealthChecks(ctx context.Context, checks []HealthCheck) HealthStatus {
	status := HealthStatus{Checks: make(map[string]bool, len(checks)), Healthy: true, CheckedAt: time.Now()}
	for _, check := range checks {
		probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := check.Probe(probeCtx)
		cancel()
		if err != nil {
			GetLogger().Warn("health check failed", zap.String("check", check.Name), zap.Error(err))
		}
		status.Checks[check.Name] = err == nil
		status.Healthy = status.Healthy && err == nil
	}

	mu.Lock()
	currentHealth = status
	mu.Unlock()
	return status
}

// StartHealthMonitor performs periodic health checks until ctx is cancelled.
func StartHealthMonitor(ctx context.Context, interval time.Duration, checks []HealthCheck) {
	go func() {
		RunHealthChecks(ctx, checks)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				RunHealthChecks(ctx, checks)
			}
		}
	}()
}
