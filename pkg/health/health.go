// Package health aggregates component checks into health, readiness and
// liveness responses for the HTTP endpoints.
package health

import (
	"time"
)

// NewHealthChecker creates a new health checker
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks:      make(map[string]CheckFunc),
		readyChecks: make(map[string]CheckFunc),
		liveChecks:  make(map[string]CheckFunc),
		started:     time.Now(),
		now:         time.Now,
	}
}

// RegisterCheck registers a health check
func (hc *HealthChecker) RegisterCheck(name string, check CheckFunc) {
	hc.register(hc.checks, name, check)
}

// RegisterReadinessCheck registers a readiness check
func (hc *HealthChecker) RegisterReadinessCheck(name string, check CheckFunc) {
	hc.register(hc.readyChecks, name, check)
}

// RegisterLivenessCheck registers a liveness check
func (hc *HealthChecker) RegisterLivenessCheck(name string, check CheckFunc) {
	hc.register(hc.liveChecks, name, check)
}

func (hc *HealthChecker) register(into map[string]CheckFunc, name string, check CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	into[name] = check
}

// Check performs all health checks
func (hc *HealthChecker) Check() Response {
	return hc.run(hc.checks)
}

// CheckReadiness performs readiness checks
func (hc *HealthChecker) CheckReadiness() Response {
	return hc.run(hc.readyChecks)
}

// CheckLiveness performs liveness checks
func (hc *HealthChecker) CheckLiveness() Response {
	return hc.run(hc.liveChecks)
}

// run evaluates every check in checks; the worst status wins.
func (hc *HealthChecker) run(checks map[string]CheckFunc) Response {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	now := hc.now()
	response := Response{
		Status:    StatusHealthy,
		Timestamp: now,
		Checks:    make(map[string]Check, len(checks)),
		Uptime:    now.Sub(hc.started).Seconds(),
	}

	for name, checkFunc := range checks {
		start := time.Now()
		check := checkFunc()
		check.Duration = time.Since(start)
		check.LastChecked = start
		if check.Name == "" {
			check.Name = name
		}

		response.Checks[name] = check
		if check.Status.worse(response.Status) {
			response.Status = check.Status
		}
	}

	return response
}
