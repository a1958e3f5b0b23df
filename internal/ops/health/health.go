// Package health exposes liveness of the daemon's collaborators (cache,
// database, upstream API) over HTTP, alongside the metrics endpoint.
package health

import (
	"context"
	"sync"
	"time"
)

// Status is the health classification of a component.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusCritical Status = "critical"
)

// Checker reports whether a component is reachable.
type Checker interface {
	Health(ctx context.Context) error
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Health(ctx context.Context) error {
	return f(ctx)
}

// ComponentHealth is the check result for one component.
type ComponentHealth struct {
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Report maps component names to their health.
type Report map[string]ComponentHealth

// Monitor runs registered checks on demand.
type Monitor struct {
	mu     sync.RWMutex
	checks map[string]Checker
}

// NewMonitor creates an empty monitor.
func NewMonitor() *Monitor {
	return &Monitor{checks: make(map[string]Checker)}
}

// Register adds a named component check.
func (m *Monitor) Register(name string, checker Checker) {
	m.mu.Lock()
	m.checks[name] = checker
	m.mu.Unlock()
}

// CheckHealth runs every registered check with a per-check timeout.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	m.mu.RLock()
	checks := make(map[string]Checker, len(m.checks))
	for name, checker := range m.checks {
		checks[name] = checker
	}
	m.mu.RUnlock()

	report := make(Report, len(checks))
	for name, checker := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := checker.Health(checkCtx)
		cancel()

		health := ComponentHealth{Status: StatusHealthy, CheckedAt: time.Now()}
		if err != nil {
			health.Status = StatusCritical
			health.Error = err.Error()
		}
		report[name] = health
	}
	return report
}
