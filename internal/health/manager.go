package health

import (
	"context"
	"sync"
	"time"
)

// Report is one named check result
type Report struct {
	Name string `json:"name"`
	*Result
}

// Manager coordinates health checks and aggregates results.
// It runs checks in parallel with timeouts and collects all results.
type Manager struct {
	checkers []Checker
	timeout  time.Duration
	mu       sync.RWMutex
}

// NewManager creates a new health check manager with default 5-second timeout.
func NewManager() *Manager {
	return &Manager{
		checkers: make([]Checker, 0),
		timeout:  5 * time.Second,
	}
}

// WithTimeout sets a custom timeout for health checks.
func (m *Manager) WithTimeout(timeout time.Duration) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return m
}

// AddChecker registers a new health checker.
func (m *Manager) AddChecker(checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, checker)
}

// Check runs all registered health checks in parallel, each under the
// manager's timeout. Reports are returned in registration order.
func (m *Manager) Check(ctx context.Context) []Report {
	m.mu.RLock()
	checkers := make([]Checker, len(m.checkers))
	copy(checkers, m.checkers)
	timeout := m.timeout
	m.mu.RUnlock()

	reports := make([]Report, len(checkers))
	wg := sync.WaitGroup{}

	for i, checker := range checkers {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			result := c.Check(checkCtx)
			if result == nil {
				result = Unhealthy("check returned no result")
			}
			if result.Latency == 0 {
				result.Latency = time.Since(start)
			}

			reports[i] = Report{Name: c.Name(), Result: result}
		}(i, checker)
	}

	wg.Wait()
	return reports
}

// OverallStatus is the worst status among reports, healthy when empty.
func OverallStatus(reports []Report) Status {
	hasDegraded := false
	for _, r := range reports {
		if r.Status == StatusUnhealthy {
			return StatusUnhealthy
		}
		if r.Status == StatusDegraded {
			hasDegraded = true
		}
	}

	if hasDegraded {
		return StatusDegraded
	}

	return StatusHealthy
}

// Count returns the number of registered checkers.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.checkers)
}
