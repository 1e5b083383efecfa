// Package health diagnoses a govern project setup.
//
// Each Checker verifies one prerequisite (configuration, drift log, waivers,
// version control) and reports it as healthy, degraded or unhealthy. A
// Manager runs the registered checkers in parallel under a timeout and
// returns the results in registration order.
package health

import (
	"context"
	"time"
)

// Checker defines the interface for health checks.
type Checker interface {
	// Name returns the unique name of this health check.
	// Should be lowercase with hyphens (e.g., "drift-log", "git-repository").
	Name() string

	// Check performs the health check and returns the result.
	// It should respect the context deadline and return quickly.
	Check(ctx context.Context) *Result
}

// Status represents the health check status.
type Status string

const (
	// StatusHealthy indicates the checked component is fully operational.
	StatusHealthy Status = "healthy"

	// StatusDegraded indicates the component works but needs attention.
	StatusDegraded Status = "degraded"

	// StatusUnhealthy indicates the component is not working.
	// Commands depending on it will fail.
	StatusUnhealthy Status = "unhealthy"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Result represents the result of a health check.
type Result struct {
	Status  Status                 `json:"status"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Latency time.Duration          `json:"latency"`
}

// NewResult creates a new health check result with the given status and message.
func NewResult(status Status, message string) *Result {
	return &Result{
		Status:  status,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WithDetail adds a detail to the result and returns the result for chaining.
func (r *Result) WithDetail(key string, value interface{}) *Result {
	r.Details[key] = value
	return r
}

// WithLatency sets the latency and returns the result for chaining.
func (r *Result) WithLatency(latency time.Duration) *Result {
	r.Latency = latency
	return r
}

// Healthy creates a healthy result with the given message.
func Healthy(message string) *Result {
	return NewResult(StatusHealthy, message)
}

// Degraded creates a degraded result with the given message.
func Degraded(message string) *Result {
	return NewResult(StatusDegraded, message)
}

// Unhealthy creates an unhealthy result with the given message.
func Unhealthy(message string) *Result {
	return NewResult(StatusUnhealthy, message)
}
