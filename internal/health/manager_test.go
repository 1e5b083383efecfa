package health

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// mockChecker is a test double for health checks
type mockChecker struct {
	name   string
	result *Result
	delay  time.Duration
}

func (m *mockChecker) Name() string {
	return m.name
}

func (m *mockChecker) Check(ctx context.Context) *Result {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return Unhealthy("check cancelled").
				WithDetail("error", ctx.Err().Error())
		}
	}
	return m.result
}

func TestNewManager(t *testing.T) {
	manager := NewManager()

	if manager.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want %v", manager.timeout, 5*time.Second)
	}
	if manager.Count() != 0 {
		t.Errorf("Count() = %d, want 0", manager.Count())
	}
	if returned := manager.WithTimeout(time.Second); returned != manager {
		t.Error("WithTimeout should return same manager for chaining")
	}
}

func TestCheckPreservesOrder(t *testing.T) {
	manager := NewManager()
	manager.AddChecker(&mockChecker{name: "slow", result: Healthy("ok"), delay: 30 * time.Millisecond})
	manager.AddChecker(&mockChecker{name: "degraded", result: Degraded("partial")})
	manager.AddChecker(&mockChecker{name: "unhealthy", result: Unhealthy("broken")})

	reports := manager.Check(context.Background())
	if len(reports) != 3 {
		t.Fatalf("Check() returned %d reports, want 3", len(reports))
	}

	want := []struct {
		name   string
		status Status
	}{
		{"slow", StatusHealthy},
		{"degraded", StatusDegraded},
		{"unhealthy", StatusUnhealthy},
	}
	for i, w := range want {
		if reports[i].Name != w.name || reports[i].Status != w.status {
			t.Errorf("reports[%d] = %s/%s, want %s/%s", i, reports[i].Name, reports[i].Status, w.name, w.status)
		}
	}
	if reports[0].Latency <= 0 {
		t.Errorf("latency should be measured, got %v", reports[0].Latency)
	}
}

func TestCheckWithTimeout(t *testing.T) {
	manager := NewManager().WithTimeout(50 * time.Millisecond)
	manager.AddChecker(&mockChecker{name: "slow", result: Healthy("should timeout"), delay: time.Second})

	reports := manager.Check(context.Background())

	if reports[0].Status != StatusUnhealthy {
		t.Errorf("slow check should be unhealthy due to timeout, got %v", reports[0].Status)
	}
	if reports[0].Message != "check cancelled" {
		t.Errorf("Message = %q, want %q", reports[0].Message, "check cancelled")
	}
}

func TestCheckNilResult(t *testing.T) {
	manager := NewManager()
	manager.AddChecker(&mockChecker{name: "broken"})

	reports := manager.Check(context.Background())
	if reports[0].Status != StatusUnhealthy {
		t.Errorf("nil result should count as unhealthy, got %v", reports[0].Status)
	}
}

func TestCheckConcurrency(t *testing.T) {
	manager := NewManager()
	for i := 0; i < 5; i++ {
		manager.AddChecker(&mockChecker{
			name:   fmt.Sprintf("checker-%d", i),
			result: Healthy("ok"),
			delay:  50 * time.Millisecond,
		})
	}

	start := time.Now()
	reports := manager.Check(context.Background())
	elapsed := time.Since(start)

	// Sequential execution would take ~250ms
	if elapsed > 200*time.Millisecond {
		t.Errorf("Check took %v, expected parallel execution to be faster", elapsed)
	}
	if len(reports) != 5 {
		t.Errorf("Check() returned %d reports, want 5", len(reports))
	}
}

func TestOverallStatus(t *testing.T) {
	report := func(r *Result) Report { return Report{Name: "x", Result: r} }

	tests := []struct {
		name     string
		reports  []Report
		expected Status
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", []Report{report(Healthy("ok")), report(Healthy("ok"))}, StatusHealthy},
		{"one degraded", []Report{report(Healthy("ok")), report(Degraded("partial"))}, StatusDegraded},
		{"one unhealthy", []Report{report(Degraded("partial")), report(Unhealthy("broken"))}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status := OverallStatus(tt.reports); status != tt.expected {
				t.Errorf("OverallStatus() = %v, want %v", status, tt.expected)
			}
		})
	}
}
