package health

import (
	"encoding/json"
	"testing"
	"time"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		result *Result
		status Status
	}{
		{Healthy("ok"), StatusHealthy},
		{Degraded("ok"), StatusDegraded},
		{Unhealthy("ok"), StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			if tt.result.Status != tt.status {
				t.Errorf("Status = %v, want %v", tt.result.Status, tt.status)
			}
			if tt.result.Details == nil {
				t.Error("Details should be initialized")
			}
		})
	}
}

func TestFluentAPI(t *testing.T) {
	result := Healthy("test").
		WithDetail("path", ".govern/drift.json").
		WithDetail("pending", 3).
		WithLatency(50 * time.Millisecond)

	if result.Latency != 50*time.Millisecond {
		t.Errorf("Latency = %v, want %v", result.Latency, 50*time.Millisecond)
	}
	if val, ok := result.Details["pending"].(int); !ok || val != 3 {
		t.Errorf("Details[pending] = %v, want 3", result.Details["pending"])
	}
}

func TestReportJSON(t *testing.T) {
	report := Report{Name: "config", Result: Degraded("no governance.yaml")}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["name"] != "config" || decoded["status"] != "degraded" {
		t.Errorf("unexpected JSON: %s", data)
	}
	if _, ok := decoded["details"]; ok {
		t.Errorf("empty details should be omitted: %s", data)
	}
}
