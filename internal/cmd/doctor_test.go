package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/govern/internal/health"
)

func TestDoctorHealthyProject(t *testing.T) {
	root := checkProject(t, "1.4.0", map[string]string{
		".govern/waivers/a.yaml": validWaiver,
	})

	out, _, err := executeCommand(t, "doctor", "--json", "--root", root)
	require.NoError(t, err)

	var report struct {
		Status health.Status `json:"status"`
		Checks []struct {
			Name   string        `json:"name"`
			Status health.Status `json:"status"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Checks, 4)
	assert.Equal(t, "config", report.Checks[0].Name)
	assert.Equal(t, health.StatusHealthy, report.Checks[0].Status)
	assert.Equal(t, "drift-log", report.Checks[1].Name)
	assert.Equal(t, "waivers", report.Checks[2].Name)
	assert.Equal(t, health.StatusHealthy, report.Checks[2].Status)
	assert.Equal(t, "git-repository", report.Checks[3].Name)
	assert.NotEqual(t, health.StatusUnhealthy, report.Status)
}

func TestDoctorInvalidConfig(t *testing.T) {
	root := newProject(t, map[string]string{
		".govern/governance.yaml": "claims:\n  - id: x\n    type: unknown\n",
	})

	out, _, err := executeCommand(t, "doctor", "--root", root)
	require.Error(t, err)
	assert.Contains(t, out, "config")
	assert.Contains(t, out, "unhealthy")
}
