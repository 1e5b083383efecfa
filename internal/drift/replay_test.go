package drift

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goverrors "github.com/felixgeelhaar/govern/internal/errors"
)

func withBlueprint(t *testing.T, store *Store, id string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(filepath.Dir(store.Path()), "blueprints", id, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestReplayDeterministic(t *testing.T) {
	store := newTestStore(t, sampleLog)
	withBlueprint(t, store, "feat-public-viewing", map[string]string{
		"blueprint.yaml":   "name: public viewing\n",
		"api/openapi.yaml": "openapi: 3.0.0\n",
	})

	first, err := store.Replay("feat-public-viewing", FixModeGuided)
	require.NoError(t, err)
	second, err := store.Replay("feat-public-viewing", FixModeGuided)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var r Replay
	require.NoError(t, json.Unmarshal(first, &r))
	assert.Equal(t, "feat-public-viewing", r.Blueprint)
	require.Len(t, r.Events, 2)
	assert.Equal(t, 1, r.Pending)
	require.Len(t, r.Files, 2)
	assert.Equal(t, "api/openapi.yaml", r.Files[0].Path)
	assert.Equal(t, "blueprint.yaml", r.Files[1].Path)
	require.Len(t, r.Proposals, 2)
	assert.Equal(t, "govern drift review evt-2 --approve", r.Proposals[0].Command)
}

func TestReplayDoesNotMutateLog(t *testing.T) {
	store := newTestStore(t, sampleLog)
	before, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	_, err = store.Replay("feat-public-viewing", FixModeAuto)
	require.NoError(t, err)

	after, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestReplayStateDigestTracksState(t *testing.T) {
	store := newTestStore(t, sampleLog)
	withBlueprint(t, store, "feat-public-viewing", map[string]string{"blueprint.yaml": "v1\n"})

	none, err := store.BuildReplay("feat-public-viewing", FixModeNone)
	require.NoError(t, err)
	auto, err := store.BuildReplay("feat-public-viewing", FixModeAuto)
	require.NoError(t, err)
	assert.Equal(t, none.StateDigest, auto.StateDigest, "fix mode is not part of the state")
	assert.Empty(t, none.Proposals)

	withBlueprint(t, store, "feat-public-viewing", map[string]string{"blueprint.yaml": "v2\n"})
	changed, err := store.BuildReplay("feat-public-viewing", FixModeNone)
	require.NoError(t, err)
	assert.NotEqual(t, none.StateDigest, changed.StateDigest)
}

func TestReplayAutoEscalatesSevereEvents(t *testing.T) {
	store := newTestStore(t, `{"driftEvents": [
  {"id": "a", "severity": "low", "timestamp": "t1", "blueprint": "bp"},
  {"id": "b", "severity": "critical", "timestamp": "t2", "blueprint": "bp"}
]}`)

	r, err := store.BuildReplay("bp", FixModeAuto)
	require.NoError(t, err)
	require.Len(t, r.Proposals, 2)
	assert.Equal(t, "approve", r.Proposals[0].Action)
	assert.Equal(t, "escalate", r.Proposals[1].Action)
}

func TestReplayErrors(t *testing.T) {
	store := newTestStore(t, sampleLog)

	_, err := store.Replay("unknown-blueprint", FixModeNone)
	assert.True(t, goverrors.HasCode(err, goverrors.ErrCodeDriftNotFound))

	_, err = store.Replay("../escape", FixModeNone)
	assert.Error(t, err)

	_, err = store.Replay("feat-public-viewing", FixMode("yolo"))
	assert.True(t, goverrors.HasCode(err, goverrors.ErrCodeDriftInvalidFixMode))
}
