package drift

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	goverrors "github.com/felixgeelhaar/govern/internal/errors"
	"github.com/felixgeelhaar/govern/internal/fsx"
	"github.com/felixgeelhaar/govern/internal/log"
)

const sampleLog = `{
  "driftEvents": [
    {"id": "evt-1", "severity": "low", "timestamp": "2026-01-01T00:00:00Z", "detail": "readme out of date"},
    {"id": "evt-2", "severity": "high", "timestamp": "2026-01-02T00:00:00Z", "detail": "endpoint removed", "blueprint": "feat-public-viewing"},
    {"id": "evt-3", "severity": "critical", "timestamp": "2026-01-03T00:00:00Z", "detail": "auth bypass"},
    {"id": "evt-4", "severity": "high", "timestamp": "2026-01-04T00:00:00Z", "detail": "field renamed", "blueprint": "feat-public-viewing", "resolution": {"action": "approved"}}
  ]
}
`

func newTestStore(t *testing.T, content string) *Store {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "drift.json")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return NewStore(path).WithLogger(log.Discard())
}

func TestListFilter(t *testing.T) {
	store := newTestStore(t, sampleLog)

	high := SeverityHigh
	events, err := store.List(&high)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "evt-2", events[0].ID)
	assert.Equal(t, "evt-4", events[1].ID)

	all, err := store.List(nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	medium := SeverityMedium
	none, err := store.List(&medium)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListMissingFile(t *testing.T) {
	store := newTestStore(t, "")
	events, err := store.List(nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestListCorruptLog(t *testing.T) {
	store := newTestStore(t, `{"driftEvents": [`)
	_, err := store.List(nil)
	require.Error(t, err)
	assert.True(t, goverrors.HasCode(err, goverrors.ErrCodeFileUnmarshal))
}

func TestReviewThenList(t *testing.T) {
	store := newTestStore(t, sampleLog)

	event, err := store.Review(context.Background(), "evt-1", true)
	require.NoError(t, err)
	require.NotNil(t, event.Resolution)
	assert.Equal(t, ActionApproved, event.Resolution.Action)

	events, err := store.List(nil)
	require.NoError(t, err)
	require.NotNil(t, events[0].Resolution)
	assert.Equal(t, ActionApproved, events[0].Resolution.Action)
	assert.Equal(t, "readme out of date", events[0].Detail, "other fields survive the rewrite")
	assert.Equal(t, "2026-01-03T00:00:00Z", events[2].Timestamp)
}

func TestReviewReject(t *testing.T) {
	store := newTestStore(t, sampleLog)

	event, err := store.Review(context.Background(), "evt-3", false)
	require.NoError(t, err)
	assert.Equal(t, ActionRejected, event.Resolution.Action)
	assert.Equal(t, "rejected", event.State())
}

func TestReviewNotFoundLeavesLogUntouched(t *testing.T) {
	store := newTestStore(t, sampleLog)
	before, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	_, err = store.Review(context.Background(), "evt-missing", true)
	require.Error(t, err)
	assert.True(t, goverrors.HasCode(err, goverrors.ErrCodeDriftNotFound))

	after, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestReviewResolvedIsInvalidTransition(t *testing.T) {
	store := newTestStore(t, sampleLog)
	before, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	_, err = store.Review(context.Background(), "evt-4", false)
	require.Error(t, err)
	assert.True(t, goverrors.HasCode(err, goverrors.ErrCodeDriftInvalidTransition))
	assert.Contains(t, err.Error(), "already approved")

	after, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestReviewLockTimeout(t *testing.T) {
	store := newTestStore(t, sampleLog).WithLockTimeout(30 * time.Millisecond)

	held, err := fsx.AcquireLock(context.Background(), store.Path()+".lock", time.Second)
	require.NoError(t, err)
	defer held.Release()

	_, err = store.Review(context.Background(), "evt-1", true)
	require.Error(t, err)
	assert.True(t, goverrors.HasCode(err, goverrors.ErrCodeDriftLockTimeout))
}

func TestConcurrentReviewsResolveOnce(t *testing.T) {
	store := newTestStore(t, sampleLog)

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(approve bool) {
			defer wg.Done()
			_, err := store.Review(context.Background(), "evt-3", approve)
			results <- err
		}(i%2 == 0)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, goverrors.HasCode(err, goverrors.ErrCodeDriftInvalidTransition), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
}

func TestConcurrentAppendsAreNotLost(t *testing.T) {
	store := newTestStore(t, "")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Append(context.Background(), Event{Severity: SeverityMedium, Detail: fmt.Sprintf("change %d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	events, err := store.List(nil)
	require.NoError(t, err)
	assert.Len(t, events, 10)
}

func TestAppend(t *testing.T) {
	store := newTestStore(t, sampleLog)
	store.now = func() time.Time { return time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC) }
	store.newID = func() string { return "evt-new" }

	event, err := store.Append(context.Background(), Event{
		Severity:   SeverityMedium,
		Detail:     "config key renamed",
		Resolution: &Resolution{Action: ActionApproved},
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-new", event.ID)
	assert.Equal(t, "2026-02-01T09:30:00Z", event.Timestamp)
	assert.True(t, event.Pending(), "appended events start pending")

	events, err := store.List(nil)
	require.NoError(t, err)
	require.Len(t, events, 5)
	assert.Equal(t, "evt-new", events[4].ID)

	_, err = store.Append(context.Background(), Event{ID: "evt-1", Severity: SeverityLow})
	assert.True(t, goverrors.HasCode(err, goverrors.ErrCodeDriftDuplicateEvent))

	_, err = store.Append(context.Background(), Event{Severity: "urgent"})
	assert.True(t, goverrors.HasCode(err, goverrors.ErrCodeDriftInvalidSeverity))
}

func TestPending(t *testing.T) {
	store := newTestStore(t, sampleLog)

	events, err := store.Pending(SeverityHigh)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "evt-2", events[0].ID)
	assert.Equal(t, "evt-3", events[1].ID)
}

func TestListFilterProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(rt, "n")
		doc := Document{DriftEvents: []Event{}}
		for i := 0; i < n; i++ {
			doc.DriftEvents = append(doc.DriftEvents, Event{
				ID:        fmt.Sprintf("evt-%d", i),
				Severity:  rapid.SampledFrom(Severities).Draw(rt, "severity"),
				Timestamp: "2026-01-01T00:00:00Z",
			})
		}

		store := newTestStore(t, "")
		require.NoError(t, store.write(&doc))

		filter := rapid.SampledFrom(Severities).Draw(rt, "filter")
		got, err := store.List(&filter)
		if err != nil {
			rt.Fatal(err)
		}

		var want []string
		for _, e := range doc.DriftEvents {
			if e.Severity == filter {
				want = append(want, e.ID)
			}
		}
		if len(got) != len(want) {
			rt.Fatalf("got %d events, want %d", len(got), len(want))
		}
		for i := range got {
			if got[i].ID != want[i] || got[i].Severity != filter {
				rt.Fatalf("event %d: got %s/%s, want %s/%s", i, got[i].ID, got[i].Severity, want[i], filter)
			}
		}
	})
}

func TestProbeLeavesLogUntouched(t *testing.T) {
	store := newTestStore(t, sampleLog)
	before, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	doc, err := store.Probe(context.Background())
	require.NoError(t, err)
	assert.Len(t, doc.DriftEvents, 4)

	after, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
