package drift

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	goverrors "github.com/felixgeelhaar/govern/internal/errors"
	"github.com/felixgeelhaar/govern/internal/fsx"
	"github.com/felixgeelhaar/govern/internal/log"
)

// DefaultLockTimeout bounds how long a mutation waits for the log lock
const DefaultLockTimeout = 10 * time.Second

// Store is the file-backed drift log. Reads are lock-free snapshots;
// mutations hold an exclusive lock over the whole read-modify-write and
// replace the file atomically.
type Store struct {
	path        string
	blueprints  string
	lockTimeout time.Duration
	logger      *log.Logger
	now         func() time.Time
	newID       func() string
}

// NewStore creates a store for the log at path. Blueprints default to a
// "blueprints" directory next to the log.
func NewStore(path string) *Store {
	return &Store{
		path:        path,
		blueprints:  filepath.Join(filepath.Dir(path), "blueprints"),
		lockTimeout: DefaultLockTimeout,
		logger:      log.DefaultLogger(),
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// WithBlueprints sets the directory holding per-blueprint artifacts
func (s *Store) WithBlueprints(dir string) *Store {
	if dir != "" {
		s.blueprints = dir
	}
	return s
}

// WithLockTimeout sets how long mutations wait for the lock
func (s *Store) WithLockTimeout(d time.Duration) *Store {
	if d > 0 {
		s.lockTimeout = d
	}
	return s
}

// WithLogger sets the store logger
func (s *Store) WithLogger(logger *log.Logger) *Store {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Path returns the log file path
func (s *Store) Path() string {
	return s.path
}

func (s *Store) lockPath() string {
	return s.path + ".lock"
}

// Load reads the current document. A missing file is an empty log.
func (s *Store) Load() (*Document, error) {
	// #nosec G304 -- log path comes from project configuration.
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Document{DriftEvents: []Event{}}, nil
		}
		return nil, goverrors.NewFileReadError(s.path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, goverrors.NewFileUnmarshalError(s.path, "JSON", err)
	}
	if doc.DriftEvents == nil {
		doc.DriftEvents = []Event{}
	}
	return &doc, nil
}

// List returns events in append order, optionally only those of one severity
func (s *Store) List(severity *Severity) ([]Event, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	if severity == nil {
		return doc.DriftEvents, nil
	}

	events := []Event{}
	for _, e := range doc.DriftEvents {
		if e.Severity == *severity {
			events = append(events, e)
		}
	}
	return events, nil
}

// Pending returns unresolved events at or above floor, in append order
func (s *Store) Pending(floor Severity) ([]Event, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	var events []Event
	for _, e := range doc.DriftEvents {
		if e.Pending() && e.Severity.AtLeast(floor) {
			events = append(events, e)
		}
	}
	return events, nil
}

// Review resolves a pending event. An unknown id or an already resolved
// event leaves the log untouched.
func (s *Store) Review(ctx context.Context, id string, approve bool) (*Event, error) {
	action := ActionRejected
	if approve {
		action = ActionApproved
	}

	var reviewed Event
	err := s.mutate(ctx, func(doc *Document) (bool, error) {
		i := doc.Find(id)
		if i < 0 {
			return false, goverrors.NewDriftNotFoundError(id)
		}
		if !doc.DriftEvents[i].Pending() {
			return false, goverrors.NewInvalidTransitionError(id, doc.DriftEvents[i].State())
		}
		doc.DriftEvents[i].Resolution = &Resolution{Action: action}
		reviewed = doc.DriftEvents[i]
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("drift event reviewed", "id", id, "action", string(action))
	return &reviewed, nil
}

// Append records a new pending event. A missing id or timestamp is
// generated; duplicate ids are rejected.
func (s *Store) Append(ctx context.Context, event Event) (*Event, error) {
	if event.Severity.Rank() == 0 {
		return nil, goverrors.NewInvalidSeverityError(string(event.Severity))
	}
	if event.ID == "" {
		event.ID = s.newID()
	}
	if event.Timestamp == "" {
		event.Timestamp = s.now().UTC().Format(time.RFC3339)
	}
	event.Resolution = nil

	err := s.mutate(ctx, func(doc *Document) (bool, error) {
		if doc.Find(event.ID) >= 0 {
			return false, goverrors.New(goverrors.ErrCodeDriftDuplicateEvent, "drift event already exists: "+event.ID)
		}
		doc.DriftEvents = append(doc.DriftEvents, event)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("drift event recorded", "id", event.ID, "severity", string(event.Severity))
	return &event, nil
}

// Probe acquires the log lock and loads the log without writing it
func (s *Store) Probe(ctx context.Context) (*Document, error) {
	var doc *Document
	err := s.mutate(ctx, func(d *Document) (bool, error) {
		doc = d
		return false, nil
	})
	return doc, err
}

// mutate runs fn under the log lock and writes the document back when fn
// reports a change. fn errors abort without writing.
func (s *Store) mutate(ctx context.Context, fn func(*Document) (bool, error)) error {
	err := fsx.WithLock(ctx, s.lockPath(), s.lockTimeout, func() error {
		doc, err := s.Load()
		if err != nil {
			return err
		}
		changed, err := fn(doc)
		if err != nil || !changed {
			return err
		}
		return s.write(doc)
	})
	if errors.Is(err, fsx.ErrLockTimeout) {
		return goverrors.NewLockTimeoutError(s.lockPath(), err)
	}
	return err
}

func (s *Store) write(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return goverrors.Wrap(goverrors.ErrCodeFileMarshal, "failed to encode drift log", err)
	}
	data = append(data, '\n')
	if err := fsx.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return goverrors.NewFileWriteError(s.path, err)
	}
	return nil
}
