package drift

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gowebpki/jcs"
	"github.com/zeebo/blake3"

	goverrors "github.com/felixgeelhaar/govern/internal/errors"
)

// FileDigest is the blake3 digest of one blueprint artifact
type FileDigest struct {
	Path   string `json:"path"`
	Digest string `json:"digest"`
}

// Proposal is a replay suggestion for one pending event
type Proposal struct {
	EventID  string   `json:"eventId"`
	Severity Severity `json:"severity"`
	Action   string   `json:"action"`
	Command  string   `json:"command,omitempty"`
}

// Replay is the re-derived state of one blueprint
type Replay struct {
	Blueprint   string       `json:"blueprint"`
	FixMode     FixMode      `json:"fixMode"`
	Events      []Event      `json:"events"`
	Pending     int          `json:"pending"`
	Files       []FileDigest `json:"files"`
	StateDigest string       `json:"stateDigest"`
	Proposals   []Proposal   `json:"proposals"`
}

// Replay re-derives a blueprint's drift-relevant state and returns it as
// RFC 8785 canonical JSON. Identical stored state always yields identical
// bytes. The log is never modified.
func (s *Store) Replay(blueprintID string, mode FixMode) ([]byte, error) {
	r, err := s.BuildReplay(blueprintID, mode)
	if err != nil {
		return nil, err
	}
	return canonicalJSON(r)
}

// BuildReplay assembles the replay document without encoding it
func (s *Store) BuildReplay(blueprintID string, mode FixMode) (*Replay, error) {
	if _, err := ParseFixMode(string(mode)); err != nil || mode == "" {
		return nil, goverrors.NewInvalidFixModeError(string(mode))
	}
	if blueprintID == "" || strings.ContainsAny(blueprintID, `/\`) || !filepath.IsLocal(blueprintID) {
		return nil, goverrors.New(goverrors.ErrCodeDriftNotFound, fmt.Sprintf("invalid blueprint id %q", blueprintID))
	}

	doc, err := s.Load()
	if err != nil {
		return nil, err
	}

	r := &Replay{
		Blueprint: blueprintID,
		FixMode:   mode,
		Events:    []Event{},
		Files:     []FileDigest{},
		Proposals: []Proposal{},
	}
	for _, e := range doc.DriftEvents {
		if e.Blueprint != blueprintID {
			continue
		}
		r.Events = append(r.Events, e)
		if e.Pending() {
			r.Pending++
		}
	}

	dir := filepath.Join(s.blueprints, blueprintID)
	files, found, err := digestTree(dir)
	if err != nil {
		return nil, err
	}
	if !found && len(r.Events) == 0 {
		return nil, goverrors.New(goverrors.ErrCodeDriftNotFound, "blueprint not found: "+blueprintID).
			WithSuggestion("Run 'govern drift list' to see which blueprints have recorded drift")
	}
	r.Files = files

	r.StateDigest, err = stateDigest(r)
	if err != nil {
		return nil, err
	}
	r.Proposals = propose(r.Events, mode)
	return r, nil
}

// stateDigest covers what was stored, not how it is being replayed
func stateDigest(r *Replay) (string, error) {
	canonical, err := canonicalJSON(struct {
		Blueprint string       `json:"blueprint"`
		Events    []Event      `json:"events"`
		Files     []FileDigest `json:"files"`
	}{r.Blueprint, r.Events, r.Files})
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func propose(events []Event, mode FixMode) []Proposal {
	proposals := []Proposal{}
	if mode == FixModeNone {
		return proposals
	}
	for _, e := range events {
		if !e.Pending() {
			continue
		}
		switch mode {
		case FixModeGuided:
			proposals = append(proposals,
				Proposal{EventID: e.ID, Severity: e.Severity, Action: "approve", Command: "govern drift review " + e.ID + " --approve"},
				Proposal{EventID: e.ID, Severity: e.Severity, Action: "reject", Command: "govern drift review " + e.ID},
			)
		case FixModeAuto:
			action := "approve"
			if e.Severity.AtLeast(SeverityHigh) {
				action = "escalate"
			}
			proposals = append(proposals, Proposal{EventID: e.ID, Severity: e.Severity, Action: action})
		}
	}
	return proposals
}

// digestTree hashes every regular file under dir, sorted by slash path.
// found is false when dir does not exist.
func digestTree(dir string) ([]FileDigest, bool, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []FileDigest{}, false, nil
	}
	if err != nil {
		return nil, false, goverrors.NewFileReadError(dir, err)
	}
	if !info.IsDir() {
		return nil, false, goverrors.New(goverrors.ErrCodeDirectoryFailed, dir+" is not a directory")
	}

	files := []FileDigest{}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		// #nosec G304 -- walking the configured blueprint directory.
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		sum := blake3.Sum256(content)
		files = append(files, FileDigest{Path: filepath.ToSlash(rel), Digest: hex.EncodeToString(sum[:])})
		return nil
	})
	if err != nil {
		return nil, false, goverrors.NewFileReadError(dir, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, true, nil
}

func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, goverrors.Wrap(goverrors.ErrCodeFileMarshal, "failed to encode replay", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, goverrors.Wrap(goverrors.ErrCodeFileMarshal, "failed to canonicalize replay", err)
	}
	return canonical, nil
}
