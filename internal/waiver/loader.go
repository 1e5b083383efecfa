package waiver

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	goverrors "github.com/felixgeelhaar/govern/internal/errors"
)

// ErrNoWaiverDir is returned by LoadDir when the directory does not exist
var ErrNoWaiverDir = errors.New("no waivers directory")

// filePattern matches every waiver file format below the waiver directory
const filePattern = "**/*.{json,yaml,yml,waiver,txt}"

// FileResult is the validation outcome for one waiver file
type FileResult struct {
	Path       string   `json:"path"`
	Violations []string `json:"violations"`
	Waiver     *Waiver  `json:"-"`
}

// Valid reports whether the file has no violations
func (r FileResult) Valid() bool {
	return len(r.Violations) == 0
}

// LoadDir validates every waiver file below dir. Results are sorted by path
// relative to dir. A file that cannot be parsed yields a single
// "parse failure" violation and no waiver.
func LoadDir(dir string, schema *Schema) ([]FileResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoWaiverDir
		}
		return nil, goverrors.NewFileReadError(dir, err)
	}
	if !info.IsDir() {
		return nil, goverrors.New(goverrors.ErrCodeDirectoryFailed, fmt.Sprintf("%s is not a directory", dir))
	}

	matches, err := doublestar.Glob(os.DirFS(dir), filePattern)
	if err != nil {
		return nil, goverrors.NewFileReadError(dir, err)
	}
	sort.Strings(matches)

	results := make([]FileResult, 0, len(matches))
	for _, rel := range matches {
		results = append(results, LoadFile(filepath.Join(dir, filepath.FromSlash(rel)), schema))
	}
	return results, nil
}

// LoadFile validates a single waiver file
func LoadFile(path string, schema *Schema) FileResult {
	result := FileResult{Path: path, Violations: []string{}}

	// #nosec G304 -- waiver paths come from the configured waiver directory.
	data, err := os.ReadFile(path)
	if err != nil {
		result.Violations = append(result.Violations, fmt.Sprintf("read failure: %v", err))
		return result
	}

	record, err := Decode(path, data)
	if err != nil {
		result.Violations = append(result.Violations, fmt.Sprintf("parse failure: %v", err))
		return result
	}

	result.Violations = append(result.Violations, Validate(record, schema)...)
	if result.Valid() {
		if w, ok := FromRecord(record, schema, path); ok {
			result.Waiver = &w
		}
	}
	return result
}

// Decode parses a waiver document by extension. JSON files use the JSON
// decoder, YAML files the YAML parser, and .waiver/.txt files the flat
// key:value text format. Values reach validation as the author wrote them:
// YAML timestamps stay text, so the date rule applies the same way to
// every format.
func Decode(path string, data []byte) (Record, error) {
	var record Record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, err
		}
	case ".waiver", ".txt":
		parsed, err := decodeText(data)
		if err != nil {
			return nil, err
		}
		record = parsed
	default:
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		if doc.Kind == 0 {
			return nil, errors.New("empty document")
		}
		keepTimestampsAsText(&doc)
		if err := doc.Decode(&record); err != nil {
			return nil, err
		}
	}
	if record == nil {
		return nil, errors.New("empty document")
	}
	return record, nil
}

// decodeText reads "key: value" lines. The value is everything after the
// first colon, trimmed, with nothing stripped from inside it. Blank lines
// and lines starting with # are skipped; an empty value is null.
// Indented lines are rejected rather than flattened: nested or typed
// fields belong in a YAML or JSON waiver.
func decodeText(data []byte) (Record, error) {
	record := Record{}
	text := strings.TrimPrefix(string(data), "\uFEFF")
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			return nil, fmt.Errorf("line %d: nested values are not supported in key:value waivers", i+1)
		}

		key, value, ok := strings.Cut(trimmed, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("line %d: expected \"key: value\"", i+1)
		}
		if _, dup := record[key]; dup {
			return nil, fmt.Errorf("line %d: duplicate key %q", i+1, key)
		}

		value = strings.TrimSpace(value)
		if value == "" {
			record[key] = nil
			continue
		}
		record[key] = value
	}
	if len(record) == 0 {
		return nil, errors.New("empty document")
	}
	return record, nil
}

// keepTimestampsAsText retags implicit YAML timestamps as strings so they
// decode to their source text instead of time.Time
func keepTimestampsAsText(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!timestamp" {
		n.Tag = "!!str"
	}
	for _, child := range n.Content {
		keepTimestampsAsText(child)
	}
}
