package checks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/govern/internal/policy"
)

// match is one file selected by a glob. Display is the slash path shown
// in issues; Path is the path on disk.
type match struct {
	Display string
	Path    string
}

// expand resolves a doublestar pattern against root, returning regular
// files only, sorted.
func expand(root, pattern string) ([]match, error) {
	if filepath.IsAbs(pattern) {
		paths, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		sort.Strings(paths)
		matches := make([]match, len(paths))
		for i, p := range paths {
			matches[i] = match{Display: filepath.ToSlash(p), Path: p}
		}
		return matches, nil
	}

	rel := strings.TrimPrefix(filepath.ToSlash(pattern), "./")
	names, err := doublestar.Glob(os.DirFS(root), rel, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	sort.Strings(names)
	matches := make([]match, len(names))
	for i, name := range names {
		matches[i] = match{Display: name, Path: policy.Resolve(root, filepath.FromSlash(name))}
	}
	return matches, nil
}

// decodeDocument reads a JSON or YAML file into generic values
func decodeDocument(path string) (any, error) {
	// #nosec G304 -- paths come from configured claim globs.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &doc)
	default:
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// readKey returns the scalar at a dotted key exactly as written in the
// file. JSON numbers keep their literal text and YAML scalars their source
// text, so 1.10 never reads as 1.1.
func readKey(path, key string) (string, error) {
	// #nosec G304 -- paths come from configured claim globs.
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var doc any
		if err := dec.Decode(&doc); err != nil {
			return "", fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		return lookupKey(doc, key)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return "", fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return lookupNode(&node, key)
}

// lookupKey follows a dotted path through maps and, for numeric segments,
// lists. The value must be a scalar.
func lookupKey(doc any, key string) (string, error) {
	current := doc
	for _, segment := range strings.Split(key, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return "", fmt.Errorf("key %q not found", key)
			}
			current = next
		case []any:
			i, err := strconv.Atoi(segment)
			if err != nil || i < 0 || i >= len(node) {
				return "", fmt.Errorf("key %q not found", key)
			}
			current = node[i]
		default:
			return "", fmt.Errorf("key %q not found", key)
		}
	}

	switch v := current.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	case nil:
		return "", fmt.Errorf("key %q is null", key)
	default:
		return "", fmt.Errorf("key %q is not a scalar", key)
	}
}

// lookupNode is lookupKey over a YAML node tree
func lookupNode(doc *yaml.Node, key string) (string, error) {
	current := doc
	if current.Kind == yaml.DocumentNode && len(current.Content) > 0 {
		current = current.Content[0]
	}

	for _, segment := range strings.Split(key, ".") {
		current = dealias(current)
		switch current.Kind {
		case yaml.MappingNode:
			var next *yaml.Node
			for i := 0; i+1 < len(current.Content); i += 2 {
				if current.Content[i].Value == segment {
					next = current.Content[i+1]
					break
				}
			}
			if next == nil {
				return "", fmt.Errorf("key %q not found", key)
			}
			current = next
		case yaml.SequenceNode:
			i, err := strconv.Atoi(segment)
			if err != nil || i < 0 || i >= len(current.Content) {
				return "", fmt.Errorf("key %q not found", key)
			}
			current = current.Content[i]
		default:
			return "", fmt.Errorf("key %q not found", key)
		}
	}

	current = dealias(current)
	switch {
	case current.Kind != yaml.ScalarNode:
		return "", fmt.Errorf("key %q is not a scalar", key)
	case current.ShortTag() == "!!null":
		return "", fmt.Errorf("key %q is null", key)
	}
	return current.Value, nil
}

func dealias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}
