// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// keyIndex maps every dotted key path of a document to the line it starts on.
type keyIndex map[string]int

// indexKeys walks the document's mappings, recording each key path and
// rejecting keys repeated within one mapping. Aliases and merge keys are
// followed so anchored sections count as present.
func indexKeys(doc *yaml.Node) (keyIndex, error) {
	idx := keyIndex{}
	root := doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return idx, nil
		}
		root = root.Content[0]
	}
	root = resolveAlias(root)
	switch root.Kind {
	case yaml.MappingNode:
	case yaml.ScalarNode:
		if root.Tag == "!!null" {
			return idx, nil
		}
		return nil, fmt.Errorf("%w: line %d: document root must be a mapping", ErrSyntax, root.Line)
	default:
		return nil, fmt.Errorf("%w: line %d: document root must be a mapping", ErrSyntax, root.Line)
	}
	if err := idx.walk("", root); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx keyIndex) walk(prefix string, m *yaml.Node) error {
	seen := make(map[string]int, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		k, v := m.Content[i], resolveAlias(m.Content[i+1])
		if k.ShortTag() == "!!merge" {
			if err := idx.merge(prefix, v); err != nil {
				return err
			}
			continue
		}
		path := k.Value
		if prefix != "" {
			path = prefix + "." + k.Value
		}
		if first, dup := seen[k.Value]; dup {
			return fmt.Errorf("%w: %q at line %d already defined at line %d", ErrDuplicateKey, path, k.Line, first)
		}
		seen[k.Value] = k.Line
		idx[path] = k.Line
		if err := checkInteger(path, v); err != nil {
			return err
		}
		if v.Kind == yaml.MappingNode {
			if err := idx.walk(path, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// merge indexes the mappings pulled in by a "<<" key. Keys set explicitly
// next to the merge override merged ones, so they are not duplicates.
func (idx keyIndex) merge(prefix string, v *yaml.Node) error {
	switch v.Kind {
	case yaml.MappingNode:
		return idx.walk(prefix, v)
	case yaml.SequenceNode:
		for _, item := range v.Content {
			if err := idx.merge(prefix, resolveAlias(item)); err != nil {
				return err
			}
		}
	}
	return nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// checkInteger rejects non-integral scalars for integer keys. The decoder
// would otherwise truncate 1.5 to 1 without complaint.
func checkInteger(path string, v *yaml.Node) error {
	e, ok := LookupEntry(path)
	if !ok || e.Kind != KindInt || v.Kind != yaml.ScalarNode {
		return nil
	}
	switch v.ShortTag() {
	case "!!int", "!!null":
		return nil
	case "!!float":
		if f, err := strconv.ParseFloat(v.Value, 64); err == nil && f == math.Trunc(f) {
			return nil
		}
	}
	return fmt.Errorf("%w: line %d: %s must be an integer, got %q", ErrTypeMismatch, v.Line, path, v.Value)
}

// missing returns the required paths absent from the index, sorted.
func (idx keyIndex) missing(required []string) []string {
	var out []string
	for _, p := range required {
		if _, ok := idx[p]; !ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func missingKeysError(missing []string) error {
	return fmt.Errorf("%w: %s", ErrMissingKey, strings.Join(missing, ", "))
}
