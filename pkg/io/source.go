package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/featuremap/pkg/errors"
	"github.com/matzehuels/featuremap/pkg/scene"
)

// Format is the encoding of a source document.
type Format string

// Supported source formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the source format from a file extension. Anything that
// is not .yaml or .yml is read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unknown source format %q (want json or yaml)", s)
	}
}

// ReadSource decodes a source document: a mapping from group name to an
// ordered list of feature names.
//
//	{
//	  "orders":    ["id", "total", "created_at"],
//	  "customers": ["id", "email"]
//	}
//
// A group whose value is not a list (null, an object, a string) gets no
// features. List items must be scalars; numbers and booleans are used in
// their textual form. Any other shape rejects the whole document with an
// INVALID_SOURCE error.
//
// ReadSource does not close r.
func ReadSource(r io.Reader, format Format) (scene.Source, error) {
	var raw map[string]any
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&raw); err != nil {
			return scene.Source{}, errors.Wrap(errors.ErrCodeInvalidSource, err, "decode json source")
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
			return scene.Source{}, errors.Wrap(errors.ErrCodeInvalidSource, err, "decode yaml source")
		}
	default:
		return scene.Source{}, errors.New(errors.ErrCodeInvalidFormat, "unknown source format %q", format)
	}
	if raw == nil {
		return scene.Source{}, errors.New(errors.ErrCodeInvalidSource, "source must be a mapping of group names to feature lists")
	}

	src := scene.Source{Groups: make([]scene.SourceGroup, 0, len(raw))}
	for name, v := range raw {
		g := scene.SourceGroup{Name: name}
		if items, ok := v.([]any); ok {
			for i, item := range items {
				s, err := scalarString(item)
				if err != nil {
					return scene.Source{}, errors.Wrap(errors.ErrCodeInvalidSource, err, "group %q item %d", name, i)
				}
				g.Features = append(g.Features, s)
			}
		}
		src.Groups = append(src.Groups, g)
	}
	return src, nil
}

func scalarString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case float64, int, int64, uint64, bool:
		return fmt.Sprint(x), nil
	case nil:
		return "", fmt.Errorf("null feature name")
	default:
		return "", fmt.Errorf("feature name must be a scalar, got %T", v)
	}
}

// ImportSource reads a source file at path, picking the format from its
// extension.
func ImportSource(path string) (scene.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return scene.Source{}, openError(path, err)
	}
	defer f.Close()
	return ReadSource(f, FormatFromPath(path))
}

// SourceOf extracts the source document a world could have been built from:
// every group with the names of its features in paint order.
func SourceOf(w *scene.World) map[string][]string {
	out := make(map[string][]string)
	for _, g := range w.Groups() {
		names := []string{}
		for _, f := range w.Features(g.ID) {
			names = append(names, f.Name)
		}
		out[g.Name] = append(out[g.Name], names...)
	}
	return out
}

// WriteSource encodes the source document of w in the given format.
func WriteSource(w *scene.World, out io.Writer, format Format) error {
	src := SourceOf(w)
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(src); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(src); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unknown source format %q", format)
	}
}
