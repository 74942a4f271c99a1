package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Loader loads manifest files
type Loader struct{}

// NewLoader creates a new manifest loader
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses a manifest file from the given path
func (l *Loader) Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ReadError{Path: path, Err: fmt.Errorf("%w: %v", ErrFileNotFound, err)}
		}
		return nil, &ReadError{Path: path, Err: err}
	}

	m, err := l.parse(data, filepath.Ext(path), path)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// LoadFromBytes parses a manifest from raw bytes; ext selects the format
func (l *Loader) LoadFromBytes(data []byte, ext string) (*Manifest, error) {
	return l.parse(data, ext, "")
}

func (l *Loader) parse(data []byte, ext, path string) (*Manifest, error) {
	ext = strings.ToLower(ext)

	var root any
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &root); err != nil {
			return nil, &ParseError{Path: path, Format: "JSON", Err: err}
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, &ParseError{Path: path, Format: "YAML", Err: err}
		}
	case ".toml":
		var table map[string]any
		if err := toml.Unmarshal(data, &table); err != nil {
			return nil, &ParseError{Path: path, Format: "TOML", Err: err}
		}
		root = table
	case ".hcl":
		return decodeHCL(data, path)
	default:
		// any other extension is read as JSON
		if err := json.Unmarshal(data, &root); err != nil {
			return nil, &ParseError{Path: path, Format: "JSON", Err: fmt.Errorf("%w %q: %w", ErrUnsupportedExt, ext, err)}
		}
	}

	return fromTree(root)
}

// fromTree converts a generic decoded document into a Manifest, reporting
// type mismatches with the index of the offending entry.
func fromTree(root any) (*Manifest, error) {
	doc, ok := asObject(root)
	if !ok {
		return nil, newSchemaError(-1, "", ErrNotObject)
	}

	raw, ok := doc["shaders"]
	if !ok {
		return nil, newSchemaError(-1, "shaders", ErrNoShaders)
	}
	list, ok := raw.([]any)
	if !ok {
		if raw == nil {
			return &Manifest{Shaders: []ShaderEntry{}}, nil
		}
		return nil, newSchemaError(-1, "shaders", ErrNotSequence)
	}

	m := &Manifest{Shaders: make([]ShaderEntry, 0, len(list))}
	for i, item := range list {
		entry, err := entryFromTree(i, item)
		if err != nil {
			return nil, err
		}
		m.Shaders = append(m.Shaders, entry)
	}
	return m, nil
}

func entryFromTree(index int, item any) (ShaderEntry, error) {
	var entry ShaderEntry

	obj, ok := asObject(item)
	if !ok {
		return entry, newSchemaError(index, "", ErrNotObject)
	}

	for key, value := range obj {
		switch key {
		case "vs", "ps", "cs":
			s, err := optionalString(value)
			if err != nil {
				return entry, newSchemaError(index, key, err)
			}
			switch key {
			case "vs":
				entry.VS = s
			case "ps":
				entry.PS = s
			case "cs":
				entry.CS = s
			}
		case "perm":
			tags, err := stringList(index, value)
			if err != nil {
				return entry, err
			}
			entry.Perm = tags
		default:
			entry.Extra = append(entry.Extra, key)
		}
	}

	sort.Strings(entry.Extra)
	return entry, nil
}

func optionalString(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w, got %T", ErrNotString, value)
	}
	return s, nil
}

func stringList(index int, value any) ([]string, error) {
	if value == nil {
		return nil, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, newSchemaError(index, "perm", fmt.Errorf("%w, got %T", ErrNotSequence, value))
	}
	tags := make([]string, 0, len(items))
	for j, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, newSchemaError(index, fmt.Sprintf("perm[%d]", j), fmt.Errorf("%w, got %T", ErrNotString, item))
		}
		tags = append(tags, s)
	}
	return tags, nil
}

// asObject accepts both map shapes produced by the decoders in use
func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}
