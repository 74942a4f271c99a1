// Package shader holds the naming rules for compiled shader outputs: stage
// inference from source names, permutation suffixes and macro defines.
package shader

import (
	"fmt"
	"strings"
)

// Stage identifies a programmable pipeline stage
type Stage int

const (
	// Vertex is the vertex stage (manifest key "vs")
	Vertex Stage = iota
	// Fragment is the fragment/pixel stage (manifest key "ps")
	Fragment
	// Compute is the compute stage (manifest key "cs")
	Compute
)

type stageInfo struct {
	key       string
	tag       string
	extension string
	marker    string
	name      string
}

var stageTable = [...]stageInfo{
	Vertex:   {key: "vs", tag: "VS", extension: ".vert", marker: "vert", name: "vertex"},
	Fragment: {key: "ps", tag: "PS", extension: ".frag", marker: "frag", name: "fragment"},
	Compute:  {key: "cs", tag: "CS", extension: ".comp", marker: "comp", name: "compute"},
}

// Stages returns all stages in manifest order: vertex, pixel, compute
func Stages() []Stage {
	return []Stage{Vertex, Fragment, Compute}
}

// Valid reports whether s is a known stage
func (s Stage) Valid() bool {
	return s >= Vertex && s <= Compute
}

// Key returns the manifest key for the stage
func (s Stage) Key() string {
	if !s.Valid() {
		return ""
	}
	return stageTable[s].key
}

// Tag returns the two-letter tag used in output file names
func (s Stage) Tag() string {
	if !s.Valid() {
		return ""
	}
	return stageTable[s].tag
}

// Extension returns the source file extension for the stage
func (s Stage) Extension() string {
	if !s.Valid() {
		return ""
	}
	return stageTable[s].extension
}

// Marker returns the substring used by lenient stage inference
func (s Stage) Marker() string {
	if !s.Valid() {
		return ""
	}
	return stageTable[s].marker
}

func (s Stage) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageTable[s].name
}

// MarshalText encodes the stage by name
func (s Stage) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid stage %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a stage name
func (s *Stage) UnmarshalText(text []byte) error {
	name := strings.ToLower(string(text))
	for _, st := range Stages() {
		if stageTable[st].name == name {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", string(text))
}

// StageForKey returns the stage for a manifest key (vs, ps, cs)
func StageForKey(key string) (Stage, bool) {
	for _, st := range Stages() {
		if stageTable[st].key == key {
			return st, true
		}
	}
	return 0, false
}

// MatchMode controls how a source file name is mapped to a stage
type MatchMode string

const (
	// MatchExtension requires the stage extension to be a strict suffix
	MatchExtension MatchMode = "extension"
	// MatchSubstring accepts the stage marker anywhere in the name.
	// An ambiguous name such as "convert.frag" matches more than one stage.
	MatchSubstring MatchMode = "substring"
)

// ParseMatchMode parses a match mode, accepting an empty string as MatchExtension
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchExtension:
		return MatchExtension, nil
	case MatchSubstring:
		return MatchSubstring, nil
	default:
		return "", fmt.Errorf("unknown stage matching mode %q (use %q or %q)", s, MatchExtension, MatchSubstring)
	}
}

// InferStages returns the stages a source file name maps to under mode.
// Extension matching yields at most one stage.
func InferStages(source string, mode MatchMode) []Stage {
	var stages []Stage
	for _, st := range Stages() {
		var ok bool
		if mode == MatchSubstring {
			ok = strings.Contains(source, st.Marker())
		} else {
			ok = strings.HasSuffix(source, st.Extension())
		}
		if ok {
			stages = append(stages, st)
		}
	}
	return stages
}
