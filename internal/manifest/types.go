package manifest

import (
	"fmt"
	"strings"

	"github.com/quantmind-br/shaderbuild-go/internal/shader"
)

// Manifest is the parsed list of shader programs
type Manifest struct {
	Shaders []ShaderEntry `json:"shaders" yaml:"shaders" toml:"shaders"`
}

// ShaderEntry is one shader program. Empty stage fields are absent.
type ShaderEntry struct {
	VS   string   `json:"vs,omitempty" yaml:"vs,omitempty" toml:"vs,omitempty"`
	PS   string   `json:"ps,omitempty" yaml:"ps,omitempty" toml:"ps,omitempty"`
	CS   string   `json:"cs,omitempty" yaml:"cs,omitempty" toml:"cs,omitempty"`
	Perm []string `json:"perm,omitempty" yaml:"perm,omitempty" toml:"perm,omitempty"`

	// Extra holds unrecognized keys, sorted
	Extra []string `json:"-" yaml:"-" toml:"-"`
}

// StageSource pairs a stage key with the source file it names
type StageSource struct {
	Stage  shader.Stage
	Source string
}

// StageSources returns the present stage sources in vs, ps, cs order
func (e ShaderEntry) StageSources() []StageSource {
	var out []StageSource
	for _, st := range shader.Stages() {
		if src := e.Source(st); src != "" {
			out = append(out, StageSource{Stage: st, Source: src})
		}
	}
	return out
}

// Source returns the source named for stage, or ""
func (e ShaderEntry) Source(stage shader.Stage) string {
	switch stage {
	case shader.Vertex:
		return e.VS
	case shader.Fragment:
		return e.PS
	case shader.Compute:
		return e.CS
	}
	return ""
}

// HasStage reports whether at least one stage source is set
func (e ShaderEntry) HasStage() bool {
	return e.VS != "" || e.PS != "" || e.CS != ""
}

// Warning is a non-fatal manifest problem
type Warning struct {
	Index   int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("entry %d: %s", w.Index, w.Message)
}

// Warnings lists entries without stages, unknown permutation tags and unknown keys
func (m *Manifest) Warnings() []Warning {
	var warnings []Warning
	for i, e := range m.Shaders {
		if !e.HasStage() {
			warnings = append(warnings, Warning{Index: i, Message: "entry has no vs, ps or cs source"})
		}
		for _, tag := range shader.UnknownTags(e.Perm) {
			warnings = append(warnings, Warning{
				Index:   i,
				Message: fmt.Sprintf("unknown permutation tag %q ignored (known: %s)", tag, strings.Join(shader.KnownTags(), ", ")),
			})
		}
		for _, key := range e.Extra {
			warnings = append(warnings, Warning{Index: i, Message: fmt.Sprintf("unknown key %q ignored", key)})
		}
	}
	return warnings
}

// UnitCount returns the number of stage sources across all entries
func (m *Manifest) UnitCount() int {
	n := 0
	for _, e := range m.Shaders {
		n += len(e.StageSources())
	}
	return n
}
