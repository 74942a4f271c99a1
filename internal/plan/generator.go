package plan

import (
	"strings"

	"github.com/quantmind-br/shaderbuild-go/internal/manifest"
	"github.com/quantmind-br/shaderbuild-go/internal/shader"
	"github.com/quantmind-br/shaderbuild-go/internal/utils"
)

// Fixed compiler flags
const (
	FlagLink        = "-l"
	FlagVulkan      = "-V"
	FlagOutput      = "-o"
	FlagDebug       = "-g"
	FlagDefineMacro = "--define-macro"
)

// Options configures command rendering
type Options struct {
	CompilerPath string
	ShaderDir    string
	OutputDir    string
	Matching     shader.MatchMode
	Logger       *utils.Logger
}

// Generator expands manifests into compile commands
type Generator struct {
	opts   Options
	logger *utils.Logger
}

// NewGenerator creates a generator. An empty Matching means extension matching.
func NewGenerator(opts Options) *Generator {
	if opts.Matching == "" {
		opts.Matching = shader.MatchExtension
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Generator{opts: opts, logger: logger.WithComponent("generator")}
}

// ExpandEntry creates one compile unit per present stage key, in vs, ps, cs order
func (g *Generator) ExpandEntry(index int, entry manifest.ShaderEntry) []CompileUnit {
	perm := shader.DerivePermutation(entry.Perm)

	sources := entry.StageSources()
	units := make([]CompileUnit, 0, len(sources))
	for _, ss := range sources {
		units = append(units, CompileUnit{
			Entry:       index,
			Source:      ss.Source,
			Stage:       shader.ResolveStage(ss.Source, ss.Stage, g.opts.Matching),
			Permutation: perm,
		})
	}
	return units
}

// OutputName returns the output path for unit
func (g *Generator) OutputName(unit CompileUnit) string {
	return shader.DeriveOutputNameForMode(unit.Source, unit.Stage, unit.Permutation.Suffix, g.opts.OutputDir, g.opts.Matching)
}

// BuildCommand renders the compiler invocation for unit:
//
//	<compiler> -l -V <shaderDir><source> -o <output> -g [--define-macro TOKEN...]
func (g *Generator) BuildCommand(unit CompileUnit) Command {
	input := g.opts.ShaderDir + unit.Source
	output := g.OutputName(unit)

	args := []string{FlagLink, FlagVulkan, input, FlagOutput, output, FlagDebug}

	var line strings.Builder
	line.WriteString(g.opts.CompilerPath)
	line.WriteString(" " + FlagLink + " " + FlagVulkan + " ")
	line.WriteString(input)
	line.WriteString(" " + FlagOutput + " ")
	line.WriteString(output)
	line.WriteString(" " + FlagDebug)

	var macros []string
	if len(unit.Permutation.Macros) > 0 {
		macros = append(macros, unit.Permutation.Macros...)
		args = append(args, FlagDefineMacro)
		args = append(args, macros...)
		line.WriteString(" " + FlagDefineMacro)
		line.WriteString(unit.Permutation.MacroArgs())
	}

	return Command{
		Line:   line.String(),
		Args:   append([]string{g.opts.CompilerPath}, args...),
		Source: unit.Source,
		Input:  input,
		Output: output,
		Stage:  unit.Stage,
		Macros: macros,
	}
}

// Generate builds the deduplicated plan for every entry of m
func (g *Generator) Generate(m *manifest.Manifest) *Plan {
	p := New()
	for i, entry := range m.Shaders {
		units := g.ExpandEntry(i, entry)
		g.logger.Debug().
			Int("entry", i).
			Int("units", len(units)).
			Strs("perm", entry.Perm).
			Msg("Expanded manifest entry")

		for _, unit := range units {
			cmd := g.BuildCommand(unit)
			if !p.Add(cmd) {
				g.logger.Debug().
					Int("entry", i).
					Str("output", cmd.Output).
					Msg("Duplicate command collapsed")
			}
		}
	}
	return p
}
