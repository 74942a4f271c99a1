package shader

import (
	"path/filepath"
	"strings"
)

// OutputExtension is appended to every compiled output name
const OutputExtension = ".spv"

// DeriveOutputName builds the output path for a source compiled as stage:
// outDir + source without the stage extension + stage tag + permSuffix + ".spv".
// outDir is a plain prefix and is expected to carry its own trailing separator.
func DeriveOutputName(source string, stage Stage, permSuffix, outDir string) string {
	return outDir + strings.TrimSuffix(source, stage.Extension()) + stage.Tag() + permSuffix + OutputExtension
}

// DeriveOutputNameForMode resolves the stage of source under mode and derives
// its output path. fallback is the stage implied by the manifest key and is
// used when extension matching finds no stage.
//
// In substring mode every matching stage contributes a name segment, so an
// ambiguous source such as "convert.frag" yields "convert.fragVSconvertPS.spv".
// A source that matches no marker yields outDir + permSuffix + ".spv".
func DeriveOutputNameForMode(source string, fallback Stage, permSuffix, outDir string, mode MatchMode) string {
	if mode == MatchSubstring {
		var b strings.Builder
		b.WriteString(outDir)
		for _, st := range InferStages(source, MatchSubstring) {
			b.WriteString(strings.TrimSuffix(source, st.Extension()))
			b.WriteString(st.Tag())
		}
		b.WriteString(permSuffix)
		b.WriteString(OutputExtension)
		return b.String()
	}

	if stages := InferStages(source, MatchExtension); len(stages) > 0 {
		return DeriveOutputName(source, stages[0], permSuffix, outDir)
	}
	base := strings.TrimSuffix(source, filepath.Ext(source))
	return outDir + base + fallback.Tag() + permSuffix + OutputExtension
}

// ResolveStage returns the stage a source compiles as: the first inferred
// stage under mode, or fallback when nothing matches.
func ResolveStage(source string, fallback Stage, mode MatchMode) Stage {
	if stages := InferStages(source, mode); len(stages) > 0 {
		return stages[0]
	}
	return fallback
}
