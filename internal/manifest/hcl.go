package manifest

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// hclShader is the body of a `shader { ... }` block
type hclShader struct {
	VS     string   `hcl:"vs,optional"`
	PS     string   `hcl:"ps,optional"`
	CS     string   `hcl:"cs,optional"`
	Perm   []string `hcl:"perm,optional"`
	Remain hcl.Body `hcl:",remain"`
}

var hclFileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{{Type: "shader"}},
}

// decodeHCL decodes each shader block on its own so that decode
// diagnostics can be attributed to a block index.
func decodeHCL(data []byte, path string) (*Manifest, error) {
	filename := path
	if filename == "" {
		filename = "manifest.hcl"
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, &ParseError{Path: path, Format: "HCL", Err: diags}
	}

	content, diags := file.Body.Content(hclFileSchema)
	if diags.HasErrors() {
		return nil, newSchemaError(-1, "", diags)
	}

	m := &Manifest{Shaders: make([]ShaderEntry, 0, len(content.Blocks))}
	for i, block := range content.Blocks {
		var s hclShader
		if diags := gohcl.DecodeBody(block.Body, nil, &s); diags.HasErrors() {
			return nil, newSchemaError(i, "", diags)
		}

		entry := ShaderEntry{VS: s.VS, PS: s.PS, CS: s.CS, Perm: s.Perm}
		if s.Remain != nil {
			// Diagnostics here only concern nested blocks, which are ignored.
			attrs, _ := s.Remain.JustAttributes()
			for name := range attrs {
				entry.Extra = append(entry.Extra, name)
			}
			sort.Strings(entry.Extra)
		}
		m.Shaders = append(m.Shaders, entry)
	}
	return m, nil
}
