// Package manifest loads shader build manifests. A manifest lists shader
// programs, each made of up to three stage sources plus optional permutation
// tags that select feature macros.
//
// # Manifest Format
//
// Manifests can be written in JSON, YAML, TOML or HCL, chosen by file
// extension. Files with any other extension are read as JSON. JSON:
//
//	{
//	  "shaders": [
//	    {"vs": "simple.vert", "ps": "simple.frag"},
//	    {"vs": "simple.vert", "ps": "lit.frag", "perm": ["msaa"]},
//	    {"cs": "cull.comp"}
//	  ]
//	}
//
// HCL uses one block per program:
//
//	shader {
//	  vs   = "skybox.vert"
//	  ps   = "skybox.frag"
//	  perm = ["skycube"]
//	}
//
// # Usage
//
//	loader := manifest.NewLoader()
//	m, err := loader.Load("shaders.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, w := range m.Warnings() {
//	    log.Println(w)
//	}
//
// # Error Handling
//
// Load returns one of three error types:
//   - ReadError: the file is missing (also ErrFileNotFound) or unreadable
//   - ParseError: the content is not valid structured data (also ErrInvalidFormat)
//   - SchemaError: an entry has a malformed field; Index names the entry,
//     or is -1 for document-level problems such as a missing "shaders" list
//
// Unknown permutation tags, unknown keys and entries without any stage are
// reported through Manifest.Warnings and never fail a load.
package manifest
