// Package plan turns a shader manifest into a deduplicated set of compiler
// invocations.
package plan

import (
	"github.com/quantmind-br/shaderbuild-go/internal/shader"
)

// CompileUnit is one (source, stage, permutation) triple from a manifest entry
type CompileUnit struct {
	Entry       int
	Source      string
	Stage       shader.Stage
	Permutation shader.Permutation
}

// Command is a fully rendered compiler invocation. Line is its identity in a Plan.
type Command struct {
	Line   string       `json:"line"`
	Args   []string     `json:"args,omitempty"`
	Source string       `json:"source,omitempty"`
	Input  string       `json:"input,omitempty"`
	Output string       `json:"output,omitempty"`
	Stage  shader.Stage `json:"stage"`
	Macros []string     `json:"macros,omitempty"`
}

// Plan is an insertion-ordered set of commands keyed by their rendered line
type Plan struct {
	commands   []Command
	index      map[string]int
	duplicates int
}

// New creates an empty plan
func New() *Plan {
	return &Plan{index: make(map[string]int)}
}

// Add inserts cmd unless a command with the same line is present.
// It reports whether cmd was added.
func (p *Plan) Add(cmd Command) bool {
	if _, ok := p.index[cmd.Line]; ok {
		p.duplicates++
		return false
	}
	p.index[cmd.Line] = len(p.commands)
	p.commands = append(p.commands, cmd)
	return true
}

// Len returns the number of distinct commands
func (p *Plan) Len() int {
	return len(p.commands)
}

// Duplicates returns how many added commands collapsed into existing ones
func (p *Plan) Duplicates() int {
	return p.duplicates
}

// Commands returns the distinct commands in first-seen order
func (p *Plan) Commands() []Command {
	out := make([]Command, len(p.commands))
	copy(out, p.commands)
	return out
}

// Lines returns the rendered command lines in first-seen order
func (p *Plan) Lines() []string {
	lines := make([]string, len(p.commands))
	for i, c := range p.commands {
		lines[i] = c.Line
	}
	return lines
}

// Contains reports whether line is in the plan
func (p *Plan) Contains(line string) bool {
	_, ok := p.index[line]
	return ok
}

// Get returns the command rendered as line
func (p *Plan) Get(line string) (Command, bool) {
	i, ok := p.index[line]
	if !ok {
		return Command{}, false
	}
	return p.commands[i], true
}

// Equal reports set equality of command lines, ignoring order
func (p *Plan) Equal(other *Plan) bool {
	if p.Len() != other.Len() {
		return false
	}
	for line := range p.index {
		if !other.Contains(line) {
			return false
		}
	}
	return true
}
