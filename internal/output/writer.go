// Package output renders build plans and build reports.
package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/quantmind-br/shaderbuild-go/internal/plan"
	"github.com/quantmind-br/shaderbuild-go/internal/shader"
	"github.com/quantmind-br/shaderbuild-go/internal/utils"
)

// Plan formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// PlanDocument is the JSON form of a plan
type PlanDocument struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Manifest    string        `json:"manifest,omitempty"`
	Total       int           `json:"total"`
	Duplicates  int           `json:"duplicates,omitempty"`
	Commands    []PlanCommand `json:"commands"`
}

// PlanCommand is one command in a PlanDocument
type PlanCommand struct {
	Line   string   `json:"line"`
	Args   []string `json:"args,omitempty"`
	Source string   `json:"source,omitempty"`
	Input  string   `json:"input,omitempty"`
	Output string   `json:"output,omitempty"`
	Stage  string   `json:"stage,omitempty"`
	Macros []string `json:"macros,omitempty"`
}

// Writer prints plans to a stream and optionally mirrors them to a file
type Writer struct {
	out      io.Writer
	format   string
	planFile string
	manifest string
}

// WriterOptions contains options for the writer
type WriterOptions struct {
	Out      io.Writer
	Format   string
	PlanFile string
	Manifest string
}

// NewWriter creates a new plan writer
func NewWriter(opts WriterOptions) *Writer {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Format == "" {
		opts.Format = FormatText
	}

	return &Writer{
		out:      opts.Out,
		format:   opts.Format,
		planFile: opts.PlanFile,
		manifest: opts.Manifest,
	}
}

// Write prints p and, when configured, saves it to the plan file
func (w *Writer) Write(p *plan.Plan) error {
	if err := writePlan(w.out, p, w.format, w.manifest); err != nil {
		return err
	}
	if w.planFile == "" {
		return nil
	}
	return WritePlanFile(w.planFile, p, w.format, w.manifest)
}

// WritePlan renders p to w in the given format: one command per line for
// text, a PlanDocument for json
func WritePlan(w io.Writer, p *plan.Plan, format string) error {
	return writePlan(w, p, format, "")
}

func writePlan(w io.Writer, p *plan.Plan, format, manifest string) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		bw := bufio.NewWriter(w)
		for _, line := range p.Lines() {
			if _, err := bw.WriteString(line + "\n"); err != nil {
				return err
			}
		}
		return bw.Flush()
	case FormatJSON:
		data, err := json.MarshalIndent(newPlanDocument(p, manifest), "", "  ")
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	default:
		return fmt.Errorf("unknown plan format %q", format)
	}
}

// WritePlanFile writes p to path, creating parent directories
func WritePlanFile(path string, p *plan.Plan, format, manifest string) error {
	if err := utils.EnsureDir(path); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := writePlan(&buf, p, format, manifest); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func newPlanDocument(p *plan.Plan, manifest string) *PlanDocument {
	cmds := p.Commands()
	doc := &PlanDocument{
		GeneratedAt: time.Now(),
		Manifest:    manifest,
		Total:       len(cmds),
		Duplicates:  p.Duplicates(),
		Commands:    make([]PlanCommand, len(cmds)),
	}
	for i, c := range cmds {
		doc.Commands[i] = PlanCommand{
			Line:   c.Line,
			Args:   c.Args,
			Source: c.Source,
			Input:  c.Input,
			Output: c.Output,
			Stage:  c.Stage.String(),
			Macros: c.Macros,
		}
	}
	return doc
}

// ReadPlan parses a plan written by WritePlan. JSON documents keep their
// metadata and argv; text plans yield line-only commands, skipping blank
// lines and lines starting with '#'. Text lines are later split with POSIX
// shell rules, so backslashes and spaces in paths must be quoted there.
func ReadPlan(r io.Reader) (*plan.Plan, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return readJSONPlan(trimmed)
	}

	p := plan.New()
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p.Add(plan.Command{Line: line})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

func readJSONPlan(data []byte) (*plan.Plan, error) {
	var doc PlanDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}

	p := plan.New()
	for i, c := range doc.Commands {
		if strings.TrimSpace(c.Line) == "" {
			return nil, fmt.Errorf("decode plan: command %d has no line", i)
		}
		cmd := plan.Command{
			Line:   c.Line,
			Args:   c.Args,
			Source: c.Source,
			Input:  c.Input,
			Output: c.Output,
			Macros: c.Macros,
		}
		if c.Stage != "" {
			var st shader.Stage
			if err := st.UnmarshalText([]byte(c.Stage)); err != nil {
				return nil, fmt.Errorf("decode plan: command %d: %w", i, err)
			}
			cmd.Stage = st
		}
		p.Add(cmd)
	}
	return p, nil
}

// ReadPlanFile reads a plan from path
func ReadPlanFile(path string) (*plan.Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadPlan(f)
}
