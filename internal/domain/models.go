package domain

import "time"

// ResultStatus is the outcome of one compile command
type ResultStatus string

const (
	// StatusPlanned means the command was printed but not executed
	StatusPlanned ResultStatus = "planned"
	// StatusCompiled means the compiler exited with status 0
	StatusCompiled ResultStatus = "compiled"
	// StatusSkipped means an up-to-date cached output was reused
	StatusSkipped ResultStatus = "skipped"
	// StatusFailed means the compiler failed, timed out or could not start
	StatusFailed ResultStatus = "failed"
)

// BuildResult records what happened to a single compile command
type BuildResult struct {
	Command  string        `json:"command"`
	Source   string        `json:"source,omitempty"`
	Output   string        `json:"output,omitempty"`
	Stage    string        `json:"stage,omitempty"`
	Status   ResultStatus  `json:"status"`
	ExitCode int           `json:"exit_code,omitempty"`
	Attempts int           `json:"attempts,omitempty"`
	Duration time.Duration `json:"duration_ns"`
	Message  string        `json:"message,omitempty"`
	Err      error         `json:"-"`
}

// Failed reports whether the command did not produce its output
func (r *BuildResult) Failed() bool {
	return r.Status == StatusFailed
}

// BuildReport is the JSON document written after a build. Print-only runs
// record every command as planned.
type BuildReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Manifest    string        `json:"manifest,omitempty"`
	Total       int           `json:"total"`
	Compiled    int           `json:"compiled"`
	Skipped     int           `json:"skipped"`
	Planned     int           `json:"planned,omitempty"`
	Failed      int           `json:"failed"`
	Duration    time.Duration `json:"duration_ns"`
	Results     []BuildResult `json:"results"`
}
