package executor

import (
	"fmt"
	"time"

	"github.com/quantmind-br/shaderbuild-go/internal/domain"
	"github.com/quantmind-br/shaderbuild-go/internal/plan"
	"github.com/quantmind-br/shaderbuild-go/internal/utils"
)

// Report is the outcome of one Execute call
type Report struct {
	Results  []domain.BuildResult
	Duration time.Duration
}

// Planned returns a report recording commands as printed but not executed
func Planned(commands []plan.Command) *Report {
	results := make([]domain.BuildResult, len(commands))
	for i, cmd := range commands {
		results[i] = newResult(cmd)
		results[i].Status = domain.StatusPlanned
	}
	return &Report{Results: results}
}

// Total returns the number of commands
func (r *Report) Total() int {
	return len(r.Results)
}

// Compiled returns how many commands succeeded
func (r *Report) Compiled() int {
	return r.count(domain.StatusCompiled)
}

// Skipped returns how many commands were up to date
func (r *Report) Skipped() int {
	return r.count(domain.StatusSkipped)
}

// Pending returns how many commands were only planned
func (r *Report) Pending() int {
	return r.count(domain.StatusPlanned)
}

// Failed returns how many commands failed
func (r *Report) Failed() int {
	return r.count(domain.StatusFailed)
}

func (r *Report) count(status domain.ResultStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Failures returns the errors of failed commands in plan order
func (r *Report) Failures() []error {
	errs := make([]error, len(r.Results))
	for i, res := range r.Results {
		if res.Failed() {
			errs[i] = res.Err
		}
	}
	return utils.CollectErrors(errs)
}

// Err returns nil when nothing failed, otherwise an error matching
// domain.ErrCompilationFailed that wraps the first failure
func (r *Report) Err() error {
	failures := r.Failures()
	first := utils.FirstError(failures)
	if first == nil {
		return nil
	}
	return fmt.Errorf("%w: %d of %d commands failed: %w",
		domain.ErrCompilationFailed, len(failures), r.Total(), first)
}
