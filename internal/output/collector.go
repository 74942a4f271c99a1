package output

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/quantmind-br/shaderbuild-go/internal/domain"
	"github.com/quantmind-br/shaderbuild-go/internal/utils"
)

// ReportCollector gathers build results and writes them as one JSON report
type ReportCollector struct {
	mu       sync.RWMutex
	results  []domain.BuildResult
	manifest string
	path     string
	enabled  bool
}

// CollectorOptions configures a ReportCollector
type CollectorOptions struct {
	Path     string
	Manifest string
	Enabled  bool
}

// NewReportCollector creates a collector. It is disabled without a path.
func NewReportCollector(opts CollectorOptions) *ReportCollector {
	return &ReportCollector{
		results:  make([]domain.BuildResult, 0),
		manifest: opts.Manifest,
		path:     opts.Path,
		enabled:  opts.Enabled && opts.Path != "",
	}
}

// Add records results
func (c *ReportCollector) Add(results ...domain.BuildResult) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, results...)
}

// Flush writes the report file. Nothing is written when disabled.
func (c *ReportCollector) Flush(duration time.Duration) error {
	if !c.enabled {
		return nil
	}

	c.mu.RLock()
	report := c.buildReport(duration)
	c.mu.RUnlock()

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}

	if err := utils.EnsureDir(c.path); err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0644)
}

func (c *ReportCollector) buildReport(duration time.Duration) *domain.BuildReport {
	results := make([]domain.BuildResult, len(c.results))
	copy(results, c.results)

	report := &domain.BuildReport{
		GeneratedAt: time.Now(),
		Manifest:    c.manifest,
		Total:       len(results),
		Duration:    duration,
		Results:     results,
	}
	for _, r := range results {
		switch r.Status {
		case domain.StatusCompiled:
			report.Compiled++
		case domain.StatusSkipped:
			report.Skipped++
		case domain.StatusFailed:
			report.Failed++
		case domain.StatusPlanned:
			report.Planned++
		}
	}
	return report
}

// Count returns the number of collected results
func (c *ReportCollector) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}

// GetReport returns the report as Flush would write it
func (c *ReportCollector) GetReport(duration time.Duration) *domain.BuildReport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buildReport(duration)
}

// IsEnabled reports whether Flush writes anything
func (c *ReportCollector) IsEnabled() bool {
	return c.enabled
}
