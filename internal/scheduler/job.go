package scheduler

import (
	"context"
	"time"
)

// Job is a unit of scheduled work
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron expression, e.g. "0 6 * * *" or "@daily"
	Schedule() string
}

// JobResult records one execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// maxHistoryResults bounds per-job history retention
const maxHistoryResults = 100

// JobHistory keeps the recent execution results for one job
type JobHistory struct {
	Results []JobResult
}

// AddResult appends a result, dropping the oldest beyond the retention cap
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > maxHistoryResults {
		h.Results = h.Results[len(h.Results)-maxHistoryResults:]
	}
}

// SuccessRate returns the fraction of successful runs (0.0 - 1.0)
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}
	success := 0
	for _, result := range h.Results {
		if result.Success {
			success++
		}
	}
	return float64(success) / float64(len(h.Results))
}

// Latest returns the most recent result, or nil when the job never ran
func (h *JobHistory) Latest() *JobResult {
	if len(h.Results) == 0 {
		return nil
	}
	return &h.Results[len(h.Results)-1]
}
