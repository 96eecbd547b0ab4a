package flow

import (
	"time"

	"github.com/kbukum/ledgerflow/logger"
)

// Status is the terminal state of a run.
type Status int

const (
	// StatusOk means the source drained.
	StatusOk Status = iota
	// StatusFailed means a processor, the source or the context failed.
	StatusFailed
)

func (s Status) String() string {
	if s == StatusOk {
		return "ok"
	}
	return "failed"
}

// Result summarizes one run.
type Result struct {
	Flow       string
	Status     Status
	Err        error
	RecordsIn  int64
	Outputs    int64
	SinkErrors int64
	Retries    int64
	Duration   time.Duration
}

// OK reports whether the run drained without failure.
func (r Result) OK() bool { return r.Status == StatusOk }

// Fields returns the counters as log fields.
func (r Result) Fields() map[string]interface{} {
	f := logger.Fields(
		logger.FieldFlow, r.Flow,
		logger.FieldStatus, r.Status.String(),
		"records_in", r.RecordsIn,
		"outputs", r.Outputs,
		"sink_errors", r.SinkErrors,
		"retries", r.Retries,
		logger.FieldDuration, r.Duration.Milliseconds(),
	)
	if r.Err != nil {
		f[logger.FieldError] = r.Err.Error()
	}
	return f
}

// Merge folds the results of parallel workers of one flow. The first
// failure wins; the duration is the longest worker's.
func Merge(results ...Result) Result {
	var out Result
	for i, r := range results {
		if i == 0 {
			out.Flow = r.Flow
		}
		out.RecordsIn += r.RecordsIn
		out.Outputs += r.Outputs
		out.SinkErrors += r.SinkErrors
		out.Retries += r.Retries
		if r.Duration > out.Duration {
			out.Duration = r.Duration
		}
		if r.Status == StatusFailed && out.Status == StatusOk {
			out.Status = StatusFailed
			out.Err = r.Err
		}
	}
	return out
}
