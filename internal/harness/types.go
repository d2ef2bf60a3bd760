package harness

import "github.com/roach88/tinyprof/prof"

// TraceEvent records one replayed profiler call and the depths it left.
type TraceEvent struct {
	Seq         int64  `json:"seq"`
	Op          string `json:"op"`
	Gap         string `json:"gap,omitempty"`
	Tick        uint64 `json:"tick"`
	GlobalDepth int32  `json:"global_depth"`
	LocalDepth  int32  `json:"local_depth"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions hold.
	Pass bool `json:"pass"`

	// Trace contains every replayed call in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Session is the id stamped on JSON reports.
	Session string `json:"session"`

	// Total is the value terminate returned.
	Total prof.Tick `json:"total"`

	// Snapshot holds the terminated statistics.
	Snapshot prof.Snapshot `json:"-"`

	// Report is the rendered text report.
	Report string `json:"-"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a trace event with the next sequence number.
func (r *Result) AddTrace(op, gap string, tick prof.Tick, globalDepth, localDepth int32) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:         int64(len(r.Trace) + 1),
		Op:          op,
		Gap:         gap,
		Tick:        uint64(tick),
		GlobalDepth: globalDepth,
		LocalDepth:  localDepth,
	})
}
