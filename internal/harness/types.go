package harness

import "github.com/roach88/modloader/internal/mod"

// TraceEvent records one executed flow step.
type TraceEvent struct {
	Step int    `json:"step"`
	Op   string `json:"op"`

	// Target is the archive file or "#id" the step addressed.
	Target string `json:"target,omitempty"`

	// Result is "ok", an add outcome, or the mod error code.
	Result string `json:"result"`

	// ModID is the affected record.
	ModID uint64 `json:"mod_id,omitempty"`

	// Deactivated lists the ids a deactivation sweep touched.
	Deactivated []uint64 `json:"deactivated,omitempty"`

	conflicts []mod.Conflict
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step and assertion matched.
	Pass bool `json:"pass"`

	// Trace holds one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds step and assertion mismatches.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
