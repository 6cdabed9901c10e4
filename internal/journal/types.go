package journal

import "time"

// Kind names a mutating mod operation.
type Kind string

const (
	KindAdd            Kind = "add"
	KindDelete         Kind = "delete"
	KindActivate       Kind = "activate"
	KindDeactivate     Kind = "deactivate"
	KindDeactivateAll  Kind = "deactivate_all"
	KindSetDestination Kind = "set_destination"
)

// Status is how an operation ended.
type Status string

const (
	StatusOK       Status = "ok"
	StatusFailed   Status = "failed"
	StatusDeclined Status = "declined"
)

// Operation is a journaled request. ModID is zero when the operation had
// no mod yet, e.g. an add before the id was assigned.
type Operation struct {
	ID        string    `json:"id" yaml:"id"`
	Seq       int64     `json:"seq" yaml:"seq"`
	Kind      Kind      `json:"kind" yaml:"kind"`
	ModID     uint64    `json:"mod_id,omitempty" yaml:"mod_id,omitempty"`
	Subject   string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
}

// Outcome is the result row of an operation.
type Outcome struct {
	Seq     int64          `json:"seq" yaml:"seq"`
	Status  Status         `json:"status" yaml:"status"`
	ModID   uint64         `json:"mod_id,omitempty" yaml:"mod_id,omitempty"`
	Code    string         `json:"code,omitempty" yaml:"code,omitempty"`
	Message string         `json:"message,omitempty" yaml:"message,omitempty"`
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
}

// Entry pairs an operation with its outcome. Outcome is nil while the
// operation is unfinished or if the process died before finishing it.
type Entry struct {
	Operation Operation `json:"operation" yaml:"operation"`
	Outcome   *Outcome  `json:"outcome,omitempty" yaml:"outcome,omitempty"`
}

// PendingInjection is a file an activation announced but never confirmed.
type PendingInjection struct {
	OperationID string `json:"operation_id" yaml:"operation_id"`
	ModID       uint64 `json:"mod_id" yaml:"mod_id"`
	Path        string `json:"path" yaml:"path"`
	Seq         int64  `json:"seq" yaml:"seq"`
}
