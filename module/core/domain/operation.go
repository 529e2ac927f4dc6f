package domain

import "time"

type OperationKind string

const (
	OperationAdd    OperationKind = "add"
	OperationRemove OperationKind = "remove"
)

type OperationStatus string

const (
	StatusInFlight  OperationStatus = "in_flight"
	StatusSucceeded OperationStatus = "succeeded"
	StatusFailed    OperationStatus = "failed"
)

// PendingOperation is one call issued to the monitoring service. Regions is
// only set for add operations.
type PendingOperation struct {
	ID        string          `json:"operation_id"`
	Kind      OperationKind   `json:"kind"`
	TargetIDs []string        `json:"region_ids"`
	Regions   []Region        `json:"-"`
	Status    OperationStatus `json:"status"`
	IssuedAt  time.Time       `json:"issued_at"`
}

// Result is the outcome of one monitoring call. A nil Err means success.
type Result struct {
	Err error
}

func Success() Result { return Result{} }

func Failure(err error) Result { return Result{Err: err} }

func (r Result) OK() bool { return r.Err == nil }

// Report describes a finished operation, or a region rejected before any
// call was made (OperationID empty, Err wraps ErrInvalidRegion).
type Report struct {
	OperationID    string
	Kind           OperationKind
	RegionIDs      []string
	Status         OperationStatus
	Err            error
	Duration       time.Duration
	Timestamp      time.Time
	DesiredCount   int
	ConfirmedCount int
}

type State struct {
	Desired   []Region           `json:"desired"`
	Confirmed []Region           `json:"confirmed"`
	InFlight  []PendingOperation `json:"in_flight"`
}

// OperationRecord is the flattened form of a Report used by the ledger and
// the event stream.
type OperationRecord struct {
	OperationID string          `json:"operation_id"`
	Kind        OperationKind   `json:"kind"`
	RegionIDs   []string        `json:"region_ids"`
	Status      OperationStatus `json:"status"`
	Code        string          `json:"code"`
	Reason      string          `json:"reason,omitempty"`
	DurationMs  int64           `json:"duration_ms"`
	CreatedAt   time.Time       `json:"created_at"`
}

func NewOperationRecord(r *Report) OperationRecord {
	rec := OperationRecord{
		OperationID: r.OperationID,
		Kind:        r.Kind,
		RegionIDs:   r.RegionIDs,
		Status:      r.Status,
		Code:        ErrorCode(r.Err),
		DurationMs:  r.Duration.Milliseconds(),
		CreatedAt:   r.Timestamp,
	}
	if r.Err != nil {
		rec.Reason = r.Err.Error()
	}
	return rec
}
