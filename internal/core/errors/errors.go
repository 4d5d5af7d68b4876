package errors

import (
	"errors"
	"fmt"
)

const (
	HttpInternalError       = "internal_error"
	HttpInvalidJsonError    = "invalid_json"
	HttpInvalidEventError   = "invalid_event"
	HttpDuplicateEventError = "duplicate_event"
	HttpBackpressureError   = "backpressure"
	HttpRateLimitedError    = "rate_limited"
	HttpNotFoundError       = "not_found"
	HttpInvalidQueryError   = "invalid_query"
)

// ErrorResponse is the error response body for every HTTP error.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// ErrBackpressure is returned by ingestion when the pending queue is at its
// high-water mark. Callers should retry later.
var ErrBackpressure = errors.New("pending update queue is full")

// IngestError marks a malformed event rejected before it reaches the queue.
type IngestError struct {
	Field  string
	Reason string
}

func NewIngestError(field, reason string) *IngestError {
	return &IngestError{Field: field, Reason: reason}
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("invalid sales event: %s %s", e.Field, e.Reason)
}

// TransientStoreError wraps an I/O failure while reading history or writing
// an aggregate. The bucket stays queued and is retried on the next tick.
type TransientStoreError struct {
	Op     string
	Bucket string
	Err    error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Bucket, e.Err)
}

func (e *TransientStoreError) Unwrap() error { return e.Err }

// PermanentComputationError wraps an unexpected failure while computing
// metrics for a bucket. Repeated failures move the bucket to the dead-letter list.
type PermanentComputationError struct {
	Bucket     string
	EventCount int
	Err        error
}

func (e *PermanentComputationError) Error() string {
	return fmt.Sprintf("compute %s (%d events): %v", e.Bucket, e.EventCount, e.Err)
}

func (e *PermanentComputationError) Unwrap() error { return e.Err }

// IsIngestError reports whether err carries an *IngestError.
func IsIngestError(err error) bool {
	var ie *IngestError
	return errors.As(err, &ie)
}

// IsPermanent reports whether err carries a *PermanentComputationError.
func IsPermanent(err error) bool {
	var pe *PermanentComputationError
	return errors.As(err, &pe)
}
