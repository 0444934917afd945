package models

import "fmt"

// ExtractionServiceError wraps a failed or malformed response from the
// structured-field extraction service. The completeness validator absorbs
// it into a fail-closed result; it never reaches the accuracy router.
type ExtractionServiceError struct {
	Cause error
}

func (e *ExtractionServiceError) Error() string {
	return fmt.Sprintf("extraction service: %v", e.Cause)
}

func (e *ExtractionServiceError) Unwrap() error { return e.Cause }

// InvalidTemplateError marks a template whose required-field list references
// a key with no usable descriptor. Rejected at template creation, not at
// validation time.
type InvalidTemplateError struct {
	Key    string
	Reason string
}

func (e *InvalidTemplateError) Error() string {
	return fmt.Sprintf("invalid template: field %q: %s", e.Key, e.Reason)
}

// NotFoundError marks a lookup for a record that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InvalidStateError marks an illegal queue or report transition.
type InvalidStateError struct {
	Op      string
	Current string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s in state %q", e.Op, e.Current)
}

// ConcurrentModificationError marks a lost optimistic-lock race: the record
// changed between read and conditional write. Callers retry by re-reading
// current state, never by replaying the same expected-state write.
type ConcurrentModificationError struct {
	Entity string
	ID     string
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("concurrent modification of %s %s", e.Entity, e.ID)
}

// ThresholdConfigurationError marks an unusable accuracy threshold. The
// threshold is sourced from a single config value by construction, so this
// only fires on an out-of-range setting, not on drift between components.
type ThresholdConfigurationError struct {
	Value float64
}

func (e *ThresholdConfigurationError) Error() string {
	return fmt.Sprintf("accuracy threshold %v out of range (0, 100]", e.Value)
}
