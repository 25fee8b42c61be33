package workflow

import "fmt"

// CreateError is returned when the create-database administrative operation
// fails or times out.
type CreateError struct {
	Database string
	Err      error
}

// Error implements the error interface.
func (e *CreateError) Error() string {
	return fmt.Sprintf("create database %s: %v", e.Database, e.Err)
}

// Unwrap returns the underlying error.
func (e *CreateError) Unwrap() error {
	return e.Err
}

// DDLBatchError is returned when a DDL batch fails. Batches before Batch were
// applied and stay applied: partial application is a reported terminal state,
// never silently retried.
type DDLBatchError struct {
	// Batch is the zero-based index of the failed batch.
	Batch int
	// Applied is the number of statements applied by earlier batches.
	Applied int
	Err     error
}

// Error implements the error interface.
func (e *DDLBatchError) Error() string {
	return fmt.Sprintf("ddl batch %d failed after %d applied statements: %v", e.Batch, e.Applied, e.Err)
}

// Unwrap returns the underlying error.
func (e *DDLBatchError) Unwrap() error {
	return e.Err
}

// SampleError is returned when a step of the sample write/read/delete cycle
// fails. Steps after the failed one are not attempted and no cleanup runs.
type SampleError struct {
	Step string
	Err  error
}

// Error implements the error interface.
func (e *SampleError) Error() string {
	return fmt.Sprintf("sample operation %q failed: %v", e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *SampleError) Unwrap() error {
	return e.Err
}
