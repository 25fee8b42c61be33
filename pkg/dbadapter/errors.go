package dbadapter

import (
	"errors"
	"fmt"

	"github.com/litellm-tools/spanstrap/pkg/dbcapabilities"
)

// Standard adapter errors
var (
	// ErrOperationNotSupported is returned when an operation is not supported by the database
	ErrOperationNotSupported = errors.New("operation not supported by this database")

	// ErrConnectionClosed is returned when attempting to use a closed connection
	ErrConnectionClosed = errors.New("connection is closed")

	// ErrConnectionFailed is returned when a connection attempt fails
	ErrConnectionFailed = errors.New("connection failed")

	// ErrInvalidConfiguration is returned when the configuration is invalid
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInstanceNotFound is returned when the target instance does not exist
	ErrInstanceNotFound = errors.New("instance not found")

	// ErrDatabaseNotFound is returned when a database is not found
	ErrDatabaseNotFound = errors.New("database not found")

	// ErrTableNotFound is returned when a table is not found
	ErrTableNotFound = errors.New("table not found")

	// ErrAdapterNotFound is returned when an adapter is not registered
	ErrAdapterNotFound = errors.New("adapter not found")

	// ErrInvalidQuery is returned when a query is malformed
	ErrInvalidQuery = errors.New("invalid query")

	// ErrTransactionFailed is returned when a transaction fails
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrPermissionDenied is returned when a permission is denied
	ErrPermissionDenied = errors.New("permission denied")
)

// DatabaseError wraps database-specific errors with additional context.
// This provides a consistent error structure across all database types.
type DatabaseError struct {
	DatabaseType dbcapabilities.DatabaseID
	Operation    string
	Cause        error
	Context      map[string]interface{}
}

// Error implements the error interface.
func (e *DatabaseError) Error() string {
	if len(e.Context) > 0 {
		return fmt.Sprintf("[%s] %s: %v (context: %v)", e.DatabaseType, e.Operation, e.Cause, e.Context)
	}
	return fmt.Sprintf("[%s] %s: %v", e.DatabaseType, e.Operation, e.Cause)
}

// Unwrap returns the underlying error.
func (e *DatabaseError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error.
func (e *DatabaseError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// NewDatabaseError creates a new DatabaseError.
func NewDatabaseError(dbType dbcapabilities.DatabaseID, operation string, cause error) *DatabaseError {
	return &DatabaseError{
		DatabaseType: dbType,
		Operation:    operation,
		Cause:        cause,
		Context:      make(map[string]interface{}),
	}
}

// WithContext adds context to a DatabaseError.
func (e *DatabaseError) WithContext(key string, value interface{}) *DatabaseError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ConnectionError is returned when a connection error occurs.
type ConnectionError struct {
	DatabaseType dbcapabilities.DatabaseID
	Target       string
	Cause        error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s at %s: %v", e.DatabaseType, e.Target, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrConnectionFailed.
func (e *ConnectionError) Is(target error) bool {
	if errors.Is(target, ErrConnectionFailed) {
		return true
	}
	return errors.Is(e.Cause, target)
}

// NewConnectionError creates a new ConnectionError.
func NewConnectionError(dbType dbcapabilities.DatabaseID, target string, cause error) *ConnectionError {
	return &ConnectionError{
		DatabaseType: dbType,
		Target:       target,
		Cause:        cause,
	}
}

// ConfigurationError is returned when a configuration error occurs.
type ConfigurationError struct {
	DatabaseType dbcapabilities.DatabaseID
	Field        string
	Reason       string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration for %s: field '%s': %s", e.DatabaseType, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid configuration for %s: %s", e.DatabaseType, e.Reason)
}

// Is checks if the error is ErrInvalidConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return errors.Is(target, ErrInvalidConfiguration)
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(dbType dbcapabilities.DatabaseID, field string, reason string) *ConfigurationError {
	return &ConfigurationError{
		DatabaseType: dbType,
		Field:        field,
		Reason:       reason,
	}
}

// NotFoundError is returned when a resource is not found.
type NotFoundError struct {
	DatabaseType dbcapabilities.DatabaseID
	ResourceType string
	ResourceName string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found in %s: %s", e.ResourceType, e.DatabaseType, e.ResourceName)
}

// Is checks if the error is one of the not-found sentinels.
func (e *NotFoundError) Is(target error) bool {
	switch e.ResourceType {
	case "table":
		return errors.Is(target, ErrTableNotFound)
	case "database":
		return errors.Is(target, ErrDatabaseNotFound)
	case "instance":
		return errors.Is(target, ErrInstanceNotFound)
	}
	return false
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(dbType dbcapabilities.DatabaseID, resourceType string, resourceName string) *NotFoundError {
	return &NotFoundError{
		DatabaseType: dbType,
		ResourceType: resourceType,
		ResourceName: resourceName,
	}
}

// UnsupportedOperationError is returned when an operation is not supported.
type UnsupportedOperationError struct {
	DatabaseType dbcapabilities.DatabaseID
	Operation    string
	Reason       string
}

// Error implements the error interface.
func (e *UnsupportedOperationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s does not support %s: %s", e.DatabaseType, e.Operation, e.Reason)
	}
	return fmt.Sprintf("%s does not support %s", e.DatabaseType, e.Operation)
}

// Is checks if the error is ErrOperationNotSupported.
func (e *UnsupportedOperationError) Is(target error) bool {
	return errors.Is(target, ErrOperationNotSupported)
}

// NewUnsupportedOperationError creates a new UnsupportedOperationError.
func NewUnsupportedOperationError(dbType dbcapabilities.DatabaseID, operation string, reason string) *UnsupportedOperationError {
	return &UnsupportedOperationError{
		DatabaseType: dbType,
		Operation:    operation,
		Reason:       reason,
	}
}

// WrapError wraps an error with database context.
// If the error is already a DatabaseError, it returns it as-is.
func WrapError(dbType dbcapabilities.DatabaseID, operation string, err error) error {
	if err == nil {
		return nil
	}

	// Don't double-wrap
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return err
	}

	return NewDatabaseError(dbType, operation, err)
}

// IsUnsupported checks if an error indicates an unsupported operation.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrOperationNotSupported)
}

// IsConnectionError checks if an error is a connection error.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}

// IsConfigurationError checks if an error is a configuration error.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// IsNotFound checks if an error indicates a missing instance, database, or table.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrInstanceNotFound) ||
		errors.Is(err, ErrDatabaseNotFound) ||
		errors.Is(err, ErrTableNotFound)
}
