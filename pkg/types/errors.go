package types

import "fmt"

// EngineError is the common shape of every typed error the engine
// returns: an operation name, an abstract error class (one of the
// taxonomy kinds in spec §7), optional remediation text, and the
// wrapped cause. Storage errors are never re-wrapped as transaction
// errors except during commit, where the transaction manager wraps
// with the triggering operation recorded here.
type EngineError struct {
	Operation   string
	Class       string
	Remediation string
	Cause       error
}

func (e *EngineError) Error() string {
	if e.Remediation != "" {
		return fmt.Sprintf("%s: %s: %v (%s)", e.Operation, e.Class, e.Cause, e.Remediation)
	}
	return fmt.Sprintf("%s: %s: %v", e.Operation, e.Class, e.Cause)
}

func (e *EngineError) Unwrap() error { return e.Cause }

func newErr(class, op string, cause error) *EngineError {
	return &EngineError{Operation: op, Class: class, Cause: cause}
}

// Input errors.

func NewParseError(op string, cause error) *EngineError    { return newErr("parse", op, cause) }
func NewCompileError(op string, cause error) *EngineError  { return newErr("compile", op, cause) }
func NewValidationError(op string, cause error) *EngineError {
	return newErr("validation", op, cause)
}
func NewUnsupportedFormatError(op string, cause error) *EngineError {
	return newErr("unsupported_format", op, cause)
}

// Runtime errors.

func NewExecutionError(op string, cause error) *EngineError { return newErr("execution", op, cause) }
func NewQueryTimeoutError(op string) *EngineError {
	return newErr("timeout", op, fmt.Errorf("query deadline exceeded"))
}
func NewCancelledError(op string) *EngineError {
	return newErr("cancelled", op, fmt.Errorf("operation cancelled"))
}
func NewUniqueConstraintViolation(op, index string, value Value) *EngineError {
	return newErr("constraint_violation", op, fmt.Errorf("duplicate key %s in unique index %q", value, index))
}

// Storage errors.

func NewNotFoundError(op, id string) *EngineError {
	return newErr("not_found", op, fmt.Errorf("%q not found", id))
}
func NewSerializationError(op string, cause error) *EngineError {
	return newErr("serialization", op, cause)
}
func NewDeserializationError(op string, cause error) *EngineError {
	return newErr("deserialization", op, cause)
}
func NewStorageError(op string, cause error) *EngineError {
	e := newErr("storage", op, cause)
	e.Remediation = fmt.Sprintf("underlying error class: %T", cause)
	return e
}
func NewIntegrityError(op string, cause error) *EngineError {
	return newErr("integrity", op, cause)
}

// Transaction errors.

func NewConflictError(op, txID string) *EngineError {
	return newErr("conflict", op, fmt.Errorf("transaction %s conflicts with a concurrently committed transaction", txID))
}
func NewTransactionAbortedError(op, txID string, cause error) *EngineError {
	return newErr("aborted", op, fmt.Errorf("transaction %s aborted: %w", txID, cause))
}
func NewTransactionError(op string, cause error) *EngineError {
	return newErr("transaction", op, cause)
}

// Configuration errors.

func NewConfigurationError(op, remediation string, cause error) *EngineError {
	e := newErr("configuration", op, cause)
	e.Remediation = remediation
	return e
}

// ErrorClass extracts the abstract class of an error produced by this
// package, or "" if err is not an *EngineError.
func ErrorClass(err error) string {
	if ee, ok := err.(*EngineError); ok {
		return ee.Class
	}
	return ""
}
