// Package dberrors provides the error taxonomy used throughout barreldb.
//
// The sentinel Err* values are defined in sentinels.go. Failures of the
// append path (appending a record, including the appends of a batch
// commit, and the sync and file creation of a segment rollover) are built
// as one of the typed errors below (StorageError, TxnError) wrapping ErrIO,
// so errors.Is(err, ErrIO) holds for them and the typed error carries the
// structured context for logs. Other I/O failures (Open, threshold or
// SyncWrites syncs, Merge, Backup, Close) are returned with added context
// but without a sentinel, so errors.Is(err, ErrIO) does not hold for them.
// Input validation (an empty key, a closed handle) returns a bare sentinel
// directly: there's no extra context worth attaching, and callers match
// those cases with a plain equality check.
package dberrors

// baseError is a custom error type that can hold extra information.
// It follows the error wrapping pattern, chaining the original cause while
// adding structured context for logging and debugging.
type baseError struct {
	cause   error          // The original error that caused this one, if any.
	message string         // The error message that will be displayed to users.
	code    ErrorCode      // Error code for categorizing the error type programmatically.
	details map[string]any // Additional context information.
}

// NewBaseError creates a new baseError with the given underlying error and message.
func NewBaseError(err error, code ErrorCode, msg string) *baseError {
	return &baseError{cause: err, code: code, message: msg}
}

// WithMessage updates the error message.
func (be *baseError) WithMessage(msg string) *baseError {
	be.message = msg
	return be
}

// WithCode sets the error code for this error.
func (be *baseError) WithCode(code ErrorCode) *baseError {
	be.code = code
	return be
}

// WithDetail adds contextual information to help with debugging and logging.
// The details map is lazily initialized to avoid allocating when not needed.
func (be *baseError) WithDetail(key string, value any) *baseError {
	if be.details == nil {
		be.details = make(map[string]any)
	}
	be.details[key] = value
	return be
}

// Error implements the error interface.
func (be *baseError) Error() string {
	if be.message == "" && be.cause != nil {
		return be.cause.Error()
	}
	return be.message
}

// Unwrap enables errors.Is/errors.As to see through to the wrapped cause,
// which is typically one of the sentinels in sentinels.go.
func (be *baseError) Unwrap() error {
	return be.cause
}

// Code returns the error code.
func (be *baseError) Code() ErrorCode {
	return be.code
}

// Details returns the additional context stored with this error. The
// returned map is the live internal map; callers must not mutate it.
func (be *baseError) Details() map[string]any {
	return be.details
}
