package dberrors

// IndexError provides specialized context for failures in the in-memory
// index: which key and which operation were involved.
type IndexError struct {
	*baseError
	key       string
	operation string
}

// NewIndexError creates a new index-specific error.
func NewIndexError(err error, code ErrorCode, msg string) *IndexError {
	return &IndexError{baseError: NewBaseError(err, code, msg)}
}

// WithKey records which key was being processed when the error occurred.
func (ie *IndexError) WithKey(key string) *IndexError {
	ie.key = key
	return ie
}

// WithOperation records which index operation ("Get", "Put", "Delete",
// "Seek", ...) was being performed.
func (ie *IndexError) WithOperation(op string) *IndexError {
	ie.operation = op
	return ie
}

// Key returns the key associated with this error.
func (ie *IndexError) Key() string {
	return ie.key
}

// Operation returns the index operation that failed.
func (ie *IndexError) Operation() string {
	return ie.operation
}
