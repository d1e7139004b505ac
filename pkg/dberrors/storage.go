package dberrors

// StorageError is a specialized error for segment/backend I/O failures. It
// embeds baseError for the standard error machinery and adds fields that
// pinpoint exactly which file and offset were involved.
type StorageError struct {
	*baseError
	segmentID uint32
	offset    int64
	path      string
}

// NewStorageError creates a new storage-specific error.
func NewStorageError(err error, code ErrorCode, msg string) *StorageError {
	return &StorageError{baseError: NewBaseError(err, code, msg)}
}

// WithSegmentID records which segment was involved in the error.
func (se *StorageError) WithSegmentID(id uint32) *StorageError {
	se.segmentID = id
	return se
}

// WithOffset records the byte position within the segment where the
// problem happened.
func (se *StorageError) WithOffset(offset int64) *StorageError {
	se.offset = offset
	return se
}

// WithPath records the file path that was being processed.
func (se *StorageError) WithPath(path string) *StorageError {
	se.path = path
	return se
}

// SegmentID returns the segment identifier where the error occurred.
func (se *StorageError) SegmentID() uint32 {
	return se.segmentID
}

// Offset returns the byte offset within the segment where the error
// happened.
func (se *StorageError) Offset() int64 {
	return se.offset
}

// Path returns the file path that was being processed.
func (se *StorageError) Path() string {
	return se.path
}
