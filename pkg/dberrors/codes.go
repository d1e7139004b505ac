package dberrors

// ErrorCode categorizes a failure into a broad family, independent of the
// specific sentinel that callers match against with errors.Is.
type ErrorCode string

const (
	// ErrorCodeIO represents failures in input/output operations: segment
	// reads/writes, fsync, directory enumeration, and the like.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents caller errors — an empty key, a
	// closed handle, a reused batch — where the request itself is invalid.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected failures that don't fit into
	// other categories: corruption detected where the index believed data
	// was live, or an assertion about on-disk layout that didn't hold.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

const (
	// ErrorCodeSegmentCorrupted indicates a segment file's data is damaged
	// or inconsistent with what the index expected to find there.
	ErrorCodeSegmentCorrupted ErrorCode = "SEGMENT_CORRUPTED"

	// ErrorCodeCRCMismatch indicates a decoded record's checksum didn't
	// match its content bytes.
	ErrorCodeCRCMismatch ErrorCode = "CRC_MISMATCH"

	// ErrorCodeRecoveryFailed indicates the recovery scan itself failed in
	// a way recovery's own truncated-tail tolerance doesn't absorb.
	ErrorCodeRecoveryFailed ErrorCode = "RECOVERY_FAILED"

	// ErrorCodeLockHeld indicates the directory lock is already held by
	// another process.
	ErrorCodeLockHeld ErrorCode = "LOCK_HELD"

	// ErrorCodeMergeInProgress indicates a merge was requested while one
	// was already running.
	ErrorCodeMergeInProgress ErrorCode = "MERGE_IN_PROGRESS"
)
