package dberrors

import "errors"

// Sentinel error kinds. Callers match against these with errors.Is. The
// StorageError and TxnError values the engine builds wrap ErrIO; the
// IndexError raised by hint replay wraps the position decode error.
var (
	// ErrKeyEmpty is returned by Put/Get/Delete/Batch.Put/Batch.Delete when
	// the supplied key has zero length.
	ErrKeyEmpty = errors.New("barreldb: key must not be empty")

	// ErrKeyNotFound is returned where callers ask for an existing-key
	// guarantee explicitly (Get itself returns a nil value with no error
	// for a missing key; this sentinel exists for APIs layered on top
	// that want a hard error instead).
	ErrKeyNotFound = errors.New("barreldb: key not found")

	// ErrDirectoryInUse is returned by Open when the directory lock is
	// already held by another process/instance.
	ErrDirectoryInUse = errors.New("barreldb: database directory is in use")

	// ErrSegmentNotFound names an index entry that points at a segment id
	// the Database has no record of. Get does not return it: it reports
	// such an entry as an absent key (nil, nil).
	ErrSegmentNotFound = errors.New("barreldb: segment not found")

	// ErrInvalidCRC names a record whose checksum does not match its
	// content. The record codec reports a mismatch with its own error, and
	// Get/recovery turn it into "not found" or "end of segment"; nothing in
	// this module returns this sentinel.
	ErrInvalidCRC = errors.New("barreldb: record checksum mismatch")

	// ErrDatabaseClosed is returned by any operation on a closed Database.
	ErrDatabaseClosed = errors.New("barreldb: database is closed")

	// ErrBatchClosed is returned by any operation on a committed batch.
	ErrBatchClosed = errors.New("barreldb: batch already committed")

	// ErrMergeInProgress names a Merge requested while another is running.
	// Nothing in this module returns it: a second Merge call waits for the
	// running one to finish and then merges again.
	ErrMergeInProgress = errors.New("barreldb: merge already in progress")

	// ErrUnsupportedOperation names an operation that doesn't apply to the
	// current configuration. Nothing in this module returns it; a batch
	// committed with an index type other than the btree is written without
	// transaction markers instead.
	ErrUnsupportedOperation = errors.New("barreldb: unsupported operation")

	// ErrIO is the catch-all wrapped around unexpected I/O failures at the
	// package boundary.
	ErrIO = errors.New("barreldb: i/o error")
)
