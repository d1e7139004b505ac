// Package options provides the functional-options configuration surface
// for barreldb: directory path, segment rollover size, sync policy, and
// the index/recovery knobs.
package options

import "strings"

// IndexType selects the in-memory index backend. Only IndexTypeBTree is
// implemented; the type exists so a future pluggable backend has
// somewhere to register without breaking the Options shape.
type IndexType string

const (
	// IndexTypeBTree is the ordered btree index — the only backend this
	// module builds, and the only one that supports iteration and
	// transaction ids.
	IndexTypeBTree IndexType = "btree"
)

// Options holds every tunable parameter for a Database. Construct one
// with NewDefaultOptions and layer OptionFunc values on top, or build it
// by hand for tests.
type Options struct {
	// DirPath is the directory all segment, hint, lock, and counter files
	// live under. Created on Open if missing.
	DirPath string `json:"dirPath"`

	// MaxFileSize is the rollover threshold in bytes: once an append
	// would push the active segment past this size, the segment is
	// sealed and a new one takes over.
	MaxFileSize int64 `json:"maxFileSize"`

	// SyncWrites, when true, fsyncs the active segment after every single
	// write (Put, Delete, or batch commit). Strongest durability,
	// highest write latency.
	SyncWrites bool `json:"syncWrites"`

	// BytesPerSync triggers a threshold-based fsync when SyncWrites is
	// false: once cumulative bytes written since the last sync reach this
	// value, the active segment is synced and the counter resets. Zero
	// means the threshold never triggers a sync; segments are then synced
	// only on rollover, Merge and Close.
	BytesPerSync int64 `json:"bytesPerSync"`

	// IndexType selects the in-memory index backend.
	IndexType IndexType `json:"indexType"`

	// MmapAtStartup, when true, opens segments with the memory-mapped
	// backend during recovery to accelerate the initial scan. The active
	// segment is always re-bound to the buffered backend before its
	// first write.
	MmapAtStartup bool `json:"mmapAtStartup"`
}

// OptionFunc mutates an Options value; pass any number to Open.
type OptionFunc func(*Options)

// WithDirPath sets the database directory. Empty or whitespace-only
// values are ignored, leaving the previous value (default or
// already-set) in place.
func WithDirPath(dir string) OptionFunc {
	return func(o *Options) {
		dir = strings.TrimSpace(dir)
		if dir != "" {
			o.DirPath = dir
		}
	}
}

// WithMaxFileSize sets the segment rollover threshold. Non-positive
// values are ignored; there is no other minimum — a small threshold
// (even smaller than a single record) is a valid way to force a segment
// per write.
func WithMaxFileSize(size int64) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.MaxFileSize = size
		}
	}
}

// WithSyncWrites enables or disables fsync-after-every-write.
func WithSyncWrites(sync bool) OptionFunc {
	return func(o *Options) {
		o.SyncWrites = sync
	}
}

// WithBytesPerSync sets the threshold-based fsync interval used when
// SyncWrites is false. A negative value is ignored.
func WithBytesPerSync(bytes int64) OptionFunc {
	return func(o *Options) {
		if bytes >= 0 {
			o.BytesPerSync = bytes
		}
	}
}

// WithMmapAtStartup enables the memory-mapped backend for the recovery
// scan.
func WithMmapAtStartup(enabled bool) OptionFunc {
	return func(o *Options) {
		o.MmapAtStartup = enabled
	}
}
