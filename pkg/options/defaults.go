package options

const (
	// DefaultDirPath is the fallback data directory when the caller never
	// sets WithDirPath; real deployments should always set it explicitly.
	DefaultDirPath = "/var/lib/barreldb"

	// DefaultMaxFileSize is the rollover threshold for the active segment,
	// in bytes (256 MiB).
	DefaultMaxFileSize int64 = 256 * 1024 * 1024

	// DefaultBytesPerSync is the threshold-based fsync interval used when
	// SyncWrites is false (8 MiB). Zero disables threshold-based syncing.
	DefaultBytesPerSync int64 = 8 * 1024 * 1024

	// DefaultIndexType selects the only index backend this module builds:
	// the ordered btree.
	DefaultIndexType = IndexTypeBTree
)

// defaultOptions holds the baseline configuration applied before any
// OptionFunc overrides run.
var defaultOptions = Options{
	DirPath:       DefaultDirPath,
	MaxFileSize:   DefaultMaxFileSize,
	SyncWrites:    false,
	BytesPerSync:  DefaultBytesPerSync,
	IndexType:     DefaultIndexType,
	MmapAtStartup: false,
}

// NewDefaultOptions returns a copy of the default configuration.
func NewDefaultOptions() Options {
	return defaultOptions
}
