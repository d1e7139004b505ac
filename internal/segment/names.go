// Package segment implements the append-only segment file: filename
// conventions, the append/random-read/scan operations over an
// internal/ioutil.Backend, and discovery of existing segments in a
// database directory on open.
//
// Naming uses a fixed 9-digit zero-padded <id>.data convention rather
// than embedding a timestamp or prefix, so segment ids sort correctly by
// plain filename order.
package segment

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Extension is the suffix every segment data file carries.
const Extension = ".data"

// reserved names segment enumeration must skip — the sequence counter,
// the hint file, and the merge-finished marker.
const (
	SeqNoFile        = "seq-no.data"
	HintFile         = "hint-index"
	MergeFinishedFile = "merge-finished.data"
	MergeScratchFile  = "merge.data"
	LockFile          = "flock"
)

// Name formats the 9-digit zero-padded filename for segment id.
func Name(id uint32) string {
	return fmt.Sprintf("%09d%s", id, Extension)
}

// Path joins dir with the formatted filename for id.
func Path(dir string, id uint32) string {
	return filepath.Join(dir, Name(id))
}

// ParseID extracts the numeric id from a segment filename such as
// "000000003.data". Returns an error if filename isn't in that shape.
func ParseID(filename string) (uint32, error) {
	if !strings.HasSuffix(filename, Extension) {
		return 0, fmt.Errorf("segment: %q missing %s suffix", filename, Extension)
	}
	base := strings.TrimSuffix(filename, Extension)
	id, err := strconv.ParseUint(base, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("segment: %q is not a valid segment id: %w", filename, err)
	}
	return uint32(id), nil
}

// isReserved reports whether filename is one of the fixed, non-segment
// data files a database directory may contain.
func isReserved(filename string) bool {
	switch filename {
	case SeqNoFile, HintFile, MergeFinishedFile, MergeScratchFile, LockFile:
		return true
	default:
		return false
	}
}

// Discover lists the segment ids present in dir, sorted ascending,
// skipping the reserved filenames above. Any *.data file that doesn't
// parse as a 9-digit id is skipped rather than failing the scan — only
// this module's own conventions are expected there.
func Discover(dir string) ([]uint32, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var ids []uint32
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if isReserved(name) || !strings.HasSuffix(name, Extension) {
			continue
		}
		id, err := ParseID(name)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	slices.Sort(ids)
	return ids, nil
}
