package engine

import (
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/iamNilotpal/barreldb/internal/segment"
	"github.com/iamNilotpal/barreldb/pkg/filesys"
)

// backupDir copies every file under src to dst except the directory
// lock file, preserving relative paths. One goroutine per file,
// coordinated with golang.org/x/sync/errgroup: the first copy error is
// returned once every copy has finished. Copies still running when one
// fails are not cancelled, so a failed backup can leave some files in
// dst.
func backupDir(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	var g errgroup.Group
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == segment.LockFile {
			continue
		}
		name := entry.Name()
		g.Go(func() error {
			destPath := filepath.Join(dst, name)
			if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
				return err
			}
			return filesys.CopyFile(filepath.Join(src, name), destPath)
		})
	}
	return g.Wait()
}
