package ioutil

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MmapBackend memory-maps the whole file and grows the mapping by
// truncating the underlying file then remapping. It exists to accelerate
// the sequential recovery scan; the active segment is always re-bound to
// BufferedBackend before accepting its first write.
type MmapBackend struct {
	f    *os.File
	data []byte // the current mapping; len(data) == the mapped region, not necessarily the logical size
	size int64  // logical length: the high-water mark of bytes actually written/read
}

// OpenMmap opens (creating if necessary) path and maps its current
// contents. A zero-length file maps to an empty (possibly nil) region,
// which ReadAt and Write both tolerate.
func OpenMmap(path string) (*MmapBackend, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	m := &MmapBackend{f: f, size: info.Size()}
	if info.Size() > 0 {
		m.data, err = unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("ioutil: mmap %s: %w", path, err)
		}
	}
	return m, nil
}

// grow extends the mapping so it covers at least n bytes, truncating the
// file first since a mapping can't be resized in place.
func (m *MmapBackend) grow(n int64) error {
	if int64(len(m.data)) >= n {
		return nil
	}
	if err := m.f.Truncate(n); err != nil {
		return err
	}
	if m.data != nil {
		if err := unix.Munmap(m.data); err != nil {
			return err
		}
	}
	data, err := unix.Mmap(int(m.f.Fd()), 0, int(n), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return err
	}
	m.data = data
	return nil
}

// ReadAt implements Backend by copying out of the mapping.
func (m *MmapBackend) ReadAt(buf []byte, offset int64) (int, error) {
	if offset < 0 || offset > m.size {
		return 0, fmt.Errorf("ioutil: read offset %d out of range (size %d)", offset, m.size)
	}
	n := copy(buf, m.data[offset:m.size])
	if n < len(buf) {
		return n, fmt.Errorf("ioutil: short read: got %d want %d", n, len(buf))
	}
	return n, nil
}

// Write implements Backend by appending at the current logical size,
// growing the mapping first if needed.
func (m *MmapBackend) Write(buf []byte) (int, error) {
	end := m.size + int64(len(buf))
	if err := m.grow(end); err != nil {
		return 0, err
	}
	n := copy(m.data[m.size:end], buf)
	m.size = end
	return n, nil
}

// Sync implements Backend: flush the mapping then force the descriptor.
func (m *MmapBackend) Sync() error {
	if len(m.data) > 0 {
		if err := unix.Msync(m.data, unix.MS_SYNC); err != nil {
			return err
		}
	}
	return m.f.Sync()
}

// Size implements Backend, returning the logical (written) length, not
// the padded mapping length.
func (m *MmapBackend) Size() (int64, error) {
	return m.size, nil
}

// Close unmaps and closes the underlying file. Also truncates the file
// back down to the logical size, undoing any over-allocation grow left
// in place from mapping growth.
func (m *MmapBackend) Close() error {
	if m.data != nil {
		if err := unix.Munmap(m.data); err != nil {
			return err
		}
		m.data = nil
	}
	if err := m.f.Truncate(m.size); err != nil {
		return err
	}
	return m.f.Close()
}
