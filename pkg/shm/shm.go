// Package shm maps POSIX shared-memory segments used for the zero-copy data
// handoff with the compute engine. Segments live under /dev/shm and are
// single-use: one writer stages data, one reader copies it out, then the
// segment is unmapped and unlinked.
package shm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// Dir is the shared-memory filesystem mount point.
const Dir = "/dev/shm"

// Segment is a mapped shared-memory region.
type Segment struct {
	name string
	file *os.File
	data []byte
}

// Available reports whether the shared-memory filesystem exists on this host.
func Available() bool {
	info, err := os.Stat(Dir)
	return err == nil && info.IsDir()
}

func segmentPath(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\x00") {
		return "", fmt.Errorf("shm: invalid segment name %q", name)
	}
	return filepath.Join(Dir, name), nil
}

// Create allocates a new segment of the given size. The name must not be in
// use; a leftover segment from a crashed run surfaces as an exists error.
func Create(name string, size int) (*Segment, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: invalid segment size %d", size)
	}
	p, err := segmentPath(name)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("shm: create %s: %w", name, err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		os.Remove(p)
		return nil, fmt.Errorf("shm: size %s: %w", name, err)
	}
	data, err := syscall.Mmap(int(f.Fd()), 0, size, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		os.Remove(p)
		return nil, fmt.Errorf("shm: map %s: %w", name, err)
	}
	return &Segment{name: name, file: f, data: data}, nil
}

// Open maps an existing segment at its current size.
func Open(name string) (*Segment, error) {
	p, err := segmentPath(name)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(p, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("shm: open %s: %w", name, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: stat %s: %w", name, err)
	}
	size := int(info.Size())
	if size == 0 {
		f.Close()
		return nil, fmt.Errorf("shm: segment %s is empty", name)
	}
	data, err := syscall.Mmap(int(f.Fd()), 0, size, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: map %s: %w", name, err)
	}
	return &Segment{name: name, file: f, data: data}, nil
}

// Name returns the segment name (the file name under /dev/shm).
func (s *Segment) Name() string { return s.name }

// Size returns the mapped length in bytes.
func (s *Segment) Size() int { return len(s.data) }

// Bytes returns the mapped region. The slice is invalid after Close.
func (s *Segment) Bytes() []byte { return s.data }

// Close unmaps the region and closes the backing file. The segment itself
// stays in /dev/shm until Unlink.
func (s *Segment) Close() error {
	var first error
	if s.data != nil {
		if err := syscall.Munmap(s.data); err != nil {
			first = fmt.Errorf("shm: unmap %s: %w", s.name, err)
		}
		s.data = nil
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil && first == nil {
			first = fmt.Errorf("shm: close %s: %w", s.name, err)
		}
		s.file = nil
	}
	return first
}

// Unlink removes the segment from /dev/shm.
func (s *Segment) Unlink() error {
	p, err := segmentPath(s.name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("shm: unlink %s: %w", s.name, err)
	}
	return nil
}
