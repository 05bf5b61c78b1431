// Package shm provides memory segments and locks shared between processes on one host.
package shm

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Segment is a file-backed memory mapping visible to every process that maps the same file.
type Segment struct {
	path string
	file *os.File
	data []byte
}

// Create creates (or truncates) the backing file at path, sizes it and maps it read-write.
func Create(path string, size int) (*Segment, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid segment size %d", size)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, err
	}
	if err := file.Truncate(int64(size)); err != nil {
		file.Close()
		return nil, err
	}

	return mapFile(path, file, size)
}

// Open maps an existing segment created by Create.
func Open(path string) (*Segment, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.Size() == 0 {
		file.Close()
		return nil, fmt.Errorf("segment %s is empty", path)
	}

	return mapFile(path, file, int(info.Size()))
}

func mapFile(path string, file *os.File, size int) (*Segment, error) {
	data, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &Segment{path: path, file: file, data: data}, nil
}

// Path returns the backing file path.
func (s *Segment) Path() string {
	return s.path
}

// Size returns the mapped length in bytes.
func (s *Segment) Size() int {
	return len(s.data)
}

// Word returns a pointer to the 32-bit word at byte offset off. Offsets must be 4-byte aligned.
func (s *Segment) Word(off int) *uint32 {
	if off < 0 || off%4 != 0 || off+4 > len(s.data) {
		panic(fmt.Sprintf("shm: word offset %d out of range", off))
	}
	return (*uint32)(unsafe.Pointer(&s.data[off]))
}

// Load atomically reads the word at off.
func (s *Segment) Load(off int) uint32 {
	return atomic.LoadUint32(s.Word(off))
}

// Store atomically writes the word at off.
func (s *Segment) Store(off int, v uint32) {
	atomic.StoreUint32(s.Word(off), v)
}

// Zero clears n bytes starting at off.
func (s *Segment) Zero(off, n int) {
	clear(s.data[off : off+n])
}

// Close unmaps the segment and closes the backing file. The file itself is left in place.
func (s *Segment) Close() error {
	err := unix.Munmap(s.data)
	s.data = nil
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}
