package shm

import (
	"fmt"
	"sync"

	"github.com/gofrs/flock"
)

// RWLock is a reader/writer lock shared by every process opening the same lock file.
//
// flock(2) serializes processes but not goroutines of one process, so an in-process RWMutex is
// taken first. Readers of one process share a single shared flock held from the first RLock to
// the last RUnlock. The kernel drops the flock if the process dies.
type RWLock struct {
	mu sync.RWMutex

	readersMu sync.Mutex
	readers   int

	file *flock.Flock
}

// NewRWLock returns a lock backed by the file at path. The file is created on first use.
func NewRWLock(path string) *RWLock {
	return &RWLock{file: flock.New(path)}
}

// RLock acquires the lock in shared mode.
func (l *RWLock) RLock() {
	l.mu.RLock()

	l.readersMu.Lock()
	defer l.readersMu.Unlock()
	if l.readers == 0 {
		must(l.file.RLock())
	}
	l.readers++
}

// RUnlock releases a shared hold.
func (l *RWLock) RUnlock() {
	l.readersMu.Lock()
	l.readers--
	if l.readers < 0 {
		l.readersMu.Unlock()
		panic("shm: RUnlock of unlocked RWLock")
	}
	if l.readers == 0 {
		must(l.file.Unlock())
	}
	l.readersMu.Unlock()

	l.mu.RUnlock()
}

// Lock acquires the lock in exclusive mode.
func (l *RWLock) Lock() {
	l.mu.Lock()
	must(l.file.Lock())
}

// Unlock releases an exclusive hold.
func (l *RWLock) Unlock() {
	must(l.file.Unlock())
	l.mu.Unlock()
}

// Close releases the lock file descriptor.
func (l *RWLock) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("shm: lock file: %v", err))
	}
}
