package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/serverless/shutdownd/registry"
)

// Spawner starts and stops watchers.
type Spawner interface {
	// Spawn starts a watcher for the database and returns once the watcher has registered
	// itself. Failures are reported as *ErrSpawnFailed.
	Spawn(ctx context.Context, id registry.DatabaseID) (registry.PID, error)
	// Stop asks the watcher to exit. Watchers this spawner does not know about are killed.
	Stop(pid registry.PID) error
}

// FailureReason classifies spawn failures.
type FailureReason int

const (
	// HostUnavailable means the watcher could not be started or did not come up.
	HostUnavailable FailureReason = iota
	// ResourceExhausted means the host ran out of processes, memory or descriptors.
	ResourceExhausted
)

func (r FailureReason) String() string {
	if r == ResourceExhausted {
		return "resource exhausted"
	}
	return "host unavailable"
}

// ErrSpawnFailed occurs when a watcher could not be started.
type ErrSpawnFailed struct {
	DatabaseID registry.DatabaseID
	Reason     FailureReason
	Original   error
}

func (e ErrSpawnFailed) Error() string {
	return fmt.Sprintf("Cannot start watcher for database %d (%s): %s", e.DatabaseID, e.Reason, e.Original)
}

func (e ErrSpawnFailed) Unwrap() error {
	return e.Original
}

func spawnFailed(id registry.DatabaseID, err error) *ErrSpawnFailed {
	reason := HostUnavailable
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.ENOMEM) ||
		errors.Is(err, unix.EMFILE) || errors.Is(err, unix.ENFILE) {
		reason = ResourceExhausted
	}
	return &ErrSpawnFailed{DatabaseID: id, Reason: reason, Original: err}
}

// Interval is a poll interval that may change while the coordinator runs. Watchers read it
// when they are spawned.
type Interval struct {
	nanos int64
}

// NewInterval returns an Interval set to d.
func NewInterval(d time.Duration) *Interval {
	i := &Interval{}
	i.Set(d)
	return i
}

// Get returns the current interval.
func (i *Interval) Get() time.Duration {
	if i == nil {
		return DefaultInterval
	}
	return time.Duration(atomic.LoadInt64(&i.nanos))
}

// Set changes the interval for watchers spawned afterwards.
func (i *Interval) Set(d time.Duration) {
	if d <= 0 {
		d = DefaultInterval
	}
	atomic.StoreInt64(&i.nanos, int64(d))
}
