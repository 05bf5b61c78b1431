package shm

import (
	"runtime"
	"sync/atomic"
	"time"
)

const (
	spinsBeforeSleep = 100
	spinSleep        = 50 * time.Microsecond
)

// SpinLock is a test-and-set lock on a word inside a shared segment. It is meant for critical
// sections a few loads and stores long. The zero word is the unlocked state.
type SpinLock struct {
	word *uint32
}

// NewSpinLock returns a lock backed by word.
func NewSpinLock(word *uint32) SpinLock {
	return SpinLock{word: word}
}

// Lock spins until the lock is acquired.
func (l SpinLock) Lock() {
	for i := 0; !atomic.CompareAndSwapUint32(l.word, 0, 1); i++ {
		if i < spinsBeforeSleep {
			runtime.Gosched()
		} else {
			time.Sleep(spinSleep)
		}
	}
}

// TryLock acquires the lock if it is free.
func (l SpinLock) TryLock() bool {
	return atomic.CompareAndSwapUint32(l.word, 0, 1)
}

// Unlock releases the lock. Unlocking a free lock panics.
func (l SpinLock) Unlock() {
	if !atomic.CompareAndSwapUint32(l.word, 1, 0) {
		panic("shm: unlock of unlocked spinlock")
	}
}
