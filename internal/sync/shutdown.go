package sync

import (
	"os"
	"os/signal"
	"sync"
)

// ShutdownGuard facilitates coordinating the shutdown of multiple components.
type ShutdownGuard struct {
	sync.Mutex
	sync.WaitGroup
	ShuttingDown chan struct{}
}

// NewShutdownGuard creates a new ShutdownGuard.
func NewShutdownGuard() *ShutdownGuard {
	return &ShutdownGuard{
		ShuttingDown: make(chan struct{}),
	}
}

// InitiateShutdown signals to all components that they should begin shutting down.
func (s *ShutdownGuard) InitiateShutdown() {
	s.Lock()
	defer s.Unlock()

	select {
	case <-s.ShuttingDown:
		// already closed
	default:
		close(s.ShuttingDown)
	}
}

// ShutdownAndWait initiates a shutdown, and waits for all components to finish.
func (s *ShutdownGuard) ShutdownAndWait() {
	s.InitiateShutdown()
	s.Wait()
}

// Go runs fn as a tracked component. A component returning on its own takes the rest of the
// process down with it.
func (s *ShutdownGuard) Go(fn func()) {
	s.Add(1)
	go func() {
		defer s.Done()
		defer s.InitiateShutdown()
		fn()
	}()
}

// OnShutdown runs fn once shutdown has been initiated and tracks it until it returns.
func (s *ShutdownGuard) OnShutdown(fn func()) {
	s.Add(1)
	go func() {
		defer s.Done()
		<-s.ShuttingDown
		fn()
	}()
}

// NotifySignals initiates shutdown when one of sig arrives. The returned func stops listening.
func (s *ShutdownGuard) NotifySignals(sig ...os.Signal) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sig...)
	done := make(chan struct{})
	go func() {
		select {
		case <-ch:
			s.InitiateShutdown()
		case <-s.ShuttingDown:
		case <-done:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}
