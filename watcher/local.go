package watcher

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/serverless/shutdownd/metrics"
	"github.com/serverless/shutdownd/registry"
	"github.com/serverless/shutdownd/session"
)

// LocalSpawner runs watchers as goroutines of the coordinator process. PIDs are synthetic.
type LocalSpawner struct {
	Registry Registry
	Sessions session.Service
	Interval *Interval
	Clock    clockwork.Clock
	Log      *zap.Logger
	// OnExit is called with the final state of every watcher.
	OnExit func(id registry.DatabaseID, state State)

	mu       sync.Mutex
	nextPID  registry.PID
	watchers map[registry.PID]*localWatcher
	wg       sync.WaitGroup
}

type localWatcher struct {
	id     registry.DatabaseID
	cancel context.CancelFunc
	done   chan struct{}
}

var _ Spawner = (*LocalSpawner)(nil)

// Spawn starts a watcher goroutine and waits until it has registered itself.
func (s *LocalSpawner) Spawn(ctx context.Context, id registry.DatabaseID) (registry.PID, error) {
	s.mu.Lock()
	if s.watchers == nil {
		s.watchers = map[registry.PID]*localWatcher{}
	}
	s.nextPID++
	pid := s.nextPID
	runCtx, cancel := context.WithCancel(context.Background())
	lw := &localWatcher{id: id, cancel: cancel, done: make(chan struct{})}
	s.watchers[pid] = lw
	s.mu.Unlock()

	ready := make(chan struct{})
	failed := make(chan error, 1)
	w := &Watcher{
		DatabaseID: id,
		PID:        pid,
		Registry:   s.Registry,
		Sessions:   s.Sessions,
		Interval:   s.Interval.Get(),
		Clock:      s.Clock,
		Log:        s.Log,
		OnReady:    func() { close(ready) },
		OnPoll:     func(int) { metrics.WatcherPolls.Inc() },
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(lw.done)
		defer s.forget(pid)

		state, err := w.Run(runCtx)
		metrics.WatcherExits.WithLabelValues(state.String()).Inc()
		if err != nil {
			failed <- err
		}
		if s.OnExit != nil {
			s.OnExit(id, state)
		}
	}()

	select {
	case <-ready:
		return pid, nil
	case err := <-failed:
		return registry.NoProcess, spawnFailed(id, err)
	case <-ctx.Done():
		cancel()
		<-lw.done
		return registry.NoProcess, spawnFailed(id, ctx.Err())
	}
}

func (s *LocalSpawner) forget(pid registry.PID) {
	s.mu.Lock()
	delete(s.watchers, pid)
	s.mu.Unlock()
}

// Stop cancels the watcher. Unknown PIDs belong to watchers that already exited.
func (s *LocalSpawner) Stop(pid registry.PID) error {
	s.mu.Lock()
	lw, ok := s.watchers[pid]
	s.mu.Unlock()
	if !ok {
		s.Log.Debug("Watcher already gone.", zap.Int32("pid", int32(pid)))
		return nil
	}

	lw.cancel()
	return nil
}

// Close cancels every watcher and waits for them to exit.
func (s *LocalSpawner) Close() error {
	s.mu.Lock()
	for _, lw := range s.watchers {
		lw.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Running returns the number of watcher goroutines.
func (s *LocalSpawner) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers)
}
