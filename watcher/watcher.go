// Package watcher runs the per-database loop that waits for a transactionally shut down
// database to drain.
package watcher

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/serverless/shutdownd/registry"
	"github.com/serverless/shutdownd/session"
)

// DefaultInterval is the poll interval used when none is configured.
const DefaultInterval = 15 * time.Second

// State is a step of the watcher lifecycle.
type State int32

const (
	// Starting watchers register their PID.
	Starting State = iota
	// Polling watchers wait for the database to drain.
	Polling
	// Drained watchers saw no busy session and cleared the running flag.
	Drained
	// Cancelled watchers were asked to stop or outlived their coordinator.
	Cancelled
	// Failed watchers could not talk to the database or the registry.
	Failed
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Polling:
		return "polling"
	case Drained:
		return "drained"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Registry is the part of the shutdown registry a watcher writes to.
type Registry interface {
	SetWatcherPID(id registry.DatabaseID, pid registry.PID) error
	SetRunning(id registry.DatabaseID, running bool) error
	WatcherStarted() error
	WatcherExited() error
	Retired() (bool, error)
}

// Watcher polls one database until no session is busy or it is cancelled.
type Watcher struct {
	DatabaseID registry.DatabaseID
	PID        registry.PID
	Registry   Registry
	Sessions   session.Service
	Interval   time.Duration
	Clock      clockwork.Clock
	Log        *zap.Logger
	// OnReady is called once the watcher has registered itself.
	OnReady func()
	// OnPoll is called after every session count.
	OnPoll func(busy int)

	state int32
}

// State returns the current lifecycle step.
func (w *Watcher) State() State {
	return State(atomic.LoadInt32(&w.state))
}

func (w *Watcher) setState(s State) {
	atomic.StoreInt32(&w.state, int32(s))
}

// ErrWatcherFailed occurs when a watcher stops because a collaborator failed.
type ErrWatcherFailed struct {
	DatabaseID registry.DatabaseID
	Original   error
}

func (e ErrWatcherFailed) Error() string {
	return fmt.Sprintf("Watcher for database %d failed: %s", e.DatabaseID, e.Original)
}

func (e ErrWatcherFailed) Unwrap() error {
	return e.Original
}

// Run registers the watcher and polls until the database drains (Drained), ctx is cancelled
// (Cancelled) or a collaborator fails (Failed, with an error). The first poll happens one
// interval after start. Cancellation is checked before every poll, and so is the registry: a
// watcher whose segment was retired by a restarted coordinator exits without polling.
func (w *Watcher) Run(ctx context.Context) (State, error) {
	clock := w.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	log := w.Log.With(zap.Uint32("databaseId", uint32(w.DatabaseID)), zap.Int32("pid", int32(w.PID)))

	w.setState(Starting)
	if err := w.Registry.SetWatcherPID(w.DatabaseID, w.PID); err != nil {
		w.setState(Failed)
		return Failed, &ErrWatcherFailed{DatabaseID: w.DatabaseID, Original: err}
	}
	if err := w.Registry.WatcherStarted(); err != nil {
		w.clearRunning(log)
		w.setState(Failed)
		log.Error("Watcher failed.", zap.Error(err))
		return Failed, &ErrWatcherFailed{DatabaseID: w.DatabaseID, Original: err}
	}
	log.Info("Watcher started.", zap.Duration("interval", interval))
	if w.OnReady != nil {
		w.OnReady()
	}

	w.setState(Polling)
	timer := clock.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return w.cancel(log)
		case <-timer.Chan():
		}
		if ctx.Err() != nil {
			return w.cancel(log)
		}
		retired, err := w.Registry.Retired()
		if err != nil {
			return w.fail(log, err)
		}
		if retired {
			return w.orphaned(log)
		}

		busy, err := w.Sessions.CountActive(ctx, w.DatabaseID)
		if err != nil {
			if ctx.Err() != nil {
				return w.cancel(log)
			}
			return w.fail(log, err)
		}
		if w.OnPoll != nil {
			w.OnPoll(busy)
		}
		if busy == 0 {
			return w.drain(log)
		}

		log.Debug("Database still has busy sessions.", zap.Int("sessions", busy))
		timer.Reset(interval)
	}
}

func (w *Watcher) drain(log *zap.Logger) (State, error) {
	w.clearRunning(log)
	w.exited(log)
	w.setState(Drained)
	log.Info("Database drained, watcher exiting.")
	return Drained, nil
}

func (w *Watcher) cancel(log *zap.Logger) (State, error) {
	w.exited(log)
	w.setState(Cancelled)
	log.Info("Watcher cancelled.")
	return Cancelled, nil
}

// orphaned leaves a retired segment alone: its counters and records belong to nobody.
func (w *Watcher) orphaned(log *zap.Logger) (State, error) {
	w.setState(Cancelled)
	log.Warn("Shutdown registry was recreated, watcher exiting.")
	return Cancelled, nil
}

func (w *Watcher) fail(log *zap.Logger, cause error) (State, error) {
	w.clearRunning(log)
	w.exited(log)
	w.setState(Failed)
	log.Error("Watcher failed.", zap.Error(cause))
	return Failed, &ErrWatcherFailed{DatabaseID: w.DatabaseID, Original: cause}
}

func (w *Watcher) clearRunning(log *zap.Logger) {
	if err := w.Registry.SetRunning(w.DatabaseID, false); err != nil {
		// The record was removed by a concurrent startup; nothing left to clear.
		log.Warn("Cannot clear running flag.", zap.Error(err))
	}
}

func (w *Watcher) exited(log *zap.Logger) {
	if err := w.Registry.WatcherExited(); err != nil {
		log.Warn("Cannot uncount watcher.", zap.Error(err))
	}
}
