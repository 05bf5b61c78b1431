package watcher

import (
	"context"
	"errors"
	"sync"

	goplugin "github.com/hashicorp/go-plugin"

	"github.com/serverless/shutdownd/watcher/shared"
)

var errExitedEarly = errors.New("watcher exited before it was ready")

// readiness answers Status calls for a watcher running in this process.
type readiness struct {
	watcher *Watcher
	ready   chan struct{}
	exited  chan struct{}

	mu  sync.Mutex
	err error
}

// Status blocks until the watcher is ready or has exited.
func (r *readiness) Status() (Status, error) {
	select {
	case <-r.ready:
		return Status{PID: r.watcher.PID, DatabaseID: r.watcher.DatabaseID}, nil
	case <-r.exited:
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.err != nil {
			return Status{}, r.err
		}
		return Status{}, errExitedEarly
	}
}

// ServeProcess runs w in a watcher process. It serves the readiness handshake to the
// coordinator on stdout and returns when the watcher finishes. The watcher is cancelled when
// ctx is cancelled or the coordinator closes the connection.
func ServeProcess(ctx context.Context, w *Watcher) (State, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := &readiness{watcher: w, ready: make(chan struct{}), exited: make(chan struct{})}
	onReady := w.OnReady
	w.OnReady = func() {
		close(r.ready)
		if onReady != nil {
			onReady()
		}
	}

	go func() {
		goplugin.Serve(&goplugin.ServeConfig{
			HandshakeConfig: shared.Handshake,
			Plugins: map[string]goplugin.Plugin{
				shared.PluginName: &ReporterRPCPlugin{Reporter: r},
			},
		})
		cancel()
	}()

	state, err := w.Run(ctx)
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	close(r.exited)
	return state, err
}
