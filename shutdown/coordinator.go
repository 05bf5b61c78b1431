package shutdown

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/serverless/shutdownd/catalog"
	"github.com/serverless/shutdownd/metrics"
	"github.com/serverless/shutdownd/registry"
	"github.com/serverless/shutdownd/session"
)

// Registry is the part of the shutdown registry used by the coordinator.
type Registry interface {
	Insert(id registry.DatabaseID, mode registry.Mode, running bool) error
	Exists(id registry.DatabaseID, runningOnly bool) (bool, error)
	Remove(id registry.DatabaseID) error
	SetWatcherPID(id registry.DatabaseID, pid registry.PID) error
	WatcherPID(id registry.DatabaseID, activeOnly bool) (registry.PID, error)
	Snapshot() ([]registry.Record, error)
}

// Spawner starts and stops transactional watchers.
type Spawner interface {
	Spawn(ctx context.Context, id registry.DatabaseID) (registry.PID, error)
	Stop(pid registry.PID) error
}

// Coordinator implements Service on top of the shutdown registry.
type Coordinator struct {
	Registry Registry
	Catalog  catalog.Service
	Sessions session.Service
	Spawner  Spawner
	Log      *zap.Logger
}

var _ Service = (*Coordinator)(nil)

// Shutdown refuses new connections to the database and applies mode to existing sessions.
// Shutting down a database twice returns a warning and changes nothing.
func (c *Coordinator) Shutdown(ctx context.Context, caller Caller, name string, mode registry.Mode) (*Result, error) {
	if !mode.Requestable() {
		return nil, &registry.ErrInvalidMode{Mode: mode.String()}
	}
	db, err := c.prepare(ctx, caller, "shut down", name)
	if err != nil {
		return nil, err
	}
	log := c.Log.With(zap.String("database", db.Name), zap.Uint32("databaseId", uint32(db.ID)), zap.Stringer("mode", mode))
	result := &Result{Database: db.Name, DatabaseID: db.ID, Mode: mode}

	exists, err := c.Registry.Exists(db.ID, false)
	if err != nil {
		return nil, err
	}
	if exists {
		log.Warn("Database is already shut down.")
		result.Warning = fmt.Sprintf("Database %q is already shut down.", db.Name)
		return result, nil
	}

	if err := c.Catalog.SetConnectionsAllowed(ctx, db.Name, false); err != nil {
		return nil, err
	}

	running := mode == registry.Transactional
	if err := c.Registry.Insert(db.ID, mode, running); err != nil {
		if _, ok := err.(*registry.ErrRecordExists); ok {
			log.Warn("Database was shut down concurrently.")
			result.Warning = fmt.Sprintf("Database %q is already shut down.", db.Name)
			return result, nil
		}
		c.restoreConnections(ctx, log, db.Name)
		return nil, err
	}

	switch mode {
	case registry.Abort:
		if err := c.Sessions.TerminateAll(ctx, db.ID); err != nil {
			return nil, err
		}
		if err := c.Sessions.Checkpoint(ctx); err != nil {
			return nil, err
		}
	case registry.Immediate:
		if err := c.Sessions.TerminateAll(ctx, db.ID); err != nil {
			return nil, err
		}
	case registry.Transactional:
		pid, err := c.Spawner.Spawn(ctx, db.ID)
		if err != nil {
			metrics.SpawnFailures.Inc()
			if rerr := c.Registry.Remove(db.ID); rerr != nil {
				log.Error("Cannot remove record after failed spawn.", zap.Error(rerr))
			}
			c.restoreConnections(ctx, log, db.Name)
			return nil, err
		}
		if err := c.Registry.SetWatcherPID(db.ID, pid); err != nil {
			return nil, err
		}
		result.WatcherPID = pid
	}

	metrics.ShutdownRequests.WithLabelValues(mode.String()).Inc()
	log.Info("Database shut down.", zap.String("caller", caller.Name))
	return result, nil
}

// Startup allows connections to the database again, stops its watcher and removes its record.
// Starting up a database that is not shut down returns a warning and changes nothing.
func (c *Coordinator) Startup(ctx context.Context, caller Caller, name string) (*Result, error) {
	db, err := c.prepare(ctx, caller, "start up", name)
	if err != nil {
		return nil, err
	}
	log := c.Log.With(zap.String("database", db.Name), zap.Uint32("databaseId", uint32(db.ID)))
	result := &Result{Database: db.Name, DatabaseID: db.ID}

	exists, err := c.Registry.Exists(db.ID, false)
	if err != nil {
		return nil, err
	}
	if !exists {
		log.Warn("Database is not shut down.")
		result.Warning = fmt.Sprintf("Database %q is not shut down.", db.Name)
		return result, nil
	}

	if err := c.Catalog.SetConnectionsAllowed(ctx, db.Name, true); err != nil {
		return nil, err
	}

	pid, err := c.Registry.WatcherPID(db.ID, true)
	var notFound *registry.ErrRecordNotFound
	if err != nil && !errors.As(err, &notFound) {
		return nil, err
	}
	if pid != registry.NoProcess {
		if err := c.Spawner.Stop(pid); err != nil {
			log.Error("Cannot stop watcher.", zap.Int32("pid", int32(pid)), zap.Error(err))
		}
		result.WatcherPID = pid
	}

	if err := c.Registry.Remove(db.ID); err != nil {
		return nil, err
	}

	metrics.StartupRequests.Inc()
	log.Info("Database started up.", zap.String("caller", caller.Name))
	return result, nil
}

// List returns every shut down database ordered by ID. Unprivileged callers get an empty list.
func (c *Coordinator) List(ctx context.Context, caller Caller) ([]Entry, error) {
	if c.Registry == nil {
		return nil, &registry.ErrNotAttached{}
	}
	entries := []Entry{}
	if !caller.Privileged {
		return entries, nil
	}

	records, err := c.Registry.Snapshot()
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		entry := Entry{DatabaseID: rec.DatabaseID, Mode: rec.Mode, Running: rec.Running}
		db, err := c.Catalog.GetDatabaseByID(ctx, rec.DatabaseID)
		if err == nil {
			entry.Database = db.Name
		} else if _, ok := err.(*catalog.ErrDatabaseNotFound); !ok {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// prepare checks the preconditions shared by shutdown and startup and resolves the database.
func (c *Coordinator) prepare(ctx context.Context, caller Caller, operation, name string) (*catalog.Database, error) {
	if c.Registry == nil {
		return nil, &registry.ErrNotAttached{}
	}
	if !caller.Privileged {
		return nil, &ErrPermissionDenied{Operation: operation}
	}
	if catalog.IsProtected(name) {
		return nil, &ErrProtectedDatabase{Name: name}
	}
	return c.Catalog.GetDatabase(ctx, name)
}

func (c *Coordinator) restoreConnections(ctx context.Context, log *zap.Logger, name string) {
	if err := c.Catalog.SetConnectionsAllowed(ctx, name, true); err != nil {
		log.Error("Cannot allow connections again.", zap.Error(err))
	}
}
