// Package bootstrap rebuilds the shutdown registry from persisted configuration at server start.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/serverless/shutdownd/catalog"
	intzap "github.com/serverless/shutdownd/internal/zap"
	"github.com/serverless/shutdownd/registry"
)

// Registry is the part of the shutdown registry bootstrap writes to.
type Registry interface {
	Insert(id registry.DatabaseID, mode registry.Mode, running bool) error
}

// Stopper ends watchers.
type Stopper interface {
	Stop(pid registry.PID) error
}

// ReapWatchers stops the watchers named by records of a previous registry segment. No live
// coordinator owns them, so a stopper that does not know a PID kills it if it still runs the
// watcher subcommand. Failures are logged. It returns the number of watchers stopped.
func ReapWatchers(inherited []registry.Record, watchers Stopper, log *zap.Logger) int {
	stopped := 0
	for _, rec := range inherited {
		if rec.WatcherPID == registry.NoProcess {
			continue
		}
		err := watchers.Stop(rec.WatcherPID)
		if err != nil {
			log.Error("Cannot stop watcher left by previous coordinator.",
				zap.Uint32("databaseId", uint32(rec.DatabaseID)), zap.Int32("pid", int32(rec.WatcherPID)), zap.Error(err))
			continue
		}
		stopped++
	}
	if len(inherited) > 0 {
		log.Info("Watchers left by previous coordinator stopped.", zap.Int("watchers", stopped))
	}
	return stopped
}

// Run inserts an INIT record for every database that refuses new connections and returns the
// number of records inserted. Watchers are not started: a database left in transactional mode
// before a restart needs a new shutdown request to be watched again. Any error other than a
// duplicate record aborts the pass.
func Run(ctx context.Context, databases catalog.Service, reg Registry, log *zap.Logger) (int, error) {
	disallowed, err := databases.ListDisallowed(ctx)
	if err != nil {
		return 0, fmt.Errorf("cannot list disallowed databases: %w", err)
	}

	inserted := 0
	for _, db := range disallowed {
		if catalog.IsProtected(db.Name) {
			continue
		}
		err := reg.Insert(db.ID, registry.Init, false)
		if err != nil {
			if _, ok := err.(*registry.ErrRecordExists); ok {
				log.Debug("Database already registered.", zap.Uint32("databaseId", uint32(db.ID)))
				continue
			}
			return inserted, fmt.Errorf("cannot register database %q: %w", db.Name, err)
		}
		inserted++
	}

	log.Info("Shutdown registry restored.", zap.Int("records", inserted), zap.Array("databases", intzap.Databases(disallowed)))
	return inserted, nil
}
