// Package intercept answers whether new work may start against a database.
package intercept

import (
	"go.uber.org/zap"

	"github.com/serverless/shutdownd/registry"
)

// Warning is sent to sessions that must not start new work.
const Warning = "This database has already been shutdown and this process will be killed within seconds."

// Checker decides whether to refuse new top-level work.
type Checker interface {
	Check(id registry.DatabaseID, inTransactionBlock bool) (bool, error)
}

// Registry is the lookup the guard needs.
type Registry interface {
	Exists(id registry.DatabaseID, runningOnly bool) (bool, error)
}

// Guard refuses work against databases whose watcher is still draining sessions.
type Guard struct {
	Registry Registry
	Log      *zap.Logger
}

var _ Checker = (*Guard)(nil)

// Check returns true when the database is shut down with a running watcher and the caller is
// not already inside a transaction block. Work already in progress is allowed to finish.
func (g *Guard) Check(id registry.DatabaseID, inTransactionBlock bool) (bool, error) {
	if inTransactionBlock {
		return false, nil
	}
	if g.Registry == nil {
		return false, &registry.ErrNotAttached{}
	}

	refuse, err := g.Registry.Exists(id, true)
	if err != nil {
		return false, err
	}
	if refuse {
		g.Log.Warn(Warning, zap.Uint32("databaseId", uint32(id)))
	}
	return refuse, nil
}
