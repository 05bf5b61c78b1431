// Package shutdown is the administrative surface of the coordinator: shutting databases down,
// starting them up again and listing what is shut down.
package shutdown

import (
	"context"

	"github.com/serverless/shutdownd/registry"
)

// Caller is the identity behind an administrative request.
type Caller struct {
	Name string
	// Privileged callers may change and read shutdown state.
	Privileged bool
}

// Result describes the outcome of a shutdown or startup request. A non-empty Warning means
// the request changed nothing.
type Result struct {
	Database   string              `json:"database"`
	DatabaseID registry.DatabaseID `json:"databaseId"`
	Mode       registry.Mode       `json:"mode,omitempty"`
	WatcherPID registry.PID        `json:"watcherPid,omitempty"`
	Warning    string              `json:"warning,omitempty"`
}

// Entry is one shut down database.
type Entry struct {
	DatabaseID registry.DatabaseID `json:"databaseId"`
	Database   string              `json:"database"`
	Mode       registry.Mode       `json:"mode"`
	Running    bool                `json:"isRunning"`
}

// Entries is a list of shut down databases.
type Entries struct {
	Databases []Entry `json:"databases"`
}

// Service shuts databases down and starts them up again.
type Service interface {
	Shutdown(ctx context.Context, caller Caller, name string, mode registry.Mode) (*Result, error)
	Startup(ctx context.Context, caller Caller, name string) (*Result, error)
	List(ctx context.Context, caller Caller) ([]Entry, error)
}
