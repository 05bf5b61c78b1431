// Package session defines the collaborator that counts and ends sessions of a database.
package session

import (
	"context"

	"github.com/serverless/shutdownd/registry"
)

// Service counts and ends client sessions.
type Service interface {
	// CountActive ends every idle session of the database and returns how many sessions are
	// still inside a unit of work.
	CountActive(ctx context.Context, id registry.DatabaseID) (int, error)
	// TerminateAll ends every session of the database.
	TerminateAll(ctx context.Context, id registry.DatabaseID) error
	// Checkpoint forces a checkpoint of durable state.
	Checkpoint(ctx context.Context) error
}
