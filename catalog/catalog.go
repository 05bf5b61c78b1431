// Package catalog defines the persisted database configuration consulted by the coordinator.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/serverless/shutdownd/registry"
)

// Database is the persisted configuration of one database.
type Database struct {
	ID               registry.DatabaseID `json:"databaseId" validate:"required"`
	Name             string              `json:"database" validate:"required,dbname"`
	AllowConnections bool                `json:"allowConnections"`
}

// Service reads and updates database configuration.
type Service interface {
	GetDatabase(ctx context.Context, name string) (*Database, error)
	GetDatabaseByID(ctx context.Context, id registry.DatabaseID) (*Database, error)
	SetConnectionsAllowed(ctx context.Context, name string, allowed bool) error
	// ListDisallowed returns databases refusing new connections, protected databases excluded.
	ListDisallowed(ctx context.Context) ([]*Database, error)
}

// Registrar adds databases to a catalog kept outside PostgreSQL.
type Registrar interface {
	RegisterDatabase(ctx context.Context, db *Database) (*Database, error)
}

// ProtectedNames are databases that can never be shut down.
var ProtectedNames = []string{"postgres", "template0", "template1"}

// IsProtected reports whether name is a protected database.
func IsProtected(name string) bool {
	for _, protected := range ProtectedNames {
		if strings.EqualFold(name, protected) {
			return true
		}
	}
	return false
}

// ErrDatabaseNotFound occurs when no database has the requested name or ID.
type ErrDatabaseNotFound struct {
	Name string
	ID   registry.DatabaseID
}

func (e ErrDatabaseNotFound) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("Database %d not found.", e.ID)
	}
	return fmt.Sprintf("Database %q not found.", e.Name)
}

// ErrDatabaseValidation occurs when database configuration doesn't validate.
type ErrDatabaseValidation struct {
	Message string
}

func (e ErrDatabaseValidation) Error() string {
	return fmt.Sprintf("Database doesn't validate. Validation error: %q", e.Message)
}

// ErrDatabaseAlreadyRegistered occurs when registering a database name twice.
type ErrDatabaseAlreadyRegistered struct {
	Name string
}

func (e ErrDatabaseAlreadyRegistered) Error() string {
	return fmt.Sprintf("Database %q already registered.", e.Name)
}
