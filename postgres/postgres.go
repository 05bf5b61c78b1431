// Package postgres implements the catalog and session collaborators against a PostgreSQL server.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/serverless/shutdownd/catalog"
	"github.com/serverless/shutdownd/registry"
	"github.com/serverless/shutdownd/session"
)

// DB is the subset of *pgxpool.Pool used by Service.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service implements catalog.Service and session.Service using pg_database and
// pg_stat_activity.
type Service struct {
	DB  DB
	Log *zap.Logger
}

var _ catalog.Service = (*Service)(nil)
var _ session.Service = (*Service)(nil)

// Config configures the connection pool.
type Config struct {
	DSN            string        `yaml:"dsn" validate:"required"`
	MaxConns       int32         `yaml:"maxConns" validate:"min=1"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
}

// Connect opens a connection pool and checks that the server answers.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

const selectDatabase = `SELECT oid, datname, datallowconn FROM pg_database`

// GetDatabase returns the database named name.
func (s Service) GetDatabase(ctx context.Context, name string) (*catalog.Database, error) {
	db, err := scanDatabase(s.DB.QueryRow(ctx, selectDatabase+` WHERE datname = $1`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &catalog.ErrDatabaseNotFound{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("cannot look up database %q: %w", name, err)
	}
	return db, nil
}

// GetDatabaseByID returns the database with OID id.
func (s Service) GetDatabaseByID(ctx context.Context, id registry.DatabaseID) (*catalog.Database, error) {
	db, err := scanDatabase(s.DB.QueryRow(ctx, selectDatabase+` WHERE oid = $1`, uint32(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &catalog.ErrDatabaseNotFound{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("cannot look up database %d: %w", id, err)
	}
	return db, nil
}

// SetConnectionsAllowed flips the datallowconn flag of the database.
func (s Service) SetConnectionsAllowed(ctx context.Context, name string, allowed bool) error {
	sql := "ALTER DATABASE " + pgx.Identifier{name}.Sanitize() + " ALLOW_CONNECTIONS " + strconv.FormatBool(allowed)
	if _, err := s.DB.Exec(ctx, sql); err != nil {
		return fmt.Errorf("cannot change connection policy of database %q: %w", name, err)
	}

	s.Log.Debug("Database connection policy changed.", zap.String("database", name), zap.Bool("allowConnections", allowed))
	return nil
}

// ListDisallowed returns the databases refusing new connections, ordered by OID.
func (s Service) ListDisallowed(ctx context.Context) ([]*catalog.Database, error) {
	rows, err := s.DB.Query(ctx, selectDatabase+` WHERE NOT datallowconn AND datname <> ALL($1) ORDER BY oid`, catalog.ProtectedNames)
	if err != nil {
		return nil, fmt.Errorf("cannot list databases: %w", err)
	}
	defer rows.Close()

	dbs := []*catalog.Database{}
	for rows.Next() {
		db, err := scanDatabase(rows)
		if err != nil {
			return nil, fmt.Errorf("cannot list databases: %w", err)
		}
		dbs = append(dbs, db)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cannot list databases: %w", err)
	}
	return dbs, nil
}

func scanDatabase(row pgx.Row) (*catalog.Database, error) {
	var (
		oid   uint32
		name  string
		allow bool
	)
	if err := row.Scan(&oid, &name, &allow); err != nil {
		return nil, err
	}
	return &catalog.Database{ID: registry.DatabaseID(oid), Name: name, AllowConnections: allow}, nil
}

// Idle sessions are ended before counting. The calling backend and background workers are
// never counted.
const (
	terminateIdle = `SELECT pg_terminate_backend(pid) FROM pg_stat_activity
WHERE datid = $1 AND state = 'idle' AND backend_type = 'client backend' AND pid <> pg_backend_pid()`
	countBusy = `SELECT count(*) FROM pg_stat_activity
WHERE datid = $1 AND state IS DISTINCT FROM 'idle' AND backend_type = 'client backend' AND pid <> pg_backend_pid()`
	cancelAll = `SELECT pg_cancel_backend(pid) FROM pg_stat_activity
WHERE datid = $1 AND backend_type = 'client backend' AND pid <> pg_backend_pid()`
	terminateAll = `SELECT pg_terminate_backend(pid) FROM pg_stat_activity
WHERE datid = $1 AND backend_type = 'client backend' AND pid <> pg_backend_pid()`
)

// CountActive ends idle sessions of the database and counts the busy ones.
func (s Service) CountActive(ctx context.Context, id registry.DatabaseID) (int, error) {
	if _, err := s.DB.Exec(ctx, terminateIdle, uint32(id)); err != nil {
		return 0, fmt.Errorf("cannot end idle sessions of database %d: %w", id, err)
	}

	var count int64
	if err := s.DB.QueryRow(ctx, countBusy, uint32(id)).Scan(&count); err != nil {
		return 0, fmt.Errorf("cannot count sessions of database %d: %w", id, err)
	}
	return int(count), nil
}

// TerminateAll cancels running statements of the database's sessions, then ends the sessions.
func (s Service) TerminateAll(ctx context.Context, id registry.DatabaseID) error {
	if _, err := s.DB.Exec(ctx, cancelAll, uint32(id)); err != nil {
		return fmt.Errorf("cannot cancel sessions of database %d: %w", id, err)
	}
	if _, err := s.DB.Exec(ctx, terminateAll, uint32(id)); err != nil {
		return fmt.Errorf("cannot end sessions of database %d: %w", id, err)
	}

	s.Log.Debug("Database sessions ended.", zap.Uint32("databaseId", uint32(id)))
	return nil
}

// Checkpoint runs CHECKPOINT.
func (s Service) Checkpoint(ctx context.Context) error {
	if _, err := s.DB.Exec(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}
