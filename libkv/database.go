package libkv

import (
	"bytes"
	"context"
	"encoding/json"
	"regexp"
	"sort"

	"github.com/serverless/libkv/store"
	"go.uber.org/zap"
	validator "gopkg.in/go-playground/validator.v9"

	"github.com/serverless/shutdownd/catalog"
	"github.com/serverless/shutdownd/registry"
)

const databasesPrefix = "databases/"

func databaseKey(name string) string {
	return databasesPrefix + name
}

// RegisterDatabase adds a database to the configuration.
func (service Service) RegisterDatabase(ctx context.Context, db *catalog.Database) (*catalog.Database, error) {
	if err := validateDatabase(db); err != nil {
		return nil, err
	}

	_, err := service.DatabaseStore.Get(databaseKey(db.Name), &store.ReadOptions{Consistent: true})
	if err == nil {
		return nil, &catalog.ErrDatabaseAlreadyRegistered{Name: db.Name}
	}

	byt, err := json.Marshal(db)
	if err != nil {
		return nil, err
	}

	_, _, err = service.DatabaseStore.AtomicPut(databaseKey(db.Name), byt, nil, nil)
	if err != nil {
		return nil, err
	}

	service.Log.Debug("Database registered.", zap.String("database", db.Name), zap.Uint32("databaseId", uint32(db.ID)))

	return db, nil
}

// GetDatabase returns database configuration by name.
func (service Service) GetDatabase(ctx context.Context, name string) (*catalog.Database, error) {
	kv, err := service.DatabaseStore.Get(databaseKey(name), &store.ReadOptions{Consistent: true})
	if err != nil {
		if err.Error() == errKeyNotFound {
			return nil, &catalog.ErrDatabaseNotFound{Name: name}
		}
		return nil, err
	}
	return decodeDatabase(kv.Value)
}

// GetDatabaseByID returns database configuration by ID.
func (service Service) GetDatabaseByID(ctx context.Context, id registry.DatabaseID) (*catalog.Database, error) {
	dbs, err := service.listDatabases()
	if err != nil {
		return nil, err
	}
	for _, db := range dbs {
		if db.ID == id {
			return db, nil
		}
	}
	return nil, &catalog.ErrDatabaseNotFound{ID: id}
}

// SetConnectionsAllowed flips the allow-connections flag of a database. The write is a compare
// and swap so that a concurrent update is not lost.
func (service Service) SetConnectionsAllowed(ctx context.Context, name string, allowed bool) error {
	kv, err := service.DatabaseStore.Get(databaseKey(name), &store.ReadOptions{Consistent: true})
	if err != nil {
		if err.Error() == errKeyNotFound {
			return &catalog.ErrDatabaseNotFound{Name: name}
		}
		return err
	}

	db, err := decodeDatabase(kv.Value)
	if err != nil {
		return err
	}
	db.AllowConnections = allowed

	byt, err := json.Marshal(db)
	if err != nil {
		return err
	}

	_, _, err = service.DatabaseStore.AtomicPut(databaseKey(name), byt, kv, nil)
	if err != nil {
		return err
	}

	service.Log.Debug("Database connections updated.", zap.String("database", name), zap.Bool("allowConnections", allowed))

	return nil
}

// ListDisallowed returns databases refusing new connections ordered by ID, protected databases excluded.
func (service Service) ListDisallowed(ctx context.Context) ([]*catalog.Database, error) {
	dbs, err := service.listDatabases()
	if err != nil {
		return nil, err
	}

	disallowed := []*catalog.Database{}
	for _, db := range dbs {
		if db.AllowConnections || catalog.IsProtected(db.Name) {
			continue
		}
		disallowed = append(disallowed, db)
	}
	sort.Slice(disallowed, func(i, j int) bool { return disallowed[i].ID < disallowed[j].ID })
	return disallowed, nil
}

func (service Service) listDatabases() ([]*catalog.Database, error) {
	dbs := []*catalog.Database{}

	kvs, err := service.DatabaseStore.List(databasesPrefix, &store.ReadOptions{Consistent: true})
	if err != nil && err.Error() != errKeyNotFound {
		return nil, err
	}

	for _, kv := range kvs {
		db, err := decodeDatabase(kv.Value)
		if err != nil {
			return nil, err
		}
		dbs = append(dbs, db)
	}
	return dbs, nil
}

func decodeDatabase(value []byte) (*catalog.Database, error) {
	db := &catalog.Database{}
	dec := json.NewDecoder(bytes.NewReader(value))
	if err := dec.Decode(db); err != nil {
		return nil, err
	}
	return db, nil
}

func validateDatabase(db *catalog.Database) error {
	validate := validator.New()
	validate.RegisterValidation("dbname", databaseNameValidator)
	err := validate.Struct(db)
	if err != nil {
		return &catalog.ErrDatabaseValidation{Message: err.Error()}
	}
	return nil
}

// databaseNameValidator validates if field is a plain identifier usable as a database name
func databaseNameValidator(fl validator.FieldLevel) bool {
	return regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_\-\$]{0,62}$`).MatchString(fl.Field().String())
}
