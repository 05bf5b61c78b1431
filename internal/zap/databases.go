package zap

import (
	"go.uber.org/zap/zapcore"

	"github.com/serverless/shutdownd/catalog"
)

// Databases is a database list that implements MarshalLogArray.
type Databases []*catalog.Database

// MarshalLogArray implementation
func (dbs Databases) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, db := range dbs {
		if err := enc.AppendObject(database{db}); err != nil {
			return err
		}
	}
	return nil
}

type database struct {
	*catalog.Database
}

func (d database) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint32("databaseId", uint32(d.ID))
	enc.AddString("database", d.Name)
	return nil
}
