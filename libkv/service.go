// Package libkv stores database configuration in a key-value store. It backs deployments where
// connection admission is enforced by a pooler that reads the same keys.
package libkv

import (
	"github.com/serverless/libkv/store"
	"go.uber.org/zap"

	"github.com/serverless/shutdownd/catalog"
)

const errKeyNotFound = "Key not found in store"

// Service implements catalog.Service using libkv as a backend.
type Service struct {
	DatabaseStore store.Store
	Log           *zap.Logger
}

var (
	_ catalog.Service   = (*Service)(nil)
	_ catalog.Registrar = (*Service)(nil)
)
