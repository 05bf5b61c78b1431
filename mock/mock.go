//go:generate mockgen -package mock -destination ./store.go github.com/serverless/libkv/store Store
//go:generate mockgen -package mock -destination ./catalog.go -mock_names "Service=MockCatalogService" github.com/serverless/shutdownd/catalog Service
//go:generate mockgen -package mock -destination ./registrar.go github.com/serverless/shutdownd/catalog Registrar
//go:generate mockgen -package mock -destination ./session.go -mock_names "Service=MockSessionService" github.com/serverless/shutdownd/session Service
//go:generate mockgen -package mock -destination ./shutdown.go -mock_names "Service=MockShutdownService" github.com/serverless/shutdownd/shutdown Service
//go:generate mockgen -package mock -destination ./spawner.go github.com/serverless/shutdownd/watcher Spawner
//go:generate mockgen -package mock -destination ./checker.go github.com/serverless/shutdownd/intercept Checker

package mock
