package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/serverless/shutdownd/config"
	"github.com/serverless/shutdownd/postgres"
	"github.com/serverless/shutdownd/registry"
	"github.com/serverless/shutdownd/watcher"
	"github.com/serverless/shutdownd/watcher/shared"
)

// runWatcher is the entry point of a watcher process started by the coordinator. Logs go to
// stderr; stdout carries the plugin handshake.
func runWatcher(args []string) int {
	flags := flag.NewFlagSet(shared.Subcommand, flag.ExitOnError)
	registryPath := flags.String("registry-path", "", "Path of the shared registry segment.")
	databaseID := flags.Uint("database-id", 0, "ID of the database to watch.")
	interval := flags.Duration("interval", watcher.DefaultInterval, "Time between session polls.")
	logLevel := zap.InfoLevel
	flags.Var(&logLevel, "log-level", "The level of logging to show.")
	flags.Parse(args)

	logCfg := zap.NewProductionConfig()
	logCfg.Level = zap.NewAtomicLevelAt(logLevel)
	log, err := logCfg.Build()
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log = log.With(zap.Uint("databaseId", *databaseID), zap.Int("pid", os.Getpid()))

	signal.Ignore(syscall.SIGHUP)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	reg, err := registry.Attach(*registryPath, log)
	if err != nil {
		log.Error("Cannot attach shutdown registry.", zap.Error(err))
		return 1
	}
	defer reg.Close()

	pool, err := postgres.Connect(ctx, postgres.Config{
		DSN:            os.Getenv(config.DSNEnv),
		MaxConns:       1,
		ConnectTimeout: 5 * time.Second,
	})
	if err != nil {
		log.Error("Cannot connect to PostgreSQL.", zap.Error(err))
		return 1
	}
	defer pool.Close()

	w := &watcher.Watcher{
		DatabaseID: registry.DatabaseID(*databaseID),
		PID:        registry.PID(os.Getpid()),
		Registry:   reg,
		Sessions:   &postgres.Service{DB: pool, Log: log},
		Interval:   *interval,
		Log:        log,
	}
	// Failures are logged by the watcher itself.
	if state, _ := watcher.ServeProcess(ctx, w); state == watcher.Failed {
		return 1
	}
	return 0
}
