package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/serverless/libkv"
	libkvstore "github.com/serverless/libkv/store"
	etcd "github.com/serverless/libkv/store/etcd/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/serverless/shutdownd/bootstrap"
	"github.com/serverless/shutdownd/catalog"
	"github.com/serverless/shutdownd/config"
	"github.com/serverless/shutdownd/httpapi"
	"github.com/serverless/shutdownd/intercept"
	"github.com/serverless/shutdownd/internal/embedded"
	"github.com/serverless/shutdownd/internal/store"
	"github.com/serverless/shutdownd/internal/sync"
	kvcatalog "github.com/serverless/shutdownd/libkv"
	"github.com/serverless/shutdownd/metrics"
	"github.com/serverless/shutdownd/postgres"
	"github.com/serverless/shutdownd/registry"
	"github.com/serverless/shutdownd/shutdown"
	"github.com/serverless/shutdownd/watcher"
	"github.com/serverless/shutdownd/watcher/shared"
)

var version = "dev"

func init() {
	etcd.Register()
}

type spawner interface {
	watcher.Spawner
	Close() error
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == shared.Subcommand {
		os.Exit(runWatcher(os.Args[2:]))
	}

	showVersion := flag.Bool("version", false, "Show version.")
	configPath := flag.String("config", "", "Path to the YAML configuration file. It is watched for log level and poll interval changes.")
	logLevel := zap.LevelFlag("log-level", zap.InfoLevel, `The level of logging to show after shutdownd has started. The available log levels are "debug", "info", "warn", and "error".`)
	registryPath := flag.String("registry-path", "", "Path of the shared registry segment.")
	capacity := flag.Int("registry-capacity", 0, "Maximum number of databases shut down at once.")
	spawnerKind := flag.String("spawner", "", `How watchers run: "process" or "local".`)
	developmentMode := flag.Bool("dev", false, "Run embedded etcd as the database catalog for testing.")
	embedPeerAddr := flag.String("embed-peer-addr", "http://127.0.0.1:2380", "Address for testing embedded etcd to receive peer connections.")
	embedCliAddr := flag.String("embed-cli-addr", "http://127.0.0.1:2379", "Address for testing embedded etcd to receive client connections.")
	embedDataDir := flag.String("embed-data-dir", "default.etcd", "Path for testing embedded etcd to store its state.")
	apiPort := flag.Uint("api-port", 0, "Port to serve the admin API on.")
	apiTLSCrt := flag.String("api-tls-cert", "", "Path to admin API TLS certificate file.")
	apiTLSKey := flag.String("api-tls-key", "", "Path to admin API TLS key file.")
	flag.Parse()

	if *showVersion {
		println(version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	level := zap.NewAtomicLevelAt(parseLevel(cfg.LogLevel))
	if set["log-level"] {
		level.SetLevel(*logLevel)
	}
	if *registryPath != "" {
		cfg.Registry.Path = *registryPath
	}
	if *capacity != 0 {
		cfg.Registry.Capacity = *capacity
	}
	if *spawnerKind != "" {
		cfg.Watcher.Spawner = *spawnerKind
	}
	if *apiPort != 0 {
		cfg.API.Port = *apiPort
	}
	if *apiTLSCrt != "" {
		cfg.API.TLSCert = *apiTLSCrt
	}
	if *apiTLSKey != "" {
		cfg.API.TLSKey = *apiTLSKey
	}
	if *developmentMode {
		cfg.Catalog.Backend = "etcd"
		cfg.Catalog.Etcd = []string{strings.TrimPrefix(*embedCliAddr, "http://")}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logCfg := zap.NewProductionConfig()
	if *developmentMode {
		logCfg = zap.NewDevelopmentConfig()
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {}
		logCfg.DisableCaller = true
		logCfg.DisableStacktrace = true
	}
	logCfg.Level = level
	log, err := logCfg.Build()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	metrics.MustRegister()

	shutdownGuard := sync.NewShutdownGuard()
	stopSignals := shutdownGuard.NotifySignals(syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()
	ctx, cancel := context.WithCancel(context.Background())
	shutdownGuard.OnShutdown(cancel)

	reg, err := registry.Create(cfg.Registry, log)
	if err != nil {
		log.Fatal("Cannot create shutdown registry.", zap.Error(err))
	}
	defer reg.Close()
	prometheus.MustRegister(metrics.NewRegistryCollector(reg))

	pool, err := postgres.Connect(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Cannot connect to PostgreSQL.", zap.Error(err))
	}
	defer pool.Close()
	pg := &postgres.Service{DB: pool, Log: log}

	var databases catalog.Service = pg
	var registrar catalog.Registrar
	if cfg.Catalog.Backend == "etcd" {
		if *developmentMode {
			err := embedded.EmbedEtcd(embedded.Config{
				DataDir:    *embedDataDir,
				PeerAddr:   *embedPeerAddr,
				ClientAddr: *embedCliAddr,
				Log:        log,
			}, shutdownGuard)
			if err != nil {
				log.Fatal("Cannot start embedded etcd.", zap.Error(err))
			}
			log.Info("Running in development mode with embedded etcd.")
		}

		kv, err := libkv.NewStore(
			libkvstore.ETCDV3,
			cfg.Catalog.Etcd,
			&libkvstore.Config{
				ConnectionTimeout: 10 * time.Second,
			},
		)
		if err != nil {
			log.Fatal("Cannot create KV client.", zap.Error(err))
		}
		kvDatabases := &kvcatalog.Service{
			DatabaseStore: store.NewNamespace(cfg.Catalog.Prefix, kv),
			Log:           log,
		}
		databases = kvDatabases
		registrar = kvDatabases
	}

	if _, err := bootstrap.Run(ctx, databases, reg, log); err != nil {
		shutdownGuard.ShutdownAndWait()
		log.Fatal("Cannot restore shutdown registry.", zap.Error(err))
	}

	interval := watcher.NewInterval(cfg.Watcher.Interval)
	var watchers spawner
	switch cfg.Watcher.Spawner {
	case "local":
		watchers = &watcher.LocalSpawner{
			Registry: reg,
			Sessions: pg,
			Interval: interval,
			Log:      log,
		}
	default:
		watchers = &watcher.ProcessSpawner{
			RegistryPath: reg.Path(),
			Interval:     interval,
			Args:         []string{"-log-level", level.Level().String()},
			Env:          []string{config.DSNEnv + "=" + cfg.Postgres.DSN},
			StartTimeout: cfg.Watcher.StartTimeout,
			Log:          log,
		}
	}
	bootstrap.ReapWatchers(reg.Inherited(), watchers, log)
	shutdownGuard.OnShutdown(func() {
		if err := watchers.Close(); err != nil {
			log.Error("Cannot stop watchers.", zap.Error(err))
		}
	})

	api := &httpapi.HTTPAPI{
		Shutdowns: &shutdown.Coordinator{
			Registry: reg,
			Catalog:  databases,
			Sessions: pg,
			Spawner:  watchers,
			Log:      log,
		},
		Admission: &intercept.Guard{Registry: reg, Log: log},
		Databases: registrar,
		Auth:      &httpapi.Authenticator{Secret: []byte(cfg.API.JWTSecret)},
		Log:       log,
	}
	httpapi.StartAdminAPI(api, httpapi.ServerConfig{
		Log:           log,
		TLSCrt:        cfg.API.TLSCert,
		TLSKey:        cfg.API.TLSKey,
		Port:          cfg.API.Port,
		ShutdownGuard: shutdownGuard,
	})
	log.Info("Admin API listening.", zap.Uint("port", cfg.API.Port), zap.Int("capacity", reg.Capacity()))

	if *configPath != "" {
		shutdownGuard.Add(1)
		go func() {
			defer shutdownGuard.Done()
			err := config.Watch(ctx, *configPath, config.DefaultDebounce, log, func(reloaded *config.Config) {
				if !set["log-level"] {
					level.SetLevel(parseLevel(reloaded.LogLevel))
				}
				interval.Set(reloaded.Watcher.Interval)
			})
			if err != nil {
				log.Error("Cannot watch config file.", zap.Error(err))
			}
		}()
	}

	shutdownGuard.Wait()
}

func parseLevel(name string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return zapcore.InfoLevel
	}
	return level
}
