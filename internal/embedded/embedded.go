package embedded

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/coreos/etcd/embed"
	"github.com/coreos/pkg/capnslog"
	"go.uber.org/zap"

	"github.com/serverless/shutdownd/internal/sync"
)

// Config configures the embedded etcd instance.
type Config struct {
	DataDir    string
	PeerAddr   string
	ClientAddr string
	// StartTimeout bounds how long to wait for the server to become ready.
	StartTimeout time.Duration
	Log          *zap.Logger
}

// EmbedEtcd starts an embedded etcd instance serving the database catalog in development mode.
// It returns once the server is ready and stops it when the shutdown guard fires.
func EmbedEtcd(cfg Config, shutdownGuard *sync.ShutdownGuard) error {
	ecfg := embed.NewConfig()

	clientURL, err := url.Parse(cfg.ClientAddr)
	if err != nil {
		return fmt.Errorf("invalid etcd client address: %w", err)
	}
	peerURL, err := url.Parse(cfg.PeerAddr)
	if err != nil {
		return fmt.Errorf("invalid etcd peer address: %w", err)
	}

	// client/peer advertisement addresses
	ecfg.ACUrls = []url.URL{*clientURL}
	ecfg.APUrls = []url.URL{*peerURL}

	// client/peer listen addresses
	ecfg.LCUrls = []url.URL{*clientURL}
	ecfg.LPUrls = []url.URL{*peerURL}

	ecfg.InitialCluster = "default=" + cfg.PeerAddr
	ecfg.Dir = cfg.DataDir

	// reduce log spam unless in verbose mode
	etcdLogger, err := capnslog.GetRepoLogger("github.com/coreos/etcd")
	if err != nil {
		return err
	}
	etcdLogger.SetLogLevel(map[string]capnslog.LogLevel{
		"etcdserver/api":        capnslog.CRITICAL,
		"etcdserver/membership": capnslog.CRITICAL,
		"etcdserver":            capnslog.CRITICAL,
		"raft":                  capnslog.CRITICAL,
		"auth":                  capnslog.CRITICAL,
		"embed":                 capnslog.CRITICAL,
		"wal":                   capnslog.CRITICAL,
	})

	e, err := embed.StartEtcd(ecfg)
	if err != nil {
		return err
	}

	timeout := cfg.StartTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	select {
	case <-e.Server.ReadyNotify():
	case <-time.After(timeout):
		e.Server.Stop()
		return errors.New("embedded etcd took too long to start")
	}

	shutdownGuard.Go(func() {
		// run until error or shutdown
		select {
		case <-shutdownGuard.ShuttingDown:
		case err := <-e.Err():
			cfg.Log.Error("Embedded etcd failed.", zap.Error(err))
		}
		e.Close()
	})
	return nil
}
