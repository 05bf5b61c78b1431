package httpapi

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/serverless/shutdownd/internal/sync"
)

// ShutdownTimeout bounds how long in-flight admin requests may run once shutdown starts.
const ShutdownTimeout = 10 * time.Second

// ServerConfig contains information for an HTTP listener to interact with its environment.
type ServerConfig struct {
	Log           *zap.Logger
	TLSCrt        string
	TLSKey        string
	Port          uint
	ShutdownGuard *sync.ShutdownGuard
}

// Server serves the admin API until the shutdown guard fires.
type Server struct {
	Config      ServerConfig
	HTTPHandler *http.Server
}

// Listen binds the server address and serves on it. Failures are logged.
func (s Server) Listen() {
	l, err := s.listen()
	if err != nil {
		s.Config.Log.Error("Cannot listen for admin requests.", zap.String("address", s.HTTPHandler.Addr), zap.Error(err))
		return
	}
	if err := s.Serve(l); err != nil {
		s.Config.Log.Error("HTTP server failed.", zap.Error(err))
	}
}

// listen opens the TCP listener, wrapped in TLS when a certificate pair is configured. The
// pair is loaded before any connection is accepted.
func (s Server) listen() (net.Listener, error) {
	var conf *tls.Config
	if s.Config.TLSCrt != "" && s.Config.TLSKey != "" {
		cert, err := tls.LoadX509KeyPair(s.Config.TLSCrt, s.Config.TLSKey)
		if err != nil {
			return nil, err
		}
		conf = &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{cert},
		}
	}

	l, err := net.Listen("tcp", s.HTTPHandler.Addr)
	if err != nil {
		return nil, err
	}
	if conf != nil {
		return tls.NewListener(l, conf), nil
	}
	return l, nil
}

// Serve answers requests on l. Once the shutdown guard fires it stops accepting connections
// and waits up to ShutdownTimeout for in-flight requests.
func (s Server) Serve(l net.Listener) error {
	served := make(chan error, 1)
	go func() {
		served <- s.HTTPHandler.Serve(l)
	}()

	select {
	case err := <-served:
		return err
	case <-s.Config.ShutdownGuard.ShuttingDown:
	}

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.HTTPHandler.Shutdown(ctx); err != nil {
		return err
	}
	if err := <-served; err != http.ErrServerClosed {
		return err
	}
	return nil
}
