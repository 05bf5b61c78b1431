package watcher

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	goplugin "github.com/hashicorp/go-plugin"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/serverless/shutdownd/registry"
	"github.com/serverless/shutdownd/watcher/shared"
)

const (
	defaultStartTimeout = 30 * time.Second
	stopGracePeriod     = 10 * time.Second
)

// ProcessSpawner runs every watcher as a child process re-executing the shutdownd binary with
// the watcher subcommand. The child attaches to the registry segment, registers itself and
// answers a Status call once ready.
type ProcessSpawner struct {
	// Executable defaults to the running binary.
	Executable   string
	RegistryPath string
	Interval     *Interval
	// Args are appended to the watcher subcommand arguments.
	Args []string
	// Env is added to the environment of the child.
	Env          []string
	StartTimeout time.Duration
	Log          *zap.Logger

	mu      sync.Mutex
	clients map[registry.PID]*goplugin.Client
}

var _ Spawner = (*ProcessSpawner)(nil)

// Spawn starts a watcher process for the database and waits for it to report ready.
func (s *ProcessSpawner) Spawn(ctx context.Context, id registry.DatabaseID) (registry.PID, error) {
	exe, err := s.executable()
	if err != nil {
		return registry.NoProcess, spawnFailed(id, err)
	}

	args := append([]string{
		shared.Subcommand,
		"-registry-path", s.RegistryPath,
		"-database-id", strconv.FormatUint(uint64(id), 10),
		"-interval", s.Interval.Get().String(),
	}, s.Args...)
	cmd := exec.Command(exe, args...)
	cmd.Env = s.Env
	bindToParent(cmd)

	timeout := s.StartTimeout
	if timeout <= 0 {
		timeout = defaultStartTimeout
	}
	client := goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig:  shared.Handshake,
		Plugins:          pluginMap,
		Cmd:              cmd,
		AllowedProtocols: []goplugin.Protocol{goplugin.ProtocolNetRPC},
		StartTimeout:     timeout,
		Stderr:           os.Stderr,
		Logger: hclog.New(&hclog.LoggerOptions{
			Name:   "watcher",
			Level:  hclog.Warn,
			Output: zap.NewStdLog(s.Log).Writer(),
		}),
	})

	type result struct {
		status Status
		err    error
	}
	done := make(chan result, 1)
	go func() {
		status, err := dial(client)
		done <- result{status, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		client.Kill()
		<-done
		return registry.NoProcess, spawnFailed(id, ctx.Err())
	}
	if res.err == nil && res.status.DatabaseID != id {
		res.err = fmt.Errorf("watcher reported database %d", res.status.DatabaseID)
	}
	if res.err != nil {
		client.Kill()
		return registry.NoProcess, spawnFailed(id, res.err)
	}

	s.mu.Lock()
	if s.clients == nil {
		s.clients = map[registry.PID]*goplugin.Client{}
	}
	s.clients[res.status.PID] = client
	s.mu.Unlock()

	s.Log.Debug("Watcher process started.", zap.Uint32("databaseId", uint32(id)), zap.Int32("pid", int32(res.status.PID)))
	return res.status.PID, nil
}

func dial(client *goplugin.Client) (Status, error) {
	rpcClient, err := client.Client()
	if err != nil {
		return Status{}, err
	}
	raw, err := rpcClient.Dispense(shared.PluginName)
	if err != nil {
		return Status{}, err
	}
	reporter, ok := raw.(Reporter)
	if !ok {
		return Status{}, fmt.Errorf("unexpected plugin type %T", raw)
	}
	return reporter.Status()
}

// Stop sends SIGTERM to a watcher this spawner started. A PID it did not start belongs to a
// watcher left over from a previous coordinator; it is killed if it still runs the watcher
// subcommand.
func (s *ProcessSpawner) Stop(pid registry.PID) error {
	s.mu.Lock()
	client, ok := s.clients[pid]
	delete(s.clients, pid)
	s.mu.Unlock()

	if !ok {
		return s.killStale(pid)
	}
	if client.Exited() {
		client.Kill()
		return nil
	}

	if err := unix.Kill(int(pid), unix.SIGTERM); err != nil && err != unix.ESRCH {
		return err
	}
	go s.reap(pid, client)
	return nil
}

// reap waits for a stopped watcher to exit, killing it after the grace period.
func (s *ProcessSpawner) reap(pid registry.PID, client *goplugin.Client) {
	deadline := time.Now().Add(stopGracePeriod)
	for !client.Exited() && time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
	}
	if !client.Exited() {
		s.Log.Warn("Watcher ignored stop request, killing it.", zap.Int32("pid", int32(pid)))
	}
	client.Kill()
}

func (s *ProcessSpawner) killStale(pid registry.PID) error {
	if pid <= 0 {
		return nil
	}
	if err := unix.Kill(int(pid), 0); err == unix.ESRCH {
		s.Log.Debug("Stale watcher already gone.", zap.Int32("pid", int32(pid)))
		return nil
	}

	exe, err := s.executable()
	if err != nil {
		return err
	}
	if !runsWatcher(pid, exe) {
		s.Log.Warn("PID no longer belongs to a watcher, not killing it.", zap.Int32("pid", int32(pid)))
		return nil
	}

	s.Log.Info("Killing stale watcher.", zap.Int32("pid", int32(pid)))
	if err := unix.Kill(int(pid), unix.SIGKILL); err != nil && err != unix.ESRCH {
		return err
	}
	return nil
}

// runsWatcher reports whether the process runs exe with the watcher subcommand.
func runsWatcher(pid registry.PID, exe string) bool {
	cmdline, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(int(pid)), "cmdline"))
	if err != nil {
		return false
	}
	args := bytes.Split(bytes.TrimRight(cmdline, "\x00"), []byte{0})
	if len(args) < 2 || filepath.Base(string(args[0])) != filepath.Base(exe) {
		return false
	}
	for _, arg := range args[1:] {
		if string(arg) == shared.Subcommand {
			return true
		}
	}
	return false
}

func (s *ProcessSpawner) executable() (string, error) {
	if s.Executable != "" {
		return s.Executable, nil
	}
	return os.Executable()
}

// Close asks every watcher process to quit and waits for them.
func (s *ProcessSpawner) Close() error {
	s.mu.Lock()
	clients := s.clients
	s.clients = nil
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, client := range clients {
		wg.Add(1)
		go func(c *goplugin.Client) {
			defer wg.Done()
			c.Kill()
		}(client)
	}
	wg.Wait()
	return nil
}
