package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/serverless/shutdownd/mock"
	"github.com/serverless/shutdownd/registry"
)

type uncountable struct {
	*registry.Registry
}

func (uncountable) WatcherStarted() error {
	return errors.New("counter unavailable")
}

type runResult struct {
	state State
	err   error
}

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.Create(registry.Config{Path: filepath.Join(t.TempDir(), "registry"), Capacity: registry.MinCapacity}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })
	return reg
}

func start(ctx context.Context, w *Watcher) <-chan runResult {
	done := make(chan runResult, 1)
	go func() {
		state, err := w.Run(ctx)
		done <- runResult{state, err}
	}()
	return done
}

func TestRun_Drained(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reg := newRegistry(t)
	require.NoError(t, reg.Insert(16384, registry.Transactional, true))
	sessions := mock.NewMockSessionService(ctrl)
	gomock.InOrder(
		sessions.EXPECT().CountActive(gomock.Any(), registry.DatabaseID(16384)).Return(3, nil),
		sessions.EXPECT().CountActive(gomock.Any(), registry.DatabaseID(16384)).Return(0, nil),
	)
	clock := clockwork.NewFakeClock()
	ready := make(chan struct{})
	w := &Watcher{
		DatabaseID: 16384,
		PID:        4242,
		Registry:   reg,
		Sessions:   sessions,
		Interval:   time.Second,
		Clock:      clock,
		Log:        zap.NewNop(),
		OnReady:    func() { close(ready) },
	}

	done := start(context.Background(), w)
	<-ready

	rec, err := reg.Get(16384)
	require.NoError(t, err)
	assert.Equal(t, registry.PID(4242), rec.WatcherPID)
	_, watchers, err := reg.Counts()
	require.NoError(t, err)
	assert.Equal(t, 1, watchers)

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	clock.BlockUntil(1)
	clock.Advance(time.Second)

	res := <-done
	assert.Equal(t, Drained, res.state)
	assert.NoError(t, res.err)
	assert.Equal(t, Drained, w.State())

	rec, err = reg.Get(16384)
	require.NoError(t, err)
	assert.False(t, rec.Running)
	assert.Equal(t, registry.PID(4242), rec.WatcherPID)
	_, watchers, err = reg.Counts()
	require.NoError(t, err)
	assert.Equal(t, 0, watchers)
}

func TestRun_CancelledWhileWaiting(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reg := newRegistry(t)
	require.NoError(t, reg.Insert(1, registry.Transactional, true))
	sessions := mock.NewMockSessionService(ctrl)
	clock := clockwork.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{DatabaseID: 1, PID: 7, Registry: reg, Sessions: sessions, Interval: time.Hour, Clock: clock, Log: zap.NewNop()}

	done := start(ctx, w)
	clock.BlockUntil(1)
	cancel()

	res := <-done
	assert.Equal(t, Cancelled, res.state)
	assert.NoError(t, res.err)

	exists, err := reg.Exists(1, true)
	require.NoError(t, err)
	assert.True(t, exists, "cancelled watcher must leave the running flag alone")
	_, watchers, err := reg.Counts()
	require.NoError(t, err)
	assert.Equal(t, 0, watchers)
}

func TestRun_CancelCheckedBeforePoll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reg := newRegistry(t)
	require.NoError(t, reg.Insert(1, registry.Transactional, true))
	sessions := mock.NewMockSessionService(ctrl)
	clock := clockwork.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := &Watcher{DatabaseID: 1, PID: 7, Registry: reg, Sessions: sessions, Interval: time.Second, Clock: clock, Log: zap.NewNop()}

	state, err := w.Run(ctx)

	assert.Equal(t, Cancelled, state)
	assert.NoError(t, err)
}

func TestRun_CollaboratorFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reg := newRegistry(t)
	require.NoError(t, reg.Insert(1, registry.Transactional, true))
	sessions := mock.NewMockSessionService(ctrl)
	sessions.EXPECT().CountActive(gomock.Any(), registry.DatabaseID(1)).Return(0, errors.New("connection refused"))
	clock := clockwork.NewFakeClock()
	w := &Watcher{DatabaseID: 1, PID: 7, Registry: reg, Sessions: sessions, Interval: time.Second, Clock: clock, Log: zap.NewNop()}

	done := start(context.Background(), w)
	clock.BlockUntil(1)
	clock.Advance(time.Second)

	res := <-done
	assert.Equal(t, Failed, res.state)
	assert.EqualError(t, res.err, "Watcher for database 1 failed: connection refused")

	exists, err := reg.Exists(1, true)
	require.NoError(t, err)
	assert.False(t, exists)
	_, watchers, err := reg.Counts()
	require.NoError(t, err)
	assert.Equal(t, 0, watchers)
}

func TestRun_RecordMissing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reg := newRegistry(t)
	ready := false
	w := &Watcher{
		DatabaseID: 1,
		PID:        7,
		Registry:   reg,
		Sessions:   mock.NewMockSessionService(ctrl),
		Clock:      clockwork.NewFakeClock(),
		Log:        zap.NewNop(),
		OnReady:    func() { ready = true },
	}

	state, err := w.Run(context.Background())

	assert.Equal(t, Failed, state)
	assert.Equal(t, &ErrWatcherFailed{DatabaseID: 1, Original: &registry.ErrRecordNotFound{ID: 1}}, err)
	assert.False(t, ready)
	_, watchers, err := reg.Counts()
	require.NoError(t, err)
	assert.Equal(t, 0, watchers)
}

func TestRun_WatcherStartedFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reg := newRegistry(t)
	require.NoError(t, reg.Insert(1, registry.Transactional, true))
	w := &Watcher{
		DatabaseID: 1,
		PID:        7,
		Registry:   uncountable{reg},
		Sessions:   mock.NewMockSessionService(ctrl),
		Clock:      clockwork.NewFakeClock(),
		Log:        zap.NewNop(),
	}

	state, err := w.Run(context.Background())

	assert.Equal(t, Failed, state)
	assert.EqualError(t, err, "Watcher for database 1 failed: counter unavailable")
	rec, err := reg.Get(1)
	require.NoError(t, err)
	assert.False(t, rec.Running)
	assert.Equal(t, registry.PID(7), rec.WatcherPID)
}

func TestRun_RegistryRecreated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reg := newRegistry(t)
	require.NoError(t, reg.Insert(16384, registry.Transactional, true))
	clock := clockwork.NewFakeClock()
	ready := make(chan struct{})
	w := &Watcher{
		DatabaseID: 16384,
		PID:        4242,
		Registry:   reg,
		Sessions:   mock.NewMockSessionService(ctrl),
		Interval:   time.Second,
		Clock:      clock,
		Log:        zap.NewNop(),
		OnReady:    func() { close(ready) },
	}

	done := start(context.Background(), w)
	<-ready

	restarted, err := registry.Create(registry.Config{Path: reg.Path(), Capacity: registry.MinCapacity}, zap.NewNop())
	require.NoError(t, err)
	defer restarted.Close()
	require.NoError(t, restarted.Insert(16384, registry.Init, false))

	clock.BlockUntil(1)
	clock.Advance(time.Second)

	res := <-done
	assert.Equal(t, Cancelled, res.state)
	assert.NoError(t, res.err)

	assert.Equal(t, []registry.Record{
		{DatabaseID: 16384, Mode: registry.Transactional, Running: true, WatcherPID: 4242},
	}, restarted.Inherited())
	rec, err := restarted.Get(16384)
	require.NoError(t, err)
	assert.Equal(t, registry.Record{DatabaseID: 16384, Mode: registry.Init}, rec)
	_, watchers, err := restarted.Counts()
	require.NoError(t, err)
	assert.Equal(t, 0, watchers)
}

func TestRun_DefaultInterval(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reg := newRegistry(t)
	require.NoError(t, reg.Insert(1, registry.Transactional, true))
	sessions := mock.NewMockSessionService(ctrl)
	sessions.EXPECT().CountActive(gomock.Any(), registry.DatabaseID(1)).Return(0, nil)
	clock := clockwork.NewFakeClock()
	polls := 0
	w := &Watcher{DatabaseID: 1, PID: 7, Registry: reg, Sessions: sessions, Clock: clock, Log: zap.NewNop(), OnPoll: func(int) { polls++ }}

	done := start(context.Background(), w)
	clock.BlockUntil(1)
	clock.Advance(DefaultInterval - time.Second)
	select {
	case <-done:
		t.Fatal("watcher polled before the interval elapsed")
	case <-time.After(20 * time.Millisecond):
	}
	clock.Advance(time.Second)

	res := <-done
	assert.Equal(t, Drained, res.state)
	assert.Equal(t, 1, polls)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "drained", Drained.String())
	assert.Equal(t, "cancelled", Cancelled.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestInterval(t *testing.T) {
	interval := NewInterval(0)
	assert.Equal(t, DefaultInterval, interval.Get())

	interval.Set(time.Second)
	assert.Equal(t, time.Second, interval.Get())

	var unset *Interval
	assert.Equal(t, DefaultInterval, unset.Get())
}
