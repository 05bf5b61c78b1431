package shutdown_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/serverless/shutdownd/catalog"
	"github.com/serverless/shutdownd/mock"
	"github.com/serverless/shutdownd/registry"
	"github.com/serverless/shutdownd/shutdown"
	"github.com/serverless/shutdownd/watcher"
)

var (
	admin = shutdown.Caller{Name: "admin", Privileged: true}
	guest = shutdown.Caller{Name: "guest"}
	sales = &catalog.Database{ID: 16384, Name: "sales", AllowConnections: true}
)

type fixture struct {
	registry *registry.Registry
	catalog  *mock.MockCatalogService
	sessions *mock.MockSessionService
	spawner  *mock.MockSpawner
	service  *shutdown.Coordinator
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	reg, err := registry.Create(registry.Config{Path: filepath.Join(t.TempDir(), "registry"), Capacity: registry.MinCapacity}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })

	f := &fixture{
		registry: reg,
		catalog:  mock.NewMockCatalogService(ctrl),
		sessions: mock.NewMockSessionService(ctrl),
		spawner:  mock.NewMockSpawner(ctrl),
	}
	f.service = &shutdown.Coordinator{
		Registry: reg,
		Catalog:  f.catalog,
		Sessions: f.sessions,
		Spawner:  f.spawner,
		Log:      zap.NewNop(),
	}
	return f
}

func TestShutdown_Transactional(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.catalog.EXPECT().GetDatabase(ctx, "sales").Return(sales, nil)
	f.catalog.EXPECT().SetConnectionsAllowed(ctx, "sales", false).Return(nil)
	f.spawner.EXPECT().Spawn(ctx, registry.DatabaseID(16384)).Return(registry.PID(4242), nil)

	result, err := f.service.Shutdown(ctx, admin, "sales", registry.Transactional)

	require.NoError(t, err)
	assert.Equal(t, &shutdown.Result{Database: "sales", DatabaseID: 16384, Mode: registry.Transactional, WatcherPID: 4242}, result)
	rec, err := f.registry.Get(16384)
	require.NoError(t, err)
	assert.Equal(t, registry.Record{DatabaseID: 16384, Mode: registry.Transactional, Running: true, WatcherPID: 4242}, rec)
}

func TestShutdown_Abort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.catalog.EXPECT().GetDatabase(ctx, "sales").Return(sales, nil).Times(2)
	f.catalog.EXPECT().SetConnectionsAllowed(ctx, "sales", false).Return(nil)
	gomock.InOrder(
		f.sessions.EXPECT().TerminateAll(ctx, registry.DatabaseID(16384)).Return(nil),
		f.sessions.EXPECT().Checkpoint(ctx).Return(nil),
	)

	result, err := f.service.Shutdown(ctx, admin, "sales", registry.Abort)
	require.NoError(t, err)
	assert.Empty(t, result.Warning)

	rec, err := f.registry.Get(16384)
	require.NoError(t, err)
	assert.Equal(t, registry.Abort, rec.Mode)
	assert.False(t, rec.Running)

	result, err = f.service.Shutdown(ctx, admin, "sales", registry.Abort)
	require.NoError(t, err)
	assert.Equal(t, `Database "sales" is already shut down.`, result.Warning)
	records, _, err := f.registry.Counts()
	require.NoError(t, err)
	assert.Equal(t, 1, records)
}

func TestShutdown_Immediate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.catalog.EXPECT().GetDatabase(ctx, "sales").Return(sales, nil)
	f.catalog.EXPECT().SetConnectionsAllowed(ctx, "sales", false).Return(nil)
	f.sessions.EXPECT().TerminateAll(ctx, registry.DatabaseID(16384)).Return(nil)

	_, err := f.service.Shutdown(ctx, admin, "sales", registry.Immediate)

	require.NoError(t, err)
	exists, err := f.registry.Exists(16384, false)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestShutdown_Normal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.catalog.EXPECT().GetDatabase(ctx, "sales").Return(sales, nil)
	f.catalog.EXPECT().SetConnectionsAllowed(ctx, "sales", false).Return(nil)

	_, err := f.service.Shutdown(ctx, admin, "sales", registry.Normal)

	require.NoError(t, err)
	rec, err := f.registry.Get(16384)
	require.NoError(t, err)
	assert.Equal(t, registry.Normal, rec.Mode)
	assert.Equal(t, registry.NoProcess, rec.WatcherPID)
}

func TestShutdown_ProtectedDatabase(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.Shutdown(context.Background(), admin, "postgres", registry.Normal)

	assert.Nil(t, result)
	assert.Equal(t, &shutdown.ErrProtectedDatabase{Name: "postgres"}, err)
	records, _, err := f.registry.Counts()
	require.NoError(t, err)
	assert.Equal(t, 0, records)
}

func TestShutdown_PermissionDenied(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Shutdown(context.Background(), guest, "sales", registry.Normal)

	assert.EqualError(t, err, "Permission denied to shut down a database.")
}

func TestShutdown_InvalidMode(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Shutdown(context.Background(), admin, "sales", registry.Init)

	assert.IsType(t, &registry.ErrInvalidMode{}, err)
}

func TestShutdown_NotAttached(t *testing.T) {
	service := &shutdown.Coordinator{Log: zap.NewNop()}

	_, err := service.Shutdown(context.Background(), admin, "sales", registry.Normal)
	assert.Equal(t, &registry.ErrNotAttached{}, err)
	_, err = service.Startup(context.Background(), admin, "sales")
	assert.Equal(t, &registry.ErrNotAttached{}, err)
	_, err = service.List(context.Background(), admin)
	assert.Equal(t, &registry.ErrNotAttached{}, err)
}

func TestShutdown_UnknownDatabase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.catalog.EXPECT().GetDatabase(ctx, "missing").Return(nil, &catalog.ErrDatabaseNotFound{Name: "missing"})

	_, err := f.service.Shutdown(ctx, admin, "missing", registry.Normal)

	assert.EqualError(t, err, `Database "missing" not found.`)
}

func TestShutdown_SpawnFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	spawnErr := &watcher.ErrSpawnFailed{DatabaseID: 16384, Reason: watcher.ResourceExhausted, Original: errors.New("fork failed")}
	f.catalog.EXPECT().GetDatabase(ctx, "sales").Return(sales, nil)
	gomock.InOrder(
		f.catalog.EXPECT().SetConnectionsAllowed(ctx, "sales", false).Return(nil),
		f.catalog.EXPECT().SetConnectionsAllowed(ctx, "sales", true).Return(nil),
	)
	f.spawner.EXPECT().Spawn(ctx, registry.DatabaseID(16384)).Return(registry.NoProcess, spawnErr)

	result, err := f.service.Shutdown(ctx, admin, "sales", registry.Transactional)

	assert.Nil(t, result)
	assert.Equal(t, spawnErr, err)
	exists, err := f.registry.Exists(16384, false)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestShutdown_CollaboratorFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.catalog.EXPECT().GetDatabase(ctx, "sales").Return(sales, nil)
	f.catalog.EXPECT().SetConnectionsAllowed(ctx, "sales", false).Return(errors.New("connection refused"))

	_, err := f.service.Shutdown(ctx, admin, "sales", registry.Normal)

	assert.EqualError(t, err, "connection refused")
	exists, err := f.registry.Exists(16384, false)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStartup_StopsWatcher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.registry.Insert(16384, registry.Transactional, true))
	require.NoError(t, f.registry.SetWatcherPID(16384, 4242))
	f.catalog.EXPECT().GetDatabase(ctx, "sales").Return(sales, nil)
	f.catalog.EXPECT().SetConnectionsAllowed(ctx, "sales", true).Return(nil)
	f.spawner.EXPECT().Stop(registry.PID(4242)).Return(nil)

	result, err := f.service.Startup(ctx, admin, "sales")

	require.NoError(t, err)
	assert.Equal(t, &shutdown.Result{Database: "sales", DatabaseID: 16384, WatcherPID: 4242}, result)
	exists, err := f.registry.Exists(16384, false)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStartup_DrainedWatcherNotStopped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.registry.Insert(16384, registry.Transactional, false))
	require.NoError(t, f.registry.SetWatcherPID(16384, 4242))
	f.catalog.EXPECT().GetDatabase(ctx, "sales").Return(sales, nil)
	f.catalog.EXPECT().SetConnectionsAllowed(ctx, "sales", true).Return(nil)

	_, err := f.service.Startup(ctx, admin, "sales")

	require.NoError(t, err)
}

func TestStartup_StopFailureStillRemoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.registry.Insert(16384, registry.Transactional, true))
	require.NoError(t, f.registry.SetWatcherPID(16384, 4242))
	f.catalog.EXPECT().GetDatabase(ctx, "sales").Return(sales, nil)
	f.catalog.EXPECT().SetConnectionsAllowed(ctx, "sales", true).Return(nil)
	f.spawner.EXPECT().Stop(registry.PID(4242)).Return(errors.New("operation not permitted"))

	_, err := f.service.Startup(ctx, admin, "sales")

	require.NoError(t, err)
	exists, err := f.registry.Exists(16384, false)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStartup_NotShutDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.catalog.EXPECT().GetDatabase(ctx, "sales").Return(sales, nil)

	result, err := f.service.Startup(ctx, admin, "sales")

	require.NoError(t, err)
	assert.Equal(t, `Database "sales" is not shut down.`, result.Warning)
}

func TestStartup_PermissionDenied(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Startup(context.Background(), guest, "sales")

	assert.EqualError(t, err, "Permission denied to start up a database.")
}

func TestStartup_ProtectedDatabase(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Startup(context.Background(), admin, "Template1")

	assert.Equal(t, &shutdown.ErrProtectedDatabase{Name: "Template1"}, err)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.registry.Insert(20000, registry.Abort, false))
	require.NoError(t, f.registry.Insert(16384, registry.Transactional, true))
	f.catalog.EXPECT().GetDatabaseByID(ctx, registry.DatabaseID(16384)).Return(sales, nil)
	f.catalog.EXPECT().GetDatabaseByID(ctx, registry.DatabaseID(20000)).Return(nil, &catalog.ErrDatabaseNotFound{ID: 20000})

	entries, err := f.service.List(ctx, admin)

	require.NoError(t, err)
	assert.Equal(t, []shutdown.Entry{
		{DatabaseID: 16384, Database: "sales", Mode: registry.Transactional, Running: true},
		{DatabaseID: 20000, Mode: registry.Abort},
	}, entries)
}

func TestList_Unprivileged(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Insert(16384, registry.Normal, false))

	entries, err := f.service.List(context.Background(), guest)

	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}

func TestList_CatalogFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.registry.Insert(16384, registry.Normal, false))
	f.catalog.EXPECT().GetDatabaseByID(ctx, registry.DatabaseID(16384)).Return(nil, errors.New("connection refused"))

	_, err := f.service.List(ctx, admin)

	assert.EqualError(t, err, "connection refused")
}
