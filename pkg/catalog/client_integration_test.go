//go:build integration

package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Sternrassler/artic-browser/internal/testutil"
	"github.com/Sternrassler/artic-browser/pkg/catalog"
	"github.com/Sternrassler/artic-browser/pkg/pagination"
	"github.com/Sternrassler/artic-browser/pkg/ratelimit"
	"github.com/Sternrassler/artic-browser/pkg/selection"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, testcontainers.Container) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	t.Cleanup(func() {
		redisClient.Close()
		container.Terminate(context.Background())
	})

	return redisClient, container
}

func newIntegrationStore(t *testing.T, mock *testutil.MockCatalog, rdb *redis.Client) *pagination.Store {
	t.Helper()

	cfg := catalog.DefaultConfig("ArticBrowserIntegration/1.0")
	cfg.BaseURL = mock.URL()
	cfg.Timeout = 10 * time.Second
	cfg.Redis = rdb
	cfg.Throttle = ratelimit.NewTracker(ratelimit.Config{RequestsPerSecond: 50, Burst: 5}, zerolog.Nop())

	client, err := catalog.New(cfg)
	require.NoError(t, err)

	store, err := pagination.NewStore(client, pagination.Config{PageSize: 12, Timeout: 20 * time.Second})
	require.NoError(t, err)
	return store
}

// TestBrowseSelectAndReturn pages through a cached catalog, selects rows on
// two pages and checks that returning to a page is served from the cache and
// shows the same checked rows.
func TestBrowseSelectAndReturn(t *testing.T) {
	rdb, _ := setupRedis(t)

	mock := testutil.NewMockCatalog(97)
	defer mock.Close()

	store := newIntegrationStore(t, mock, rdb)
	reconciler := selection.NewReconciler(selection.NewSet())
	bulk := selection.NewBulkSelector(reconciler)
	ctx := context.Background()

	snap, err := store.LoadPage(ctx, 1)
	require.NoError(t, err)
	visible := bulk.SelectFirstN(snap.Records, 3)
	require.Len(t, visible, 3)

	snap, err = store.LoadPage(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, reconciler.Visible(snap.Records))
	reconciler.Toggle(snap.Records, snap.Records[5].ID)

	snap, err = store.LoadPage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.RequestCount(), "page 1 must come from the cache")

	visible = reconciler.Visible(snap.Records)
	require.Len(t, visible, 3)
	assert.Equal(t, mock.RecordID(0), visible[0].ID)
	assert.Equal(t, 4, reconciler.Set().Len())

	snap, err = store.LoadPage(ctx, 9)
	require.NoError(t, err)
	assert.Len(t, snap.Records, 1)
	assert.Equal(t, 9, snap.TotalPages)
}

// TestConditionalRevalidation checks that no-cache pages are revalidated
// with If-None-Match and answered from the cache on 304.
func TestConditionalRevalidation(t *testing.T) {
	rdb, _ := setupRedis(t)

	mock := testutil.NewMockCatalog(40)
	defer mock.Close()
	mock.SetETag(`"catalog-v1"`)

	store := newIntegrationStore(t, mock, rdb)
	ctx := context.Background()

	first, err := store.LoadPage(ctx, 2)
	require.NoError(t, err)

	second, err := store.LoadPage(ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, mock.RequestCount())
	assert.Equal(t, 1, mock.ConditionalCount())
	assert.Equal(t, first.Records, second.Records)
}

// TestCacheOutageDoesNotFailFetch stops Redis mid-session; pages must still load.
func TestCacheOutageDoesNotFailFetch(t *testing.T) {
	rdb, container := setupRedis(t)

	mock := testutil.NewMockCatalog(40)
	defer mock.Close()

	store := newIntegrationStore(t, mock, rdb)
	ctx := context.Background()

	_, err := store.LoadPage(ctx, 1)
	require.NoError(t, err)

	timeout := 5 * time.Second
	require.NoError(t, container.Stop(ctx, &timeout))

	snap, err := store.LoadPage(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.PageNumber)
	assert.Len(t, snap.Records, 12)
}

// TestQuotaExhaustionKeepsLastPage checks that a 429 with an exhausted quota
// blocks the next request locally and the store keeps the last good page.
func TestQuotaExhaustionKeepsLastPage(t *testing.T) {
	rdb, _ := setupRedis(t)

	mock := testutil.NewMockCatalog(40)
	defer mock.Close()

	store := newIntegrationStore(t, mock, rdb)
	ctx := context.Background()

	_, err := store.LoadPage(ctx, 1)
	require.NoError(t, err)

	mock.SetResponse(testutil.NewRateLimitResponse())
	snap, err := store.LoadPage(ctx, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrFetchFailure)
	assert.Equal(t, 1, snap.PageNumber)

	mock.ClearResponse()
	snap, err = store.LoadPage(ctx, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ratelimit.ErrQuotaExhausted)
	assert.Equal(t, 1, snap.PageNumber)
	assert.Equal(t, 2, mock.RequestCount())
}
