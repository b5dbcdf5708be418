package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Ayash-Bera/reelscout/internal/database"
	"github.com/Ayash-Bera/reelscout/internal/recommender"
	"github.com/Ayash-Bera/reelscout/internal/repository"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type healthBackend struct {
	err error
}

func (b *healthBackend) FetchSuggestions(ctx context.Context, query string, limit int) ([]string, error) {
	return nil, nil
}

func (b *healthBackend) FetchRecommendations(ctx context.Context, title string, topK int) ([]recommender.RecommendItem, error) {
	return nil, nil
}

func (b *healthBackend) Health(ctx context.Context) error {
	return b.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newStores(t *testing.T) (*database.Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	return &database.Manager{DB: db, Redis: client}, mr
}

func TestCheckAll_BackendOnly(t *testing.T) {
	h := NewHealthChecker(&healthBackend{}, &database.Manager{}, nil, quietLogger())

	health := h.CheckAll(context.Background())
	assert.Equal(t, StatusHealthy, health.Status)
	require.Len(t, health.Services, 1)
	assert.Equal(t, "recommender", health.Services[0].Name)
}

func TestCheckAll_BackendDown(t *testing.T) {
	h := NewHealthChecker(&healthBackend{err: errors.New("connection refused")}, nil, nil, quietLogger())

	health := h.CheckAll(context.Background())
	assert.Equal(t, StatusUnhealthy, health.Status)
	assert.Equal(t, "connection refused", health.Services[0].Error)
}

func TestCheckAll_StoresPersistedAndDegraded(t *testing.T) {
	manager, mr := newStores(t)
	repos := repository.NewRepositoryManager(manager.DB)
	h := NewHealthChecker(&healthBackend{}, manager, repos.SystemHealth, quietLogger())

	health := h.CheckAll(context.Background())
	assert.Equal(t, StatusHealthy, health.Status)
	assert.Len(t, health.Services, 3)

	stored, err := repos.SystemHealth.GetServiceHealth("recommender")
	require.NoError(t, err)
	assert.Equal(t, StatusHealthy, stored.Status)

	mr.Close()
	health = h.CheckAll(context.Background())
	assert.Equal(t, StatusDegraded, health.Status)
}

func TestCheckCached(t *testing.T) {
	manager, _ := newStores(t)
	manager.DB = nil
	h := NewHealthChecker(&healthBackend{}, manager, nil, quietLogger())

	_, err := h.CheckCached(context.Background())
	assert.True(t, errors.Is(err, database.ErrCacheMiss))

	h.RefreshCache(context.Background(), time.Minute)

	cached, err := h.CheckCached(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusHealthy, cached.Status)
	assert.Len(t, cached.Services, 2)
}

func TestCheckCached_WithoutRedis(t *testing.T) {
	h := NewHealthChecker(&healthBackend{}, nil, nil, quietLogger())

	_, err := h.CheckCached(context.Background())
	assert.True(t, errors.Is(err, database.ErrCacheMiss))

	current := h.Current(context.Background())
	assert.Equal(t, StatusHealthy, current.Status)
}
