package repository

import (
	"testing"
	"time"

	"github.com/Ayash-Bera/reelscout/internal/database"
	"github.com/Ayash-Bera/reelscout/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func TestRecommendationQueryRepository(t *testing.T) {
	repos := NewRepositoryManager(newTestDB(t))

	first := &models.RecommendationQuery{Title: "Toy Story (1995)", TopK: 5, ResultsCount: 5, Success: true, ClientSession: "abc"}
	require.NoError(t, repos.RecommendationQuery.Create(first))
	assert.NotZero(t, first.ID)
	assert.False(t, first.RequestedAt.IsZero())

	second := &models.RecommendationQuery{Title: "Heat (1995)", TopK: 3, ClientSession: "abc", RequestedAt: time.Now().Add(time.Minute)}
	require.NoError(t, repos.RecommendationQuery.Create(second))

	bySession, err := repos.RecommendationQuery.GetBySession("abc")
	require.NoError(t, err)
	require.Len(t, bySession, 2)
	assert.Equal(t, "Heat (1995)", bySession[0].Title)

	assert.Equal(t, "Toy Story (1995)", bySession[1].Title)

	recent, err := repos.RecommendationQuery.GetRecent(1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Heat (1995)", recent[0].Title)
}

func TestRecommendationQueryRepository_Validation(t *testing.T) {
	repos := NewRepositoryManager(newTestDB(t))

	assert.Error(t, repos.RecommendationQuery.Create(&models.RecommendationQuery{Title: " ", TopK: 5}))
	assert.Error(t, repos.RecommendationQuery.Create(&models.RecommendationQuery{Title: "Heat (1995)", TopK: 16}))
	assert.Error(t, repos.RecommendationQuery.Create(&models.RecommendationQuery{Title: "Heat (1995)", TopK: 0}))
}

func TestPopularTitleRepository_Record(t *testing.T) {
	repos := NewRepositoryManager(newTestDB(t))

	require.NoError(t, repos.PopularTitle.Record("Toy Story (1995)", 5, 100))
	require.NoError(t, repos.PopularTitle.Record("Toy Story (1995)", 3, 200))
	require.NoError(t, repos.PopularTitle.Record("Heat (1995)", 5, 50))

	top, err := repos.PopularTitle.GetTop(10)
	require.NoError(t, err)
	require.Len(t, top, 2)

	assert.Equal(t, "Toy Story (1995)", top[0].Title)
	assert.Equal(t, 2, top[0].RequestCount)
	assert.InDelta(t, 4.0, top[0].AvgResultsCount, 1e-9)
	assert.Equal(t, 150, top[0].AvgResponseTimeMs)
	assert.Equal(t, "Heat (1995)", top[1].Title)

	limited, err := repos.PopularTitle.GetTop(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSystemHealthRepository(t *testing.T) {
	repos := NewRepositoryManager(newTestDB(t))

	require.NoError(t, repos.SystemHealth.UpdateServiceHealth("recommender", "unhealthy", 10, "HTTP 500"))
	require.NoError(t, repos.SystemHealth.UpdateServiceHealth("recommender", "healthy", 8, ""))

	latest, err := repos.SystemHealth.GetServiceHealth("recommender")
	require.NoError(t, err)
	assert.Equal(t, "healthy", latest.Status)

	assert.Error(t, repos.SystemHealth.UpdateServiceHealth("recommender", "sideways", 1, ""))

	_, err = repos.SystemHealth.GetServiceHealth("unknown")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
