package repository

import (
	"errors"
	"time"

	"github.com/Ayash-Bera/reelscout/internal/models"
	"gorm.io/gorm"
)

// RecommendationQueryRepositoryImpl implements RecommendationQueryRepository
type RecommendationQueryRepositoryImpl struct {
	db *gorm.DB
}

func NewRecommendationQueryRepository(db *gorm.DB) models.RecommendationQueryRepository {
	return &RecommendationQueryRepositoryImpl{db: db}
}

func (r *RecommendationQueryRepositoryImpl) Create(query *models.RecommendationQuery) error {
	return r.db.Create(query).Error
}

func (r *RecommendationQueryRepositoryImpl) GetBySession(session string) ([]models.RecommendationQuery, error) {
	var queries []models.RecommendationQuery
	err := r.db.Where("client_session = ?", session).
		Order("requested_at DESC").
		Find(&queries).Error
	return queries, err
}

func (r *RecommendationQueryRepositoryImpl) GetRecent(limit int) ([]models.RecommendationQuery, error) {
	var queries []models.RecommendationQuery
	err := r.db.Order("requested_at DESC").
		Limit(limit).
		Find(&queries).Error
	return queries, err
}

// PopularTitleRepositoryImpl implements PopularTitleRepository
type PopularTitleRepositoryImpl struct {
	db *gorm.DB
}

func NewPopularTitleRepository(db *gorm.DB) models.PopularTitleRepository {
	return &PopularTitleRepositoryImpl{db: db}
}

// Record bumps the request counter for title and folds the result count and
// response time into the running averages.
func (r *PopularTitleRepositoryImpl) Record(title string, resultsCount int, responseTimeMs int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		var popular models.PopularTitle
		err := tx.Where("title = ?", title).First(&popular).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&models.PopularTitle{
				Title:             title,
				RequestCount:      1,
				AvgResultsCount:   float64(resultsCount),
				AvgResponseTimeMs: responseTimeMs,
				LastRequested:     now,
			}).Error
		}
		if err != nil {
			return err
		}

		n := popular.RequestCount + 1
		popular.AvgResultsCount = (popular.AvgResultsCount*float64(popular.RequestCount) + float64(resultsCount)) / float64(n)
		popular.AvgResponseTimeMs = (popular.AvgResponseTimeMs*popular.RequestCount + responseTimeMs) / n
		popular.RequestCount = n
		popular.LastRequested = now

		return tx.Save(&popular).Error
	})
}

func (r *PopularTitleRepositoryImpl) GetTop(limit int) ([]models.PopularTitle, error) {
	var titles []models.PopularTitle
	err := r.db.Order("request_count DESC").
		Order("last_requested DESC").
		Limit(limit).
		Find(&titles).Error
	return titles, err
}

// SystemHealthRepositoryImpl implements SystemHealthRepository
type SystemHealthRepositoryImpl struct {
	db *gorm.DB
}

func NewSystemHealthRepository(db *gorm.DB) models.SystemHealthRepository {
	return &SystemHealthRepositoryImpl{db: db}
}

func (r *SystemHealthRepositoryImpl) UpdateServiceHealth(serviceName, status string, responseTime int, errorMsg string) error {
	return r.db.Create(&models.SystemHealth{
		ServiceName:    serviceName,
		Status:         status,
		ResponseTimeMs: responseTime,
		ErrorMessage:   errorMsg,
	}).Error
}

func (r *SystemHealthRepositoryImpl) GetServiceHealth(serviceName string) (*models.SystemHealth, error) {
	var health models.SystemHealth
	err := r.db.Where("service_name = ?", serviceName).
		Order("checked_at DESC").
		Order("id DESC").
		First(&health).Error
	if err != nil {
		return nil, err
	}
	return &health, nil
}

// RepositoryManager bundles all repositories
type RepositoryManager struct {
	RecommendationQuery models.RecommendationQueryRepository
	PopularTitle        models.PopularTitleRepository
	SystemHealth        models.SystemHealthRepository
}

func NewRepositoryManager(db *gorm.DB) *RepositoryManager {
	return &RepositoryManager{
		RecommendationQuery: NewRecommendationQueryRepository(db),
		PopularTitle:        NewPopularTitleRepository(db),
		SystemHealth:        NewSystemHealthRepository(db),
	}
}
