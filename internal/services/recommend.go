package services

import (
	"context"
	"strings"
	"time"

	"github.com/Ayash-Bera/reelscout/internal/models"
	"github.com/Ayash-Bera/reelscout/internal/posters"
	"github.com/Ayash-Bera/reelscout/internal/recommender"
	"github.com/Ayash-Bera/reelscout/internal/repository"
	"github.com/sirupsen/logrus"
)

const (
	DefaultSuggestionLimit = 20
	MaxSuggestionLimit     = 50
)

// RequestMeta describes the client behind a gateway request. It is only
// used for analytics.
type RequestMeta struct {
	Session   string
	UserAgent string
	IPAddress string
}

type RecommendationService struct {
	backend     recommender.Backend
	posters     *posters.Resolver
	repoManager *repository.RepositoryManager
	logger      *logrus.Logger
}

// NewRecommendationService wires the backend with optional poster lookup and
// analytics. A nil or keyless resolver leaves posters out; a nil repoManager
// disables recording and makes the analytics queries return empty lists.
func NewRecommendationService(
	backend recommender.Backend,
	posterResolver *posters.Resolver,
	repoManager *repository.RepositoryManager,
	logger *logrus.Logger,
) *RecommendationService {
	return &RecommendationService{
		backend:     backend,
		posters:     posterResolver,
		repoManager: repoManager,
		logger:      logger,
	}
}

// Suggest returns title suggestions for query. A blank query returns an
// empty list without calling the backend.
func (s *RecommendationService) Suggest(ctx context.Context, query string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	if limit > MaxSuggestionLimit {
		limit = MaxSuggestionLimit
	}

	return s.backend.FetchSuggestions(ctx, query, limit)
}

// Recommend asks the backend for topK titles similar to title and records
// the outcome when analytics are enabled.
func (s *RecommendationService) Recommend(ctx context.Context, title string, topK int, meta RequestMeta) ([]recommender.RecommendItem, error) {
	start := time.Now()

	items, err := s.backend.FetchRecommendations(ctx, title, topK)
	elapsed := time.Since(start)

	s.logger.WithFields(logrus.Fields{
		"title":         title,
		"top_k":         topK,
		"results_count": len(items),
		"response_time": elapsed.Milliseconds(),
		"success":       err == nil,
	}).Info("Recommendation request completed")

	s.track(title, topK, len(items), err == nil, elapsed, meta)

	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []recommender.RecommendItem{}
	}
	return s.posters.Annotate(ctx, items), nil
}

// Popular returns the most requested seed titles.
func (s *RecommendationService) Popular(limit int) ([]models.PopularTitle, error) {
	if s.repoManager == nil {
		return []models.PopularTitle{}, nil
	}
	titles, err := s.repoManager.PopularTitle.GetTop(limit)
	if err != nil {
		return nil, err
	}
	if titles == nil {
		titles = []models.PopularTitle{}
	}
	return titles, nil
}

// Recent returns the latest recommendation requests across all clients.
func (s *RecommendationService) Recent(limit int) ([]models.RecommendationQuery, error) {
	if s.repoManager == nil {
		return []models.RecommendationQuery{}, nil
	}
	return nonNil(s.repoManager.RecommendationQuery.GetRecent(limit))
}

// History returns the requests recorded for one client session.
func (s *RecommendationService) History(session string) ([]models.RecommendationQuery, error) {
	if s.repoManager == nil {
		return []models.RecommendationQuery{}, nil
	}
	return nonNil(s.repoManager.RecommendationQuery.GetBySession(session))
}

func nonNil(queries []models.RecommendationQuery, err error) ([]models.RecommendationQuery, error) {
	if err != nil {
		return nil, err
	}
	if queries == nil {
		queries = []models.RecommendationQuery{}
	}
	return queries, nil
}

func (s *RecommendationService) AnalyticsEnabled() bool {
	return s.repoManager != nil
}

func (s *RecommendationService) track(title string, topK, resultsCount int, success bool, elapsed time.Duration, meta RequestMeta) {
	if s.repoManager == nil {
		return
	}

	query := &models.RecommendationQuery{
		Title:          title,
		TopK:           topK,
		ResultsCount:   resultsCount,
		Success:        success,
		ResponseTimeMs: int(elapsed.Milliseconds()),
		ClientSession:  meta.Session,
		UserAgent:      meta.UserAgent,
		IPAddress:      meta.IPAddress,
	}
	if err := s.repoManager.RecommendationQuery.Create(query); err != nil {
		s.logger.WithError(err).Error("Failed to track recommendation query")
	}

	if !success {
		return
	}
	if err := s.repoManager.PopularTitle.Record(title, resultsCount, int(elapsed.Milliseconds())); err != nil {
		s.logger.WithError(err).Error("Failed to update popular titles")
	}
}
