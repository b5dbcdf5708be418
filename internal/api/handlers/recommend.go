package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Ayash-Bera/reelscout/internal/health"
	"github.com/Ayash-Bera/reelscout/internal/models"
	"github.com/Ayash-Bera/reelscout/internal/recommender"
	"github.com/Ayash-Bera/reelscout/internal/services"
	"github.com/Ayash-Bera/reelscout/internal/session"
	"github.com/Ayash-Bera/reelscout/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	defaultListLimit = 10
	maxListLimit     = 50
	requestTimeout   = 30 * time.Second
)

type RecommendHandler struct {
	service *services.RecommendationService
	checker *health.HealthChecker
	logger  *logrus.Logger
}

func NewRecommendHandler(
	service *services.RecommendationService,
	checker *health.HealthChecker,
	logger *logrus.Logger,
) *RecommendHandler {
	return &RecommendHandler{
		service: service,
		checker: checker,
		logger:  logger,
	}
}

// Register mounts the gateway routes on group.
func (h *RecommendHandler) Register(group *gin.RouterGroup) {
	group.GET("/health", h.HandleHealth)
	group.GET("/suggestions", h.HandleSuggestions)
	group.GET("/recommend", h.HandleRecommend)
	group.GET("/popular", h.HandlePopular)
	group.GET("/recent", h.HandleRecent)
	group.GET("/history", h.HandleHistory)
}

// HandleHealth answers {"status":"ok"} while the recommendation backend is
// reachable, plus a per-service breakdown.
func (h *RecommendHandler) HandleHealth(c *gin.Context) {
	overall := h.checker.Current(c.Request.Context())

	response := models.HealthResponse{
		Status:    "ok",
		Service:   "reelscout-gateway",
		Timestamp: time.Now().Format(time.RFC3339),
		Services:  make(map[string]string, len(overall.Services)),
	}
	for _, service := range overall.Services {
		response.Services[service.Name] = service.Status
	}

	code := http.StatusOK
	if overall.Status == health.StatusUnhealthy {
		response.Status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, response)
}

func (h *RecommendHandler) HandleSuggestions(c *gin.Context) {
	var req models.SuggestQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid limit", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	suggestions, err := h.service.Suggest(ctx, req.Query, req.Limit)
	if err != nil {
		h.logger.WithError(err).WithField("query", req.Query).Warn("Suggestion lookup failed")
		utils.ErrorResponse(c, http.StatusBadGateway, recommender.ErrSuggestionsFailed.Error(), err)
		return
	}

	c.JSON(http.StatusOK, recommender.SuggestResponse{Suggestions: suggestions})
}

func (h *RecommendHandler) HandleRecommend(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "missing title", nil)
		return
	}

	var req models.RecommendQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, session.ErrTopKOutOfRange.Error(), err)
		return
	}

	meta := services.RequestMeta{
		Session:   h.getUserSession(c),
		UserAgent: c.GetHeader("User-Agent"),
		IPAddress: c.ClientIP(),
	}

	h.logger.WithFields(logrus.Fields{
		"title":        title,
		"top_k":        req.TopK,
		"user_session": meta.Session,
		"request_id":   c.GetString("request_id"),
	}).Info("Processing recommendation request")

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	items, err := h.service.Recommend(ctx, title, req.TopK, meta)
	if err != nil {
		h.logger.WithError(err).Error("Recommendation failed")
		utils.ErrorResponse(c, http.StatusBadGateway, session.FallbackError, err)
		return
	}

	c.JSON(http.StatusOK, recommender.RecommendResponse{Recommendations: items})
}

func (h *RecommendHandler) HandlePopular(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	titles, err := h.service.Popular(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get popular titles")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get popular titles", err)
		return
	}

	c.JSON(http.StatusOK, models.PopularTitlesResponse{Titles: titles})
}

// HandleRecent lists the latest recommendation requests seen by the gateway.
func (h *RecommendHandler) HandleRecent(c *gin.Context) {
	if !h.service.AnalyticsEnabled() {
		utils.ErrorResponse(c, http.StatusNotFound, "Analytics are disabled", nil)
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	queries, err := h.service.Recent(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get recent queries")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get recent queries", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Recent queries retrieved", queries)
}

// HandleHistory lists the requests recorded for the caller's session.
func (h *RecommendHandler) HandleHistory(c *gin.Context) {
	if !h.service.AnalyticsEnabled() {
		utils.ErrorResponse(c, http.StatusNotFound, "Analytics are disabled", nil)
		return
	}

	id := h.getUserSession(c)
	queries, err := h.service.History(id)
	if err != nil {
		h.logger.WithError(err).WithField("user_session", id).Error("Failed to get session history")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get session history", err)
		return
	}

	c.Header("X-Session-ID", id)
	utils.SuccessResponse(c, http.StatusOK, "Session history retrieved", queries)
}

func parseLimit(c *gin.Context) (int, bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit < 1 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid limit", err)
		return 0, false
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, true
}

func (h *RecommendHandler) getUserSession(c *gin.Context) string {
	if id := c.GetHeader("X-Session-ID"); utils.ValidateSessionID(id) {
		return id
	}
	return utils.GenerateSessionID(c.ClientIP() + c.GetHeader("User-Agent"))
}
