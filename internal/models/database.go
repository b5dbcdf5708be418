package models

// GORM models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecommendationQuery records one recommendation request served by the
// gateway.
type RecommendationQuery struct {
	BaseModel
	Title          string    `json:"title" gorm:"not null;index"`
	TopK           int       `json:"top_k" gorm:"not null"`
	ResultsCount   int       `json:"results_count" gorm:"default:0"`
	Success        bool      `json:"success"`
	ResponseTimeMs int       `json:"response_time_ms"`
	ClientSession  string    `json:"client_session" gorm:"index"`
	UserAgent      string    `json:"user_agent"`
	IPAddress      string    `json:"ip_address"`
	RequestedAt    time.Time `json:"requested_at"`
}

// PopularTitle counts how often a title was used as a recommendation seed.
type PopularTitle struct {
	BaseModel
	Title             string    `json:"title" gorm:"uniqueIndex;not null"`
	RequestCount      int       `json:"request_count" gorm:"default:1"`
	AvgResultsCount   float64   `json:"avg_results_count" gorm:"default:0"`
	AvgResponseTimeMs int       `json:"avg_response_time_ms" gorm:"default:0"`
	LastRequested     time.Time `json:"last_requested"`
}

// SystemHealth represents service health monitoring
type SystemHealth struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ServiceName    string    `json:"service_name" gorm:"not null;index"`
	Status         string    `json:"status" gorm:"not null"`
	ResponseTimeMs int       `json:"response_time_ms"`
	ErrorMessage   string    `json:"error_message"`
	CheckedAt      time.Time `json:"checked_at"`
}

type RecommendationQueryRepository interface {
	Create(query *RecommendationQuery) error
	GetBySession(session string) ([]RecommendationQuery, error)
	GetRecent(limit int) ([]RecommendationQuery, error)
}

type PopularTitleRepository interface {
	Record(title string, resultsCount int, responseTimeMs int) error
	GetTop(limit int) ([]PopularTitle, error)
}

type SystemHealthRepository interface {
	UpdateServiceHealth(serviceName, status string, responseTime int, errorMsg string) error
	GetServiceHealth(serviceName string) (*SystemHealth, error)
}

func (RecommendationQuery) TableName() string { return "recommendation_queries" }
func (PopularTitle) TableName() string        { return "popular_titles" }
func (SystemHealth) TableName() string        { return "system_health" }

var validHealthStatuses = map[string]bool{
	"healthy":   true,
	"degraded":  true,
	"unhealthy": true,
}

// Model validation methods
func (rq *RecommendationQuery) Validate() error {
	if strings.TrimSpace(rq.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if rq.TopK < 1 || rq.TopK > 15 {
		return fmt.Errorf("top_k out of range: %d", rq.TopK)
	}
	if rq.ResponseTimeMs < 0 {
		return fmt.Errorf("response time cannot be negative")
	}
	return nil
}

func (sh *SystemHealth) Validate() error {
	if sh.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}
	if !validHealthStatuses[sh.Status] {
		return fmt.Errorf("invalid health status: %s", sh.Status)
	}
	return nil
}

// GORM hooks
func (rq *RecommendationQuery) BeforeCreate(tx *gorm.DB) error {
	if rq.RequestedAt.IsZero() {
		rq.RequestedAt = time.Now()
	}
	return rq.Validate()
}

func (sh *SystemHealth) BeforeCreate(tx *gorm.DB) error {
	if sh.CheckedAt.IsZero() {
		sh.CheckedAt = time.Now()
	}
	return sh.Validate()
}
