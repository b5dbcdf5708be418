package recommender

import "context"

// Backend is the recommendation service surface consumed by the UI and the
// gateway. Client talks to the service directly; CachedBackend wraps another
// Backend with a read-through cache.
type Backend interface {
	FetchSuggestions(ctx context.Context, query string, limit int) ([]string, error)
	FetchRecommendations(ctx context.Context, title string, topK int) ([]RecommendItem, error)
	Health(ctx context.Context) error
}

// Response models
type SuggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

type RecommendResponse struct {
	Recommendations []RecommendItem `json:"recommendations"`
}

// RecommendItem is one similar movie. Year and Genres are optional and may be
// null on the wire.
type RecommendItem struct {
	Title  string  `json:"title"`
	Year   *int    `json:"year,omitempty"`
	Genres *string `json:"genres,omitempty"`
	Score  float64 `json:"score"`

	// Poster is filled in locally when a poster resolver is configured.
	Poster string `json:"poster_url,omitempty"`
}

// GenresText returns the genre string or "" when absent.
func (r RecommendItem) GenresText() string {
	if r.Genres == nil {
		return ""
	}
	return *r.Genres
}

type HealthResponse struct {
	Status string `json:"status"`
}
