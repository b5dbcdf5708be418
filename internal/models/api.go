package models

// RecommendQuery binds the /api/recommend query string.
type RecommendQuery struct {
	Title string `form:"title"`
	TopK  int    `form:"top_k,default=5" binding:"min=1,max=15"`
}

// SuggestQuery binds the /api/suggestions query string.
type SuggestQuery struct {
	Query string `form:"q"`
	Limit int    `form:"limit,default=20" binding:"min=1"`
}

type PopularTitlesResponse struct {
	Titles []PopularTitle `json:"titles"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}
