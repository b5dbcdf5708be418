package recommender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	ErrSuggestionsFailed     = errors.New("Failed to fetch suggestions")
	ErrRecommendationsFailed = errors.New("Failed to fetch recommendations")
	ErrUnhealthy             = errors.New("recommendation service unhealthy")
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient returns a client for the service at baseURL. A nil httpClient
// means http.DefaultClient; requests carry no timeout unless the caller's
// context or httpClient imposes one.
func NewClient(baseURL string, httpClient *http.Client, logger *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// BaseURL returns the service address the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchSuggestions returns the titles matching query, in service order.
func (c *Client) FetchSuggestions(ctx context.Context, query string, limit int) ([]string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	var response SuggestResponse
	if err := c.get(ctx, "/api/suggestions", params, &response); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSuggestionsFailed, err)
	}

	if response.Suggestions == nil {
		return []string{}, nil
	}
	return response.Suggestions, nil
}

// FetchRecommendations returns up to topK movies similar to title.
func (c *Client) FetchRecommendations(ctx context.Context, title string, topK int) ([]RecommendItem, error) {
	params := url.Values{}
	params.Set("title", title)
	params.Set("top_k", strconv.Itoa(topK))

	var response RecommendResponse
	if err := c.get(ctx, "/api/recommend", params, &response); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecommendationsFailed, err)
	}

	if response.Recommendations == nil {
		return []RecommendItem{}, nil
	}
	return response.Recommendations, nil
}

func (c *Client) Health(ctx context.Context) error {
	var response HealthResponse
	if err := c.get(ctx, "/api/health", nil, &response); err != nil {
		return fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	if response.Status != "ok" {
		return fmt.Errorf("%w: status %q", ErrUnhealthy, response.Status)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.WithFields(logrus.Fields{
		"method": http.MethodGet,
		"url":    reqURL,
	}).Debug("Making recommendation API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"status_code":   resp.StatusCode,
		"url":           reqURL,
		"response_size": len(responseBody),
	}).Debug("Recommendation API response received")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(responseBody) < 500 {
			c.logger.WithFields(logrus.Fields{
				"status_code":   resp.StatusCode,
				"url":           reqURL,
				"response_body": string(responseBody),
			}).Debug("Error response body")
		}
		return fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	if len(responseBody) > 0 {
		if err := json.Unmarshal(responseBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
