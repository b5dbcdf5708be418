// Package posters looks up movie poster images on TMDB.
package posters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Ayash-Bera/reelscout/internal/recommender"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	lookupTimeout  = 10 * time.Second
	maxConcurrency = 4
)

var yearSuffix = regexp.MustCompile(`^(.*\S)\s*\((\d{4})\)$`)

type Config struct {
	APIKey         string
	BaseURL        string
	ImageBaseURL   string
	PlaceholderURL string
}

// Resolver finds poster URLs through TMDB's movie search. A nil Resolver or
// one without an API key is disabled and leaves items untouched.
type Resolver struct {
	config     Config
	httpClient *http.Client
	logger     *logrus.Logger
}

type searchResponse struct {
	Results []struct {
		PosterPath string `json:"poster_path"`
	} `json:"results"`
}

func NewResolver(config Config, httpClient *http.Client, logger *logrus.Logger) *Resolver {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: lookupTimeout}
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	config.ImageBaseURL = strings.TrimRight(config.ImageBaseURL, "/")
	return &Resolver{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (r *Resolver) Enabled() bool {
	return r != nil && r.config.APIKey != ""
}

// Lookup returns the poster URL of the first search hit for title, or "" when
// TMDB has none. A trailing "(YYYY)" in title is used as the year when year
// is nil.
func (r *Resolver) Lookup(ctx context.Context, title string, year *int) (string, error) {
	if !r.Enabled() {
		return "", nil
	}

	query, parsedYear := splitYear(title)
	if year == nil {
		year = parsedYear
	}

	params := url.Values{}
	params.Set("api_key", r.config.APIKey)
	params.Set("query", query)
	if year != nil {
		params.Set("year", strconv.Itoa(*year))
	}

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.config.BaseURL+"/search/movie?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("poster search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("poster search failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(result.Results) == 0 || result.Results[0].PosterPath == "" {
		return "", nil
	}
	return r.config.ImageBaseURL + result.Results[0].PosterPath, nil
}

// Annotate fills Poster on a copy of items. Lookup failures are logged and
// fall back to the placeholder URL.
func (r *Resolver) Annotate(ctx context.Context, items []recommender.RecommendItem) []recommender.RecommendItem {
	if !r.Enabled() || len(items) == 0 {
		return items
	}

	out := make([]recommender.RecommendItem, len(items))
	copy(out, items)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)
	for i := range out {
		i := i
		g.Go(func() error {
			poster, err := r.Lookup(gctx, out[i].Title, out[i].Year)
			if err != nil {
				r.logger.WithError(err).WithField("title", out[i].Title).Warn("Poster lookup failed")
			}
			if poster == "" {
				poster = r.config.PlaceholderURL
			}
			out[i].Poster = poster
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func splitYear(title string) (string, *int) {
	title = strings.TrimSpace(title)
	m := yearSuffix.FindStringSubmatch(title)
	if m == nil {
		return title, nil
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return title, nil
	}
	return m[1], &year
}
