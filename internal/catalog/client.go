// Package catalog is the HTTP client for the external media catalog
// (TMDB-compatible API). It returns raw ExternalMediaRecord batches;
// reconciliation against local rows happens in internal/media.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL  = "https://api.themoviedb.org/3"
	imageBaseURL    = "https://image.tmdb.org/t/p"
	defaultPoster   = "w500"
	cacheTTL        = 5 * time.Minute
	requestsPerSec  = 20
	maxRetries      = 3
	retryBaseDelay  = 250 * time.Millisecond
)

// Client talks to the catalog API. Requests are rate limited,
// retried with exponential backoff on 429/5xx, and list responses
// are cached for a short TTL.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *gocache.Cache
}

func NewClient(apiKey string) *Client {
	return newClient(apiKey, defaultBaseURL)
}

func newClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSec), requestsPerSec),
		cache:   gocache.New(cacheTTL, 2*cacheTTL),
	}
}

// PosterURL qualifies a partial poster path against the image CDN.
func PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", imageBaseURL, defaultPoster, posterPath)
}

// retryableError marks a status the request helper should retry.
type retryableError struct {
	status int
}

func (e *retryableError) Error() string {
	return fmt.Sprintf("catalog API returned status %d", e.status)
}

func (c *Client) makeRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	u, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog endpoint %s: %w", endpoint, err)
	}
	u.RawQuery = params.Encode()

	cacheKey := u.String()
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]byte), nil
	}

	var data []byte
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to make request to %s: %w", u.String(), err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			data = body
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return &retryableError{status: resp.StatusCode}
		default:
			return backoff.Permanent(fmt.Errorf("catalog API returned status %d for %s: %s",
				resp.StatusCode, u.String(), string(body)))
		}
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	c.cache.Set(cacheKey, data, gocache.DefaultExpiration)
	return data, nil
}

func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryBaseDelay
	b.MaxInterval = 5 * time.Second
	return b
}

func pageParams(page int) url.Values {
	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	return params
}

func decodeList(data []byte, what string) ([]*listRecord, error) {
	var result struct {
		Results []*listRecord `json:"results"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", what, err)
	}
	return result.Results, nil
}
