package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rajuthattil19-prog/datacol/internal/model"
)

// HTTPClient talks to the collector's HTTP API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:10000"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// Health calls GET /health and returns the plain-text body.
func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	body, err := c.do(ctx, http.MethodGet, "/health")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// GlobalStats calls GET /v1/stats.
func (c *HTTPClient) GlobalStats(ctx context.Context) (*model.GlobalStats, error) {
	var g model.GlobalStats
	if err := c.doJSON(ctx, "/v1/stats", &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// OriginStats calls GET /v1/origins/{id}/stats.
func (c *HTTPClient) OriginStats(ctx context.Context, originID int64) (*model.OriginStats, error) {
	var o model.OriginStats
	if err := c.doJSON(ctx, "/v1/origins/"+strconv.FormatInt(originID, 10)+"/stats", &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// ActorStats calls GET /v1/origins/{id}/actors/{actor}/stats.
func (c *HTTPClient) ActorStats(ctx context.Context, originID, actorID int64) (*model.ActorAggregate, error) {
	path := fmt.Sprintf("/v1/origins/%d/actors/%d/stats", originID, actorID)
	var a model.ActorAggregate
	if err := c.doJSON(ctx, path, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs a GET and decodes the JSON response into result.
func (c *HTTPClient) doJSON(ctx context.Context, path string, result any) error {
	body, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// do performs a request and returns the body of a successful response.
// Error responses become *APIError.
func (c *HTTPClient) do(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return body, nil
}
