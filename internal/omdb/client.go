package omdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/MimeLyc/movielens-etl/internal/config"
)

// Client performs single-title lookups against the OMDb API.
// Thread-safe for concurrent use, though the pipeline runs it sequentially.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new OMDb client from the given configuration.
// Unauthenticated clients are allowed; the service may rate-limit or
// truncate their responses.
func NewClient(cfg config.OMDbConfig) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("omdb api url is required")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("omdb timeout must be positive")
	}

	return &Client{
		baseURL: cfg.APIURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}, nil
}

// Lookup queries OMDb by title and, when known, year. It returns the raw
// decoded payload; callers must treat every field as optional. Transport
// failures and non-success statuses surface as *TransportError.
func (c *Client) Lookup(ctx context.Context, title string, year *int) (Payload, error) {
	reqURL, err := c.buildURL(title, year)
	if err != nil {
		return nil, fmt.Errorf("failed to build request url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Cause: err}
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return payload, nil
}

func (c *Client) buildURL(title string, year *int) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("t", title)
	if year != nil {
		params.Set("y", strconv.Itoa(*year))
	}
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}
	base.RawQuery = params.Encode()

	return base.String(), nil
}
