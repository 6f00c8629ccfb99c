// Package metadata looks up plot descriptions and poster images for film
// titles using the OMDb API.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Fallback values used whenever the upstream cannot describe a title.
const (
	FallbackDescription = "Geen beschrijving beschikbaar"
	FallbackImage       = "https://via.placeholder.com/150"
)

// omdbMissing is what OMDb puts in fields it has no value for.
const omdbMissing = "N/A"

// defaultTimeout bounds a lookup unless WithTimeout says otherwise.
const defaultTimeout = 10 * time.Second

// Client represents an OMDb API client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	timeout    *time.Duration
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. A nil client keeps the
// default.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout. Zero disables it. It applies
// regardless of option order and never modifies a client passed to
// WithHTTPClient.
func WithTimeout(timeout time.Duration) Option {
	return func(cl *Client) {
		cl.timeout = &timeout
	}
}

// NewClient creates a new OMDb client
func NewClient(baseURL, apiKey string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("metadata base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid metadata base URL: %w", err)
	}

	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	switch {
	case c.httpClient == nil:
		timeout := defaultTimeout
		if c.timeout != nil {
			timeout = *c.timeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	case c.timeout != nil:
		hc := *c.httpClient
		hc.Timeout = *c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// movieResponse is the subset of the OMDb title response we use.
type movieResponse struct {
	Response string `json:"Response"`
	Plot     string `json:"Plot"`
	Poster   string `json:"Poster"`
	Error    string `json:"Error"`
}

// Lookup returns the description and poster URL for title. It never fails:
// any upstream problem yields the fallback pair. One request per call, no
// retries, no caching.
func (c *Client) Lookup(ctx context.Context, title string) (description, image string) {
	movie, err := c.fetch(ctx, title)
	if err != nil {
		c.logger.Warn().Err(err).Str("title", title).Msg("metadata lookup failed, using fallback")
		return FallbackDescription, FallbackImage
	}
	if movie.Response != "True" {
		c.logger.Debug().Str("title", title).Str("reason", movie.Error).Msg("title not found upstream")
		return FallbackDescription, FallbackImage
	}

	description = movie.Plot
	if description == "" || description == omdbMissing {
		description = FallbackDescription
	}
	image = movie.Poster
	if image == "" || image == omdbMissing {
		image = FallbackImage
	}
	return description, image
}

func (c *Client) fetch(ctx context.Context, title string) (*movieResponse, error) {
	params := url.Values{}
	params.Set("t", title)
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	var movie movieResponse
	if err := json.Unmarshal(body, &movie); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &movie, nil
}
