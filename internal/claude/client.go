// Package claude implements a client for the Anthropic Claude Messages API
package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v4"

	"github.com/tildaslashalef/pullcheck/internal/config"
	"github.com/tildaslashalef/pullcheck/internal/loggy"
)

// Client represents an Anthropic Claude API client
type Client struct {
	apiKey           string
	baseURL          string
	apiVersion       string
	defaultModel     string
	defaultMaxTokens int
	maxRetries       int
	temperature      *float64
	httpClient       *http.Client
	logger           *loggy.Logger
}

// NewClient creates a new Claude client from config
func NewClient(cfg config.ClaudeConfig, logger *loggy.Logger) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "2023-06-01"
	}

	defaultModel := cfg.Model
	if defaultModel == "" {
		defaultModel = "claude-3-5-sonnet-20241022"
	}

	defaultMaxTokens := cfg.MaxTokens
	if defaultMaxTokens <= 0 {
		defaultMaxTokens = 4096
	}

	// Temperature 0 is meaningful for review runs, so it is always sent
	temperature := cfg.Temperature

	return &Client{
		apiKey:           cfg.APIKey,
		baseURL:          baseURL,
		apiVersion:       apiVersion,
		defaultModel:     defaultModel,
		defaultMaxTokens: defaultMaxTokens,
		maxRetries:       cfg.MaxRetries,
		temperature:      &temperature,
		httpClient:       &http.Client{Timeout: cfg.Timeout},
		logger:           logger,
	}
}

// GenerateChat sends a messages request to Claude and returns the response
func (c *Client) GenerateChat(ctx context.Context, req ChatRequest) (*MessageResponse, error) {
	if req.Model == "" {
		req.Model = c.defaultModel
	}

	if req.MaxTokens <= 0 {
		req.MaxTokens = c.defaultMaxTokens
	}

	if req.Temperature == nil {
		req.Temperature = c.temperature
	}

	var resp MessageResponse
	if err := c.makeRequest(ctx, http.MethodPost, "/v1/messages", req, &resp); err != nil {
		return nil, fmt.Errorf("generating chat completion: %w", err)
	}

	return &resp, nil
}

// makeRequest performs an HTTP request against the Claude API with
// exponential-backoff retries
func (c *Client) makeRequest(ctx context.Context, method, path string, body, response any) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}

	url := c.baseURL + path
	c.logger.Debug("sending claude request", "method", method, "url", url, "bytes", len(bodyBytes))

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", c.apiVersion)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := c.parseErrorResponse(resp.StatusCode, respBody)

			// Client errors other than rate limiting will not succeed on retry
			if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < http.StatusInternalServerError {
				return backoff.Permanent(apiErr)
			}
			return apiErr
		}

		if err := json.Unmarshal(respBody, response); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding response: %w", err))
		}

		return nil
	}

	return backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)), ctx))
}

// parseErrorResponse converts an error body into a structured APIError
func (c *Client) parseErrorResponse(statusCode int, body []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.ErrorInfo.Message == "" {
		return fmt.Errorf("claude api error (status %d): %s", statusCode, string(body))
	}

	apiErr.StatusCode = statusCode
	return &apiErr
}
