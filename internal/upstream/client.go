// Package upstream is the typed client for the financial-approval REST API.
// The gateway holds no data of its own; every record shown on a screen is
// fetched through here, and every mutation is forwarded through here.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/svargasl/finpanel/internal/models"
)

// Client calls the upstream API. All methods take the acting session's
// bearer token; the client itself is stateless and safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New creates a Client for the API at baseURL (no trailing slash).
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// FieldError is one field-level entry of an upstream error payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a non-success upstream response. It matches the models
// sentinel corresponding to its status code under errors.Is, so callers can
// branch on kind without inspecting status codes.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  []FieldError
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("upstream: request failed (status %d)", e.Status)
}

// HumanMessage returns the upstream's message when present, otherwise a
// generic fallback suitable for a user notification.
func (e *APIError) HumanMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return "The request could not be completed. Please try again."
}

func (e *APIError) Is(target error) bool {
	switch target {
	case models.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case models.ErrForbidden:
		return e.Status == http.StatusForbidden
	case models.ErrNotFound:
		return e.Status == http.StatusNotFound
	case models.ErrConflict:
		return e.Status == http.StatusConflict
	case models.ErrBadRequest:
		return e.Status == http.StatusBadRequest
	}
	return false
}

// do issues one request and decodes the response into dest (when non-nil).
// Any status >= 400 becomes an *APIError.
func (c *Client) do(ctx context.Context, method, path, token string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call upstream %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.decodeError(resp, method, path)
	}

	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("decode upstream response for %s %s: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response, method, path string) error {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && len(raw) > 0 {
		var payload struct {
			Message string       `json:"message"`
			Code    string       `json:"code"`
			Errors  []FieldError `json:"errors"`
		}
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Code = payload.Code
			apiErr.Message = payload.Message
			apiErr.Fields = payload.Errors
		}
	}

	c.logger.Warn("upstream call failed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.String("code", apiErr.Code),
	)
	return apiErr
}
