package academyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"academy/internal/adapters/http/perf"
)

// ErrUnauthorized is wrapped by StatusError for 401 responses.
var ErrUnauthorized = errors.New("academy api rejected the bearer token")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string // server-provided message, empty when unreadable
}

// Error implements error.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("academy api status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("academy api status %d", e.StatusCode)
}

// Unwrap lets callers test for ErrUnauthorized with errors.Is.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// UserMessage returns the backend's message for display.
func (e *StatusError) UserMessage() string { return e.Message }

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// Client talks to the academy REST backend. It holds no credentials; every
// call carries the operator's opaque bearer token.
type Client struct {
	baseURL   string
	http      *http.Client
	collector *perf.Collector
}

// NewClient builds a client for the backend at baseURL.
// PRE: baseURL is an absolute http(s) URL; httpClient may be nil (http.DefaultClient)
// POST: Returns a ready client; collector may be nil
func NewClient(baseURL string, httpClient *http.Client, collector *perf.Collector) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      httpClient,
		collector: collector,
	}
}

// call performs one request and decodes a JSON response into out (if non-nil).
func (c *Client) call(ctx context.Context, op, token, method, path string, body, out any) error {
	raw, err := c.send(ctx, op, token, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// send performs one request and returns the raw 2xx body.
func (c *Client) send(ctx context.Context, op, token, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.record(op, status, start)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{StatusCode: resp.StatusCode, Message: decodeMessage(raw)}
		slog.Debug("academy_api_status", "op", op, "status", resp.StatusCode, "message", se.Message)
		return nil, se
	}
	return raw, nil
}

func (c *Client) record(op string, status int, start time.Time) {
	if c.collector == nil {
		return
	}
	c.collector.Record(perf.Entry{
		Kind:       perf.KindUpstream,
		Path:       op,
		StatusCode: status,
		DurationMs: float64(time.Since(start).Microseconds()) / 1000.0,
		Timestamp:  start,
	})
}

// decodeMessage reads {"message": ...} from an error body. The backend sends
// either a string or a list of validation strings.
func decodeMessage(raw []byte) string {
	var body struct {
		Message any `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	switch m := body.Message.(type) {
	case string:
		return m
	case []any:
		parts := make([]string, 0, len(m))
		for _, p := range m {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}
