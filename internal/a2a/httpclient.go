package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// maxResponseBytes bounds a judge agent reply. Verdict tasks are tiny.
const maxResponseBytes = 1 << 20

// HTTPClient talks to judge agents over JSON-RPC on HTTP POST.
type HTTPClient struct {
	http      *http.Client
	logger    *zap.Logger
	requestID atomic.Int64
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// WithClientLogger traces every exchange at debug level.
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *HTTPClient) {
		c.logger = logger
	}
}

// NewHTTPClient returns a client with a two minute timeout.
func NewHTTPClient(opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		http:   &http.Client{Timeout: 2 * time.Minute},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendMessage submits a comparison. With a blocking configuration the
// returned task is already terminal.
func (c *HTTPClient) SendMessage(ctx context.Context, endpoint string, req SendMessageRequest) (*Task, error) {
	return callTask(ctx, c, endpoint, MethodSendMessage, req)
}

func (c *HTTPClient) GetTask(ctx context.Context, endpoint string, req GetTaskRequest) (*Task, error) {
	return callTask(ctx, c, endpoint, MethodGetTask, req)
}

func (c *HTTPClient) CancelTask(ctx context.Context, endpoint string, req CancelTaskRequest) (*Task, error) {
	return callTask(ctx, c, endpoint, MethodCancelTask, req)
}

// DiscoverAgent fetches the agent card published under baseURL.
func (c *HTTPClient) DiscoverAgent(ctx context.Context, baseURL string) (*AgentCard, error) {
	body, err := c.exchange(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+AgentCardPath, "discover agent", nil)
	if err != nil {
		return nil, err
	}
	var card AgentCard
	if err := json.Unmarshal(body, &card); err != nil {
		return nil, fmt.Errorf("a2a: decode agent card: %w", err)
	}
	return &card, nil
}

// callTask performs one JSON-RPC call whose result is a Task.
func callTask[P any](ctx context.Context, c *HTTPClient, endpoint, method string, params P) (*Task, error) {
	payload, err := encodeRequest(c.requestID.Add(1), method, params)
	if err != nil {
		return nil, err
	}
	body, err := c.exchange(ctx, http.MethodPost, endpoint, method, payload)
	if err != nil {
		return nil, err
	}
	return decodeTask(method, body)
}

// exchange sends one HTTP request and returns the body of a 200 reply.
// Any other status becomes an *HTTPError.
func (c *HTTPClient) exchange(ctx context.Context, verb, url, op string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, verb, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("a2a: %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("a2a: %s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("a2a: %s: read response: %w", op, err)
	}
	c.logger.Debug("a2a exchange",
		zap.String("op", op),
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// HTTPError is a non-200 reply from an agent endpoint.
type HTTPError struct {
	Op     string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("a2a: %s: HTTP %d: %s", e.Op, e.Status, e.Body)
}
