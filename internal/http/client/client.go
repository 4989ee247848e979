package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sifan077/ushort/internal/app/model"
	"github.com/sifan077/ushort/internal/infra/metrics"
	"go.uber.org/zap"
)

const (
	CorrelationIDHeader = "X-Correlation-ID"

	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10
)

// User-facing messages for failed calls.
const (
	MsgNotFound   = "The requested resource was not found."
	MsgGone       = "This link has expired and is no longer available."
	MsgRateLimit  = "Too many requests. Please slow down and try again later."
	MsgServer     = "Server error. Our engineers are on it!"
	MsgUnexpected = "An unexpected error occurred"
	MsgNetwork    = "Network error. Please check your connection."
)

var statusMessages = map[int]string{
	http.StatusNotFound:            MsgNotFound,
	http.StatusGone:                MsgGone,
	http.StatusTooManyRequests:     MsgRateLimit,
	http.StatusInternalServerError: MsgServer,
}

// Deps groups what the API client needs.
type Deps struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client sends JSON requests to the link service and turns every failure
// into a *model.OperationError.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a client rooted at deps.BaseURL.
func New(deps Deps) *Client {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := deps.HTTPClient
	if httpClient == nil {
		timeout := deps.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(deps.BaseURL, "/"),
		http:    httpClient,
		logger:  logger.Named("api"),
	}
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type errorPayload struct {
	Error   string `json:"error"`
	TraceID string `json:"traceId"`
}

// Send issues method on path (relative to the base URL) with body encoded as
// JSON when non-nil, and returns the raw 2xx payload. It never retries.
func (c *Client) Send(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(path, "/"), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	correlationID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(CorrelationIDHeader, correlationID)

	route := metricsRoute(path)
	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RequestTotal.WithLabelValues(method, route, "network").Inc()
		opErr := &model.OperationError{
			UserMessage:   MsgNetwork,
			CorrelationID: correlationID,
			Err:           err,
		}
		c.logFailure(method, path, opErr)
		return nil, opErr
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		metrics.RequestTotal.WithLabelValues(method, route, "2xx").Inc()
		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			// The connection dropped mid-body.
			opErr := &model.OperationError{
				UserMessage:   MsgNetwork,
				CorrelationID: correlationID,
				Err:           fmt.Errorf("read response body: %w", err),
			}
			c.logFailure(method, path, opErr)
			return nil, opErr
		}
		return payload, nil
	}

	metrics.RequestTotal.WithLabelValues(method, route, strconv.Itoa(resp.StatusCode)).Inc()
	opErr := c.statusError(resp, correlationID)
	c.logFailure(method, path, opErr)
	return nil, opErr
}

func (c *Client) statusError(resp *http.Response, correlationID string) *model.OperationError {
	status := resp.StatusCode

	var payload errorPayload
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &payload)
	}
	if payload.TraceID != "" {
		correlationID = payload.TraceID
	}

	message, fixed := statusMessages[status]
	if !fixed {
		message = strings.TrimSpace(payload.Error)
		if message == "" {
			message = MsgUnexpected
		}
	}

	var cause error
	if payload.Error != "" {
		cause = fmt.Errorf("backend: %s", payload.Error)
	}

	return &model.OperationError{
		HTTPStatus:    &status,
		UserMessage:   message,
		CorrelationID: correlationID,
		Err:           cause,
	}
}

func (c *Client) logFailure(method, path string, opErr *model.OperationError) {
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("path", path),
		zap.String("correlation_id", opErr.CorrelationID),
		zap.String("user_message", opErr.UserMessage),
	}
	if opErr.HTTPStatus != nil {
		fields = append(fields, zap.Int("status", *opErr.HTTPStatus))
	}
	if opErr.Err != nil {
		fields = append(fields, zap.NamedError("cause", opErr.Err))
	}
	c.logger.Warn("API error", fields...)
}

// metricsRoute collapses per-code paths so label cardinality stays bounded.
func metricsRoute(path string) string {
	path = "/" + strings.TrimLeft(path, "/")
	if idx := strings.Index(path[1:], "/"); idx >= 0 {
		return path[:idx+1] + "/:code"
	}
	return path
}
