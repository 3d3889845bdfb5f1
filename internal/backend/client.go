// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/studyrun/internal/model"
)

const (
	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024

	// DefaultBaseURL is where the backend listens when run locally.
	DefaultBaseURL = "http://127.0.0.1:8000"

	// RequestIDHeader carries the per-request correlation ID.
	RequestIDHeader = "X-Request-ID"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the API base URL (default: http://127.0.0.1:8000)
	BaseURL string

	// Timeout bounds start and chat requests (default: 60s)
	Timeout time.Duration

	// AnalyzeTimeout bounds analyze-and-generate. Zero means no limit.
	AnalyzeTimeout time.Duration

	// IngestTimeout bounds uploads (default: 10m)
	IngestTimeout time.Duration

	// RequestsPerSecond and Burst configure the client-side limiter
	// (default: 5 rps, burst 10). A negative rate disables limiting.
	RequestsPerSecond float64
	Burst             int

	// Logger receives one entry per request (default: no-op).
	Logger *zap.Logger

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:           DefaultBaseURL,
		Timeout:           60 * time.Second,
		AnalyzeTimeout:    300 * time.Second,
		IngestTimeout:     10 * time.Minute,
		RequestsPerSecond: 5,
		Burst:             10,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the study assistant API. It is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client with custom configuration.
// Zero values are filled from DefaultConfig, except AnalyzeTimeout where zero
// means unbounded.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	defaults := DefaultConfig()

	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.IngestTimeout == 0 {
		config.IngestTimeout = defaults.IngestTimeout
	}
	if config.RequestsPerSecond == 0 {
		config.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if config.Burst <= 0 {
		config.Burst = defaults.Burst
	}

	limit := rate.Limit(config.RequestsPerSecond)
	if config.RequestsPerSecond < 0 {
		limit = rate.Inf
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		// Deadlines come from the per-operation contexts.
		httpClient = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}

	return &Client{
		config:     config,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, config.Burst),
		logger:     logger.Named("backend"),
	}
}

// BaseURL returns the API base URL in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// =============================================================================
// CONVERSATION OPERATIONS
// =============================================================================

// StartConversation creates an empty conversation and returns its handle.
func (c *Client) StartConversation(ctx context.Context) (model.ConversationID, error) {
	const op = "start conversation"

	var resp StartResponse
	if err := c.doJSON(ctx, op, c.config.Timeout, "/api/conversation/start", struct{}{}, &resp); err != nil {
		return "", err
	}
	if resp.ConversationID.IsZero() {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Op: op, Message: "response has no conversation_id"}
	}
	return resp.ConversationID, nil
}

// Chat sends one user message. The backend may answer with a different
// conversation handle; the caller must adopt it.
func (c *Client) Chat(ctx context.Context, conv model.ConversationID, message string, topK int) (model.ChatReply, error) {
	const op = "chat"

	req := ChatRequest{Message: message, TopK: topK, ConversationID: conv}
	var resp ChatResponse
	if err := c.doJSON(ctx, op, c.config.Timeout, "/api/conversation/chat", req, &resp); err != nil {
		return model.ChatReply{}, err
	}

	c.logger.Debug("chat reply",
		zap.String("conversation", resp.ConversationID.String()),
		zap.Int("history", len(resp.History)),
		zap.Int("answer_len", len(resp.Answer)),
	)

	reply := model.ChatReply{Conversation: resp.ConversationID, Answer: resp.Answer}
	if reply.Conversation.IsZero() {
		reply.Conversation = conv
	}
	return reply, nil
}

// AnalyzeAndGenerate analyzes the conversation and generates study content in
// the preferred format. FormatAuto lets the backend choose.
func (c *Client) AnalyzeAndGenerate(ctx context.Context, conv model.ConversationID, format model.Format) (model.Analysis, error) {
	const op = "analyze and generate"

	if conv.IsZero() {
		return model.Analysis{}, &ClientError{Type: ErrTypeInvalidRequest, Op: op, Message: "no conversation"}
	}

	path := "/api/conversation/" + url.PathEscape(conv.String()) + "/analyze-and-generate"
	var resp AnalyzeResponse
	if err := c.doJSON(ctx, op, c.config.AnalyzeTimeout, path, AnalyzeRequest{PreferredFormat: format}, &resp); err != nil {
		return model.Analysis{}, err
	}
	return resp.toModel(), nil
}

// =============================================================================
// INGEST
// =============================================================================

// Ingest uploads a local file. An empty title lets the backend use the file
// name.
func (c *Client) Ingest(ctx context.Context, path, title string) (model.IngestResult, error) {
	const op = "ingest"

	f, err := os.Open(path)
	if err != nil {
		return model.IngestResult{}, &ClientError{Type: ErrTypeInvalidRequest, Op: op, Message: "cannot open file", Cause: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return model.IngestResult{}, &ClientError{Type: ErrTypeInvalidRequest, Op: op, Message: "cannot stat file", Cause: err}
	}
	if info.IsDir() {
		return model.IngestResult{}, &ClientError{Type: ErrTypeInvalidRequest, Op: op, Message: path + " is a directory"}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return model.IngestResult{}, &ClientError{Type: ErrTypeInvalidRequest, Op: op, Message: "failed to build form", Cause: err}
	}
	if _, err := io.Copy(part, f); err != nil {
		return model.IngestResult{}, &ClientError{Type: ErrTypeInvalidRequest, Op: op, Message: "failed to read file", Cause: err}
	}
	if title = strings.TrimSpace(title); title != "" {
		if err := mw.WriteField("title", title); err != nil {
			return model.IngestResult{}, &ClientError{Type: ErrTypeInvalidRequest, Op: op, Message: "failed to build form", Cause: err}
		}
	}
	if err := mw.Close(); err != nil {
		return model.IngestResult{}, &ClientError{Type: ErrTypeInvalidRequest, Op: op, Message: "failed to build form", Cause: err}
	}

	var resp IngestResponse
	if err := c.do(ctx, op, c.config.IngestTimeout, "/api/ingest", mw.FormDataContentType(), &body, &resp); err != nil {
		return model.IngestResult{}, err
	}

	c.logger.Info("ingested file",
		zap.String("file", filepath.Base(path)),
		zap.Int64("bytes", info.Size()),
		zap.Bool("skipped", resp.Skipped),
		zap.Int("chunks", resp.InsertedChunks),
	)
	return resp.toModel(), nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

func (c *Client) doJSON(ctx context.Context, op string, timeout time.Duration, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidRequest, Op: op, Message: "failed to marshal request", Cause: err}
	}
	return c.do(ctx, op, timeout, path, "application/json", bytes.NewReader(payload), out)
}

// do POSTs body to path and decodes a 2xx JSON response into out.
func (c *Client) do(ctx context.Context, op string, timeout time.Duration, path, contentType string, body io.Reader, out any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	requestID := uuid.NewString()
	log := c.logger.With(zap.String("op", op), zap.String("request_id", requestID))
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		cerr := transportError(op, err)
		log.Warn("rate limiter wait failed", zap.Error(err))
		return cerr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidRequest, Op: op, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cerr := transportError(op, err)
		log.Warn("request failed",
			zap.String("type", cerr.Type.String()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return cerr
	}
	defer drainAndClose(resp.Body)

	data, err := readResponse(resp)
	if err != nil {
		log.Warn("reading response failed", zap.Int("status", resp.StatusCode), zap.Error(err))
		if ctx.Err() != nil {
			return transportError(op, ctx.Err())
		}
		return &ClientError{Type: ErrTypeInvalidResponse, Op: op, Status: resp.StatusCode, Message: "failed to read response", Cause: err}
	}

	log.Debug("request finished",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		cerr := statusError(op, resp, data)
		log.Warn("backend error", zap.Int("status", resp.StatusCode), zap.String("detail", cerr.Message))
		return cerr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Op: op, Status: resp.StatusCode, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// statusError builds the error for a non-2xx response, preferring the
// FastAPI detail message.
func statusError(op string, resp *http.Response, data []byte) *ClientError {
	typ := ErrTypeBackend
	if resp.StatusCode == http.StatusNotFound {
		typ = ErrTypeNotFound
	}

	var eb errorBody
	msg := ""
	if json.Unmarshal(data, &eb) == nil {
		msg = eb.message()
	}
	if msg == "" {
		msg = strings.TrimSpace(http.StatusText(resp.StatusCode))
		if msg == "" {
			msg = resp.Status
		}
	}
	return &ClientError{Type: typ, Op: op, Status: resp.StatusCode, Message: msg}
}

// readResponse reads the body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

func drainAndClose(r io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, MaxResponseSize))
	r.Close()
}
