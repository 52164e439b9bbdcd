// Package client talks to the remote document-ingestion and question-answering service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/liliang-cn/pdfinsight/internal/domain"
	"github.com/liliang-cn/pdfinsight/internal/metrics"
)

const (
	uploadPath = "/api/upload"
	queryPath  = "/api/query"

	// errorBodyLimit caps how much of a failed response is read for its error field
	errorBodyLimit = 64 << 10
)

// Client issues single-attempt calls against the remote service
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	metrics *metrics.Recorder
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every call; zero means no bound
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics sets the metrics recorder
func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a client for the service at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitDocument uploads one document. Any returned error is a *domain.Failure.
func (c *Client) SubmitDocument(ctx context.Context, r io.Reader, filename string) (*domain.UploadAck, error) {
	start := time.Now()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(domain.UploadFieldName, filename)
	if err != nil {
		return nil, c.fail(metrics.KindUpload, start, domain.NewTransportFailure(0, fmt.Errorf("creating form file: %w", err)))
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, c.fail(metrics.KindUpload, start, domain.NewTransportFailure(0, fmt.Errorf("reading document: %w", err)))
	}
	if err := mw.Close(); err != nil {
		return nil, c.fail(metrics.KindUpload, start, domain.NewTransportFailure(0, fmt.Errorf("closing form: %w", err)))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, &body)
	if err != nil {
		return nil, c.fail(metrics.KindUpload, start, domain.NewTransportFailure(0, fmt.Errorf("creating request: %w", err)))
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	raw, err := c.do(req)
	if err != nil {
		return nil, c.fail(metrics.KindUpload, start, err)
	}

	c.metrics.ObserveRequest(metrics.KindUpload, nil, time.Since(start))
	c.logger.Debug("document accepted",
		zap.String("filename", filename),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &domain.UploadAck{Raw: raw}, nil
}

// SubmitQuestion asks one question about the active document. Any returned error is a *domain.Failure.
func (c *Client) SubmitQuestion(ctx context.Context, question string) (*domain.QueryResponse, error) {
	start := time.Now()

	payload, err := json.Marshal(domain.QueryRequest{Question: question})
	if err != nil {
		return nil, c.fail(metrics.KindQuery, start, domain.NewTransportFailure(0, fmt.Errorf("marshaling request: %w", err)))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+queryPath, bytes.NewReader(payload))
	if err != nil {
		return nil, c.fail(metrics.KindQuery, start, domain.NewTransportFailure(0, fmt.Errorf("creating request: %w", err)))
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.do(req)
	if err != nil {
		return nil, c.fail(metrics.KindQuery, start, err)
	}

	var resp domain.QueryResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, c.fail(metrics.KindQuery, start, domain.NewTransportFailure(0, fmt.Errorf("decoding response: %w", err)))
	}
	resp.Sources = normalizeSources(resp.Sources)

	c.metrics.ObserveRequest(metrics.KindQuery, nil, time.Since(start))
	c.logger.Debug("question answered",
		zap.Int("sources", len(resp.Sources)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &resp, nil
}

// do sends req and returns the body of a 2xx response
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.NewTransportFailure(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		if msg := errorField(body); msg != "" {
			return nil, domain.NewServiceFailure(resp.StatusCode, msg)
		}
		return nil, domain.NewTransportFailure(resp.StatusCode, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewTransportFailure(resp.StatusCode, fmt.Errorf("reading response: %w", err))
	}
	return body, nil
}

func (c *Client) fail(kind string, start time.Time, err error) error {
	f := domain.AsFailure(err)
	c.metrics.ObserveRequest(kind, f, time.Since(start))
	c.logger.Warn("remote call failed",
		zap.String("kind", kind),
		zap.String("failure_kind", string(f.Kind)),
		zap.Int("status", f.StatusCode),
		zap.String("message", f.Message),
	)
	return f
}

// errorField extracts {"error": "..."} from a failed response body
func errorField(body []byte) string {
	var payload struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	switch v := payload.Error.(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

func normalizeSources(sources []domain.SourceExcerpt) []domain.SourceExcerpt {
	out := make([]domain.SourceExcerpt, len(sources))
	for i, s := range sources {
		if s.Page < 1 {
			s.Page = 1
		}
		out[i] = s
	}
	return out
}
