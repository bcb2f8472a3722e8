package qa

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	responsePath = "/v1/doc-qa/response"
	contextPath  = "/v1/doc-qa/context"

	defaultTimeout = 10 * time.Minute
)

// EngineError is a non-2xx reply from the Doc_QA service.
type EngineError struct {
	StatusCode int
	Message    string
}

func (e *EngineError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("doc-qa engine returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("doc-qa engine returned status %d: %s", e.StatusCode, e.Message)
}

// Option configures a DocQA client.
type Option func(*DocQA)

// WithTransport overrides the HTTP transport (primarily for tests).
func WithTransport(transport http.RoundTripper) Option {
	return func(d *DocQA) {
		d.transport = transport
	}
}

// WithToken sends token as a bearer credential on every call.
func WithToken(token string) Option {
	return func(d *DocQA) {
		d.token = token
	}
}

// WithRateLimit throttles outbound calls with a token bucket. Zero values disable it.
func WithRateLimit(ratePerSecond float64, burst int) Option {
	return func(d *DocQA) {
		if ratePerSecond <= 0 || burst <= 0 {
			d.limiter = nil
			return
		}
		d.limiter = newTokenBucketLimiter(ratePerSecond, burst)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(d *DocQA) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// DocQA talks to a Doc_QA service over HTTP. Retrieval always happens in the
// service; generation happens there too unless the model is a callable.
type DocQA struct {
	opts      Options
	client    *resty.Client
	transport http.RoundTripper
	token     string
	limiter   rateLimiter
	logger    *zap.Logger
}

// NewDocQA validates opts and returns a client for the service at baseURL.
func NewDocQA(baseURL string, opts Options, optFns ...Option) (*DocQA, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: engine URL %q must be absolute", ErrInvalidOptions, baseURL)
	}

	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	d := &DocQA{
		opts:   opts,
		logger: zap.NewNop(),
	}
	for _, fn := range optFns {
		fn(d)
	}
	d.client = d.buildHTTPClient(strings.TrimRight(u.String(), "/"))
	return d, nil
}

func (d *DocQA) buildHTTPClient(baseURL string) *resty.Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetLogger(d.logger.Sugar())

	if d.transport != nil {
		client.SetTransport(d.transport)
	}
	if d.token != "" {
		client.SetAuthToken(d.token)
	}
	client.OnBeforeRequest(d.waitForRateLimit)

	return client
}

func (d *DocQA) waitForRateLimit(_ *resty.Client, req *resty.Request) error {
	if d.limiter == nil {
		return nil
	}
	if err := d.limiter.Wait(req.Context()); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}

// Options returns the effective engine options after defaults.
func (d *DocQA) Options() Options {
	return d.opts
}

type engineRequest struct {
	Embeddings   string `json:"embeddings"`
	Model        string `json:"model,omitempty"`
	TopK         int    `json:"top_k"`
	Language     string `json:"language"`
	SearchType   string `json:"search_type,omitempty"`
	MaxDocLen    int64  `json:"max_doc_len,omitempty"`
	Verbose      bool   `json:"verbose,omitempty"`
	DocPath      string `json:"doc_path"`
	SystemPrompt string `json:"system_prompt,omitempty"`
	Prompt       string `json:"prompt"`
}

type responseReply struct {
	Response string `json:"response"`
}

type contextReply struct {
	Prompt string `json:"prompt"`
}

type errorReply struct {
	Error string `json:"error"`
}

// GetResponse asks req.Prompt against the documents under req.DocPath.
func (d *DocQA) GetResponse(ctx context.Context, req Request) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}

	body := engineRequest{
		Embeddings:   d.opts.Embeddings,
		Model:        d.opts.Model.ID,
		TopK:         d.opts.TopK,
		Language:     d.opts.Language,
		SearchType:   d.opts.SearchType,
		MaxDocLen:    d.opts.MaxDocLen,
		Verbose:      d.opts.Verbose,
		DocPath:      req.DocPath,
		SystemPrompt: req.SystemPrompt,
		Prompt:       req.Prompt,
	}

	if !d.opts.Model.IsCallable() {
		var reply responseReply
		if err := d.post(ctx, responsePath, body, &reply); err != nil {
			return "", err
		}
		return reply.Response, nil
	}

	var reply contextReply
	if err := d.post(ctx, contextPath, body, &reply); err != nil {
		return "", err
	}
	d.logger.Debug("invoking local model", zap.Int("prompt_chars", len(reply.Prompt)))

	answer, err := d.opts.Model.Func(ctx, reply.Prompt)
	if err != nil {
		return "", fmt.Errorf("local model: %w", err)
	}
	return answer, nil
}

func (d *DocQA) post(ctx context.Context, path string, payload engineRequest, out any) error {
	var apiErr errorReply

	start := time.Now()
	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(out).
		SetError(&apiErr).
		Post(path)
	if err != nil {
		return fmt.Errorf("call doc-qa engine: %w", err)
	}

	d.logger.Debug("doc-qa engine call",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
		zap.String("embeddings", payload.Embeddings),
		zap.String("model", d.opts.Model.String()),
		zap.String("search_type", payload.SearchType),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.IsError() || resp.StatusCode() >= http.StatusMultipleChoices {
		message := apiErr.Error
		if message == "" {
			message = strings.TrimSpace(resp.String())
		}
		return &EngineError{StatusCode: resp.StatusCode(), Message: message}
	}
	if ct := resp.Header().Get("Content-Type"); !strings.Contains(ct, "json") {
		return fmt.Errorf("decode response: unexpected content type %q", ct)
	}
	return nil
}
