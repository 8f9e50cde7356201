package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clinicfront/services/runtimeconfig"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

var ErrUnauthorized = errors.New("clinicapi: unauthorized")

// APIError is a non-2xx answer from the clinic API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("clinicapi: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Message pulls a human readable reason out of a DRF style error body.
func (e *APIError) Message() string {
	var body map[string]any
	if err := json.Unmarshal([]byte(e.Body), &body); err == nil {
		for _, key := range []string{"detail", "error", "message", "non_field_errors"} {
			if v, ok := body[key]; ok {
				return flattenMessage(v)
			}
		}
		var parts []string
		for k, v := range body {
			parts = append(parts, k+": "+flattenMessage(v))
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}
	if e.Body != "" && len(e.Body) < 200 {
		return e.Body
	}
	return http.StatusText(e.StatusCode)
}

func flattenMessage(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		var parts []string
		for _, p := range t {
			parts = append(parts, flattenMessage(p))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(t)
	}
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// ErrorMessage is what a page shows for a failed call.
func ErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The clinic service took too long to answer."
	}
	return "The clinic service is unavailable right now."
}

type tokenKey struct{}

// WithToken attaches a bearer token to every call made with ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// Client calls "<backend_url>/api/<path>" with the caller's bearer token.
type Client struct {
	config  runtimeconfig.Source
	http    *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.logger = l } }

func New(src runtimeconfig.Source, opts ...Option) *Client {
	c := &Client{
		config:  src,
		timeout: 15 * time.Second,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return c
}

// NewRequest resolves the base URL and attaches the token. Nothing is sent.
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	rt, err := c.config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("clinicapi: resolve backend: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, rt.APIBase()+strings.TrimLeft(path, "/"), body)
	if err != nil {
		return nil, fmt.Errorf("clinicapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// Do sends payload as JSON (when non-nil) and decodes the answer into target (when non-nil).
func (c *Client) Do(ctx context.Context, method, path string, payload any, target any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("clinicapi: encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	}
	return c.send(ctx, method, path, body, "application/json", payload != nil, target)
}

// Get is Do without a body. query may be nil.
func (c *Client) Get(ctx context.Context, path string, query url.Values, target any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.Do(ctx, http.MethodGet, path, nil, target)
}

// FilePart is one uploaded file in a multipart body.
type FilePart struct {
	Field    string
	Filename string
	Reader   io.Reader
}

// Form is a multipart body.
type Form struct {
	Values url.Values
	Files  []FilePart
}

func (f *Form) HasFiles() bool { return f != nil && len(f.Files) > 0 }

// DoMultipart sends form as multipart/form-data.
func (c *Client) DoMultipart(ctx context.Context, method, path string, form *Form, target any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if form != nil {
		for key, values := range form.Values {
			for _, v := range values {
				if err := w.WriteField(key, v); err != nil {
					return fmt.Errorf("clinicapi: write field %s: %w", key, err)
				}
			}
		}
		for _, file := range form.Files {
			part, err := w.CreateFormFile(file.Field, file.Filename)
			if err != nil {
				return fmt.Errorf("clinicapi: create file part: %w", err)
			}
			if _, err := io.Copy(part, file.Reader); err != nil {
				return fmt.Errorf("clinicapi: copy file part: %w", err)
			}
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("clinicapi: close multipart: %w", err)
	}
	return c.send(ctx, method, path, &buf, w.FormDataContentType(), true, target)
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string, hasBody bool, target any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if hasBody {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("clinic api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("clinicapi: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("clinic api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if target == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("clinicapi: decode %s: %w", path, err)
	}
	return nil
}
