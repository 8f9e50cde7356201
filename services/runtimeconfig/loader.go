package runtimeconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrNotLoaded = errors.New("runtimeconfig: not loaded")

// Runtime is the parsed runtime config document.
type Runtime struct {
	BackendURL string         `json:"backend_url"`
	Raw        map[string]any `json:"-"`
}

// APIBase is "<backend_url>/api/".
func (r Runtime) APIBase() string {
	base := strings.TrimRight(r.BackendURL, "/")
	if strings.HasSuffix(base, "/api") {
		return base + "/"
	}
	return base + "/api/"
}

// MediaBase is the origin that relative media paths resolve against.
func (r Runtime) MediaBase() string {
	base := strings.TrimRight(r.BackendURL, "/")
	return strings.TrimSuffix(base, "/api")
}

// Source is anything that can hand back a runtime config.
type Source interface {
	Load(ctx context.Context) (Runtime, error)
}

// Options tune a Loader.
type Options struct {
	URL        string
	HTTPClient *http.Client
	MaxTries   uint
	// InitialInterval is the first backoff delay; zero keeps the library default.
	InitialInterval time.Duration
	Logger          *zap.Logger
}

// Loader fetches the runtime config once per process and caches it.
// Concurrent first calls share one fetch. Failures are not cached.
type Loader struct {
	url       string
	client    *http.Client
	maxTries  uint
	initial   time.Duration
	logger    *zap.Logger
	validator *Validator

	group singleflight.Group

	mu     sync.RWMutex
	cached *Runtime
}

func NewLoader(opts Options) *Loader {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	tries := opts.MaxTries
	if tries == 0 {
		tries = 5
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		url:       opts.URL,
		client:    client,
		maxTries:  tries,
		initial:   opts.InitialInterval,
		logger:    logger,
		validator: NewValidator(),
	}
}

// Load returns the cached config, fetching it on first use.
func (l *Loader) Load(ctx context.Context) (Runtime, error) {
	if rt, ok := l.Cached(); ok {
		return rt, nil
	}

	ch := l.group.DoChan("runtime-config", func() (any, error) {
		if rt, ok := l.Cached(); ok {
			return rt, nil
		}
		// Detached from the first caller so a cancelled request does not fail the others.
		rt, err := l.fetchWithRetry(context.WithoutCancel(ctx))
		if err != nil {
			return Runtime{}, err
		}
		l.mu.Lock()
		l.cached = &rt
		l.mu.Unlock()
		return rt, nil
	})

	select {
	case <-ctx.Done():
		return Runtime{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Runtime{}, res.Err
		}
		return res.Val.(Runtime), nil
	}
}

// Cached reports the config without triggering a fetch.
func (l *Loader) Cached() (Runtime, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.cached == nil {
		return Runtime{}, false
	}
	return *l.cached, true
}

func (l *Loader) fetchWithRetry(ctx context.Context) (Runtime, error) {
	b := backoff.NewExponentialBackOff()
	if l.initial > 0 {
		b.InitialInterval = l.initial
	}
	attempt := 0
	op := func() (Runtime, error) {
		attempt++
		rt, err := l.fetch(ctx)
		if err != nil {
			l.logger.Warn("runtime config fetch failed",
				zap.String("url", l.url),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		return rt, err
	}
	rt, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(l.maxTries),
	)
	if err != nil {
		return Runtime{}, fmt.Errorf("runtimeconfig: load %s: %w", l.url, err)
	}
	l.logger.Info("runtime config loaded", zap.String("backend_url", rt.BackendURL))
	return rt, nil
}

func (l *Loader) fetch(ctx context.Context) (Runtime, error) {
	data, err := l.read(ctx)
	if err != nil {
		return Runtime{}, err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Runtime{}, backoff.Permanent(fmt.Errorf("decode: %w", err))
	}
	if err := l.validator.Validate(doc); err != nil {
		return Runtime{}, backoff.Permanent(err)
	}

	var rt Runtime
	if err := json.Unmarshal(data, &rt); err != nil {
		return Runtime{}, backoff.Permanent(fmt.Errorf("decode: %w", err))
	}
	rt.Raw, _ = doc.(map[string]any)
	return rt, nil
}

func (l *Loader) read(ctx context.Context) ([]byte, error) {
	u, err := url.Parse(l.url)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("parse url: %w", err))
	}

	switch u.Scheme {
	case "file":
		data, err := os.ReadFile(u.Path)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return data, nil
	case "", "http", "https":
	default:
		return nil, backoff.Permanent(fmt.Errorf("unsupported scheme %q", u.Scheme))
	}

	if u.Scheme == "" {
		data, err := os.ReadFile(l.url)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}
