package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/ppiankov/argintel/internal/cache"
	"github.com/ppiankov/argintel/internal/logging"
	"github.com/ppiankov/argintel/internal/model"
	"github.com/ppiankov/argintel/internal/util"
	"github.com/ppiankov/argintel/internal/worker"
)

const (
	maxAttempts = 3
	maxPages    = 1000
)

// retrySleep waits between attempts; tests replace it
var retrySleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// StatusError is a non-2xx response from the comment API
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// page is one response of the comment API. Next, when set, is the URL of
// the following page, absolute or relative to the current one.
type page struct {
	Comments []model.Comment `json:"comments"`
	Next     string          `json:"next,omitempty"`
}

// HTTPSource reads comments from a comment repository API at
// {base_url}/bills/{bill}/comments
type HTTPSource struct {
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	limiter    *worker.Limiter
	cache      cache.Cache
	logger     logging.Logger
}

// NewHTTPSource creates an HTTP source
func NewHTTPSource(cfg model.SourceConfig, c cache.Cache, logger logging.Logger) (*HTTPSource, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("http source requires source.base_url")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if c == nil {
		c = cache.Nop{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 10_000_000
	}

	return &HTTPSource{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
		limiter:   worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		cache:     c,
		logger:    logger.Named("source"),
	}, nil
}

// Comments fetches every page of a bill's comments. Pages are cached by
// URL so repeated runs within the cache TTL skip the network.
func (s *HTTPSource) Comments(ctx context.Context, billID string) ([]model.Comment, error) {
	next := s.baseURL.JoinPath("bills", billID, "comments").String()

	var comments []model.Comment
	for i := 0; next != "" && i < maxPages; i++ {
		p, err := s.page(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("bill %s: %w", billID, err)
		}
		for _, c := range p.Comments {
			if c.BillID == "" {
				c.BillID = billID
			}
			comments = append(comments, c)
		}

		if p.Next == "" {
			break
		}
		ref, err := url.Parse(p.Next)
		if err != nil {
			return nil, fmt.Errorf("parse next page: %w", err)
		}
		cur, _ := url.Parse(next)
		next = cur.ResolveReference(ref).String()
	}
	return comments, nil
}

func (s *HTTPSource) page(ctx context.Context, rawURL string) (page, error) {
	key := cache.Key("comments", rawURL)
	if p, ok := cache.Load[page](s.cache, key); ok {
		s.logger.Debug("comment page cache hit", logging.String("url", rawURL))
		return p, nil
	}

	body, err := s.fetchWithRetry(ctx, rawURL)
	if err != nil {
		return page{}, err
	}

	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return page{}, fmt.Errorf("decode comments: %w", err)
	}
	if err := cache.Store(s.cache, key, p, 0); err != nil {
		s.logger.Warn("caching comment page failed", logging.String("url", rawURL), logging.Err(err))
	}
	return p, nil
}

// fetchWithRetry retries transient failures with exponential backoff
func (s *HTTPSource) fetchWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	backoff := time.Second
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		body, err := s.fetch(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == maxAttempts {
			break
		}

		s.logger.Warn("comment fetch failed, retrying",
			logging.String("url", rawURL),
			logging.Int("attempt", attempt),
			logging.Err(err))
		if err := retrySleep(ctx, backoff); err != nil {
			return nil, err
		}
		backoff *= 2
	}
	return nil, lastErr
}

func (s *HTTPSource) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := s.limiter.Wait(ctx, rawURL); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// isRetryable reports whether err is a server error, a 429 or a
// transport failure
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Code == http.StatusTooManyRequests || status.Code >= 500
	}
	var netErr net.Error
	var urlErr *url.Error
	return errors.As(err, &netErr) || errors.As(err, &urlErr)
}
