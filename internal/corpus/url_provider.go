package corpus

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/activearchive/internal/extract"
	"github.com/ppiankov/activearchive/internal/model"
	"github.com/ppiankov/activearchive/internal/util"
	"github.com/ppiankov/activearchive/internal/worker"
	"go.uber.org/zap"
)

// URLProvider fetches remote pages and serves their visible text.
// Pages that cannot be fetched or are disallowed by robots.txt are skipped.
type URLProvider struct {
	urls    []string
	fetcher *Fetcher
	limiter *worker.Limiter
	robots  *util.RobotsChecker
	logger  *zap.Logger
}

// URLOption customizes a URLProvider
type URLOption func(*URLProvider)

// WithLimiter rate limits requests per host
func WithLimiter(l *worker.Limiter) URLOption {
	return func(p *URLProvider) { p.limiter = l }
}

// WithRobots enables robots.txt checks
func WithRobots(r *util.RobotsChecker) URLOption {
	return func(p *URLProvider) { p.robots = r }
}

// WithURLLogger sets the logger used for skipped pages
func WithURLLogger(logger *zap.Logger) URLOption {
	return func(p *URLProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewURLProvider creates a provider for urls
func NewURLProvider(urls []string, fetcher *Fetcher, opts ...URLOption) *URLProvider {
	p := &URLProvider{
		urls:    urls,
		fetcher: fetcher,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ListDocuments downloads every URL. Document names are the URLs as given.
func (p *URLProvider) ListDocuments(ctx context.Context) ([]model.Document, error) {
	if p.fetcher == nil {
		return nil, ErrNilProvider
	}

	docs := make([]model.Document, 0, len(p.urls))
	for _, u := range p.urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := p.fetchText(ctx, u)
		if err != nil {
			p.logger.Warn("skipping remote document", zap.String("url", u), zap.Error(err))
			continue
		}
		docs = append(docs, model.Document{Name: u, Text: text})
	}
	return docs, nil
}

func (p *URLProvider) fetchText(ctx context.Context, rawURL string) (string, error) {
	if p.robots != nil {
		allowed, delay, err := p.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return "", err
		}
		if !allowed {
			return "", fmt.Errorf("disallowed by robots.txt")
		}
		if delay > 0 && p.limiter != nil {
			if host, err := worker.HostOf(rawURL); err == nil {
				p.limiter.SetHostDelay(host, delay)
			}
		}
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, rawURL); err != nil {
			return "", fmt.Errorf("rate limit: %w", err)
		}
	}

	result, err := p.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return "", err
	}

	if isHTML(result.ContentType, result.Body) {
		return extract.HTMLText(bytes.NewReader(result.Body))
	}
	return strings.ToValidUTF8(string(result.Body), ""), nil
}

func isHTML(contentType string, body []byte) bool {
	if contentType != "" {
		return strings.Contains(strings.ToLower(contentType), "html")
	}
	head := strings.ToLower(string(body[:min(len(body), 512)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}

// ReadURLList reads one URL per line, skipping blanks and # comments
func ReadURLList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url list: %w", err)
	}
	defer func() { _ = f.Close() }()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url list: %w", err)
	}
	return urls, nil
}
