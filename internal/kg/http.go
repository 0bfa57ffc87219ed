package kg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/activearchive/internal/model"
	"github.com/ppiankov/activearchive/internal/util"
	"github.com/ppiankov/activearchive/internal/worker"
	"go.uber.org/zap"
)

// maxResponseBytes caps lookup response bodies
const maxResponseBytes = 1 << 20

var errNotFound = errors.New("not found")

// HTTPConfig configures a remote lookup service client
type HTTPConfig struct {
	BaseURL           string
	Policy            model.MatchPolicy
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	RespectRobots     bool
	HTTPProxy         string
	HTTPSProxy        string
	NoProxy           string
}

// HTTPLookup queries a remote JSON entity lookup service:
//
//	GET /entities?q=<token>&match=<policy>  -> [{"id","uri","description"}]
//	GET /entities/<id>/related              -> ["term", ...]
//	GET /entities/<id>                      -> {"id","uri","description"}
//
// A 404 is a miss.
type HTTPLookup struct {
	baseURL    string
	policy     model.MatchPolicy
	userAgent  string
	httpClient *http.Client
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
	logger     *zap.Logger
}

// HTTPOption customizes an HTTPLookup
type HTTPOption func(*HTTPLookup)

// WithHTTPClient replaces the HTTP client (tests, custom transports)
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(l *HTTPLookup) {
		if c != nil {
			l.httpClient = c
		}
	}
}

// WithHTTPLogger sets the logger used for request diagnostics
func WithHTTPLogger(logger *zap.Logger) HTTPOption {
	return func(l *HTTPLookup) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewHTTPLookup creates a client for the lookup service at cfg.BaseURL
func NewHTTPLookup(cfg HTTPConfig, opts ...HTTPOption) (*HTTPLookup, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse kg url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported kg url scheme %q", base.Scheme)
	}

	policy := cfg.Policy
	if policy == "" {
		policy = model.MatchExact
	}
	if policy != model.MatchExact && policy != model.MatchSubstring {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	l := &HTTPLookup{
		baseURL:   base.String(),
		policy:    policy,
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
		},
		limiter: worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(l)
	}

	if cfg.RespectRobots {
		l.robots = util.NewRobotsChecker(cfg.UserAgent, l.httpClient)
	}

	return l, nil
}

type entityDTO struct {
	ID          string `json:"id"`
	URI         string `json:"uri"`
	Description string `json:"description"`
}

func (d entityDTO) toModel() model.Entity {
	return model.Entity{ID: d.ID, URI: d.URI, Description: d.Description}
}

// FindEntities asks the service which entities token links to
func (l *HTTPLookup) FindEntities(ctx context.Context, token string) ([]model.Entity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("q", token)
	q.Set("match", string(l.policy))

	var dtos []entityDTO
	if err := l.get(ctx, "/entities?"+q.Encode(), &dtos); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find entities for %q: %w", token, err)
	}

	entities := make([]model.Entity, 0, len(dtos))
	for _, d := range dtos {
		if strings.TrimSpace(d.ID) == "" {
			continue
		}
		entities = append(entities, d.toModel())
	}
	return entities, nil
}

// RelatedTerms fetches expansion terms for an entity
func (l *HTTPLookup) RelatedTerms(ctx context.Context, entityID string) ([]string, error) {
	var terms []string
	if err := l.get(ctx, "/entities/"+url.PathEscape(entityID)+"/related", &terms); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("related terms for %q: %w", entityID, err)
	}
	return terms, nil
}

// Describe fetches the entity description
func (l *HTTPLookup) Describe(ctx context.Context, entityID string) (string, error) {
	var d entityDTO
	if err := l.get(ctx, "/entities/"+url.PathEscape(entityID), &d); err != nil {
		if errors.Is(err, errNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("describe %q: %w", entityID, err)
	}
	return d.Description, nil
}

func (l *HTTPLookup) get(ctx context.Context, pathAndQuery string, v any) error {
	target := l.baseURL + pathAndQuery

	if l.robots != nil {
		allowed, delay, err := l.robots.CanFetch(ctx, target)
		if err != nil {
			return err
		}
		if !allowed {
			return fmt.Errorf("%w: %s", ErrDisallowed, target)
		}
		if delay > 0 {
			if host, err := worker.HostOf(target); err == nil {
				l.limiter.SetHostDelay(host, delay)
			}
		}
	}

	if err := l.limiter.Wait(ctx, target); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}

	start := time.Now()
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	l.logger.Debug("kg request",
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
