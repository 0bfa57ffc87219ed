package cli

import (
	"fmt"
	"strings"

	"github.com/ppiankov/activearchive/internal/cache"
	"github.com/ppiankov/activearchive/internal/corpus"
	"github.com/ppiankov/activearchive/internal/kg"
	"github.com/ppiankov/activearchive/internal/llm"
	"github.com/ppiankov/activearchive/internal/model"
	"github.com/ppiankov/activearchive/internal/util"
	"github.com/ppiankov/activearchive/internal/worker"
	"go.uber.org/zap"
)

// buildLookup creates the knowledge graph lookup. A remote service takes
// precedence over a table file; remote lookups are cached when enabled.
func buildLookup(cfg *model.Config, log *zap.Logger) (kg.Lookup, error) {
	if cfg.KG.URL == "" {
		table := kg.DefaultTable()
		if cfg.KG.Table != "" {
			t, err := kg.LoadTable(cfg.KG.Table)
			if err != nil {
				return nil, err
			}
			table = t
		}
		return kg.NewStaticLookup(table, cfg.KG.MatchPolicy)
	}

	remote, err := kg.NewHTTPLookup(kg.HTTPConfig{
		BaseURL:           cfg.KG.URL,
		Policy:            cfg.KG.MatchPolicy,
		UserAgent:         cfg.HTTP.UserAgent,
		Timeout:           cfg.HTTP.Timeout,
		RequestsPerSecond: cfg.KG.RequestsPerSecond,
		Burst:             cfg.KG.Burst,
		RespectRobots:     cfg.KG.RespectRobots,
		HTTPProxy:         cfg.HTTP.HTTPProxy,
		HTTPSProxy:        cfg.HTTP.HTTPSProxy,
		NoProxy:           cfg.HTTP.NoProxy,
	}, kg.WithHTTPLogger(log))
	if err != nil {
		return nil, fmt.Errorf("create remote lookup: %w", err)
	}

	if !cfg.Cache.Enabled {
		return remote, nil
	}

	c := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	namespace := strings.TrimRight(cfg.KG.URL, "/") + "|" + string(cfg.KG.MatchPolicy)
	return kg.NewCachedLookup(remote, c, namespace, cfg.Cache.DiskTTL, log)
}

// buildProvider creates the corpus provider: remote URLs when given,
// otherwise the configured directory
func buildProvider(cfg *model.Config, urls []string, log *zap.Logger) corpus.Provider {
	if len(urls) == 0 {
		return corpus.NewDirProvider(cfg.Corpus.Dir, cfg.Corpus.Patterns, corpus.WithLogger(log))
	}

	fetcher := corpus.NewFetcher(corpus.FetcherConfig{
		Timeout:    cfg.HTTP.Timeout,
		UserAgent:  cfg.HTTP.UserAgent,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
	})

	opts := []corpus.URLOption{
		corpus.WithLimiter(worker.NewLimiter(cfg.KG.RequestsPerSecond, cfg.KG.Burst)),
		corpus.WithURLLogger(log),
	}
	if cfg.KG.RespectRobots {
		opts = append(opts, corpus.WithRobots(util.NewRobotsChecker(cfg.HTTP.UserAgent, fetcher.Client())))
	}

	return corpus.NewURLProvider(urls, fetcher, opts...)
}

// buildGenerator creates the LLM provider, filling credentials from the
// environment
func buildGenerator(cfg *model.Config, log *zap.Logger) (llm.Provider, error) {
	config := llm.ApplyEnv(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	config.Logger = log
	return llm.NewProvider(config)
}
