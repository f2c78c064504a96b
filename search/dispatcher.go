package search

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Config struct {
	// MaxWorkers bounds the number of sources queried at the same
	// time; excess tasks queue until a slot frees up.
	MaxWorkers int
	// TaskTimeout is the per-source deadline. A timed-out source
	// counts as a failed one: zero results, session keeps going.
	TaskTimeout time.Duration
	// MaxResults caps the final combined result list.
	MaxResults int
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() *Config {
	return &Config{
		MaxWorkers:  10,
		TaskTimeout: 2 * time.Minute,
		MaxResults:  10,
	}
}

// Engine fans a query out to every distinct source and merges the
// per-source hits into one ranked result list.
type Engine struct {
	resolver Resolver
	logger   *zap.Logger
	config   *Config
}

func NewEngine(resolver Resolver, logger *zap.Logger, config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	return &Engine{
		resolver: resolver,
		logger:   logger,
		config:   config,
	}
}

// taskOutcome is the typed result of one per-source task. A failed
// task carries its reason here instead of propagating it.
type taskOutcome struct {
	source  string
	results []Result
	err     error
}

// Search resolves every link, queries each distinct source exactly
// once and returns the live session. Mirror links that resolve to the
// same crawler implementation are queried only once, first seen wins.
// An empty query or an empty link set completes immediately with no
// results and no error.
func (e *Engine) Search(ctx context.Context, query string, links []string) *Session {
	query = strings.TrimSpace(query)

	var crawlers []Crawler
	if query != "" {
		seen := make(map[string]bool)
		for _, link := range links {
			crawler := e.resolver.Resolve(link)
			if crawler == nil || seen[crawler.Name()] {
				continue
			}
			seen[crawler.Name()] = true
			crawlers = append(crawlers, crawler)
		}
	}

	session := newSession(query, len(crawlers))
	if len(crawlers) == 0 {
		session.finish(nil)
		return session
	}

	go e.run(ctx, session, crawlers)
	return session
}

// SearchAndWait is a convenience wrapper for callers that do not poll
// progress.
func (e *Engine) SearchAndWait(ctx context.Context, query string, links []string) []CombinedResult {
	session := e.Search(ctx, query, links)
	<-session.Done()
	return session.Results()
}

func (e *Engine) run(ctx context.Context, session *Session, crawlers []Crawler) {
	outcomes := make(chan taskOutcome, len(crawlers))

	var g errgroup.Group
	g.SetLimit(e.config.MaxWorkers)
	for _, crawler := range crawlers {
		g.Go(func() error {
			outcomes <- e.searchOne(ctx, crawler, session.Query)
			return nil
		})
	}
	go func() {
		g.Wait()
		close(outcomes)
	}()

	// Single consumer: accumulation and progress updates are
	// serialized here while tasks finish in any order.
	for outcome := range outcomes {
		if outcome.err != nil {
			e.logger.Warn("source search failed",
				zap.String("source", outcome.source),
				zap.String("query", session.Query),
				zap.Error(outcome.err))
		}
		session.collect(outcome.results)
	}

	session.mu.Lock()
	collected := session.results
	session.mu.Unlock()

	combined := Combine(session.Query, collected, e.config.MaxResults)
	session.finish(combined)

	e.logger.Info("search session completed",
		zap.String("session_id", session.ID),
		zap.String("query", session.Query),
		zap.Int("sources", len(crawlers)),
		zap.Int("raw_results", len(collected)),
		zap.Int("combined_results", len(combined)))
}

// searchOne runs the query against a single source and normalizes its
// hits. Any error, including a deadline, voids the task: it reports
// the reason in the outcome and contributes zero results.
func (e *Engine) searchOne(ctx context.Context, crawler Crawler, query string) taskOutcome {
	taskCtx, cancel := context.WithTimeout(ctx, e.config.TaskTimeout)
	defer cancel()

	titleCaser := cases.Title(language.English)

	var results []Result
	hits := crawler.SearchNovel(taskCtx, query)
	for hits.Next() {
		hit := hits.Hit()
		if hit.Title == "" || hit.URL == "" {
			continue
		}
		results = append(results, Result{
			Title:  titleCaser.String(strings.ToLower(hit.Title)),
			URL:    hit.URL,
			Source: crawler.Name(),
		})
	}

	if err := hits.Err(); err != nil {
		// A source that fails mid-iteration contributes nothing.
		return taskOutcome{source: crawler.Name(), err: err}
	}
	return taskOutcome{source: crawler.Name(), results: results}
}
