// Package tools implements the operations the MCP server exposes. Each tool
// is a plain function over an *Engine so it can be called and tested without
// a transport.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/terraria-rag/wikiclean/internal/templates"
	"github.com/terraria-rag/wikiclean/internal/wiki"
)

// ErrRateLimited is returned when a call exceeds the configured rate.
var ErrRateLimited = errors.New("rate limited")

// Config holds the engine settings a tool call needs.
type Config struct {
	// RateLimit is the sustained number of tool calls per second. Zero or
	// less disables limiting.
	RateLimit float64
	// Burst defaults to the ceiling of RateLimit.
	Burst    int
	CacheTTL time.Duration

	// Cleaning options. Handler is ignored; the template registry fills it.
	Options wiki.Options
}

// state is swapped as a whole when template rules are reloaded. generation
// is part of every cache key, so results computed with replaced rules are
// never served.
type state struct {
	registry   *templates.Registry
	cleaner    *wiki.Cleaner
	generation uint64
}

// Engine holds the cleaner, the result cache and the call limiter shared by
// all tool calls.
type Engine struct {
	state    atomic.Pointer[state]
	gen      atomic.Uint64
	cache    *wiki.Cache
	cacheTTL time.Duration
	limiter  *rate.Limiter
	opts     wiki.Options
}

// NewEngine creates an Engine. Close releases its cache.
func NewEngine(reg *templates.Registry, cfg Config) *Engine {
	if reg == nil {
		reg = templates.Default()
	}

	e := &Engine{
		cache:    wiki.NewCache(wiki.DefaultSweepInterval),
		cacheTTL: cfg.CacheTTL,
		opts:     cfg.Options,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = max(int(cfg.RateLimit+0.999), 1)
		}
		e.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	e.Reload(reg)
	return e
}

// Reload replaces the template rules. Cached results produced with the old
// rules are dropped.
func (e *Engine) Reload(reg *templates.Registry) {
	opts := e.opts
	opts.Handler = reg
	e.state.Store(&state{
		registry:   reg,
		cleaner:    wiki.NewCleaner(opts),
		generation: e.gen.Add(1),
	})
	e.cache.Purge()
}

// snapshot returns the rules, cleaner and generation of one call.
func (e *Engine) snapshot() *state {
	return e.state.Load()
}

// Registry returns the template rules in use.
func (e *Engine) Registry() *templates.Registry {
	return e.snapshot().registry
}

// Cleaner returns the pipeline in use.
func (e *Engine) Cleaner() *wiki.Cleaner {
	return e.snapshot().cleaner
}

// GetCache returns the cache instance
func (e *Engine) GetCache() *wiki.Cache {
	return e.cache
}

// GetCacheTTL returns the result cache TTL
func (e *Engine) GetCacheTTL() time.Duration {
	return e.cacheTTL
}

// Close stops the cache sweeper.
func (e *Engine) Close() {
	e.cache.Close()
}

// acquire admits one tool call.
func (e *Engine) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.limiter != nil && !e.limiter.Allow() {
		return fmt.Errorf("%w: more than %.1f calls per second", ErrRateLimited, float64(e.limiter.Limit()))
	}
	return nil
}
