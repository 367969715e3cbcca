// Package prompts resolves named prompt templates. Templates live in the
// database and are edited through the admin surface; the resolver keeps a
// TTL cache of all active templates and falls back to compiled-in defaults
// whenever the database copy is missing or unreachable. Resolution never
// fails: the worst outcome is a degraded placeholder.
package prompts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/geralexgit/ai-hr-bot-sub001/internal/db"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/logger"
)

// DefaultTTL is how long a cache fill stays fresh.
const DefaultTTL = 5 * time.Minute

// Source is the durable side of the template cache.
type Source interface {
	ListActiveTemplates(ctx context.Context) ([]db.PromptTemplate, error)
}

// Resolver caches active templates with a TTL and stale-while-revalidate
// semantics: a failed refresh keeps serving the previous cache.
type Resolver struct {
	source Source
	ttl    time.Duration
	log    *zap.Logger

	mu        sync.RWMutex
	cache     map[string]string
	fetchedAt time.Time

	group singleflight.Group

	now func() time.Time // test hook
}

// NewResolver builds a resolver over the given template source. A zero ttl
// uses DefaultTTL.
func NewResolver(source Source, ttl time.Duration, log *zap.Logger) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Resolver{
		source: source,
		ttl:    ttl,
		log:    logger.Safe(log),
		now:    time.Now,
	}
}

// Template returns the active template text for name. Resolution order:
// cached database template, compiled-in fallback, NotConfigured placeholder.
func (r *Resolver) Template(ctx context.Context, name string) string {
	r.refreshIfStale(ctx)

	r.mu.RLock()
	tpl, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return tpl
	}

	if tpl, ok := Fallback(name); ok {
		r.log.Debug("using fallback template", zap.String(logger.FieldTemplate, name))
		return tpl
	}

	r.log.Warn("template not configured", zap.String(logger.FieldTemplate, name))
	return NotConfigured
}

// RenderNamed resolves a template by name and renders it with vars.
func (r *Resolver) RenderNamed(ctx context.Context, name string, vars map[string]any) string {
	return Render(r.Template(ctx, name), vars)
}

// Invalidate forces the next lookup to bypass the TTL and refresh
// immediately. Called after an external edit to a template.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.fetchedAt = time.Time{}
	r.mu.Unlock()
}

// refreshIfStale refreshes the cache when the TTL has expired. Concurrent
// expiries are collapsed into one fetch; a failed fetch retains the stale
// cache.
func (r *Resolver) refreshIfStale(ctx context.Context) {
	r.mu.RLock()
	stale := r.now().Sub(r.fetchedAt) >= r.ttl
	r.mu.RUnlock()
	if !stale {
		return
	}

	_, _, _ = r.group.Do("refresh", func() (any, error) {
		templates, err := r.source.ListActiveTemplates(ctx)
		if err != nil {
			// Stale-while-revalidate: keep serving what we have.
			r.log.Warn("template refresh failed, serving stale cache", zap.Error(err))
			return nil, nil
		}

		fresh := make(map[string]string, len(templates))
		for _, t := range templates {
			fresh[t.Name] = t.Template
		}

		r.mu.Lock()
		r.cache = fresh
		r.fetchedAt = r.now()
		r.mu.Unlock()

		r.log.Debug("template cache refreshed", zap.Int("templates", len(fresh)))
		return nil, nil
	})
}
