// Package cache provides the process-wide, key-templated TTL cache used by
// the steemengine client for read queries.
//
// Caching is best-effort, not a correctness mechanism: entries live for at
// most one TTL per key, concurrent callers during a miss may each perform the
// underlying call (no single-flight), and the whole cache can be switched off
// globally. Individual call sites can be exempted through blacklists keyed by
// fully-qualified call path, bare function name, or module.
package cache

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultTTL applies to entries stored without an explicit TTL.
const DefaultTTL = 300 * time.Second

// Options configure a Cache.
type Options struct {
	// Disabled starts the cache switched off. The switch can be flipped later
	// with SetEnabled.
	Disabled   bool
	DefaultTTL time.Duration

	// BlacklistPaths lists fully-qualified call sites (e.g.
	// "myapp.worker.refresh") which always bypass the cache.
	BlacklistPaths []string
	// BlacklistFuncs lists bare function names which always bypass the cache.
	BlacklistFuncs []string
	// BlacklistModules lists modules which always bypass the cache. A module
	// entry also covers its sub-modules: blacklisting "a.b" covers "a.b.c".
	BlacklistModules []string
}

// Cache is a TTL cache with a global enable switch and call-site blacklists.
type Cache struct {
	store   *gocache.Cache
	enabled atomic.Bool

	paths   map[string]struct{}
	funcs   map[string]struct{}
	modules []string
}

// New creates a Cache from opts.
func New(opts Options) *Cache {
	ttl := opts.DefaultTTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		store:   gocache.New(ttl, 2*ttl),
		paths:   make(map[string]struct{}, len(opts.BlacklistPaths)),
		funcs:   make(map[string]struct{}, len(opts.BlacklistFuncs)),
		modules: append([]string(nil), opts.BlacklistModules...),
	}
	for _, p := range opts.BlacklistPaths {
		c.paths[p] = struct{}{}
	}
	for _, f := range opts.BlacklistFuncs {
		c.funcs[f] = struct{}{}
	}
	c.enabled.Store(!opts.Disabled)
	return c
}

// SetEnabled flips the global cache switch. When disabled, every wrapped call
// bypasses the cache unconditionally.
func (c *Cache) SetEnabled(v bool) { c.enabled.Store(v) }

// Enabled reports whether the cache is globally enabled.
func (c *Cache) Enabled() bool { return c.enabled.Load() }

// Blacklisted reports whether a call site is exempted from caching. A site is
// matched by its full path, by its bare function name (the segment after the
// last dot), or by its module (everything before the last dot), where module
// entries also cover sub-modules.
func (c *Cache) Blacklisted(site string) bool {
	if site == "" {
		return false
	}
	if _, ok := c.paths[site]; ok {
		return true
	}
	fn, mod := site, ""
	if i := strings.LastIndex(site, "."); i >= 0 {
		fn, mod = site[i+1:], site[:i]
	}
	if _, ok := c.funcs[fn]; ok {
		return true
	}
	for _, m := range c.modules {
		if mod == m || strings.HasPrefix(mod, m+".") {
			return true
		}
	}
	return false
}

// Flush drops every cached entry.
func (c *Cache) Flush() { c.store.Flush() }

// Delete drops a single key.
func (c *Cache) Delete(key string) { c.store.Delete(key) }

type ctxKey struct{}

// WithCallSite tags ctx with the caller's call-site identity, which wrapped
// client methods match against the cache blacklists. Use a dotted path such
// as "myapp.payments.settle".
func WithCallSite(ctx context.Context, site string) context.Context {
	return context.WithValue(ctx, ctxKey{}, site)
}

// CallSite returns the call-site identity stored in ctx, or fallback when the
// caller did not supply one.
func CallSite(ctx context.Context, fallback string) string {
	if site, ok := ctx.Value(ctxKey{}).(string); ok && site != "" {
		return site
	}
	return fallback
}

// Cached wraps fn with the cache: a hit within ttl returns the stored value
// without invoking fn, a miss invokes fn and stores its result. Errors are
// never cached. The cache is bypassed entirely when globally disabled or when
// site is blacklisted.
func Cached[T any](c *Cache, site, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	if c == nil || !c.Enabled() || c.Blacklisted(site) {
		return fn()
	}
	if raw, ok := c.store.Get(key); ok {
		if v, ok := raw.(T); ok {
			return v, nil
		}
	}
	v, err := fn()
	if err != nil {
		return v, err
	}
	c.store.Set(key, v, ttl)
	return v, nil
}
