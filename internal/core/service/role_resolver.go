package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"github.com/bookshelf/bookshelf-api/internal/api/metrics"
	"github.com/bookshelf/bookshelf-api/internal/core/domain"
	"github.com/bookshelf/bookshelf-api/internal/core/ports"
)

const (
	defaultRoleCacheSize = 64
	defaultRoleCacheTTL  = 5 * time.Minute
)

// RoleResolverConfig sizes the in-process role map.
type RoleResolverConfig struct {
	Size int
	TTL  time.Duration
}

// RoleResolver maps role names to capability sets. Lookups go through an
// in-process expiring map, then the shared cache when one is configured, and
// finally the role repository.
//
// Once Refresh has run, the shared cache is only consulted for roles the last
// refresh listed; other names go straight to the repository.
type RoleResolver struct {
	repo   ports.RoleRepository
	shared ports.RoleCache
	local  *expirable.LRU[string, []string]
	log    zerolog.Logger

	mu     sync.RWMutex
	listed map[string]struct{} // nil until the first Refresh
	known  map[string]struct{} // names this resolver has cached or served
}

// NewRoleResolver builds a resolver. shared may be nil.
func NewRoleResolver(repo ports.RoleRepository, shared ports.RoleCache, cfg RoleResolverConfig, log zerolog.Logger) *RoleResolver {
	if cfg.Size <= 0 {
		cfg.Size = defaultRoleCacheSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultRoleCacheTTL
	}
	return &RoleResolver{
		repo:   repo,
		shared: shared,
		local:  expirable.NewLRU[string, []string](cfg.Size, nil, cfg.TTL),
		log:    log.With().Str("component", "role_resolver").Logger(),
		known:  make(map[string]struct{}),
	}
}

// Capabilities returns the capability set of role, or domain.ErrRoleNotFound
// when no role record exists. Callers must treat any error as "no
// capabilities".
func (r *RoleResolver) Capabilities(ctx context.Context, role string) ([]string, error) {
	if role == "" {
		return nil, domain.ErrRoleNotFound
	}

	if caps, ok := r.local.Get(role); ok {
		metrics.RoleCacheLookupsTotal.WithLabelValues("local", "hit").Inc()
		return slices.Clone(caps), nil
	}
	metrics.RoleCacheLookupsTotal.WithLabelValues("local", "miss").Inc()

	if r.shared != nil && r.trustShared(role) {
		caps, ok, err := r.shared.Get(ctx, role)
		switch {
		case err != nil:
			metrics.RoleCacheLookupsTotal.WithLabelValues("shared", "error").Inc()
			r.log.Warn().Err(err).Str("role", role).Msg("shared role cache lookup failed, falling back to store")
		case ok:
			metrics.RoleCacheLookupsTotal.WithLabelValues("shared", "hit").Inc()
			r.markKnown(role)
			r.local.Add(role, caps)
			return slices.Clone(caps), nil
		default:
			metrics.RoleCacheLookupsTotal.WithLabelValues("shared", "miss").Inc()
		}
	}

	rec, err := r.repo.Get(ctx, role)
	if err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			metrics.RoleCacheLookupsTotal.WithLabelValues("store", "miss").Inc()
			return nil, err
		}
		metrics.RoleCacheLookupsTotal.WithLabelValues("store", "error").Inc()
		return nil, fmt.Errorf("get role %q: %w", role, err)
	}
	metrics.RoleCacheLookupsTotal.WithLabelValues("store", "hit").Inc()

	r.remember(ctx, rec.Name, rec.Capabilities)
	return slices.Clone(rec.Capabilities), nil
}

// Refresh reloads every role from the repository and replaces the in-process
// map. Roles that are no longer listed are evicted from the shared cache too,
// so they stop resolving once the refresh completes.
func (r *RoleResolver) Refresh(ctx context.Context) error {
	roles, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list roles: %w", err)
	}

	listed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		listed[role.Name] = struct{}{}
	}

	r.mu.Lock()
	var stale []string
	for name := range r.known {
		if _, ok := listed[name]; !ok {
			stale = append(stale, name)
		}
	}
	r.listed = listed
	r.known = make(map[string]struct{}, len(listed))
	r.mu.Unlock()

	r.local.Purge()
	if r.shared != nil {
		for _, name := range stale {
			if err := r.shared.Invalidate(ctx, name); err != nil {
				r.log.Warn().Err(err).Str("role", name).Msg("failed to evict removed role from shared cache")
			}
		}
	}
	for _, role := range roles {
		r.remember(ctx, role.Name, role.Capabilities)
	}

	r.log.Debug().Int("roles", len(roles)).Int("evicted", len(stale)).Msg("role map refreshed")
	return nil
}

func (r *RoleResolver) remember(ctx context.Context, name string, caps []string) {
	caps = slices.Clone(caps)
	r.markKnown(name)
	r.local.Add(name, caps)
	if r.shared == nil {
		return
	}
	if err := r.shared.Set(ctx, name, caps); err != nil {
		r.log.Warn().Err(err).Str("role", name).Msg("failed to populate shared role cache")
	}
}

func (r *RoleResolver) markKnown(name string) {
	r.mu.Lock()
	r.known[name] = struct{}{}
	r.mu.Unlock()
}

func (r *RoleResolver) trustShared(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.listed == nil {
		return true
	}
	_, ok := r.listed[name]
	return ok
}
