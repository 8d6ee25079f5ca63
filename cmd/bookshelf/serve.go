package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/bookshelf/bookshelf-api/internal/api"
	"github.com/bookshelf/bookshelf-api/internal/api/handler"
	"github.com/bookshelf/bookshelf-api/internal/core/domain"
	"github.com/bookshelf/bookshelf-api/internal/core/ports"
	"github.com/bookshelf/bookshelf-api/internal/core/service"
	"github.com/bookshelf/bookshelf-api/internal/infrastructure/config"
	"github.com/bookshelf/bookshelf-api/internal/infrastructure/db"
	"github.com/bookshelf/bookshelf-api/internal/infrastructure/db/redis"
	"github.com/bookshelf/bookshelf-api/internal/infrastructure/scheduler"
	"github.com/bookshelf/bookshelf-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// bootstrap loads configuration, initialises logging and opens the store.
// The returned cleanup closes everything that was opened.
func bootstrap(ctx context.Context) (*config.Config, zerolog.Logger, *db.Store, *goredis.Client, func(), error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), nil, nil, nil, err
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Env: cfg.Env})
	if cfg.InsecureSecret() {
		log.Warn().Msg("SECRET is not set; tokens are signed with the development default")
	}

	store, err := db.Open(ctx, cfg.Store)
	if err != nil {
		return nil, log, nil, nil, nil, err
	}
	log.Info().Str("driver", store.Name()).Msg("store connected")

	var rdb *goredis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			_ = store.Close(context.Background())
			return nil, log, nil, nil, nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	}

	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if rdb != nil {
			if err := rdb.Close(); err != nil {
				log.Warn().Err(err).Msg("close redis")
			}
		}
		if err := store.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}
	return cfg, log, store, rdb, cleanup, nil
}

func serve(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, store, rdb, cleanup, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	checks := []handler.HealthChecker{store}
	var shared ports.RoleCache
	if rdb != nil {
		shared = redis.NewRoleCache(rdb, cfg.Roles.CacheTTL)
		checks = append(checks, redis.NewHealth(rdb))
	}

	roles := service.NewRoleResolver(store.Roles, shared, service.RoleResolverConfig{
		Size: cfg.Roles.CacheSize,
		TTL:  cfg.Roles.CacheTTL,
	}, log)
	if err := roles.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial role refresh failed; roles resolve lazily")
	}

	sched := scheduler.New(log, 0)
	if err := sched.Add("role-refresh", cfg.Roles.RefreshSchedule, roles.Refresh); err != nil {
		return err
	}

	tokens := service.NewTokenManager(cfg.Token.Secret, cfg.Token.DefaultWindow, cfg.Token.MaxWindow)
	e := api.NewRouter(api.Dependencies{
		Auth:   service.NewAuthService(store.Users, tokens, log),
		Roles:  roles,
		Books:  service.NewBookService(store.Books, log),
		Health: checks,
		Logger: log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr()).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sched.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func seedRoles(c *cli.Context) error {
	ctx := c.Context

	cfg, log, store, rdb, cleanup, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	var cache *redis.RoleCache
	if rdb != nil {
		cache = redis.NewRoleCache(rdb, cfg.Roles.CacheTTL)
	}

	for _, role := range domain.DefaultRoles() {
		if err := store.Roles.Upsert(ctx, role); err != nil {
			return err
		}
		if cache != nil {
			if err := cache.Invalidate(ctx, role.Name); err != nil {
				log.Warn().Err(err).Str("role", role.Name).Msg("shared cache not invalidated")
			}
		}
		log.Info().Str("role", role.Name).Strs("capabilities", role.Capabilities).Msg("role seeded")
	}
	return nil
}
