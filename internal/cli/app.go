// Package cli assembles stores, observers and the board manager from configuration
// for the swimlane command and its servers.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/swimlane"
	"github.com/aretw0/swimlane/internal/adapters/file"
	"github.com/aretw0/swimlane/internal/adapters/redis"
	"github.com/aretw0/swimlane/internal/config"
	"github.com/aretw0/swimlane/pkg/adapters/memory"
	"github.com/aretw0/swimlane/pkg/domain"
	"github.com/aretw0/swimlane/pkg/observability"
	"github.com/aretw0/swimlane/pkg/persistence/middleware"
	"github.com/aretw0/swimlane/pkg/ports"
	"github.com/aretw0/swimlane/pkg/session"
)

// App is everything a command needs to work on boards.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Store   ports.StateStore
	Boards  *session.Manager
	Metrics *observability.Metrics

	closers []func() error
}

// Options tune Open beyond what the config file holds.
type Options struct {
	// Registerer receives the metrics collectors. Nil keeps them unregistered.
	Registerer prometheus.Registerer
}

// Open builds the store named by cfg, wraps it with encryption when a key is
// configured, and returns a manager whose boards are audited and measured.
func Open(cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	var locker ports.DistributedLocker
	switch cfg.Store.Kind {
	case config.StoreMemory:
		app.Store = memory.NewStore()
	case config.StoreFile:
		app.Store = file.New(cfg.Store.Dir)
	case config.StoreRedis:
		r := cfg.Store.Redis
		var redisOpts []redis.Option
		if r.Prefix != "" {
			redisOpts = append(redisOpts, redis.WithPrefix(r.Prefix))
		}
		if r.TTL > 0 {
			redisOpts = append(redisOpts, redis.WithTTL(r.TTL))
		}
		store := redis.New(r.Addr, r.Password, r.DB, redisOpts...)
		if err := store.Client().Ping(context.Background()).Err(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", r.Addr, err)
		}
		prefix := r.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		locker = redis.NewLocker(store.Client(), prefix)
		app.Store = store
		app.closers = append(app.closers, store.Close)
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}

	if cfg.EncryptionKey != "" {
		enc, err := encryptionConfig(cfg.EncryptionKey)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Store = middleware.Chain(app.Store, middleware.NewEncryptionMiddleware(enc))
	}

	app.Metrics = observability.NewMetrics(opts.Registerer)

	boardOpts := []swimlane.Option{
		swimlane.WithLogger(logger),
		swimlane.WithReorderHistory(ReorderPolicy(cfg.ReorderHistory)),
		swimlane.WithHooks(observability.AuditHooks(logger)),
		swimlane.WithHooks(app.Metrics.Hooks()),
		swimlane.WithFaultObserver(app.Metrics.PersistenceFault),
	}
	mgrOpts := []session.Option{
		session.WithLogger(logger),
		session.WithBoardOptions(boardOpts...),
	}
	if locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(locker))
	}
	app.Boards = session.NewManager(app.Store, mgrOpts...)
	return app, nil
}

// ReorderPolicy maps the reorder_history setting to a policy.
func ReorderPolicy(s string) swimlane.ReorderPolicy {
	if strings.EqualFold(s, "always") {
		return swimlane.ReorderAlways
	}
	return swimlane.ReorderWhenCrowded
}

// encryptionConfig reads a comma separated key list: the first key encrypts,
// the rest are only tried for decryption.
func encryptionConfig(keys string) (middleware.EncryptionConfig, error) {
	var cfg middleware.EncryptionConfig
	for i, raw := range strings.Split(keys, ",") {
		key, err := middleware.ParseKey(strings.TrimSpace(raw))
		if err != nil {
			return cfg, fmt.Errorf("encryption key %d: %w", i+1, err)
		}
		if i == 0 {
			cfg.ActiveKey = key
		} else {
			cfg.FallbackKeys = append(cfg.FallbackKeys, key)
		}
	}
	return cfg, nil
}

// Board runs fn against the configured board.
func (a *App) Board(ctx context.Context, fn func(context.Context, *swimlane.Board) error) error {
	return a.Boards.Do(ctx, a.Config.Board, fn)
}

// Close releases store connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Notice formats a rule denial for display, or returns "" for other errors.
func Notice(err error) string {
	denied, ok := swimlane.Denied(err)
	if !ok {
		return ""
	}
	return fmt.Sprintf("Move denied: you are not allowed to move blocks from %s to %s.", denied.FromLane, denied.ToLane)
}

// IsUserError reports whether err comes from a bad index or rule rather than a fault.
func IsUserError(err error) bool {
	return errors.Is(err, domain.ErrInvalidLane) ||
		errors.Is(err, domain.ErrInvalidBlock) ||
		errors.Is(err, domain.ErrInvalidRule)
}
