package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/benbjohnson/clock"
	"github.com/nats-io/nats.go"
	"github.com/sifan077/ushort/config"
	"github.com/sifan077/ushort/internal/app/clipboard"
	"github.com/sifan077/ushort/internal/app/model"
	"github.com/sifan077/ushort/internal/app/notify"
	"github.com/sifan077/ushort/internal/app/repository"
	"github.com/sifan077/ushort/internal/app/service"
	"github.com/sifan077/ushort/internal/app/workflow"
	"github.com/sifan077/ushort/internal/http/client"
	"github.com/sifan077/ushort/internal/infra/database"
	infraNATS "github.com/sifan077/ushort/internal/infra/nats"
	infraPrometheus "github.com/sifan077/ushort/internal/infra/prometheus"
	infraRedis "github.com/sifan077/ushort/internal/infra/redis"
	"go.uber.org/zap"
)

// runtime is everything a command needs, built once per invocation.
type runtime struct {
	env   Env
	clock clock.Clock

	notifications *notify.Scheduler
	history       *service.HistoryService
	events        *service.LinkEventPublisher
	natsConn      *nats.Conn

	shorten   *workflow.ShortenWorkflow
	analytics *workflow.AnalyticsWorkflow

	closers []func()
}

func newRuntime(ctx context.Context, env Env) *runtime {
	cfg := env.Config
	log := env.Logger

	rt := &runtime{env: env, clock: env.Clock}
	if rt.clock == nil {
		rt.clock = clock.New()
	}

	rt.notifications = notify.NewScheduler(rt.clock, printNotification(env.Stderr))
	rt.closers = append(rt.closers, rt.notifications.Close)

	rt.history = rt.openHistory(ctx, cfg)
	rt.events = rt.openEvents(cfg)
	rt.startMetrics(cfg.Metrics)

	api := client.New(client.Deps{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  log,
	})
	links := service.NewLinkService(api)

	copier := env.Clipboard
	if copier == nil {
		copier = clipboard.Default(log)
	}

	shortenObservers := []workflow.ShortenObserver{workflow.PublishShortenEvents(rt.events)}
	if rt.history.Enabled() {
		shortenObservers = append(shortenObservers, workflow.RecordHistory(ctx, rt.history, log))
	}

	rt.shorten = workflow.NewShortenWorkflow(workflow.ShortenDeps{
		Links:     links,
		Notifier:  rt.notifications,
		Clipboard: copier,
		Clock:     rt.clock,
		Logger:    log,
		Observers: shortenObservers,
	})
	rt.analytics = workflow.NewAnalyticsWorkflow(workflow.AnalyticsDeps{
		Links:     links,
		Clock:     rt.clock,
		Logger:    log,
		Observers: []workflow.AnalyticsObserver{workflow.PublishAnalyticsEvents(rt.events, rt.clock)},
	})
	rt.closers = append(rt.closers, rt.shorten.Close)

	return rt
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// openHistory never fails the command: a broken store only disables history.
func (rt *runtime) openHistory(ctx context.Context, cfg *config.Config) *service.HistoryService {
	log := rt.env.Logger

	var repo repository.HistoryRepository
	switch cfg.History.Driver {
	case "sqlite", "postgres":
		db, err := database.Open(cfg.History)
		if err != nil {
			log.Warn("History store unavailable", zap.String("driver", cfg.History.Driver), zap.Error(err))
			break
		}
		if err := database.AutoMigrate(ctx, db, &model.HistoryEntry{}); err != nil {
			log.Warn("History migration failed", zap.Error(err))
			_ = database.Close(db)
			break
		}
		rt.closers = append(rt.closers, func() { _ = database.Close(db) })
		repo = repository.NewHistoryRepository(db)
	case "redis":
		rdb, err := infraRedis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis history unavailable", zap.String("addr", infraRedis.Addr(cfg.Redis)), zap.Error(err))
			break
		}
		rt.closers = append(rt.closers, func() { _ = rdb.Close() })
		repo = repository.NewRedisHistoryRepository(rdb, cfg.History.Key, cfg.History.Limit)
	}

	history := service.NewHistoryService(repo, cfg.History.Limit, log)
	if history.Enabled() {
		if err := history.Warm(ctx); err != nil {
			log.Warn("Failed to warm history filter", zap.Error(err))
		}
	}
	return history
}

func (rt *runtime) openEvents(cfg *config.Config) *service.LinkEventPublisher {
	log := rt.env.Logger
	if !cfg.NATS.Enabled() {
		return service.NewLinkEventPublisher(nil, log)
	}

	conn, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		log.Warn("Link events disabled", zap.String("url", infraNATS.URL(cfg.NATS)), zap.Error(err))
		return service.NewLinkEventPublisher(nil, log)
	}
	rt.natsConn = conn
	rt.closers = append(rt.closers, func() { _ = conn.Drain() })
	return service.NewLinkEventPublisher(conn, log)
}

func (rt *runtime) startMetrics(cfg config.MetricsConfig) {
	if !cfg.Enabled() {
		return
	}
	log := rt.env.Logger

	promServer := infraPrometheus.NewServer(cfg)
	go func() {
		log.Info("Starting Prometheus metrics server", zap.String("addr", promServer.Addr))
		if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
		}
	}()
	rt.closers = append(rt.closers, func() {
		if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("Failed to close Prometheus server", zap.Error(err))
		}
	})
}

func printNotification(w io.Writer) notify.Listener {
	return func(n *model.Notification) {
		if n == nil {
			return
		}
		mark := "✓"
		if n.Kind == model.NotificationError {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", mark, n.Message)
	}
}
