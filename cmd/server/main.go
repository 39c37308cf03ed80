package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"docaudit/internal/audit/engine"
	"docaudit/internal/audit/handler"
	"docaudit/internal/audit/models"
	"docaudit/internal/audit/ports"
	"docaudit/internal/audit/rules"
	"docaudit/internal/audit/service"
	"docaudit/internal/dispatch"
	"docaudit/internal/dispatch/bitrix"
	"docaudit/internal/dispatch/kafka"
	"docaudit/internal/dispatch/telegram"
	"docaudit/internal/fetcher/moysklad"
	"docaudit/internal/fetcher/moysklad/ownercache"
	"docaudit/internal/platform/config"
	"docaudit/internal/platform/httpserver"
	"docaudit/internal/platform/logger"
	"docaudit/internal/platform/metrics"
	redisplatform "docaudit/internal/platform/redis"
	"docaudit/internal/platform/token"
	"docaudit/internal/reportstore"
	httptransport "docaudit/internal/transport/http"
)

// main wires the dependency graph and owns the server lifecycle. Business
// logic lives in internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("service exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()
	m := metrics.New()

	// Owner-name cache: shared through redis when configured, in-process
	// otherwise.
	var ownerCache ownercache.Store = ownercache.NewMemory()
	healthChecks := make(map[string]httptransport.HealthChecker)
	rdb, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		ownerCache = ownercache.NewRedis(rdb.Client, cfg.Audit.OwnerCacheTTL, log)
		healthChecks["redis"] = rdb
		log.Info("owner cache backed by redis")
	}

	fetcherOpts := []moysklad.Option{
		moysklad.WithOwnerCache(ownerCache),
		moysklad.WithLogger(log),
	}
	if cfg.MoySklad.BaseURL != "" {
		fetcherOpts = append(fetcherOpts, moysklad.WithBaseURL(cfg.MoySklad.BaseURL))
	}
	fetcher, err := moysklad.New(platformCredentials(cfg.MoySklad), fetcherOpts...)
	if err != nil {
		return err
	}

	catalog := rules.NewCatalog(
		rules.WithContactCenter(cfg.Audit.ContactCenter),
		rules.WithMinPrice(cfg.Audit.MinPrice),
	)
	eng, err := engine.New(catalog, engine.WithLogger(log))
	if err != nil {
		return err
	}

	// Report archive: postgres when configured, in-memory otherwise.
	var store ports.ReportStore = reportstore.NewMemory()
	if cfg.PostgresDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		pg := reportstore.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		store = pg
		log.Info("report archive backed by postgres")
	}

	svc, err := service.New(fetcher, eng,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithReportStore(store),
	)
	if err != nil {
		return err
	}

	sinks, closeSinks, err := buildSinks(cfg.Dispatch, log)
	if err != nil {
		return err
	}
	defer closeSinks()
	orchestrator := dispatch.New(sinks, dispatch.WithLogger(log), dispatch.WithMetrics(m))

	auditHandler, err := handler.New(svc, orchestrator, store, log)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Audit:        auditHandler,
		JWTValidator: token.NewValidator(cfg.Server.JWTSigningKey),
		Health:       healthChecks,
		Logger:       log,
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting docaudit server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}
	return httpserver.Shutdown(srv, 10*time.Second)
}

// buildSinks assembles the configured report sinks. Unconfigured sinks are
// skipped, not errors; a half-configured sink is a startup error.
func buildSinks(cfg config.Dispatch, log *slog.Logger) ([]ports.Sink, func(), error) {
	var sinks []ports.Sink
	closeFn := func() {}

	if cfg.TelegramToken != "" || cfg.TelegramChatID != "" {
		sink, err := telegram.New(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			return nil, closeFn, err
		}
		sinks = append(sinks, sink)
	}
	if cfg.BitrixWebhook != "" || cfg.BitrixChatID != "" {
		sink, err := bitrix.New(cfg.BitrixWebhook, cfg.BitrixChatID)
		if err != nil {
			return nil, closeFn, err
		}
		sinks = append(sinks, sink)
	}
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := kafka.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, closeFn, err
		}
		sinks = append(sinks, sink)
		closeFn = sink.Close
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	log.Info("report sinks configured", "sinks", names)
	return sinks, closeFn, nil
}

func platformCredentials(cfg config.MoySklad) map[models.Region]moysklad.Credentials {
	out := make(map[models.Region]moysklad.Credentials, len(cfg.Credentials))
	for region, account := range cfg.Credentials {
		out[region] = moysklad.Credentials{Login: account.Login, Password: account.Password}
	}
	return out
}
