// Server entrypoint. Wires stores, services, and handlers, then runs the
// HTTP server with graceful shutdown. Business logic lives in the internal
// module packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	accesshandler "meshgov/internal/access/handler"
	accessmetrics "meshgov/internal/access/metrics"
	accessservice "meshgov/internal/access/service"
	apikeystore "meshgov/internal/access/store/apikey"
	grantstore "meshgov/internal/access/store/grant"
	requeststore "meshgov/internal/access/store/request"
	"meshgov/internal/audit"
	audithandler "meshgov/internal/audit/handler"
	auditmemory "meshgov/internal/audit/store/memory"
	auditpostgres "meshgov/internal/audit/store/postgres"
	cataloghandler "meshgov/internal/catalog/handler"
	catalogmetrics "meshgov/internal/catalog/metrics"
	catalogservice "meshgov/internal/catalog/service"
	catalogstore "meshgov/internal/catalog/store"
	"meshgov/internal/compliance"
	compliancehandler "meshgov/internal/compliance/handler"
	"meshgov/internal/insights"
	insightshandler "meshgov/internal/insights/handler"
	"meshgov/internal/notify"
	"meshgov/internal/platform/config"
	"meshgov/internal/platform/httpserver"
	"meshgov/internal/platform/logger"
	"meshgov/internal/policy"
	policyhandler "meshgov/internal/policy/handler"
	httptransport "meshgov/internal/transport/http"
)

const notifyChannel = "meshgov:owner-notifications"

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New()

	policyStore := policy.NewStore()

	auditStore, closeAudit, err := newAuditStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeAudit()
	recorder := audit.NewRecorder(auditStore, policyStore)

	products := catalogstore.NewInMemory()
	catalogSvc := catalogservice.New(products, recorder, cfg.CollationLocale,
		catalogservice.WithLogger(log),
		catalogservice.WithMetrics(catalogmetrics.New()),
	)

	notifier, closeNotifier, err := newNotifier(cfg, log)
	if err != nil {
		return err
	}
	defer closeNotifier()

	accessSvc := accessservice.New(
		requeststore.NewInMemory(),
		grantstore.NewInMemory(),
		apikeystore.NewInMemory(),
		products,
		policy.NewEngine(),
		policyStore,
		recorder,
		notifier,
		cfg.GrantTTL,
		cfg.ExpiryWarningWindow,
		accessservice.WithLogger(log),
		accessservice.WithMetrics(accessmetrics.New()),
	)

	rules := compliance.NewStore(time.Now())
	insightsSvc := insights.New(products, rules, cfg.ViolationWeight)

	router := httptransport.NewRouter(httptransport.Handlers{
		Catalog:    cataloghandler.New(catalogSvc, log),
		Access:     accesshandler.New(accessSvc, log),
		Policy:     policyhandler.New(policyStore, recorder, log),
		Audit:      audithandler.New(recorder, log),
		Compliance: compliancehandler.New(rules, recorder, log),
		Insights:   insightshandler.New(insightsSvc, log),
	}, cfg.AdminToken, log)

	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// newAuditStore selects the Postgres audit store when a DSN is configured
// and falls back to the in-memory store otherwise.
func newAuditStore(cfg config.Config, log *slog.Logger) (audit.Store, func(), error) {
	if cfg.PostgresDSN == "" {
		log.Info("audit store: in-memory")
		return auditmemory.NewInMemoryStore(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	log.Info("audit store: postgres")
	return auditpostgres.New(db), func() { _ = db.Close() }, nil
}

// newNotifier publishes owner notifications to Redis when configured and
// logs them otherwise.
func newNotifier(cfg config.Config, log *slog.Logger) (notify.Notifier, func(), error) {
	if cfg.RedisURL == "" {
		return notify.NewLogNotifier(log), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)
	log.Info("owner notifications: redis", "channel", notifyChannel)
	return notify.NewRedisNotifier(client, notifyChannel, log), func() { _ = client.Close() }, nil
}
