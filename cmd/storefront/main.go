package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"Storefront/internal/catalog"
	"Storefront/internal/collection"
	"Storefront/internal/config"
	"Storefront/internal/kvstore"
	"Storefront/internal/session"
	"Storefront/internal/storefront"
	"Storefront/pkg/kit"
)

const startupTimeout = 10 * time.Second

func main() {
	service := "storefront"

	cfg, err := config.Load()
	if err != nil {
		boot := kit.NewLogger(service, "info")
		boot.Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	idx, err := catalog.LoadFile(cfg.CatalogPath, log)
	if err != nil {
		log.Fatal("load catalog failed", zap.Error(err), zap.String("path", cfg.CatalogPath))
	}
	log.Info("catalog loaded", zap.Int("products", idx.Len()), zap.Strings("categories", idx.Categories()))

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	backend, err := kvstore.OpenBackend(ctx, cfg.StoreOptions())
	cancel()
	if err != nil {
		log.Fatal("open store failed", zap.Error(err), zap.String("driver", cfg.StoreDriver))
	}

	store := kvstore.New(backend,
		kvstore.WithTimeout(cfg.StoreTimeout),
		kvstore.WithLogger(log),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := storefront.NewFactory(idx, store,
		storefront.WithLogger(log),
		storefront.WithMetrics(collection.NewMetrics(reg)),
	)

	s := &storefront.Server{
		Sessions:     session.NewRegistry(session.NewTokenMaker(cfg.SessionSecret), cfg.SessionTTL, cfg.SessionIdle, factory, log),
		Catalog:      idx,
		Store:        store,
		Log:          log,
		CookieTTL:    cfg.SessionTTL,
		CookieSecure: cfg.CookieSecure,
	}

	h := storefront.NewHandler(s, storefront.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
		ActionLimit:    kit.NewIPRateLimiter(cfg.ActionRateLimit, cfg.ActionRateWindow),
	})

	closeStore := func() {
		if err := store.Close(); err != nil {
			log.Warn("close store failed", zap.Error(err))
		}
	}

	if err := kit.RunHTTPServer(cfg.Addr(), h, log, closeStore); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
