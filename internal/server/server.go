package server

import (
	"context"
	"errors"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"

	"github.com/dwarvesf/btc-strk-purchase/internal/btcrpc"
	"github.com/dwarvesf/btc-strk-purchase/internal/btcrpc/blockstream"
	"github.com/dwarvesf/btc-strk-purchase/internal/gateway"
	"github.com/dwarvesf/btc-strk-purchase/internal/handler"
	"github.com/dwarvesf/btc-strk-purchase/internal/handler/health"
	"github.com/dwarvesf/btc-strk-purchase/internal/monitoring"
	"github.com/dwarvesf/btc-strk-purchase/internal/purchase"
	"github.com/dwarvesf/btc-strk-purchase/internal/session"
	"github.com/dwarvesf/btc-strk-purchase/internal/store"
	pgstore "github.com/dwarvesf/btc-strk-purchase/internal/store/postgres"
	"github.com/dwarvesf/btc-strk-purchase/internal/transport/http"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/config"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/logger"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/webhook"
	"github.com/dwarvesf/btc-strk-purchase/internal/wallet"
)

const sessionSweepTimeout = 2 * time.Minute

func Init() {
	appConfig := config.New()
	logger := logger.New(appConfig.Environment)
	clock := clockwork.NewRealClock()

	db := pgstore.New(appConfig, logger)
	s := store.New()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	apiMetrics := monitoring.NewExternalAPIMetrics()
	apiMetrics.MustRegister(registry)
	purchaseMetrics := monitoring.NewPurchaseMetrics()
	purchaseMetrics.MustRegister(registry)
	jobMetrics := monitoring.NewBackgroundJobMetrics()
	jobMetrics.MustRegister(registry)
	httpMetrics := monitoring.NewHTTPMetrics()
	httpMetrics.MustRegister(registry)

	explorer := monitoring.NewCircuitBreakerBlockStream(
		blockstream.New(appConfig, logger),
		monitoring.CircuitBreakerConfigs[monitoring.ServiceBlockstream],
		monitoring.DefaultTimeoutConfig,
		apiMetrics,
		logger,
	)
	btcRpc, err := btcrpc.New(appConfig, logger, explorer)
	if err != nil {
		logger.Error("[Init][btcrpc.New] failed to init bitcoin rpc", map[string]string{
			"error": err.Error(),
		})
		return
	}

	gw := monitoring.NewCircuitBreakerGateway(
		gateway.New(appConfig, logger, clock),
		monitoring.CircuitBreakerConfigs[monitoring.ServiceSwapGateway],
		monitoring.DefaultTimeoutConfig,
		apiMetrics,
		logger,
	)

	broker := wallet.NewBroker(logger)
	sessions, err := session.New(db, s, appConfig, logger, clock)
	if err != nil {
		logger.Error("[Init][session.New] failed to init session manager", map[string]string{
			"error": err.Error(),
		})
		return
	}

	purchaseSvc := purchase.New(db, s, gw, broker, sessions, btcRpc, appConfig, logger, purchaseMetrics, clock)
	notifier := webhook.New(logger)
	purchaseSvc.OnSuccess(func(p purchase.Purchase, btcTxID string) {
		event := webhook.PurchaseCompleted{
			PurchaseID:    p.ID,
			SwapID:        p.ID,
			ProfileID:     p.ProfileID,
			AssetID:       p.AssetID,
			SellerAddress: p.SellerAddress,
			PriceSats:     p.PriceSats,
			BtcTxID:       btcTxID,
			CompletedAt:   clock.Now(),
		}
		if p.CompletedAt != nil {
			event.CompletedAt = *p.CompletedAt
		}
		go notifier.NotifyPurchaseCompleted(context.Background(), appConfig.Webhook.PurchaseCompletedURL, event) //nolint:errcheck
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobStatusManager := monitoring.NewJobStatusManager(logger, jobMetrics, clock)
	go jobStatusManager.Run(ctx)

	c := cron.New()
	sweep := monitoring.NewInstrumentedJob(health.SessionSweepJob, func(ctx context.Context) (map[string]interface{}, error) {
		n, err := sessions.Sweep(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"expired_sessions": n}, nil
	}, jobStatusManager, logger, sessionSweepTimeout)
	if _, err := c.AddJob(appConfig.Session.CheckSchedule, sweep); err != nil {
		logger.Error("[Init][AddJob] invalid session check schedule", map[string]string{
			"schedule": appConfig.Session.CheckSchedule,
			"error":    err.Error(),
		})
		return
	}
	c.Start()

	h := handler.New(appConfig, logger, purchaseSvc, sessions, broker, gw, db,
		map[string]health.Checker{
			monitoring.ServiceSwapGateway: gw,
			monitoring.ServiceBlockstream: explorer,
		},
		registry, jobStatusManager, monitoring.NewBusinessMetricsRecorder(httpMetrics))

	srv := &nethttp.Server{
		Addr:    ":" + appConfig.ApiServer.Port,
		Handler: http.NewHttpServer(appConfig, logger, h, httpMetrics),
	}

	go func() {
		logger.Info("HTTP server listening", map[string]string{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			logger.Error("[Init][ListenAndServe]", map[string]string{
				"error": err.Error(),
			})
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("[Init][Shutdown]", map[string]string{
			"error": err.Error(),
		})
	}
	<-c.Stop().Done()
	purchaseSvc.Shutdown()
}
