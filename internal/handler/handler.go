package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/dwarvesf/btc-strk-purchase/internal/gateway"
	"github.com/dwarvesf/btc-strk-purchase/internal/handler/health"
	"github.com/dwarvesf/btc-strk-purchase/internal/handler/metrics"
	purchaseHandler "github.com/dwarvesf/btc-strk-purchase/internal/handler/purchase"
	sessionHandler "github.com/dwarvesf/btc-strk-purchase/internal/handler/session"
	"github.com/dwarvesf/btc-strk-purchase/internal/handler/signing"
	"github.com/dwarvesf/btc-strk-purchase/internal/handler/swap"
	"github.com/dwarvesf/btc-strk-purchase/internal/monitoring"
	"github.com/dwarvesf/btc-strk-purchase/internal/purchase"
	"github.com/dwarvesf/btc-strk-purchase/internal/session"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/config"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/logger"
	"github.com/dwarvesf/btc-strk-purchase/internal/wallet"
)

type Handler struct {
	PurchaseHandler purchaseHandler.IHandler
	SigningHandler  signing.IHandler
	SessionHandler  sessionHandler.IHandler
	SwapHandler     swap.IHandler
	HealthHandler   health.IHealthHandler
	MetricsHandler  *metrics.MetricsHandler
}

func New(appConfig *config.AppConfig, logger *logger.Logger,
	purchaseSvc purchase.IService,
	sessions session.IManager,
	broker wallet.IBroker,
	gw gateway.IGateway,
	db *gorm.DB,
	external map[string]health.Checker,
	metricsRegistry *prometheus.Registry,
	jobStatusManager *monitoring.JobStatusManager,
	recorder *monitoring.BusinessMetricsRecorder) *Handler {
	return &Handler{
		PurchaseHandler: purchaseHandler.New(purchaseSvc, logger, recorder),
		SigningHandler:  signing.New(broker, purchaseSvc, logger, recorder),
		SessionHandler:  sessionHandler.New(sessions, logger, recorder),
		SwapHandler:     swap.New(gw, logger),
		HealthHandler:   health.New(appConfig, logger, db, external, jobStatusManager),
		MetricsHandler:  metrics.NewMetricsHandler(metricsRegistry),
	}
}
