package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Paul-Karonji/Juba-Errands/internal/config"
	"github.com/Paul-Karonji/Juba-Errands/internal/db"
	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/Paul-Karonji/Juba-Errands/internal/handler"
	"github.com/Paul-Karonji/Juba-Errands/internal/repository"
	"github.com/Paul-Karonji/Juba-Errands/internal/server"
	"github.com/Paul-Karonji/Juba-Errands/internal/service"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer pg.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, pg.Pool); err != nil {
			logger.Error("failed to migrate schema", "err", err)
			os.Exit(1)
		}
		logger.Info("schema migrated")
	}

	// repositories
	store := repository.Store{DB: pg}
	views := repository.NewShipmentViewRepository(pg.Pool, logger)
	dashboardRepo := repository.DashboardRepository{DB: pg.Pool}

	// services
	shipmentSvc := service.ShipmentService{
		Store:  store,
		Reader: views,
		Logger: logger,
		Options: service.ShipmentOptions{
			Currency:                 cfg.DefaultCurrency,
			WaybillBaseline:          cfg.WaybillBaseline,
			MaxAttempts:              cfg.WaybillMaxAttempts,
			EnforceStatusTransitions: cfg.EnforceStatusTransitions,
		},
	}
	readModel := service.ReadModel{Reader: views}
	parties := service.PartyRegistry{Store: store}
	charges := service.ChargeLedger{Store: store, Currency: cfg.DefaultCurrency}
	payments := service.PaymentLedger{Store: store}
	dashboardSvc := service.DashboardService{Reader: dashboardRepo, Shipments: views, Logger: logger}

	// handlers
	healthHandler := handler.HealthHandler{DB: pg}
	shipmentHandler := handler.ShipmentHandler{Writer: shipmentSvc, Queries: readModel, Payments: payments}
	senderHandler := handler.PartyHandler{Registry: parties, Shipments: readModel, Role: domain.RoleSender}
	receiverHandler := handler.PartyHandler{Registry: parties, Shipments: readModel, Role: domain.RoleReceiver}
	chargeHandler := handler.ChargeHandler{Ledger: charges}
	paymentHandler := handler.PaymentHandler{Ledger: payments}
	dashboardHandler := handler.DashboardHandler{Reports: dashboardSvc}

	router := server.NewRouter(cfg, logger, healthHandler, shipmentHandler, senderHandler, receiverHandler, chargeHandler, paymentHandler, dashboardHandler)

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
