package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"cvpro/internal/api"
	"cvpro/internal/audit"
	"cvpro/internal/delivery"
	"cvpro/internal/events"
	"cvpro/internal/gateway"
	"cvpro/internal/health"
	"cvpro/internal/history"
	"cvpro/internal/lifecycle"
	"cvpro/internal/notification"
	"cvpro/internal/session"
	"cvpro/kit/broker"
	"cvpro/kit/config"
	"cvpro/kit/observability"
)

// app holds the wired components shared by every command.
type app struct {
	cfg       config.Config
	logger    *observability.Logger
	metrics   *observability.Metrics
	bus       *broker.Bus
	apiClient *api.Client
	register  session.Register
	engine    *lifecycle.Engine
	projector *history.Projector
	health    *health.Service
	auditSvc  *audit.Service
}

func newApp(cfgPath string, fakeWidget bool) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger()
	metrics := observability.NewMetrics()
	bus := broker.New()

	auditSvc, err := audit.NewServiceWithFile(logger, filepath.Join(cfg.Paths.StateDir, "audit.jsonl"))
	if err != nil {
		return nil, err
	}
	projector, err := history.NewProjector(filepath.Join(cfg.Paths.StateDir, "history.json"))
	if err != nil {
		return nil, err
	}
	notifySvc := notification.NewService(logger, os.Stdout)

	apiClient := api.NewClient(cfg.API.BaseURL, cfg.APITimeout())
	register, err := session.NewFileRegister(filepath.Join(cfg.Paths.StateDir, "pending.json"))
	if err != nil {
		return nil, err
	}
	deliverySvc := delivery.NewService(cfg.Paths.OutputDir, cfg.APITimeout())

	var widget gateway.WidgetSDK
	if fakeWidget {
		widget = gateway.NewFakeWidget()
	}
	gw := gateway.NewAdapter(gateway.Config{
		Mode:          gateway.Mode(cfg.Gateway.Mode),
		PublicKey:     cfg.Gateway.PublicKey,
		Currency:      cfg.Gateway.Currency,
		Amount:        cfg.Gateway.Amount,
		PaymentMethod: cfg.Gateway.PaymentMethod,
		Channels:      cfg.Gateway.Channels,
	}, apiClient, widget)

	engine := lifecycle.NewEngine(gw, apiClient, deliverySvc, register, bus, metrics, lifecycle.Config{
		PollInterval:  cfg.PollInterval(),
		ConfirmWindow: cfg.ConfirmWindow(),
		ResumeWindow:  cfg.ResumeWindow(),
		Amount:        cfg.Gateway.Amount,
	})

	healthSvc := health.NewService(2*time.Second, map[string]health.CheckFunc{
		"payment_service": health.PaymentServiceCheck(apiClient),
		"state_dir":       health.RegisterCheck(register),
	})

	for _, name := range []string{
		(events.PaymentInitiated{}).Name(),
		(events.GatewayRedirectStarted{}).Name(),
		(events.ConfirmationPending{}).Name(),
		(events.PaymentConfirmed{}).Name(),
		(events.PaymentFailed{}).Name(),
		(events.PaymentTimedOut{}).Name(),
		(events.PaymentCancelled{}).Name(),
		(events.ArtifactDelivered{}).Name(),
		(events.DeliveryFailed{}).Name(),
	} {
		bus.Subscribe(name, notifySvc.Handler())
		bus.Subscribe(name, auditSvc.Handler())
		bus.Subscribe(name, projector.Handler())
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
		bus:       bus,
		apiClient: apiClient,
		register:  register,
		engine:    engine,
		projector: projector,
		health:    healthSvc,
		auditSvc:  auditSvc,
	}, nil
}

func (a *app) close() {
	a.engine.Close()
	a.bus.Close()
	_ = a.auditSvc.Close()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
