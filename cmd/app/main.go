package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"room-reservation-api/internal/auth"
	"room-reservation-api/internal/booking"
	"room-reservation-api/internal/clock"
	"room-reservation-api/internal/config"
	"room-reservation-api/internal/directory"
	"room-reservation-api/internal/events"
	"room-reservation-api/internal/logging"
	"room-reservation-api/internal/policy"
	"room-reservation-api/internal/reports"
	"room-reservation-api/internal/scheduler"
	"room-reservation-api/internal/server"
	"room-reservation-api/internal/store/gormstore"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	st, err := gormstore.Open(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	calendar := clock.NewCalendar(cfg.Holidays, cfg.BusinessHours)
	realClock := clock.Real{}
	policyEngine := policy.NewEngine(calendar)
	bus := events.NewBus(logger)

	tokens := newTokenStore(logger)
	defer tokens.Close()

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL, tokens)
	coordinator := booking.NewCoordinator(st, policyEngine, realClock, bus)
	dir := directory.NewService(st)
	reportSvc := reports.NewService(st, logger)

	sched := scheduler.New(st, coordinator, realClock, bus, tokens, logger, cfg.AutoApproveAfter, cfg.ArchiveAfter)
	sched.Start()

	engine := server.New(server.Deps{
		Config:      *cfg,
		Store:       st,
		Coordinator: coordinator,
		Directory:   dir,
		Reports:     reportSvc,
		Issuer:      issuer,
		Tokens:      tokens,
		Calendar:    calendar,
		Bus:         bus,
		Logger:      logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.ServerPort
	if err := server.Run(ctx, addr, engine, 10*time.Second, logger); err != nil {
		logger.Error("server error", "error", err)
		sched.Stop(context.Background())
		os.Exit(1)
	}

	sched.Stop(context.Background())
	logger.Info("shutdown complete")
}

// newTokenStore prefers Redis when TOKEN_STORE_ADDR is configured,
// falling back to the in-memory pruned store for single-process/SQLite
// deployments.
func newTokenStore(logger *slog.Logger) auth.TokenStore {
	if addr := os.Getenv("TOKEN_STORE_ADDR"); addr != "" {
		logger.Info("using redis token store", "addr", addr)
		return auth.NewRedisTokenStore(addr, os.Getenv("TOKEN_STORE_PASSWORD"), 0)
	}
	logger.Info("using in-memory token store")
	return auth.NewMemoryTokenStore()
}
