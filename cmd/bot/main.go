package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/quartz"
	"go.uber.org/zap"

	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/clock"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/config"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/discord"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/export"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/handler"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/i18n"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/scheduler"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/service"
	"github.com/AarishShah/Discord-Activity-Tracker-Bot/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	i18n.Init(cfg.DefaultLocale)

	if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
		logger.Fatal("create export dir", zap.String("dir", cfg.ExportDir), zap.Error(err))
	}

	// Connect to MongoDB
	db, err := store.NewMongoDB(cfg.MongoURI, cfg.MongoDB, logger)
	if err != nil {
		logger.Fatal("connect to MongoDB", zap.Error(err))
	}
	defer db.Close(context.Background())

	// Stores
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()
	logStore, err := store.NewAttendanceStore(initCtx, db)
	if err != nil {
		logger.Fatal("init attendance store", zap.Error(err))
	}
	voiceStore, err := store.NewVoiceStore(initCtx, db)
	if err != nil {
		logger.Fatal("init voice store", zap.Error(err))
	}
	counterStore := store.NewCounterStore(db)

	cal := clock.NewCalendar(quartz.NewReal(), cfg.Timezone, cfg.ShiftStart)

	// Discord client
	client, err := discord.New(cfg, logger)
	if err != nil {
		logger.Fatal("create discord client", zap.Error(err))
	}

	// Services
	engine := service.NewEngine(logStore, voiceStore, counterStore, cal, logger)
	attendanceSvc := service.NewAttendanceService(logStore, engine, cal, logger)
	reportSvc := service.NewReportService(logStore, voiceStore, client, cal, logger)
	counterSvc := service.NewCounterService(logStore, voiceStore, counterStore, logger)
	daily := export.NewDaily(reportSvc, client, cfg.ExportDir, logger)

	// Gateway handlers
	h := handler.New(client, attendanceSvc, reportSvc, counterSvc, engine, cal, cfg, logger)
	h.Register(client.Session())

	if err := client.Open(); err != nil {
		logger.Fatal("open gateway", zap.Error(err))
	}
	if err := client.RegisterCommands(handler.Commands()); err != nil {
		logger.Fatal("register commands", zap.Error(err))
	}

	// Scheduler
	sched := scheduler.New(cfg, attendanceSvc, engine, client, daily, client, cal, logger)
	sched.Start()

	logger.Info("bot started",
		zap.String("env", cfg.Env),
		zap.String("timezone", cfg.Timezone.String()),
	)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	engine.Shutdown(ctx)

	if err := client.Close(); err != nil {
		logger.Warn("close gateway", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
