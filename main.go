package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/ponto-be/internal/api"
	"github.com/isdelr/ponto-be/internal/auth"
	"github.com/isdelr/ponto-be/internal/config"
	"github.com/isdelr/ponto-be/internal/database"
	"github.com/isdelr/ponto-be/internal/logger"
	"github.com/isdelr/ponto-be/internal/monitoring"
	"github.com/isdelr/ponto-be/internal/services"
	"github.com/isdelr/ponto-be/internal/timeseries"
	"github.com/isdelr/ponto-be/internal/websocket"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

func main() {
	// A missing .env is fine; real deployments use the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to read .env: %v\n", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Set up database
	db, err := database.New(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up services
	employeeService := services.NewEmployeeService(db)
	attendanceService := services.NewAttendanceService(db, cfg.Location)
	if n, err := employeeService.EnsureAdmins(ctx, cfg.Admins); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed administrators")
	} else if n > 0 {
		log.Info().Int("created", n).Msg("Seeded administrator accounts")
	}
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	// Monitoring: time-series store, alert sinks, metrics
	store, err := newSampleStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.TSDriver).Msg("Failed to initialize time-series store")
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(registry)

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run(ctx)

	notifiers := []monitoring.Notifier{
		monitoring.NewTelegramNotifier(&http.Client{Timeout: cfg.NotifyTimeout}, cfg.TelegramAPIURL, cfg.TelegramToken, cfg.TelegramChatID),
		monitoring.NewHubNotifier(hub),
	}
	if cfg.TelegramToken == "" || cfg.TelegramChatID == "" {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID not set; chat alerts will fail and be logged")
	}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier := monitoring.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaAlertTopic)
		defer kafkaNotifier.Close()
		notifiers = append(notifiers, kafkaNotifier)
	}
	dispatcher := monitoring.NewDispatcher(cfg.NotifyTimeout, metrics, notifiers...)
	ingestor := monitoring.NewIngestor(store, dispatcher, metrics)

	retention, err := monitoring.NewRetentionScheduler(store, cfg.RetentionSchedule, cfg.SampleRetention, metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure sample retention")
	}
	retention.Start()

	// Set up servers
	pontoSrv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: api.NewPontoRouter(api.PontoDeps{
			Employees:    employeeService,
			Attendance:   attendanceService,
			Issuer:       issuer,
			DB:           db,
			CORSOrigins:  cfg.CORSOrigins,
			SecureCookie: cfg.IsProduction(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	monitorSrv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.MonitorPort),
		Handler: api.NewMonitorRouter(api.MonitorDeps{
			Ingestor:    ingestor,
			Hub:         hub,
			Issuer:      issuer,
			Gatherer:    registry,
			CORSOrigins: cfg.CORSOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serve := func(name string, srv *http.Server) {
		log.Info().Str("server", name).Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("server", name).Msg("ListenAndServe failed")
			stop()
		}
	}
	go serve("ponto", pontoSrv)
	go serve("monitor", monitorSrv)

	<-ctx.Done()
	log.Info().Msg("Shutting down servers...")

	retention.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for name, srv := range map[string]*http.Server{"ponto": pontoSrv, "monitor": monitorSrv} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Str("server", name).Msg("Server forced to shutdown")
		}
	}
	dispatcher.Wait()

	log.Info().Msg("Servers exited")
}

func newSampleStore(ctx context.Context, cfg *config.Config) (timeseries.SampleStore, error) {
	switch cfg.TSDriver {
	case "sql":
		tsdb, err := database.New(cfg.TSDriverSQL, cfg.TSDatabaseURL)
		if err != nil {
			return nil, err
		}
		store, err := timeseries.NewSQLStore(tsdb, cfg.TSMeasurement)
		if err != nil {
			tsdb.Close()
			return nil, err
		}
		if err := store.Init(ctx); err != nil {
			tsdb.Close()
			return nil, err
		}
		return store, nil
	default:
		store, err := timeseries.NewInfluxStore(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket, cfg.TSMeasurement)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}
