package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	_ "github.com/jackc/pgx/v5/stdlib"

	alertapp "energyguard/internal/alerting/application"
	alertnotify "energyguard/internal/alerting/infrastructure/notify"
	alertpostgres "energyguard/internal/alerting/infrastructure/postgres"
	alertinterfaces "energyguard/internal/alerting/interfaces"
	alerthttp "energyguard/internal/alerting/interfaces/http"
	"energyguard/internal/auth"
	"energyguard/internal/cache"
	"energyguard/internal/config"
	dashapp "energyguard/internal/dashboard/application"
	dashhttp "energyguard/internal/dashboard/interfaces/http"
	"energyguard/internal/eventing"
	eventspostgres "energyguard/internal/events/infrastructure/postgres"
	fleetapp "energyguard/internal/fleet/application"
	fleetpostgres "energyguard/internal/fleet/infrastructure/postgres"
	fleethttp "energyguard/internal/fleet/interfaces/http"
	maintapp "energyguard/internal/maintenance/application"
	mainthttp "energyguard/internal/maintenance/interfaces/http"
	"energyguard/internal/observability/logging"
	"energyguard/internal/reports"
	telemetryapp "energyguard/internal/telemetry/application"
	telemetrypostgres "energyguard/internal/telemetry/infrastructure/postgres"
	telemetryhttp "energyguard/internal/telemetry/interfaces/http"
	telemetrykafka "energyguard/internal/telemetry/interfaces/kafka"
	woapp "energyguard/internal/workorders/application"
	wopostgres "energyguard/internal/workorders/infrastructure/postgres"
	wohttp "energyguard/internal/workorders/interfaces/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("info")
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("pgx", cfg.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("db open")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		logger.Fatal().Err(err).Msg("db ping")
	}

	var snapshotCache cache.Cache = cache.NewMemory()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		tiered, err := cache.NewRedis(client, logging.WithComponent(logger, "cache"))
		if err != nil {
			logger.Fatal().Err(err).Msg("redis cache")
		}
		snapshotCache = tiered
	}

	engineRepo := fleetpostgres.NewEngineRepository(db)
	telemetryRepo := telemetrypostgres.NewTelemetryRepository(db)
	ruleRepo := alertpostgres.NewRuleRepository(db)
	alertRepo := alertpostgres.NewAlertRepository(db)
	eventRepo := eventspostgres.NewEventRepository(db)
	workorderRepo := wopostgres.NewWorkOrderRepository(db)

	if cfg.SeedEngines {
		if err := fleetapp.SeedEngines(ctx, engineRepo, logger); err != nil {
			logger.Fatal().Err(err).Msg("seed engines")
		}
	}

	bus := eventing.NewInMemoryBus()

	var pushChannel alertapp.NotificationChannel
	if cfg.AlertWebhookURL != "" {
		channel, err := alertnotify.NewWebhookChannel(cfg.AlertWebhookURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("alert webhook")
		}
		pushChannel = channel
	}
	// Email and SMS gateways are not wired yet; rules requesting them log a
	// skipped delivery until a channel exists.
	notifier := alertapp.NewNotifier(nil, nil, pushChannel, logging.WithComponent(logger, "notify"))

	evaluator, err := alertapp.NewEvaluator(ruleRepo, alertRepo, engineRepo, eventRepo, notifier,
		logging.WithComponent(logger, "evaluator"))
	if err != nil {
		logger.Fatal().Err(err).Msg("evaluator")
	}
	evalConsumer, err := alertinterfaces.NewSampleReceivedConsumer(evaluator)
	if err != nil {
		logger.Fatal().Err(err).Msg("evaluator consumer")
	}
	evalConsumer.Register(bus)

	engineService, err := fleetapp.NewEngineService(engineRepo)
	if err != nil {
		logger.Fatal().Err(err).Msg("engine service")
	}
	ingestService := telemetryapp.NewIngestService(telemetryRepo, engineService, bus,
		logging.WithComponent(logger, "ingest"))
	alertService, err := alertapp.NewAlertService(alertRepo, nil, logging.WithComponent(logger, "alerts"))
	if err != nil {
		logger.Fatal().Err(err).Msg("alert service")
	}
	ruleService, err := alertapp.NewRuleService(ruleRepo, nil, logging.WithComponent(logger, "rules"))
	if err != nil {
		logger.Fatal().Err(err).Msg("rule service")
	}
	workorderService := woapp.NewWorkOrderService(workorderRepo, nil, logging.WithComponent(logger, "workorders"))
	forecastService, err := maintapp.NewForecastService(engineRepo, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("forecast service")
	}

	snapshotService := dashapp.NewSnapshotService(engineRepo, telemetryRepo, eventRepo,
		snapshotCache, cfg.SnapshotCacheTTL, nil, logging.WithComponent(logger, "snapshot"))
	broadcaster := dashapp.NewBroadcaster(snapshotService, dashapp.BroadcasterConfig{
		Interval:          cfg.BroadcastInterval,
		SubscriberTimeout: cfg.SubscriberTimeout,
		MaxSubscribers:    cfg.MaxSubscribers,
		FullSyncThreshold: cfg.FullSyncThreshold,
	}, logging.WithComponent(logger, "broadcast"))
	defer broadcaster.Stop()

	if len(cfg.KafkaBrokers) > 0 {
		consumer, err := telemetrykafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID,
			ingestService, logging.WithComponent(logger, "kafka"))
		if err != nil {
			logger.Fatal().Err(err).Msg("kafka consumer")
		}
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("kafka consumer stopped")
			}
		}()
	}

	ingestHandler, err := telemetryhttp.NewIngestHandler(ingestService, logging.WithComponent(logger, "ingest_http"))
	if err != nil {
		logger.Fatal().Err(err).Msg("ingest handler")
	}
	historyHandler, err := telemetryhttp.NewHistoryHandler(ingestService)
	if err != nil {
		logger.Fatal().Err(err).Msg("history handler")
	}
	exporter, err := alerthttp.NewAlertExporter(alertService)
	if err != nil {
		logger.Fatal().Err(err).Msg("alert exporter")
	}
	alertsHandler, err := alerthttp.NewAlertsHandler(alertService, exporter)
	if err != nil {
		logger.Fatal().Err(err).Msg("alerts handler")
	}
	rulesHandler, err := alerthttp.NewRulesHandler(ruleService)
	if err != nil {
		logger.Fatal().Err(err).Msg("rules handler")
	}
	enginesHandler, err := fleethttp.NewEnginesHandler(engineService)
	if err != nil {
		logger.Fatal().Err(err).Msg("engines handler")
	}
	workordersHandler, err := wohttp.NewWorkOrdersHandler(workorderService)
	if err != nil {
		logger.Fatal().Err(err).Msg("workorders handler")
	}
	forecastHandler, err := mainthttp.NewForecastHandler(forecastService)
	if err != nil {
		logger.Fatal().Err(err).Msg("forecast handler")
	}
	streamHandler, err := dashhttp.NewStreamHandler(broadcaster, rate.Limit(cfg.StreamConnRate),
		cfg.StreamConnBurst, logging.WithComponent(logger, "stream"))
	if err != nil {
		logger.Fatal().Err(err).Msg("stream handler")
	}
	statusHandler, err := dashhttp.NewStatusHandler(snapshotService, broadcaster)
	if err != nil {
		logger.Fatal().Err(err).Msg("status handler")
	}
	reportHandler, err := reports.NewFleetReportHandler(snapshotService, alertService)
	if err != nil {
		logger.Fatal().Err(err).Msg("report handler")
	}

	// Probes and scrapers carry no token; ingest authenticates with its own
	// signature scheme below.
	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, []string{"/ingest/"})
	authMiddleware := &auth.Middleware{Secret: []byte(cfg.JWTSecret), Policy: policy}
	ingestAuth := auth.NewIngestAuthMiddleware([]byte(cfg.IngestSecret), cfg.IngestMaxSkew)

	mux := http.NewServeMux()
	mux.Handle("/ingest/telemetry", ingestAuth.Wrap(ingestHandler))
	mux.Handle("/api/v1/telemetry/", historyHandler)
	mux.Handle("/api/v1/engines", enginesHandler)
	mux.Handle("/api/v1/engines/", enginesHandler)
	mux.Handle("/api/v1/alerts", alertsHandler)
	mux.Handle("/api/v1/alerts/", alertsHandler)
	mux.Handle("/api/v1/rules", rulesHandler)
	mux.Handle("/api/v1/rules/", rulesHandler)
	mux.Handle("/api/v1/workorders", workordersHandler)
	mux.Handle("/api/v1/workorders/", workordersHandler)
	mux.Handle("/api/v1/maintenance/", forecastHandler)
	mux.Handle("/api/v1/dashboard", statusHandler)
	mux.Handle("/api/v1/dashboard/stream", streamHandler)
	mux.Handle("/api/v1/reports/fleet", reportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("http server")
	}
}

func loggingMiddleware(next http.Handler, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", resp.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush keeps SSE streaming working through the middleware chain.
func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
