package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"MedSchedulePlatform/pkg/config"
	"MedSchedulePlatform/pkg/database"
	"MedSchedulePlatform/pkg/errors"
	"MedSchedulePlatform/pkg/health"
	"MedSchedulePlatform/pkg/logger"
	"MedSchedulePlatform/pkg/metrics"
	"MedSchedulePlatform/pkg/rabbitmq"
	"MedSchedulePlatform/pkg/ratelimit"
	pkgredis "MedSchedulePlatform/pkg/redis"
	httphandler "MedSchedulePlatform/services/auth-service/internal/handler/http"
	securitymetrics "MedSchedulePlatform/services/auth-service/internal/metrics"
	"MedSchedulePlatform/services/auth-service/internal/middleware"
	"MedSchedulePlatform/services/auth-service/internal/pkg/cipher"
	"MedSchedulePlatform/services/auth-service/internal/pkg/jwt"
	"MedSchedulePlatform/services/auth-service/internal/pkg/password"
	"MedSchedulePlatform/services/auth-service/internal/repository/postgres"
	redisrepo "MedSchedulePlatform/services/auth-service/internal/repository/redis"
	"MedSchedulePlatform/services/auth-service/internal/scheduler"
	"MedSchedulePlatform/services/auth-service/internal/service"
)

const (
	serviceName    = "auth-service"
	serviceVersion = "1.0.0"

	securityEventQueueSize = 256
)

func main() {
	cfg, err := config.LoadConfig(findConfigPath())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(cfg.Environment, cfg.Logger.Level, serviceName)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := metrics.InitializeOpenTelemetry(serviceName, serviceVersion)
	if err != nil {
		appLogger.Error("Failed to initialize tracing", logger.Error(err))
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	db, err := database.Connect(ctx, database.FromAppConfig(cfg.Database))
	if err != nil {
		appLogger.Error("Failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.EnsureSchema(ctx, db.Pool); err != nil {
		appLogger.Error("Failed to apply database schema", logger.Error(err))
		os.Exit(1)
	}

	redisClient, err := pkgredis.Connect(ctx, pkgredis.FromAppConfig(cfg.Redis))
	if err != nil {
		appLogger.Error("Failed to connect to redis", logger.Error(err))
		os.Exit(1)
	}
	defer redisClient.Close()

	registry := prometheus.DefaultRegisterer
	httpMetrics := metrics.NewMetrics(serviceName, registry)
	secMetrics := securitymetrics.NewSecurityMetrics("medsched", registry)

	broker := service.SecurityEventPublisher(service.NoopEventPublisher{})
	var rabbitConn *rabbitmq.Connection
	if cfg.RabbitMQ.Enabled {
		rabbitConfig := rabbitmq.NewConfig()
		rabbitConfig.URL = cfg.RabbitMQ.URL
		rabbitConfig.Exchange = cfg.RabbitMQ.Exchange

		rabbitConn, err = rabbitmq.Connect(ctx, rabbitConfig)
		if err != nil {
			appLogger.Error("Failed to connect to rabbitmq", logger.Error(err))
			os.Exit(1)
		}
		defer rabbitConn.Close()
		broker = service.NewRabbitEventPublisher(rabbitmq.NewProducer(rabbitConn, rabbitConfig), appLogger)
	}
	events := service.NewAsyncEventPublisher(broker, securityEventQueueSize, secMetrics, appLogger)
	events.Start()

	fieldCipher, err := cipher.New(cfg.Security.FieldEncryptionSecret, cipher.WithFailureHook(func(err error) {
		secMetrics.DecryptFailed()
		appLogger.Error("Failed to decrypt PHI field", logger.Error(err))
	}))
	if err != nil {
		appLogger.Error("Failed to initialize field cipher", logger.Error(err))
		os.Exit(1)
	}

	// Хранилища
	sessionRepo := postgres.NewSessionRepository(db.Pool)
	attemptRepo := postgres.NewLoginAttemptRepository(db.Pool)
	blockRepo := postgres.NewBlockedIPRepository(db.Pool)
	auditRepo := postgres.NewAuditRepository(db.Pool)
	patientRepo := postgres.NewPatientRecordRepository(db.Pool, fieldCipher)
	historyRepo := postgres.NewMedicalHistoryRepository(db.Pool, fieldCipher)
	refreshRepo := redisrepo.NewRefreshTokenRepository(redisClient.Client)

	// Сервисы
	directory := service.NewDirectory(postgres.NewDoctorRepository(db.Pool), postgres.NewPatientRepository(db.Pool))
	guard := service.NewBruteForceGuard(attemptRepo, blockRepo, service.BruteForceConfig{
		MaxAttempts:   cfg.Security.MaxLoginAttempts,
		Window:        cfg.Security.AttemptWindow.Duration,
		BlockDuration: cfg.Security.IPBlockDuration.Duration,
	}, events, secMetrics, appLogger)
	sessions := service.NewSessionRegistry(sessionRepo, secMetrics, appLogger)
	tokens := service.NewTokenService(
		jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessTokenDuration.Duration),
		refreshRepo,
		cfg.JWT.RefreshTokenDuration.Duration,
	)
	authService := service.NewAuthService(directory, password.NewBcryptHasher(0), guard, sessions, tokens, secMetrics, appLogger)

	recorder := service.NewAuditRecorder(auditRepo, secMetrics, appLogger)
	patients := service.NewAuditedPatientRecords(service.NewPatientRecordService(patientRepo), recorder)
	history := service.NewAuditedMedicalHistory(service.NewMedicalHistoryService(historyRepo, patientRepo), recorder)

	toucher := service.NewSessionToucher(sessions, cfg.Security.TouchWorkers, cfg.Security.TouchQueueSize, secMetrics, appLogger)
	toucher.Start()

	ipAccess := middleware.NewIPAccessControl(guard, cfg.Security.ExemptPathPrefixes, secMetrics, appLogger)
	gatewayOptions := []middleware.GatewayOption{middleware.WithMetrics(secMetrics)}
	if cfg.Security.EnforceSessionLiveness {
		gatewayOptions = append(gatewayOptions, middleware.WithSessionLiveness(sessions))
	}
	gateway := middleware.NewAuthenticationGateway(tokens, directory, toucher, appLogger, gatewayOptions...)

	maintenance := scheduler.NewMaintenance(sessions, ipAccess, scheduler.Config{
		SessionTimeout:       cfg.Security.SessionTimeout.Duration,
		SessionSweepInterval: cfg.Security.SessionSweepInterval.Duration,
		BlockCleanupInterval: cfg.Security.IPBlockCleanupInterval.Duration,
	}, appLogger)
	if err := maintenance.Start(ctx); err != nil {
		appLogger.Error("Failed to start maintenance scheduler", logger.Error(err))
		os.Exit(1)
	}

	checker := health.NewDependencyChecker(serviceVersion, 3*time.Second)
	checker.Register("postgres", db.HealthCheck)
	checker.Register("redis", redisClient.HealthCheck)
	if rabbitConn != nil {
		checker.Register("rabbitmq", rabbitConn.HealthCheck)
	}

	// Маршруты
	router := mux.NewRouter()
	router.Use(errors.Middleware, httpMetrics.Middleware)
	router.Handle("/health", health.Handler(checker)).Methods(http.MethodGet)
	router.Handle("/ready", health.ReadyHandler(checker)).Methods(http.MethodGet)
	router.Handle("/live", health.LiveHandler()).Methods(http.MethodGet)
	router.Handle("/metrics", httpMetrics.GetHandler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(ipAccess.Enforce, gateway.Middleware)

	loginLimit := middleware.RateLimitMiddleware(
		ratelimit.NewRedisRateLimiter(redisClient.Client),
		cfg.RateLimiting.LoginRequestsPerMinute,
		time.Minute,
		false,
		appLogger,
	)
	httphandler.NewHandler(authService, sessions, guard, patients, history, appLogger).Register(api, loginLimit)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	go func() {
		appLogger.Info("HTTP server starting",
			logger.String("address", server.Addr),
			logger.Bool("enforce_session_liveness", cfg.Security.EnforceSessionLiveness),
			logger.Bool("rabbitmq_enabled", cfg.RabbitMQ.Enabled))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed", logger.Error(err))
			cancel()
		}
	}()

	awaitGracefulShutdown(ctx, appLogger, cfg.Server.ShutdownTimeout.Duration, server, maintenance, toucher, events)
}

// awaitGracefulShutdown ожидает сигнал и останавливает компоненты в обратном порядке
func awaitGracefulShutdown(
	ctx context.Context,
	appLogger logger.Logger,
	timeout time.Duration,
	server *http.Server,
	maintenance *scheduler.Maintenance,
	toucher *service.SessionToucher,
	events *service.AsyncEventPublisher,
) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down server...")

	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Failed to shutdown HTTP server", logger.Error(err))
	}
	maintenance.Stop(shutdownCtx)
	toucher.Stop(shutdownCtx)
	events.Stop(shutdownCtx)

	appLogger.Info("Server stopped gracefully")
}

// findConfigPath ищет config.yaml: CONFIG_PATH, затем каталоги сервиса.
// Пустая строка означает значения по умолчанию и переменные окружения.
func findConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	wd, err := os.Getwd()
	if err != nil {
		return ""
	}

	candidates := []string{
		filepath.Join(wd, "services", "auth-service", "config", "config.yaml"),
		filepath.Join(wd, "config", "config.yaml"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
