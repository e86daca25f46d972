package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"vetchat/internal/api"
	"vetchat/internal/config"
	"vetchat/internal/llm"
	"vetchat/internal/metrics"
	"vetchat/internal/repository"
	"vetchat/internal/service"
	"vetchat/migrations"
	"vetchat/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("starting vetchat server", "env", cfg.Env, "port", cfg.Port)

	ctx := context.Background()
	loc := cfg.Location()
	clock := service.Clock(time.Now)

	// Storage
	var (
		db           *sql.DB
		appointments repository.AppointmentStore
		users        repository.UserRepository
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open DB", "error", err)
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			logger.Error("failed to connect to DB", "error", err)
			os.Exit(1)
		}
		if cfg.AutoMigrate {
			if err := migrations.Up(db); err != nil {
				logger.Error("failed to apply migrations", "error", err)
				os.Exit(1)
			}
		}
		appointments = repository.NewAppointmentRepository(db)
		users = repository.NewUserRepository(db)
		logger.Info("using postgres store")
	} else {
		appointments = repository.NewMemoryAppointmentRepository()
		users = repository.NewMemoryUserRepository()
		logger.Warn("DATABASE_URL not set, appointments are kept in memory")
	}

	// Response cache
	var (
		cache       service.ResponseCache
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, falling back to in-memory cache", "addr", cfg.RedisAddr, "error", err)
			_ = redisClient.Close()
			redisClient = nil
		}
	}
	if redisClient != nil {
		cache = service.NewRedisResponseCache(redisClient, cfg.CacheTTL, logger)
	} else {
		cache = service.NewMemoryResponseCache(cfg.CacheCapacity, cfg.CacheTTL)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	chatMetrics := metrics.NewChatMetrics(registry)

	// Completion providers
	completer, closeLLM, err := llm.New(ctx, llm.Options{
		Provider:     cfg.LLMProvider,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		OpenAIModel:  cfg.OpenAIModel,
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
		Timeout:      cfg.LLMTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to configure completion provider", "error", err)
		os.Exit(1)
	}

	// Notifications
	channels := []service.Notifier{
		service.NewWhatsAppNotifier(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber, cfg.AdminWhatsAppNumber),
	}
	if cfg.SendGridAPIKey != "" && cfg.AdminEmail != "" {
		channels = append(channels, service.NewEmailNotifier(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName, cfg.AdminEmail, cfg.ClinicName))
	}
	notifier := service.NewNotificationService(logger, chatMetrics, channels...)

	// Services
	rule := service.SlotRule{
		HorizonDays:     cfg.SlotHorizonDays,
		StartHour:       cfg.SlotStartHour,
		EndHour:         cfg.SlotEndHour,
		ExcludedWeekday: time.Sunday,
		Limit:           cfg.SlotLimit,
	}
	availability := service.NewAvailabilityService(appointments, rule, clock, loc)

	extractor := service.NewFallbackExtractor(
		service.NewLLMExtractor(completer, clock, loc),
		service.NewKeywordExtractor(clock, loc),
		logger,
	)
	extractor.OnPrimaryFailure(func(error) { chatMetrics.ObserveProviderFailure("extract") })

	chatService := service.NewChatService(service.ChatDeps{
		Extractor:    extractor,
		Completer:    completer,
		Appointments: appointments,
		Availability: availability,
		Cache:        cache,
		Notifier:     notifier,
		Canned:       service.NewCannedResponses(service.DefaultCannedResponses(cfg.ClinicName)),
		Metrics:      chatMetrics,
		Clock:        clock,
		Logger:       logger,
	}, service.ChatConfig{
		ClinicName:   cfg.ClinicName,
		DisplayLimit: cfg.SlotDisplayLimit,
		MaxTokens:    cfg.LLMMaxTokens,
		Temperature:  cfg.LLMTemperature,
	})

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret = uuid.NewString()
		logger.Warn("JWT_SECRET not set, sessions will not survive a restart")
	}
	authService := service.NewAuthService(users, jwtSecret, cfg.JWTTTL, clock, logger)
	if cfg.AdminPassword != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Error("failed to create bootstrap admin", "error", err)
			os.Exit(1)
		}
	}

	jobs := service.NewJobService(cache, appointments, notifier, clock, loc, logger)
	if err := jobs.Start(cfg.DigestSchedule); err != nil {
		logger.Error("failed to start cron jobs", "error", err)
		os.Exit(1)
	}

	// HTTP
	var limiter *api.RateLimiter
	if cfg.ChatRateRPS > 0 {
		proxies, err := api.ParseTrustedProxies(cfg.TrustedProxies)
		if err != nil {
			logger.Error("invalid TRUSTED_PROXIES", "error", err)
			os.Exit(1)
		}
		limiter = api.NewRateLimiter(cfg.ChatRateRPS, cfg.ChatBurst, proxies...)
	}
	var pinger api.Pinger
	if db != nil {
		pinger = db
	}
	handler := api.NewRouter(api.RouterConfig{
		Logger:       logger,
		Chat:         api.NewChatHandler(chatService, availability),
		Auth:         api.NewAuthHandler(authService, cfg.JWTTTL, cfg.Env == "production", logger),
		Appointments: api.NewAppointmentHandler(service.NewAppointmentService(appointments, clock), logger),
		Health:       api.NewHealthHandler(pinger),
		Metrics:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		RateLimiter:  limiter,
		JWTSecret:    jwtSecret,
		CORSOrigins:  cfg.CORSOrigins,
		StaticDir:    cfg.StaticDir,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.LLMTimeout*2 + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	<-jobs.Stop().Done()
	if err := closeLLM(); err != nil {
		logger.Warn("closing completion provider", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
	logger.Info("server stopped")
}
