package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/inmobica/assistant-server/internal/assistant"
	"github.com/inmobica/assistant-server/internal/calendar"
	"github.com/inmobica/assistant-server/internal/config"
	"github.com/inmobica/assistant-server/internal/crm"
	"github.com/inmobica/assistant-server/internal/database"
	"github.com/inmobica/assistant-server/internal/extract"
	"github.com/inmobica/assistant-server/internal/handler"
	"github.com/inmobica/assistant-server/internal/jobs"
	"github.com/inmobica/assistant-server/internal/middleware"
	"github.com/inmobica/assistant-server/internal/property"
	"github.com/inmobica/assistant-server/internal/redis"
	"github.com/inmobica/assistant-server/internal/repository"
	"github.com/inmobica/assistant-server/internal/schedule"
	"github.com/inmobica/assistant-server/internal/service"
	"github.com/inmobica/assistant-server/internal/session"
	"github.com/inmobica/assistant-server/internal/whatsapp"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	// Chat logging needs Postgres; without DATABASE_URL the server answers
	// but keeps no transcript.
	var chatLogRepo repository.ChatLogRepository
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
		if err := db.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		cancel()
		log.Info().Msg("database connected")

		chatLogRepo = repository.NewChatLogRepository(db.DB)
	} else {
		log.Warn().Msg("DATABASE_URL is empty: chat log disabled")
	}

	// Sessions live in redis when available, otherwise in process memory.
	var sessions session.Store
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")

		sessions = session.NewRedisStore(redisClient, cfg.SessionIdleTTL())
	} else {
		log.Warn().Msg("REDIS_URL is empty: sessions held in process memory")
		sessions = session.NewMemoryStore()
	}

	converter, err := schedule.NewConverter(cfg.SourceTimezone)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load source timezone")
	}

	hours, err := schedule.NewHours(cfg.WorkStart, cfg.WorkEnd)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid working hours")
	}

	bridge := assistant.New(assistant.Options{
		APIKey:       cfg.OpenAIAPIKey,
		AssistantID:  cfg.OpenAIAssistantID,
		Model:        cfg.OpenAIModel,
		PollInterval: cfg.AssistantPollInterval(),
		Timeout:      cfg.AssistantTimeout(),
	})

	var booking service.Booker
	if cfg.PipedriveAPIToken != "" {
		var mirror calendar.Mirror
		if cfg.GoogleServiceAccountFile != "" && cfg.GoogleCalendarID != "" {
			mirror, err = calendar.NewService(
				context.Background(), cfg.GoogleServiceAccountFile, cfg.GoogleCalendarID, converter.Location(),
			)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to init google calendar")
			}
			log.Info().Msg("google calendar mirror enabled")
		}

		crmClient := crm.NewClient(cfg.PipedriveBaseURL, cfg.PipedriveAPIToken)
		booking = service.NewBookingService(crmClient, hours, converter, mirror)
	}

	chatService := service.NewChatService(sessions, extract.New(), bridge, booking, chatLogRepo)
	oauthService := service.NewOAuthService(
		cfg.OAuthClientID, cfg.OAuthClientSecret, cfg.OAuthTokenURL, cfg.OAuthRedirectURI, cfg.OAuthTokenFile,
	)

	var waSender whatsapp.Sender
	if cfg.WhatsAppAccessToken != "" && cfg.WhatsAppPhoneNumberID != "" {
		waSender = whatsapp.NewClient(cfg.WhatsAppAccessToken, cfg.WhatsAppPhoneNumberID)
	}

	chatHandler := handler.NewChatHandler(chatService)
	webhookHandler := handler.NewWebhookHandler(chatService, waSender, cfg.WebhookVerifyToken)
	oauthHandler := handler.NewOAuthHandler(oauthService)
	searchHandler := handler.NewSearchHandler(property.NewClient(cfg.TokkoBaseURL, cfg.TokkoAPIKey))

	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	if redisClient != nil {
		rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client, cfg.RateLimitPerMin)
		r.Use(rateLimitMiddleware.Handler)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Post("/generate-response", chatHandler.GenerateResponse)
	r.Get("/webhook", webhookHandler.Verify)
	r.Post("/webhook", webhookHandler.Receive)
	r.Get("/callback", oauthHandler.Callback)
	r.Post("/search-properties", searchHandler.Search)

	if chatLogRepo != nil {
		historyHandler := handler.NewHistoryHandler(chatLogRepo)
		r.Get("/conversations/{senderID}/messages", historyHandler.GetHistory)
	}

	cleanupJob := jobs.NewCleanupJob(sessions, chatLogRepo, cfg.SessionIdleTTL(), config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
