package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"zcoinsAPI/handlers"
	"zcoinsAPI/internal/config"
	"zcoinsAPI/internal/db"
	"zcoinsAPI/internal/generator"
	"zcoinsAPI/internal/logging"
	"zcoinsAPI/internal/notification"
	"zcoinsAPI/internal/oracle"
	"zcoinsAPI/internal/storage"
	"zcoinsAPI/internal/workers"
	"zcoinsAPI/internal/workflow"
	"zcoinsAPI/middleware"
	"zcoinsAPI/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	logger := logging.New(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clerk.SetKey(cfg.ClerkSecretKey)

	startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	dbPool, err := db.NewPool(startupCtx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatal("Failed to connect to database: ", err)
	}
	defer func() {
		logger.Info(context.Background(), "closing database connection pool")
		dbPool.Close()
	}()

	if err := db.Migrate(startupCtx, dbPool); err != nil {
		cancel()
		log.Fatal("Failed to run migrations: ", err)
	}
	logger.Info(ctx, "database ready")

	// Services
	gameStore := services.NewGameStore(dbPool, logger)
	shopService := services.NewShopService(dbPool, logger)
	dailyRewardService := services.NewDailyRewardService(dbPool, logger)
	reminderService := services.NewReminderService(dbPool, logger)
	accountService := services.NewAccountService(dbPool, cfg.WelcomeZcoins, logger)

	if !cfg.OracleEnabled() {
		logger.Warn(ctx, "ORACLE_BASE_URL not set, verification and generation will fall back")
	}
	oracleClient := oracle.NewClient(cfg.OracleBaseURL, cfg.OracleAPIKey, cfg.OracleTimeout)
	challengeGenerator := generator.New(oracleClient, gameStore, logger)

	engineOpts := []workflow.Option{workflow.WithReminders(reminderService)}
	if cfg.StorageEnabled() {
		proofStore, err := storage.NewProofStore(startupCtx, storage.Options{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicBaseURL:   cfg.CDNBaseURL,
		})
		if err != nil {
			logger.Warn(ctx, "proof storage disabled", "error", err)
		} else {
			engineOpts = append(engineOpts, workflow.WithProofStore(proofStore))
		}
	}

	fcmService, err := notification.NewFCMService(startupCtx, cfg.FCMCredentialsJSON, cfg.FCMCredentialsFile, logger)
	if err != nil {
		logger.Warn(ctx, "could not initialize FCM, reminders will not be pushed", "error", err)
	} else {
		reminderService.SetPushProvider(fcmService)
		logger.Info(ctx, "FCM push provider initialized")
	}
	cancel()

	sweepPolicy := workflow.SweepPolicy(cfg.SweepPolicy)
	engineOpts = append(engineOpts, workflow.WithSweepPolicy(sweepPolicy))
	engine := workflow.NewEngine(gameStore, oracleClient, logger, engineOpts...)

	bg, err := workers.New(workers.Config{
		SweepInterval:    cfg.SweepInterval,
		SweepPolicy:      sweepPolicy,
		ReminderInterval: cfg.ReminderInterval,
	}, engine, reminderService, logger)
	if err != nil {
		log.Fatal("Failed to start workers: ", err)
	}
	bg.Start()
	defer func() {
		if err := bg.Stop(); err != nil {
			logger.Error(context.Background(), "worker shutdown error", "error", err)
		}
	}()

	middleware.InitPrometheus(prometheus.DefaultRegisterer)

	// Handlers
	challengeHandler := handlers.NewChallengeHandler(engine, gameStore, challengeGenerator, cfg.ProofDeepLinkBase, logger)
	walletHandler := handlers.NewWalletHandler(gameStore, logger)
	shopHandler := handlers.NewShopHandler(shopService, gameStore, logger)
	dailyRewardHandler := handlers.NewDailyRewardHandler(dailyRewardService, logger)
	notificationHandler := handlers.NewNotificationHandler(reminderService, logger)
	webhookHandler := handlers.NewWebhookHandler(accountService, cfg.ClerkWebhookSecret, logger)
	if cfg.ClerkWebhookSecret == "" {
		if cfg.AllowUnsignedWebhooks {
			webhookHandler.AllowUnsigned()
			logger.Warn(ctx, "CLERK_WEBHOOK_SECRET is not set, accepting unsigned webhooks")
		} else {
			logger.Warn(ctx, "CLERK_WEBHOOK_SECRET is not set, Clerk webhooks will be rejected")
		}
	}

	r := mux.NewRouter()

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.CleanupVisitors(ctx)

	r.Use(limiter.Middleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass)(promhttp.Handler()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := dbPool.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "zcoins-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware(logger))

	protected.HandleFunc("/wallet", walletHandler.GetWallet).Methods("GET")

	protected.HandleFunc("/challenges", challengeHandler.ListChallenges).Methods("GET")
	protected.HandleFunc("/challenges/generate", challengeHandler.GenerateChallenges).Methods("POST")
	protected.HandleFunc("/challenges/attempts", challengeHandler.ListAttempts).Methods("GET")
	protected.HandleFunc("/challenges/attempts/{attemptID}/proof", challengeHandler.SubmitProof).Methods("POST")
	protected.HandleFunc("/challenges/attempts/{attemptID}/handoff", challengeHandler.ProofHandoff).Methods("GET")
	protected.HandleFunc("/challenges/{id}/start", challengeHandler.StartChallenge).Methods("POST")

	protected.HandleFunc("/shop", shopHandler.GetShop).Methods("GET")
	protected.HandleFunc("/shop/inventory", shopHandler.GetInventory).Methods("GET")
	protected.HandleFunc("/shop/purchase", shopHandler.PurchaseItem).Methods("POST")

	protected.HandleFunc("/daily-reward", dailyRewardHandler.GetStatus).Methods("GET")
	protected.HandleFunc("/daily-reward/claim", dailyRewardHandler.Claim).Methods("POST")

	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	// CORS configuration
	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

	server := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler(r),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // proof verification waits on the oracle
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info(ctx, "starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Error starting server: ", err)
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "server shutdown error", "error", err)
	}

	logger.Info(shutdownCtx, "server shutdown complete")
}
