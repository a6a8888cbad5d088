package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"glowRoutineAPI/handlers"
	"glowRoutineAPI/internal/config"
	"glowRoutineAPI/internal/firebaseapp"
	"glowRoutineAPI/internal/metrics"
	"glowRoutineAPI/internal/notification"
	"glowRoutineAPI/internal/store"
	"glowRoutineAPI/internal/workers"
	"glowRoutineAPI/middleware"
	"glowRoutineAPI/services"

	_ "net/http/pprof"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal(err)
	}

	metrics.Register(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var firebaseApp *firebase.App
	if cfg.NeedsFirebase() {
		firebaseApp, err = firebaseapp.New(ctx, cfg.Firebase)
		if err != nil {
			if cfg.Auth.Provider == config.AuthFirebase || cfg.Store.Backend == config.StoreFirestore {
				log.Fatal("Failed to initialize Firebase: ", err)
			}
			log.Printf("Warning: Could not initialize Firebase, push disabled: %v", err)
		}
	}

	// Auth
	var verifier middleware.TokenVerifier
	switch cfg.Auth.Provider {
	case config.AuthClerk:
		clerk.SetKey(cfg.Auth.ClerkSecretKey)
		verifier = middleware.ClerkVerifier{}
		log.Println("Clerk initialized successfully")
	case config.AuthFirebase:
		fv, err := middleware.NewFirebaseVerifier(ctx, firebaseApp)
		if err != nil {
			log.Fatal(err)
		}
		verifier = fv
		log.Println("Firebase auth initialized successfully")
	case config.AuthJWT:
		verifier = middleware.NewHMACVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
		log.Println("Shared-secret JWT auth enabled")
	}

	// Document store
	var docs store.DocumentStore
	switch cfg.Store.Backend {
	case config.StoreFirestore:
		fs, err := store.NewFirestoreStore(ctx, firebaseApp)
		if err != nil {
			log.Fatal("Failed to connect to Firestore: ", err)
		}
		defer fs.Close()
		docs = fs
		log.Println("Successfully connected to Firestore")
	case config.StorePostgres:
		pg, err := store.NewPostgresStore(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to Postgres: ", err)
		}
		defer func() {
			log.Println("Closing database connection pool...")
			pg.Close()
		}()
		docs = pg
		log.Println("Successfully connected to Postgres")
	case config.StoreMemory:
		docs = store.NewMemoryStore()
		log.Println("Using in-memory document store, data is lost on restart")
	}

	kv, err := store.NewSQLiteKV(cfg.Reminders.DBPath)
	if err != nil {
		log.Fatal("Failed to open reminders database: ", err)
	}
	defer kv.Close()

	// Notifications
	notificationService := services.NewNotificationService(notification.NewBannerFeed(50, 10*time.Minute))
	defer notificationService.Stop()

	fanout := notification.NewFanout()
	if cfg.Firebase.PushEnabled && firebaseApp != nil {
		fcmService, err := notification.NewFCMService(ctx, firebaseApp)
		if err != nil {
			log.Printf("Warning: Could not initialize FCM: %v", err)
		} else {
			fanout.Handle(fcmService, "ios", "android", "web")
			log.Println("FCM Push Provider initialized successfully")
		}
	}
	if cfg.SMS.Enabled() {
		smsService, err := notification.NewSMSService(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.From)
		if err != nil {
			log.Printf("Warning: Could not initialize SMS: %v", err)
		} else {
			fanout.Handle(smsService, notification.PlatformSMS)
			log.Println("Twilio SMS Provider initialized successfully")
		}
	}
	if platforms := fanout.Platforms(); len(platforms) > 0 {
		notificationService.SetPushProvider(fanout)
		log.Printf("Push delivery enabled for %v", platforms)
	}

	progressService := services.NewProgressService(docs, loc)
	progressService.SetNotifier(notificationService)
	routineService := services.NewRoutineService(docs)
	routineService.SetLocation(loc)

	reminderManager := services.NewReminderManager(kv, cfg.Reminders.StorageKey, notificationService)
	defer reminderManager.Close()
	if armed, err := reminderManager.InitReminders(ctx); err != nil {
		log.Printf("Warning: Could not initialize reminders: %v", err)
	} else {
		log.Printf("Armed %d reminders", armed)
	}

	sweeper := workers.NewSweeper()
	if err := sweeper.AddReminderSweep(cfg.Reminders.SweepSchedule, reminderManager); err != nil {
		log.Fatal(err)
	}
	if err := sweeper.AddBannerSweep("@every 5m", notificationService); err != nil {
		log.Fatal(err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	// Initialize handlers
	progressHandler := handlers.NewProgressHandler(progressService)
	routineHandler := handlers.NewRoutineHandler(routineService)
	reminderHandler := handlers.NewReminderHandler(reminderManager)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	r := mux.NewRouter()

	standardRouter := r.PathPrefix("/").Subrouter()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	go rateLimiter.CleanupVisitors(cleanupCtx)

	standardRouter.Use(rateLimiter.Middleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.Metrics.User, cfg.Metrics.Pass)(promhttp.Handler()))
	standardRouter.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(cfg.Metrics.PprofSecret)(http.DefaultServeMux))

	assetsDir := cfg.Server.AssetsDir
	fs := http.FileServer(http.Dir(assetsDir))
	standardRouter.PathPrefix("/assets/").Handler(http.StripPrefix("/assets/", fs))
	log.Printf("Serving static files from %s at /assets/", assetsDir)

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := docs.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "document store unreachable"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "glowRoutine-api"}`))
	}).Methods("GET")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	// This inherits middleware from standardRouter
	api := standardRouter.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/routines/defaults", routineHandler.GetDefaults).Methods("GET")
	api.HandleFunc("/routines/catalog", routineHandler.GetCatalog).Methods("GET")

	if cfg.Auth.WebhookSecret != "" {
		webhookHandler, err := handlers.NewWebhookHandler(routineService, progressService, cfg.Auth.WebhookSecret)
		if err != nil {
			log.Fatalf("Webhook setup failed: %v", err)
		}
		api.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")
	}

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(verifier))

	protected.HandleFunc("/progress", progressHandler.GetProgress).Methods("GET")
	protected.HandleFunc("/progress/streak", progressHandler.GetStreak).Methods("GET")
	protected.HandleFunc("/progress/completed", progressHandler.IsCompleted).Methods("GET")
	protected.HandleFunc("/progress/complete", progressHandler.MarkComplete).Methods("POST")
	protected.HandleFunc("/progress/complete", progressHandler.RemoveCompletion).Methods("DELETE")
	protected.HandleFunc("/progress/manual", progressHandler.RegisterManualCompletion).Methods("POST")
	protected.HandleFunc("/progress/achievements", progressHandler.GetAchievements).Methods("GET")
	protected.HandleFunc("/progress/calendar", progressHandler.GetCalendar).Methods("GET")
	protected.HandleFunc("/progress/stats", progressHandler.GetStats).Methods("GET")

	protected.HandleFunc("/routines", routineHandler.GetRoutines).Methods("GET")
	protected.HandleFunc("/routines", routineHandler.SaveRoutines).Methods("PUT")
	protected.HandleFunc("/routines/import", routineHandler.ImportDefaults).Methods("POST")
	protected.HandleFunc("/routines/tonight", routineHandler.GetTonight).Methods("GET")

	protected.HandleFunc("/reminders", reminderHandler.ListReminders).Methods("GET")
	protected.HandleFunc("/reminders", reminderHandler.CreateReminder).Methods("POST")
	protected.HandleFunc("/reminders/{id}/snooze", reminderHandler.SnoozeReminder).Methods("POST")
	protected.HandleFunc("/reminders/{id}", reminderHandler.DeleteReminder).Methods("DELETE")

	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")
	protected.HandleFunc("/notifications/register-device", notificationHandler.UnregisterDevice).Methods("DELETE")
	protected.HandleFunc("/notifications/banners", notificationHandler.GetBanners).Methods("GET")
	protected.HandleFunc("/notifications/ws", notificationHandler.StreamBanners).Methods("GET")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := ":" + cfg.Server.Port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
