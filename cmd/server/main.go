package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"lms-backend/internal/config"
	"lms-backend/internal/database"
	"lms-backend/internal/handlers"
	"lms-backend/internal/middleware"
	"lms-backend/internal/repository"
	"lms-backend/internal/router"
	"lms-backend/internal/services"
	"lms-backend/internal/storage"
	"lms-backend/internal/websocket"
	"lms-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting LMS Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Printf("✓ Environment variables loaded (calendar: %s)", cfg.Location)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Run Database Migrations ────
	if err := database.RunMigrations(pool); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Step 4: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL, cfg.MailWorkers)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 5: Initialize File Storage ────
	fileStore, err := storage.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("✗ File storage initialization failed: %v", err)
	}
	log.Printf("✓ File storage ready (%s)", cfg.StorageType)

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	statRepo := repository.NewLearningStatRepo(pool)
	sessionRepo := repository.NewUserSessionRepo(pool)
	courseRepo := repository.NewCourseRepo(pool)
	instructorRepo := repository.NewInstructorRepo(pool)
	notificationRepo := repository.NewNotificationRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL)
	mailQueue := services.NewMailQueue(redisClients.Queue)
	authService := services.NewAuthService(userRepo, redisClients.Queue, jwtAuth, emailService, mailQueue)
	learningService := services.NewLearningService(statRepo, sessionRepo, services.LearningOptions{
		Location:      cfg.Location,
		RetentionDays: cfg.RetentionDays,
		CountIdle:     cfg.CountIdleIntervals,
	})
	courseService := services.NewCourseService(courseRepo, fileStore)
	instructorService := services.NewInstructorService(instructorRepo, fileStore)
	notificationService := services.NewNotificationService(
		notificationRepo,
		userRepo,
		services.NewRedisPublisher(redisClients.Queue),
		emailService,
		mailQueue,
	)
	userAdminService := services.NewUserAdminService(userRepo)

	// ──── Step 6: Start Mail Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, emailService, cfg.MailWorkers)
	workerPool.Start()
	defer workerPool.Stop()
	log.Printf("✓ Mail worker pool started (%d goroutines)", cfg.MailWorkers)

	// ──── Step 7: Start Learning Retention Scheduler ────
	retention := services.NewRetentionScheduler(learningService, cfg.CleanupHour, cfg.Location)
	retention.Start()
	defer retention.Stop()
	log.Printf("✓ Retention scheduler started (daily at %02d:00, keeping %d days)", cfg.CleanupHour, cfg.RetentionDays)

	// ──── Step 8: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth, cfg.CorsOrigins)
	log.Println("✓ WebSocket hub started")

	// ──── Step 9: Start HTTP Server ────
	opts := router.Options{CorsOrigins: cfg.CorsOrigins}
	if cfg.StorageType == "local" || cfg.StorageType == "" {
		opts.LocalFilesDir = cfg.StoragePath
		opts.LocalFilesURL = cfg.StoragePublicURL
	}

	r := router.New(
		jwtAuth,
		middleware.NewRedisCounter(redisClients.Queue),
		router.Handlers{
			Auth:          handlers.NewAuthHandler(authService),
			Learning:      handlers.NewLearningHandler(learningService),
			Courses:       handlers.NewCourseHandler(courseService),
			Instructors:   handlers.NewInstructorHandler(instructorService),
			Notifications: handlers.NewNotificationHandler(notificationService),
			Admin:         handlers.NewAdminHandler(userAdminService),
			Uploads:       handlers.NewUploadHandler(fileStore),
		},
		wsHub,
		opts,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("✓ LMS Backend ready on http://localhost:%s", cfg.Port)
		log.Printf("  API: http://localhost:%s/api", cfg.Port)
		log.Printf("  WS:  ws://localhost:%s/api/ws", cfg.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
