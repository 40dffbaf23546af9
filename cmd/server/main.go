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

	"gestorfit/personal-app/internal/api"
	"gestorfit/personal-app/internal/config"
	"gestorfit/personal-app/internal/repository/mongo"
	"gestorfit/personal-app/internal/service"
	"gestorfit/personal-app/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting GestorFit server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsurePlanIndexes(ctx, appDB.Collection("planos"))
		mongo.EnsurePlanAssignmentIndexes(ctx, appDB.Collection("planos_personal"))
		mongo.EnsureTokenIndexes(ctx, appDB.Collection("tokens"))
		mongo.EnsureTokenAssignmentIndexes(ctx, appDB.Collection("token_assignments"))
		mongo.EnsureRenewalIndexes(ctx, appDB.Collection("solicitacoes_renovacao"))
		mongo.EnsureNotificationIndexes(ctx, appDB.Collection("notificacoes"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	planRepo := mongo.NewMongoPlanRepository(appDB)
	planAssignmentRepo := mongo.NewMongoPlanAssignmentRepository(appDB)
	tokenRepo := mongo.NewMongoTokenRepository(appDB)
	tokenAssignmentRepo := mongo.NewMongoTokenAssignmentRepository(appDB)
	legacyTokenRepo := mongo.NewMongoLegacyTokenRepository(appDB)
	renewalRepo := mongo.NewMongoRenewalRepository(appDB)
	notificationRepo := mongo.NewMongoNotificationRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(userRepo, planRepo, planAssignmentRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	entitlementService := service.NewEntitlementService(planRepo, planAssignmentRepo, tokenRepo, tokenAssignmentRepo, userRepo)
	studentService := service.NewStudentService(userRepo, entitlementService)
	planService := service.NewPlanService(planRepo, planAssignmentRepo, tokenRepo, userRepo)
	migrationService := service.NewMigrationService(legacyTokenRepo, tokenRepo, planAssignmentRepo, tokenAssignmentRepo, userRepo)
	renewalService := service.NewRenewalService(renewalRepo, planRepo, planAssignmentRepo, fileStorage)
	notificationService := service.NewNotificationService(notificationRepo)

	// --- Background Expiry Notifier ---
	notifierCtx, stopNotifier := context.WithCancel(context.Background())
	defer stopNotifier()
	notifier := service.NewExpiryNotifier(planAssignmentRepo, notificationService, cfg.Notifier.Interval)
	go notifier.Run(notifierCtx)

	// --- Initialize Gin Engine ---
	router := gin.Default()

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret,
		authService,
		entitlementService,
		studentService,
		planService,
		migrationService,
		renewalService,
		notificationService,
	)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	stopNotifier()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
