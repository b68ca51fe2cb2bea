// File: roomkeeper/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roomkeeper/config"
	"roomkeeper/cron"
	"roomkeeper/database"
	"roomkeeper/database/repository"
	catalogRepo "roomkeeper/database/repository/catalog"
	memoryRepo "roomkeeper/database/repository/memory"
	reservationRepo "roomkeeper/database/repository/reservation"
	"roomkeeper/handlers"
	"roomkeeper/middleware"
	"roomkeeper/routes"
	"roomkeeper/services/booking"
	"roomkeeper/services/tasks"
	"roomkeeper/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	if config.AppConfig.JWTSecret == "" {
		logger.Sugar().Fatal("main: JWT_SECRET must be set")
	}
	utils.SetSecret(config.AppConfig.JWTSecret)

	// repositories.
	var (
		catalog      repository.CatalogRepository
		reservations repository.ReservationRepository
	)
	switch config.AppConfig.StoreBackend {
	case config.BackendMemory:
		logger.Warn("main: using in-memory store; data is lost on restart")
		store := memoryRepo.NewStore()
		catalog, reservations = store, store
	default:
		database.InitDB()
		catalog = catalogRepo.NewMongoCatalogRepo()
		reservations = reservationRepo.NewMongoReservationRepo()
	}

	// unit holds.
	var (
		locker       booking.Locker
		redisClients []*redis.Client
	)
	guardBackend, err := config.AppConfig.ResolveGuardBackend()
	if err != nil {
		logger.Fatal("main: invalid unit hold configuration", zap.Error(err))
	}
	logger.Info("main: unit holds configured", zap.String("backend", guardBackend), zap.String("store", config.AppConfig.StoreBackend))
	switch guardBackend {
	case config.GuardRedis:
		client := utils.GetLockClient()
		redisClients = append(redisClients, client)
		locker = booking.NewRedisLocker(client, config.AppConfig.HoldTTL(), logger.Named("unit-lock"))
	default:
		locker = booking.NewLocalLocker()
	}
	guard := booking.NewConflictGuard(locker, config.AppConfig.HoldWait(), logger.Named("guard"))

	// background work.
	var publisher booking.EventPublisher
	var asynqClient *asynq.Client
	if config.AppConfig.WorkerEnabled {
		asynqClient = asynq.NewClient(cron.RedisOpt())
		publisher = tasks.NewAsynqPublisher(asynqClient)
	}

	engine := &booking.DefaultEngine{
		Catalog:      catalog,
		Reservations: reservations,
		Guard:        guard,
		Events:       publisher,
		Logger:       logger.Named("engine"),
		NoShowGrace:  config.AppConfig.NoShowGrace(),
	}

	var worker *cron.Worker
	if config.AppConfig.WorkerEnabled {
		w, err := cron.InitNoShowWorker(engine)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to start no-show worker: %v", err)
		}
		worker = w
	}

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	utils.StartHealthMonitor(monitorCtx, 30*time.Second, redisClients, database.MongoClient)

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(config.AppConfig.TrustedProxyList()); err != nil {
		logger.Fatal("main: invalid TRUSTED_PROXIES", zap.Error(err))
	}
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	// Assemble the handler bundle.
	handlerBundle := handlers.NewHandlerBundle(
		handlers.NewAvailabilityHandler(engine),
		handlers.NewReservationHandler(engine),
		handlers.NewRoomHandler(engine),
	)
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	if worker != nil {
		worker.Shutdown()
	}
	if asynqClient != nil {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("main: failed to close task client", zap.Error(err))
		}
	}
	if err := database.CloseDB(ctx); err != nil {
		logger.Warn("main: failed to disconnect from MongoDB", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
