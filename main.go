// main.go
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

	"github.com/ariebrainware/ayursutra-api/config"
	"github.com/ariebrainware/ayursutra-api/endpoint"
	"github.com/ariebrainware/ayursutra-api/metrics"
	"github.com/ariebrainware/ayursutra-api/middleware"
	"github.com/ariebrainware/ayursutra-api/model"
	"github.com/ariebrainware/ayursutra-api/notification"
	"github.com/ariebrainware/ayursutra-api/repository"
	"github.com/ariebrainware/ayursutra-api/scheduler"
	"github.com/ariebrainware/ayursutra-api/util"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds everything the HTTP server needs.
type app struct {
	router     *gin.Engine
	dispatcher *notification.Dispatcher
	reminders  *asynq.Client
	worker     *asynq.Server
	mux        *asynq.ServeMux
}

// newApp wires repositories, scheduler, notifications and the router. rdb may
// be nil, in which case locks stay in-process and reminders are disabled.
func newApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client, reg *prometheus.Registry, logger *zap.Logger) *app {
	bookingMetrics := metrics.NewBookingMetrics(reg)

	sessions := repository.NewGormSessionRepository(db)
	notificationRepo := repository.NewGormNotificationRepository(db)
	svc := notification.NewService(notificationRepo, logger.Named("notification"))

	a := &app{}
	dispatcherOpts := []notification.DispatcherOption{
		notification.WithDispatcherMetrics(bookingMetrics),
		notification.WithDispatcherLogger(logger.Named("dispatcher")),
	}
	schedulerOpts := []scheduler.Option{
		scheduler.WithLockWait(cfg.LockWait),
		scheduler.WithMetrics(bookingMetrics),
		scheduler.WithLogger(logger.Named("scheduler")),
	}

	if rdb != nil {
		schedulerOpts = append(schedulerOpts, scheduler.WithLocker(scheduler.NewRedisLocker(rdb, cfg.LockTTL)))

		redisOpt := asynq.RedisClientOpt{
			Addr:     rdb.Options().Addr,
			Password: rdb.Options().Password,
			DB:       rdb.Options().DB,
		}
		a.reminders = asynq.NewClient(redisOpt)
		a.worker = asynq.NewServer(redisOpt, asynq.Config{
			Concurrency: 5,
			Queues:      map[string]int{"default": 1},
		})
		a.mux = notification.NewReminderMux(svc, sessions, logger.Named("reminder"))
		reminderScheduler := notification.NewReminderScheduler(a.reminders, cfg.ReminderLead, logger.Named("reminder"))
		dispatcherOpts = append(dispatcherOpts, notification.WithReminders(reminderScheduler))
	}

	a.dispatcher = notification.NewDispatcher(notificationRepo, cfg.NotificationQueueSize, dispatcherOpts...)
	schedulerOpts = append(schedulerOpts, scheduler.WithPublisher(a.dispatcher))
	s := scheduler.New(sessions, repository.NewGormTherapyRepository(db), schedulerOpts...)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DatabaseMiddleware(db))
	router.Use(middleware.SchedulerMiddleware(s))
	router.Use(middleware.NotificationMiddleware(svc))
	router.Use(middleware.EndpointCallLogger())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	endpoint.RegisterRoutes(router, middleware.RateLimiter(middleware.RateLimitConfig{
		Limit:  cfg.RateLimit,
		Window: cfg.RateWindow,
	}))

	a.router = router
	return a
}

func main() {
	// Load the configuration
	cfg := config.LoadConfig()
	logger := util.InitializeLogger(cfg.AppEnv, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	db, err := config.ConnectDatabase()
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}
	util.SetAuditLoggerDB(db)

	rdb, err := config.ConnectRedis()
	if err != nil {
		// Redis is optional: without it the API runs single-replica.
		logger.Warn("redis unavailable, using in-process locks", zap.Error(err))
		rdb = nil
	}

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a := newApp(cfg, db, rdb, reg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.dispatcher.Start(ctx)
	if a.worker != nil {
		if err := a.worker.Start(a.mux); err != nil {
			logger.Error("failed to start reminder worker", zap.Error(err))
			a.worker = nil
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.AppPort),
		Handler:      a.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("error starting server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	// In-flight bookings are done; flush their notifications before closing queues.
	a.dispatcher.Stop()
	if a.worker != nil {
		a.worker.Shutdown()
	}
	if a.reminders != nil {
		_ = a.reminders.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	logger.Info("server stopped")
}
