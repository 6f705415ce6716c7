package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-inventory/internal/api"
	"github.com/sanosuguru/go-ticket-inventory/internal/api/handler"
	appmiddleware "github.com/sanosuguru/go-ticket-inventory/internal/api/middleware"
	"github.com/sanosuguru/go-ticket-inventory/internal/application"
	"github.com/sanosuguru/go-ticket-inventory/internal/config"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/allocation"
	"github.com/sanosuguru/go-ticket-inventory/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-ticket-inventory/internal/infrastructure/rabbitmq"
	"github.com/sanosuguru/go-ticket-inventory/internal/infrastructure/redis"
	"github.com/sanosuguru/go-ticket-inventory/internal/pkg/logger"
	"github.com/sanosuguru/go-ticket-inventory/internal/pkg/metrics"
	"github.com/sanosuguru/go-ticket-inventory/internal/worker"
)

func main() {
	cfg := config.Load()

	// ロガー初期化
	env := os.Getenv("APP_ENV")
	logger.Set(logger.NewLogger(env))
	defer logger.Sync()

	// メトリクス初期化
	m := metrics.Init()

	// データベース接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗", zap.Error(err))
	}
	defer db.Close()

	// マイグレーション実行
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := postgres.RunMigrations(db.DB, migrationsPath); err != nil {
		logger.Fatal("マイグレーションに失敗", zap.Error(err))
	}

	// Redis接続（任意。接続できない場合はキャッシュなしで続行）
	var availabilityCache *redis.AvailabilityCache
	redisClient := redis.NewClient(&cfg.Redis)
	if err := redis.Ping(context.Background(), redisClient); err != nil {
		logger.Warn("Redis接続に失敗。キャッシュなしで続行します", zap.Error(err))
		redisClient.Close()
		redisClient = nil
	} else {
		availabilityCache = redis.NewAvailabilityCache(redisClient)
		defer redisClient.Close()
	}

	// RabbitMQ接続（任意。URL未設定または接続失敗時は発行なしで続行）
	var publisher *rabbitmq.Publisher
	if cfg.RabbitMQ.Enabled() {
		publisher, err = rabbitmq.NewPublisher(&cfg.RabbitMQ)
		if err != nil {
			logger.Warn("RabbitMQ接続に失敗。通知発行なしで続行します", zap.Error(err))
		} else {
			defer publisher.Close()
		}
	}

	// 座席割り当て方式は起動時に確定する
	strategy := allocation.Strategy(cfg.Database.LockStrategy)
	allocator, err := postgres.NewAllocator(db, strategy)
	if err != nil {
		logger.Fatal("割り当て方式の初期化に失敗", zap.Error(err))
	}
	logger.Info("座席割り当て方式", zap.String("strategy", string(strategy)))

	// リポジトリ
	txManager := postgres.NewTxManager(db)
	eventRepo := postgres.NewEventRepository(db)
	seatRepo := postgres.NewSeatRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	waitlistRepo := postgres.NewWaitlistRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	analyticsRepo := postgres.NewAnalyticsRepository(db)

	// サービス
	promotionPolicy := application.NewPromotionPolicy(waitlistRepo, eventRepo, notificationRepo)
	eventService := application.NewEventService(txManager, eventRepo, seatRepo, bookingRepo)
	seatService := application.NewSeatService(seatRepo, eventRepo, nilIfNoCache(availabilityCache))
	waitlistService := application.NewWaitlistService(waitlistRepo, m)
	notificationService := application.NewNotificationService(notificationRepo)
	analyticsService := application.NewAnalyticsService(analyticsRepo)
	bookingService := application.NewBookingService(
		txManager,
		allocator,
		strategy,
		bookingRepo,
		seatRepo,
		waitlistRepo,
		promotionPolicy,
		nilIfNoInvalidator(availabilityCache),
		nilIfNoPublisher(publisher),
		m,
	)

	// ハンドラー
	healthHandler := handler.NewHealthHandler()
	eventHandler := handler.NewEventHandler(eventService, seatService)
	seatHandler := handler.NewSeatHandler(seatService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	waitlistHandler := handler.NewWaitlistHandler(waitlistService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)

	// Echo インスタンス作成
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	appmiddleware.SetupMiddleware(e)
	e.Use(appmiddleware.PrometheusMiddleware(m))

	// ルーティング
	v1 := e.Group("/api/v1")
	v1.GET("/health", healthHandler.Check)

	v1.GET("/events", eventHandler.List)
	v1.GET("/events/:id", eventHandler.GetByID)
	v1.GET("/events/:id/seats", seatHandler.ListByEvent)
	v1.GET("/events/:id/availability", seatHandler.Availability)

	v1.POST("/bookings", bookingHandler.Create)
	v1.DELETE("/bookings/:id", bookingHandler.Cancel)
	v1.GET("/users/me/bookings", bookingHandler.GetUserBookings)
	v1.GET("/users/me/notifications", notificationHandler.GetUserNotifications)

	v1.GET("/waitlists/me", waitlistHandler.GetUserEntries)
	v1.DELETE("/waitlists/:id", waitlistHandler.Leave)

	admin := v1.Group("/admin", appmiddleware.AdminAuth())
	admin.POST("/events", eventHandler.Create)
	admin.PUT("/events/:id", eventHandler.Update)
	admin.DELETE("/events/:id", eventHandler.Delete)
	admin.GET("/analytics", analyticsHandler.Report)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), appmiddleware.MetricsBasicAuth())

	// バックグラウンドワーカー
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	var sweeper *worker.WaitlistSweeper
	if cfg.Worker.SweepEnabled {
		sweeper = worker.NewWaitlistSweeper(bookingService, cfg.Worker.SweepInterval)
		go sweeper.Start(workerCtx)
	}

	// サーバー起動
	go func() {
		if err := e.Start(fmt.Sprintf(":%s", cfg.Server.Port)); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	if sweeper != nil {
		sweeper.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}

// nil の具象ポインタをそのままインターフェースに入れると
// non-nil インターフェースになるため、ここで明示的に nil に落とす

func nilIfNoCache(c *redis.AvailabilityCache) application.AvailabilityCache {
	if c == nil {
		return nil
	}
	return c
}

func nilIfNoInvalidator(c *redis.AvailabilityCache) application.AvailabilityInvalidator {
	if c == nil {
		return nil
	}
	return c
}

func nilIfNoPublisher(p *rabbitmq.Publisher) application.NotificationPublisher {
	if p == nil {
		return nil
	}
	return p
}
