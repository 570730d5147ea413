package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	checkoutapp "github.com/wyfcoding/mentormarket/internal/checkout/application"
	checkoutdomain "github.com/wyfcoding/mentormarket/internal/checkout/domain"
	checkoutadapter "github.com/wyfcoding/mentormarket/internal/checkout/infrastructure/adapter"
	checkoutmysql "github.com/wyfcoding/mentormarket/internal/checkout/infrastructure/persistence/mysql"
	checkouthttp "github.com/wyfcoding/mentormarket/internal/checkout/interfaces/http"
	enrollapp "github.com/wyfcoding/mentormarket/internal/enrollment/application"
	enrolldomain "github.com/wyfcoding/mentormarket/internal/enrollment/domain"
	enrollmysql "github.com/wyfcoding/mentormarket/internal/enrollment/infrastructure/persistence/mysql"
	enrollhttp "github.com/wyfcoding/mentormarket/internal/enrollment/interfaces/http"
	ledgerapp "github.com/wyfcoding/mentormarket/internal/ledger/application"
	ledgerdomain "github.com/wyfcoding/mentormarket/internal/ledger/domain"
	ledgermysql "github.com/wyfcoding/mentormarket/internal/ledger/infrastructure/persistence/mysql"
	ledgerhttp "github.com/wyfcoding/mentormarket/internal/ledger/interfaces/http"
	notifyapp "github.com/wyfcoding/mentormarket/internal/notification/application"
	notifydomain "github.com/wyfcoding/mentormarket/internal/notification/domain"
	"github.com/wyfcoding/mentormarket/internal/notification/infrastructure/sender"
	notifymysql "github.com/wyfcoding/mentormarket/internal/notification/infrastructure/persistence/mysql"
	paymentstripe "github.com/wyfcoding/mentormarket/internal/payments/stripe"
	payoutapp "github.com/wyfcoding/mentormarket/internal/payout/application"
	payoutadapter "github.com/wyfcoding/mentormarket/internal/payout/infrastructure/adapter"
	payouthttp "github.com/wyfcoding/mentormarket/internal/payout/interfaces/http"
	reconapp "github.com/wyfcoding/mentormarket/internal/reconciliation/application"
	recondomain "github.com/wyfcoding/mentormarket/internal/reconciliation/domain"
	reconadapter "github.com/wyfcoding/mentormarket/internal/reconciliation/infrastructure/adapter"
	reconstripe "github.com/wyfcoding/mentormarket/internal/reconciliation/infrastructure/stripe"
	reconhttp "github.com/wyfcoding/mentormarket/internal/reconciliation/interfaces/http"
	"github.com/wyfcoding/mentormarket/pkg/cache"
	"github.com/wyfcoding/mentormarket/pkg/config"
	"github.com/wyfcoding/mentormarket/pkg/db"
	"github.com/wyfcoding/mentormarket/pkg/logger"
	"github.com/wyfcoding/mentormarket/pkg/metrics"
	"github.com/wyfcoding/mentormarket/pkg/middleware"
	"github.com/wyfcoding/mentormarket/pkg/mq"
	"github.com/wyfcoding/mentormarket/pkg/ratelimit"
	"github.com/wyfcoding/mentormarket/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	ctx := context.Background()

	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to connect database", "error", err)
	}

	if err := database.AutoMigrate(
		&enrolldomain.ApplicationRecord{},
		&ledgerdomain.PurchaseRecord{},
		&checkoutdomain.SessionRecord{},
		&notifydomain.Notification{},
	); err != nil {
		logger.Fatal(ctx, "failed to migrate database", "error", err)
	}

	m := metrics.New(cfg.ServiceName)
	idGen := utils.NewSnowflakeID(1)

	// 外部协作方
	gateway := paymentstripe.NewGateway(paymentstripe.Config{
		SecretKey:            cfg.Stripe.SecretKey,
		SuccessURL:           cfg.Stripe.SuccessURL,
		CancelURL:            cfg.Stripe.CancelURL,
		OnboardingRefreshURL: cfg.Stripe.OnboardingRefreshURL,
		OnboardingReturnURL:  cfg.Stripe.OnboardingReturnURL,
	})

	var emailSender notifydomain.Sender
	if cfg.SMTP.Mock {
		emailSender = sender.NewMockEmailSender()
	} else {
		emailSender = sender.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	}

	var publisher recondomain.EventPublisher
	if cfg.Kafka.Enabled {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			logger.Fatal(ctx, "failed to init kafka producer", "error", err)
		}
		defer producer.Close()
		publisher = reconadapter.NewKafkaPublisher(producer, cfg.Kafka.SettlementTopic)
	}

	// 仓储
	applicationRepo := enrollmysql.NewApplicationRepo(database.DB)
	purchaseRepo := ledgermysql.NewPurchaseRepo(database.DB)
	sessionRepo := checkoutmysql.NewSessionRepo(database.DB)
	notificationRepo := notifymysql.NewNotificationRepo(database.DB)

	// 应用服务
	notificationSvc := notifyapp.NewNotificationService(notificationRepo, emailSender, m, idGen, cfg.AdminEmail, cfg.FrontendBaseURL)
	enrollmentSvc := enrollapp.NewEnrollmentService(applicationRepo, notificationSvc, idGen)
	ledgerSvc := ledgerapp.NewLedgerService(purchaseRepo)
	payoutSvc := payoutapp.NewPayoutService(payoutadapter.NewCoachDirectory(applicationRepo), gateway)
	checkoutSvc := checkoutapp.NewCheckoutService(
		checkoutadapter.NewCoachCatalog(applicationRepo),
		gateway,
		sessionRepo,
		m,
		checkoutapp.Config{
			MembershipPriceID: cfg.Stripe.MembershipPriceID,
			Currency:          cfg.Stripe.Currency,
		},
	)
	reconciliationSvc := reconapp.NewReconciliationService(
		purchaseRepo,
		reconadapter.NewMembershipStore(applicationRepo),
		reconadapter.NewCoachDirectory(applicationRepo),
		notificationSvc,
		publisher,
		m,
		idGen,
	)

	// HTTP
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.GinRecoveryMiddleware(),
		middleware.GinLoggingMiddleware(),
		middleware.GinMetricsMiddleware(m),
	)

	if cfg.RateLimit.Enabled {
		redisCache, err := cache.New(cache.Config{
			Host:        cfg.Redis.Host,
			Port:        cfg.Redis.Port,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			MaxPoolSize: cfg.Redis.MaxPoolSize,
		})
		if err != nil {
			logger.Fatal(ctx, "failed to connect redis", "error", err)
		}
		defer redisCache.Close()
		limiter := ratelimit.NewRedisRateLimiter(redisCache.GetClient())
		router.Use(middleware.RateLimitMiddleware(limiter, cfg.RateLimit.Rate, cfg.RateLimit.Burst))
	}

	enrollhttp.NewEnrollmentHandler(enrollmentSvc).RegisterRoutes(router)
	ledgerhttp.NewLedgerHandler(ledgerSvc).RegisterRoutes(router)
	payouthttp.NewPayoutHandler(payoutSvc).RegisterRoutes(router)
	checkouthttp.NewCheckoutHandler(checkoutSvc).RegisterRoutes(router)
	reconhttp.NewWebhookHandler(
		reconstripe.NewVerifier(cfg.Stripe.WebhookSecret),
		reconciliationSvc,
		m,
	).RegisterRoutes(router)

	router.GET("/sys/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})
	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info(ctx, "server started", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "failed to serve", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "server shutdown failed", "error", err)
	}
	logger.Info(ctx, "server exited")
}
