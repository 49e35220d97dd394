package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tempandmajor/commonly-sub007/internal/cache"
	"github.com/tempandmajor/commonly-sub007/internal/config"
	"github.com/tempandmajor/commonly-sub007/internal/fetch"
	"github.com/tempandmajor/commonly-sub007/internal/handler"
	"github.com/tempandmajor/commonly-sub007/internal/messaging"
	"github.com/tempandmajor/commonly-sub007/internal/model"
	"github.com/tempandmajor/commonly-sub007/internal/payment"
	"github.com/tempandmajor/commonly-sub007/internal/promotion"
	"github.com/tempandmajor/commonly-sub007/internal/repository"
	"github.com/tempandmajor/commonly-sub007/internal/stats"
	"github.com/tempandmajor/commonly-sub007/internal/ticket"
	jwtpkg "github.com/tempandmajor/commonly-sub007/pkg/jwt"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize logger
	var logger *zap.Logger
	if cfg.Log.Format == "json" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	// 3. Connect to PostgreSQL
	db, err := config.NewPostgresDB(cfg.Database.Postgres)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}

	// 4. Auto-migrate if enabled
	if cfg.Database.Postgres.AutoMigrate {
		if err := model.AutoMigrate(db); err != nil {
			logger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		logger.Info("database migration completed")
	}

	// 5. Initialize cache store and change-feed bus (Redis or in-memory)
	var store cache.Store
	var bus messaging.Bus
	var memStore *cache.MemoryStore
	switch cfg.Cache.Backend {
	case "redis":
		redisClient, err := config.NewRedisClient(cfg.Database.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		store = cache.NewRedisStore(redisClient, cfg.Cache.Namespace)
		bus = messaging.NewRedisBus(redisClient, logger)
		logger.Info("using Redis cache and change feed")
	case "memory":
		memStore = cache.NewMemoryStore(cache.WithSweepInterval(cfg.Cache.SweepInterval))
		store = memStore
		bus = messaging.NewMemoryBus()
		logger.Info("using in-memory cache and change feed")
	default:
		logger.Fatal("unknown cache backend", zap.String("backend", cfg.Cache.Backend))
	}

	// 6. Initialize repositories
	promoRepo := repository.NewPGPromotionRepository(db)
	creditRepo := repository.NewPGCreditRepository(db)
	eventRepo := repository.NewPGEventRepository(db)
	ticketRepo := repository.NewPGTicketRepository(db)
	convRepo := repository.NewPGConversationRepository(db)
	msgRepo := repository.NewPGMessageRepository(db)
	statsRepo := repository.NewPGStatsRepository(db, ticketRepo)

	// 7. Initialize JWT manager (validation only; tokens are issued upstream)
	jwtManager := jwtpkg.NewManager(
		cfg.JWT.SigningKey,
		cfg.JWT.Issuer,
		cfg.JWT.AccessTokenTTL,
	)

	// 8. Initialize services
	charger := payment.NewClient(cfg.Payment, logger)
	estimator := promotion.NewEstimator(cfg.Promotion)
	promotionService := promotion.NewService(estimator, promoRepo, creditRepo, charger, cfg.Promotion.Currency, logger)
	messagingService := messaging.NewService(convRepo, msgRepo, store, bus, cfg.Messaging.CacheTTL, cfg.Messaging.PageSize, logger)
	ticketService := ticket.NewService(eventRepo, ticketRepo, logger)
	statsService := stats.NewService(statsRepo, cfg.Platform.FeePercent)

	// 9. Start the platform summary fetcher and its refresh ticker
	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	summaryFetcher := fetch.New(rootCtx, func(ctx context.Context) (stats.Summary, error) {
		return statsService.Summary(ctx)
	}, fetch.Options[stats.Summary]{
		Retry:        fetch.RetryPolicy{Count: 2, Delay: 5 * time.Second},
		ErrorMessage: "platform summary unavailable",
		Logger:       logger,
	})

	summaryInterval := cfg.Platform.SummaryInterval
	if summaryInterval <= 0 {
		summaryInterval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(summaryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				summaryFetcher.Invalidate()
			case <-rootCtx.Done():
				return
			}
		}
	}()

	// 10. Initialize handlers
	promotionHandler := handler.NewPromotionHandler(promotionService)
	ticketHandler := handler.NewTicketHandler(ticketService)
	conversationHandler := handler.NewConversationHandler(messagingService)
	platformHandler := handler.NewPlatformHandler(summaryFetcher)

	// 11. Setup router
	router := handler.SetupRouter(cfg, logger, jwtManager, promotionHandler, ticketHandler, conversationHandler, platformHandler)

	// 12. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 13. Start server with graceful shutdown
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// 14. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	summaryFetcher.Close()
	cancelRoot()
	if memStore != nil {
		memStore.Close()
	}
	logger.Info("server exited gracefully")
}
