package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/famquest-app/famquest-api/api/swagger"
	"github.com/famquest-app/famquest-api/internal/handler"
	"github.com/famquest-app/famquest-api/internal/middleware"
	"github.com/famquest-app/famquest-api/internal/models"
	"github.com/famquest-app/famquest-api/internal/repository"
	"github.com/famquest-app/famquest-api/internal/service"
	"github.com/famquest-app/famquest-api/pkg/cache"
	"github.com/famquest-app/famquest-api/pkg/config"
	"github.com/famquest-app/famquest-api/pkg/database"
	"github.com/famquest-app/famquest-api/pkg/genai"
	"github.com/famquest-app/famquest-api/pkg/jobs"
	"github.com/famquest-app/famquest-api/pkg/logger"
	corsmiddleware "github.com/famquest-app/famquest-api/pkg/middleware/cors"
	reqidmiddleware "github.com/famquest-app/famquest-api/pkg/middleware/requestid"
	"github.com/famquest-app/famquest-api/pkg/storage"
)

// @title FamQuest API
// @version 1.0.0
// @description Family task and reward gamification backend
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	childRepo := repository.NewChildRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	ruleRepo := repository.NewRuleRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	piggyBankRepo := repository.NewPiggyBankRepository(db)
	moodRepo := repository.NewMoodRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Observability and caching.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Stats.CacheTTL, logr, redisClient != nil)

	// Core services.
	authSvc := service.NewAuthService(userRepo, childRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "famquest-api",
	})
	childSvc := service.NewChildService(childRepo, nil, logr)
	ledgerSvc := service.NewLedgerService(ledgerRepo, childRepo, completionRepo, rewardRepo, cfg.Streak.WindowDays, logr)
	streakSvc := service.NewStreakService(ledgerSvc, logr)
	statsSvc := service.NewStatsService(ledgerSvc, rewardRepo, childRepo, cacheSvc, cfg.Stats.CacheTTL, logr)
	taskSvc := service.NewTaskService(taskRepo, completionRepo, childRepo, statsSvc, nil, logr)
	rewardSvc := service.NewRewardService(rewardRepo, childRepo, ledgerSvc, statsSvc, nil, logr)
	ruleSvc := service.NewRuleService(ruleRepo, childRepo, statsSvc, nil, logr)
	piggyBankSvc := service.NewPiggyBankService(piggyBankRepo, statsSvc, nil, logr)
	moodSvc := service.NewMoodService(moodRepo, nil, logr)

	aiClient := genai.NewClient(genai.Config{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	})
	generationSvc := service.NewGenerationService(aiClient, cacheSvc, pointsRepo, ledgerRepo, moodRepo, service.GenerationConfig{
		RiddleCacheTTL: cfg.Riddles.CacheTTL,
		AnalysisTTL:    cfg.AI.AnalysisTTL,
	}, nil, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var reportSvc *service.ReportService
	if cfg.Reports.Enabled {
		reportStorage, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Fatal("failed to init report storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportSvc = service.NewReportService(reportRepo, ledgerSvc, childRepo, reportStorage, signer, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
		}, cfg.Reports.CleanupInterval, nil, logr)
		reportSvc.Start(ctx)
		defer reportSvc.Stop()
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	childHandler := handler.NewChildHandler(childSvc)
	taskHandler := handler.NewTaskHandler(taskSvc, metricsSvc)
	rewardHandler := handler.NewRewardHandler(rewardSvc, metricsSvc)
	ruleHandler := handler.NewRuleHandler(ruleSvc, childSvc)
	ledgerHandler := handler.NewLedgerHandler(ledgerSvc, streakSvc, childSvc)
	moodHandler := handler.NewMoodHandler(moodSvc, childSvc)
	piggyBankHandler := handler.NewPiggyBankHandler(piggyBankSvc, childSvc)
	generationHandler := handler.NewGenerationHandler(generationSvc, childSvc)
	statsHandler := handler.NewStatsHandler(statsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/child-login", authHandler.ChildLogin)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)

	protected := api.Group("", middleware.JWT(authSvc))

	// Catalog management and family-wide views are parent territory.
	parents := protected.Group("", middleware.RequireRoles(models.RoleParent, models.RoleAdmin))
	parents.POST("/children", childHandler.Create)
	parents.GET("/children", childHandler.List)
	parents.PUT("/children/:id", childHandler.Update)
	parents.DELETE("/children/:id", childHandler.Delete)
	parents.POST("/tasks", taskHandler.Create)
	parents.GET("/tasks", taskHandler.List)
	parents.PUT("/tasks/:id", taskHandler.Update)
	parents.DELETE("/tasks/:id", taskHandler.Delete)
	parents.POST("/rewards", rewardHandler.Create)
	parents.GET("/rewards", rewardHandler.List)
	parents.PUT("/rewards/:id", rewardHandler.Update)
	parents.DELETE("/rewards/:id", rewardHandler.Delete)
	parents.POST("/rules", ruleHandler.Create)
	parents.GET("/rules", ruleHandler.List)
	parents.DELETE("/rules/:id", ruleHandler.Delete)
	parents.POST("/children/:id/violations", ruleHandler.RecordViolation)
	parents.GET("/children/:id/analysis", generationHandler.Analyze)
	parents.POST("/ai/suggestions", generationHandler.Suggestions)
	parents.GET("/stats", statsHandler.Family)

	// Child-facing routes. A child token is confined to its own profile;
	// parents pass through and are ownership-checked in the services.
	family := protected.Group("", middleware.ChildScope("id"))
	family.GET("/children/:id", childHandler.Get)
	family.GET("/children/:id/balance", childHandler.Balance)
	family.GET("/children/:id/history", ledgerHandler.History)
	family.GET("/children/:id/snapshot", ledgerHandler.Snapshot)
	family.GET("/children/:id/streak", ledgerHandler.Streak)
	family.GET("/children/:id/stats", statsHandler.Child)
	family.GET("/children/:id/completions", taskHandler.DayCompletions)
	family.POST("/children/:id/tasks/:taskID/complete", taskHandler.Complete)
	family.DELETE("/children/:id/tasks/:taskID/complete", taskHandler.Uncomplete)
	family.GET("/children/:id/rewards/eligibility", rewardHandler.Eligibility)
	family.GET("/children/:id/rewards/stats", rewardHandler.Stats)
	family.GET("/children/:id/rewards/progress", rewardHandler.Progress)
	family.POST("/children/:id/rewards/:rewardID/claim",
		middleware.Audit(userRepo, models.AuditActionRewardClaim, "reward"), rewardHandler.Claim)
	family.GET("/children/:id/violations", ruleHandler.ListViolations)
	family.POST("/children/:id/moods", moodHandler.Record)
	family.GET("/children/:id/moods", moodHandler.History)
	family.POST("/children/:id/piggy-bank/deposit", piggyBankHandler.Deposit)
	family.POST("/children/:id/piggy-bank/withdraw", piggyBankHandler.Withdraw)
	family.GET("/children/:id/piggy-bank/transactions", piggyBankHandler.Transactions)
	family.POST("/children/:id/riddles/solve", generationHandler.SolveRiddle)
	family.POST("/ai/riddle", generationHandler.Riddle)

	if reportSvc != nil {
		reportHandler := handler.NewReportHandler(reportSvc)
		parents.POST("/reports", reportHandler.Create)
		parents.GET("/reports", reportHandler.List)
		parents.GET("/reports/:id", reportHandler.Get)
		// Token-authenticated: the signed URL is the credential.
		api.GET("/reports/download", reportHandler.Download)
	}

	// Scheduled jobs: nightly riddle prewarm and report retention cleanup.
	scheduler := cron.New()
	if cfg.Riddles.PrewarmEnabled {
		if _, err := scheduler.AddFunc(cfg.Riddles.PrewarmCron, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if err := generationSvc.PrewarmRiddles(jobCtx); err != nil {
				logr.Warn("riddle prewarm failed", zap.Error(err))
			}
		}); err != nil {
			logr.Warn("invalid riddle prewarm schedule", zap.Error(err))
		}
	}
	if reportSvc != nil && cfg.Reports.CleanupInterval > 0 {
		if _, err := scheduler.AddFunc(fmt.Sprintf("@every %s", cfg.Reports.CleanupInterval), func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			reportSvc.Cleanup(jobCtx)
		}); err != nil {
			logr.Warn("invalid report cleanup schedule", zap.Error(err))
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("server shutdown incomplete", zap.Error(err))
	}
	if err := cacheRepo.Close(); err != nil {
		logr.Warn("redis close failed", zap.Error(err))
	}
}
