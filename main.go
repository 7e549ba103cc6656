package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"grudge-match-system/config"
	"grudge-match-system/handlers"
	"grudge-match-system/middleware"
	"grudge-match-system/models"
	"grudge-match-system/services"
	"grudge-match-system/utils"
	"grudge-match-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		utils.InitLogger("info", "console").Fatal("invalid configuration", zap.Error(err))
	}
	log := utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&models.RacerUser{},
		&models.Match{},
		&models.UserStats{},
		&models.BadgeType{},
		&models.UserBadge{},
	); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	users := services.NewUserService(db)
	stats := services.NewStatsService(db)
	badges := services.NewBadgeService(db)
	challenges := services.NewChallengeService(db, users)
	reconciler := services.NewReconcilerService(db, stats, badges)
	leaderboard := services.NewLeaderboardService(stats, nil)

	if err := badges.SeedBadgeTypes(ctx); err != nil {
		log.Fatal("failed to seed badge types", zap.Error(err))
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		rdb := redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()

		cache := services.NewRedisLeaderboard(rdb)
		leaderboard.Cache = cache
		reconciler.Leaderboard = cache
		log.Info("leaderboard cache enabled", zap.String("addr", opts.Addr))
	}

	if cfg.R2Enabled() {
		archiver, err := utils.NewR2Archiver(ctx, cfg.R2AccountID, cfg.R2AccessKeyID, cfg.R2AccessSecret, cfg.R2Bucket)
		if err != nil {
			log.Fatal("failed to initialize R2 client", zap.Error(err))
		}
		reconciler.Archive = archiver
		log.Info("match archive enabled", zap.String("bucket", cfg.R2Bucket))
	}

	if cfg.SyncServiceURL != "" {
		workers.NewUserSyncWorker(db, cfg.SyncServiceURL, cfg.SyncServiceToken).Start(ctx)
	} else {
		log.Warn("SYNC_SERVICE_URL not set, racer users must be provisioned externally")
	}

	jobs := services.NewMaintenanceJobs(stats, leaderboard, cfg.AuditInterval)
	if err := jobs.Start(ctx); err != nil {
		log.Fatal("failed to start maintenance jobs", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:      "grudge-match-system",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	handlers.SetupHealthRoute(app, db)

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// every other route only accepts gateway traffic with a resolved caller
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken))
	secured := app.Group("/", middleware.UserContextMiddleware())

	handlers.SetupMatchRoutes(secured, &handlers.MatchHandler{
		Challenges: challenges,
		Reconciler: reconciler,
	})
	handlers.SetupStatsRoutes(secured, &handlers.StatsHandler{
		Stats:       stats,
		Badges:      badges,
		Leaderboard: leaderboard,
		Users:       users,
	})
	handlers.SetupAdminRoutes(secured, &handlers.AdminHandler{Stats: stats})

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := jobs.Shutdown(); err != nil {
			log.Warn("scheduler shutdown failed", zap.Error(err))
		}
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Warn("http shutdown failed", zap.Error(err))
		}
	}()

	log.Info("grudge match service listening", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
