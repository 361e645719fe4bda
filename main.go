package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	appconfig "faction-wars-backend/config"
	"faction-wars-backend/handlers"
	"faction-wars-backend/models"
	"faction-wars-backend/services"
	"faction-wars-backend/utils"
	"faction-wars-backend/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg := appconfig.Load()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Faction{},
		&models.Wallet{},
		&models.Round{},
		&models.Zone{},
		&models.NFT{},
		&models.Deployment{},
		&models.Profile{},
		&models.ProfileBadge{},
		&models.BadgeDefinition{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if cfg.SeedReferenceData {
		if err := services.SeedReferenceData(db); err != nil {
			log.Fatal("failed to seed reference data:", err)
		}
	}

	if err := utils.InitR2(cfg); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		log.Printf("leaderboard cache enabled via redis at %s", cfg.RedisAddr)
	}

	badgeService := services.NewBadgeService(db)
	roundService := services.NewRoundService(db)
	factionService := services.NewFactionService(db, badgeService)
	deploymentService := services.NewDeploymentService(db, badgeService)
	standingsService := services.NewStandingsService(db, roundService, badgeService)
	profileService := services.NewProfileService(db)
	leaderboardService := services.NewLeaderboardService(db, rdb)
	nftService := services.NewNFTService(db, services.NewHeliusClient(cfg))

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // avatar uploads only
	})
	app.Use(logger.New())
	app.Use(cors.New())

	handlers.SetupRoundRoutes(app, cfg, roundService, standingsService)
	handlers.SetupDeploymentRoutes(app, deploymentService)
	handlers.SetupFactionRoutes(app, factionService)
	handlers.SetupProfileRoutes(app, profileService, leaderboardService)
	handlers.SetupNFTRoutes(app, nftService)
	handlers.SetupAdminRoutes(app, cfg, roundService, standingsService, deploymentService, factionService, badgeService)

	roundService.StartRoundScheduler()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nftWorker := workers.NewNFTSyncWorker(db, nftService)
	go workers.PollOwnedNFTs(ctx, nftWorker, 15*time.Minute)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Println("✅ Round rollover scheduler running (hourly)")
	log.Println("✅ NFT metadata polling running (every 15m)")

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
