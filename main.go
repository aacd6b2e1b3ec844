package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"service-market-gamification/handlers"
	"service-market-gamification/middleware"
	"service-market-gamification/models"
	"service-market-gamification/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		AppName: "service-market-gamification",
	})

	// Internal service: only Gateway requests allowed.
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		log.Println("⚠️  ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		allowedOrigins = "http://localhost:3000"
	}
	var origins []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		origins = append(origins, strings.TrimSpace(o))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-User-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.XPHistory{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.ReferralReward{},
		&models.Order{},
		&models.Review{},
		&models.Subscription{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := services.SeedAchievements(db); err != nil {
		log.Fatal("failed to seed achievement catalog:", err)
	}

	// Redis backs the leaderboard sorted sets and the notification pub/sub
	// channels. Optional: without it the core still runs, just without
	// leaderboards and with notifications discarded.
	var notifier services.Notifier = services.NopNotifier{}
	var leaderboard *services.LeaderboardService
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		log.Println("⚠️  REDIS_URL not set — leaderboard and notifications disabled")
	} else {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatal("invalid REDIS_URL:", err)
		}
		client := redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Ping(ctx).Err(); err != nil {
			cancel()
			log.Fatal("failed to connect to redis:", err)
		}
		cancel()

		notifier = services.NewRedisNotifier(client)
		leaderboard = services.NewLeaderboardService(client)

		ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		if err := leaderboard.Rebuild(ctx, db); err != nil {
			log.Printf("[Main] initial leaderboard rebuild failed: %v", err)
		}
		cancel()
	}

	gamificationService := services.NewGamificationService(db, notifier, leaderboard)
	referralService := services.NewReferralService(db, gamificationService)

	referralService.StartPayoutScheduler()
	if leaderboard != nil {
		leaderboard.StartRebuildScheduler(db)
	}

	handlers.SetupGamificationRoutes(app, gamificationService, referralService, leaderboard)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8600"
	}
	log.Printf("🚀 Gamification service listening on :%s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("server error:", err)
	}
}
