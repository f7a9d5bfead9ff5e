package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/abrahamahn/abe-stack-auth/config"
	"github.com/abrahamahn/abe-stack-auth/db"
	"github.com/abrahamahn/abe-stack-auth/internal/auth/handler"
	repo "github.com/abrahamahn/abe-stack-auth/internal/auth/repository/postgres"
	"github.com/abrahamahn/abe-stack-auth/internal/auth/service"
	"github.com/abrahamahn/abe-stack-auth/internal/notifier"
	"github.com/abrahamahn/abe-stack-auth/internal/smscode"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer dbPool.Close()

	redisClient, err := db.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	events := notifier.NewRabbitNotifier(cfg.AmqpURL)

	store := repo.NewPostgresRepository(dbPool)
	smsStore := smscode.NewRedisStore(redisClient, smscode.Config{
		CodeTTL:     time.Duration(cfg.SmsCodeTTLMin) * time.Minute,
		HourlyLimit: cfg.SmsHourlyLimit,
		DailyLimit:  cfg.SmsDailyLimit,
	})

	tokenService := service.NewTokenService(
		cfg.AccessTokenSecret, cfg.ChallengeSecret,
		cfg.AccessExpiryMin, cfg.RefreshExpiryMin, cfg.ChallengeTTLMin,
	)
	passwordService := service.NewPasswordService(service.Argon2Params{
		MemoryKB:    uint32(cfg.Argon2MemoryKB),
		Time:        uint32(cfg.Argon2Time),
		Parallelism: uint8(cfg.Argon2Parallelism),
	})
	lockoutService := service.NewLockoutService(store, events, cfg)
	familyService := service.NewFamilyService(store, tokenService, events, cfg)
	userService := service.NewUserService(store, familyService, tokenService, passwordService, lockoutService, cfg)
	mfaService := service.NewMfaService(store, userService, tokenService, lockoutService, smsStore, events)
	sessionService := service.NewSessionService(store, familyService)

	authHandler := handler.NewAuthHandler(userService)
	mfaHandler := handler.NewMfaHandler(mfaService)
	sessionHandler := handler.NewSessionHandler(sessionService)
	middleware := handler.NewAuthMiddleware(tokenService, store)

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler, mfaHandler, sessionHandler, middleware)

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
