package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"account-api/internal/config"
	"account-api/internal/db"
	apihttp "account-api/internal/http"
	"account-api/internal/metrics"
	"account-api/internal/repository"
	"account-api/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	privateKey, err := service.LoadPrivateKey(cfg.JWTPrivateKeyPath)
	if err != nil {
		logger.Fatal("load private key", zap.Error(err))
	}
	publicKey, err := service.LoadPublicKey(cfg.JWTPublicKeyPath)
	if err != nil {
		logger.Fatal("load public key", zap.Error(err))
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()
	if err := db.Ping(ctx, pool); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}

	metrics.Register()

	rateWindow := time.Duration(cfg.LoginRateWindow) * time.Second
	var rateLimiter service.LoginRateLimiter = service.NewLoginRateLimiter(rateWindow, cfg.LoginRateMax)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory login rate limiter", zap.Error(err))
		} else {
			rateLimiter = service.NewRedisLoginRateLimiter(redisClient, rateWindow, cfg.LoginRateMax)
		}
		cancel()
	}

	userRepo := repository.NewPgUserRepository(pool)
	hasher := service.NewPasswordHasher(cfg.BcryptCost)
	issuer := service.NewTokenIssuer(privateKey, time.Duration(cfg.TokenTTLHours)*time.Hour)
	verifier := service.NewTokenVerifier(publicKey)
	accountSvc := service.NewAccountService(logger, userRepo, hasher, rateLimiter, service.DeleteMode(cfg.AccountDeleteMode))

	userHandler := apihttp.NewUserHandler(logger, accountSvc, issuer, cfg.DebugErrors)
	router := apihttp.NewRouter(logger, userHandler, verifier, userRepo, pool)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
