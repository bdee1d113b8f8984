package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourusername/testadmin-api/internal/bot"
	"github.com/yourusername/testadmin-api/internal/config"
	pgRepo "github.com/yourusername/testadmin-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/testadmin-api/internal/repository/redis"
	"github.com/yourusername/testadmin-api/internal/service"
	"github.com/yourusername/testadmin-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Подключаемся к той же базе, что и веб-процесс. Миграции применяет
	// веб-процесс, бот только читает и пишет записи.
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	verificationRepo := pgRepo.NewVerificationRepo(db)
	notificationRepo := pgRepo.NewNotificationRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	verificationService, err := service.NewVerificationService(
		verificationRepo, userRepo,
		time.Duration(cfg.Verification.CodeTTLMin)*time.Minute,
	)
	if err != nil {
		log.Printf("Failed to initialize VerificationService: %v", err)
		os.Exit(1)
	}

	// Бот создаётся в два шага: NotificationService получает бота как
	// MessageSender после его создания
	notificationService, err := service.NewNotificationService(notificationRepo, nil)
	if err != nil {
		log.Printf("Failed to initialize NotificationService: %v", err)
		os.Exit(1)
	}

	tgBot, err := bot.New(bot.Config{
		Token:           cfg.Telegram.Token,
		PollTimeoutSec:  cfg.Telegram.PollTimeoutSec,
		ReplayInterval:  time.Duration(cfg.Telegram.ReplayIntervalSec) * time.Second,
		ReplayBatchSize: cfg.Telegram.ReplayBatchSize,
	}, verificationService, notificationService, cacheRepo)
	if err != nil {
		log.Printf("Failed to initialize bot: %v", err)
		os.Exit(1)
	}
	notificationService.SetSender(tgBot)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Останавливаемся по SIGINT/SIGTERM
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down bot...")
		cancel()
	}()

	if err := tgBot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Bot stopped with error: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Bot exited properly")
}
