package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/testadmin-api/internal/config"
	"github.com/yourusername/testadmin-api/internal/handler"
	"github.com/yourusername/testadmin-api/internal/middleware"
	pgRepo "github.com/yourusername/testadmin-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/testadmin-api/internal/repository/redis"
	"github.com/yourusername/testadmin-api/internal/service"
	"github.com/yourusername/testadmin-api/pkg/auth"
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

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db, "file://migrations"); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	verificationRepo := pgRepo.NewVerificationRepo(db)
	testRepo := pgRepo.NewTestRepo(db)
	resultRepo := pgRepo.NewResultRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Инициализируем сервисы
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
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

	authService, err := service.NewAuthService(userRepo, jwtService)
	if err != nil {
		log.Printf("Failed to initialize AuthService: %v", err)
		os.Exit(1)
	}

	testService, err := service.NewTestService(testRepo, cacheRepo)
	if err != nil {
		log.Printf("Failed to initialize TestService: %v", err)
		os.Exit(1)
	}

	resultService, err := service.NewResultService(resultRepo, testRepo, userRepo)
	if err != nil {
		log.Printf("Failed to initialize ResultService: %v", err)
		os.Exit(1)
	}

	userService, err := service.NewUserService(userRepo)
	if err != nil {
		log.Printf("Failed to initialize UserService: %v", err)
		os.Exit(1)
	}

	// Одноразовый bootstrap администратора из конфигурации
	if err := authService.EnsureAdmin(cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.Name); err != nil {
		log.Printf("Failed to ensure admin user: %v", err)
		os.Exit(1)
	}

	// Инициализируем обработчики
	authHandler := handler.NewAuthHandler(verificationService, authService)
	testHandler := handler.NewTestHandler(testService)
	resultHandler := handler.NewResultHandler(resultService, testService)
	userHandler := handler.NewUserHandler(userService)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Инициализируем роутер Gin
	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Регистрация и аутентификация
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/send-code",
				rateLimiter.Limit(middleware.CodeIssueRateLimitConfig()), authHandler.SendCode)
			authGroup.POST("/verify-code-step1",
				rateLimiter.Limit(middleware.VerifyRateLimitConfig()), authHandler.VerifyCodeStep1)
			authGroup.POST("/complete-registration",
				rateLimiter.Limit(middleware.VerifyRateLimitConfig()), authHandler.CompleteRegistration)
			authGroup.POST("/login",
				rateLimiter.Limit(middleware.LoginRateLimitConfig()), authHandler.Login)
		}

		// Пользователи
		users := api.Group("/users")
		users.Use(authMiddleware.RequireAuth())
		{
			users.GET("/me", userHandler.Me)

			adminUsers := users.Group("")
			adminUsers.Use(authMiddleware.AdminOnly())
			{
				adminUsers.GET("", userHandler.ListUsers)
				adminUsers.DELETE("/:id", userHandler.DeleteUser)
			}
		}

		// Тесты
		tests := api.Group("/tests")
		tests.Use(authMiddleware.RequireAuth())
		{
			tests.GET("", testHandler.ListTests)
			tests.GET("/:id", testHandler.GetTest)

			adminTests := tests.Group("")
			adminTests.Use(authMiddleware.AdminOnly())
			{
				adminTests.POST("", testHandler.CreateTest)
				adminTests.GET("/:id/with-answers", testHandler.GetTestWithAnswers)
				adminTests.PUT("/:id", testHandler.UpdateTest)
				adminTests.DELETE("/:id", testHandler.DeleteTest)
				adminTests.GET("/:id/results", resultHandler.TestResults)
				adminTests.GET("/:id/results/export", resultHandler.ExportTestResults)
			}
		}

		// Результаты
		results := api.Group("/results")
		results.Use(authMiddleware.RequireAuth())
		{
			results.POST("", resultHandler.Submit)
			results.GET("/my", resultHandler.MyResults)
		}
	}

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	// Ожидаем сигнал остановки
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}
