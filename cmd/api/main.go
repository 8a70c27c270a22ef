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

	"github.com/yourusername/jtrainer-api/internal/config"
	"github.com/yourusername/jtrainer-api/internal/handler"
	"github.com/yourusername/jtrainer-api/internal/middleware"
	pgRepo "github.com/yourusername/jtrainer-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/jtrainer-api/internal/repository/redis"
	"github.com/yourusername/jtrainer-api/internal/service"
	"github.com/yourusername/jtrainer-api/internal/service/drillengine"
	"github.com/yourusername/jtrainer-api/pkg/auth"
	"github.com/yourusername/jtrainer-api/pkg/database"
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
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	clueRepo := pgRepo.NewClueRepo(db)
	drillRepo := pgRepo.NewDrillRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Инициализируем JWT сервис
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Исходящая почта: Resend в проде, no-op при выключенной отправке
	var emailService service.EmailService = &service.NoopEmailService{}
	if cfg.Email.Enabled {
		emailService, err = service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			log.Printf("Failed to initialize ResendEmailService: %v", err)
			os.Exit(1)
		}
		log.Println("Resend email service initialized")
	}

	// Инициализируем сервисы
	engineCfg := &drillengine.Config{
		MaxResponseTimeSec: cfg.Game.MaxResponseTime,
		MaxBuzzInTimeSec:   cfg.Game.MaxBuzzTime,
	}

	authService, err := service.NewAuthService(userRepo, jwtService, emailService)
	if err != nil {
		log.Printf("Failed to initialize AuthService: %v", err)
		os.Exit(1)
	}
	drillService := service.NewDrillService(drillRepo, clueRepo, engineCfg, nil)
	clueService := service.NewClueService(clueRepo)

	// Инициализируем обработчики
	authHandler := handler.NewAuthHandler(authService)
	drillHandler := handler.NewDrillHandler(drillService, cacheRepo)
	clueHandler := handler.NewClueHandler(clueService)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Инициализируем роутер Gin
	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	isProduction := gin.Mode() == gin.ReleaseMode
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
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Аутентификация (с rate limit по IP)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()), authHandler.Register)
			authGroup.POST("/login", rateLimiter.Limit(middleware.DefaultAuthRateLimitConfig()), authHandler.Login)
		}

		// Профиль
		users := api.Group("/users")
		users.Use(authMiddleware.RequireAuth())
		{
			users.GET("/me", authHandler.GetMe)
			users.PUT("/me", authHandler.UpdateMe)
		}

		// Тренировки
		drills := api.Group("/drills")
		drills.Use(authMiddleware.RequireAuth())
		{
			drills.POST("", drillHandler.StartDrill)
			drills.GET("", drillHandler.ListDrills)
			drills.GET("/current", drillHandler.GetCurrent)
			drills.POST("/current/end", drillHandler.EndCurrent)

			drillByID := drills.Group("/:id")
			drillByID.Use(middleware.ExtractUintParam("id", "drillID"))
			{
				drillByID.GET("", drillHandler.GetDrill)
				drillByID.POST("/responses", drillHandler.SubmitResponse)
				drillByID.POST("/end", drillHandler.EndDrill)
				drillByID.GET("/export", drillHandler.ExportDrill)
			}
		}

		// Справочник клю
		clues := api.Group("/clues")
		clues.Use(authMiddleware.RequireAuth())
		{
			clues.GET("", clueHandler.ListClues)
			clues.POST("/import", authMiddleware.AdminOnly(), clueHandler.ImportClues)

			clueByID := clues.Group("/:id")
			clueByID.Use(middleware.ExtractUintParam("id", "clueID"))
			{
				clueByID.GET("", clueHandler.GetClue)
				clueByID.GET("/stats", clueHandler.GetClueStats)
			}
		}
	}

	// Запускаем HTTP сервер с поддержкой graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Сервер запущен на порту %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Завершение работы сервера...")

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
