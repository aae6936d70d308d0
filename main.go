package main

import (
	"log"
	"net/http"
	"time"

	"homework-service/internal/cache"
	"homework-service/internal/config"
	"homework-service/internal/db"
	"homework-service/internal/event"
	"homework-service/internal/generator"
	"homework-service/internal/handlers"
	"homework-service/internal/llm"
	"homework-service/internal/middleware"
	"homework-service/internal/profiler"
	"homework-service/internal/repository"
	"homework-service/internal/scoring"
	"homework-service/internal/service"
	"homework-service/pkg/discovery"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	cfg := config.Load()

	if cfg.MongoDB.URI == "" {
		log.Fatal("MONGO_URI is required")
	}
	db.InitMongo(cfg.MongoDB.URI, cfg.MongoDB.Timeout)

	// RabbitMQ event publisher
	var publisher *event.EventPublisher
	if cfg.RabbitMQ.URI != "" && cfg.RabbitMQ.Exchange != "" {
		var err error
		publisher, err = event.NewEventPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, homework events will not be published")
	}

	// Consul registration
	if cfg.Consul.Address != "" {
		registry, err := discovery.NewServiceRegistry(cfg)
		if err != nil {
			log.Printf("Consul unavailable, skipping registration: %v", err)
		} else {
			if err := registry.Register(); err != nil {
				log.Printf("Consul registration failed: %v", err)
			} else {
				defer registry.Deregister()
			}
		}
	} else {
		log.Println("Consul not configured, skipping service registration")
	}

	// Redis profile cache
	var profileCache *cache.ProfileCache
	if cfg.Redis.Address != "" {
		profileCache = cache.NewProfileCache(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.ProfileTTL)
	} else {
		log.Println("Redis not configured, profile caching disabled")
	}

	// AI backend; when absent, generation runs entirely on fallbacks
	var chatClient llm.ChatClient
	if cfg.LLM.BaseURL != "" {
		chatClient = llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout)
	} else {
		log.Println("LLM backend not configured, using fallback question generation")
	}

	database := db.Client.Database(cfg.MongoDB.Database)

	homeworkRepo := repository.NewHomeworkRepository(database)
	submissionRepo := repository.NewSubmissionRepository(database)
	profileRepo := repository.NewProfileRepository(database)
	classroomRepo := repository.NewClassroomRepository(database)

	indexCtx, cancel := db.TimeoutContext(cfg.MongoDB.Timeout)
	submissionRepo.EnsureIndexes(indexCtx)
	profileRepo.EnsureIndexes(indexCtx)
	cancel()

	questionGen := generator.New(chatClient)
	profileUpdater := profiler.NewUpdater(chatClient, nil)
	scorer := scoring.NewEngine(nil)

	homeworkService := service.NewHomeworkService(
		homeworkRepo,
		submissionRepo,
		profileRepo,
		classroomRepo,
		questionGen,
		profileUpdater,
		scorer,
		profileCache,
	)
	homeworkHandler := handlers.NewHomeworkHandler(homeworkService, publisher)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": cfg.Server.ServiceName})
	})

	protected := r.Group("/protected/homework")
	protected.Use(middleware.RequireUser(cfg.Auth.JWTSecret))
	{
		protected.POST("/", homeworkHandler.CreateHomework)
		protected.GET("/:id", homeworkHandler.GetHomework)
		protected.DELETE("/:id", homeworkHandler.DeleteHomework)
		protected.POST("/:id/regenerate", homeworkHandler.RegenerateQuestions)

		protected.GET("/:id/questions", homeworkHandler.StartHomework)
		protected.POST("/:id/submit", homeworkHandler.SubmitHomework)
		protected.GET("/:id/submission", homeworkHandler.GetSubmission)
	}

	protectedClassroom := r.Group("/protected/classroom")
	protectedClassroom.Use(middleware.RequireUser(cfg.Auth.JWTSecret))
	{
		protectedClassroom.GET("/:id/homework", homeworkHandler.ListClassroomHomework)
		protectedClassroom.GET("/:id/homework/me", homeworkHandler.ListStudentHomework)
	}

	protectedStudent := r.Group("/protected/student")
	protectedStudent.Use(middleware.RequireUser(cfg.Auth.JWTSecret))
	{
		protectedStudent.GET("/me/grades", homeworkHandler.GetMyGrades)
		protectedStudent.GET("/me/profile", homeworkHandler.GetMyProfile)
	}

	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
