package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pasar/internal/config"
	"pasar/internal/handlers"
	"pasar/internal/middleware"
	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/internal/services"
	"pasar/pkg/rabbitmq"
	"pasar/pkg/uploads"
)

func main() {
	// --- Configuration ---
	// Built once here and injected; an unset AUTH_SECRET refuses to
	// start rather than failing on the first signin.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- Database ---
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- Image Asset Manager ---
	assetManager, err := uploads.NewManager(cfg.UploadDir, cfg.MaxUploadSize)
	if err != nil {
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}

	// --- RabbitMQ Client (contact relay transport) ---
	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
	}
	defer mqClient.Close()

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)

	// --- Services ---
	authService := services.NewAuthService(userRepo, cfg.AuthSecret)
	userService := services.NewUserService(userRepo)
	productService := services.NewProductService(productRepo, assetManager)
	contactService := services.NewContactService(mqClient)

	// --- Handlers ---
	userHandler := handlers.NewUserHandler(authService, userService)
	productHandler := handlers.NewProductHandler(productService)
	contactHandler := handlers.NewContactHandler(contactService)

	// --- Fiber App ---
	app := fiber.New(fiber.Config{
		BodyLimit: int(cfg.MaxUploadSize) + 1024*1024, // headroom for the other form fields
	})

	// --- Middleware ---
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
	}))

	// Uploaded assets are exposed read-only under /uploads.
	app.Static(uploads.PublicPrefix, assetManager.Dir())

	// --- API Routes ---
	requireAuth := middleware.AuthRequired(authService)
	requireAdmin := middleware.AdminRequired()

	api := app.Group("/api")
	productHandler.RegisterRoutes(api, requireAuth, requireAdmin)
	userHandler.RegisterRoutes(api, requireAuth, requireAdmin)
	contactHandler.RegisterRoutes(api)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start Contact Consumer in a Goroutine ---
	// The consumer side is the delivery collaborator: here it only
	// logs the hand-off; the mail sender acks the same queue in its
	// own process.
	go func() {
		log.Println("Starting RabbitMQ consumer for contact messages...")
		messageHandler := func(msg amqp.Delivery) error {
			log.Printf("Received contact message (Tag: %d): %s", msg.DeliveryTag, string(msg.Body))
			return nil
		}
		if consumerErr := mqClient.ConsumeContactMessages(messageHandler); consumerErr != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
		}
	}()

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}
