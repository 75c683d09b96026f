package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"
	config "github.com/wahebtalal/gallery-dl-telegram-bot/configs"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/api/handlers"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/api/middleware"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/extractor"
	job "github.com/wahebtalal/gallery-dl-telegram-bot/internal/jobs"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/queue"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/repository"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/service"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/telegram"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	if err := repository.Migrate(db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	mediaItemRepo := repository.NewMediaItemRepository(db)
	jobHistoryRepo := repository.NewJobHistoryRepository(db)

	registry := extractor.NewRegistry()
	registry.Register(extractor.NewGalleryDL(cfg.GalleryDLBinary, cfg.DownloadTimeout))

	tgClient := telegram.NewClient(cfg.TelegramAPIBase, cfg.TelegramBotToken)
	archiveService := service.NewArchiveService(cfg.R2)

	downloadService := service.NewDownloadService(mediaItemRepo, jobHistoryRepo, registry, cfg.MediaRoot)
	sendService := service.NewSendService(mediaItemRepo, jobHistoryRepo, tgClient, cfg.TelegramChatID, archiveService)
	dispatchService := service.NewDispatchService(mediaItemRepo, jobHistoryRepo, queue.NewClient(client))

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	auth := handlers.NewAuthHandler(*cfg)
	app.Post("/login", auth.Login)
	app.Post("/logout", auth.Logout)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	media := handlers.NewMediaHandler(dispatchService)
	api.Post("/items", media.Submit)
	api.Get("/items", media.ListItems)
	api.Post("/items/:id/toggle", media.ToggleSelected)
	api.Post("/items/bulk/select", media.BulkSelect)
	api.Post("/items/bulk/deselect", media.BulkDeselect)
	api.Post("/items/send-selected", media.SendSelected)
	api.Post("/items/retry-failed-sends", media.RetryFailedSends)
	api.Get("/history", media.History)

	// cron jobs
	maintenanceJob := job.NewMaintenanceJob(mediaItemRepo, jobHistoryRepo, cfg.MediaRoot, 2*cfg.DownloadTimeout)

	//queue
	queueW := queue.NewQueue(downloadService, sendService)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", maintenanceJob.Run)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeDownloadMedia, queueW.HandleDownloadTask)
		mux.HandleFunc(queue.TaskTypeSendMedia, queueW.HandleSendTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
