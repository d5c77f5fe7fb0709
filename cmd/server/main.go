package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
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
	config "github.com/notAlamaD/tiktoc-autoposting/configs"
	"github.com/notAlamaD/tiktoc-autoposting/internal/api/handlers"
	"github.com/notAlamaD/tiktoc-autoposting/internal/api/middleware"
	"github.com/notAlamaD/tiktoc-autoposting/internal/apilog"
	"github.com/notAlamaD/tiktoc-autoposting/internal/hooks"
	job "github.com/notAlamaD/tiktoc-autoposting/internal/jobs"
	"github.com/notAlamaD/tiktoc-autoposting/internal/queue"
	"github.com/notAlamaD/tiktoc-autoposting/internal/repository"
	"github.com/notAlamaD/tiktoc-autoposting/internal/service"
	"github.com/notAlamaD/tiktoc-autoposting/internal/telemetry"
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

	if err := repository.RunMigrations(context.Background(), db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
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

	queueRepo := repository.NewQueueRepository(db)
	recordRepo := repository.NewPublishRecordRepository(db)
	contentRepo := repository.NewContentRepository(db)
	contentMediaRepo := repository.NewContentMediaRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	logBuffer := apilog.NewBuffer()

	settingsService := service.NewSettingsService(settingsRepo)
	tokenStore := service.NewTokenStore(*cfg, tokenRepo)
	storageService := service.NewStorageService(*cfg)
	mediaService := service.NewMediaService(*cfg, contentMediaRepo, storageService)
	tiktokService := service.NewTiktokService(*cfg, tokenStore, mediaService, logBuffer, settingsService.LoggingEnabled)

	publishJob := job.NewPublishJob(queueRepo, recordRepo, contentRepo, tiktokService, mediaService, settingsService)
	observer := hooks.NewObserver(queueRepo, recordRepo, settingsService, mediaService, publishJob)
	dispatcher := queue.NewDispatcher(publishJob)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	auth := handlers.NewAuthHandler(*cfg, tiktokService, tokenStore)
	app.Post("/login", auth.Login)
	app.Post("/logout", auth.Logout)
	app.Get("/auth/tiktok", auth.ConnectTiktok)
	app.Get("/auth/tiktok/callback", auth.TiktokCallback)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	account := handlers.NewAccountHandler(tiktokService, tokenStore)
	api.Get("/account", account.GetAccountInfo)
	api.Post("/account/disconnect", auth.DisconnectTiktok)

	settings := handlers.NewSettingsHandler(settingsService)
	api.Get("/settings/info", settings.GetSettingsInfo)
	api.Post("/settings/update", settings.UpdateSettings)

	queueH := handlers.NewQueueHandler(queueRepo, recordRepo, client)
	api.Get("/queue", queueH.ListJobs)
	api.Post("/queue/enqueue", queueH.Enqueue)
	api.Post("/queue/retry", queueH.Retry)
	api.Post("/queue/remove", queueH.Remove)
	api.Get("/records", queueH.ListRecords)

	post := handlers.NewPostHandler(contentRepo, contentMediaRepo, recordRepo, publishJob, observer)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/publish", post.PublishNow)
	api.Post("/content/transition", post.ContentTransition)

	logs := handlers.NewLogsHandler(logBuffer)
	api.Get("/logs", logs.ListLogs)
	api.Post("/logs/clear", logs.ClearLogs)

	// cron jobs
	initial, err := settingsService.Get(context.Background())
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	runner := job.NewCronRunner(publishJob, initial.CronInterval)
	settingsService.OnIntervalChange(runner.Reschedule)
	runner.Start()
	defer runner.Stop()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishNow, dispatcher.HandlePublishNowTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := http.ListenAndServe(cfg.MetricsAddr, telemetry.Handler()); err != nil {
			log.Printf("Metrics server stopped: %v", err)
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
