package main

import (
	"context"

	config "sellthrough-backend/config"
	"sellthrough-backend/middleware"

	// Repositories
	ingestion_repositories "sellthrough-backend/ingestion/repositories"

	// Routes
	batch_routes "sellthrough-backend/batches/routes"

	// Ingestion services
	"sellthrough-backend/ingestion/inserter"
	"sellthrough-backend/ingestion/pipeline"
	"sellthrough-backend/ingestion/reports"
	"sellthrough-backend/ingestion/tasks"

	// "sellthrough-backend/seeds"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Initialize Zap logger
	config.InitLogger()

	// Load environment variables
	err := godotenv.Load(".env")
	if err != nil {
		config.Logger.Fatal("Error loading .env file", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024, // uploaded workbooks can be large
	})

	// Apply CORS middleware from middleware package
	middleware.InitCors(app)

	// Initialize database and configs
	db := config.ConfigureDatabase()
	port := config.GetEnv("PORT")
	ctx := context.Background()

	// Redis client for Asynq and other uses
	redisAddr := config.GetEnv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379" // Default for development
		config.Logger.Warn("REDIS_ADDRESS not set, using default: localhost:6379")
	}
	redisClient := config.InitRedisServer(ctx)

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: config.GetEnvOrDefault("REDIS_PASSWORD", ""),
		DB:       0,
	}

	asynqClient := asynq.NewClient(asynqRedisOpt)
	defer asynqClient.Close()

	// Serve generated reports and raw uploads
	app.Static("/public", "./public")
	app.Static("/uploads", "./uploads")

	// Repositories
	batchRepo := ingestion_repositories.NewBatchRepository(db)
	storeRepo := ingestion_repositories.NewStoreRepository(db)
	mappingRepo := ingestion_repositories.NewProductMappingRepository(db)
	factRepo := ingestion_repositories.NewSalesFactRepository(db)
	reportRepo := ingestion_repositories.NewErrorReportRepository(db)

	// Ingestion services
	ins := inserter.New(factRepo, batchRepo, storeRepo, config.Logger)
	reporter := reports.NewReporter(reportRepo, config.Logger)
	pipe := pipeline.New(batchRepo, storeRepo, mappingRepo, ins, reporter, config.Logger)

	// Routes
	batch_routes.BatchRouterInit(app, db, batchRepo, reportRepo, ins, asynqClient, redisClient)

	// Background worker consuming ingestion tasks
	asynqServer := asynq.NewServer(asynqRedisOpt, asynq.Config{
		Concurrency: 4,
		Queues: map[string]int{
			tasks.QueueIngestion: 6,
			"default":            1,
		},
	})
	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeProcessBatch, tasks.NewBatchProcessor(pipe, config.Logger))
	go func() {
		if err := asynqServer.Run(mux); err != nil {
			config.Logger.Fatal("Asynq server failed", zap.Error(err))
		}
	}()

	// Housekeeping cron jobs
	sweepers := tasks.StartSweepers(batchRepo, reporter, config.Logger)
	defer sweepers.Stop()

	//------ Run seeders for initial data ------ //
	// if err := seeds.SeedSellThroughAll(db); err != nil {
	// 	config.Logger.Error("Database seeding failed", zap.Error(err))
	// }

	// Start the application
	config.Logger.Info("Server starting", zap.String("port", port))
	config.Logger.Fatal("Server failed", zap.String("port", port), zap.Error(app.Listen(":"+port)))
}
