package routes

import (
	"sellthrough-backend/batches/controllers"
	"sellthrough-backend/ingestion/inserter"
	"sellthrough-backend/ingestion/repositories"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func BatchRouterInit(
	app *fiber.App,
	db *gorm.DB,
	batchRepository repositories.BatchRepository,
	reportRepository repositories.ErrorReportRepository,
	ins *inserter.Inserter,
	asynqClient *asynq.Client,
	redisClient *redis.Client,
) {
	batchController := &controllers.BatchController{
		BatchRepo:   batchRepository,
		ReportRepo:  reportRepository,
		Inserter:    ins,
		AsynqClient: asynqClient,
		RedisClient: redisClient,
		DB:          db,
	}

	batchRoutes := app.Group("/batches")
	batchRoutes.Post("/upload", batchController.UploadBatch)
	batchRoutes.Get("/", batchController.GetFilteredBatches)
	batchRoutes.Get("/:id/statistics", batchController.GetBatchStatistics)
	batchRoutes.Get("/:id/report", batchController.DownloadErrorReport)
	batchRoutes.Post("/:id/retry", batchController.RetryBatch)
	batchRoutes.Post("/:id/rollback", batchController.RollbackBatch)
}
