package controllers

import (
	"sellthrough-backend/config"
	"sellthrough-backend/db/models"
	"sellthrough-backend/ingestion/tasks"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RetryBatch re-enters a failed or partial batch at the start of the
// pipeline. The stored file is reprocessed in full; rows already
// inserted surface as duplicates on the retry run.
func (bc *BatchController) RetryBatch(c *fiber.Ctx) error {
	batchID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid batch id"})
	}

	batch, err := bc.BatchRepo.GetBatch(batchID)
	if err != nil {
		config.Logger.Error("Failed to fetch batch for retry",
			zap.String("batch_id", batchID.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to fetch batch"})
	}
	if batch == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Batch not found"})
	}

	if batch.Status != models.FailedBatchStatus && batch.Status != models.PartialBatchStatus {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Only failed or partial batches can be retried",
			"data":    fiber.Map{"status": batch.Status},
		})
	}

	if err := bc.BatchRepo.UpdateBatchStatus(batchID, models.PendingBatchStatus); err != nil {
		config.Logger.Error("Failed to reset batch status",
			zap.String("batch_id", batchID.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to reset batch status"})
	}

	task, err := tasks.NewProcessBatchTask(batchID, batch.StoredPath)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to queue batch for processing"})
	}
	if _, err := bc.AsynqClient.Enqueue(task); err != nil {
		config.Logger.Error("Failed to enqueue retry task",
			zap.String("batch_id", batchID.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to queue batch for processing"})
	}

	config.Logger.Info("Batch queued for retry", zap.String("batch_id", batchID.String()))
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Batch queued for retry",
		"data":    fiber.Map{"batch_id": batchID, "status": models.PendingBatchStatus},
	})
}

// RollbackBatch deletes every sales fact the batch inserted and marks
// the batch rolled back. Dimension rows created along the way (stores,
// mappings) are deliberately left in place.
func (bc *BatchController) RollbackBatch(c *fiber.Ctx) error {
	batchID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid batch id"})
	}

	batch, err := bc.BatchRepo.GetBatch(batchID)
	if err != nil {
		config.Logger.Error("Failed to fetch batch for rollback",
			zap.String("batch_id", batchID.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to fetch batch"})
	}
	if batch == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Batch not found"})
	}
	if batch.Status == models.ProcessingBatchStatus {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Batch is still processing"})
	}
	if batch.Status == models.RolledBackBatchStatus {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Batch is already rolled back"})
	}

	deleted, err := bc.Inserter.Rollback(batchID)
	if err != nil {
		config.Logger.Error("Failed to roll back batch",
			zap.String("batch_id", batchID.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to roll back batch"})
	}

	config.Logger.Info("Batch rolled back",
		zap.String("batch_id", batchID.String()), zap.Int64("deleted_rows", deleted))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Batch rolled back",
		"data":    fiber.Map{"batch_id": batchID, "deleted_rows": deleted},
	})
}
