package controllers

import (
	"sellthrough-backend/config"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GetBatchStatistics returns the batch counters together with the last
// persisted pipeline stage and detection result.
func (bc *BatchController) GetBatchStatistics(c *fiber.Ctx) error {
	batchID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid batch id"})
	}

	batch, err := bc.Inserter.GetInsertionStatistics(batchID)
	if err != nil {
		config.Logger.Error("Failed to fetch batch statistics",
			zap.String("batch_id", batchID.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to fetch batch statistics"})
	}
	if batch == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Batch not found"})
	}

	data := fiber.Map{
		"batch_id":              batch.ID,
		"status":                batch.Status,
		"total_rows":            batch.TotalRows,
		"valid_rows":            batch.ValidRows,
		"invalid_rows":          batch.TotalRows - batch.ValidRows,
		"inserted_rows":         batch.InsertedRows,
		"duplicate_rows":        batch.DuplicateRows,
		"failed_rows":           batch.FailedRows,
		"processing_started_at": batch.ProcessingStartedAt,
		"completed_at":          batch.CompletedAt,
	}

	if record, err := bc.BatchRepo.GetStagingRecord(batchID); err == nil && record != nil {
		data["pipeline_stage"] = record.PipelineStage
		data["detected_vendor"] = record.DetectedVendor
		data["detection_confidence"] = record.DetectionConfidence
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Batch statistics retrieved",
		"data":    data,
	})
}

// DownloadErrorReport returns the download link of the most recent
// error report generated for a batch.
func (bc *BatchController) DownloadErrorReport(c *fiber.Ctx) error {
	batchID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid batch id"})
	}

	report, err := bc.ReportRepo.GetLatestByBatch(batchID)
	if err != nil {
		config.Logger.Error("Failed to fetch error report",
			zap.String("batch_id", batchID.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to fetch error report"})
	}
	if report == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "No error report exists for this batch"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Error report retrieved",
		"data": fiber.Map{
			"batch_id":      report.BatchID,
			"download_link": report.DownloadLink,
			"invalid_rows":  report.InvalidRows,
			"generated_at":  report.GeneratedAt,
		},
	})
}
