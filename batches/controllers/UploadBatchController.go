package controllers

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sellthrough-backend/config"
	"sellthrough-backend/db/models"
	"sellthrough-backend/ingestion/tasks"
	"sellthrough-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	uploadsDir      = "./uploads/batches"
	recentUploadTTL = 7 * 24 * time.Hour
)

// UploadBatch accepts a sell-through spreadsheet, records the batch and
// hands it to the background worker. The response is returned before
// any processing happens; clients poll the batch status afterwards.
func (bc *BatchController) UploadBatch(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Failed to get file"})
	}

	ext := filepath.Ext(file.Filename)
	if ext != ".xlsx" && ext != ".xls" && ext != ".xlsm" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": fmt.Sprintf("Unsupported file type %q, expected an Excel workbook", ext),
		})
	}

	resellerCode := c.FormValue("reseller_code")
	if resellerCode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Missing 'reseller_code' field in FormData"})
	}
	createdBy := c.FormValue("created_by")
	if createdBy == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Missing 'created_by' field in FormData"})
	}

	reseller, err := bc.BatchRepo.GetResellerByCode(resellerCode)
	if err != nil {
		config.Logger.Error("Failed to look up reseller", zap.String("code", resellerCode), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to look up reseller"})
	}
	if reseller == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Unknown reseller code %q", resellerCode),
		})
	}

	batchID := uuid.New()
	storedName := fmt.Sprintf("%s_%s", batchID, utils.CleanStringForFilename(file.Filename))
	storedPath := filepath.Join(uploadsDir, storedName)
	if err := utils.EnsureDirectoryExists(storedPath); err != nil {
		config.Logger.Error("Failed to prepare uploads directory", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to save file"})
	}
	if err := c.SaveFile(file, storedPath); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to save file"})
	}

	fileHash, err := utils.GenerateFileHash(storedPath)
	if err != nil {
		config.Logger.Warn("Failed to hash uploaded file", zap.Error(err))
	}

	// A matching hash seen recently usually means the same living document
	// was re-uploaded. That is allowed, rows land as duplicates, but the
	// client gets a heads-up in the response.
	duplicateUpload := false
	if fileHash != "" && bc.RedisClient != nil {
		hashKey := fmt.Sprintf("upload:hash:%s:%s", resellerCode, fileHash)
		seen, err := bc.RedisClient.Exists(c.Context(), hashKey).Result()
		if err != nil {
			config.Logger.Warn("Failed to check recent upload hash", zap.Error(err))
		} else if seen > 0 {
			duplicateUpload = true
		}
		if err := bc.RedisClient.Set(c.Context(), hashKey, batchID.String(), recentUploadTTL).Err(); err != nil {
			config.Logger.Warn("Failed to record upload hash", zap.Error(err))
		}
	}

	batch := &models.UploadBatch{
		ID:             batchID,
		CompanyID:      config.DefaultCompanyID,
		ResellerID:     reseller.ID,
		SourceFilename: file.Filename,
		StoredPath:     storedPath,
		FileSizeBytes:  file.Size,
		FileHash:       fileHash,
		Status:         models.PendingBatchStatus,
		CreatedBy:      createdBy,
	}
	if err := bc.BatchRepo.CreateBatch(batch); err != nil {
		os.Remove(storedPath)
		config.Logger.Error("Failed to create upload batch", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to create upload batch"})
	}

	task, err := tasks.NewProcessBatchTask(batch.ID, storedPath)
	if err != nil {
		config.Logger.Error("Failed to build process task", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to queue batch for processing"})
	}
	if _, err := bc.AsynqClient.Enqueue(task); err != nil {
		config.Logger.Error("Failed to enqueue process task",
			zap.String("batch_id", batch.ID.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to queue batch for processing"})
	}

	config.Logger.Info("Batch queued for processing",
		zap.String("batch_id", batch.ID.String()),
		zap.String("reseller", resellerCode),
		zap.String("filename", file.Filename))

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Batch accepted for processing",
		"data": fiber.Map{
			"batch_id":         batch.ID,
			"status":           batch.Status,
			"duplicate_upload": duplicateUpload,
		},
	})
}
