package controllers

import (
	"strings"

	"sellthrough-backend/config"
	"sellthrough-backend/utils/pagination"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GetFilteredBatches lists upload batches with optional status,
// reseller and date-range filters, paginated.
func (bc *BatchController) GetFilteredBatches(c *fiber.Ctx) error {
	params := pagination.ParsePaginationParams(c)
	if err := pagination.ValidatePaginationParams(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	cleanQueryParam := func(param string) string {
		param = strings.TrimSpace(param)
		if param == "" || strings.ToLower(param) == "null" {
			return ""
		}
		return param
	}

	filters := make(map[string]string)
	if status := cleanQueryParam(c.Query("status")); status != "" {
		filters["status"] = status
	}
	if resellerID := cleanQueryParam(c.Query("reseller_id")); resellerID != "" {
		filters["reseller_id"] = resellerID
	}
	if startDate := cleanQueryParam(c.Query("start_date")); startDate != "" {
		filters["start_date"] = startDate
	}
	if endDate := cleanQueryParam(c.Query("end_date")); endDate != "" {
		filters["end_date"] = endDate
	}

	offset := (params.Page - 1) * params.PageSize
	batches, total, err := bc.BatchRepo.GetFilteredBatches(params.PageSize, offset, filters)
	if err != nil {
		config.Logger.Error("Failed to fetch filtered batches", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch filtered batches"})
	}

	return c.Status(fiber.StatusOK).JSON(pagination.NewPaginatedResponse(c, batches, total, params))
}
