// Package reports renders a batch's validation and insertion failures
// into a downloadable Excel artifact the uploader can self-correct from.
package reports

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sellthrough-backend/config"
	"sellthrough-backend/db/models"
	"sellthrough-backend/ingestion/repositories"
	"sellthrough-backend/utils"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const reportsDir = "./public/reports"

// previewMaxLen caps the row preview column in the details sheet.
const previewMaxLen = 200

type Reporter struct {
	reports repositories.ErrorReportRepository
	logger  *zap.Logger
	dir     string
}

func NewReporter(reports repositories.ErrorReportRepository, logger *zap.Logger) *Reporter {
	return &Reporter{reports: reports, logger: logger, dir: reportsDir}
}

// SetArtifactDir overrides where report workbooks are written.
func (r *Reporter) SetArtifactDir(dir string) {
	r.dir = dir
}

// Generate renders the error artifact for a batch. It is a no-op when
// there are no invalid rows, returning an empty path.
func (r *Reporter) Generate(batchID uuid.UUID, totalRows int, rowErrors []models.RowError) (string, error) {
	if len(rowErrors) == 0 {
		return "", nil
	}

	if err := utils.EnsureDirectoryExists(filepath.Join(r.dir, "placeholder")); err != nil {
		return "", fmt.Errorf("failed to ensure reports directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := r.writeSummarySheet(f, totalRows, rowErrors); err != nil {
		return "", err
	}
	if err := r.writeDetailSheet(f, rowErrors); err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("upload_errors_%s_%s.xlsx", batchID, time.Now().Format("2006-01-02_150405"))
	artifactPath := filepath.Join(r.dir, fileName)
	if err := f.SaveAs(artifactPath); err != nil {
		return "", fmt.Errorf("failed to save error report: %w", err)
	}

	downloadLink := utils.GenerateDownloadLink("/public/reports/" + fileName)
	logEntry := &models.ErrorReportLog{
		BatchID:      batchID,
		ArtifactPath: artifactPath,
		DownloadLink: downloadLink,
		InvalidRows:  len(rowErrors),
		CompanyID:    config.DefaultCompanyID,
	}
	if err := r.reports.Create(logEntry); err != nil {
		// The artifact exists; a missing log entry only hurts retention.
		r.logger.Warn("failed to log error report artifact", zap.Error(err))
	}

	r.logger.Info("error report generated",
		zap.String("batch_id", batchID.String()),
		zap.Int("invalid_rows", len(rowErrors)),
		zap.String("artifact", artifactPath))
	return downloadLink, nil
}

func (r *Reporter) writeSummarySheet(f *excelize.File, totalRows int, rowErrors []models.RowError) error {
	const sheet = "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	invalid := len(rowErrors)
	successRate := 0.0
	if totalRows > 0 {
		successRate = float64(totalRows-invalid) / float64(totalRows) * 100
	}

	rows := [][]interface{}{
		{"Total Rows", totalRows},
		{"Invalid Rows", invalid},
		{"Success Rate", fmt.Sprintf("%.1f%%", successRate)},
		{},
		{"Error Type", "Count"},
	}

	histogram := make(map[models.RowErrorType]int)
	for _, rowErr := range rowErrors {
		histogram[rowErr.ErrorType]++
	}
	types := make([]string, 0, len(histogram))
	for errType := range histogram {
		types = append(types, string(errType))
	}
	sort.Strings(types)
	for _, errType := range types {
		rows = append(rows, []interface{}{errType, histogram[models.RowErrorType(errType)]})
	}

	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reporter) writeDetailSheet(f *excelize.File, rowErrors []models.RowError) error {
	const sheet = "Details"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := []interface{}{"Row Number", "Error Type", "Message", "Row Preview"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, rowErr := range rowErrors {
		row := []interface{}{
			rowErr.RowNumber,
			string(rowErr.ErrorType),
			rowErr.Message,
			snapshotPreview(rowErr.Snapshot),
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			return err
		}
	}
	return nil
}

// snapshotPreview flattens a row snapshot into a stable, truncated
// "key=value" preview string.
func snapshotPreview(snapshot map[string]string) string {
	if len(snapshot) == 0 {
		return ""
	}
	keys := make([]string, 0, len(snapshot))
	for key := range snapshot {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", key, snapshot[key]))
	}
	preview := strings.Join(parts, "; ")
	if runes := []rune(preview); len(runes) > previewMaxLen {
		preview = string(runes[:previewMaxLen]) + "…"
	}
	return preview
}

// CleanupOlderThan removes report artifacts and their log rows past the
// retention window.
func (r *Reporter) CleanupOlderThan(retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	logs, err := r.reports.ListOlderThan(cutoff)
	if err != nil {
		return fmt.Errorf("failed to list expired reports: %w", err)
	}

	for _, logEntry := range logs {
		if err := os.Remove(logEntry.ArtifactPath); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("failed to remove expired report artifact",
				zap.String("path", logEntry.ArtifactPath), zap.Error(err))
			continue
		}
		if err := r.reports.Delete(logEntry.ID); err != nil {
			r.logger.Warn("failed to delete report log entry",
				zap.String("id", logEntry.ID.String()), zap.Error(err))
		}
	}

	if len(logs) > 0 {
		r.logger.Info("expired error reports cleaned up", zap.Int("count", len(logs)))
	}
	return nil
}
