package controllers

import (
	"sellthrough-backend/ingestion/inserter"
	"sellthrough-backend/ingestion/repositories"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type BatchController struct {
	BatchRepo   repositories.BatchRepository
	ReportRepo  repositories.ErrorReportRepository
	Inserter    *inserter.Inserter
	AsynqClient *asynq.Client
	RedisClient *redis.Client
	DB          *gorm.DB
}
