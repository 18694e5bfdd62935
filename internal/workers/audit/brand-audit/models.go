package brandaudit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"brandscore-workers/internal/common/gemini"
	"brandscore-workers/internal/common/logger"
	"brandscore-workers/internal/models"
)

type Input struct {
	BrandName string                         `json:"brandName"`
	BrandURL  string                         `json:"brandUrl"`
	Responses []models.QuestionnaireResponse `json:"responses"`
}

type Output struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message"`
	AuditPath   string             `json:"auditPath"` // "ai" or "fallback"
	Result      models.AuditResult `json:"result"`
	CompletedAt time.Time          `json:"completedAt"`
}

// Crawler abstracts the technical scan provider.
type Crawler interface {
	Collect(ctx context.Context, siteURL string) models.TechnicalCrawlData
}

// TextGenerator abstracts the grounded AI provider.
type TextGenerator interface {
	GenerateGrounded(ctx context.Context, prompt string) (*gemini.GroundedResponse, error)
}

type ServiceDependencies struct {
	Logger    logger.Logger
	Crawler   Crawler
	Generator TextGenerator // nil when no AI credential is configured
	Cache     *redis.Client // optional, advisory crawl cache
}
