package brandaudit

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"brandscore-workers/internal/common/logger"
	"brandscore-workers/internal/common/metrics"
	"brandscore-workers/internal/models"
)

const crawlCachePrefix = "brandscore:crawl:"

// Service orchestrates one brand audit: normalize the URL, collect
// technical signals, build the prompt, run the AI generator, and merge.
// Execute never fails: every provider failure resolves to the
// deterministic fallback report.
type Service struct {
	config    *Config
	logger    logger.Logger
	crawler   Crawler
	reportGen *ReportGenerator
	cache     *redis.Client
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	s := &Service{
		config:  config,
		logger:  deps.Logger,
		crawler: deps.Crawler,
		cache:   deps.Cache,
	}
	if deps.Generator != nil {
		s.reportGen = NewReportGenerator(deps.Generator, deps.Logger, config.RetryDelay)
	}
	return s
}

// NormalizeURL canonicalizes a user-supplied site address: trim
// whitespace, strip trailing slashes, default the scheme to https.
// Never fails; invalid hostnames surface as downstream scan failures.
func NormalizeURL(raw string) string {
	url := strings.TrimSpace(raw)
	url = strings.TrimRight(url, "/")
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	return url
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	normalizedURL := NormalizeURL(input.BrandURL)

	s.logger.Info("Starting brand audit", map[string]interface{}{
		"brand":     input.BrandName,
		"url":       normalizedURL,
		"responses": len(input.Responses),
	})

	crawl := s.collectWithCache(ctx, normalizedURL)
	localSignals := buildLocalSignals(crawl)
	quizLines := formatQuizLines(input.Responses)

	result, path := s.generateReport(ctx, input, normalizedURL, quizLines, crawl, localSignals)

	s.logger.Info("Brand audit completed", map[string]interface{}{
		"brand":         input.BrandName,
		"path":          path,
		"momentumScore": result.MomentumScore,
		"signals":       len(result.TechnicalSignals),
	})

	return &Output{
		Success:     true,
		Message:     "Brand audit completed",
		AuditPath:   path,
		Result:      result,
		CompletedAt: time.Now(),
	}, nil
}

func (s *Service) generateReport(ctx context.Context, input *Input, normalizedURL string, quizLines []string, crawl models.TechnicalCrawlData, localSignals []models.TechnicalSignal) (models.AuditResult, string) {
	if s.reportGen == nil {
		s.logger.Info("AI generator not configured, using fallback report", map[string]interface{}{
			"brand": input.BrandName,
		})
		metrics.FallbackReports.Inc()
		return synthesizeFallback(input.BrandName, input.Responses, crawl, localSignals, s.config.PenalizeFailedScan), "fallback"
	}

	prompt := buildPrompt(input.BrandName, normalizedURL, quizLines, crawl)

	report, sources, err := s.reportGen.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("AI generation exhausted, using fallback report", map[string]interface{}{
			"brand": input.BrandName,
			"error": err.Error(),
		})
		metrics.FallbackReports.Inc()
		return synthesizeFallback(input.BrandName, input.Responses, crawl, localSignals, s.config.PenalizeFailedScan), "fallback"
	}

	return mergeReport(input.BrandName, report, localSignals, sources), "ai"
}

// collectWithCache consults the advisory crawl cache before hitting the
// scan provider. Cache failures are logged and ignored.
func (s *Service) collectWithCache(ctx context.Context, normalizedURL string) models.TechnicalCrawlData {
	key := crawlCachePrefix + normalizedURL

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key).Result()
		if err == nil {
			var data models.TechnicalCrawlData
			if jsonErr := json.Unmarshal([]byte(cached), &data); jsonErr == nil {
				metrics.CrawlCacheHits.WithLabelValues("hit").Inc()
				return data
			}
		} else if err != redis.Nil {
			s.logger.Warn("Crawl cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		metrics.CrawlCacheHits.WithLabelValues("miss").Inc()
	}

	data := s.crawler.Collect(ctx, normalizedURL)

	if s.cache != nil && data.Success {
		if encoded, err := json.Marshal(data); err == nil {
			if err := s.cache.Set(ctx, key, encoded, s.config.CrawlCacheTTL).Err(); err != nil {
				s.logger.Warn("Crawl cache write failed", map[string]interface{}{
					"key":   key,
					"error": err.Error(),
				})
			}
		}
	}

	return data
}
