package brandaudit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"brandscore-workers/internal/common/gemini"
	"brandscore-workers/internal/common/logger"
	"brandscore-workers/internal/models"
)

type stubCrawler struct {
	data  models.TechnicalCrawlData
	calls int
}

func (c *stubCrawler) Collect(ctx context.Context, siteURL string) models.TechnicalCrawlData {
	c.calls++
	return c.data
}

func testServiceConfig() *Config {
	cfg := DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	return cfg
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare domain", "example.com", "https://example.com"},
		{"trailing slash", "https://example.com/", "https://example.com"},
		{"multiple trailing slashes", "example.com///", "https://example.com"},
		{"whitespace", "  example.com  ", "https://example.com"},
		{"http preserved", "http://example.com", "http://example.com"},
		{"path kept", "example.com/about", "https://example.com/about"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.in))
		})
	}
}

func TestNormalizeURL_Idempotent(t *testing.T) {
	inputs := []string{"example.com", "https://example.com/", "  http://example.com//  "}
	for _, in := range inputs {
		once := NormalizeURL(in)
		assert.Equal(t, once, NormalizeURL(once))
	}
}

func TestExecute_AIPathMergesReport(t *testing.T) {
	crawler := &stubCrawler{data: models.TechnicalCrawlData{
		Success:   true,
		PerfScore: 95,
		SEOScore:  92,
		WebVitals: models.WebVitals{LCP: "1.8 s", CLS: "0.02", FCP: "1.1 s"},
	}}

	mockGen := new(MockGenerator)
	mockGen.On("GenerateGrounded", mock.Anything, mock.Anything).
		Return(&gemini.GroundedResponse{Text: validReportJSON, Sources: []string{"https://acme.example"}}, nil).Once()

	service := NewService(ServiceDependencies{
		Logger:    logger.NewNoOpLogger(),
		Crawler:   crawler,
		Generator: mockGen,
	}, testServiceConfig())

	output, err := service.Execute(context.Background(), &Input{
		BrandName: "Acme",
		BrandURL:  "acme.example/",
		Responses: catalogResponses(8),
	})

	require.NoError(t, err)
	assert.True(t, output.Success)
	assert.Equal(t, "ai", output.AuditPath)
	assert.Equal(t, 72, output.Result.MomentumScore)
	assert.Equal(t, []string{"https://acme.example"}, output.Result.GroundingURLs)

	// Local signals first, AI-declared additions appended.
	require.NotEmpty(t, output.Result.TechnicalSignals)
	assert.Equal(t, "Mobile Speed", output.Result.TechnicalSignals[0].Label)
	labels := map[string]bool{}
	for _, sig := range output.Result.TechnicalSignals {
		key := normalizeLabel(sig.Label)
		assert.False(t, labels[key], "duplicate signal label %q", sig.Label)
		labels[key] = true
	}
	assert.True(t, labels["domain authority"])
}

func TestExecute_NoGeneratorUsesFallback(t *testing.T) {
	crawler := &stubCrawler{data: models.UnavailableCrawlData("scan not configured")}

	service := NewService(ServiceDependencies{
		Logger:  logger.NewNoOpLogger(),
		Crawler: crawler,
	}, testServiceConfig())

	output, err := service.Execute(context.Background(), &Input{
		BrandName: "Acme",
		BrandURL:  "acme.example",
		Responses: catalogResponses(8),
	})

	require.NoError(t, err)
	assert.Equal(t, "fallback", output.AuditPath)
	assert.Equal(t, 50, output.Result.MomentumScore)
	require.Len(t, output.Result.TechnicalSignals, 1)
	assert.Equal(t, models.StatusWarning, output.Result.TechnicalSignals[0].Status)
	assert.Equal(t, "Inconclusive", output.Result.PerceptionGap.Verdict)
}

func TestExecute_AIExhaustionMatchesFallbackOutput(t *testing.T) {
	crawl := models.UnavailableCrawlData("scan not configured")
	crawler := &stubCrawler{data: crawl}

	mockGen := new(MockGenerator)
	mockGen.On("GenerateGrounded", mock.Anything, mock.Anything).
		Return(nil, errors.New("provider down")).Twice()

	cfg := testServiceConfig()
	service := NewService(ServiceDependencies{
		Logger:    logger.NewNoOpLogger(),
		Crawler:   crawler,
		Generator: mockGen,
	}, cfg)

	input := &Input{BrandName: "Acme", BrandURL: "acme.example", Responses: catalogResponses(8)}
	output, err := service.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "fallback", output.AuditPath)

	expected := synthesizeFallback("Acme", input.Responses, crawl, buildLocalSignals(crawl), cfg.PenalizeFailedScan)
	assert.Equal(t, expected, output.Result)
	require.Len(t, output.Result.Categories, models.CategoryCount)
	mockGen.AssertNumberOfCalls(t, "GenerateGrounded", 2)
}

func TestExecute_AlwaysReturnsCompleteResult(t *testing.T) {
	// Both providers unreachable: the result must still be fully shaped.
	crawler := &stubCrawler{data: models.UnavailableCrawlData("both tiers failed")}
	mockGen := new(MockGenerator)
	mockGen.On("GenerateGrounded", mock.Anything, mock.Anything).
		Return(nil, errors.New("unreachable")).Twice()

	service := NewService(ServiceDependencies{
		Logger:    logger.NewNoOpLogger(),
		Crawler:   crawler,
		Generator: mockGen,
	}, testServiceConfig())

	output, err := service.Execute(context.Background(), &Input{BrandName: "Acme", BrandURL: "acme.example"})

	require.NoError(t, err)
	result := output.Result
	assert.GreaterOrEqual(t, result.MomentumScore, 0)
	assert.LessOrEqual(t, result.MomentumScore, 100)
	assert.NotEmpty(t, result.BusinessContext)
	assert.NotEmpty(t, result.ExecutiveSummary)
	assert.NotNil(t, result.TechnicalSignals)
	assert.NotNil(t, result.Categories)
	assert.NotEmpty(t, result.PerceptionGap.Verdict)
}

func TestCollectWithCache_SecondAuditHitsCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	crawler := &stubCrawler{data: models.TechnicalCrawlData{Success: true, PerfScore: 88, SEOScore: 75}}

	service := NewService(ServiceDependencies{
		Logger:  logger.NewNoOpLogger(),
		Crawler: crawler,
		Cache:   cache,
	}, testServiceConfig())

	first := service.collectWithCache(context.Background(), "https://acme.example")
	second := service.collectWithCache(context.Background(), "https://acme.example")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, crawler.calls, "second call should be served from cache")
	assert.True(t, mr.Exists(crawlCachePrefix+"https://acme.example"))
}

func TestCollectWithCache_CacheErrorsAreAdvisory(t *testing.T) {
	crawlData := models.TechnicalCrawlData{Success: true, PerfScore: 88, SEOScore: 75}
	encoded, err := json.Marshal(crawlData)
	require.NoError(t, err)

	cfg := testServiceConfig()
	cache, cacheMock := redismock.NewClientMock()
	cacheMock.ExpectGet(crawlCachePrefix + "https://acme.example").SetErr(errors.New("redis down"))
	cacheMock.ExpectSet(crawlCachePrefix+"https://acme.example", encoded, cfg.CrawlCacheTTL).SetErr(errors.New("redis down"))

	crawler := &stubCrawler{data: crawlData}
	service := NewService(ServiceDependencies{
		Logger:  logger.NewNoOpLogger(),
		Crawler: crawler,
		Cache:   cache,
	}, cfg)

	// Both the read and the write fail; the audit still gets live data.
	result := service.collectWithCache(context.Background(), "https://acme.example")

	assert.Equal(t, crawlData, result)
	assert.Equal(t, 1, crawler.calls)
	assert.NoError(t, cacheMock.ExpectationsWereMet())
}

func TestCollectWithCache_FailedScanNotCached(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	crawler := &stubCrawler{data: models.UnavailableCrawlData("both tiers failed")}

	service := NewService(ServiceDependencies{
		Logger:  logger.NewNoOpLogger(),
		Crawler: crawler,
		Cache:   cache,
	}, testServiceConfig())

	service.collectWithCache(context.Background(), "https://acme.example")
	service.collectWithCache(context.Background(), "https://acme.example")

	assert.Equal(t, 2, crawler.calls)
	assert.False(t, mr.Exists(crawlCachePrefix+"https://acme.example"))
}
