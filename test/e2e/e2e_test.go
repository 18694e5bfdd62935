// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"brandscore-workers/internal/common/config"
	"brandscore-workers/internal/common/database"
	"brandscore-workers/internal/common/logger"
	"brandscore-workers/internal/common/webhook"
	"brandscore-workers/internal/models"

	brandaudit "brandscore-workers/internal/workers/audit/brand-audit"
	leadforward "brandscore-workers/internal/workers/crm/lead-forward"
	reportpersist "brandscore-workers/internal/workers/report/report-persist"
)

var (
	zeebeClient zbc.Client
	zapLog      *zap.Logger
)

func TestMain(m *testing.M) {
	var err error

	// Initialize Zeebe client with real connection
	zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         "localhost:26500",
		UsePlaintextConnection: true,
	})
	if err != nil {
		panic(fmt.Sprintf("❌ Failed to connect to Zeebe: %v", err))
	}

	zapLog, _ = zap.NewProduction()

	code := m.Run()

	zeebeClient.Close()
	os.Exit(code)
}

func TestFullE2E(t *testing.T) {
	_, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	t.Log("🚀 Starting FULL E2E Test with real services...")

	// 1. Check all external services are available
	assertAllServicesConnectivity(t, cfg)

	// 2. Create the report table
	createDatabaseTables(t, cfg)

	// 3. Run the audit pipeline end to end against real Postgres/ES/Redis
	testAuditPipeline(t, cfg)

	t.Log("✅ ALL TESTS PASSED — Full E2E workflow successful!")
}

func assertAllServicesConnectivity(t *testing.T, cfg *config.Config) {
	t.Log("🔍 Checking service connectivity...")

	// 🔧 FORCE LOCALHOST FOR E2E TESTS
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"
	cfg.Database.Elasticsearch.URL = "http://localhost:9200"

	// --- PostgreSQL ---
	db, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "❌ PostgreSQL connection failed")
	assert.NoError(t, db.Ping(context.Background()), "❌ PostgreSQL ping failed")
	db.Close()
	t.Log("✅ PostgreSQL connected")

	// --- Redis ---
	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err, "❌ Redis client creation failed")
	assert.NoError(t, rdb.Ping(context.Background()), "❌ Redis ping failed")
	t.Log("✅ Redis connected")

	// --- Elasticsearch ---
	esURL := cfg.Database.Elasticsearch.GetURL()
	t.Logf("🔗 Elasticsearch URL: %s", esURL)

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	require.NoError(t, err, "❌ Elasticsearch client creation failed")

	res, err := es.Info()
	require.NoError(t, err, "❌ Elasticsearch info request failed")
	assert.False(t, res.IsError(), "❌ Elasticsearch returned error")
	res.Body.Close()
	t.Log("✅ Elasticsearch connected")

	// --- Zeebe ---
	_, err = zeebeClient.NewTopologyCommand().Send(context.Background())
	assert.NoError(t, err, "❌ Zeebe topology request failed")
	t.Log("✅ Zeebe connected")
}

func createDatabaseTables(t *testing.T, cfg *config.Config) {
	t.Log("🔧 Creating database tables...")

	dbClient, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	defer dbClient.Close()

	_, err = dbClient.GetDB().Exec(`CREATE TABLE IF NOT EXISTS brand_reports (
		id VARCHAR(255) PRIMARY KEY,
		audit_id VARCHAR(255) UNIQUE,
		brand_name VARCHAR(255) NOT NULL,
		brand_url TEXT NOT NULL,
		lead_email VARCHAR(255),
		audit_path VARCHAR(50),
		momentum_score INTEGER,
		report JSONB,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	require.NoError(t, err, "❌ Failed to create brand_reports table")

	t.Log("✅ Database tables ready")
}

// testAuditPipeline runs the three data-plane workers in order: audit,
// persist, forward. No provider credentials are configured, so the audit
// must come back on the fallback path and still be complete.
func testAuditPipeline(t *testing.T, cfg *config.Config) {
	ctx := context.Background()
	log := logger.NewZapAdapter(zapLog)

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	defer rdb.Close()

	// --- 1. Brand audit (degraded providers, fallback path) ---
	auditConfig := brandaudit.DefaultConfig()
	auditHandler, err := brandaudit.NewHandler(brandaudit.HandlerOptions{
		CustomConfig: auditConfig,
		Logger:       log,
		Cache:        rdb.Client,
	})
	require.NoError(t, err)

	auditOutput, err := auditHandler.Execute(ctx, &brandaudit.Input{
		BrandName: "E2E Coffee Co",
		BrandURL:  "e2ecoffee.example",
		Responses: []models.QuestionnaireResponse{
			{QuestionID: 1, Answer: 1},
			{QuestionID: 2, Answer: 0},
			{QuestionID: 3, Answer: 4},
		},
	})
	require.NoError(t, err, "❌ Brand audit must never fail")
	require.True(t, auditOutput.Success)
	assert.Equal(t, "fallback", auditOutput.AuditPath)
	assert.NotEmpty(t, auditOutput.Result.TechnicalSignals)
	assert.Len(t, auditOutput.Result.Categories, 6)
	t.Logf("✅ Brand audit completed: score=%d path=%s", auditOutput.Result.MomentumScore, auditOutput.AuditPath)

	// --- 2. Persist the report ---
	dbClient, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	defer dbClient.Close()

	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err)

	persistHandler := reportpersist.NewHandler(dbClient.GetDB(), esClient, log)
	persistOutput, err := persistHandler.Execute(ctx, &reportpersist.Input{
		BrandName:     "E2E Coffee Co",
		BrandURL:      "https://e2ecoffee.example",
		Email:         "e2e@example.com",
		AuditPath:     auditOutput.AuditPath,
		MomentumScore: auditOutput.Result.MomentumScore,
		AuditResult:   auditOutput.Result,
	})
	require.NoError(t, err, "❌ Report persist failed")
	assert.NotEmpty(t, persistOutput.ReportID)
	t.Logf("✅ Report persisted: id=%s indexed=%v", persistOutput.ReportID, persistOutput.Indexed)

	// --- 3. Forward the lead to a local webhook stand-in ---
	received := 0
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received++
		w.WriteHeader(http.StatusOK)
	}))
	defer relay.Close()

	forwardHandler := leadforward.NewHandler(webhook.NewClient(relay.URL, "e2e-secret"), log)
	forwardOutput, err := forwardHandler.Execute(ctx, &leadforward.Input{
		BrandName:     "E2E Coffee Co",
		BrandURL:      "https://e2ecoffee.example",
		Email:         "e2e@example.com",
		AuditPath:     auditOutput.AuditPath,
		MomentumScore: auditOutput.Result.MomentumScore,
	})
	require.NoError(t, err, "❌ Lead forward failed")
	assert.True(t, forwardOutput.Forwarded)
	assert.Equal(t, 1, received)
	t.Log("✅ Lead forwarded to webhook relay")
}
