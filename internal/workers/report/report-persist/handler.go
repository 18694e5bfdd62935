// internal/workers/report/report-persist/handler.go
package reportpersist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"brandscore-workers/internal/common/logger"
	"brandscore-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType    = "report.persist"
	searchIndex = "brand-reports"
)

var (
	ErrReportInsertFailed = errors.New("REPORT_PERSIST_FAILED")
	ErrDuplicateReport    = errors.New("DUPLICATE_REPORT")
)

// SearchIndexer is the slice of the Elasticsearch wrapper this worker
// needs; indexing is best-effort and never fails the job.
type SearchIndexer interface {
	IndexDocument(ctx context.Context, index, docID string, body []byte) error
}

type Handler struct {
	db      *sql.DB
	indexer SearchIndexer
	logger  logger.Logger
}

func NewHandler(db *sql.DB, indexer SearchIndexer, log logger.Logger) *Handler {
	return &Handler{
		db:      db,
		indexer: indexer,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	if input.BrandName == "" || input.BrandURL == "" {
		h.failJob(client, job, "VALIDATION_FAILED", "brandName and brandUrl are required", 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		errorCode := "UNKNOWN_ERROR"
		retries := int32(0)
		if errors.Is(err, ErrReportInsertFailed) {
			errorCode = "REPORT_PERSIST_FAILED"
			retries = 3
		} else if errors.Is(err, ErrDuplicateReport) {
			errorCode = "DUPLICATE_REPORT"
			retries = 0
		}
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.completeJob(client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	auditID := input.AuditID
	if auditID == "" {
		auditID = uuid.New().String()
	} else {
		// An audit session persists exactly one report.
		var exists bool
		err := h.db.QueryRowContext(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM brand_reports
				WHERE audit_id = $1
			)`, auditID).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("%w: duplicate check failed: %v", ErrReportInsertFailed, err)
		}
		if exists {
			return nil, fmt.Errorf("%w: report already stored for audit %s", ErrDuplicateReport, auditID)
		}
	}

	reportID := uuid.New().String()
	createdAt := time.Now().UTC().Format(time.RFC3339)

	reportJSON, err := json.Marshal(input.AuditResult)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal report: %v", ErrReportInsertFailed, err)
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO brand_reports (
			id, audit_id, brand_name, brand_url, lead_email,
			audit_path, momentum_score, report, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		reportID,
		auditID,
		input.BrandName,
		input.BrandURL,
		input.Email,
		input.AuditPath,
		input.AuditResult.MomentumScore,
		reportJSON,
		createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert failed: %v", ErrReportInsertFailed, err)
	}

	indexed := h.indexReport(ctx, reportID, auditID, input, reportJSON, createdAt)

	h.logger.Info("brand report persisted", map[string]interface{}{
		"reportId":      reportID,
		"auditId":       auditID,
		"brandName":     input.BrandName,
		"momentumScore": input.AuditResult.MomentumScore,
		"indexed":       indexed,
	})

	return &Output{
		ReportID:  reportID,
		Indexed:   indexed,
		CreatedAt: createdAt,
	}, nil
}

// indexReport pushes the report into the search index. Failures are
// logged only: search is a secondary read path.
func (h *Handler) indexReport(ctx context.Context, reportID, auditID string, input *Input, reportJSON []byte, createdAt string) bool {
	if h.indexer == nil {
		return false
	}

	doc, err := json.Marshal(map[string]interface{}{
		"reportId":      reportID,
		"auditId":       auditID,
		"brandName":     input.BrandName,
		"brandUrl":      input.BrandURL,
		"auditPath":     input.AuditPath,
		"momentumScore": input.AuditResult.MomentumScore,
		"report":        json.RawMessage(reportJSON),
		"createdAt":     createdAt,
	})
	if err != nil {
		h.logger.Warn("failed to marshal search document", map[string]interface{}{
			"reportId": reportID,
			"error":    err.Error(),
		})
		return false
	}

	if err := h.indexer.IndexDocument(ctx, searchIndex, reportID, doc); err != nil {
		h.logger.Warn("search indexing failed", map[string]interface{}{
			"reportId": reportID,
			"error":    err.Error(),
		})
		return false
	}

	return true
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	} else {
		h.logger.Info("job completed successfully", map[string]interface{}{
			"jobKey": job.Key,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, retries int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
		"retries":      retries,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}
