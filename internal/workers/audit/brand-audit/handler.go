package brandaudit

import (
	"context"
	"fmt"
	"time"

	"brandscore-workers/internal/common/camunda"
	"brandscore-workers/internal/common/config"
	"brandscore-workers/internal/common/errors"
	"brandscore-workers/internal/common/gemini"
	"brandscore-workers/internal/common/logger"
	"brandscore-workers/internal/common/metrics"
	"brandscore-workers/internal/common/observability"
	"brandscore-workers/internal/common/pagespeed"
	"brandscore-workers/internal/common/validation"
	"brandscore-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const TaskType = "audit.brand.perform"

type Handler struct {
	config        *Config
	logger        logger.Logger
	camunda       *camunda.Client
	service       *Service
	observability *observability.Observability
	jobWorker     worker.JobWorker
}

type HandlerOptions struct {
	AppConfig     *config.Config
	Camunda       *camunda.Client
	CustomConfig  *Config
	Logger        logger.Logger
	Cache         *redis.Client
	Observability *observability.Observability

	// Dependencies below override the provider clients built from the
	// configuration; used by tests.
	Crawler   Crawler
	Generator TextGenerator
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for brand-audit: %w", err)
	}

	var loggerInstance logger.Logger
	if opts.Logger != nil {
		loggerInstance = opts.Logger
	} else {
		loggerInstance = logger.NewStructured("info", "json")
	}

	handler := &Handler{
		config:        workerConfig,
		logger:        loggerInstance,
		camunda:       opts.Camunda,
		observability: opts.Observability,
	}

	crawler := opts.Crawler
	if crawler == nil {
		crawler = pagespeed.NewClient(pagespeed.Config{
			BaseURL: workerConfig.PageSpeedBaseURL,
			APIKey:  workerConfig.PageSpeedAPIKey,
			Timeout: workerConfig.CrawlTimeout,
		}, loggerInstance)
	}

	generator := opts.Generator
	if generator == nil && workerConfig.GeminiAPIKey != "" {
		geminiClient, err := gemini.NewClient(context.Background(), gemini.Config{
			APIKey:      workerConfig.GeminiAPIKey,
			Model:       workerConfig.GeminiModel,
			Temperature: workerConfig.GeminiTemperature,
		}, loggerInstance)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client for brand-audit: %w", err)
		}
		generator = geminiClient
	}

	handler.service = NewService(ServiceDependencies{
		Logger:    loggerInstance,
		Crawler:   crawler,
		Generator: generator,
		Cache:     opts.Cache,
	}, handler.config)

	return handler, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing brand audit request", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
		"worker":             TaskType,
	})

	if !h.config.Enabled {
		h.logger.Info("Worker disabled by configuration", map[string]interface{}{
			"worker": TaskType,
		})
		h.completeJob(ctx, client, job, &Output{
			Success: false,
			Message: "Brand audit disabled",
		})
		return
	}

	input, err := h.parseInput(job)
	if err != nil {
		errorCode := extractErrorCode(err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()
		if h.observability != nil {
			h.observability.RecordJobProcessed(ctx, "failed")
		}
		h.failJob(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		errorCode := extractErrorCode(err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()
		if h.observability != nil {
			h.observability.RecordJobProcessed(ctx, "failed")
		}
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	if h.observability != nil {
		h.observability.RecordJobProcessed(ctx, "completed")
		h.observability.RecordJobDuration(ctx, TaskType, time.Since(startTime))
		h.observability.RecordAudit(ctx, output.AuditPath)
	}
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}

	schema := GetInputSchema()
	validationResult := validation.ValidateInput(variables, schema)
	if !validationResult.Valid {
		return nil, errors.NewValidationFailedError(
			fmt.Sprintf("Validation errors: %v", validationResult.GetErrorMessages()))
	}

	input := &Input{
		BrandName: variables["brandName"].(string),
		BrandURL:  variables["brandUrl"].(string),
	}

	if rawResponses, ok := variables["responses"].([]interface{}); ok {
		input.Responses = make([]models.QuestionnaireResponse, 0, len(rawResponses))
		for _, raw := range rawResponses {
			entry, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			questionID, qOK := entry["questionId"].(float64)
			answer, aOK := entry["answer"].(float64)
			if !qOK || !aOK {
				continue
			}
			input.Responses = append(input.Responses, models.QuestionnaireResponse{
				QuestionID: int(questionID),
				Answer:     int(answer),
			})
		}
	}

	return input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	variables := map[string]interface{}{
		"auditCompleted": output.Success,
		"auditMessage":   output.Message,
	}

	if output.AuditPath != "" {
		variables["auditPath"] = output.AuditPath
		variables["auditResult"] = output.Result
		variables["momentumScore"] = output.Result.MomentumScore
	}

	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(variables)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
			"worker": TaskType,
		})
		return
	}

	_, err = request.Send(ctx)
	if err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
			"worker": TaskType,
		})
	} else {
		h.logger.Info("Successfully completed brand audit", map[string]interface{}{
			"jobKey":        job.GetKey(),
			"auditPath":     output.AuditPath,
			"momentumScore": output.Result.MomentumScore,
			"worker":        TaskType,
		})
	}
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := convertToStandardError(err)
	bpmnErr := errors.ConvertToBPMNError(stdErr)

	h.logger.Error("Brand audit job failed", map[string]interface{}{
		"jobKey":       job.GetKey(),
		"errorCode":    bpmnErr.Code,
		"errorMessage": bpmnErr.Message,
		"retryable":    bpmnErr.Retryable,
		"retries":      bpmnErr.Retries,
		"worker":       TaskType,
	})

	failCmd := client.NewFailJobCommand().
		JobKey(job.GetKey()).
		Retries(int32(bpmnErr.Retries)).
		ErrorMessage(fmt.Sprintf("[%s] %s", bpmnErr.Code, bpmnErr.Message))

	var finalCmd interface {
		Send(context.Context) (*pb.FailJobResponse, error)
	}
	if len(bpmnErr.ErrorVariables) > 0 {
		varCmd, varErr := failCmd.VariablesFromMap(bpmnErr.ToErrorVariables())
		if varErr != nil {
			h.logger.Error("Failed to set error variables, sending without them", map[string]interface{}{
				"jobKey": job.GetKey(),
				"error":  varErr.Error(),
				"worker": TaskType,
			})
			finalCmd = failCmd
		} else {
			finalCmd = varCmd
		}
	} else {
		finalCmd = failCmd
	}

	_, failErr := finalCmd.Send(ctx)
	if failErr != nil {
		h.logger.Error("Failed to send BPMN error to Camunda", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  failErr.Error(),
			"worker": TaskType,
		})
	}
}

func (h *Handler) Register() error {
	if !h.config.Enabled {
		h.logger.Info("Worker is disabled, skipping registration", map[string]interface{}{
			"worker": TaskType,
		})
		return nil
	}

	zeebeClient := h.camunda.GetClient()

	jobWorker := zeebeClient.NewJobWorker().
		JobType(TaskType).
		Handler(h.Handle).
		MaxJobsActive(h.config.MaxJobsActive).
		Timeout(h.config.Timeout).
		Name(fmt.Sprintf("%s-worker", TaskType)).
		Open()

	h.jobWorker = jobWorker

	h.logger.Info("Brand audit worker registered with Camunda", map[string]interface{}{
		"taskType":      TaskType,
		"maxJobsActive": h.config.MaxJobsActive,
		"timeout":       h.config.Timeout.String(),
		"enabled":       h.config.Enabled,
	})

	return nil
}

func (h *Handler) Close() {
	if h.jobWorker != nil {
		h.logger.Info("Shutting down worker gracefully", map[string]interface{}{
			"worker": TaskType,
		})
		h.jobWorker.Close()
		h.jobWorker = nil
	}
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

func extractErrorCode(err error) string {
	if stdErr, ok := err.(*errors.StandardError); ok {
		return string(stdErr.Code)
	}
	return "UNKNOWN_ERROR"
}

func convertToStandardError(err error) *errors.StandardError {
	if stdErr, ok := err.(*errors.StandardError); ok {
		return stdErr
	}
	return &errors.StandardError{
		Code:      "BRAND_AUDIT_ERROR",
		Message:   "Failed to perform brand audit",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now(),
	}
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()

	if appConfig != nil {
		if workerCfg, exists := appConfig.Workers["brand-audit"]; exists {
			cfg.Enabled = workerCfg.Enabled
			if workerCfg.MaxJobsActive > 0 {
				cfg.MaxJobsActive = workerCfg.MaxJobsActive
			}
			if workerCfg.Timeout > 0 {
				cfg.Timeout = time.Duration(workerCfg.Timeout) * time.Millisecond
			}
		}

		if appConfig.APIs.PageSpeed.BaseURL != "" {
			cfg.PageSpeedBaseURL = appConfig.APIs.PageSpeed.BaseURL
		}
		cfg.PageSpeedAPIKey = appConfig.APIs.PageSpeed.APIKey
		if appConfig.APIs.PageSpeed.Timeout > 0 {
			cfg.CrawlTimeout = time.Duration(appConfig.APIs.PageSpeed.Timeout) * time.Millisecond
		}

		cfg.GeminiAPIKey = appConfig.APIs.Gemini.APIKey
		if appConfig.APIs.Gemini.Model != "" {
			cfg.GeminiModel = appConfig.APIs.Gemini.Model
		}
		if appConfig.APIs.Gemini.Temperature > 0 {
			cfg.GeminiTemperature = appConfig.APIs.Gemini.Temperature
		}

		cfg.PenalizeFailedScan = appConfig.Audit.PenalizeFailedScan
		if appConfig.Audit.CrawlCacheTTL > 0 {
			cfg.CrawlCacheTTL = time.Duration(appConfig.Audit.CrawlCacheTTL) * time.Second
		}
	}

	return cfg
}

// Execute implements the standard worker interface for direct execution
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.service.Execute(ctx, input)
}
