// internal/workers/crm/lead-forward/handler.go
package leadforward

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"brandscore-workers/internal/common/logger"
	"brandscore-workers/internal/common/metrics"
	"brandscore-workers/internal/common/retry"
	"brandscore-workers/internal/common/webhook"
	"brandscore-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "crm.lead.forward"

var (
	ErrWebhookDeliveryFailed = errors.New("WEBHOOK_DELIVERY_FAILED")
	ErrWebhookRejected       = errors.New("WEBHOOK_REJECTED")
)

// Deliverer is the slice of the webhook client this worker needs.
type Deliverer interface {
	Deliver(ctx context.Context, payload interface{}) error
}

type Handler struct {
	deliverer Deliverer
	policy    retry.Policy
	logger    logger.Logger
}

func NewHandler(deliverer Deliverer, log logger.Logger) *Handler {
	return &Handler{
		deliverer: deliverer,
		policy:    retry.Exponential(3, 500*time.Millisecond),
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	if input.Email == "" || input.BrandName == "" {
		h.failJob(client, job, "VALIDATION_FAILED", "email and brandName are required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		errorCode := "UNKNOWN_ERROR"
		if errors.Is(err, ErrWebhookRejected) {
			errorCode = "WEBHOOK_REJECTED"
		} else if errors.Is(err, ErrWebhookDeliveryFailed) {
			errorCode = "WEBHOOK_DELIVERY_FAILED"
		}
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.completeJob(client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	body := payload{
		Lead: models.Lead{
			Brand: models.BrandIdentity{
				Name: input.BrandName,
				URL:  input.BrandURL,
			},
			Email:     input.Email,
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Source:    "brand-score-quiz",
		},
		AuditPath:     input.AuditPath,
		MomentumScore: input.MomentumScore,
		ReportID:      input.ReportID,
		Answers:       input.Answers,
	}

	err := retry.Do(ctx, h.policy, func(ctx context.Context) error {
		return h.deliverer.Deliver(ctx, body)
	}, isTransientDelivery)
	if err != nil {
		var deliveryErr *webhook.DeliveryError
		if errors.As(err, &deliveryErr) && !deliveryErr.Retryable {
			// The webhook refused the payload; retrying will not help.
			return nil, fmt.Errorf("%w: status %d: %s", ErrWebhookRejected, deliveryErr.StatusCode, deliveryErr.Body)
		}
		return nil, fmt.Errorf("%w: %v", ErrWebhookDeliveryFailed, err)
	}

	h.logger.Info("lead forwarded to automation webhook", map[string]interface{}{
		"brandName": input.BrandName,
		"email":     input.Email,
		"auditPath": input.AuditPath,
	})

	return &Output{
		Forwarded:   true,
		ForwardedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// isTransientDelivery treats transport errors and 5xx responses as
// retryable; 4xx rejections are final.
func isTransientDelivery(err error) bool {
	var deliveryErr *webhook.DeliveryError
	if errors.As(err, &deliveryErr) {
		return deliveryErr.Retryable
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
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
