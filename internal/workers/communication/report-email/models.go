package reportemail

import (
	"context"
	"time"

	"brandscore-workers/internal/common/logger"
)

type Input struct {
	Email         string `json:"email"`
	FirstName     string `json:"firstName,omitempty"`
	BrandName     string `json:"brandName"`
	ReportID      string `json:"reportId"`
	MomentumScore int    `json:"momentumScore"`
	AuditPath     string `json:"auditPath,omitempty"`
}

type Output struct {
	Success   bool      `json:"emailSent"`
	Message   string    `json:"emailMessage"`
	MessageID string    `json:"emailMessageId,omitempty"`
	SentAt    time.Time `json:"emailSentAt"`
}

// Mailer is the SES slice this worker uses.
type Mailer interface {
	SendHTMLEmail(ctx context.Context, sender, recipient, subject, htmlBody string) (string, error)
}

// Alerter publishes ops alerts when delivery fails.
type Alerter interface {
	PublishAlert(ctx context.Context, topicARN, subject, message string) error
}

type ServiceDependencies struct {
	Logger  logger.Logger
	Mailer  Mailer
	Alerter Alerter
}
