package reportemail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"brandscore-workers/internal/common/errors"
	"brandscore-workers/internal/common/logger"
	"brandscore-workers/internal/common/validation"
)

// emailTemplate is the single transactional email this system sends. It
// deliberately carries no remote assets so it renders in every client.
const emailTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1a1a2e; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #16213e;">Your Brand Score is ready</h1>
  <p>Hi {{.Greeting}},</p>
  <p>We finished the audit for <strong>{{.BrandName}}</strong>.</p>
  <div style="background: #f2f2f7; border-radius: 8px; padding: 24px; text-align: center;">
    <div style="font-size: 48px; font-weight: bold;">{{.MomentumScore}}</div>
    <div style="color: #6b7280;">Brand Momentum Score</div>
  </div>
  <p style="text-align: center; margin: 32px 0;">
    <a href="{{.ReportURL}}" style="background: #16213e; color: #ffffff; padding: 12px 32px; border-radius: 6px; text-decoration: none;">View your full report</a>
  </p>
  <p style="color: #6b7280; font-size: 12px;">You received this email because you requested a Brand Score audit.</p>
</body>
</html>`

type emailData struct {
	Greeting      string
	BrandName     string
	MomentumScore int
	ReportURL     string
}

type Service struct {
	config   *Config
	logger   logger.Logger
	mailer   Mailer
	alerter  Alerter
	template *template.Template
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:   config,
		logger:   deps.Logger,
		mailer:   deps.Mailer,
		alerter:  deps.Alerter,
		template: template.Must(template.New("report-email").Parse(emailTemplate)),
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	s.logger.Info("Sending report email", map[string]interface{}{
		"to":        input.Email,
		"brandName": input.BrandName,
		"reportId":  input.ReportID,
	})

	if !validation.ValidateEmail(input.Email) {
		return nil, &errors.StandardError{
			Code:      "VALIDATION_FAILED",
			Message:   "Invalid recipient email address",
			Details:   input.Email,
			Retryable: false,
			Timestamp: time.Now(),
		}
	}

	htmlBody, err := s.renderBody(input)
	if err != nil {
		return nil, &errors.StandardError{
			Code:      "TEMPLATE_RENDER_FAILED",
			Message:   "Failed to render report email",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now(),
		}
	}

	subject := fmt.Sprintf("%s scored %d - your Brand Score report is ready", input.BrandName, input.MomentumScore)

	messageID, err := s.mailer.SendHTMLEmail(ctx, s.config.SenderEmail, input.Email, subject, htmlBody)
	if err != nil {
		s.alertDeliveryFailure(ctx, input, err)
		return nil, &errors.StandardError{
			Code:      "EMAIL_SEND_FAILED",
			Message:   "Failed to send report email via SES",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now(),
		}
	}

	s.logger.Info("Report email sent", map[string]interface{}{
		"to":        input.Email,
		"messageId": messageID,
	})

	if input.AuditPath == "fallback" {
		s.alertDegradedAudit(ctx, input)
	}

	return &Output{
		Success:   true,
		Message:   "Report email sent",
		MessageID: messageID,
		SentAt:    time.Now().UTC(),
	}, nil
}

func (s *Service) renderBody(input *Input) (string, error) {
	greeting := strings.TrimSpace(input.FirstName)
	if greeting == "" {
		greeting = "there"
	}

	var buf bytes.Buffer
	err := s.template.Execute(&buf, emailData{
		Greeting:      greeting,
		BrandName:     input.BrandName,
		MomentumScore: input.MomentumScore,
		ReportURL:     s.reportURL(input.ReportID),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Service) reportURL(reportID string) string {
	return fmt.Sprintf("%s/reports/%s", strings.TrimRight(s.config.ReportBaseURL, "/"), reportID)
}

// alertDegradedAudit tells ops that this report came out of the
// deterministic fallback instead of AI generation.
func (s *Service) alertDegradedAudit(ctx context.Context, input *Input) {
	if s.alerter == nil || s.config.OpsTopicARN == "" {
		return
	}

	message := fmt.Sprintf("Audit degraded to fallback report\nreportId: %s\nbrand: %s",
		input.ReportID, input.BrandName)
	if err := s.alerter.PublishAlert(ctx, s.config.OpsTopicARN, "Brand Score audit used fallback path", message); err != nil {
		s.logger.Warn("Failed to publish ops alert", map[string]interface{}{
			"reportId": input.ReportID,
			"error":    err.Error(),
		})
	}
}

// alertDeliveryFailure is best-effort: the job still fails with a
// retryable error, the alert just gets a human looking sooner.
func (s *Service) alertDeliveryFailure(ctx context.Context, input *Input, sendErr error) {
	if s.alerter == nil || s.config.OpsTopicARN == "" {
		return
	}

	message := fmt.Sprintf("Report email delivery failed\nreportId: %s\nrecipient: %s\nerror: %v",
		input.ReportID, input.Email, sendErr)
	if err := s.alerter.PublishAlert(ctx, s.config.OpsTopicARN, "Brand Score report email failed", message); err != nil {
		s.logger.Warn("Failed to publish ops alert", map[string]interface{}{
			"reportId": input.ReportID,
			"error":    err.Error(),
		})
	}
}
