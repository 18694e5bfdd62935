package reportemail

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"brandscore-workers/internal/common/logger"
	stderrors "brandscore-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// ==========================
// Test Helper Functions
// ==========================

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendHTMLEmail(ctx context.Context, sender, recipient, subject, htmlBody string) (string, error) {
	args := m.Called(ctx, sender, recipient, subject, htmlBody)
	return args.String(0), args.Error(1)
}

type MockAlerter struct {
	mock.Mock
}

func (m *MockAlerter) PublishAlert(ctx context.Context, topicARN, subject, message string) error {
	args := m.Called(ctx, topicARN, subject, message)
	return args.Error(0)
}

func createTestConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 10,
		Timeout:       30 * time.Second,
		AWSRegion:     "us-east-1",
		SenderEmail:   "reports@brandscore.io",
		ReportBaseURL: "https://brandscore.io",
		OpsTopicARN:   "arn:aws:sns:us-east-1:123456789012:brandscore-ops",
	}
}

func createTestInput() *Input {
	return &Input{
		Email:         "founder@acmerobotics.com",
		FirstName:     "Ada",
		BrandName:     "Acme Robotics",
		ReportID:      "report-001",
		MomentumScore: 72,
		AuditPath:     "ai",
	}
}

func newTestService(mailer Mailer, alerter Alerter) *Service {
	return NewService(ServiceDependencies{
		Logger:  logger.NewNoOpLogger(),
		Mailer:  mailer,
		Alerter: alerter,
	}, createTestConfig())
}

// ==========================
// Core Functionality Tests
// ==========================

func TestService_Execute_Success(t *testing.T) {
	mailer := &MockMailer{}
	mailer.On("SendHTMLEmail",
		mock.Anything,
		"reports@brandscore.io",
		"founder@acmerobotics.com",
		"Acme Robotics scored 72 - your Brand Score report is ready",
		mock.MatchedBy(func(body string) bool {
			return strings.Contains(body, "Hi Ada,") &&
				strings.Contains(body, "Acme Robotics") &&
				strings.Contains(body, ">72<") &&
				strings.Contains(body, "https://brandscore.io/reports/report-001")
		}),
	).Return("ses-message-001", nil)

	service := newTestService(mailer, nil)

	output, err := service.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.NotNil(t, output)
	assert.True(t, output.Success)
	assert.Equal(t, "ses-message-001", output.MessageID)
	mailer.AssertExpectations(t)
}

func TestService_Execute_MissingFirstNameUsesGenericGreeting(t *testing.T) {
	var sentBody string
	mailer := &MockMailer{}
	mailer.On("SendHTMLEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sentBody = args.String(4)
		}).
		Return("ses-message-002", nil)

	service := newTestService(mailer, nil)

	input := createTestInput()
	input.FirstName = ""
	_, err := service.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.Contains(t, sentBody, "Hi there,")
}

func TestService_Execute_InvalidEmail(t *testing.T) {
	mailer := &MockMailer{}
	service := newTestService(mailer, nil)

	input := createTestInput()
	input.Email = "not-an-address"
	output, err := service.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.Nil(t, output)

	var stdErr *stderrors.StandardError
	assert.True(t, errors.As(err, &stdErr))
	assert.Equal(t, "VALIDATION_FAILED", string(stdErr.Code))
	assert.False(t, stdErr.Retryable)
	mailer.AssertNotCalled(t, "SendHTMLEmail")
}

func TestService_Execute_FallbackPathRaisesDegradedAlert(t *testing.T) {
	mailer := &MockMailer{}
	mailer.On("SendHTMLEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("ses-message-003", nil)

	alerter := &MockAlerter{}
	alerter.On("PublishAlert",
		mock.Anything,
		"arn:aws:sns:us-east-1:123456789012:brandscore-ops",
		"Brand Score audit used fallback path",
		mock.MatchedBy(func(message string) bool {
			return strings.Contains(message, "report-001") && strings.Contains(message, "Acme Robotics")
		}),
	).Return(nil)

	service := newTestService(mailer, alerter)

	input := createTestInput()
	input.AuditPath = "fallback"
	output, err := service.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.True(t, output.Success)
	alerter.AssertExpectations(t)
}

func TestService_Execute_AIPathSendsNoAlert(t *testing.T) {
	mailer := &MockMailer{}
	mailer.On("SendHTMLEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("ses-message-004", nil)

	alerter := &MockAlerter{}

	service := newTestService(mailer, alerter)

	_, err := service.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	alerter.AssertNotCalled(t, "PublishAlert")
}

func TestService_Execute_SendFailureRaisesAlert(t *testing.T) {
	mailer := &MockMailer{}
	mailer.On("SendHTMLEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("ses throttled"))

	alerter := &MockAlerter{}
	alerter.On("PublishAlert",
		mock.Anything,
		"arn:aws:sns:us-east-1:123456789012:brandscore-ops",
		"Brand Score report email failed",
		mock.MatchedBy(func(message string) bool {
			return strings.Contains(message, "report-001") && strings.Contains(message, "ses throttled")
		}),
	).Return(nil)

	service := newTestService(mailer, alerter)

	output, err := service.Execute(context.Background(), createTestInput())

	assert.Error(t, err)
	assert.Nil(t, output)

	var stdErr *stderrors.StandardError
	assert.True(t, errors.As(err, &stdErr))
	assert.Equal(t, "EMAIL_SEND_FAILED", string(stdErr.Code))
	assert.True(t, stdErr.Retryable)
	alerter.AssertExpectations(t)
}

func TestService_Execute_AlertFailureDoesNotMaskSendError(t *testing.T) {
	mailer := &MockMailer{}
	mailer.On("SendHTMLEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("ses unavailable"))

	alerter := &MockAlerter{}
	alerter.On("PublishAlert", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("sns unavailable"))

	service := newTestService(mailer, alerter)

	_, err := service.Execute(context.Background(), createTestInput())

	var stdErr *stderrors.StandardError
	assert.True(t, errors.As(err, &stdErr))
	assert.Equal(t, "EMAIL_SEND_FAILED", string(stdErr.Code))
}

func TestService_ReportURL_TrailingSlash(t *testing.T) {
	config := createTestConfig()
	config.ReportBaseURL = "https://brandscore.io/"
	service := NewService(ServiceDependencies{
		Logger: logger.NewNoOpLogger(),
		Mailer: &MockMailer{},
	}, config)

	assert.Equal(t, "https://brandscore.io/reports/report-001", service.reportURL("report-001"))
}

