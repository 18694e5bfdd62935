// internal/workers/crm/lead-forward/handler_test.go
package leadforward

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"brandscore-workers/internal/common/logger"
	"brandscore-workers/internal/common/retry"
	"brandscore-workers/internal/common/webhook"
	"brandscore-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

func createTestInput() *Input {
	return &Input{
		BrandName:     "Acme Robotics",
		BrandURL:      "https://acmerobotics.com",
		Email:         "founder@acmerobotics.com",
		FirstName:     "Ada",
		AuditPath:     "ai",
		MomentumScore: 72,
		ReportID:      "report-001",
		Answers: []models.QuestionnaireResponse{
			{QuestionID: 1, Answer: 1},
			{QuestionID: 2, Answer: 0},
		},
	}
}

func newTestHandler(t *testing.T, deliverer Deliverer) *Handler {
	h := NewHandler(deliverer, logger.NewTestLogger(t))
	h.policy = retry.Fixed(3, time.Millisecond)
	return h
}

func TestHandler_Execute_Success(t *testing.T) {
	var received payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "hook-secret", r.Header.Get("X-Webhook-Secret"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	handler := newTestHandler(t, webhook.NewClient(server.URL, "hook-secret"))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.NotNil(t, output)
	assert.True(t, output.Forwarded)
	_, err = time.Parse(time.RFC3339, output.ForwardedAt)
	assert.NoError(t, err)

	assert.Equal(t, "Acme Robotics", received.Lead.Brand.Name)
	assert.Equal(t, "founder@acmerobotics.com", received.Lead.Email)
	assert.Equal(t, "brand-score-quiz", received.Lead.Source)
	assert.Equal(t, "ai", received.AuditPath)
	assert.Equal(t, 72, received.MomentumScore)
	assert.Equal(t, "report-001", received.ReportID)
	assert.Len(t, received.Answers, 2)
}

func TestHandler_Execute_RetriesTransientFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	handler := newTestHandler(t, webhook.NewClient(server.URL, ""))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.True(t, output.Forwarded)
	assert.Equal(t, 3, attempts)
}

func TestHandler_Execute_RejectionIsNotRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "unknown lead source", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	handler := newTestHandler(t, webhook.NewClient(server.URL, ""))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrWebhookRejected))
	assert.Contains(t, err.Error(), "unknown lead source")
	assert.Nil(t, output)
	assert.Equal(t, 1, attempts)
}

func TestHandler_Execute_ExhaustedRetriesFail(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	handler := newTestHandler(t, webhook.NewClient(server.URL, ""))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrWebhookDeliveryFailed))
	assert.Nil(t, output)
	assert.Equal(t, 3, attempts)
}

func TestHandler_Execute_TransportErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused

	handler := newTestHandler(t, webhook.NewClient(server.URL, ""))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrWebhookDeliveryFailed))
	assert.Nil(t, output)
}

func TestIsTransientDelivery(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"server error", &webhook.DeliveryError{StatusCode: 500, Retryable: true}, true},
		{"client rejection", &webhook.DeliveryError{StatusCode: 422, Retryable: false}, false},
		{"transport error", errors.New("connection reset"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isTransientDelivery(tt.err))
		})
	}
}
