package brandaudit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	stderrors "brandscore-workers/internal/common/errors"
	"brandscore-workers/internal/common/gemini"
	"brandscore-workers/internal/common/logger"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateGrounded(ctx context.Context, prompt string) (*gemini.GroundedResponse, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gemini.GroundedResponse), args.Error(1)
}

const validReportJSON = `{
	"momentumScore": 72,
	"businessContext": "Acme sells rockets.",
	"executiveSummary": "Strong brand with weak SEO.",
	"technicalSignals": [
		{"label": "Domain Authority", "value": "42", "status": "warning"}
	],
	"categories": [
		{"title": "Strategy", "score": 80, "diagnostic": "Clear positioning.", "evidence": ["Verified site"], "strategy": "Keep going."}
	],
	"perceptionGap": {"detected": false, "verdict": "None", "details": ""}
}`

func newTestReportGenerator(gen TextGenerator) *ReportGenerator {
	return NewReportGenerator(gen, logger.NewNoOpLogger(), time.Millisecond)
}

func TestGenerate_SuccessFirstAttempt(t *testing.T) {
	mockGen := new(MockGenerator)
	mockGen.On("GenerateGrounded", mock.Anything, "prompt").
		Return(&gemini.GroundedResponse{Text: validReportJSON, Sources: []string{"https://acme.example"}}, nil).Once()

	report, sources, err := newTestReportGenerator(mockGen).Generate(context.Background(), "prompt")

	require.NoError(t, err)
	require.NotNil(t, report.MomentumScore)
	assert.Equal(t, 72, *report.MomentumScore)
	assert.Equal(t, []string{"https://acme.example"}, sources)
	mockGen.AssertExpectations(t)
}

func TestGenerate_ToleratesMarkdownFences(t *testing.T) {
	wrapped := "Here is your report:\n```json\n" + validReportJSON + "\n```\nLet me know if you need anything else."
	mockGen := new(MockGenerator)
	mockGen.On("GenerateGrounded", mock.Anything, mock.Anything).
		Return(&gemini.GroundedResponse{Text: wrapped}, nil).Once()

	report, _, err := newTestReportGenerator(mockGen).Generate(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "Acme sells rockets.", report.BusinessContext)
}

func TestGenerate_ParseFailureThenSuccess(t *testing.T) {
	mockGen := new(MockGenerator)
	mockGen.On("GenerateGrounded", mock.Anything, mock.Anything).
		Return(&gemini.GroundedResponse{Text: "I could not produce a report today."}, nil).Once()
	mockGen.On("GenerateGrounded", mock.Anything, mock.Anything).
		Return(&gemini.GroundedResponse{Text: validReportJSON}, nil).Once()

	report, _, err := newTestReportGenerator(mockGen).Generate(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "Strong brand with weak SEO.", report.ExecutiveSummary)
	mockGen.AssertNumberOfCalls(t, "GenerateGrounded", 2)
}

func TestGenerate_SchemaMismatchConsumesAttempt(t *testing.T) {
	// momentumScore outside 0-100 fails the schema gate.
	badJSON := `{"momentumScore": 250, "executiveSummary": "x"}`
	mockGen := new(MockGenerator)
	mockGen.On("GenerateGrounded", mock.Anything, mock.Anything).
		Return(&gemini.GroundedResponse{Text: badJSON}, nil).Twice()

	_, _, err := newTestReportGenerator(mockGen).Generate(context.Background(), "prompt")

	require.Error(t, err)
	stdErr, ok := err.(*stderrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeAISchemaMismatch, stdErr.Code)
	mockGen.AssertNumberOfCalls(t, "GenerateGrounded", 2)
}

func TestGenerate_ExhaustsTwoAttempts(t *testing.T) {
	mockGen := new(MockGenerator)
	mockGen.On("GenerateGrounded", mock.Anything, mock.Anything).
		Return(nil, errors.New("provider unavailable")).Twice()

	_, _, err := newTestReportGenerator(mockGen).Generate(context.Background(), "prompt")

	require.Error(t, err)
	mockGen.AssertNumberOfCalls(t, "GenerateGrounded", 2)
}

func TestGenerate_CancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mockGen := new(MockGenerator)
	mockGen.On("GenerateGrounded", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(&gemini.GroundedResponse{Text: "not json"}, nil).Once()

	gen := NewReportGenerator(mockGen, logger.NewNoOpLogger(), time.Minute)
	_, _, err := gen.Generate(ctx, "prompt")

	require.Error(t, err)
	stdErr, ok := err.(*stderrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeAIGenerationFailed, stdErr.Code)
	mockGen.AssertNumberOfCalls(t, "GenerateGrounded", 1)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, false},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`, false},
		{"surrounded by prose", `Sure! {"a": 1} Hope that helps.`, `{"a": 1}`, false},
		{"no object", "no json here", "", true},
		{"closing before opening", "} {", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
