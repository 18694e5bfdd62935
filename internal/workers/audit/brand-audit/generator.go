package brandaudit

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"brandscore-workers/internal/common/errors"
	"brandscore-workers/internal/common/logger"
	"brandscore-workers/internal/common/metrics"
	"brandscore-workers/internal/common/retry"
	"brandscore-workers/internal/models"
)

const generationAttempts = 2

// reportSchema gates the decoded AI output. Present fields must carry
// the right shape; absent top-level fields are filled by the merger.
const reportSchema = `{
	"type": "object",
	"properties": {
		"momentumScore": {"type": "integer", "minimum": 0, "maximum": 100},
		"businessContext": {"type": "string"},
		"executiveSummary": {"type": "string"},
		"technicalSignals": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["label", "value", "status"],
				"properties": {
					"label": {"type": "string"},
					"value": {"type": "string"},
					"status": {"enum": ["good", "warning", "critical"]}
				}
			}
		},
		"categories": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["title", "score"],
				"properties": {
					"title": {"type": "string"},
					"score": {"type": "integer", "minimum": 0, "maximum": 100},
					"diagnostic": {"type": "string"},
					"evidence": {"type": "array", "items": {"type": "string"}},
					"strategy": {"type": "string"}
				}
			}
		},
		"perceptionGap": {
			"type": "object",
			"properties": {
				"detected": {"type": "boolean"},
				"verdict": {"type": "string"},
				"details": {"type": "string"}
			}
		}
	}
}`

// generatedReport is the typed decode target for the AI output.
// Pointer fields distinguish "absent" from zero values for the merger.
type generatedReport struct {
	MomentumScore    *int                      `json:"momentumScore"`
	BusinessContext  string                    `json:"businessContext"`
	ExecutiveSummary string                    `json:"executiveSummary"`
	TechnicalSignals []models.TechnicalSignal  `json:"technicalSignals"`
	Categories       []models.CategoryAnalysis `json:"categories"`
	PerceptionGap    *models.PerceptionGap     `json:"perceptionGap"`
}

// ReportGenerator drives the bounded AI generation loop: two sequential
// attempts, a fixed delay between them, parse and schema failures both
// consume an attempt.
type ReportGenerator struct {
	generator  TextGenerator
	logger     logger.Logger
	retryDelay time.Duration
	schema     *gojsonschema.Schema
}

func NewReportGenerator(generator TextGenerator, log logger.Logger, retryDelay time.Duration) *ReportGenerator {
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(reportSchema))
	if err != nil {
		// The schema is a compile-time constant; failing to parse it is
		// a programming error.
		panic("invalid report schema: " + err.Error())
	}
	return &ReportGenerator{
		generator:  generator,
		logger:     log,
		retryDelay: retryDelay,
		schema:     schema,
	}
}

// Generate returns the parsed report and the grounding sources, or an
// error once both attempts are exhausted.
func (g *ReportGenerator) Generate(ctx context.Context, prompt string) (*generatedReport, []string, error) {
	var (
		report  *generatedReport
		sources []string
		lastErr *errors.StandardError
		attempt int
	)

	err := retry.Do(ctx, retry.Fixed(generationAttempts, g.retryDelay), func(ctx context.Context) error {
		attempt++
		r, s, stdErr := g.attempt(ctx, prompt)
		if stdErr != nil {
			lastErr = stdErr
			g.logger.Warn("AI generation attempt failed", map[string]interface{}{
				"attempt": attempt,
				"code":    string(stdErr.Code),
				"details": stdErr.Details,
			})
			return stdErr
		}
		report, sources = r, s
		return nil
	}, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, errors.NewAIGenerationFailedError(ctx.Err())
		}
		// Surface the typed error rather than the combinator's wrapper.
		return nil, nil, lastErr
	}

	metrics.AIGenerationAttempts.WithLabelValues("success").Inc()
	return report, sources, nil
}

func (g *ReportGenerator) attempt(ctx context.Context, prompt string) (*generatedReport, []string, *errors.StandardError) {
	resp, err := g.generator.GenerateGrounded(ctx, prompt)
	if err != nil {
		metrics.AIGenerationAttempts.WithLabelValues("provider_error").Inc()
		return nil, nil, errors.NewAIGenerationFailedError(err)
	}

	raw, err := extractJSON(resp.Text)
	if err != nil {
		metrics.AIGenerationAttempts.WithLabelValues("parse_error").Inc()
		return nil, nil, errors.NewAIParseFailedError(err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		metrics.AIGenerationAttempts.WithLabelValues("parse_error").Inc()
		return nil, nil, errors.NewAIParseFailedError(err)
	}

	validation, err := g.schema.Validate(gojsonschema.NewGoLoader(decoded))
	if err != nil {
		metrics.AIGenerationAttempts.WithLabelValues("schema_error").Inc()
		return nil, nil, errors.NewAIParseFailedError(err)
	}
	if !validation.Valid() {
		details := make([]string, 0, len(validation.Errors()))
		for _, desc := range validation.Errors() {
			details = append(details, desc.String())
		}
		metrics.AIGenerationAttempts.WithLabelValues("schema_mismatch").Inc()
		return nil, nil, errors.NewAISchemaMismatchError(strings.Join(details, "; "))
	}

	var report generatedReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		metrics.AIGenerationAttempts.WithLabelValues("parse_error").Inc()
		return nil, nil, errors.NewAIParseFailedError(err)
	}

	return &report, resp.Sources, nil
}

// extractJSON tolerates prose and markdown fences around the model's
// JSON: it strips fence markers, then slices from the first '{' to the
// last '}'.
func extractJSON(text string) (string, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return "", &jsonNotFoundError{}
	}
	return cleaned[start : end+1], nil
}

type jsonNotFoundError struct{}

func (e *jsonNotFoundError) Error() string {
	return "no JSON object found in model response"
}
