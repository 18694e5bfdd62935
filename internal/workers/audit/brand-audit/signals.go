package brandaudit

import (
	"fmt"
	"strings"

	"brandscore-workers/internal/models"
)

// buildLocalSignals converts crawl output into the trusted signal list.
// A failed scan yields a single neutral warning: the limitation is the
// scanning path, not evidence against the brand.
func buildLocalSignals(crawl models.TechnicalCrawlData) []models.TechnicalSignal {
	if !crawl.Success {
		return []models.TechnicalSignal{
			{
				Label:  "Technical Scan",
				Value:  "Scan unavailable",
				Status: models.StatusWarning,
			},
		}
	}

	signals := []models.TechnicalSignal{
		{
			Label:  "Mobile Speed",
			Value:  fmt.Sprintf("%d/100", crawl.PerfScore),
			Status: perfStatus(crawl.PerfScore),
		},
		{
			Label:  "SEO Score",
			Value:  fmt.Sprintf("%d/100", crawl.SEOScore),
			Status: seoStatus(crawl.SEOScore),
		},
	}

	if len(crawl.TechStack) > 0 {
		signals = append(signals, models.TechnicalSignal{
			Label:  "Tech Stack",
			Value:  strings.Join(crawl.TechStack, ", "),
			Status: models.StatusGood,
		})
	}

	if len(crawl.Bugs) > 0 {
		signals = append(signals, models.TechnicalSignal{
			Label:  "Site Issues",
			Value:  fmt.Sprintf("%d issues detected", len(crawl.Bugs)),
			Status: models.StatusCritical,
		})
	}

	return signals
}

func perfStatus(score int) models.SignalStatus {
	switch {
	case score >= 90:
		return models.StatusGood
	case score >= 50:
		return models.StatusWarning
	default:
		return models.StatusCritical
	}
}

func seoStatus(score int) models.SignalStatus {
	switch {
	case score >= 90:
		return models.StatusGood
	case score >= 70:
		return models.StatusWarning
	default:
		return models.StatusCritical
	}
}

// formatQuizLines renders one prompt-ready line per questionnaire
// response. Boolean answers become YES/NO; scale answers keep the raw
// value. Responses for unknown question ids are skipped.
func formatQuizLines(responses []models.QuestionnaireResponse) []string {
	lines := make([]string, 0, len(responses))
	for _, resp := range responses {
		question := models.QuestionByID(resp.QuestionID)
		if question == nil {
			continue
		}

		var answer string
		if question.Type == models.QuestionTypeBoolean {
			if resp.Answer == 1 {
				answer = "YES"
			} else {
				answer = "NO"
			}
		} else {
			answer = fmt.Sprintf("%d/5", resp.Answer)
		}

		lines = append(lines, fmt.Sprintf("[%s] %s: %s", question.Category, answer, question.Prompt))
	}
	return lines
}

// normalizeLabel defines the dedup identity for technical signals.
func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// mergeSignals keeps every locally-collected signal and appends
// AI-declared ones whose normalized label is not already present.
func mergeSignals(local, generated []models.TechnicalSignal) []models.TechnicalSignal {
	merged := make([]models.TechnicalSignal, 0, len(local)+len(generated))
	seen := make(map[string]bool, len(local)+len(generated))

	for _, sig := range local {
		key := normalizeLabel(sig.Label)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, sig)
	}

	for _, sig := range generated {
		key := normalizeLabel(sig.Label)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, sig)
	}

	return merged
}

// mergeReport assembles the final AuditResult from the parsed AI output,
// filling documented defaults for any absent top-level field.
func mergeReport(brandName string, gen *generatedReport, localSignals []models.TechnicalSignal, sources []string) models.AuditResult {
	result := models.AuditResult{
		MomentumScore:    defaultMomentumScore,
		BusinessContext:  fmt.Sprintf("Analysis of %s", brandName),
		ExecutiveSummary: "Audit Complete.",
		TechnicalSignals: mergeSignals(localSignals, gen.TechnicalSignals),
		Categories:       []models.CategoryAnalysis{},
		PerceptionGap: models.PerceptionGap{
			Detected: false,
			Verdict:  "None",
			Details:  "",
		},
		GroundingURLs: sources,
	}

	if gen.MomentumScore != nil {
		result.MomentumScore = *gen.MomentumScore
	}
	if gen.BusinessContext != "" {
		result.BusinessContext = gen.BusinessContext
	}
	if gen.ExecutiveSummary != "" {
		result.ExecutiveSummary = gen.ExecutiveSummary
	}
	if len(gen.Categories) > 0 {
		result.Categories = gen.Categories
	}
	if gen.PerceptionGap != nil {
		result.PerceptionGap = *gen.PerceptionGap
	}

	return result
}

const defaultMomentumScore = 55
