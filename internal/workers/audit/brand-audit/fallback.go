package brandaudit

import (
	"fmt"
	"math"

	"brandscore-workers/internal/models"
)

// Static diagnostics and strategies used when no AI report is available.
var fallbackNarratives = map[string]struct {
	diagnostic string
	strategy   string
}{
	models.CategoryStrategy: {
		diagnostic: "Positioning assessed from self-reported answers only.",
		strategy:   "Write down who the brand serves and why it wins, then test that message on five real prospects.",
	},
	models.CategoryOperations: {
		diagnostic: "Operational maturity inferred from the questionnaire.",
		strategy:   "Document the three most repeated workflows and assign a single owner to each.",
	},
	models.CategoryVisuals: {
		diagnostic: "Visual consistency could not be independently reviewed.",
		strategy:   "Consolidate logos, colors, and type into a one-page brand sheet used in every channel.",
	},
	models.CategoryContent: {
		diagnostic: "Content cadence assessed from self-reported answers only.",
		strategy:   "Commit to one publishing channel and a sustainable weekly cadence before adding more.",
	},
	models.CategoryGrowth: {
		diagnostic: "Growth channels inferred from the questionnaire.",
		strategy:   "Pick the single acquisition channel with proven traction and double its budget before diversifying.",
	},
	models.CategorySEO: {
		diagnostic: "Search visibility assessed from available technical data.",
		strategy:   "Fix crawlability basics first: titles, descriptions, and internal links on the ten most visited pages.",
	},
}

// synthesizeFallback builds the deterministic report used when the AI
// path is unavailable or exhausted. It never fails and performs no
// network I/O.
func synthesizeFallback(brandName string, responses []models.QuestionnaireResponse, crawl models.TechnicalCrawlData, localSignals []models.TechnicalSignal, penalizeFailedScan bool) models.AuditResult {
	quizScore := quizDerivedScore(responses)

	momentum := quizScore
	if crawl.Success && crawl.PerfScore >= 0 {
		momentum = int(math.Round(float64(crawl.PerfScore+quizScore) / 2))
	} else if penalizeFailedScan {
		// Policy switch: an unavailable scan shaves the score instead
		// of being neutral.
		momentum = int(math.Round(float64(quizScore) * 0.8))
	}

	categories := make([]models.CategoryAnalysis, 0, models.CategoryCount)
	for _, title := range models.CategoryTitles {
		narrative := fallbackNarratives[title]
		categories = append(categories, models.CategoryAnalysis{
			Title:      title,
			Score:      categoryScore(title, responses, quizScore),
			Diagnostic: narrative.diagnostic,
			Evidence:   []string{"Derived from questionnaire answers."},
			Strategy:   narrative.strategy,
		})
	}

	return models.AuditResult{
		MomentumScore:    momentum,
		BusinessContext:  fmt.Sprintf("Analysis of %s", brandName),
		ExecutiveSummary: fmt.Sprintf("Audit for %s completed from self-assessment data. The momentum score reflects questionnaire answers and any technical measurements collected.", brandName),
		TechnicalSignals: localSignals,
		Categories:       categories,
		PerceptionGap: models.PerceptionGap{
			Detected: false,
			Verdict:  "Inconclusive",
			Details:  "",
		},
	}
}

// quizDerivedScore is the share of affirmative answers, scaled to 100.
// An empty response set is scored against the full catalog size.
func quizDerivedScore(responses []models.QuestionnaireResponse) int {
	total := len(responses)
	if total == 0 {
		total = len(models.QuestionCatalog)
	}

	yes := 0
	for _, resp := range responses {
		if resp.Answer == 1 {
			yes++
		}
	}

	return int(math.Round(float64(yes) / float64(total) * 100))
}

// categoryScore rates one category from its own answers, falling back
// to the overall quiz score when the category has none.
func categoryScore(category string, responses []models.QuestionnaireResponse, overall int) int {
	total := 0
	yes := 0
	for _, resp := range responses {
		question := models.QuestionByID(resp.QuestionID)
		if question == nil || question.Category != category {
			continue
		}
		total++
		if resp.Answer == 1 {
			yes++
		}
	}
	if total == 0 {
		return overall
	}
	return int(math.Round(float64(yes) / float64(total) * 100))
}
